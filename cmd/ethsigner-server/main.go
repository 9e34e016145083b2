package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/config"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/metrics"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/server"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ethsigner-server",
		Usage: "Stateless Ethereum signing server",
		Description: `An HTTP server that signs Ethereum payloads with caller supplied keys.

Endpoints:
- POST /v1/sign/hash         sign a 32-byte digest
- POST /v1/sign/message      sign an EIP-191 personal message
- POST /v1/sign/typed-data   sign an EIP-712 typed data document
- POST /v1/sign/transaction  sign a legacy or EIP-1559 transaction
- GET  /healthz, /metrics

Keys are never stored or logged.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvSignerPort},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file. Flags override file values",
				EnvVars: []string{config.EnvSignerConfigFile},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Sustained requests per second across all clients (0 disables)",
				EnvVars: []string{config.EnvSignerRateLimit},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Usage:   "Maximum burst size when rate limiting is enabled",
				EnvVars: []string{config.EnvSignerRateBurst},
			},
			&cli.StringFlag{
				Name:    "response-signing-key",
				Usage:   "Hex private key used to sign response bodies (X-Signer-Signature)",
				EnvVars: []string{config.EnvSignerResponseSigningKey},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvSignerVerbose},
			},
		},
		Action: runSignerServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runSignerServer(c *cli.Context) error {
	serverConfig, err := parseSignerServerConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{
		Debug: serverConfig.Debug || serverConfig.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	if err := serverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var responseSigner transportSigner.ITransportSigner
	if serverConfig.ResponseSigningKey != "" {
		its, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(serverConfig.ResponseSigningKey, l)
		if err != nil {
			return fmt.Errorf("failed to create response signer: %w", err)
		}
		responseSigner = its
	}

	srv, err := server.NewServer(serverConfig, metrics.NewMetrics(), responseSigner, l)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if serverConfig.Verbose {
		l.Sugar().Infow("Signer Server Configuration",
			"port", serverConfig.Port,
			"rate_limit", serverConfig.RateLimit,
			"rate_burst", serverConfig.RateBurst,
			"max_body_bytes", serverConfig.MaxBodyBytes,
			"response_signing", responseSigner != nil,
		)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	l.Sugar().Infow("Signer Server running", "port", serverConfig.Port)
	l.Sugar().Info("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func parseSignerServerConfig(c *cli.Context) (*config.SignerServerConfig, error) {
	serverConfig := config.DefaultSignerServerConfig()
	if path := c.String("config"); path != "" {
		fileConfig, err := config.LoadSignerServerConfigFile(path)
		if err != nil {
			return nil, err
		}
		serverConfig = fileConfig
	}

	if c.IsSet("port") || c.String("config") == "" {
		serverConfig.Port = c.Int("port")
	}
	if c.IsSet("rate-limit") {
		serverConfig.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("rate-burst") {
		serverConfig.RateBurst = c.Int("rate-burst")
	}
	if c.IsSet("response-signing-key") {
		serverConfig.ResponseSigningKey = c.String("response-signing-key")
	}
	if c.IsSet("verbose") {
		serverConfig.Verbose = c.Bool("verbose")
	}
	return serverConfig, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Layr-Labs/eigenx-ethsigner-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/clients/signerClient"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/config"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/server"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transactionSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// signingBackend signs either in process or through a signing server.
type signingBackend interface {
	signHash(ctx context.Context, hash []byte) (*server.SignatureResponse, error)
	signMessage(ctx context.Context, message []byte) (*server.SignatureResponse, error)
	signTypedData(ctx context.Context, payload []byte) (*server.SignatureResponse, error)
	signTransaction(ctx context.Context, fields ethSigner.TransactionFields) (*server.TransactionResponse, error)
}

type localBackend struct {
	signer   *ethSigner.Signer
	txSigner transactionSigner.ITransactionSigner
	key      ethSigner.HexKey
}

func (lb *localBackend) signHash(ctx context.Context, hash []byte) (*server.SignatureResponse, error) {
	sig, err := lb.txSigner.SignHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return server.NewSignatureResponse(sig), nil
}

func (lb *localBackend) signMessage(_ context.Context, message []byte) (*server.SignatureResponse, error) {
	sig, err := lb.signer.SignMessage(message, lb.key)
	if err != nil {
		return nil, err
	}
	return server.NewSignatureResponse(sig), nil
}

func (lb *localBackend) signTypedData(_ context.Context, payload []byte) (*server.SignatureResponse, error) {
	sig, digest, err := lb.signer.SignTypedDataWithDigest(payload, lb.key)
	if err != nil {
		return nil, err
	}
	resp := server.NewSignatureResponse(sig)
	resp.Digest = &digest
	return resp, nil
}

func (lb *localBackend) signTransaction(ctx context.Context, fields ethSigner.TransactionFields) (*server.TransactionResponse, error) {
	signed, err := lb.txSigner.SignTransaction(ctx, fields)
	if err != nil {
		return nil, err
	}
	return server.NewTransactionResponse(signed), nil
}

type remoteBackend struct {
	client signerClient.ISignerClient
	key    string
}

func (rb *remoteBackend) signHash(ctx context.Context, hash []byte) (*server.SignatureResponse, error) {
	return rb.client.SignHash(ctx, hash, rb.key)
}

func (rb *remoteBackend) signMessage(ctx context.Context, message []byte) (*server.SignatureResponse, error) {
	return rb.client.SignMessage(ctx, message, rb.key)
}

func (rb *remoteBackend) signTypedData(ctx context.Context, payload []byte) (*server.SignatureResponse, error) {
	return rb.client.SignTypedData(ctx, payload, rb.key)
}

func (rb *remoteBackend) signTransaction(ctx context.Context, fields ethSigner.TransactionFields) (*server.TransactionResponse, error) {
	return rb.client.SignTransaction(ctx, fields, rb.key)
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if !c.Bool("verbose") {
		return zap.NewNop(), nil
	}
	return logger.NewLogger(&logger.LoggerConfig{Debug: true})
}

func newBackend(c *cli.Context, l *zap.Logger) (signingBackend, error) {
	key := c.String("private-key")
	if key == "" {
		return nil, fmt.Errorf("a private key is required (--private-key or %s)", config.EnvSignerPrivateKey)
	}

	if remote := c.String("remote"); remote != "" {
		client, err := signerClient.NewSignerClientFromRemoteSignerConfig(&config.RemoteSignerConfig{
			Url:                   remote,
			ExpectedSignerAddress: c.String("expected-signer"),
			Timeout:               c.Duration("timeout"),
		}, l)
		if err != nil {
			return nil, err
		}
		return &remoteBackend{client: client, key: key}, nil
	}

	signer := ethSigner.NewSigner(l, nil)
	txSigner, err := transactionSigner.NewTransactionSigner(&transactionSigner.SignerConfig{PrivateKey: key}, signer, l)
	if err != nil {
		return nil, err
	}
	return &localBackend{signer: signer, txSigner: txSigner, key: ethSigner.HexKey(key)}, nil
}

func withBackend(c *cli.Context, fn func(ctx context.Context, b signingBackend) (any, error)) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	b, err := newBackend(c, l)
	if err != nil {
		return err
	}
	out, err := fn(c.Context, b)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, out)
}

type generatedKey struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

func keygenCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	key, err := localKeyGenerator.NewLocalKeyGenerator(l).GenerateECDSAKey(c.Context)
	if err != nil {
		return err
	}
	pub, err := key.GetPublicKeyHexUnprefixed()
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, &generatedKey{
		Address:    key.Address,
		PublicKey:  pub,
		PrivateKey: key.GetPrivateKeyHex(),
	})
}

func addressCommand(c *cli.Context) error {
	key := c.String("private-key")
	if key == "" {
		return fmt.Errorf("a private key is required (--private-key or %s)", config.EnvSignerPrivateKey)
	}
	addr, err := ethSigner.AddressOf(ethSigner.HexKey(key))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, map[string]string{"address": addr.Hex()})
}

func signHashCommand(c *cli.Context) error {
	hash, err := util.DecodeHex(c.String("hash"))
	if err != nil {
		return fmt.Errorf("invalid --hash: %w", err)
	}
	return withBackend(c, func(ctx context.Context, b signingBackend) (any, error) {
		return b.signHash(ctx, hash)
	})
}

func signMessageCommand(c *cli.Context) error {
	message := []byte(c.String("message"))
	if c.Bool("hex") {
		decoded, err := util.DecodeHex(c.String("message"))
		if err != nil {
			return fmt.Errorf("invalid --message: %w", err)
		}
		message = decoded
	}
	return withBackend(c, func(ctx context.Context, b signingBackend) (any, error) {
		return b.signMessage(ctx, message)
	})
}

func signTypedDataCommand(c *cli.Context) error {
	payload, err := readInput(c, c.String("file"))
	if err != nil {
		return err
	}
	return withBackend(c, func(ctx context.Context, b signingBackend) (any, error) {
		return b.signTypedData(ctx, payload)
	})
}

func signTransactionCommand(c *cli.Context) error {
	payload, err := readInput(c, c.String("file"))
	if err != nil {
		return err
	}
	fields, err := ethSigner.ParseTransactionFields(payload)
	if err != nil {
		return err
	}
	if chain := c.String("chain"); chain != "" {
		// A null chainId counts as absent, as it does when signing.
		if v, ok := fields[ethSigner.FieldChainID]; !ok || v == nil {
			chainId, err := config.ResolveChainId(chain)
			if err != nil {
				return err
			}
			fields[ethSigner.FieldChainID] = uint64(chainId)
		}
	}
	return withBackend(c, func(ctx context.Context, b signingBackend) (any, error) {
		return b.signTransaction(ctx, fields)
	})
}

func readInput(c *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		reader := c.App.Reader
		if reader == nil {
			reader = os.Stdin
		}
		return io.ReadAll(reader)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

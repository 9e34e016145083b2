package main

import (
	"fmt"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/config"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "ethsigner",
		Usage: "Sign Ethereum hashes, messages, typed data and transactions",
		Description: `Signs locally with the given private key, or through a running
ethsigner-server when --remote is set. Output is indented JSON.

Nothing is broadcast to a network.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "private-key",
				Aliases: []string{"k"},
				Usage:   "Hex encoded secp256k1 private key",
				EnvVars: []string{config.EnvSignerPrivateKey},
			},
			&cli.StringFlag{
				Name:    "remote",
				Usage:   "Base URL of an ethsigner-server to sign with instead of signing locally",
				EnvVars: []string{config.EnvSignerRemoteURL},
			},
			&cli.StringFlag{
				Name:    "expected-signer",
				Usage:   "With --remote, require responses signed by this address",
				EnvVars: []string{config.EnvSignerExpectedAddress},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "With --remote, the HTTP request timeout",
				Value: 10 * time.Second,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvSignerVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Generate a new secp256k1 key and print it; the key is not stored",
				Action: keygenCommand,
			},
			{
				Name:   "address",
				Usage:  "Print the address of the private key",
				Action: addressCommand,
			},
			{
				Name:  "sign-hash",
				Usage: "Sign a 32-byte hash as-is",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "hash",
						Usage:    "0x-prefixed 32-byte hash",
						Required: true,
					},
				},
				Action: signHashCommand,
			},
			{
				Name:  "sign-message",
				Usage: "Sign a message with the EIP-191 personal message prefix",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "message",
						Usage:    "Message to sign",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "hex",
						Usage: "Treat --message as hex encoded bytes",
					},
				},
				Action: signMessageCommand,
			},
			{
				Name:  "sign-typed-data",
				Usage: "Sign an EIP-712 typed data JSON document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the typed data JSON, or - for stdin",
						Required: true,
					},
				},
				Action: signTypedDataCommand,
			},
			{
				Name:  "sign-tx",
				Usage: "Sign a legacy or EIP-1559 transaction described by a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the transaction JSON, or - for stdin",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "chain",
						Usage:   fmt.Sprintf("Chain name or id used when the file has no chainId: %s", config.GetSupportedChainsString()),
						EnvVars: []string{config.EnvSignerChain},
					},
				},
				Action: signTransactionCommand,
			},
		},
	}
}

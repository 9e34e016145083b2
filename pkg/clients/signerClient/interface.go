package signerClient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/server"
)

// ISignerClient defines the interface for talking to a signing server.
// It lets the CLI swap local signing for a remote server and lets tests stub it.
type ISignerClient interface {
	// SetHttpClient allows setting a custom HTTP client.
	SetHttpClient(client *http.Client)

	// SignHash signs a 32-byte digest.
	SignHash(ctx context.Context, hash []byte, privateKey string) (*server.SignatureResponse, error)

	// SignMessage signs message with the EIP-191 personal message prefix.
	SignMessage(ctx context.Context, message []byte, privateKey string) (*server.SignatureResponse, error)

	// SignTypedData signs an EIP-712 JSON document. The response includes the digest.
	SignTypedData(ctx context.Context, typedData json.RawMessage, privateKey string) (*server.SignatureResponse, error)

	// SignTransaction signs a legacy or EIP-1559 transaction described by fields.
	SignTransaction(ctx context.Context, fields ethSigner.TransactionFields, privateKey string) (*server.TransactionResponse, error)

	// Health reports server liveness and, when enabled, the response signer address.
	Health(ctx context.Context) (*server.HealthResponse, error)
}

// Compile-time check to ensure Client implements ISignerClient
var _ ISignerClient = (*Client)(nil)

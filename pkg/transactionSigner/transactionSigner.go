package transactionSigner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ITransactionSigner signs transactions and digests with a single bound key.
// Nothing is sent to a network.
type ITransactionSigner interface {
	// SignTransaction builds and signs a transaction from loosely typed fields
	SignTransaction(ctx context.Context, fields ethSigner.TransactionFields) (*ethSigner.SignedTransaction, error)

	// SignTx signs an already built go-ethereum transaction for chainID
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// SignHash signs a 32-byte digest
	SignHash(ctx context.Context, hash []byte) (*ethSigner.Signature, error)

	// GetFromAddress returns the address that will be used for signing
	GetFromAddress() common.Address
}

type SignerConfig struct {
	PrivateKey string `json:"privateKey" yaml:"privateKey"`
}

func NewTransactionSigner(cfg *SignerConfig, signer *ethSigner.Signer, logger *zap.Logger) (ITransactionSigner, error) {
	if cfg == nil || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	return NewPrivateKeySigner(cfg.PrivateKey, signer, logger)
}

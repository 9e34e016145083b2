package transactionSigner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// PrivateKeySigner implements ITransactionSigner with an in-process private key
type PrivateKeySigner struct {
	signer      *ethSigner.Signer
	logger      *zap.Logger
	privateKey  ethSigner.RawKey
	fromAddress common.Address
}

var _ ITransactionSigner = (*PrivateKeySigner)(nil)

// NewPrivateKeySigner validates privateKey and binds it to signer. A nil signer
// gets a facade without metrics.
func NewPrivateKeySigner(privateKey string, signer *ethSigner.Signer, logger *zap.Logger) (*PrivateKeySigner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fromAddress, err := ethSigner.AddressOf(ethSigner.HexKey(privateKey))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	key, err := util.DecodeHex(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if signer == nil {
		signer = ethSigner.NewSigner(logger, nil)
	}

	logger.Sugar().Infow("Created private key transaction signer",
		"fromAddress", fromAddress.Hex(),
	)
	return &PrivateKeySigner{
		signer:      signer,
		logger:      logger,
		privateKey:  ethSigner.RawKey(key),
		fromAddress: fromAddress,
	}, nil
}

// SignTransaction builds and signs a transaction from fields
func (pks *PrivateKeySigner) SignTransaction(ctx context.Context, fields ethSigner.TransactionFields) (*ethSigner.SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signed, err := pks.signer.SignTransaction(fields, pks.privateKey)
	if err != nil {
		return nil, err
	}

	pks.logger.Sugar().Debugw("Signed transaction",
		"from", pks.fromAddress.Hex(),
		"type", signed.Type.String(),
		"hash", signed.Hash.Hex(),
	)
	return signed, nil
}

// SignTx signs an already built transaction for chainID
func (pks *PrivateKeySigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pks.signer.SignTx(tx, chainID, pks.privateKey)
}

// SignHash signs a 32-byte digest
func (pks *PrivateKeySigner) SignHash(ctx context.Context, hash []byte) (*ethSigner.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pks.signer.SignHash(hash, pks.privateKey)
}

// GetFromAddress returns the address that will be used for signing
func (pks *PrivateKeySigner) GetFromAddress() common.Address {
	return pks.fromAddress
}

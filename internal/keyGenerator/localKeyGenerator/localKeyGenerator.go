package localKeyGenerator

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/Layr-Labs/eigenx-ethsigner-go/internal/keyGenerator"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// LocalKeyGenerator creates secp256k1 keys in process from crypto/rand.
type LocalKeyGenerator struct {
	logger *zap.Logger
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalKeyGenerator{
		logger: logger,
	}
}

func (l *LocalKeyGenerator) GenerateECDSAKey(ctx context.Context) (*keyGenerator.GeneratedECDSAKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generated, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}
	keyBytes := crypto.FromECDSA(generated)

	privateKey, err := ecdsa.NewPrivateKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load generated key: %w", err)
	}
	address, err := privateKey.DeriveAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive Ethereum address from public key: %w", err)
	}

	l.logger.Info("Generated local ECDSA key",
		zap.String("address", address.String()),
	)

	return &keyGenerator.GeneratedECDSAKey{
		PrivateKey: keyBytes,
		PublicKey:  privateKey.Public(),
		Address:    address.String(),
	}, nil
}

package inMemoryTransportSigner

import (
	"fmt"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

type InMemoryTransportSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ transportSigner.ITransportSigner = (*InMemoryTransportSigner)(nil)

func NewECDSAInMemoryTransportSigner(
	privateKey []byte,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	key, err := ecdsa.NewPrivateKeyFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewInMemoryTransportSigner(key, logger)
}

func NewECDSAInMemoryTransportSignerFromHex(
	privateKey string,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	// Validate with the facade rules first so a zero or oversized key is rejected
	// the same way it is for signing requests.
	if _, err := ethSigner.AddressOf(ethSigner.HexKey(privateKey)); err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	keyBytes, err := util.DecodeHex(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewECDSAInMemoryTransportSigner(keyBytes, logger)
}

func NewInMemoryTransportSigner(
	key *ecdsa.PrivateKey,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	address, err := key.DeriveAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signer address: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	its := &InMemoryTransportSigner{
		logger:     logger,
		privateKey: key,
		address:    common.HexToAddress(address.String()),
	}
	logger.Sugar().Infow("Response signing enabled", "address", its.address.Hex())
	return its, nil
}

func (its *InMemoryTransportSigner) Address() common.Address {
	return its.address
}

// data is the raw message bytes to sign
func (its *InMemoryTransportSigner) SignMessage(data []byte) ([]byte, error) {
	hashedData := crypto.Keccak256Hash(data)
	sig, err := its.privateKey.Sign(hashedData[:])
	if err != nil {
		return nil, err
	}
	sigBytes := sig.Bytes()
	if len(sigBytes) != ethSigner.SignatureLength {
		return nil, fmt.Errorf("unexpected signature length %d", len(sigBytes))
	}
	if sigBytes[64] < 27 {
		sigBytes[64] += 27
	}
	return sigBytes, nil
}

func (its *InMemoryTransportSigner) CreateAuthenticatedMessage(data []byte) (*transportSigner.SignedMessage, error) {
	sigBytes, err := its.SignMessage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authenticated message: %w", err)
	}
	return transportSigner.NewSignedMessage(data, sigBytes), nil
}

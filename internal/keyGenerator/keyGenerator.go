package keyGenerator

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GeneratedECDSAKey is a freshly generated secp256k1 key. It is handed to the
// caller and never stored.
type GeneratedECDSAKey struct {
	PrivateKey []byte
	PublicKey  *ecdsa.PublicKey
	Address    string
}

func (gek *GeneratedECDSAKey) GetPrivateKeyHex() string {
	return hexutil.Encode(gek.PrivateKey)
}

func (gek *GeneratedECDSAKey) GetPublicKeyBytes() ([]byte, error) {
	if gek.PublicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return gek.PublicKey.Bytes(), nil
}

func (gek *GeneratedECDSAKey) GetPublicKeyHex() (string, error) {
	pubKeyBytes, err := gek.GetPublicKeyBytes()
	if err != nil {
		return "", fmt.Errorf("failed to get public key bytes: %w", err)
	}
	return hexutil.Encode(pubKeyBytes), nil
}

// GetPublicKeyBytesUnprefixed returns the 64-byte X || Y form without the 0x04 prefix
func (gek *GeneratedECDSAKey) GetPublicKeyBytesUnprefixed() ([]byte, error) {
	pubKeyBytes, err := gek.GetPublicKeyBytes()
	if err != nil {
		return nil, err
	}

	if len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04 {
		return pubKeyBytes[1:], nil
	}
	if len(pubKeyBytes) == 64 {
		return pubKeyBytes, nil
	}

	return nil, fmt.Errorf("unexpected public key length: %d", len(pubKeyBytes))
}

func (gek *GeneratedECDSAKey) GetPublicKeyHexUnprefixed() (string, error) {
	pubKeyBytes, err := gek.GetPublicKeyBytesUnprefixed()
	if err != nil {
		return "", fmt.Errorf("failed to get unprefixed public key bytes: %w", err)
	}
	return hexutil.Encode(pubKeyBytes), nil
}

type IKeyGenerator interface {
	GenerateECDSAKey(ctx context.Context) (*GeneratedECDSAKey, error)
}

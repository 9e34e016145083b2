package ethSigner

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyLength is the size of a secp256k1 private scalar in bytes.
const PrivateKeyLength = 32

// KeyMaterial is a private key in one of the accepted input forms.
// The facade decodes it on every call and drops the result when the call returns.
type KeyMaterial interface {
	toECDSA() (*ecdsa.PrivateKey, error)
}

// HexKey is a hex encoded private key, with or without a 0x prefix.
type HexKey string

// RawKey is a private key as raw big-endian bytes.
type RawKey []byte

func (k HexKey) toECDSA() (*ecdsa.PrivateKey, error) {
	s := strings.TrimSpace(string(k))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, fmt.Errorf("private key is empty")
	}
	if len(s) != PrivateKeyLength*2 {
		return nil, fmt.Errorf("private key must be %d hex characters, got %d", PrivateKeyLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid hex")
	}
	return RawKey(b).toECDSA()
}

func (k RawKey) toECDSA() (*ecdsa.PrivateKey, error) {
	if len(k) != PrivateKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeyLength, len(k))
	}
	// ToECDSA rejects zero and scalars >= N.
	key, err := crypto.ToECDSA(k)
	if err != nil {
		return nil, fmt.Errorf("private key is not a valid secp256k1 scalar")
	}
	return key, nil
}

func decodeKey(op string, key KeyMaterial) (*ecdsa.PrivateKey, error) {
	if key == nil {
		return nil, newSignError(op, ErrInvalidKey, fmt.Errorf("private key is required"))
	}
	pk, err := key.toECDSA()
	if err != nil {
		return nil, newSignError(op, ErrInvalidKey, err)
	}
	return pk, nil
}

// AddressOf returns the Ethereum address controlled by key.
func AddressOf(key KeyMaterial) (common.Address, error) {
	pk, err := decodeKey("address_of", key)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(pk.PublicKey), nil
}

package transportSigner

import (
	"fmt"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureHeader carries the hex encoded signature of a response body.
const SignatureHeader = "X-Signer-Signature"

type SignedMessage struct {
	Payload   []byte   `json:"payload"`   // Raw message bytes
	Hash      [32]byte `json:"hash"`      // keccak256(payload)
	Signature []byte   `json:"signature"` // r || s || v over hash, v in {27, 28}
}

type ITransportSigner interface {
	CreateAuthenticatedMessage(data []byte) (*SignedMessage, error)
	SignMessage(data []byte) ([]byte, error) // Sign raw message bytes, returns signature
	Address() common.Address
}

// VerifyMessage checks that signature over keccak256(data) was produced by expected.
func VerifyMessage(data []byte, signature []byte, expected common.Address) error {
	hash := crypto.Keccak256Hash(data)
	signer, err := ethSigner.RecoverAddress(hash[:], signature)
	if err != nil {
		return fmt.Errorf("failed to recover message signer: %w", err)
	}
	if signer != expected {
		return fmt.Errorf("message signed by %s, expected %s", signer.Hex(), expected.Hex())
	}
	return nil
}

// NewSignedMessage pairs payload with a signature received alongside it.
func NewSignedMessage(payload []byte, signature []byte) *SignedMessage {
	return &SignedMessage{
		Payload:   payload,
		Hash:      crypto.Keccak256Hash(payload),
		Signature: signature,
	}
}

// Verify checks the message hash and that it was signed by expected.
func (m *SignedMessage) Verify(expected common.Address) error {
	if crypto.Keccak256Hash(m.Payload) != common.Hash(m.Hash) {
		return fmt.Errorf("payload does not match message hash")
	}
	return VerifyMessage(m.Payload, m.Signature, expected)
}

package ethSigner

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Operation names, used in errors, logs and metrics labels.
const (
	OpSignHash        = "sign_hash"
	OpSignMessage     = "sign_message"
	OpSignTypedData   = "sign_typed_data"
	OpSignTransaction = "sign_transaction"
)

// Observer receives the outcome of every signing call.
type Observer interface {
	ObserveSign(operation string, err error, elapsed time.Duration)
}

// Signer is the signing facade. It keeps no per-call state and is safe for
// concurrent use; keys are decoded per call and never retained.
type Signer struct {
	logger   *zap.Logger
	observer Observer
}

// NewSigner creates a Signer. Both arguments may be nil.
func NewSigner(logger *zap.Logger, observer Observer) *Signer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signer{
		logger:   logger,
		observer: observer,
	}
}

// SignHash signs a 32-byte digest as-is. The returned V is 27 or 28.
func (s *Signer) SignHash(hash []byte, key KeyMaterial) (sig *Signature, err error) {
	defer s.observe(OpSignHash, time.Now(), &err)
	return signHash(OpSignHash, hash, key)
}

// SignMessage signs message using the EIP-191 personal message prefix.
func (s *Signer) SignMessage(message []byte, key KeyMaterial) (sig *Signature, err error) {
	defer s.observe(OpSignMessage, time.Now(), &err)
	return signHash(OpSignMessage, accounts.TextHash(message), key)
}

func signHash(op string, hash []byte, key KeyMaterial) (*Signature, error) {
	if len(hash) != common.HashLength {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("hash must be exactly %d bytes, got %d", common.HashLength, len(hash)))
	}
	pk, err := decodeKey(op, key)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash, pk)
	if err != nil {
		return nil, newSignError(op, ErrSignFailure, errors.Wrap(err, "ecdsa signing failed"))
	}
	if len(sig) != SignatureLength {
		return nil, newSignError(op, ErrSignFailure, fmt.Errorf("unexpected signature length %d", len(sig)))
	}
	// crypto.Sign returns the recovery id as 0/1.
	sig[64] += 27
	return signatureFromBytes(sig), nil
}

func (s *Signer) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	err := *errp
	if s.observer != nil {
		s.observer.ObserveSign(op, err, elapsed)
	}
	if err == nil {
		s.logger.Debug("Signing operation completed",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
		)
		return
	}
	if errors.Is(err, ErrSignFailure) {
		s.logger.Error("Signing operation failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Signing operation rejected",
		zap.String("operation", op),
		zap.Error(err),
	)
}

// RecoverAddress returns the address that produced sig over hash. V may be 0/1 or 27/28.
func RecoverAddress(hash []byte, sig []byte) (common.Address, error) {
	if len(hash) != common.HashLength {
		return common.Address{}, fmt.Errorf("hash must be exactly %d bytes, got %d", common.HashLength, len(hash))
	}
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	local := make([]byte, SignatureLength)
	copy(local, sig)
	if local[64] >= 27 {
		local[64] -= 27
	}
	pub, err := crypto.SigToPub(hash, local)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

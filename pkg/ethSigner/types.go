package ethSigner

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = 65

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature struct {
	R [32]byte
	S [32]byte
	V uint8
}

// Bytes returns the 65-byte r || s || v concatenation.
func (s *Signature) Bytes() []byte {
	out := make([]byte, SignatureLength)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

func (s *Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		R         hexutil.Bytes `json:"r"`
		S         hexutil.Bytes `json:"s"`
		V         uint8         `json:"v"`
		Signature hexutil.Bytes `json:"signature"`
	}{
		R:         s.R[:],
		S:         s.S[:],
		V:         s.V,
		Signature: s.Bytes(),
	})
}

func signatureFromBytes(sig []byte) *Signature {
	out := &Signature{V: sig[64]}
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	return out
}

// TxType identifies the envelope a transaction was encoded with.
type TxType uint8

const (
	TxTypeLegacy     TxType = 0
	TxTypeDynamicFee TxType = 2
)

func (t TxType) String() string {
	switch t {
	case TxTypeLegacy:
		return "legacy"
	case TxTypeDynamicFee:
		return "eip1559"
	default:
		return "unknown"
	}
}

// SignedTransaction is the result of signing a transaction.
//
// V is the value carried in the envelope: chainId*2+35+parity for legacy
// transactions and the y-parity (0 or 1) for EIP-1559 transactions.
type SignedTransaction struct {
	Type           TxType
	R              [32]byte
	S              [32]byte
	V              *big.Int
	RawTransaction []byte
	Hash           common.Hash
}

func (st *SignedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type           uint8         `json:"type"`
		R              hexutil.Bytes `json:"r"`
		S              hexutil.Bytes `json:"s"`
		V              *big.Int      `json:"v"`
		RawTransaction hexutil.Bytes `json:"rawTransaction"`
		Hash           common.Hash   `json:"hash"`
	}{
		Type:           uint8(st.Type),
		R:              st.R[:],
		S:              st.S[:],
		V:              st.V,
		RawTransaction: st.RawTransaction,
		Hash:           st.Hash,
	})
}

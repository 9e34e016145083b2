package server

import (
	"encoding/json"
	"math/big"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Routes served by the signing API.
const (
	RouteSignHash        = "/v1/sign/hash"
	RouteSignMessage     = "/v1/sign/message"
	RouteSignTypedData   = "/v1/sign/typed-data"
	RouteSignTransaction = "/v1/sign/transaction"
	RouteHealth          = "/healthz"
	RouteMetrics         = "/metrics"
)

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-Id"

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidArgument  = "invalid_argument"
	CodeInvalidKey       = "invalid_key"
	CodeEncodingError    = "encoding_error"
	CodeSignFailure      = "sign_failure"
	CodeRateLimited      = "rate_limited"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeRequestTooLarge  = "request_too_large"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal_error"
)

// Message encodings accepted by SignMessageRequest.
const (
	MessageEncodingAuto = ""
	MessageEncodingUTF8 = "utf8"
	MessageEncodingHex  = "hex"
)

type SignHashRequest struct {
	Hash       string `json:"hash" validate:"required"`
	PrivateKey string `json:"privateKey" validate:"required"`
}

// SignMessageRequest signs an EIP-191 personal message. With no encoding, a
// message that is valid 0x-prefixed hex is decoded; anything else is signed as UTF-8.
type SignMessageRequest struct {
	Message    string `json:"message"`
	Encoding   string `json:"encoding" validate:"omitempty,oneof=utf8 hex"`
	PrivateKey string `json:"privateKey" validate:"required"`
}

type SignTypedDataRequest struct {
	TypedData  json.RawMessage `json:"typedData" validate:"required"`
	PrivateKey string          `json:"privateKey" validate:"required"`
}

type SignTransactionRequest struct {
	Transaction json.RawMessage `json:"transaction" validate:"required"`
	PrivateKey  string          `json:"privateKey" validate:"required"`
}

type SignatureResponse struct {
	R         hexutil.Bytes `json:"r"`
	S         hexutil.Bytes `json:"s"`
	V         uint8         `json:"v"`
	Signature hexutil.Bytes `json:"signature"`
	Digest    *common.Hash  `json:"digest,omitempty"`
}

func NewSignatureResponse(sig *ethSigner.Signature) *SignatureResponse {
	return &SignatureResponse{
		R:         common.CopyBytes(sig.R[:]),
		S:         common.CopyBytes(sig.S[:]),
		V:         sig.V,
		Signature: sig.Bytes(),
	}
}

// TransactionResponse mirrors the JSON form of ethSigner.SignedTransaction.
type TransactionResponse struct {
	Type           uint8         `json:"type"`
	R              hexutil.Bytes `json:"r"`
	S              hexutil.Bytes `json:"s"`
	V              *big.Int      `json:"v"`
	RawTransaction hexutil.Bytes `json:"rawTransaction"`
	Hash           common.Hash   `json:"hash"`
}

func NewTransactionResponse(st *ethSigner.SignedTransaction) *TransactionResponse {
	return &TransactionResponse{
		Type:           uint8(st.Type),
		R:              common.CopyBytes(st.R[:]),
		S:              common.CopyBytes(st.S[:]),
		V:              st.V,
		RawTransaction: st.RawTransaction,
		Hash:           st.Hash,
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	SignerAddress string `json:"signerAddress,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

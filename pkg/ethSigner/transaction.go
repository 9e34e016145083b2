package ethSigner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Recognised TransactionFields keys.
const (
	FieldTo                   = "to"
	FieldValue                = "value"
	FieldNonce                = "nonce"
	FieldGas                  = "gas"
	FieldGasPrice             = "gasPrice"
	FieldMaxFeePerGas         = "maxFeePerGas"
	FieldMaxPriorityFeePerGas = "maxPriorityFeePerGas"
	FieldData                 = "data"
	FieldChainID              = "chainId"
)

// DefaultChainID is used when the fields carry no chainId.
const DefaultChainID = 1

// TransactionFields is a loosely typed transaction description.
//
// Numbers may be Go integers, json.Number, *big.Int, decimal strings or 0x-hex
// strings. The presence of maxFeePerGas selects an EIP-1559 transaction, in
// which case gasPrice is ignored; otherwise maxPriorityFeePerGas is ignored. An absent or empty
// "to" creates a contract. Unknown keys are ignored.
type TransactionFields map[string]any

// ParseTransactionFields decodes a JSON object into TransactionFields, keeping
// numbers as json.Number so large amounts do not lose precision.
func ParseTransactionFields(payload []byte) (TransactionFields, error) {
	return parseTransactionFields("parse_transaction", payload)
}

func parseTransactionFields(op string, payload []byte) (TransactionFields, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("transaction payload is empty"))
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var fields TransactionFields
	if err := dec.Decode(&fields); err != nil {
		return nil, newSignError(op, ErrInvalidArgument, errors.Wrap(err, "malformed transaction JSON"))
	}
	if fields == nil {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("transaction must be a JSON object"))
	}
	return fields, nil
}

// SignTransaction builds a legacy (EIP-155) or EIP-1559 transaction from fields
// and signs it for the resolved chain id.
func (s *Signer) SignTransaction(fields TransactionFields, key KeyMaterial) (st *SignedTransaction, err error) {
	defer s.observe(OpSignTransaction, time.Now(), &err)
	return signTransaction(OpSignTransaction, fields, key)
}

// SignTransactionJSON is SignTransaction over a JSON encoded field set.
func (s *Signer) SignTransactionJSON(payload []byte, key KeyMaterial) (st *SignedTransaction, err error) {
	defer s.observe(OpSignTransaction, time.Now(), &err)

	fields, err := parseTransactionFields(OpSignTransaction, payload)
	if err != nil {
		return nil, err
	}
	return signTransaction(OpSignTransaction, fields, key)
}

// BuildTransaction maps fields onto an unsigned go-ethereum transaction and
// returns it together with the chain id it must be signed for.
func BuildTransaction(fields TransactionFields) (*types.Transaction, *big.Int, error) {
	return buildTransaction("build_transaction", fields)
}

// SignTx signs an already built go-ethereum transaction for chainID. Typed
// transactions must carry the same chain id.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int, key KeyMaterial) (signed *types.Transaction, err error) {
	defer s.observe(OpSignTransaction, time.Now(), &err)
	return signTx(OpSignTransaction, tx, chainID, key)
}

func signTx(op string, tx *types.Transaction, chainID *big.Int, key KeyMaterial) (*types.Transaction, error) {
	if tx == nil {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("transaction is required"))
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("chain id must be positive"))
	}
	if tx.Type() != types.LegacyTxType && tx.ChainId().Cmp(chainID) != 0 {
		return nil, newSignError(op, ErrInvalidArgument, fmt.Errorf("transaction chain id %s does not match %s", tx.ChainId(), chainID))
	}
	pk, err := decodeKey(op, key)
	if err != nil {
		return nil, err
	}

	var signer types.Signer
	switch tx.Type() {
	case types.LegacyTxType:
		signer = types.NewEIP155Signer(chainID)
	case types.DynamicFeeTxType:
		signer = types.NewLondonSigner(chainID)
	default:
		signer = types.LatestSignerForChainID(chainID)
	}

	signed, err := types.SignTx(tx, signer, pk)
	if err != nil {
		return nil, newSignError(op, ErrSignFailure, errors.Wrapf(err, "failed to sign %s transaction", TxType(tx.Type())))
	}
	return signed, nil
}

func signTransaction(op string, fields TransactionFields, key KeyMaterial) (*SignedTransaction, error) {
	tx, chainID, err := buildTransaction(op, fields)
	if err != nil {
		return nil, err
	}
	signed, err := signTx(op, tx, chainID, key)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, newSignError(op, ErrEncoding, errors.Wrap(err, "failed to encode signed transaction"))
	}

	v, r, sv := signed.RawSignatureValues()
	out := &SignedTransaction{
		Type:           TxType(signed.Type()),
		V:              new(big.Int).Set(v),
		RawTransaction: raw,
		Hash:           signed.Hash(),
	}
	r.FillBytes(out.R[:])
	sv.FillBytes(out.S[:])
	return out, nil
}

func buildTransaction(op string, fields TransactionFields) (*types.Transaction, *big.Int, error) {
	invalid := func(name string, err error) error {
		return newSignError(op, ErrInvalidArgument, errors.Wrapf(err, "invalid %s", name))
	}

	chainID := big.NewInt(DefaultChainID)
	if raw, ok := present(fields, FieldChainID); ok {
		id, err := util.ParseBigInt(raw)
		if err != nil {
			return nil, nil, invalid(FieldChainID, err)
		}
		if id.Sign() == 0 {
			return nil, nil, invalid(FieldChainID, fmt.Errorf("chain id must be positive"))
		}
		chainID = id
	}

	nonce, err := optionalUint64(fields, FieldNonce)
	if err != nil {
		return nil, nil, invalid(FieldNonce, err)
	}
	gas, err := optionalUint64(fields, FieldGas)
	if err != nil {
		return nil, nil, invalid(FieldGas, err)
	}
	value, err := optionalBig(fields, FieldValue)
	if err != nil {
		return nil, nil, invalid(FieldValue, err)
	}
	to, err := parseTo(fields)
	if err != nil {
		return nil, nil, invalid(FieldTo, err)
	}
	data, err := parseData(fields)
	if err != nil {
		return nil, nil, invalid(FieldData, err)
	}

	// maxFeePerGas alone selects EIP-1559; a stray tip on a legacy field set is ignored.
	if _, hasMaxFee := present(fields, FieldMaxFeePerGas); hasMaxFee {
		feeCap, err := optionalBig(fields, FieldMaxFeePerGas)
		if err != nil {
			return nil, nil, invalid(FieldMaxFeePerGas, err)
		}
		tipCap, err := optionalBig(fields, FieldMaxPriorityFeePerGas)
		if err != nil {
			return nil, nil, invalid(FieldMaxPriorityFeePerGas, err)
		}
		if tipCap.Cmp(feeCap) > 0 {
			return nil, nil, newSignError(op, ErrInvalidArgument,
				fmt.Errorf("maxPriorityFeePerGas %s exceeds maxFeePerGas %s", tipCap, feeCap))
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        to,
			Value:     value,
			Data:      data,
		}), chainID, nil
	}

	gasPrice, err := optionalBig(fields, FieldGasPrice)
	if err != nil {
		return nil, nil, invalid(FieldGasPrice, err)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       to,
		Value:    value,
		Data:     data,
	}), chainID, nil
}

// present reports whether key is set to a non-null value.
func present(fields TransactionFields, key string) (any, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func optionalBig(fields TransactionFields, key string) (*big.Int, error) {
	v, ok := present(fields, key)
	if !ok {
		return new(big.Int), nil
	}
	return util.ParseBigInt(v)
}

func optionalUint64(fields TransactionFields, key string) (uint64, error) {
	v, ok := present(fields, key)
	if !ok {
		return 0, nil
	}
	return util.ParseUint64(v)
}

func parseTo(fields TransactionFields) (*common.Address, error) {
	v, ok := present(fields, FieldTo)
	if !ok {
		return nil, nil
	}
	switch to := v.(type) {
	case string:
		if to == "" {
			return nil, nil
		}
		if !common.IsHexAddress(to) {
			return nil, fmt.Errorf("%q is not a 20-byte hex address", to)
		}
		addr := common.HexToAddress(to)
		return &addr, nil
	case common.Address:
		return &to, nil
	case *common.Address:
		return to, nil
	default:
		return nil, fmt.Errorf("unsupported address type %T", v)
	}
}

func parseData(fields TransactionFields) ([]byte, error) {
	v, ok := present(fields, FieldData)
	if !ok {
		return nil, nil
	}
	switch data := v.(type) {
	case string:
		return util.DecodeHex(data)
	case []byte:
		return common.CopyBytes(data), nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", v)
	}
}

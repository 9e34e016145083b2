package util

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethmath "github.com/ethereum/go-ethereum/common/math"
)

// ParseBigInt converts a loosely typed numeric value into a non-negative big.Int.
//
// Accepted inputs are Go integer types, integral float64 values (what encoding/json
// produces without UseNumber), json.Number, *big.Int, decimal strings and 0x-prefixed
// hex strings. Values wider than 256 bits are rejected.
func ParseBigInt(v any) (*big.Int, error) {
	var out *big.Int
	switch n := v.(type) {
	case nil:
		return nil, fmt.Errorf("value is null")
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("value is null")
		}
		out = new(big.Int).Set(n)
	case big.Int:
		out = new(big.Int).Set(&n)
	case int:
		out = big.NewInt(int64(n))
	case int8:
		out = big.NewInt(int64(n))
	case int16:
		out = big.NewInt(int64(n))
	case int32:
		out = big.NewInt(int64(n))
	case int64:
		out = big.NewInt(n)
	case uint:
		out = new(big.Int).SetUint64(uint64(n))
	case uint8:
		out = new(big.Int).SetUint64(uint64(n))
	case uint16:
		out = new(big.Int).SetUint64(uint64(n))
	case uint32:
		out = new(big.Int).SetUint64(uint64(n))
	case uint64:
		out = new(big.Int).SetUint64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		out, _ = new(big.Float).SetFloat64(n).Int(nil)
	case json.Number:
		return parseBigString(string(n))
	case string:
		return parseBigString(n)
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
	if out.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", out)
	}
	if out.BitLen() > 256 {
		return nil, fmt.Errorf("value exceeds 256 bits")
	}
	return out, nil
}

func parseBigString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("value is an empty string")
	}
	out, ok := gethmath.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal or 0x-hex integer", s)
	}
	if out.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return out, nil
}

// ParseUint64 is ParseBigInt restricted to values that fit in 64 bits.
func ParseUint64(v any) (uint64, error) {
	n, err := ParseBigInt(v)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s does not fit in 64 bits", n)
	}
	return n.Uint64(), nil
}

// DecodeHex decodes a hex string with or without the 0x prefix. An empty string
// decodes to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	} else {
		s = "0x" + s[2:]
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// EncodeHex returns b as a 0x-prefixed hex string.
func EncodeHex(b []byte) string {
	return hexutil.Encode(b)
}

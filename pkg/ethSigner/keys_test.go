package ethSigner

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyOneHex     = "0x0000000000000000000000000000000000000000000000000000000000000001"
	keyOneAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"

	// secp256k1 group order.
	curveOrderHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"
)

func TestAddressOf_KnownKey(t *testing.T) {
	addr, err := AddressOf(HexKey(keyOneHex))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(keyOneAddress), addr)
}

func TestKeyForms_AreEquivalent(t *testing.T) {
	raw := crypto.Keccak256([]byte("key forms"))
	hexKey := common.Bytes2Hex(raw)

	forms := map[string]KeyMaterial{
		"raw bytes":       RawKey(raw),
		"hex no prefix":   HexKey(hexKey),
		"hex 0x prefix":   HexKey("0x" + hexKey),
		"hex 0X prefix":   HexKey("0X" + hexKey),
		"hex upper case":  HexKey("0x" + strings.ToUpper(hexKey)),
		"hex with spaces": HexKey("  0x" + hexKey + "\n"),
	}

	want, err := AddressOf(RawKey(raw))
	require.NoError(t, err)
	for name, key := range forms {
		t.Run(name, func(t *testing.T) {
			got, err := AddressOf(key)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeKey_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  KeyMaterial
	}{
		{"nil", nil},
		{"empty hex", HexKey("")},
		{"only prefix", HexKey("0x")},
		{"short hex", HexKey("0x1234")},
		{"long hex", HexKey("0x" + strings.Repeat("11", 33))},
		{"non hex", HexKey("0x" + strings.Repeat("zz", 32))},
		{"zero key", HexKey("0x" + strings.Repeat("00", 32))},
		{"curve order", HexKey(curveOrderHex)},
		{"above curve order", HexKey(strings.Repeat("ff", 32))},
		{"short raw", RawKey(make([]byte, 31))},
		{"long raw", RawKey(make([]byte, 33))},
		{"zero raw", RawKey(make([]byte, 32))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddressOf(tt.key)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.Equal(t, ErrInvalidKey, KindOf(err))
		})
	}
}

func TestDecodeKey_ErrorDoesNotLeakKey(t *testing.T) {
	secret := strings.Repeat("ab", 31) + "zz"
	_, err := AddressOf(HexKey(secret))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)
}

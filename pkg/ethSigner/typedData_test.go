package ethSigner

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mailTypedData = `{
	"types": {
		"EIP712Domain": [
			{"name": "name", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "chainId", "type": "uint256"},
			{"name": "verifyingContract", "type": "address"}
		],
		"Person": [
			{"name": "name", "type": "string"},
			{"name": "wallet", "type": "address"}
		],
		"Mail": [
			{"name": "from", "type": "Person"},
			{"name": "to", "type": "Person"},
			{"name": "contents", "type": "string"}
		]
	},
	"primaryType": "Mail",
	"domain": {
		"name": "Ether Mail",
		"version": "1",
		"chainId": 1,
		"verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
	},
	"message": {
		"from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
		"to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
		"contents": "Hello, Bob!"
	}
}`

const (
	mailDigest  = "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"
	mailSignerR = "4355c47d63924e8a72e509b65029052eb6c299d53a04e167c5775fd466751c9d"
	mailSignerS = "07299936d304c153f6443dfa05f40ff007d72911b6f72307f996231605b91562"
	cowAddress  = "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"
)

// cowKey is keccak256("cow"), the signer of the EIP-712 Mail example.
func cowKey() RawKey {
	return RawKey(crypto.Keccak256([]byte("cow")))
}

// mutateMail decodes the Mail document, applies fn and re-encodes it.
func mutateMail(t *testing.T, fn func(doc map[string]any)) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(mailTypedData), &doc))
	fn(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func Test_HashTypedData_MailVector(t *testing.T) {
	digest, err := HashTypedData([]byte(mailTypedData))
	require.NoError(t, err)
	assert.Equal(t, mailDigest, digest.Hex())
}

func Test_SignTypedData_MailVector(t *testing.T) {
	s, _ := newTestSigner(t)

	addr, err := AddressOf(cowKey())
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(cowAddress), addr)

	sig, err := s.SignTypedData([]byte(mailTypedData), cowKey())
	require.NoError(t, err)
	assert.Equal(t, uint8(28), sig.V)
	assert.Equal(t, mailSignerR, hex.EncodeToString(sig.R[:]))
	assert.Equal(t, mailSignerS, hex.EncodeToString(sig.S[:]))

	recovered, err := RecoverAddress(common.HexToHash(mailDigest).Bytes(), sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func Test_HashTypedData_InfersDomainType(t *testing.T) {
	payload := mutateMail(t, func(doc map[string]any) {
		delete(doc["types"].(map[string]any), "EIP712Domain")
	})

	digest, err := HashTypedData(payload)
	require.NoError(t, err)
	assert.Equal(t, mailDigest, digest.Hex())

	td, err := ParseTypedData(payload)
	require.NoError(t, err)
	names := make([]string, 0, len(td.Types["EIP712Domain"]))
	for _, f := range td.Types["EIP712Domain"] {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "version", "chainId", "verifyingContract"}, names)
}

func Test_HashTypedData_ChainIdAsHexString(t *testing.T) {
	payload := mutateMail(t, func(doc map[string]any) {
		doc["domain"].(map[string]any)["chainId"] = "0x1"
	})
	digest, err := HashTypedData(payload)
	require.NoError(t, err)
	assert.Equal(t, mailDigest, digest.Hex())
}

func Test_HashTypedData_DependsOnMessage(t *testing.T) {
	payload := mutateMail(t, func(doc map[string]any) {
		doc["message"].(map[string]any)["contents"] = "Hello, Alice!"
	})
	digest, err := HashTypedData(payload)
	require.NoError(t, err)
	assert.NotEqual(t, mailDigest, digest.Hex())
}

func Test_SignTypedData_InvalidArgument(t *testing.T) {
	s, _ := newTestSigner(t)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty payload", nil},
		{"malformed json", []byte(`{"types":`)},
		{"not an object", []byte(`[1,2,3]`)},
		{"missing primaryType", mutateMail(t, func(doc map[string]any) { delete(doc, "primaryType") })},
		{"unknown primaryType", mutateMail(t, func(doc map[string]any) { doc["primaryType"] = "Letter" })},
		{"missing types", mutateMail(t, func(doc map[string]any) { delete(doc, "types") })},
		{"missing domain", mutateMail(t, func(doc map[string]any) { delete(doc, "domain") })},
		{"missing message", mutateMail(t, func(doc map[string]any) { delete(doc, "message") })},
		{"field without type", mutateMail(t, func(doc map[string]any) {
			doc["types"].(map[string]any)["Person"] = []any{map[string]any{"name": "name"}}
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignTypedData(tt.payload, cowKey())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func Test_SignTypedData_EncodingError(t *testing.T) {
	s, _ := newTestSigner(t)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"unresolvable type reference", mutateMail(t, func(doc map[string]any) {
			doc["types"].(map[string]any)["Mail"] = []any{
				map[string]any{"name": "from", "type": "Persn"},
				map[string]any{"name": "to", "type": "Person"},
				map[string]any{"name": "contents", "type": "string"},
			}
		})},
		{"value does not match address", mutateMail(t, func(doc map[string]any) {
			to := doc["message"].(map[string]any)["to"].(map[string]any)
			to["wallet"] = "not-an-address"
		})},
		{"value does not match string", mutateMail(t, func(doc map[string]any) {
			doc["message"].(map[string]any)["contents"] = 42
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignTypedData(tt.payload, cowKey())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func Test_SignTypedData_InvalidKey(t *testing.T) {
	s, _ := newTestSigner(t)
	_, err := s.SignTypedData([]byte(mailTypedData), HexKey("0x"+strings.Repeat("00", 32)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func arrayTypedData(fieldType string, value string) []byte {
	return []byte(`{"types":{"M":[{"name":"a","type":"` + fieldType + `"}],"M2":[{"name":"b","type":"string"}]},` +
		`"primaryType":"M","domain":{"name":"x"},"message":{"a":` + value + `}}`)
}

func Test_SignTypedData_ArrayValues(t *testing.T) {
	t.Run("rejects malformed arrays", func(t *testing.T) {
		tests := []struct {
			name      string
			fieldType string
			value     string
			contains  string
		}{
			{"null string element", "string[]", `["x",null]`, "message.a[1]: array element is null"},
			{"null struct element", "M2[]", `[null]`, "message.a[0]: array element is null"},
			{"null nested element", "string[][]", `[["x"],[null]]`, "message.a[1][0]: array element is null"},
			{"fixed array too long", "uint8[2]", `[1,2,3]`, "requires 2 elements, got 3"},
			{"fixed array too short", "uint8[2]", `[1]`, "requires 2 elements, got 1"},
			{"inner fixed array", "uint8[2][]", `[[1,2],[3]]`, "requires 2 elements, got 1"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s, obs := newTestSigner(t)
				sig, err := s.SignTypedData(arrayTypedData(tt.fieldType, tt.value), cowKey())
				require.Error(t, err)
				assert.Nil(t, sig)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.contains)

				require.Len(t, obs.calls, 1)
				assert.Error(t, obs.calls[0].err)
			})
		}
	})

	t.Run("accepts well formed arrays", func(t *testing.T) {
		tests := []struct {
			name      string
			fieldType string
			value     string
		}{
			{"dynamic strings", "string[]", `["x","y"]`},
			{"empty dynamic", "string[]", `[]`},
			{"structs", "M2[]", `[{"b":"x"},{"b":"y"}]`},
			{"fixed array", "uint8[2]", `[1,2]`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := HashTypedData(arrayTypedData(tt.fieldType, tt.value))
				require.NoError(t, err)
			})
		}
	})
}

func FuzzParseTypedData(f *testing.F) {
	f.Add([]byte(mailTypedData))
	f.Add([]byte(`{}`))
	f.Add(arrayTypedData("M2[]", `[null]`))
	f.Add(arrayTypedData("string[]", `[null,"x"]`))
	f.Add(arrayTypedData("uint8[2]", `[1,2,3]`))
	f.Add([]byte(`{"primaryType":"A","types":{"A":[]},"domain":{"name":"x"},"message":{}}`))

	f.Fuzz(func(t *testing.T, payload []byte) {
		digest, err := HashTypedData(payload)
		if err != nil {
			require.NotNil(t, KindOf(err), "unexpected error kind: %v", err)
			return
		}
		require.NotEqual(t, common.Hash{}, digest)
	})
}

func Test_SignTypedDataWithDigest(t *testing.T) {
	s, obs := newTestSigner(t)

	sig, digest, err := s.SignTypedDataWithDigest([]byte(mailTypedData), cowKey())
	require.NoError(t, err)
	assert.Equal(t, mailDigest, digest.Hex())

	recovered, err := RecoverAddress(digest.Bytes(), sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(cowAddress), recovered)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, OpSignTypedData, obs.calls[0].op)
}

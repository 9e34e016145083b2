package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/server"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testKey        = "0x4646464646464646464646464646464646464646464646464646464646464646"
	testAddress    = "0x9d8A62f656a8d1615C1294fd71e9CFb3E4855A4F"
	serverKey      = "0x0000000000000000000000000000000000000000000000000000000000000001"
	serverAddress  = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	eip155Raw      = "0xf86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83"
	eip155TxFields = `{"nonce":9,"gasPrice":"20000000000","gas":21000,"to":"0x3535353535353535353535353535353535353535","value":"1000000000000000000"}`
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"ETHSIGNER_PRIVATE_KEY", "ETHSIGNER_REMOTE_URL", "ETHSIGNER_EXPECTED_SIGNER_ADDRESS", "ETHSIGNER_CHAIN", "ETHSIGNER_VERBOSE"} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"ethsigner"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func recoverSigner(t *testing.T, hash []byte, resp *server.SignatureResponse) common.Address {
	t.Helper()
	addr, err := ethSigner.RecoverAddress(hash, resp.Signature)
	require.NoError(t, err)
	return addr
}

func Test_AddressCommand(t *testing.T) {
	out, err := runApp(t, "--private-key", testKey, "address")
	require.NoError(t, err)

	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, testAddress, resp["address"])

	_, err = runApp(t, "address")
	assert.ErrorContains(t, err, "private key is required")
}

func Test_KeygenCommand(t *testing.T) {
	out, err := runApp(t, "keygen")
	require.NoError(t, err)

	var key generatedKey
	require.NoError(t, json.Unmarshal([]byte(out), &key))

	out, err = runApp(t, "--private-key", key.PrivateKey, "address")
	require.NoError(t, err)
	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, common.HexToAddress(key.Address).Hex(), resp["address"])
}

func Test_SignHashCommand(t *testing.T) {
	hash := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")

	out, err := runApp(t, "--private-key", testKey, "sign-hash", "--hash", hash.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"r\"")

	var resp server.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, []uint8{27, 28}, resp.V)
	assert.Equal(t, common.HexToAddress(testAddress), recoverSigner(t, hash.Bytes(), &resp))

	t.Run("short hash", func(t *testing.T) {
		_, err := runApp(t, "--private-key", testKey, "sign-hash", "--hash", "0x1234")
		require.Error(t, err)
		assert.ErrorIs(t, err, ethSigner.ErrInvalidArgument)
	})
	t.Run("bad key", func(t *testing.T) {
		_, err := runApp(t, "--private-key", "0x00", "sign-hash", "--hash", hash.Hex())
		require.Error(t, err)
		assert.ErrorIs(t, err, ethSigner.ErrInvalidKey)
	})
}

func Test_SignMessageCommand(t *testing.T) {
	out, err := runApp(t, "--private-key", testKey, "sign-message", "--message", "hello")
	require.NoError(t, err)

	var resp server.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, common.HexToAddress(testAddress), recoverSigner(t, accounts.TextHash([]byte("hello")), &resp))

	out, err = runApp(t, "--private-key", testKey, "sign-message", "--hex", "--message", "0x68656c6c6f")
	require.NoError(t, err)
	var hexResp server.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &hexResp))
	assert.Equal(t, resp.Signature, hexResp.Signature)
}

func Test_SignTypedDataCommand(t *testing.T) {
	payload := `{"types":{"Person":[{"name":"name","type":"string"}]},"primaryType":"Person","domain":{"name":"Test","chainId":1},"message":{"name":"Alice"}}`
	path := writeFile(t, "typed.json", payload)

	out, err := runApp(t, "--private-key", testKey, "sign-typed-data", "--file", path)
	require.NoError(t, err)

	var resp server.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Digest)

	digest, err := ethSigner.HashTypedData([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, digest, *resp.Digest)
	assert.Equal(t, common.HexToAddress(testAddress), recoverSigner(t, digest.Bytes(), &resp))

	_, err = runApp(t, "--private-key", testKey, "sign-typed-data", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read")
}

func Test_SignTransactionCommand(t *testing.T) {
	path := writeFile(t, "tx.json", eip155TxFields)

	t.Run("defaults to mainnet", func(t *testing.T) {
		out, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", path)
		require.NoError(t, err)

		var resp server.TransactionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, eip155Raw, hexutil.Encode(resp.RawTransaction))
		assert.Equal(t, int64(37), resp.V.Int64())
	})

	t.Run("chain flag fills missing chainId", func(t *testing.T) {
		out, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", path, "--chain", "sepolia")
		require.NoError(t, err)

		var resp server.TransactionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		// sepolia is 11155111, so v = 11155111*2 + 35 + parity.
		assert.Contains(t, []int64{22310257, 22310258}, resp.V.Int64())
	})

	t.Run("chain flag fills null chainId", func(t *testing.T) {
		withNull := writeFile(t, "tx.json", strings.Replace(eip155TxFields, "}", `,"chainId":null}`, 1))
		out, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", withNull, "--chain", "sepolia")
		require.NoError(t, err)

		var resp server.TransactionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Contains(t, []int64{22310257, 22310258}, resp.V.Int64())
	})

	t.Run("chainId in file wins over chain flag", func(t *testing.T) {
		withChain := writeFile(t, "tx.json", strings.Replace(eip155TxFields, "}", `,"chainId":1}`, 1))
		out, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", withChain, "--chain", "sepolia")
		require.NoError(t, err)

		var resp server.TransactionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, eip155Raw, hexutil.Encode(resp.RawTransaction))
	})

	t.Run("unknown chain", func(t *testing.T) {
		_, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", path, "--chain", "nowhere")
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := writeFile(t, "bad.json", "{not json")
		_, err := runApp(t, "--private-key", testKey, "sign-tx", "--file", bad)
		assert.ErrorIs(t, err, ethSigner.ErrInvalidArgument)
	})
}

func Test_RemoteBackend(t *testing.T) {
	l := zaptest.NewLogger(t)
	rs, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(serverKey, l)
	require.NoError(t, err)
	s, err := server.NewServer(nil, nil, rs, l)
	require.NoError(t, err)

	ts := httptest.NewServer(s.GetHandler())
	defer ts.Close()

	t.Run("sign-tx", func(t *testing.T) {
		path := writeFile(t, "tx.json", eip155TxFields)
		out, err := runApp(t, "--private-key", testKey, "--remote", ts.URL, "--expected-signer", serverAddress, "sign-tx", "--file", path)
		require.NoError(t, err)

		var resp server.TransactionResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, eip155Raw, hexutil.Encode(resp.RawTransaction))
	})

	t.Run("sign-message matches local output", func(t *testing.T) {
		remote, err := runApp(t, "--private-key", testKey, "--remote", ts.URL, "sign-message", "--message", "hello")
		require.NoError(t, err)
		local, err := runApp(t, "--private-key", testKey, "sign-message", "--message", "hello")
		require.NoError(t, err)
		assert.JSONEq(t, local, remote)
	})

	t.Run("unexpected response signer", func(t *testing.T) {
		_, err := runApp(t, "--private-key", testKey, "--remote", ts.URL, "--expected-signer", testAddress, "sign-message", "--message", "hello")
		assert.Error(t, err)
	})

	t.Run("invalid remote url", func(t *testing.T) {
		_, err := runApp(t, "--private-key", testKey, "--remote", "not a url", "sign-message", "--message", "hello")
		assert.Error(t, err)
	})
}

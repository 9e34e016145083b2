package localKeyGenerator

import (
	"context"
	"strings"
	"testing"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func Test_LocalKeyGenerator(t *testing.T) {
	generator := NewLocalKeyGenerator(zaptest.NewLogger(t))

	t.Run("Should generate a usable key", func(t *testing.T) {
		result, err := generator.GenerateECDSAKey(context.Background())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Len(t, result.PrivateKey, 32)
		assert.Regexp(t, "^0x[0-9a-fA-F]{40}$", result.Address)

		addr, err := ethSigner.AddressOf(ethSigner.HexKey(result.GetPrivateKeyHex()))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(result.Address), addr)
	})

	t.Run("Should expose the public key in both encodings", func(t *testing.T) {
		result, err := generator.GenerateECDSAKey(context.Background())
		require.NoError(t, err)

		prefixed, err := result.GetPublicKeyHex()
		require.NoError(t, err)
		unprefixed, err := result.GetPublicKeyHexUnprefixed()
		require.NoError(t, err)

		raw := hexutil.MustDecode(unprefixed)
		require.Len(t, raw, 64)
		assert.True(t, strings.HasSuffix(prefixed, unprefixed[2:]))

		pub, err := crypto.UnmarshalPubkey(append([]byte{0x04}, raw...))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(result.Address), crypto.PubkeyToAddress(*pub))
	})

	t.Run("Should generate distinct keys", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			result, err := generator.GenerateECDSAKey(context.Background())
			require.NoError(t, err)
			assert.False(t, seen[result.Address], "duplicate address %s", result.Address)
			seen[result.Address] = true
		}
	})

	t.Run("Should honour a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := generator.GenerateECDSAKey(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, result)
	})
}

func Benchmark_GenerateECDSAKey(b *testing.B) {
	generator := NewLocalKeyGenerator(nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := generator.GenerateECDSAKey(ctx); err != nil {
			b.Fatalf("Failed to generate key: %v", err)
		}
	}
}

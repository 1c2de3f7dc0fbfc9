package crypto_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-unroll/internal/crypto"
)

func TestXOR_RoundTrip(t *testing.T) {
	plain := []byte("BMD payload with enough bytes to wrap the 16 byte key twice")
	enc := crypto.EncryptXOR(plain)
	require.Len(t, enc, len(plain))
	assert.NotEqual(t, plain, enc)
	assert.Equal(t, plain, crypto.DecryptXOR(enc))
}

func TestXOR_FirstByte(t *testing.T) {
	// (0 + 0x5E) ^ 0xD1
	assert.Equal(t, []byte{0x8F}, crypto.EncryptXOR([]byte{0}))
	assert.Equal(t, []byte{0}, crypto.DecryptXOR([]byte{0x8F}))
}

func TestLEA_RoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i*7 + 3)
	}
	plain := bytes.Repeat([]byte("0123456789abcdef"), 3)
	plain = append(plain, "tail"...)

	enc := crypto.EncryptLEA(plain, key)
	require.Len(t, enc, 64)
	// ECB: equal plaintext blocks give equal ciphertext blocks.
	assert.Equal(t, enc[0:16], enc[16:32])
	assert.NotEqual(t, plain[:16], enc[:16])

	dec := crypto.DecryptLEA(enc, key)
	assert.Equal(t, plain, dec[:len(plain)])
	assert.Equal(t, make([]byte, 12), dec[len(plain):])

	key[0] ^= 1
	assert.NotEqual(t, plain, crypto.DecryptLEA(enc, key)[:len(plain)])
}

func TestPad(t *testing.T) {
	assert.Len(t, crypto.Pad(nil), 0)
	assert.Len(t, crypto.Pad(make([]byte, 16)), 16)
	assert.Len(t, crypto.Pad(make([]byte, 17)), 32)
}

func TestParseLEAKey(t *testing.T) {
	hexKey := strings.Repeat("0f1e2d3c", 8)
	key, err := crypto.ParseLEAKey("0x" + strings.ToUpper(hexKey))
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), key[0])
	assert.Equal(t, byte(0x3c), key[31])

	key2, err := crypto.ParseLEAKey(hexKey[:32] + "\n " + hexKey[32:])
	require.NoError(t, err)
	assert.Equal(t, key, key2)

	_, err = crypto.ParseLEAKey("abcd")
	assert.True(t, errors.Is(err, crypto.ErrKeyLength), "got %v", err)
	_, err = crypto.ParseLEAKey(strings.Repeat("zz", 32))
	assert.Error(t, err)
}

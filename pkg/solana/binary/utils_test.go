package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutRoundTrip(t *testing.T) {
	discriminator := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	key[31] = 9
	amount := uint64(42)

	data := make([]byte, 128)
	var offset int
	PutDiscriminator(data[offset:], discriminator, &offset)
	PutKey32(data[offset:], key, &offset)
	PutOptionalKey32(data[offset:], nil, &offset, 4)
	PutOptionalUint64(data[offset:], &amount, &offset, 1)
	PutInt32(data[offset:], -6, &offset)
	PutBool(data[offset:], true, &offset)
	PutFixedString(data[offset:], "team", 16, &offset)
	written := offset

	var (
		actualDiscriminator []byte
		actualKey           ed25519.PublicKey
		missingKey          ed25519.PublicKey
		actualAmount        *uint64
		exponent            int32
		flag                bool
		tag                 string
	)
	offset = 0
	GetDiscriminator(data[offset:], &actualDiscriminator, &offset)
	GetKey32(data[offset:], &actualKey, &offset)
	GetOptionalKey32(data[offset:], &missingKey, &offset, 4)
	GetOptionalUint64(data[offset:], &actualAmount, &offset, 1)
	GetInt32(data[offset:], &exponent, &offset)
	GetBool(data[offset:], &flag, &offset)
	GetFixedString(data[offset:], &tag, 16, &offset)

	assert.Equal(t, written, offset)
	assert.Equal(t, discriminator, actualDiscriminator)
	assert.Equal(t, key, actualKey)
	assert.Nil(t, missingKey)
	require.NotNil(t, actualAmount)
	assert.EqualValues(t, 42, *actualAmount)
	assert.EqualValues(t, -6, exponent)
	assert.True(t, flag)
	assert.Equal(t, "team", tag)
}

func TestMustDecodeKey(t *testing.T) {
	key := MustDecodeKey("11111111111111111111111111111111")
	assert.Equal(t, make(ed25519.PublicKey, ed25519.PublicKeySize), key)

	assert.Panics(t, func() { MustDecodeKey("0OIl") })
	assert.Panics(t, func() { MustDecodeKey("3yZe7d") })
}

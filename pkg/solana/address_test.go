package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, value string) []byte {
	decoded, err := base58.Decode(value)
	require.NoError(t, err)
	return decoded
}

// Vectors from the Solana SDK pubkey tests. "SeedPubey" is their spelling.
func TestCreateProgramAddress(t *testing.T) {
	programID := mustDecode(t, "BPFLoader1111111111111111111111111111111111")
	seedKey := mustDecode(t, "SeedPubey1111111111111111111111111111111111")

	for _, tc := range []struct {
		seeds    [][]byte
		expected string
	}{
		{[][]byte{{}, {1}}, "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT"},
		{[][]byte{[]byte("☉")}, "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7"},
		{[][]byte{[]byte("Talking"), []byte("Squirrels")}, "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds"},
		{[][]byte{seedKey}, "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K"},
	} {
		address, err := CreateProgramAddress(programID, tc.seeds...)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(address))
	}

	// Seed boundaries are per seed, not concatenated
	a, err := CreateProgramAddress(programID, []byte("Talking"))
	require.NoError(t, err)
	b, err := CreateProgramAddress(programID, []byte("Talking"), []byte("Squirrels"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	programID := mustDecode(t, "BPFLoader1111111111111111111111111111111111")

	_, err := CreateProgramAddress(programID, make([]byte, maxSeedLength))
	assert.NoError(t, err)

	_, err = CreateProgramAddress(programID, make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, []byte("vault"), make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, make([][]byte, maxSeeds+1)...)
	assert.Equal(t, ErrTooManySeeds, err)
}

func TestFindProgramAddress_Reference(t *testing.T) {
	for programID, expected := range map[string]string{
		"4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM": "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd",
		"8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh": "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S",
		"CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3": "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv",
		"GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeP": "2mN5Nfq9v1EwTV9FPTHPESZ3XiZce9wi5PQoULFuxvev",
	} {
		actual, err := FindProgramAddress(mustDecode(t, programID), []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)
		assert.EqualValues(t, mustDecode(t, expected), actual)
	}
}

func TestFindProgramAddressAndBump(t *testing.T) {
	for i := 0; i < 500; i++ {
		programID, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		address, bump, err := FindProgramAddressAndBump(programID, []byte("reserve"), []byte("tag"))
		require.NoError(t, err)

		// Same inputs, same answer
		again, againBump, err := FindProgramAddressAndBump(programID, []byte("reserve"), []byte("tag"))
		require.NoError(t, err)
		assert.Equal(t, address, again)
		assert.Equal(t, bump, againBump)

		assert.True(t, VerifyProgramAddress(address, programID, bump, []byte("reserve"), []byte("tag")))
		assert.False(t, VerifyProgramAddress(address, programID, bump, []byte("reserve"), []byte("other")))
	}
}

// onCurveHash always produces a valid curve point, so no candidate is ever
// accepted as a program address.
type onCurveHash struct {
	point []byte
}

func (h *onCurveHash) Write(p []byte) (int, error) { return len(p), nil }
func (h *onCurveHash) Sum([]byte) []byte           { return h.point }
func (h *onCurveHash) Reset()                      {}
func (h *onCurveHash) Size() int                   { return sha256.Size }
func (h *onCurveHash) BlockSize() int              { return sha256.BlockSize }

func withOnCurveHash(t *testing.T) {
	point, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	programHashCtor = func() hash.Hash { return &onCurveHash{point: point} }
	t.Cleanup(func() {
		programHashCtor = sha256.New
	})
}

func TestCreateProgramAddress_OnCurve(t *testing.T) {
	withOnCurveHash(t)

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, []byte("vault"))
	assert.Equal(t, ErrInvalidPublicKey, err)

	_, _, err = FindProgramAddressAndBump(programID, []byte("vault"))
	assert.Equal(t, ErrAddressDerivationExhausted, err)

	assert.False(t, VerifyProgramAddress(programID, programID, 255, []byte("vault")))
}

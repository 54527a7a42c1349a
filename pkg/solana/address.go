package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	programDerivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidPublicKey means the seeds hashed to a point on the curve,
	// which could have a private key and so cannot be a program address.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrAddressDerivationExhausted means no bump seed produced an off-curve address
	ErrAddressDerivationExhausted = errors.New("address derivation exhausted")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress hashes seeds, program and a fixed marker with sha256
// and accepts the digest only when it is not a valid ed25519 point. The same
// seeds and program always produce the same address.
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(programDerivedAddressMarker))

	var candidate [ed25519.PublicKeySize]byte
	copy(candidate[:], h.Sum(nil))

	// FromBytes succeeds only for encodings of a point on the curve. The
	// standard library keeps that check internal, hence edwards25519.
	var point edwards25519.ExtendedGroupElement
	if point.FromBytes(&candidate) {
		return nil, ErrInvalidPublicKey
	}

	return candidate[:], nil
}

// FindProgramAddressAndBump appends a single bump byte to seeds, trying 255
// down to 0, and returns the first off-curve address along with its bump.
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := math.MaxUint8; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}

		address, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return address, uint8(bump), nil
		case ErrInvalidPublicKey:
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrAddressDerivationExhausted
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	address, _, err := FindProgramAddressAndBump(program, seeds...)
	return address, err
}

// VerifyProgramAddress re-derives an address from a stored bump and reports
// whether it matches expected.
func VerifyProgramAddress(expected, program ed25519.PublicKey, bump uint8, seeds ...[]byte) bool {
	actual, err := CreateProgramAddress(program, append(append([][]byte{}, seeds...), []byte{bump})...)
	if err != nil {
		return false
	}
	return bytes.Equal(actual, expected)
}

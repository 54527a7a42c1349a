// Package binary encodes fixed-layout account state. Every helper writes to or
// reads from the start of the provided slice and advances offset by the width
// of the field.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// DiscriminatorSize is the width of the type tag that prefixes every account
const DiscriminatorSize = 8

func PutDiscriminator(dst []byte, discriminator []byte, offset *int) {
	copy(dst[:DiscriminatorSize], discriminator)
	*offset += DiscriminatorSize
}

func GetDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = append([]byte{}, src[:DiscriminatorSize]...)
	*offset += DiscriminatorSize
}

// MustDecodeKey decodes a base58 address known at compile time
func MustDecodeKey(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		panic("invalid key length for " + value)
	}
	return decoded
}

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize int) {
	if len(src) > 0 {
		dst[0] = 1
		copy(dst[optionSize:], src)
	}

	*offset += optionSize + ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize int) {
	if v != nil {
		dst[0] = 1
		binary.LittleEndian.PutUint64(dst[optionSize:], *v)
	}
	*offset += optionSize + 8
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if src[0] == 1 {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[optionSize:])
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	if src[0] == 1 {
		val := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &val
	}
	*offset += optionSize + 8
}

func PutInt32(dst []byte, v int32, offset *int) {
	PutUint32(dst, uint32(v), offset)
}

func GetInt32(src []byte, dst *int32, offset *int) {
	var v uint32
	GetUint32(src, &v, offset)
	*dst = int32(v)
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	}
	*offset += 1
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[0] == 1
	*offset += 1
}

// PutFixedString writes src into a zero-padded region of size bytes.
// Strings longer than size are truncated.
func PutFixedString(dst []byte, src string, size int, offset *int) {
	n := len(src)
	if n > size {
		n = size
	}
	copy(dst[:size], src[:n])
	*offset += size
}

func GetFixedString(src []byte, dst *string, size int, offset *int) {
	b := src[:size]
	end := size
	for end > 0 && b[end-1] == 0 {
		end--
	}
	*dst = string(b[:end])
	*offset += size
}

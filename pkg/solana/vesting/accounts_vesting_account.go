package vesting_reserve

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	VestingAccountSize = (8 + // discriminator
		1 + // data_version
		32 + // owner
		32 + // mint
		32 + // treasury
		MaxReserveTypeLength + // reserve_type
		1 + // bump
		1 + // treasury_bump
		5) // padding
)

var VestingAccountDiscriminator = []byte{102, 73, 10, 233, 200, 188, 228, 216}

// VestingAccount is the namespace and treasury for all reserves of a single
// reserve type.
type VestingAccount struct {
	DataVersion DataVersion

	Owner    ed25519.PublicKey
	Mint     ed25519.PublicKey
	Treasury ed25519.PublicKey

	ReserveType string

	Bump         uint8
	TreasuryBump uint8
}

func (obj *VestingAccount) Marshal() []byte {
	data := make([]byte, VestingAccountSize)

	var offset int

	binary.PutDiscriminator(data[offset:], VestingAccountDiscriminator, &offset)
	binary.PutUint8(data[offset:], uint8(obj.DataVersion), &offset)

	binary.PutKey32(data[offset:], obj.Owner, &offset)
	binary.PutKey32(data[offset:], obj.Mint, &offset)
	binary.PutKey32(data[offset:], obj.Treasury, &offset)

	binary.PutFixedString(data[offset:], obj.ReserveType, MaxReserveTypeLength, &offset)

	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutUint8(data[offset:], obj.TreasuryBump, &offset)

	return data
}

func (obj *VestingAccount) Unmarshal(data []byte) error {
	if len(data) < VestingAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	binary.GetDiscriminator(data[offset:], &discriminator, &offset)
	if !bytes.Equal(discriminator, VestingAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var version uint8
	binary.GetUint8(data[offset:], &version, &offset)
	obj.DataVersion = DataVersion(version)
	if obj.DataVersion != DataVersion1 {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Owner, &offset)
	binary.GetKey32(data[offset:], &obj.Mint, &offset)
	binary.GetKey32(data[offset:], &obj.Treasury, &offset)

	binary.GetFixedString(data[offset:], &obj.ReserveType, MaxReserveTypeLength, &offset)

	binary.GetUint8(data[offset:], &obj.Bump, &offset)
	binary.GetUint8(data[offset:], &obj.TreasuryBump, &offset)

	return nil
}

func (obj *VestingAccount) String() string {
	return fmt.Sprintf(
		"VestingAccount{data_version=%d,owner=%s,mint=%s,treasury=%s,reserve_type=%s,bump=%d,treasury_bump=%d}",
		obj.DataVersion,
		base58.Encode(obj.Owner),
		base58.Encode(obj.Mint),
		base58.Encode(obj.Treasury),
		obj.ReserveType,
		obj.Bump,
		obj.TreasuryBump,
	)
}

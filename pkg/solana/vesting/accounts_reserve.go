package vesting_reserve

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	ReserveAccountSize = (8 + // discriminator
		1 + // data_version
		32 + // beneficiary
		32 + // vesting_account
		8 + // start_time
		8 + // cliff_time
		8 + // end_time
		8 + // total_amount
		8 + // monthly_claim
		8 + // amount_withdrawn
		8 + // period_length
		1 + // status
		1 + // bump
		5) // padding
)

var ReserveAccountDiscriminator = []byte{43, 242, 204, 202, 26, 247, 59, 127}

// ReserveAccount is a single beneficiary's vesting schedule. CliffTime is a
// duration in seconds measured from StartTime.
type ReserveAccount struct {
	DataVersion DataVersion

	Beneficiary    ed25519.PublicKey
	VestingAccount ed25519.PublicKey

	StartTime uint64
	CliffTime uint64
	EndTime   uint64

	TotalAmount     uint64
	MonthlyClaim    uint64
	AmountWithdrawn uint64

	PeriodLength uint64

	Status ReserveStatus
	Bump   uint8
}

// CliffEnd is the unix timestamp at which vesting begins
func (obj *ReserveAccount) CliffEnd() uint64 {
	return obj.StartTime + obj.CliffTime
}

func (obj *ReserveAccount) Marshal() []byte {
	data := make([]byte, ReserveAccountSize)

	var offset int

	binary.PutDiscriminator(data[offset:], ReserveAccountDiscriminator, &offset)
	binary.PutUint8(data[offset:], uint8(obj.DataVersion), &offset)

	binary.PutKey32(data[offset:], obj.Beneficiary, &offset)
	binary.PutKey32(data[offset:], obj.VestingAccount, &offset)

	binary.PutUint64(data[offset:], obj.StartTime, &offset)
	binary.PutUint64(data[offset:], obj.CliffTime, &offset)
	binary.PutUint64(data[offset:], obj.EndTime, &offset)

	binary.PutUint64(data[offset:], obj.TotalAmount, &offset)
	binary.PutUint64(data[offset:], obj.MonthlyClaim, &offset)
	binary.PutUint64(data[offset:], obj.AmountWithdrawn, &offset)

	binary.PutUint64(data[offset:], obj.PeriodLength, &offset)

	binary.PutUint8(data[offset:], uint8(obj.Status), &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *ReserveAccount) Unmarshal(data []byte) error {
	if len(data) < ReserveAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	binary.GetDiscriminator(data[offset:], &discriminator, &offset)
	if !bytes.Equal(discriminator, ReserveAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var version uint8
	binary.GetUint8(data[offset:], &version, &offset)
	obj.DataVersion = DataVersion(version)
	if obj.DataVersion != DataVersion1 {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Beneficiary, &offset)
	binary.GetKey32(data[offset:], &obj.VestingAccount, &offset)

	binary.GetUint64(data[offset:], &obj.StartTime, &offset)
	binary.GetUint64(data[offset:], &obj.CliffTime, &offset)
	binary.GetUint64(data[offset:], &obj.EndTime, &offset)

	binary.GetUint64(data[offset:], &obj.TotalAmount, &offset)
	binary.GetUint64(data[offset:], &obj.MonthlyClaim, &offset)
	binary.GetUint64(data[offset:], &obj.AmountWithdrawn, &offset)

	binary.GetUint64(data[offset:], &obj.PeriodLength, &offset)

	var status uint8
	binary.GetUint8(data[offset:], &status, &offset)
	obj.Status = ReserveStatus(status)

	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *ReserveAccount) String() string {
	return fmt.Sprintf(
		"ReserveAccount{data_version=%d,beneficiary=%s,vesting_account=%s,start_time=%d,cliff_time=%d,end_time=%d,total_amount=%d,monthly_claim=%d,amount_withdrawn=%d,period_length=%d,status=%s,bump=%d}",
		obj.DataVersion,
		base58.Encode(obj.Beneficiary),
		base58.Encode(obj.VestingAccount),
		obj.StartTime,
		obj.CliffTime,
		obj.EndTime,
		obj.TotalAmount,
		obj.MonthlyClaim,
		obj.AmountWithdrawn,
		obj.PeriodLength,
		obj.Status,
		obj.Bump,
	)
}

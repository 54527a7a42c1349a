package presale_vault

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana/binary"
)

const (
	VaultAccountSize = (8 + // discriminator
		1 + // data_version
		32 + // authority
		32 + // token_mint
		32 + // vault_token_account
		8 + // index
		8 + // price_per_token
		8 + // expiry
		8 + // total_deposited
		8 + // total_withdrawn
		8 + // total_purchased
		8 + // total_swept
		1 + // token_decimals
		1 + // status
		1 + // bump
		1 + // vault_token_bump
		4) // padding
)

var VaultAccountDiscriminator = []byte{211, 8, 232, 43, 2, 152, 117, 119}

type VaultAccount struct {
	DataVersion DataVersion

	Authority         ed25519.PublicKey
	TokenMint         ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey

	Index         uint64
	PricePerToken uint64
	Expiry        uint64

	TotalDeposited uint64
	TotalWithdrawn uint64
	TotalPurchased uint64
	TotalSwept     uint64

	TokenDecimals uint8
	Status        VaultStatus

	Bump           uint8
	VaultTokenBump uint8
}

// ExpectedBalance is the holding account balance implied by the vault's flow
// counters.
func (obj *VaultAccount) ExpectedBalance() (uint64, bool) {
	out := obj.TotalWithdrawn + obj.TotalPurchased
	if out < obj.TotalWithdrawn {
		return 0, false
	}
	if out+obj.TotalSwept < out {
		return 0, false
	}
	out += obj.TotalSwept

	if out > obj.TotalDeposited {
		return 0, false
	}
	return obj.TotalDeposited - out, true
}

func (obj *VaultAccount) Clone() *VaultAccount {
	cloned := *obj
	cloned.Authority = append(ed25519.PublicKey{}, obj.Authority...)
	cloned.TokenMint = append(ed25519.PublicKey{}, obj.TokenMint...)
	cloned.VaultTokenAccount = append(ed25519.PublicKey{}, obj.VaultTokenAccount...)
	return &cloned
}

func (obj *VaultAccount) Marshal() []byte {
	data := make([]byte, VaultAccountSize)

	var offset int

	binary.PutDiscriminator(data[offset:], VaultAccountDiscriminator, &offset)
	binary.PutUint8(data[offset:], uint8(obj.DataVersion), &offset)

	binary.PutKey32(data[offset:], obj.Authority, &offset)
	binary.PutKey32(data[offset:], obj.TokenMint, &offset)
	binary.PutKey32(data[offset:], obj.VaultTokenAccount, &offset)

	binary.PutUint64(data[offset:], obj.Index, &offset)
	binary.PutUint64(data[offset:], obj.PricePerToken, &offset)
	binary.PutUint64(data[offset:], obj.Expiry, &offset)

	binary.PutUint64(data[offset:], obj.TotalDeposited, &offset)
	binary.PutUint64(data[offset:], obj.TotalWithdrawn, &offset)
	binary.PutUint64(data[offset:], obj.TotalPurchased, &offset)
	binary.PutUint64(data[offset:], obj.TotalSwept, &offset)

	binary.PutUint8(data[offset:], obj.TokenDecimals, &offset)
	binary.PutUint8(data[offset:], uint8(obj.Status), &offset)

	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutUint8(data[offset:], obj.VaultTokenBump, &offset)

	return data
}

func (obj *VaultAccount) Unmarshal(data []byte) error {
	if len(data) < VaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	binary.GetDiscriminator(data[offset:], &discriminator, &offset)
	if !bytes.Equal(discriminator, VaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var version uint8
	binary.GetUint8(data[offset:], &version, &offset)
	obj.DataVersion = DataVersion(version)
	if obj.DataVersion != DataVersion1 {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetKey32(data[offset:], &obj.TokenMint, &offset)
	binary.GetKey32(data[offset:], &obj.VaultTokenAccount, &offset)

	binary.GetUint64(data[offset:], &obj.Index, &offset)
	binary.GetUint64(data[offset:], &obj.PricePerToken, &offset)
	binary.GetUint64(data[offset:], &obj.Expiry, &offset)

	binary.GetUint64(data[offset:], &obj.TotalDeposited, &offset)
	binary.GetUint64(data[offset:], &obj.TotalWithdrawn, &offset)
	binary.GetUint64(data[offset:], &obj.TotalPurchased, &offset)
	binary.GetUint64(data[offset:], &obj.TotalSwept, &offset)

	binary.GetUint8(data[offset:], &obj.TokenDecimals, &offset)

	var status uint8
	binary.GetUint8(data[offset:], &status, &offset)
	obj.Status = VaultStatus(status)

	binary.GetUint8(data[offset:], &obj.Bump, &offset)
	binary.GetUint8(data[offset:], &obj.VaultTokenBump, &offset)

	return nil
}

func (obj *VaultAccount) String() string {
	return fmt.Sprintf(
		"VaultAccount{data_version=%d,authority=%s,token_mint=%s,vault_token_account=%s,index=%d,price_per_token=%d,expiry=%d,total_deposited=%d,total_withdrawn=%d,total_purchased=%d,total_swept=%d,token_decimals=%d,status=%s,bump=%d,vault_token_bump=%d}",
		obj.DataVersion,
		base58.Encode(obj.Authority),
		base58.Encode(obj.TokenMint),
		base58.Encode(obj.VaultTokenAccount),
		obj.Index,
		obj.PricePerToken,
		obj.Expiry,
		obj.TotalDeposited,
		obj.TotalWithdrawn,
		obj.TotalPurchased,
		obj.TotalSwept,
		obj.TokenDecimals,
		obj.Status,
		obj.Bump,
		obj.VaultTokenBump,
	)
}

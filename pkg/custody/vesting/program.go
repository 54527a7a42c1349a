package vesting

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/tokens"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
)

const (
	TokensLockedEventName  = "TokensLocked"
	TokensClaimedEventName = "TokensClaimed"
	ReserveClosedEventName = "ReserveClosed"
)

// Program is the vesting reserve state machine. Vesting accounts namespace
// reserves by a reserve type tag and hold all of their tokens in a single
// treasury. Each reserve releases to one beneficiary on a cliff plus monthly
// schedule.
type Program struct {
	log      *logrus.Entry
	conf     *conf
	executor *ledger.Executor
	tokens   *tokens.Adapter
}

func New(executor *ledger.Executor, adapter *tokens.Adapter, configProvider ConfigProvider) *Program {
	return &Program{
		log:      logrus.StandardLogger().WithField("type", "custody/vesting"),
		conf:     configProvider(),
		executor: executor,
		tokens:   adapter,
	}
}

// GetVestingAccount returns the vesting account at the address
func (p *Program) GetVestingAccount(ctx context.Context, address ed25519.PublicKey) (*vesting_reserve.VestingAccount, error) {
	var res *vesting_reserve.VestingAccount
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		var err error
		res, err = loadVestingAccount(tx, address)
		return err
	})
	return res, err
}

// GetTreasuryBalance returns the tokens held for all reserves of the vesting
// account
func (p *Program) GetTreasuryBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	var res uint64
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		vestingAccount, err := loadVestingAccount(tx, address)
		if err != nil {
			return err
		}

		res, err = p.tokens.GetBalance(tx, vestingAccount.Treasury)
		return err
	})
	return res, err
}

// GetReserve returns the reserve at the address with its status evaluated at
// the current time
func (p *Program) GetReserve(ctx context.Context, address ed25519.PublicKey) (*vesting_reserve.ReserveAccount, error) {
	var res *vesting_reserve.ReserveAccount
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		reserve, err := loadReserve(tx, address)
		if err != nil {
			return err
		}

		reserve.Status = getStatus(reserve, tx.Now())
		res = reserve
		return nil
	})
	return res, err
}

// getVestingAccountAddress derives the vesting account for a reserve type
// and checks the caller supplied it
func getVestingAccountAddress(reserveType string, supplied ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	address, bump, err := vesting_reserve.GetVestingAccountAddress(&vesting_reserve.GetVestingAccountAddressArgs{
		ReserveType: reserveType,
	})
	if err == vesting_reserve.ErrInvalidReserveType {
		return nil, 0, custody.ErrInvalidAccountData
	} else if err != nil {
		return nil, 0, custody.FromDerivationError(err)
	}

	if err := auth.RequireAddress(supplied, address); err != nil {
		return nil, 0, err
	}
	return address, bump, nil
}

// getReserveAddress derives the reserve for a beneficiary and checks the
// caller supplied it
func getReserveAddress(vestingAccount, beneficiary, supplied ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	address, bump, err := vesting_reserve.GetReserveAddress(&vesting_reserve.GetReserveAddressArgs{
		VestingAccount: vestingAccount,
		Beneficiary:    beneficiary,
	})
	if err != nil {
		return nil, 0, custody.FromDerivationError(err)
	}

	if err := auth.RequireAddress(supplied, address); err != nil {
		return nil, 0, err
	}
	return address, bump, nil
}

func loadVestingAccount(tx *ledger.Transaction, address ed25519.PublicKey) (*vesting_reserve.VestingAccount, error) {
	acc, err := tx.Get(address)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, vesting_reserve.PROGRAM_ID) {
		return nil, custody.ErrInvalidAccountData
	}

	var vestingAccount vesting_reserve.VestingAccount
	if err := vestingAccount.Unmarshal(acc.Data); err != nil {
		return nil, custody.ErrInvalidAccountData
	}

	seeds, err := vesting_reserve.GetVestingAccountSeeds(vestingAccount.ReserveType)
	if err != nil {
		return nil, custody.ErrInvalidAccountData
	}
	if err := auth.RequireProgramAddress(address, vesting_reserve.PROGRAM_ID, vestingAccount.Bump, seeds...); err != nil {
		return nil, err
	}

	return &vestingAccount, nil
}

func loadReserve(tx *ledger.Transaction, address ed25519.PublicKey) (*vesting_reserve.ReserveAccount, error) {
	acc, err := tx.Get(address)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, vesting_reserve.PROGRAM_ID) {
		return nil, custody.ErrInvalidAccountData
	}

	var reserve vesting_reserve.ReserveAccount
	if err := reserve.Unmarshal(acc.Data); err != nil {
		return nil, custody.ErrInvalidAccountData
	}
	if reserve.PeriodLength == 0 {
		return nil, custody.ErrInvalidAccountData
	}

	err = auth.RequireProgramAddress(
		address,
		vesting_reserve.PROGRAM_ID,
		reserve.Bump,
		vesting_reserve.GetReserveSeeds(reserve.VestingAccount, reserve.Beneficiary)...,
	)
	if err != nil {
		return nil, err
	}

	return &reserve, nil
}

// requireBeneficiary fails unless the caller is the reserve beneficiary and
// signed the transition
func requireBeneficiary(tx *ledger.Transaction, reserve *vesting_reserve.ReserveAccount, caller ed25519.PublicKey) error {
	if !bytes.Equal(reserve.Beneficiary, caller) {
		return custody.ErrUnauthorized
	}
	return auth.Require(tx, caller)
}

// treasuryAuthority is the capability that signs for a vesting account's
// treasury
func treasuryAuthority(vestingAccount *vesting_reserve.VestingAccount) tokens.Authority {
	seeds, _ := vesting_reserve.GetVestingAccountSeeds(vestingAccount.ReserveType)
	return tokens.ProgramAuthority(
		vesting_reserve.PROGRAM_ID,
		append(seeds, []byte{vestingAccount.Bump})...,
	)
}

package vesting

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/tokens"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
)

type CreateReserveArgs struct {
	ReserveType string

	StartTime time.Time
	EndTime   time.Time

	// CliffTime is measured from StartTime
	CliffTime time.Duration

	TotalAmount  uint64
	MonthlyClaim uint64
}

type CreateReserveAccounts struct {
	Owner             ed25519.PublicKey
	OwnerTokenAccount ed25519.PublicKey
	VestingAccount    ed25519.PublicKey
	Treasury          ed25519.PublicKey
	Beneficiary       ed25519.PublicKey
	Reserve           ed25519.PublicKey
}

// CreateReserve locks TotalAmount from the owner into the treasury and opens
// a reserve releasing it to the beneficiary
func (p *Program) CreateReserve(ctx context.Context, signers ledger.Signers, accounts *CreateReserveAccounts, args *CreateReserveArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":        "CreateReserve",
		"reserve_type":  args.ReserveType,
		"beneficiary":   base58.Encode(accounts.Beneficiary),
		"total_amount":  args.TotalAmount,
		"monthly_claim": args.MonthlyClaim,
	})

	periodLength := p.conf.periodLength.Get(ctx)

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vestingAccountAddress, _, err := getVestingAccountAddress(args.ReserveType, accounts.VestingAccount)
		if err != nil {
			return err
		}

		vestingAccount, err := loadVestingAccount(tx, vestingAccountAddress)
		if err != nil {
			return err
		}
		if err := auth.RequireAddress(accounts.Treasury, vestingAccount.Treasury); err != nil {
			return err
		}

		reserveAddress, reserveBump, err := getReserveAddress(vestingAccountAddress, accounts.Beneficiary, accounts.Reserve)
		if err != nil {
			return err
		}

		if !bytes.Equal(vestingAccount.Owner, accounts.Owner) {
			return custody.ErrUnauthorized
		}
		if err := auth.Require(tx, accounts.Owner); err != nil {
			return err
		}

		schedule, err := newSchedule(args.StartTime, args.EndTime, args.CliffTime, periodLength, args.TotalAmount, args.MonthlyClaim)
		if err != nil {
			return err
		}
		if err := schedule.validate(); err != nil {
			return err
		}

		mint, err := p.tokens.GetMint(tx, vestingAccount.Mint)
		if err != nil {
			return err
		}

		reserve := &vesting_reserve.ReserveAccount{
			DataVersion:    vesting_reserve.DataVersion1,
			Beneficiary:    accounts.Beneficiary,
			VestingAccount: vestingAccountAddress,
			StartTime:      schedule.start,
			CliffTime:      schedule.cliff,
			EndTime:        schedule.end,
			TotalAmount:    schedule.total,
			MonthlyClaim:   schedule.monthly,
			PeriodLength:   schedule.period,
			Bump:           reserveBump,
		}
		reserve.Status = getStatus(reserve, tx.Now())

		if err := tx.Create(reserveAddress, vesting_reserve.PROGRAM_ID, accounts.Owner, reserve.Marshal()); err != nil {
			return err
		}

		err = p.tokens.Transfer(
			tx,
			accounts.OwnerTokenAccount,
			vestingAccount.Treasury,
			args.TotalAmount,
			tokens.SignerAuthority(accounts.Owner),
		)
		if err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(TokensLockedEventName, map[string]interface{}{
			"reserve":           base58.Encode(reserveAddress),
			"beneficiary":       base58.Encode(accounts.Beneficiary),
			"amount":            schedule.total,
			"locked_until":      schedule.cliffEnd(),
			"unlock_per_period": schedule.monthly,
			"vesting_end_time":  schedule.end,
			"decimals":          mint.Decimals,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("reserve not created")
		return nil, err
	}

	log.Debug("reserve created")
	return receipt, nil
}

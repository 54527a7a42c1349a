package vesting

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
)

type ClaimTokensArgs struct {
	ReserveType string
}

type ClaimTokensAccounts struct {
	Beneficiary             ed25519.PublicKey
	BeneficiaryTokenAccount ed25519.PublicKey
	VestingAccount          ed25519.PublicKey
	Treasury                ed25519.PublicKey
	Reserve                 ed25519.PublicKey
}

// ClaimTokens releases everything vested but not yet withdrawn to the
// beneficiary
func (p *Program) ClaimTokens(ctx context.Context, signers ledger.Signers, accounts *ClaimTokensAccounts, args *ClaimTokensArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":       "ClaimTokens",
		"reserve_type": args.ReserveType,
		"beneficiary":  base58.Encode(accounts.Beneficiary),
	})

	var claimed uint64
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

		reserveAddress, _, err := getReserveAddress(vestingAccountAddress, accounts.Beneficiary, accounts.Reserve)
		if err != nil {
			return err
		}

		reserve, err := loadReserve(tx, reserveAddress)
		if err != nil {
			return err
		}
		if !bytes.Equal(reserve.VestingAccount, vestingAccountAddress) {
			return custody.ErrAddressMismatch
		}

		if err := requireBeneficiary(tx, reserve, accounts.Beneficiary); err != nil {
			return err
		}

		now := unixSeconds(tx.Now())
		schedule := scheduleOf(reserve)

		vested, err := schedule.vested(now)
		if err != nil {
			return err
		}
		if vested <= reserve.AmountWithdrawn {
			return custody.ErrNothingToClaim
		}

		claimed = vested - reserve.AmountWithdrawn
		reserve.AmountWithdrawn = vested
		reserve.Status = getStatus(reserve, tx.Now())

		err = p.tokens.Transfer(
			tx,
			vestingAccount.Treasury,
			accounts.BeneficiaryTokenAccount,
			claimed,
			treasuryAuthority(vestingAccount),
		)
		if err != nil {
			return err
		}

		if err := tx.SetData(reserveAddress, reserve.Marshal()); err != nil {
			return err
		}

		mint, err := p.tokens.GetMint(tx, vestingAccount.Mint)
		if err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(TokensClaimedEventName, map[string]interface{}{
			"reserve":              base58.Encode(reserveAddress),
			"beneficiary":          base58.Encode(reserve.Beneficiary),
			"claimed_amount":       claimed,
			"amount_withdrawn":     reserve.AmountWithdrawn,
			"next_claim_timestamp": schedule.nextUnlock(now),
			"decimals":             mint.Decimals,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("tokens not claimed")
		return nil, err
	}

	log.WithField("claimed", claimed).Debug("tokens claimed")
	return receipt, nil
}

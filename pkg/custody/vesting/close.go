package vesting

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
)

type CloseReserveAccountArgs struct {
	ReserveType string
}

type CloseReserveAccountAccounts struct {
	Beneficiary    ed25519.PublicKey
	VestingAccount ed25519.PublicKey
	Reserve        ed25519.PublicKey
}

// CloseReserveAccount deletes a fully claimed reserve once its end time has
// passed and refunds its storage deposit to the beneficiary. Treasury tokens are left with the vesting
// account.
func (p *Program) CloseReserveAccount(ctx context.Context, signers ledger.Signers, accounts *CloseReserveAccountAccounts, args *CloseReserveAccountArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":       "CloseReserveAccount",
		"reserve_type": args.ReserveType,
		"beneficiary":  base58.Encode(accounts.Beneficiary),
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vestingAccountAddress, _, err := getVestingAccountAddress(args.ReserveType, accounts.VestingAccount)
		if err != nil {
			return err
		}

		reserveAddress, _, err := getReserveAddress(vestingAccountAddress, accounts.Beneficiary, accounts.Reserve)
		if err != nil {
			return err
		}

		reserve, err := loadReserve(tx, reserveAddress)
		if err == custody.ErrAccountNotInitialized {
			return custody.ErrAlreadyClosed
		} else if err != nil {
			return err
		}
		if !bytes.Equal(reserve.VestingAccount, vestingAccountAddress) {
			return custody.ErrAddressMismatch
		}

		if err := requireBeneficiary(tx, reserve, accounts.Beneficiary); err != nil {
			return err
		}

		if reserve.AmountWithdrawn != reserve.TotalAmount {
			return custody.ErrFundsRemaining
		}
		if unixSeconds(tx.Now()) < reserve.EndTime {
			return custody.ErrVestingNotOver
		}

		if err := tx.Close(reserveAddress, reserve.Beneficiary); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(ReserveClosedEventName, map[string]interface{}{
			"reserve":      base58.Encode(reserveAddress),
			"beneficiary":  base58.Encode(reserve.Beneficiary),
			"total_amount": reserve.TotalAmount,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("reserve not closed")
		return nil, err
	}

	log.Debug("reserve closed")
	return receipt, nil
}

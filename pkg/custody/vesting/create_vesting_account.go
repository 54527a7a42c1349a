package vesting

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

type CreateVestingAccountArgs struct {
	ReserveType string
}

type CreateVestingAccountAccounts struct {
	Owner          ed25519.PublicKey
	Mint           ed25519.PublicKey
	VestingAccount ed25519.PublicKey
	Treasury       ed25519.PublicKey
}

// CreateVestingAccount creates the vesting account for a reserve type and
// its treasury. The caller becomes the owner, the only identity allowed to
// open reserves under it.
func (p *Program) CreateVestingAccount(ctx context.Context, signers ledger.Signers, accounts *CreateVestingAccountAccounts, args *CreateVestingAccountArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":       "CreateVestingAccount",
		"owner":        base58.Encode(accounts.Owner),
		"mint":         base58.Encode(accounts.Mint),
		"reserve_type": args.ReserveType,
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		address, bump, err := getVestingAccountAddress(args.ReserveType, accounts.VestingAccount)
		if err != nil {
			return err
		}

		treasury, _, err := token.GetAssociatedAccountAndBump(address, accounts.Mint)
		if err != nil {
			return custody.FromDerivationError(err)
		}
		if err := auth.RequireAddress(accounts.Treasury, treasury); err != nil {
			return err
		}

		if err := auth.RequireAdmin(tx, p.conf.adminPublicKey.Get(ctx), accounts.Owner); err != nil {
			return err
		}

		if _, err := p.tokens.GetMint(tx, accounts.Mint); err != nil {
			return err
		}

		vestingAccount := &vesting_reserve.VestingAccount{
			DataVersion: vesting_reserve.DataVersion1,
			Owner:       accounts.Owner,
			Mint:        accounts.Mint,
			Treasury:    treasury,
			ReserveType: args.ReserveType,
			Bump:        bump,
		}
		if err := tx.Create(address, vesting_reserve.PROGRAM_ID, accounts.Owner, vestingAccount.Marshal()); err != nil {
			return err
		}

		_, treasuryBump, err := p.tokens.CreateHoldingAccount(tx, address, accounts.Mint, accounts.Owner)
		if err != nil {
			return err
		}

		vestingAccount.TreasuryBump = treasuryBump
		return tx.SetData(address, vestingAccount.Marshal())
	})
	if err != nil {
		log.WithError(err).Info("vesting account not created")
		return nil, err
	}

	log.Debug("vesting account created")
	return receipt, nil
}

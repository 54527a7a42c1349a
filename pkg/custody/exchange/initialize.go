package exchange

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	presale_vault "github.com/code-payments/custody-server/pkg/solana/presale"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

type InitializeArgs struct {
	Index         uint64
	PricePerToken uint64
	Expiry        time.Time
}

type InitializeAccounts struct {
	Authority         ed25519.PublicKey
	Mint              ed25519.PublicKey
	Vault             ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey
}

// Initialize creates a vault for the mint and index along with its holding
// account. The caller becomes the vault authority and pays for storage.
func (p *Program) Initialize(ctx context.Context, signers ledger.Signers, accounts *InitializeAccounts, args *InitializeArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":    "Initialize",
		"authority": base58.Encode(accounts.Authority),
		"mint":      base58.Encode(accounts.Mint),
		"index":     args.Index,
		"price":     args.PricePerToken,
		"expiry":    args.Expiry.Unix(),
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vaultAddress, vaultBump, err := presale_vault.GetVaultAddress(&presale_vault.GetVaultAddressArgs{
			Mint:  accounts.Mint,
			Index: args.Index,
		})
		if err != nil {
			return custody.FromDerivationError(err)
		}
		if err := auth.RequireAddress(accounts.Vault, vaultAddress); err != nil {
			return err
		}

		holdingAddress, _, err := token.GetAssociatedAccountAndBump(vaultAddress, accounts.Mint)
		if err != nil {
			return custody.FromDerivationError(err)
		}
		if err := auth.RequireAddress(accounts.VaultTokenAccount, holdingAddress); err != nil {
			return err
		}

		if err := auth.RequireAdmin(tx, p.conf.adminPublicKey.Get(ctx), accounts.Authority); err != nil {
			return err
		}

		mint, err := p.tokens.GetMint(tx, accounts.Mint)
		if err != nil {
			return err
		}

		vault := &presale_vault.VaultAccount{
			DataVersion:       presale_vault.DataVersion1,
			Authority:         accounts.Authority,
			TokenMint:         accounts.Mint,
			VaultTokenAccount: holdingAddress,
			Index:             args.Index,
			PricePerToken:     args.PricePerToken,
			Expiry:            unixSeconds(args.Expiry),
			TokenDecimals:     mint.Decimals,
			Bump:              vaultBump,
		}
		vault.Status = getStatus(vault, tx.Now())

		if err := tx.Create(vaultAddress, presale_vault.PROGRAM_ID, accounts.Authority, vault.Marshal()); err != nil {
			return err
		}

		_, holdingBump, err := p.tokens.CreateHoldingAccount(tx, vaultAddress, accounts.Mint, accounts.Authority)
		if err != nil {
			return err
		}

		vault.VaultTokenBump = holdingBump
		return tx.SetData(vaultAddress, vault.Marshal())
	})
	if err != nil {
		log.WithError(err).Info("vault not initialized")
		return nil, err
	}

	log.Debug("vault initialized")
	return receipt, nil
}

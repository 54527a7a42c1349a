package exchange

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	presale_vault "github.com/code-payments/custody-server/pkg/solana/presale"
)

type CloseVaultAccounts struct {
	Authority             ed25519.PublicKey
	AuthorityTokenAccount ed25519.PublicKey
	Vault                 ed25519.PublicKey
	VaultTokenAccount     ed25519.PublicKey
}

// CloseVault sweeps the remaining vault balance to the authority once the
// vault has expired, then deletes the holding account and the vault record.
// Storage deposits for both are refunded to the authority.
func (p *Program) CloseVault(ctx context.Context, signers ledger.Signers, accounts *CloseVaultAccounts) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method": "CloseVault",
		"vault":  base58.Encode(accounts.Vault),
	})

	var swept uint64
	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vault, err := loadVaultWithHoldingAccount(tx, accounts.Vault, accounts.VaultTokenAccount)
		if err == custody.ErrAccountNotInitialized {
			return custody.ErrAlreadyClosed
		} else if err != nil {
			return err
		}

		if err := requireAuthority(tx, vault, accounts.Authority); err != nil {
			return err
		}

		if !isExpired(vault, tx.Now()) {
			return custody.ErrVaultNotExpired
		}

		if err := requireAuthorityHoldingAccount(vault, accounts.AuthorityTokenAccount); err != nil {
			return err
		}

		signer := vaultAuthority(vault)

		swept, err = p.tokens.GetBalance(tx, vault.VaultTokenAccount)
		if err != nil {
			return err
		}

		if err := addCounter(&vault.TotalSwept, swept); err != nil {
			return err
		}

		if swept > 0 {
			if err := p.tokens.Transfer(tx, vault.VaultTokenAccount, accounts.AuthorityTokenAccount, swept, signer); err != nil {
				return err
			}
		}

		if err := p.tokens.CloseHoldingAccount(tx, vault.VaultTokenAccount, vault.Authority, signer); err != nil {
			return err
		}

		vault.Status = presale_vault.VaultStatusClosed
		if err := tx.Close(accounts.Vault, vault.Authority); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(VaultClosedEventName, map[string]interface{}{
			"vault":           base58.Encode(accounts.Vault),
			"swept":           swept,
			"total_deposited": vault.TotalDeposited,
			"total_withdrawn": vault.TotalWithdrawn,
			"total_purchased": vault.TotalPurchased,
			"status":          vault.Status.String(),
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("vault not closed")
		return nil, err
	}

	log.WithField("swept", swept).Debug("vault closed")
	return receipt, nil
}

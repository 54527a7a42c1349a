package exchange

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody/ledger"
	presale_vault "github.com/code-payments/custody-server/pkg/solana/presale"
)

type WithdrawTokensArgs struct {
	Amount uint64
}

type WithdrawTokensAccounts struct {
	Authority             ed25519.PublicKey
	AuthorityTokenAccount ed25519.PublicKey
	Vault                 ed25519.PublicKey
	VaultTokenAccount     ed25519.PublicKey
}

// WithdrawTokens returns vault tokens to the authority's holding account
func (p *Program) WithdrawTokens(ctx context.Context, signers ledger.Signers, accounts *WithdrawTokensAccounts, args *WithdrawTokensArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method": "WithdrawTokens",
		"vault":  base58.Encode(accounts.Vault),
		"amount": args.Amount,
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vault, err := loadVaultWithHoldingAccount(tx, accounts.Vault, accounts.VaultTokenAccount)
		if err != nil {
			return err
		}

		if err := requireAuthority(tx, vault, accounts.Authority); err != nil {
			return err
		}

		if err := requireAuthorityHoldingAccount(vault, accounts.AuthorityTokenAccount); err != nil {
			return err
		}

		return p.withdraw(tx, accounts.Vault, vault, accounts.AuthorityTokenAccount, args.Amount)
	})
	if err != nil {
		log.WithError(err).Info("tokens not withdrawn")
		return nil, err
	}

	log.Debug("tokens withdrawn")
	return receipt, nil
}

type TransferFromVaultArgs struct {
	Amount uint64
}

type TransferFromVaultAccounts struct {
	Authority          ed25519.PublicKey
	Vault              ed25519.PublicKey
	VaultTokenAccount  ed25519.PublicKey
	DestinationAccount ed25519.PublicKey
}

// TransferFromVault sends vault tokens to any holding account of the vault
// mint. It's accounted for as a withdrawal.
func (p *Program) TransferFromVault(ctx context.Context, signers ledger.Signers, accounts *TransferFromVaultAccounts, args *TransferFromVaultArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":      "TransferFromVault",
		"vault":       base58.Encode(accounts.Vault),
		"destination": base58.Encode(accounts.DestinationAccount),
		"amount":      args.Amount,
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vault, err := loadVaultWithHoldingAccount(tx, accounts.Vault, accounts.VaultTokenAccount)
		if err != nil {
			return err
		}

		if err := requireAuthority(tx, vault, accounts.Authority); err != nil {
			return err
		}

		return p.withdraw(tx, accounts.Vault, vault, accounts.DestinationAccount, args.Amount)
	})
	if err != nil {
		log.WithError(err).Info("tokens not transferred")
		return nil, err
	}

	log.Debug("tokens transferred")
	return receipt, nil
}

func (p *Program) withdraw(tx *ledger.Transaction, address ed25519.PublicKey, vault *presale_vault.VaultAccount, destination ed25519.PublicKey, amount uint64) error {
	if err := addCounter(&vault.TotalWithdrawn, amount); err != nil {
		return err
	}

	err := p.tokens.Transfer(tx, vault.VaultTokenAccount, destination, amount, vaultAuthority(vault))
	if err != nil {
		return err
	}

	if err := saveVault(tx, address, vault); err != nil {
		return err
	}

	tx.Emit(ledger.NewEvent(TokensWithdrawnEventName, map[string]interface{}{
		"vault":       base58.Encode(address),
		"destination": base58.Encode(destination),
		"amount":      amount,
	}))
	return nil
}

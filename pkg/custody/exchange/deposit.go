package exchange

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/tokens"
)

type DepositTokensArgs struct {
	Amount uint64
}

type DepositTokensAccounts struct {
	Authority             ed25519.PublicKey
	AuthorityTokenAccount ed25519.PublicKey
	Vault                 ed25519.PublicKey
	VaultTokenAccount     ed25519.PublicKey
}

// DepositTokens funds the vault from a holding account owned by its authority
func (p *Program) DepositTokens(ctx context.Context, signers ledger.Signers, accounts *DepositTokensAccounts, args *DepositTokensArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method": "DepositTokens",
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

		if err := addCounter(&vault.TotalDeposited, args.Amount); err != nil {
			return err
		}

		err = p.tokens.Transfer(
			tx,
			accounts.AuthorityTokenAccount,
			vault.VaultTokenAccount,
			args.Amount,
			tokens.SignerAuthority(accounts.Authority),
		)
		if err != nil {
			return err
		}

		if err := saveVault(tx, accounts.Vault, vault); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(TokensDepositedEventName, map[string]interface{}{
			"vault":  base58.Encode(accounts.Vault),
			"amount": args.Amount,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("tokens not deposited")
		return nil, err
	}

	log.Debug("tokens deposited")
	return receipt, nil
}

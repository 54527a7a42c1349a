package exchange

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody/ledger"
)

type UpdatePriceArgs struct {
	PricePerToken uint64
}

type UpdatePriceAccounts struct {
	Authority ed25519.PublicKey
	Vault     ed25519.PublicKey
}

// UpdatePrice overwrites the vault price. Any value is accepted here, including
// zero, which blocks purchases until the price is raised again.
func (p *Program) UpdatePrice(ctx context.Context, signers ledger.Signers, accounts *UpdatePriceAccounts, args *UpdatePriceArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method": "UpdatePrice",
		"vault":  base58.Encode(accounts.Vault),
		"price":  args.PricePerToken,
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		vault, err := loadVault(tx, accounts.Vault)
		if err != nil {
			return err
		}

		if err := requireAuthority(tx, vault, accounts.Authority); err != nil {
			return err
		}

		previous := vault.PricePerToken
		vault.PricePerToken = args.PricePerToken

		if err := saveVault(tx, accounts.Vault, vault); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(PriceUpdatedEventName, map[string]interface{}{
			"vault":          base58.Encode(accounts.Vault),
			"previous_price": previous,
			"price":          args.PricePerToken,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("price not updated")
		return nil, err
	}

	log.Debug("price updated")
	return receipt, nil
}

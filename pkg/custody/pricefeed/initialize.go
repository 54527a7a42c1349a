package pricefeed

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
)

type InitializeArgs struct {
	FeedId price_feed.FeedId
}

type InitializeAccounts struct {
	Authority   ed25519.PublicKey
	PriceUpdate ed25519.PublicKey
}

// Initialize creates an empty price update record for a feed. The caller
// becomes its publisher and pays for its storage.
func (p *Program) Initialize(ctx context.Context, signers ledger.Signers, accounts *InitializeAccounts, args *InitializeArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":    "Initialize",
		"authority": base58.Encode(accounts.Authority),
		"feed":      args.FeedId.String(),
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		address, bump, err := price_feed.GetPriceUpdateAddress(&price_feed.GetPriceUpdateAddressArgs{
			FeedId: args.FeedId,
		})
		if err != nil {
			return custody.FromDerivationError(err)
		}

		if err := auth.RequireAddress(accounts.PriceUpdate, address); err != nil {
			return err
		}

		if err := auth.RequireAdmin(tx, p.conf.adminPublicKey.Get(ctx), accounts.Authority); err != nil {
			return err
		}

		state := &price_feed.PriceUpdateAccount{
			DataVersion: price_feed.DataVersion1,
			Authority:   accounts.Authority,
			FeedId:      args.FeedId,
			Bump:        bump,
		}
		return tx.Create(address, price_feed.PROGRAM_ID, accounts.Authority, state.Marshal())
	})
	if err != nil {
		log.WithError(err).Info("price feed not initialized")
		return nil, err
	}

	log.Debug("price feed initialized")
	return receipt, nil
}

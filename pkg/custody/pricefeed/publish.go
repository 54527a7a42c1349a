package pricefeed

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
)

type PublishArgs struct {
	Price       uint64
	Confidence  uint64
	Exponent    int32
	PublishTime uint64
}

type PublishAccounts struct {
	Authority   ed25519.PublicKey
	PriceUpdate ed25519.PublicKey
}

// Publish overwrites the latest price of a feed. Updates must not go back in
// time.
func (p *Program) Publish(ctx context.Context, signers ledger.Signers, accounts *PublishAccounts, args *PublishArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":       "Publish",
		"price_update": base58.Encode(accounts.PriceUpdate),
		"price":        args.Price,
		"exponent":     args.Exponent,
		"publish_time": args.PublishTime,
	})

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		if args.Price == 0 {
			return custody.ErrInvalidPrice
		}

		state, err := Read(tx, accounts.PriceUpdate)
		if err == custody.ErrStalePriceFeed {
			return custody.ErrAccountNotInitialized
		} else if err != nil {
			return err
		}

		if err := auth.RequireProgramAddress(
			accounts.PriceUpdate,
			price_feed.PROGRAM_ID,
			state.Bump,
			price_feed.PriceUpdatePrefix,
			state.FeedId[:],
		); err != nil {
			return err
		}

		if !bytes.Equal(state.Authority, accounts.Authority) {
			return custody.ErrUnauthorized
		}
		if err := auth.Require(tx, state.Authority); err != nil {
			return err
		}

		if args.PublishTime < state.PublishTime {
			return custody.ErrStalePriceFeed
		}

		state.Price = args.Price
		state.Confidence = args.Confidence
		state.Exponent = args.Exponent
		state.PublishTime = args.PublishTime

		if err := tx.SetData(accounts.PriceUpdate, state.Marshal()); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(PriceFeedPublishedEventName, map[string]interface{}{
			"feed":         state.FeedId.String(),
			"price":        state.Float(),
			"publish_time": state.PublishTime,
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("price not published")
		return nil, err
	}

	log.Trace("price published")
	return receipt, nil
}

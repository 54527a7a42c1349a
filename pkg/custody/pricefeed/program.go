package pricefeed

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
)

const (
	PriceFeedPublishedEventName = "PriceFeedPublished"
)

// Program maintains price update records for a set of feeds. Each record has
// a single publisher which is the only identity allowed to update it.
type Program struct {
	log      *logrus.Entry
	conf     *conf
	executor *ledger.Executor
}

func New(executor *ledger.Executor, configProvider ConfigProvider) *Program {
	return &Program{
		log:      logrus.StandardLogger().WithField("type", "custody/pricefeed"),
		conf:     configProvider(),
		executor: executor,
	}
}

// GetPriceUpdate returns the latest record published for the feed at the
// address
func (p *Program) GetPriceUpdate(ctx context.Context, address ed25519.PublicKey) (*price_feed.PriceUpdateAccount, error) {
	var res *price_feed.PriceUpdateAccount
	err := p.executor.View(ctx, func(tx *ledger.Transaction) error {
		var err error
		res, err = Read(tx, address)
		return err
	})
	return res, err
}

// Read decodes the price update record at the address within a transition.
// Anything other than a well-formed record owned by the price feed program
// is reported as custody.ErrStalePriceFeed.
func Read(tx *ledger.Transaction, address ed25519.PublicKey) (*price_feed.PriceUpdateAccount, error) {
	acc, err := tx.Get(address)
	if err == custody.ErrAccountNotInitialized {
		return nil, custody.ErrStalePriceFeed
	} else if err != nil {
		return nil, err
	}

	if !bytes.Equal(acc.Owner, price_feed.PROGRAM_ID) {
		return nil, custody.ErrStalePriceFeed
	}

	var state price_feed.PriceUpdateAccount
	if err := state.Unmarshal(acc.Data); err != nil {
		return nil, custody.ErrStalePriceFeed
	}
	return &state, nil
}

package pricefeed

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/data/account"
	memory_account_store "github.com/code-payments/custody-server/pkg/custody/data/account/memory"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
	"github.com/code-payments/custody-server/pkg/testutil"
)

type testEnv struct {
	ctx     context.Context
	store   account.Store
	clock   *testutil.ManualClock
	program *Program

	admin  ed25519.PublicKey
	feedId price_feed.FeedId
	feed   ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	store := memory_account_store.New()
	clock := testutil.NewManualClock(time.Unix(1700000000, 0))
	admin := testutil.NewRandomKey(t)

	feedId, err := price_feed.FeedIdFromHex("0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d")
	require.NoError(t, err)

	feed, _, err := price_feed.GetPriceUpdateAddress(&price_feed.GetPriceUpdateAddressArgs{FeedId: feedId})
	require.NoError(t, err)

	testutil.FundAccount(t, store, admin, 1_000_000_000)

	return &testEnv{
		ctx:     context.Background(),
		store:   store,
		clock:   clock,
		program: New(ledger.NewExecutor(store, clock), WithAdmin(admin)),
		admin:   admin,
		feedId:  feedId,
		feed:    feed,
	}
}

func (e *testEnv) initialize(t *testing.T) {
	_, err := e.program.Initialize(e.ctx, ledger.NewSigners(e.admin), &InitializeAccounts{
		Authority:   e.admin,
		PriceUpdate: e.feed,
	}, &InitializeArgs{
		FeedId: e.feedId,
	})
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	env := setup(t)

	env.initialize(t)

	state, err := env.program.GetPriceUpdate(env.ctx, env.feed)
	require.NoError(t, err)
	assert.Equal(t, env.admin, state.Authority)
	assert.Equal(t, env.feedId, state.FeedId)
	assert.Zero(t, state.Price)
	assert.Zero(t, state.PublishTime)

	_, err = env.program.Initialize(env.ctx, ledger.NewSigners(env.admin), &InitializeAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &InitializeArgs{
		FeedId: env.feedId,
	})
	assert.Equal(t, custody.ErrAlreadyInitialized, err)
}

func TestInitialize_Validation(t *testing.T) {
	env := setup(t)

	other := testutil.NewRandomKey(t)
	testutil.FundAccount(t, env.store, other, 1_000_000_000)

	// Only the admin may create feeds
	_, err := env.program.Initialize(env.ctx, ledger.NewSigners(other), &InitializeAccounts{
		Authority:   other,
		PriceUpdate: env.feed,
	}, &InitializeArgs{
		FeedId: env.feedId,
	})
	assert.Equal(t, custody.ErrUnauthorized, err)

	// The admin must sign
	_, err = env.program.Initialize(env.ctx, ledger.NewSigners(other), &InitializeAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &InitializeArgs{
		FeedId: env.feedId,
	})
	assert.Equal(t, custody.ErrUnauthorized, err)

	// The record must live at the derived address
	_, err = env.program.Initialize(env.ctx, ledger.NewSigners(env.admin), &InitializeAccounts{
		Authority:   env.admin,
		PriceUpdate: other,
	}, &InitializeArgs{
		FeedId: env.feedId,
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	_, err = env.program.GetPriceUpdate(env.ctx, env.feed)
	assert.Equal(t, custody.ErrStalePriceFeed, err)
}

func TestPublish(t *testing.T) {
	env := setup(t)
	env.initialize(t)

	receipt, err := env.program.Publish(env.ctx, ledger.NewSigners(env.admin), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       15_000_000_000,
		Confidence:  1_000_000,
		Exponent:    -8,
		PublishTime: 1700000000,
	})
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, PriceFeedPublishedEventName, receipt.Events[0].Name)
	assert.Equal(t, 150.0, receipt.Events[0].Attributes["price"])

	state, err := env.program.GetPriceUpdate(env.ctx, env.feed)
	require.NoError(t, err)
	assert.EqualValues(t, 15_000_000_000, state.Price)
	assert.EqualValues(t, 1_000_000, state.Confidence)
	assert.EqualValues(t, -8, state.Exponent)
	assert.EqualValues(t, 1700000000, state.PublishTime)

	// Same timestamp is accepted, older is not
	_, err = env.program.Publish(env.ctx, ledger.NewSigners(env.admin), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       16_000_000_000,
		Exponent:    -8,
		PublishTime: 1700000000,
	})
	require.NoError(t, err)

	_, err = env.program.Publish(env.ctx, ledger.NewSigners(env.admin), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       17_000_000_000,
		Exponent:    -8,
		PublishTime: 1699999999,
	})
	assert.Equal(t, custody.ErrStalePriceFeed, err)

	state, err = env.program.GetPriceUpdate(env.ctx, env.feed)
	require.NoError(t, err)
	assert.EqualValues(t, 16_000_000_000, state.Price)
}

func TestPublish_Validation(t *testing.T) {
	env := setup(t)

	other := testutil.NewRandomKey(t)

	_, err := env.program.Publish(env.ctx, ledger.NewSigners(env.admin), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       1,
		PublishTime: 1,
	})
	assert.Equal(t, custody.ErrAccountNotInitialized, err)

	env.initialize(t)

	_, err = env.program.Publish(env.ctx, ledger.NewSigners(env.admin), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		PublishTime: 1,
	})
	assert.Equal(t, custody.ErrInvalidPrice, err)

	_, err = env.program.Publish(env.ctx, ledger.NewSigners(other), &PublishAccounts{
		Authority:   other,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       1,
		PublishTime: 1,
	})
	assert.Equal(t, custody.ErrUnauthorized, err)

	_, err = env.program.Publish(env.ctx, ledger.NewSigners(other), &PublishAccounts{
		Authority:   env.admin,
		PriceUpdate: env.feed,
	}, &PublishArgs{
		Price:       1,
		PublishTime: 1,
	})
	assert.Equal(t, custody.ErrUnauthorized, err)
}

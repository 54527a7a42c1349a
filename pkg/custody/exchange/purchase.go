package exchange

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/auth"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/pricefeed"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
)

type PurchaseTokensArgs struct {
	PaymentAmount uint64
}

type PurchaseTokensAccounts struct {
	Buyer             ed25519.PublicKey
	BuyerTokenAccount ed25519.PublicKey
	Vault             ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey

	// Receives the payment. Must be the vault authority.
	Authority ed25519.PublicKey

	PriceUpdate ed25519.PublicKey
}

// PurchaseTokens sells vault tokens to any signer. The payment, in lamports,
// is valued against the configured price feed and goes to the vault
// authority.
func (p *Program) PurchaseTokens(ctx context.Context, signers ledger.Signers, accounts *PurchaseTokensAccounts, args *PurchaseTokensArgs) (*ledger.Receipt, error) {
	log := p.log.WithFields(logrus.Fields{
		"method":  "PurchaseTokens",
		"vault":   base58.Encode(accounts.Vault),
		"buyer":   base58.Encode(accounts.Buyer),
		"payment": args.PaymentAmount,
	})

	feedId, err := price_feed.FeedIdFromHex(p.conf.priceFeedId.Get(ctx))
	if err != nil {
		log.WithError(err).Warn("invalid price feed id configured")
		return nil, errors.Wrap(err, "invalid price feed id configured")
	}

	receipt, err := p.executor.Execute(ctx, signers, func(tx *ledger.Transaction) error {
		feedAddress, _, err := price_feed.GetPriceUpdateAddress(&price_feed.GetPriceUpdateAddressArgs{
			FeedId: feedId,
		})
		if err != nil {
			return custody.FromDerivationError(err)
		}
		if err := auth.RequireAddress(accounts.PriceUpdate, feedAddress); err != nil {
			return err
		}

		vault, err := loadVaultWithHoldingAccount(tx, accounts.Vault, accounts.VaultTokenAccount)
		if err != nil {
			return err
		}
		if err := auth.RequireAddress(accounts.Authority, vault.Authority); err != nil {
			return err
		}

		if err := auth.Require(tx, accounts.Buyer); err != nil {
			return err
		}

		if isExpired(vault, tx.Now()) {
			return custody.ErrVaultExpired
		}

		feed, err := pricefeed.Read(tx, feedAddress)
		if err != nil {
			return err
		}
		if feed.FeedId != feedId || feed.Price == 0 {
			return custody.ErrStalePriceFeed
		}
		if isStale(feed.PublishTime, tx.Now(), p.conf.maxPriceAge.Get(ctx)) {
			return custody.ErrStalePriceFeed
		}

		quote := &purchaseQuote{
			paymentAmount:   args.PaymentAmount,
			paymentDecimals: p.conf.paymentDecimals.Get(ctx),
			feedPrice:       feed.Price,
			feedExponent:    feed.Exponent,
			pricePerToken:   vault.PricePerToken,
			quoteDecimals:   p.conf.quoteDecimals.Get(ctx),
			tokenDecimals:   vault.TokenDecimals,
		}
		quantity, err := quote.tokens()
		if err != nil {
			return err
		}

		if quantity == 0 {
			return custody.ErrPurchaseTooSmall
		}
		if exceedsLimit(quantity, p.conf.maxPurchaseTokens.Get(ctx), vault.TokenDecimals) {
			return custody.ErrPurchaseLimitExceeded
		}

		if err := addCounter(&vault.TotalPurchased, quantity); err != nil {
			return err
		}

		if err := tx.TransferLamports(accounts.Buyer, vault.Authority, args.PaymentAmount); err != nil {
			return err
		}

		err = p.tokens.Transfer(tx, vault.VaultTokenAccount, accounts.BuyerTokenAccount, quantity, vaultAuthority(vault))
		if err != nil {
			return err
		}

		if err := saveVault(tx, accounts.Vault, vault); err != nil {
			return err
		}

		tx.Emit(ledger.NewEvent(TokensPurchasedEventName, map[string]interface{}{
			"vault":           base58.Encode(accounts.Vault),
			"buyer":           base58.Encode(accounts.Buyer),
			"payment":         args.PaymentAmount,
			"quantity":        quantity,
			"price_per_token": vault.PricePerToken,
			"feed_price":      feed.Float(),
		}))
		return nil
	})
	if err != nil {
		log.WithError(err).Info("tokens not purchased")
		return nil, err
	}

	log.Debug("tokens purchased")
	return receipt, nil
}

func isStale(publishTime uint64, now time.Time, maxAge time.Duration) bool {
	if publishTime == 0 {
		return true
	}

	published := time.Unix(int64(publishTime), 0)
	return now.Sub(published) > maxAge
}

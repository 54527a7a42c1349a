package exchange

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/custody"
)

func TestPurchaseQuote(t *testing.T) {
	for _, tc := range []struct {
		name     string
		quote    purchaseQuote
		expected uint64
	}{
		{
			// 1 SOL at $150 buys 150,000 tokens priced at $0.001
			name: "whole payment",
			quote: purchaseQuote{
				paymentAmount:   1_000_000_000,
				paymentDecimals: 9,
				feedPrice:       15_000_000_000,
				feedExponent:    -8,
				pricePerToken:   1_000,
				quoteDecimals:   6,
				tokenDecimals:   6,
			},
			expected: 150_000_000_000,
		},
		{
			name: "doubled price halves quantity",
			quote: purchaseQuote{
				paymentAmount:   1_000_000_000,
				paymentDecimals: 9,
				feedPrice:       15_000_000_000,
				feedExponent:    -8,
				pricePerToken:   2_000,
				quoteDecimals:   6,
				tokenDecimals:   6,
			},
			expected: 75_000_000_000,
		},
		{
			// 1 lamport at $150/SOL is 1.5e-7 USD, worth 1.5e-4 tokens, or
			// 150 base units at 6 decimals
			name: "dust payment",
			quote: purchaseQuote{
				paymentAmount:   1,
				paymentDecimals: 9,
				feedPrice:       15_000_000_000,
				feedExponent:    -8,
				pricePerToken:   1_000,
				quoteDecimals:   6,
				tokenDecimals:   6,
			},
			expected: 150,
		},
		{
			name: "floored",
			quote: purchaseQuote{
				paymentAmount:   1,
				paymentDecimals: 9,
				feedPrice:       1,
				feedExponent:    0,
				pricePerToken:   3,
				quoteDecimals:   6,
				tokenDecimals:   0,
			},
			expected: 0,
		},
		{
			name: "positive exponent",
			quote: purchaseQuote{
				paymentAmount:   1_000_000_000,
				paymentDecimals: 9,
				feedPrice:       15,
				feedExponent:    1,
				pricePerToken:   1_000_000,
				quoteDecimals:   6,
				tokenDecimals:   9,
			},
			expected: 150_000_000_000,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.quote.tokens()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestPurchaseQuote_Errors(t *testing.T) {
	_, err := (&purchaseQuote{paymentAmount: 1, feedPrice: 1}).tokens()
	assert.Equal(t, custody.ErrInvalidPrice, err)

	_, err = (&purchaseQuote{paymentAmount: 1, pricePerToken: 1}).tokens()
	assert.Equal(t, custody.ErrStalePriceFeed, err)

	_, err = (&purchaseQuote{
		paymentAmount: math.MaxUint64,
		feedPrice:     math.MaxUint64,
		pricePerToken: 1,
		tokenDecimals: 9,
	}).tokens()
	assert.Equal(t, custody.ErrArithmeticOverflow, err)
}

func TestExceedsLimit(t *testing.T) {
	assert.False(t, exceedsLimit(1_000_000_000_000, 1_000_000, 6))
	assert.True(t, exceedsLimit(1_000_000_000_001, 1_000_000, 6))
	assert.False(t, exceedsLimit(math.MaxUint64, math.MaxUint64, 9))
}

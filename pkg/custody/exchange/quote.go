package exchange

import (
	"math/big"

	"github.com/code-payments/custody-server/pkg/custody"
)

// purchaseQuote holds everything needed to convert a payment into a token
// quantity. Prices are integers:
//   - feedPrice * 10^feedExponent is quote currency per whole payment unit
//   - pricePerToken is quote currency units (10^-quoteDecimals) per whole token
type purchaseQuote struct {
	paymentAmount   uint64
	paymentDecimals uint64

	feedPrice    uint64
	feedExponent int32

	pricePerToken uint64
	quoteDecimals uint64

	tokenDecimals uint8
}

// tokens returns the token quantity, in base units, bought by the payment.
// The result is floored so rounding always favours the vault.
//
//	payment * feedPrice * 10^(quoteDecimals+tokenDecimals)
//	------------------------------------------------------
//	pricePerToken * 10^(paymentDecimals-feedExponent)
func (q *purchaseQuote) tokens() (uint64, error) {
	if q.pricePerToken == 0 {
		return 0, custody.ErrInvalidPrice
	}
	if q.feedPrice == 0 {
		return 0, custody.ErrStalePriceFeed
	}

	numeratorExp := int64(q.quoteDecimals) + int64(q.tokenDecimals)
	denominatorExp := int64(q.paymentDecimals)
	if q.feedExponent >= 0 {
		numeratorExp += int64(q.feedExponent)
	} else {
		denominatorExp -= int64(q.feedExponent)
	}

	numerator := new(big.Int).SetUint64(q.paymentAmount)
	numerator.Mul(numerator, new(big.Int).SetUint64(q.feedPrice))
	numerator.Mul(numerator, pow10(numeratorExp))

	denominator := new(big.Int).SetUint64(q.pricePerToken)
	denominator.Mul(denominator, pow10(denominatorExp))

	result := new(big.Int).Quo(numerator, denominator)
	if !result.IsUint64() {
		return 0, custody.ErrArithmeticOverflow
	}
	return result.Uint64(), nil
}

// exceedsLimit returns whether quantity, in base units, is above a limit
// expressed in whole tokens
func exceedsLimit(quantity uint64, limitWholeTokens uint64, decimals uint8) bool {
	limit := new(big.Int).SetUint64(limitWholeTokens)
	limit.Mul(limit, pow10(int64(decimals)))
	return new(big.Int).SetUint64(quantity).Cmp(limit) > 0
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

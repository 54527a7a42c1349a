// Package currency defines the market-rate source used to publish price feeds.
package currency

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidBase = errors.New("currency: unknown base asset")
	ErrRateLimited = errors.New("currency: rate limited by provider")
)

// ExchangeData is a snapshot of quote rates for one unit of Base.
type ExchangeData struct {
	Base      string
	Rates     map[string]float64
	Timestamp time.Time
}

// Rate returns the price of one unit of Base in quote. Symbols are case
// insensitive.
func (d *ExchangeData) Rate(quote string) (float64, bool) {
	rate, ok := d.Rates[strings.ToLower(quote)]
	return rate, ok
}

type Client interface {
	// GetCurrentRates gets the latest quote rates for a base asset id.
	GetCurrentRates(ctx context.Context, base string) (*ExchangeData, error)
}

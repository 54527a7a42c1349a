package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRentExemptMinimum(t *testing.T) {
	// Well known values for empty and token accounts
	assert.EqualValues(t, 890880, RentExemptMinimum(0))
	assert.EqualValues(t, 2039280, RentExemptMinimum(165))
	assert.EqualValues(t, 890880, RentExemptMinimum(-1))
}

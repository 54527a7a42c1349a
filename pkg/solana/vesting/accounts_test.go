package vesting_reserve

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVestingAccount_RoundTrip(t *testing.T) {
	expected := &VestingAccount{
		DataVersion:  DataVersion1,
		Owner:        newKey(t),
		Mint:         newKey(t),
		Treasury:     newKey(t),
		ReserveType:  "team",
		Bump:         255,
		TreasuryBump: 250,
	}

	data := expected.Marshal()
	assert.Len(t, data, VestingAccountSize)

	var actual VestingAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, &actual)

	var reserve ReserveAccount
	assert.Equal(t, ErrInvalidAccountData, reserve.Unmarshal(data))
}

func TestReserveAccount_RoundTrip(t *testing.T) {
	expected := &ReserveAccount{
		DataVersion:     DataVersion1,
		Beneficiary:     newKey(t),
		VestingAccount:  newKey(t),
		StartTime:       1700000000,
		CliffTime:       86400,
		EndTime:         1800000000,
		TotalAmount:     100_000,
		MonthlyClaim:    20_000,
		AmountWithdrawn: 40_000,
		PeriodLength:    2592000,
		Status:          ReserveStatusVesting,
		Bump:            251,
	}
	assert.EqualValues(t, 1700086400, expected.CliffEnd())

	data := expected.Marshal()
	assert.Len(t, data, ReserveAccountSize)

	var actual ReserveAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, &actual)

	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data[:ReserveAccountSize-1]))
}

func TestAddresses(t *testing.T) {
	_, _, err := GetVestingAccountAddress(&GetVestingAccountAddressArgs{ReserveType: ""})
	assert.Equal(t, ErrInvalidReserveType, err)

	_, _, err = GetVestingAccountAddress(&GetVestingAccountAddressArgs{ReserveType: strings.Repeat("a", MaxReserveTypeLength+1)})
	assert.Equal(t, ErrInvalidReserveType, err)

	team, _, err := GetVestingAccountAddress(&GetVestingAccountAddressArgs{ReserveType: "team"})
	require.NoError(t, err)
	advisors, _, err := GetVestingAccountAddress(&GetVestingAccountAddressArgs{ReserveType: "advisors"})
	require.NoError(t, err)
	assert.NotEqual(t, team, advisors)

	beneficiary := newKey(t)
	a, _, err := GetReserveAddress(&GetReserveAddressArgs{VestingAccount: team, Beneficiary: beneficiary})
	require.NoError(t, err)
	b, _, err := GetReserveAddress(&GetReserveAddressArgs{VestingAccount: advisors, Beneficiary: beneficiary})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func newKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

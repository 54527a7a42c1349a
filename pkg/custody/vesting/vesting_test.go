package vesting

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
	"github.com/code-payments/custody-server/pkg/custody/tokens"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
	"github.com/code-payments/custody-server/pkg/testutil"
)

const (
	reserveType = "team"
	wholeToken  = 1_000_000
	period      = 30 * 24 * time.Hour
)

var startTime = time.Unix(1700000000, 0)

type testEnv struct {
	ctx      context.Context
	store    account.Store
	clock    *testutil.ManualClock
	executor *ledger.Executor
	adapter  *tokens.Adapter
	program  *Program

	owner         ed25519.PublicKey
	ownerHolding  ed25519.PublicKey
	mint          ed25519.PublicKey
	mintAuthority ed25519.PublicKey

	vestingAccount ed25519.PublicKey
	treasury       ed25519.PublicKey
}

type testBeneficiary struct {
	key     ed25519.PublicKey
	holding ed25519.PublicKey
	reserve ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	store := memory_account_store.New()
	clock := testutil.NewManualClock(startTime)
	executor := ledger.NewExecutor(store, clock)
	adapter := tokens.NewAdapter()

	env := &testEnv{
		ctx:           context.Background(),
		store:         store,
		clock:         clock,
		executor:      executor,
		adapter:       adapter,
		owner:         testutil.NewRandomKey(t),
		mint:          testutil.NewRandomKey(t),
		mintAuthority: testutil.NewRandomKey(t),
	}
	env.program = New(executor, adapter, withManualTestOverrides(&testOverrides{
		adminPublicKey: env.owner,
		periodLength:   period,
	}))

	testutil.FundAccount(t, store, env.owner, 10_000_000_000)
	testutil.FundAccount(t, store, env.mintAuthority, 10_000_000_000)

	_, err := executor.Execute(env.ctx, ledger.NewSigners(env.mintAuthority), func(tx *ledger.Transaction) error {
		return adapter.InitializeMint(tx, env.mint, env.mintAuthority, env.mintAuthority, 6)
	})
	require.NoError(t, err)

	env.ownerHolding = env.createHoldingAccount(t, env.owner, 1_000_000*wholeToken)

	accounts := env.vestingAccountAccounts(t, reserveType)
	env.vestingAccount = accounts.VestingAccount
	env.treasury = accounts.Treasury

	_, err = env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(env.owner), accounts, &CreateVestingAccountArgs{
		ReserveType: reserveType,
	})
	require.NoError(t, err)

	return env
}

func (e *testEnv) vestingAccountAccounts(t *testing.T, tag string) *CreateVestingAccountAccounts {
	address, _, err := vesting_reserve.GetVestingAccountAddress(&vesting_reserve.GetVestingAccountAddressArgs{
		ReserveType: tag,
	})
	require.NoError(t, err)

	treasury, err := token.GetAssociatedAccount(address, e.mint)
	require.NoError(t, err)

	return &CreateVestingAccountAccounts{
		Owner:          e.owner,
		Mint:           e.mint,
		VestingAccount: address,
		Treasury:       treasury,
	}
}

func (e *testEnv) createHoldingAccount(t *testing.T, owner ed25519.PublicKey, balance uint64) ed25519.PublicKey {
	var address ed25519.PublicKey
	_, err := e.executor.Execute(e.ctx, ledger.NewSigners(e.mintAuthority), func(tx *ledger.Transaction) error {
		var err error
		address, _, err = e.adapter.CreateHoldingAccount(tx, owner, e.mint, e.mintAuthority)
		if err != nil {
			return err
		}
		if balance == 0 {
			return nil
		}
		return e.adapter.MintTo(tx, e.mint, address, balance, tokens.SignerAuthority(e.mintAuthority))
	})
	require.NoError(t, err)
	return address
}

func (e *testEnv) newBeneficiary(t *testing.T) *testBeneficiary {
	key := testutil.NewRandomKey(t)

	reserve, _, err := vesting_reserve.GetReserveAddress(&vesting_reserve.GetReserveAddressArgs{
		VestingAccount: e.vestingAccount,
		Beneficiary:    key,
	})
	require.NoError(t, err)

	return &testBeneficiary{
		key:     key,
		holding: e.createHoldingAccount(t, key, 0),
		reserve: reserve,
	}
}

func (e *testEnv) createReserveAccounts(b *testBeneficiary) *CreateReserveAccounts {
	return &CreateReserveAccounts{
		Owner:             e.owner,
		OwnerTokenAccount: e.ownerHolding,
		VestingAccount:    e.vestingAccount,
		Treasury:          e.treasury,
		Beneficiary:       b.key,
		Reserve:           b.reserve,
	}
}

// createReserve opens the reference schedule: 100,000 tokens, a one period
// cliff, then 20,000 per period until six periods after the start
func (e *testEnv) createReserve(t *testing.T, b *testBeneficiary) *ledger.Receipt {
	receipt, err := e.program.CreateReserve(e.ctx, ledger.NewSigners(e.owner), e.createReserveAccounts(b), &CreateReserveArgs{
		ReserveType:  reserveType,
		StartTime:    startTime,
		EndTime:      startTime.Add(6 * period),
		CliffTime:    period,
		TotalAmount:  100_000 * wholeToken,
		MonthlyClaim: 20_000 * wholeToken,
	})
	require.NoError(t, err)
	return receipt
}

func (e *testEnv) claim(b *testBeneficiary) (*ledger.Receipt, error) {
	return e.program.ClaimTokens(e.ctx, ledger.NewSigners(b.key), &ClaimTokensAccounts{
		Beneficiary:             b.key,
		BeneficiaryTokenAccount: b.holding,
		VestingAccount:          e.vestingAccount,
		Treasury:                e.treasury,
		Reserve:                 b.reserve,
	}, &ClaimTokensArgs{
		ReserveType: reserveType,
	})
}

func (e *testEnv) closeReserve(signer ed25519.PublicKey, b *testBeneficiary) error {
	_, err := e.program.CloseReserveAccount(e.ctx, ledger.NewSigners(signer), &CloseReserveAccountAccounts{
		Beneficiary:    b.key,
		VestingAccount: e.vestingAccount,
		Reserve:        b.reserve,
	}, &CloseReserveAccountArgs{
		ReserveType: reserveType,
	})
	return err
}

func (e *testEnv) getBalance(t *testing.T, address ed25519.PublicKey) uint64 {
	var balance uint64
	require.NoError(t, e.executor.View(e.ctx, func(tx *ledger.Transaction) error {
		var err error
		balance, err = e.adapter.GetBalance(tx, address)
		return err
	}))
	return balance
}

func TestCreateVestingAccount(t *testing.T) {
	env := setup(t)

	vestingAccount, err := env.program.GetVestingAccount(env.ctx, env.vestingAccount)
	require.NoError(t, err)
	assert.Equal(t, env.owner, vestingAccount.Owner)
	assert.Equal(t, env.mint, vestingAccount.Mint)
	assert.Equal(t, env.treasury, vestingAccount.Treasury)
	assert.Equal(t, reserveType, vestingAccount.ReserveType)

	_, treasuryBump, err := token.GetAssociatedAccountAndBump(env.vestingAccount, env.mint)
	require.NoError(t, err)
	assert.Equal(t, treasuryBump, vestingAccount.TreasuryBump)
	assert.Zero(t, env.getBalance(t, env.treasury))

	_, err = env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(env.owner), env.vestingAccountAccounts(t, reserveType), &CreateVestingAccountArgs{
		ReserveType: reserveType,
	})
	assert.Equal(t, custody.ErrAlreadyInitialized, err)
}

func TestCreateVestingAccount_Validation(t *testing.T) {
	env := setup(t)

	other := testutil.NewRandomKey(t)
	testutil.FundAccount(t, env.store, other, 10_000_000_000)

	accounts := env.vestingAccountAccounts(t, "advisors")
	accounts.Owner = other
	_, err := env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(other), accounts, &CreateVestingAccountArgs{
		ReserveType: "advisors",
	})
	assert.Equal(t, custody.ErrUnauthorized, err)

	_, err = env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(env.owner), env.vestingAccountAccounts(t, "advisors"), &CreateVestingAccountArgs{
		ReserveType: "investors",
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	accounts = env.vestingAccountAccounts(t, "advisors")
	accounts.Treasury = env.ownerHolding
	_, err = env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(env.owner), accounts, &CreateVestingAccountArgs{
		ReserveType: "advisors",
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	_, err = env.program.CreateVestingAccount(env.ctx, ledger.NewSigners(env.owner), accounts, &CreateVestingAccountArgs{
		ReserveType: "a_reserve_type_longer_than_32_bytes",
	})
	assert.Equal(t, custody.ErrInvalidAccountData, err)
}

func TestReserveLifecycle(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)

	ownerBefore := env.getBalance(t, env.ownerHolding)

	receipt := env.createReserve(t, beneficiary)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, TokensLockedEventName, receipt.Events[0].Name)
	assert.EqualValues(t, startTime.Add(period).Unix(), receipt.Events[0].Attributes["locked_until"])

	assert.Equal(t, ownerBefore-100_000*wholeToken, env.getBalance(t, env.ownerHolding))
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, env.treasury))

	reserve, err := env.program.GetReserve(env.ctx, beneficiary.reserve)
	require.NoError(t, err)
	assert.Equal(t, beneficiary.key, reserve.Beneficiary)
	assert.Equal(t, env.vestingAccount, reserve.VestingAccount)
	assert.EqualValues(t, startTime.Unix(), reserve.StartTime)
	assert.EqualValues(t, period/time.Second, reserve.CliffTime)
	assert.EqualValues(t, startTime.Add(6*period).Unix(), reserve.EndTime)
	assert.EqualValues(t, period/time.Second, reserve.PeriodLength)
	assert.Zero(t, reserve.AmountWithdrawn)
	assert.Equal(t, vesting_reserve.ReserveStatusPreCliff, reserve.Status)

	// Before the cliff
	_, err = env.claim(beneficiary)
	assert.Equal(t, custody.ErrCliffPeriodNotEnded, err)

	env.clock.Set(startTime.Add(period - time.Second))
	_, err = env.claim(beneficiary)
	assert.Equal(t, custody.ErrCliffPeriodNotEnded, err)

	// Right at the cliff nothing has vested yet
	env.clock.Set(startTime.Add(period))
	_, err = env.claim(beneficiary)
	assert.Equal(t, custody.ErrNothingToClaim, err)

	reserve, err = env.program.GetReserve(env.ctx, beneficiary.reserve)
	require.NoError(t, err)
	assert.Equal(t, vesting_reserve.ReserveStatusVesting, reserve.Status)

	var lastWithdrawn uint64
	for i := 1; i <= 5; i++ {
		env.clock.Set(startTime.Add(period + time.Duration(i)*period))

		receipt, err := env.claim(beneficiary)
		require.NoError(t, err)
		require.Len(t, receipt.Events, 1)
		assert.Equal(t, TokensClaimedEventName, receipt.Events[0].Name)
		assert.EqualValues(t, 20_000*wholeToken, receipt.Events[0].Attributes["claimed_amount"])

		expectedNext := startTime.Add(period + time.Duration(i+1)*period).Unix()
		if i == 5 {
			expectedNext = 0
		}
		assert.EqualValues(t, expectedNext, receipt.Events[0].Attributes["next_claim_timestamp"])

		// A second claim within the same period is a no-op
		_, err = env.claim(beneficiary)
		assert.Equal(t, custody.ErrNothingToClaim, err)

		reserve, err := env.program.GetReserve(env.ctx, beneficiary.reserve)
		require.NoError(t, err)
		assert.EqualValues(t, uint64(i)*20_000*wholeToken, reserve.AmountWithdrawn)
		assert.True(t, reserve.AmountWithdrawn >= lastWithdrawn)
		assert.True(t, reserve.AmountWithdrawn <= reserve.TotalAmount)
		lastWithdrawn = reserve.AmountWithdrawn

		assert.Equal(t, reserve.AmountWithdrawn, env.getBalance(t, beneficiary.holding))
	}

	// Sixth period has nothing left
	env.clock.Set(startTime.Add(7 * period))
	_, err = env.claim(beneficiary)
	assert.Equal(t, custody.ErrNothingToClaim, err)

	reserve, err = env.program.GetReserve(env.ctx, beneficiary.reserve)
	require.NoError(t, err)
	assert.Equal(t, vesting_reserve.ReserveStatusComplete, reserve.Status)
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, beneficiary.holding))
	assert.Zero(t, env.getBalance(t, env.treasury))

	// Close refunds the record deposit to the beneficiary
	rent := testutil.GetLamports(t, env.store, beneficiary.reserve)
	assert.Equal(t, system.RentExemptMinimum(vesting_reserve.ReserveAccountSize), rent)

	assert.Equal(t, custody.ErrUnauthorized, env.closeReserve(env.owner, beneficiary))
	require.NoError(t, env.closeReserve(beneficiary.key, beneficiary))
	assert.Equal(t, rent, testutil.GetLamports(t, env.store, beneficiary.key))

	_, err = env.program.GetReserve(env.ctx, beneficiary.reserve)
	assert.Equal(t, custody.ErrAccountNotInitialized, err)

	assert.Equal(t, custody.ErrAlreadyClosed, env.closeReserve(beneficiary.key, beneficiary))

	// The vesting account outlives its reserves
	_, err = env.program.GetVestingAccount(env.ctx, env.vestingAccount)
	require.NoError(t, err)
}

func TestClaim_CatchUp(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)
	env.createReserve(t, beneficiary)

	// Three periods after the cliff with no claims in between
	env.clock.Set(startTime.Add(4*period + time.Hour))
	receipt, err := env.claim(beneficiary)
	require.NoError(t, err)
	assert.EqualValues(t, 60_000*wholeToken, receipt.Events[0].Attributes["claimed_amount"])

	// Long after the end everything else is released at once
	env.clock.Set(startTime.Add(100 * period))
	receipt, err = env.claim(beneficiary)
	require.NoError(t, err)
	assert.EqualValues(t, 40_000*wholeToken, receipt.Events[0].Attributes["claimed_amount"])
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, beneficiary.holding))
}

func TestClaim_Validation(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)
	env.createReserve(t, beneficiary)

	other := env.newBeneficiary(t)

	env.clock.Set(startTime.Add(3 * period))

	// Beneficiary didn't sign
	_, err := env.program.ClaimTokens(env.ctx, ledger.NewSigners(other.key), &ClaimTokensAccounts{
		Beneficiary:             beneficiary.key,
		BeneficiaryTokenAccount: other.holding,
		VestingAccount:          env.vestingAccount,
		Treasury:                env.treasury,
		Reserve:                 beneficiary.reserve,
	}, &ClaimTokensArgs{
		ReserveType: reserveType,
	})
	assert.Equal(t, custody.ErrUnauthorized, err)

	// Someone else's reserve
	_, err = env.program.ClaimTokens(env.ctx, ledger.NewSigners(other.key), &ClaimTokensAccounts{
		Beneficiary:             other.key,
		BeneficiaryTokenAccount: other.holding,
		VestingAccount:          env.vestingAccount,
		Treasury:                env.treasury,
		Reserve:                 beneficiary.reserve,
	}, &ClaimTokensArgs{
		ReserveType: reserveType,
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	// No reserve for them
	_, err = env.claim(other)
	assert.Equal(t, custody.ErrAccountNotInitialized, err)

	// Wrong treasury
	_, err = env.program.ClaimTokens(env.ctx, ledger.NewSigners(beneficiary.key), &ClaimTokensAccounts{
		Beneficiary:             beneficiary.key,
		BeneficiaryTokenAccount: beneficiary.holding,
		VestingAccount:          env.vestingAccount,
		Treasury:                env.ownerHolding,
		Reserve:                 beneficiary.reserve,
	}, &ClaimTokensArgs{
		ReserveType: reserveType,
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	assert.Zero(t, env.getBalance(t, beneficiary.holding))
	assert.Zero(t, env.getBalance(t, other.holding))
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, env.treasury))

	// Early close is not a forfeiture path
	assert.Equal(t, custody.ErrFundsRemaining, env.closeReserve(beneficiary.key, beneficiary))
}

func TestClaim_IntoTreasury(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)
	env.createReserve(t, beneficiary)

	env.clock.Set(startTime.Add(3 * period))

	_, err := env.program.ClaimTokens(env.ctx, ledger.NewSigners(beneficiary.key), &ClaimTokensAccounts{
		Beneficiary:             beneficiary.key,
		BeneficiaryTokenAccount: env.treasury,
		VestingAccount:          env.vestingAccount,
		Treasury:                env.treasury,
		Reserve:                 beneficiary.reserve,
	}, &ClaimTokensArgs{
		ReserveType: reserveType,
	})
	assert.Equal(t, custody.ErrAddressMismatch, err)

	reserve, err := env.program.GetReserve(env.ctx, beneficiary.reserve)
	require.NoError(t, err)
	assert.Zero(t, reserve.AmountWithdrawn)
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, env.treasury))

	// The real holding account still gets the full entitlement
	receipt, err := env.claim(beneficiary)
	require.NoError(t, err)
	assert.EqualValues(t, 40_000*wholeToken, receipt.Events[0].Attributes["claimed_amount"])
}

func TestCloseReserve_BeforeEnd(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)

	// Five periods after the cliff release everything, half a period before
	// the end
	end := startTime.Add(6*period + period/2)
	_, err := env.program.CreateReserve(env.ctx, ledger.NewSigners(env.owner), env.createReserveAccounts(beneficiary), &CreateReserveArgs{
		ReserveType:  reserveType,
		StartTime:    startTime,
		EndTime:      end,
		CliffTime:    period,
		TotalAmount:  100_000 * wholeToken,
		MonthlyClaim: 20_000 * wholeToken,
	})
	require.NoError(t, err)

	env.clock.Set(startTime.Add(6 * period))
	_, err = env.claim(beneficiary)
	require.NoError(t, err)
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, beneficiary.holding))

	assert.Equal(t, custody.ErrVestingNotOver, env.closeReserve(beneficiary.key, beneficiary))

	env.clock.Set(end.Add(-time.Second))
	assert.Equal(t, custody.ErrVestingNotOver, env.closeReserve(beneficiary.key, beneficiary))

	env.clock.Set(end)
	require.NoError(t, env.closeReserve(beneficiary.key, beneficiary))
}

func TestCreateReserve_Validation(t *testing.T) {
	env := setup(t)
	beneficiary := env.newBeneficiary(t)

	create := func(signer ed25519.PublicKey, accounts *CreateReserveAccounts, args *CreateReserveArgs) error {
		_, err := env.program.CreateReserve(env.ctx, ledger.NewSigners(signer), accounts, args)
		return err
	}

	validArgs := func() *CreateReserveArgs {
		return &CreateReserveArgs{
			ReserveType:  reserveType,
			StartTime:    startTime,
			EndTime:      startTime.Add(6 * period),
			CliffTime:    period,
			TotalAmount:  100_000 * wholeToken,
			MonthlyClaim: 20_000 * wholeToken,
		}
	}

	args := validArgs()
	args.MonthlyClaim = 20_000*wholeToken + 1
	assert.Equal(t, custody.ErrScheduleOverAllocated, create(env.owner, env.createReserveAccounts(beneficiary), args))

	args = validArgs()
	args.CliffTime = 7 * period
	assert.Equal(t, custody.ErrInvalidSchedule, create(env.owner, env.createReserveAccounts(beneficiary), args))

	args = validArgs()
	args.TotalAmount = 0
	assert.Equal(t, custody.ErrInvalidSchedule, create(env.owner, env.createReserveAccounts(beneficiary), args))

	args = validArgs()
	args.TotalAmount = 2_000_000 * wholeToken
	assert.Equal(t, custody.ErrInsufficientFunds, create(env.owner, env.createReserveAccounts(beneficiary), args))

	other := testutil.NewRandomKey(t)
	otherHolding := env.createHoldingAccount(t, other, 1_000_000*wholeToken)
	testutil.FundAccount(t, env.store, other, 10_000_000_000)

	accounts := env.createReserveAccounts(beneficiary)
	accounts.Owner = other
	accounts.OwnerTokenAccount = otherHolding
	assert.Equal(t, custody.ErrUnauthorized, create(other, accounts, validArgs()))

	assert.Equal(t, custody.ErrUnauthorized, create(other, env.createReserveAccounts(beneficiary), validArgs()))

	accounts = env.createReserveAccounts(beneficiary)
	accounts.Reserve = testutil.NewRandomKey(t)
	assert.Equal(t, custody.ErrAddressMismatch, create(env.owner, accounts, validArgs()))

	_, err := env.program.GetReserve(env.ctx, beneficiary.reserve)
	assert.Equal(t, custody.ErrAccountNotInitialized, err)
	assert.Zero(t, env.getBalance(t, env.treasury))

	require.NoError(t, create(env.owner, env.createReserveAccounts(beneficiary), validArgs()))
	assert.Equal(t, custody.ErrAlreadyInitialized, create(env.owner, env.createReserveAccounts(beneficiary), validArgs()))
	assert.EqualValues(t, 100_000*wholeToken, env.getBalance(t, env.treasury))
}

func TestSharedTreasury(t *testing.T) {
	env := setup(t)

	first := env.newBeneficiary(t)
	second := env.newBeneficiary(t)
	env.createReserve(t, first)
	env.createReserve(t, second)

	assert.EqualValues(t, 200_000*wholeToken, env.getBalance(t, env.treasury))

	env.clock.Set(startTime.Add(3 * period))
	_, err := env.claim(first)
	require.NoError(t, err)

	assert.EqualValues(t, 40_000*wholeToken, env.getBalance(t, first.holding))
	assert.Zero(t, env.getBalance(t, second.holding))
	assert.EqualValues(t, 160_000*wholeToken, env.getBalance(t, env.treasury))

	treasuryBalance, err := env.program.GetTreasuryBalance(env.ctx, env.vestingAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 160_000*wholeToken, treasuryBalance)

	reserve, err := env.program.GetReserve(env.ctx, second.reserve)
	require.NoError(t, err)
	assert.Zero(t, reserve.AmountWithdrawn)
}

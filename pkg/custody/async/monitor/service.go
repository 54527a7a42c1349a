package monitor

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody/async"
	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/custody/exchange"
	"github.com/code-payments/custody-server/pkg/custody/vesting"
	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/retry"
	"github.com/code-payments/custody-server/pkg/retry/backoff"
	presale_vault "github.com/code-payments/custody-server/pkg/solana/presale"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
)

const (
	vaultStatusEventName             = "VaultStatus"
	reserveStatusEventName           = "ReserveStatus"
	vaultBalanceMismatchEventName    = "VaultBalanceMismatch"
	treasuryBalanceMismatchEventName = "TreasuryBalanceMismatch"

	vaultCountMetricNameFormat   = "MonitorService%%Vaults%%%s"
	reserveCountMetricNameFormat = "MonitorService%%Reserves%%%s"
	scanDurationMetricName       = "MonitorService%ScanDuration"
)

// Report summarizes a single scan over all custody accounts
type Report struct {
	Vaults   map[presale_vault.VaultStatus]int
	Reserves map[vesting_reserve.ReserveStatus]int

	// Vaults whose holding balance disagrees with their flow counters
	VaultMismatches []string

	// Vesting accounts whose treasury holds less than their reserves are owed
	TreasuryMismatches []string
}

type service struct {
	log      *logrus.Entry
	conf     *conf
	store    account.Store
	exchange *exchange.Program
	vesting  *vesting.Program
}

// New returns a worker that periodically reports the state of every vault
// and reserve, and flags balances that don't reconcile
func New(store account.Store, exchangeProgram *exchange.Program, vestingProgram *vesting.Program, configProvider ConfigProvider) async.Service {
	return &service{
		log:      logrus.StandardLogger().WithField("service", "monitor"),
		conf:     configProvider(),
		store:    store,
		exchange: exchangeProgram,
		vesting:  vestingProgram,
	}
}

func (p *service) Start(serviceCtx context.Context, interval time.Duration) error {
	for {
		_, err := retry.Retry(
			func() error {
				p.log.Trace("scanning custody accounts")

				tracedCtx, m := async.StartTransaction(serviceCtx, "async__monitor_service")
				defer m.End()

				start := time.Now()
				_, err := p.Scan(tracedCtx)
				if err != nil {
					m.NoticeError(err)
					p.log.WithError(err).Warn("failed to scan custody accounts")
					return err
				}

				metrics.RecordDuration(tracedCtx, scanDurationMetricName, time.Since(start))
				return nil
			},
			retry.NonRetriableErrors(context.Canceled),
			retry.Context(serviceCtx),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), interval, 0.1),
		)
		if err != nil {
			if serviceCtx.Err() != nil {
				return serviceCtx.Err()
			}

			if err != context.Canceled {
				// Should not happen since only non-retriable error is context.Canceled
				p.log.WithError(err).Warn("unexpected error when scanning custody accounts")
			}

			return err
		}

		select {
		case <-serviceCtx.Done():
			return serviceCtx.Err()
		case <-time.After(interval):
		}
	}
}

// Scan visits every vault and reserve once
func (p *service) Scan(ctx context.Context) (*Report, error) {
	report := &Report{
		Vaults:   make(map[presale_vault.VaultStatus]int),
		Reserves: make(map[vesting_reserve.ReserveStatus]int),
	}

	err := p.forEachRecord(ctx, presale_vault.PROGRAM_ID, func(record *account.Record) error {
		if !bytes.HasPrefix(record.Data, presale_vault.VaultAccountDiscriminator) {
			return nil
		}
		return p.checkVault(ctx, record, report)
	})
	if err != nil {
		return nil, errors.Wrap(err, "error scanning vaults")
	}

	outstanding := make(map[string]uint64)
	var vestingAccounts []string
	err = p.forEachRecord(ctx, vesting_reserve.PROGRAM_ID, func(record *account.Record) error {
		switch {
		case bytes.HasPrefix(record.Data, vesting_reserve.VestingAccountDiscriminator):
			vestingAccounts = append(vestingAccounts, record.Address)
			return nil
		case bytes.HasPrefix(record.Data, vesting_reserve.ReserveAccountDiscriminator):
			return p.checkReserve(ctx, record, report, outstanding)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "error scanning reserves")
	}

	for _, address := range vestingAccounts {
		if err := p.checkTreasury(ctx, address, outstanding[address], report); err != nil {
			return nil, err
		}
	}

	for status, count := range report.Vaults {
		metrics.RecordCount(ctx, fmt.Sprintf(vaultCountMetricNameFormat, status.String()), uint64(count))
	}
	for status, count := range report.Reserves {
		metrics.RecordCount(ctx, fmt.Sprintf(reserveCountMetricNameFormat, status.String()), uint64(count))
	}

	return report, nil
}

func (p *service) forEachRecord(ctx context.Context, owner ed25519.PublicKey, fn func(record *account.Record) error) error {
	batchSize := p.conf.batchSize.Get(ctx)

	var cursor query.Cursor
	for {
		records, err := p.store.GetAllByOwner(ctx, base58.Encode(owner), cursor, batchSize, query.Ascending)
		if err == account.ErrAccountNotFound {
			return nil
		} else if err != nil {
			return err
		}

		for _, record := range records {
			if err := fn(record); err != nil {
				return err
			}
		}

		if uint64(len(records)) < batchSize {
			return nil
		}
		cursor = query.ToCursor(records[len(records)-1].Id)
	}
}

func (p *service) checkVault(ctx context.Context, record *account.Record, report *Report) error {
	log := p.log.WithFields(logrus.Fields{
		"method": "checkVault",
		"vault":  record.Address,
	})

	address, err := base58.Decode(record.Address)
	if err != nil {
		return errors.Wrap(err, "invalid vault address")
	}

	vault, err := p.exchange.GetVault(ctx, address)
	if err != nil {
		log.WithError(err).Warn("vault record could not be loaded")
		return nil
	}

	balance, err := p.exchange.GetVaultBalance(ctx, address)
	if err != nil {
		return errors.Wrapf(err, "error getting balance for vault %s", record.Address)
	}

	report.Vaults[vault.Status]++

	metrics.RecordEvent(ctx, vaultStatusEventName, map[string]interface{}{
		"vault":           record.Address,
		"mint":            base58.Encode(vault.TokenMint),
		"status":          vault.Status.String(),
		"balance":         balance,
		"price_per_token": vault.PricePerToken,
		"expiry":          vault.Expiry,
		"total_deposited": vault.TotalDeposited,
		"total_withdrawn": vault.TotalWithdrawn,
		"total_purchased": vault.TotalPurchased,
	})

	expected, ok := vault.ExpectedBalance()
	if !ok || expected != balance {
		report.VaultMismatches = append(report.VaultMismatches, record.Address)

		log.WithFields(logrus.Fields{
			"balance":  balance,
			"expected": expected,
		}).Error("vault balance does not reconcile with its counters")

		metrics.RecordEvent(ctx, vaultBalanceMismatchEventName, map[string]interface{}{
			"vault":    record.Address,
			"balance":  balance,
			"expected": expected,
		})
	}

	return nil
}

func (p *service) checkReserve(ctx context.Context, record *account.Record, report *Report, outstanding map[string]uint64) error {
	address, err := base58.Decode(record.Address)
	if err != nil {
		return errors.Wrap(err, "invalid reserve address")
	}

	reserve, err := p.vesting.GetReserve(ctx, address)
	if err != nil {
		p.log.WithError(err).WithField("reserve", record.Address).Warn("reserve record could not be loaded")
		return nil
	}

	report.Reserves[reserve.Status]++

	vestingAccount := base58.Encode(reserve.VestingAccount)
	outstanding[vestingAccount] += reserve.TotalAmount - reserve.AmountWithdrawn

	metrics.RecordEvent(ctx, reserveStatusEventName, map[string]interface{}{
		"reserve":          record.Address,
		"vesting_account":  vestingAccount,
		"beneficiary":      base58.Encode(reserve.Beneficiary),
		"status":           reserve.Status.String(),
		"total_amount":     reserve.TotalAmount,
		"amount_withdrawn": reserve.AmountWithdrawn,
		"end_time":         reserve.EndTime,
	})

	return nil
}

func (p *service) checkTreasury(ctx context.Context, vestingAccount string, outstanding uint64, report *Report) error {
	address, err := base58.Decode(vestingAccount)
	if err != nil {
		return errors.Wrap(err, "invalid vesting account address")
	}

	balance, err := p.vesting.GetTreasuryBalance(ctx, address)
	if err != nil {
		return errors.Wrapf(err, "error getting treasury balance for %s", vestingAccount)
	}

	if balance < outstanding {
		report.TreasuryMismatches = append(report.TreasuryMismatches, vestingAccount)

		p.log.WithFields(logrus.Fields{
			"method":          "checkTreasury",
			"vesting_account": vestingAccount,
			"balance":         balance,
			"outstanding":     outstanding,
		}).Error("treasury holds less than its reserves are owed")

		metrics.RecordEvent(ctx, treasuryBalanceMismatchEventName, map[string]interface{}{
			"vesting_account": vestingAccount,
			"balance":         balance,
			"outstanding":     outstanding,
		})
	}

	return nil
}

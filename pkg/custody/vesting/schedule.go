package vesting

import (
	"math/bits"
	"time"

	"github.com/code-payments/custody-server/pkg/custody"
	vesting_reserve "github.com/code-payments/custody-server/pkg/solana/vesting"
)

// schedule is a reserve's release plan in unix seconds. Nothing unlocks
// before start+cliff. Every full period after that unlocks monthly more
// tokens, capped at total.
type schedule struct {
	start  uint64
	cliff  uint64
	end    uint64
	period uint64

	total   uint64
	monthly uint64
}

func newSchedule(start, end time.Time, cliff, period time.Duration, total, monthly uint64) (*schedule, error) {
	if start.Unix() < 0 || end.Unix() < 0 || cliff < 0 || period < time.Second {
		return nil, custody.ErrInvalidSchedule
	}
	if total == 0 || monthly == 0 {
		return nil, custody.ErrInvalidSchedule
	}

	s := &schedule{
		start:   uint64(start.Unix()),
		cliff:   uint64(cliff / time.Second),
		end:     uint64(end.Unix()),
		period:  uint64(period / time.Second),
		total:   total,
		monthly: monthly,
	}

	cliffEnd, carry := bits.Add64(s.start, s.cliff, 0)
	if carry != 0 || cliffEnd > s.end {
		return nil, custody.ErrInvalidSchedule
	}

	return s, nil
}

func scheduleOf(reserve *vesting_reserve.ReserveAccount) *schedule {
	return &schedule{
		start:   reserve.StartTime,
		cliff:   reserve.CliffTime,
		end:     reserve.EndTime,
		period:  reserve.PeriodLength,
		total:   reserve.TotalAmount,
		monthly: reserve.MonthlyClaim,
	}
}

func (s *schedule) cliffEnd() uint64 {
	return s.start + s.cliff
}

// validate fails when the periods between the cliff and the end would release
// more than the total allocation
func (s *schedule) validate() error {
	periods := (s.end - s.cliffEnd()) / s.period

	hi, promised := bits.Mul64(periods, s.monthly)
	if hi != 0 || promised > s.total {
		return custody.ErrScheduleOverAllocated
	}
	return nil
}

// elapsedPeriods is the number of full periods completed since the cliff
func (s *schedule) elapsedPeriods(now uint64) (uint64, error) {
	if now < s.cliffEnd() {
		return 0, custody.ErrCliffPeriodNotEnded
	}
	return (now - s.cliffEnd()) / s.period, nil
}

// vested is the total amount unlocked at now
func (s *schedule) vested(now uint64) (uint64, error) {
	elapsed, err := s.elapsedPeriods(now)
	if err != nil {
		return 0, err
	}

	hi, entitled := bits.Mul64(elapsed, s.monthly)
	if hi != 0 || entitled > s.total {
		return s.total, nil
	}
	return entitled, nil
}

// nextUnlock is when the next period completes, or zero once everything has
// unlocked
func (s *schedule) nextUnlock(now uint64) uint64 {
	if now < s.cliffEnd() {
		return s.cliffEnd() + s.period
	}

	elapsed := (now - s.cliffEnd()) / s.period
	hi, entitled := bits.Mul64(elapsed, s.monthly)
	if hi != 0 || entitled >= s.total {
		return 0
	}
	return s.cliffEnd() + (elapsed+1)*s.period
}

func getStatus(reserve *vesting_reserve.ReserveAccount, now time.Time) vesting_reserve.ReserveStatus {
	switch {
	case reserve.AmountWithdrawn >= reserve.TotalAmount:
		return vesting_reserve.ReserveStatusComplete
	case unixSeconds(now) < reserve.CliffEnd():
		return vesting_reserve.ReserveStatusPreCliff
	default:
		return vesting_reserve.ReserveStatusVesting
	}
}

func unixSeconds(t time.Time) uint64 {
	if t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}

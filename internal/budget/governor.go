// Package budget enforces hard spending ceilings on the language model
// capability before any call is made.
package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/kv"
	"github.com/pantryops/restock/internal/model"
)

// Denial reasons surfaced to callers as data, not errors.
const (
	ReasonUserMonthly = "user_monthly_exceeded"
	ReasonSystemDaily = "system_daily_exceeded"
)

// Decision is the result of a pre-flight budget check.
type Decision struct {
	Reason  string
	Allowed bool
}

// Governor tracks model spend per user-month and system-day and denies
// calls that would exceed either ceiling. It fails open: if the usage store
// is unreachable the call is allowed and the failure logged, so the budget
// subsystem never becomes an availability bottleneck.
type Governor struct {
	store  *kv.Store
	logger *slog.Logger
	now    func() time.Time
	cfg    config.Budget
}

// New creates a governor over the given usage store.
func New(store *kv.Store, cfg config.Budget, logger *slog.Logger) *Governor {
	return &Governor{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func userKey(userID, period string) string {
	return fmt.Sprintf("usage/user/%s/%s", userID, period)
}

func systemKey(period string) string {
	return fmt.Sprintf("usage/system/%s", period)
}

// EstimateCost computes the cost of a call from token counts using the
// configured per-1000-token rates.
func (g *Governor) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000.0*g.cfg.InputRatePer1K +
		float64(outputTokens)/1000.0*g.cfg.OutputRatePer1K
}

// Check decides whether a call with the given estimated cost may proceed.
// The user-monthly ceiling is evaluated before the system-daily one, so a
// denial reason always identifies the first ceiling hit. A non-positive cap
// disables that ceiling.
func (g *Governor) Check(ctx context.Context, scope model.BudgetScope, estimatedCost float64) Decision {
	if err := ctx.Err(); err != nil {
		return Decision{Allowed: true}
	}

	now := g.now()

	if g.cfg.UserMonthlyCap > 0 {
		record, err := g.load(userKey(scope.UserID, model.MonthlyPeriod(now)))
		if err != nil {
			g.logger.Error("budget check failed to read user usage, failing open",
				"user_id", scope.UserID, "error", err)
			return Decision{Allowed: true}
		}
		if record.Cost+estimatedCost > g.cfg.UserMonthlyCap {
			return Decision{Allowed: false, Reason: ReasonUserMonthly}
		}
	}

	if g.cfg.SystemDailyCap > 0 {
		record, err := g.load(systemKey(model.DailyPeriod(now)))
		if err != nil {
			g.logger.Error("budget check failed to read system usage, failing open", "error", err)
			return Decision{Allowed: true}
		}
		if record.Cost+estimatedCost > g.cfg.SystemDailyCap {
			return Decision{Allowed: false, Reason: ReasonSystemDaily}
		}
	}

	return Decision{Allowed: true}
}

// RecordUsage increments both the user-monthly and system-daily records
// with actual token counts from a completed call. The two increments are
// independent read-modify-writes with no cross-record transaction; a lost
// update under concurrent writers under-counts by one call at most, which
// is accepted at household request rates.
func (g *Governor) RecordUsage(ctx context.Context, scope model.BudgetScope, inputTokens, outputTokens int, actualCost float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := g.now()

	var errs []error
	for _, target := range []struct {
		key    string
		period string
	}{
		{key: userKey(scope.UserID, model.MonthlyPeriod(now)), period: model.MonthlyPeriod(now)},
		{key: systemKey(model.DailyPeriod(now)), period: model.DailyPeriod(now)},
	} {
		err := g.store.Update(target.key, 0, func(old []byte) ([]byte, error) {
			record := model.UsageRecord{PeriodKey: target.period}
			if old != nil {
				if err := json.Unmarshal(old, &record); err != nil {
					return nil, err
				}
			}
			record.CallCount++
			record.InputTokens += int64(inputTokens)
			record.OutputTokens += int64(outputTokens)
			record.Cost += actualCost
			record.UpdatedAt = now.UTC()
			return json.Marshal(record)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("usage increment for %s: %w", target.key, err))
		}
	}

	return errors.Join(errs...)
}

// Usage returns the current-period records for a scope. Missing records are
// returned as zero aggregates.
func (g *Governor) Usage(ctx context.Context, scope model.BudgetScope) (user, system model.UsageRecord, err error) {
	if err = ctx.Err(); err != nil {
		return user, system, err
	}

	now := g.now()

	user, err = g.load(userKey(scope.UserID, model.MonthlyPeriod(now)))
	if err != nil {
		return user, system, err
	}
	user.PeriodKey = model.MonthlyPeriod(now)

	system, err = g.load(systemKey(model.DailyPeriod(now)))
	if err != nil {
		return user, system, err
	}
	system.PeriodKey = model.DailyPeriod(now)

	return user, system, nil
}

// load reads a usage record, mapping "not found" to a zero record.
func (g *Governor) load(key string) (model.UsageRecord, error) {
	raw, err := g.store.Get(key)
	if errors.Is(err, common.ErrNotFound) {
		return model.UsageRecord{}, nil
	}
	if err != nil {
		return model.UsageRecord{}, err
	}

	var record model.UsageRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return model.UsageRecord{}, fmt.Errorf("corrupt usage record %s: %w", key, err)
	}
	return record, nil
}

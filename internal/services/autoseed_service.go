package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
)

// SystemActor is the actor id recorded for entries created by scheduled jobs
const SystemActor uint = 0

const autoSeedLockTTL = 10 * time.Minute

// AutoSeedService creates the entries of the current cutoff for every category.
// When a lock client is configured only one replica seeds a given period.
type AutoSeedService struct {
	ledger *LedgerService
	locker *redislock.Client
	now    func() time.Time
}

func NewAutoSeedService(ledger *LedgerService, locker *redislock.Client) *AutoSeedService {
	return &AutoSeedService{
		ledger: ledger,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run seeds the cutoff period containing the current date
func (s *AutoSeedService) Run(ctx context.Context) error {
	period := models.PeriodFor(s.now())

	var errs []error
	for _, category := range models.Categories() {
		if err := s.seed(ctx, category, period); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", category, period, err))
		}
	}
	return errors.Join(errs...)
}

func (s *AutoSeedService) seed(ctx context.Context, category models.Category, period models.CutoffPeriod) error {
	if s.locker != nil {
		key := fmt.Sprintf("ledger:autoseed:%s:%s", category, period)
		lock, err := s.locker.Obtain(ctx, key, autoSeedLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Info("Auto seed already running elsewhere", "category", category, "period", period.String())
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn("Auto seed lock release failed", "key", key, "error", err)
			}
		}()
	}

	result, err := s.ledger.BulkCreate(ctx, category, period, SystemActor)
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d employees failed in batch %s", len(result.Failed), result.BatchID)
	}
	return nil
}

package services

import (
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sjperalta/payroll-ledger-api/internal/config"
	"github.com/sjperalta/payroll-ledger-api/internal/jobs"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Ledger   *LedgerService
	Export   *ExportService
	AutoSeed *AutoSeedService
	Job      *JobService
}

// NewServices creates all service instances. rdb may be nil when Redis is not configured.
func NewServices(repos *repository.Repositories, worker *jobs.Worker, rdb *redis.Client, cfg *config.Config) *Services {
	cache := NewStatusCache(rdb, time.Duration(cfg.StatusCacheTTLSeconds)*time.Second)

	var locker *redislock.Client
	if rdb != nil {
		locker = redislock.New(rdb)
	}

	ledgerSvc := NewLedgerService(repos.Ledger, repos.Template, repos.Employee, cache, BulkOptions{
		ChunkSize:   cfg.BulkChunkSize,
		Concurrency: cfg.BulkConcurrency,
	})
	autoSeedSvc := NewAutoSeedService(ledgerSvc, locker)

	return &Services{
		Ledger:   ledgerSvc,
		Export:   NewExportService(ledgerSvc),
		AutoSeed: autoSeedSvc,
		Job:      NewJobService(worker, autoSeedSvc),
	}
}

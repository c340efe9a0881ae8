package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sjperalta/payroll-ledger-api/internal/metrics"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// BulkFailure records one member that could not be processed
type BulkFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BulkCreateResult summarizes a bulk create
type BulkCreateResult struct {
	BatchID      string        `json:"batch_id"`
	CreatedCount int           `json:"created_count"`
	Skipped      int           `json:"skipped"`
	Failed       []BulkFailure `json:"failed"`
}

// BulkPostResult summarizes a bulk post or post-all
type BulkPostResult struct {
	BatchID      string        `json:"batch_id"`
	UpdatedCount int           `json:"updated_count"`
	Skipped      int           `json:"skipped"`
	Failed       []BulkFailure `json:"failed"`
}

// BulkSetDefaultResult summarizes a bulk set-default
type BulkSetDefaultResult struct {
	BatchID string        `json:"batch_id"`
	Count   int           `json:"count"`
	Skipped int           `json:"skipped"`
	Failed  []BulkFailure `json:"failed"`
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []uint, size int) [][]uint {
	var chunks [][]uint
	for size < len(ids) {
		ids, chunks = ids[size:], append(chunks, ids[:size:size])
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// BulkCreate creates an entry from the default template for every active employee that
// has none for the period. Employees that already have one are counted as skipped.
// Each member is its own transaction; a failing member is recorded and does not stop the rest.
func (s *LedgerService) BulkCreate(ctx context.Context, category models.Category, period models.CutoffPeriod, actor uint) (*BulkCreateResult, error) {
	pr, err := resolve(category, period)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := &BulkCreateResult{BatchID: uuid.NewString(), Failed: []BulkFailure{}}
	log := logger.With("batch_id", result.BatchID, "operation", "bulk_create", "category", category, "period", period.String())

	employeeIDs, err := s.employeeRepo.FindActiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	withEntry, err := s.ledgerRepo.EmployeeIDsWithEntry(ctx, category, period)
	if err != nil {
		return nil, err
	}
	templates, err := s.templateRepo.FindByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	existing := make(map[uint]struct{}, len(withEntry))
	for _, id := range withEntry {
		existing[id] = struct{}{}
	}

	var (
		mu      sync.Mutex
		created int
		skipped int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.bulk.Concurrency)

	for _, employeeID := range employeeIDs {
		if _, ok := existing[employeeID]; ok {
			mu.Lock()
			skipped++
			mu.Unlock()
			continue
		}
		if ctx.Err() != nil {
			break
		}

		employeeID := employeeID
		g.Go(func() error {
			_, ok, err := s.createMember(ctx, employeeID, category, pr, templates[employeeID], actor)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Warn("Bulk create member failed", "employee_id", employeeID, "error", err)
				result.Failed = append(result.Failed, BulkFailure{ID: employeeID, Reason: err.Error()})
			case ok:
				created++
			default:
				skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	result.CreatedCount = created
	result.Skipped = skipped
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].ID < result.Failed[j].ID })

	if created > 0 {
		s.cache.Invalidate(ctx, category, period)
	}
	metrics.ObserveBulk(string(category), "bulk_create", created, skipped, len(result.Failed), started)
	log.Info("Bulk create finished", "created", created, "skipped", skipped, "failed", len(result.Failed), "duration", time.Since(started))

	return result, ctx.Err()
}

// BulkPost posts every listed entry of the category. Posted and missing entries are skipped.
func (s *LedgerService) BulkPost(ctx context.Context, category models.Category, ids []uint, actor uint) (*BulkPostResult, error) {
	if !category.Valid() {
		return nil, validationError("unknown category %q", category)
	}
	result, err := s.postIDs(ctx, category, "bulk_post", uniqueIDs(ids), actor)
	if result != nil && result.UpdatedCount > 0 {
		s.cache.InvalidateCategory(ctx, category)
	}
	return result, err
}

// PostAll posts every pending entry of the period
func (s *LedgerService) PostAll(ctx context.Context, category models.Category, period models.CutoffPeriod, actor uint) (*BulkPostResult, error) {
	if _, err := resolve(category, period); err != nil {
		return nil, err
	}
	ids, err := s.ledgerRepo.PendingIDs(ctx, category, period)
	if err != nil {
		return nil, err
	}
	result, err := s.postIDs(ctx, category, "post_all", ids, actor)
	if result != nil && result.UpdatedCount > 0 {
		s.cache.Invalidate(ctx, category, period)
	}
	return result, err
}

// postIDs posts ids chunk by chunk with one guarded UPDATE per chunk. When a chunk
// fails the chunk is retried one entry at a time so a single bad member is isolated.
func (s *LedgerService) postIDs(ctx context.Context, category models.Category, operation string, ids []uint, actor uint) (*BulkPostResult, error) {
	started := time.Now()
	result := &BulkPostResult{BatchID: uuid.NewString(), Failed: []BulkFailure{}}
	log := logger.With("batch_id", result.BatchID, "operation", operation, "category", category)

	for _, chunk := range chunkIDs(ids, s.bulk.ChunkSize) {
		if err := ctx.Err(); err != nil {
			result.Skipped = len(ids) - result.UpdatedCount - len(result.Failed)
			return result, err
		}

		n, err := s.ledgerRepo.PostMany(ctx, category, chunk, actor)
		if err == nil {
			result.UpdatedCount += int(n)
			continue
		}

		log.Warn("Bulk post chunk failed, posting entries individually", "size", len(chunk), "error", err)
		for _, id := range chunk {
			n, err := s.ledgerRepo.PostMany(ctx, category, []uint{id}, actor)
			switch {
			case err != nil:
				result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: err.Error()})
			case n == 1:
				result.UpdatedCount++
			}
		}
	}

	result.Skipped = len(ids) - result.UpdatedCount - len(result.Failed)
	metrics.ObserveBulk(string(category), operation, result.UpdatedCount, result.Skipped, len(result.Failed), started)
	log.Info("Bulk post finished", "updated", result.UpdatedCount, "skipped", result.Skipped, "failed", len(result.Failed), "duration", time.Since(started))
	return result, nil
}

// BulkSetDefault promotes each listed entry into its employee's default template.
// Entries are processed in the given order so the last entry of an employee wins.
// Missing and posted entries are skipped.
func (s *LedgerService) BulkSetDefault(ctx context.Context, category models.Category, ids []uint, actor uint) (*BulkSetDefaultResult, error) {
	if !category.Valid() {
		return nil, validationError("unknown category %q", category)
	}

	started := time.Now()
	ids = uniqueIDs(ids)
	result := &BulkSetDefaultResult{BatchID: uuid.NewString(), Failed: []BulkFailure{}}
	log := logger.With("batch_id", result.BatchID, "operation", "bulk_set_default", "category", category)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, _, err := s.templateRepo.UpsertFromEntry(ctx, category, id, actor)
		switch {
		case err == nil:
			result.Count++
		case repository.IsNotFound(err), errors.Is(err, repository.ErrEntryLocked):
			result.Skipped++
		default:
			log.Warn("Bulk set default member failed", "entry_id", id, "error", err)
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: err.Error()})
		}
	}

	metrics.ObserveBulk(string(category), "bulk_set_default", result.Count, result.Skipped, len(result.Failed), started)
	log.Info("Bulk set default finished", "count", result.Count, "skipped", result.Skipped, "failed", len(result.Failed), "duration", time.Since(started))
	return result, nil
}

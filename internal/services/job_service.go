package services

import (
	"github.com/sjperalta/payroll-ledger-api/internal/jobs"
)

// Job names
const JobAutoSeed = "auto_seed"

type JobService struct {
	worker   *jobs.Worker
	autoSeed *AutoSeedService
}

func NewJobService(worker *jobs.Worker, autoSeed *AutoSeedService) *JobService {
	return &JobService{
		worker:   worker,
		autoSeed: autoSeed,
	}
}

func (s *JobService) GetStatus() jobs.WorkerStats {
	return s.worker.GetStats()
}

// ScheduleAutoSeed registers the cutoff-start seeding job
func (s *JobService) ScheduleAutoSeed(spec string) error {
	return s.worker.ScheduleCron(spec, JobAutoSeed, s.autoSeed.Run)
}

// TriggerAutoSeed queues an immediate seeding run
func (s *JobService) TriggerAutoSeed() {
	s.worker.Enqueue(JobAutoSeed, s.autoSeed.Run)
}

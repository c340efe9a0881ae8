package handlers

import (
	"github.com/sjperalta/payroll-ledger-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health *HealthHandler
	Ledger *LedgerHandler
	Job    *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(),
		Ledger: NewLedgerHandler(svcs.Ledger, svcs.Export),
		Job:    NewJobHandler(svcs.Job),
	}
}

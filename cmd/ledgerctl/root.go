package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sjperalta/payroll-ledger-api/internal/config"
	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/jobs"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Payroll ledger maintenance",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// app is the wiring shared by every subcommand
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	repos  *repository.Repositories
	svcs   *services.Services
	worker *jobs.Worker
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Environment)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	repos := repository.NewRepositories(db)
	worker := jobs.NewWorker(1)
	return &app{
		cfg:    cfg,
		db:     db,
		repos:  repos,
		svcs:   services.NewServices(repos, worker, nil, cfg),
		worker: worker,
	}, nil
}

func (a *app) Close() {
	a.worker.Shutdown()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// addPeriodFlags registers --category, --year, --month and --cutoff
func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", string(models.CategoryBenefit), "benefit or deduction")
	cmd.Flags().Int("year", 0, "period year")
	cmd.Flags().Int("month", 0, "period month (1-12)")
	cmd.Flags().String("cutoff", "", "first or second")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("cutoff")
}

func periodFlags(cmd *cobra.Command) (models.Category, models.CutoffPeriod, error) {
	rawCategory, _ := cmd.Flags().GetString("category")
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	cutoff, _ := cmd.Flags().GetString("cutoff")

	category, err := models.ParseCategory(rawCategory)
	if err != nil {
		return "", models.CutoffPeriod{}, err
	}
	pr, err := models.ResolvePeriod(year, month, cutoff)
	if err != nil {
		return "", models.CutoffPeriod{}, err
	}
	return category, pr.CutoffPeriod, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

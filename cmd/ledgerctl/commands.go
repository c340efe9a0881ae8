package main

import (
	"fmt"
	"time"

	"github.com/sjperalta/payroll-ledger-api/internal/config"
	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/middleware"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
	"github.com/spf13/cobra"
)

var departments = []string{"Finance", "Operations", "Sales", "Engineering", "People"}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, bulkCreateCmd, postAllCmd, statusCmd, tokenCmd)

	seedCmd.Flags().Int("count", 25, "number of sample employees")

	addPeriodFlags(bulkCreateCmd)
	addPeriodFlags(postAllCmd)
	addPeriodFlags(statusCmd)

	tokenCmd.Flags().Uint("user-id", 1, "user id placed in the token")
	tokenCmd.Flags().String("email", "admin@example.com", "email placed in the token")
	tokenCmd.Flags().String("role", middleware.RoleAdmin, "admin, payroll or viewer")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := database.Migrate(a.db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample employees for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := database.Migrate(a.db); err != nil {
			return err
		}

		created := 0
		for i := 1; i <= count; i++ {
			employee := models.Employee{
				EmployeeNo: fmt.Sprintf("EMP-%04d", i),
				FullName:   fmt.Sprintf("Sample Employee %d", i),
				Department: departments[i%len(departments)],
				Active:     true,
			}
			inserted, err := a.repos.Employee.FindOrCreateByNumber(cmd.Context(), &employee)
			if err != nil {
				return err
			}
			if inserted {
				created++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d employees created, %d already present\n", created, count-created)
		return nil
	},
}

var bulkCreateCmd = &cobra.Command{
	Use:   "bulk-create",
	Short: "Create entries from default templates for every active employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.svcs.Ledger.BulkCreate(cmd.Context(), category, period, services.SystemActor)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var postAllCmd = &cobra.Command{
	Use:   "post-all",
	Short: "Post every pending entry of the period",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.svcs.Ledger.PostAll(cmd.Context(), category, period, services.SystemActor)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print entry counts for the period",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, period, err := periodFlags(cmd)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.svcs.Ledger.StatusCounts(cmd.Context(), category, period)
		if err != nil {
			return err
		}
		return printJSON(counts)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed API token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		switch role {
		case middleware.RoleAdmin, middleware.RolePayroll, middleware.RoleViewer:
		default:
			return fmt.Errorf("unknown role %q", role)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		token, err := middleware.IssueToken(cfg.JWTSecret, userID, email, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

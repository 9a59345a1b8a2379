package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/database"
)

// migrateCmd applies the embedded schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded SQL migrations that have not run yet.

Example:
  go run ./cmd/strategy migrate`,
	RunE: runMigrate,
}

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Connect with DATABASE_URL, ping, and print pool statistics.

Example:
  go run ./cmd/strategy test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(testDBCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(cmd.Context())
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Println("No migrations embedded")
		return nil
	}
	for _, name := range applied {
		fmt.Printf("✅ Applied %s\n", name)
	}
	return nil
}

func runTestDB(cmd *cobra.Command, args []string) error {
	printHeader("Database Connection Test")

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Schema Ready: %v\n", status.SchemaReady)
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)

	if !status.SchemaReady {
		fmt.Println("\n⚠️  Schema not found, run: strategy db migrate")
		return nil
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}

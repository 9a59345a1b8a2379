package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/contentpulse/internal/api"
	"github.com/wonny/contentpulse/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP trigger API",
	Long: `Start the authenticated HTTP API.

Every /api route requires the cron or admin secret as
"Authorization: Bearer <secret>", X-Cron-Secret or X-Admin-Secret.
With --with-scheduler the cron jobs run in the same process and their
results are streamed on /ws/jobs.

Example:
  go run ./cmd/strategy api
  go run ./cmd/strategy api --port 9090 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API port (default PORT env)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "run cron jobs in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	printHeader("Content Strategy API Server")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	hub := api.NewHub(a.log)

	h := api.Handlers{
		Strategy:    handlers.NewStrategyHandler(a.configs, a.log),
		Performance: handlers.NewPerformanceHandler(a.scorer, hub, a.log),
		Opportunity: handlers.NewOpportunityHandler(a.calc, hub, a.log),
		Experiment:  handlers.NewExperimentHandler(a.engine, a.log),
		Publish:     handlers.NewPublishHandler(a.publisher, hub, a.log),
		Report:      handlers.NewReportHandler(a.reporter, hub, a.log),
	}
	router := api.NewRouter(h, hub, a.cfg.Auth, a.health, a.log)
	server := api.New(a.cfg, a.log, router)

	if withScheduler {
		sched, err := a.newScheduler()
		if err != nil {
			return err
		}
		sched.OnResult(hub.NotifyJob)
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}

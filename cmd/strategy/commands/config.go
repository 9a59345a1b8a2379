package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/contentpulse/internal/contracts"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the strategy config",
}

var (
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the current strategy config",
		RunE:  showConfig,
	}

	configSetCmd = &cobra.Command{
		Use:   "set [json|@file]",
		Short: "Apply a partial update as a new version",
		Long: `Apply a partial strategy config update. Omitted sections keep their
current values; the result is stored as the next version.

Example:
  go run ./cmd/strategy config set '{"weights":{"engagement":0.5,"seo":0.3,"monetization":0.2}}'
  go run ./cmd/strategy config set @update.json`,
		Args: cobra.ExactArgs(1),
		RunE: setConfig,
	}

	configHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "List config versions, newest first",
		RunE:  configHistory,
	}

	historyLimit int
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configHistoryCmd)

	configHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of versions")
}

func showConfig(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.configs.GetCurrentConfig(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cfg)
}

func setConfig(cmd *cobra.Command, args []string) error {
	raw := []byte(args[0])
	if len(args[0]) > 1 && args[0][0] == '@' {
		data, err := os.ReadFile(args[0][1:])
		if err != nil {
			return fmt.Errorf("read update file: %w", err)
		}
		raw = data
	}

	var update contracts.StrategyConfigUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return fmt.Errorf("parse update: %w", err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.configs.UpdateConfig(cmd.Context(), update)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Strategy config v%d stored\n", cfg.Version)
	return printJSON(cfg)
}

func configHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.configs.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	for _, c := range list {
		fmt.Printf("v%-4d %s  weights=%.2f/%.2f/%.2f\n", c.Version, c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.Weights.Engagement, c.Weights.SEO, c.Weights.Monetization)
	}
	return nil
}

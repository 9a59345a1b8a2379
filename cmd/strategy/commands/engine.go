package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// One-shot batch commands. Each mirrors a POST trigger of the API.

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rescore published posts",
	Long: `Recompute engagement, SEO, monetization and success scores.

Example:
  go run ./cmd/strategy score
  go run ./cmd/strategy score --post 3f2a...`,
	RunE: runScore,
}

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "Recompute keyword opportunities",
	Long: `Fetch trend, SERP and community signals and rescore keywords.
Without --keyword every tracked keyword is refreshed.

Example:
  go run ./cmd/strategy opportunities
  go run ./cmd/strategy opportunities --keyword "retinol serum" --top 5`,
	RunE: runOpportunities,
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish scheduled posts that are due",
	RunE:  runPublish,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate or show the weekly strategy report",
	Long: `Generate this week's strategy report.

Example:
  go run ./cmd/strategy report
  go run ./cmd/strategy report --persist=false
  go run ./cmd/strategy report --latest
  go run ./cmd/strategy report --week 2026-10-12`,
	RunE: runReport,
}

var (
	scorePostID   string
	oppKeywords   []string
	oppTop        int
	oppMinScore   float64
	publishLimit  int
	reportPersist bool
	reportCompare bool
	reportLatest  bool
	reportWeek    string
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(opportunitiesCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(reportCmd)

	scoreCmd.Flags().StringVar(&scorePostID, "post", "", "score a single post")

	opportunitiesCmd.Flags().StringSliceVar(&oppKeywords, "keyword", nil, "keyword(s) to refresh")
	opportunitiesCmd.Flags().IntVar(&oppTop, "top", 10, "print the top N pending opportunities afterwards (0 = skip)")
	opportunitiesCmd.Flags().Float64Var(&oppMinScore, "min-score", 0, "minimum composite score for --top")

	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "max posts to publish (default PUBLISH_BATCH_LIMIT)")

	reportCmd.Flags().BoolVar(&reportPersist, "persist", true, "store the report")
	reportCmd.Flags().BoolVar(&reportCompare, "compare", true, "compare with the previous report")
	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "show the latest stored report instead")
	reportCmd.Flags().StringVar(&reportWeek, "week", "", "show the stored report for the week containing YYYY-MM-DD")
}

func runScore(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if scorePostID != "" {
		perf, err := a.scorer.CalculatePost(cmd.Context(), scorePostID)
		if err != nil {
			return err
		}
		return printJSON(perf)
	}

	printHeader("Performance Scoring")
	result, err := a.scorer.CalculateAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Scored %d post(s) with config v%d\n", result.Processed, result.ConfigVersion)
	printBatchErrors(result.Errors)
	printCompletion(start)
	return nil
}

func runOpportunities(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("Opportunity Refresh")
	result, err := a.calc.CalculateOpportunities(cmd.Context(), oppKeywords)
	if err != nil {
		return err
	}
	fmt.Printf("Scored %d keyword(s), skipped %d without signals\n", result.Scored, result.Skipped)
	printBatchErrors(result.Errors)

	if oppTop > 0 {
		top, err := a.calc.GetTopOpportunities(cmd.Context(), oppTop, oppMinScore)
		if err != nil {
			return err
		}
		fmt.Println()
		for i, o := range top {
			fmt.Printf("%2d. %-40s %6.2f\n", i+1, o.Keyword, o.CompositeScore)
		}
	}

	printCompletion(start)
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("Publish Due Posts")
	result, err := a.publisher.PublishDueScheduledPosts(cmd.Context(), publishLimit)
	if err != nil {
		return err
	}
	fmt.Printf("Published %d post(s), skipped %d\n", result.Published, result.Skipped)
	printBatchErrors(result.Errors)
	printCompletion(start)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case reportLatest:
		rep, err := a.reporter.GetLatestReport(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(rep)
	case reportWeek != "":
		rep, err := a.reporter.GetReport(cmd.Context(), reportWeek)
		if err != nil {
			return err
		}
		return printJSON(rep)
	}

	rep, err := a.reporter.Generate(cmd.Context(), reportPersist, reportCompare)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

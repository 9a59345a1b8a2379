package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const rule = "═══════════════════════════════════════════════════════════"

// printHeader prints a formatted command header
func printHeader(title string) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("  %s\n", title)
	fmt.Println(rule)
}

// printJSON pretty-prints any value as JSON on stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBatchErrors lists per-item errors of a partial batch
func printBatchErrors(errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("⚠️  %d item(s) failed:\n", len(errs))
	for _, e := range errs {
		fmt.Printf("   - %s\n", e)
	}
}

// printCompletion prints the completion line with elapsed time
func printCompletion(start time.Time) {
	fmt.Printf("\n✅ Completed in %.2fs\n", time.Since(start).Seconds())
}

// maskPassword hides the password of a postgres URL for display
func maskPassword(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 {
		return url
	}
	creds := url[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return url
	}
	return url[:scheme+3] + creds[:colon] + ":***" + url[at:]
}

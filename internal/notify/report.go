package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ywkim/kindwatch/internal/types"
)

// ReportMatches prints a run summary of notified filings to the console.
func ReportMatches(matches []types.Match, seenFilePath string) {
	if len(matches) == 0 {
		fmt.Println("\n-------------------------------------------")
		fmt.Println("No new open-market purchase filings found.")
		fmt.Println("-------------------------------------------")
		return
	}

	fmt.Println("\n===========================================")
	fmt.Printf("✅ %d PURCHASE FILINGS FOUND\n", len(matches))
	fmt.Println("===========================================")

	for i, m := range matches {
		status := "confirmed"
		if !m.Confirmed {
			status = "needs review"
		}

		consoleOutput := fmt.Sprintf("\n--- MATCH #%d ---\n", i+1) +
			fmt.Sprintf("Issuer:   %s (%s)\n", m.Issuer, m.IssuerCode) +
			fmt.Sprintf("Title:    %s\n", m.Title) +
			fmt.Sprintf("Filing:   %s\n", m.ID) +
			fmt.Sprintf("Date:     %s\n", m.SubmittedAt.Format("2006-01-02")) +
			fmt.Sprintf("Status:   %s\n", status) +
			fmt.Sprintf("Reporter: %s (%s)\n", m.Details.Reporter, m.Details.Position) +
			fmt.Sprintf("Shares:   %s\n", m.Details.Shares) +
			fmt.Sprintf("Amount:   %s\n", m.Details.Amount) +
			fmt.Sprintf("Evidence: %s\n", strings.Join(m.MatchedTerms, ", "))

		fmt.Print(consoleOutput)
	}

	fmt.Println("\n===========================================")
	fmt.Printf("Run complete. Seen filings saved to %s.\n", seenFilePath)
	fmt.Println("===========================================")
}

// SaveResults writes the run's matches as a timestamped JSON file under dir.
// Skipped silently when dir is empty.
func SaveResults(dir string, matches []types.Match, now time.Time) (string, error) {
	if dir == "" || len(matches) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	filename := fmt.Sprintf("executive_purchases_%s.json", now.Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results file %s: %w", path, err)
	}

	return path, nil
}

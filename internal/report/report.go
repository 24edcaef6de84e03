package report

import (
	"encoding/json"
	"os"

	"example.com/flightlog/internal/reconcile"
)

func SaveSummaryJSON(sum reconcile.Summary, out string) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadSummaryJSON(path string) (reconcile.Summary, error) {
	var sum reconcile.Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return sum, err
	}
	err = json.Unmarshal(b, &sum)
	return sum, err
}

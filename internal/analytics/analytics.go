package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"llama-chatter/internal/storage"
)

// DailyStats summarises one day of recorded exchanges.
type DailyStats struct {
	Date             string                  `json:"date"`
	TotalExchanges   int                     `json:"total_exchanges"`
	Continues        int                     `json:"continues"`
	Incomplete       int                     `json:"incomplete"`
	UniqueSessions   int                     `json:"unique_sessions"`
	ErrorsByKind     map[string]int          `json:"errors_by_kind"`
	CompletionTokens int                     `json:"completion_tokens"`
	Surfaces         map[string]SurfaceStats `json:"surfaces"`

	// SkippedLines counts unreadable log lines; it is set by the caller.
	SkippedLines int `json:"skipped_lines,omitempty"`
}

type SurfaceStats struct {
	Exchanges int `json:"exchanges"`
	Errors    int `json:"errors"`
}

// AnalyzeDailyLogs aggregates events whose timestamp falls on targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		ErrorsByKind: make(map[string]int),
		Surfaces:     make(map[string]SurfaceStats),
	}
	sessions := make(map[string]bool)

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		stats.TotalExchanges++
		sessions[ev.Session] = true
		if ev.Action == "continue" {
			stats.Continues++
		}
		stats.CompletionTokens += ev.CompletionTokens

		ss := stats.Surfaces[ev.Surface]
		ss.Exchanges++
		if ev.Error != "" {
			stats.ErrorsByKind[ev.Error]++
			ss.Errors++
		} else if !ev.Complete {
			stats.Incomplete++
		}
		stats.Surfaces[ev.Surface] = ss
	}

	stats.UniqueSessions = len(sessions)
	return stats
}

// Summary renders the stats as plain text.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat activity for %s:\n", ds.Date)
	fmt.Fprintf(&b, "- exchanges: %d (continues: %d)\n", ds.TotalExchanges, ds.Continues)
	fmt.Fprintf(&b, "- sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- incomplete replies: %d\n", ds.Incomplete)
	fmt.Fprintf(&b, "- completion tokens: %d\n", ds.CompletionTokens)
	if ds.SkippedLines > 0 {
		fmt.Fprintf(&b, "- unreadable log lines: %d\n", ds.SkippedLines)
	}

	if len(ds.ErrorsByKind) > 0 {
		b.WriteString("Errors:\n")
		for _, kind := range sortedKeys(ds.ErrorsByKind) {
			fmt.Fprintf(&b, "- %s: %d\n", kind, ds.ErrorsByKind[kind])
		}
	}
	if len(ds.Surfaces) > 0 {
		b.WriteString("Surfaces:\n")
		names := make([]string, 0, len(ds.Surfaces))
		for name := range ds.Surfaces {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := ds.Surfaces[name]
			fmt.Fprintf(&b, "- %s: %d exchanges, %d errors\n", name, s.Exchanges, s.Errors)
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package analytics

import (
	"strings"
	"testing"
	"time"

	"llama-chatter/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: day.Add(2 * time.Hour), Session: "web:a", Surface: "web", Action: "send", Complete: true, CompletionTokens: 10},
		{Timestamp: day.Add(3 * time.Hour), Session: "web:a", Surface: "web", Action: "send", Complete: false, CompletionTokens: 20},
		{Timestamp: day.Add(4 * time.Hour), Session: "web:a", Surface: "web", Action: "continue", Complete: true, CompletionTokens: 5},
		{Timestamp: day.Add(5 * time.Hour), Session: "tg:1", Surface: "telegram", Action: "send", Complete: true, Error: "auth"},
		// next day, must be ignored
		{Timestamp: day.AddDate(0, 0, 1), Session: "web:b", Surface: "web", Action: "send", Complete: true},
	}

	stats := AnalyzeDailyLogs(events, day.Add(12*time.Hour))

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalExchanges != 4 || stats.Continues != 1 {
		t.Errorf("exchanges=%d continues=%d", stats.TotalExchanges, stats.Continues)
	}
	if stats.UniqueSessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", stats.UniqueSessions)
	}
	if stats.Incomplete != 1 {
		t.Errorf("Expected 1 incomplete reply, got %d", stats.Incomplete)
	}
	if stats.ErrorsByKind["auth"] != 1 {
		t.Errorf("Expected 1 auth error, got %v", stats.ErrorsByKind)
	}
	if stats.CompletionTokens != 35 {
		t.Errorf("Expected 35 completion tokens, got %d", stats.CompletionTokens)
	}
	if web := stats.Surfaces["web"]; web.Exchanges != 3 || web.Errors != 0 {
		t.Errorf("unexpected web stats: %+v", web)
	}
	if tg := stats.Surfaces["telegram"]; tg.Exchanges != 1 || tg.Errors != 1 {
		t.Errorf("unexpected telegram stats: %+v", tg)
	}
}

func TestSummaryAndJSON(t *testing.T) {
	stats := AnalyzeDailyLogs([]storage.Event{
		{Timestamp: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), Session: "repl", Surface: "repl", Error: "transport"},
	}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	s := stats.Summary()
	for _, want := range []string{"2024-02-01", "exchanges: 1", "transport: 1", "repl: 1 exchanges, 1 errors"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	js, err := stats.ToJSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(js, `"total_exchanges": 1`) {
		t.Errorf("unexpected json: %s", js)
	}
}

func TestAnalyzeDailyLogs_Empty(t *testing.T) {
	stats := AnalyzeDailyLogs(nil, time.Now())
	if stats.TotalExchanges != 0 || stats.UniqueSessions != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestSummary_ReportsSkippedLines(t *testing.T) {
	stats := AnalyzeDailyLogs(nil, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if strings.Contains(stats.Summary(), "unreadable") {
		t.Error("clean log must not mention unreadable lines")
	}
	stats.SkippedLines = 3
	if s := stats.Summary(); !strings.Contains(s, "unreadable log lines: 3") {
		t.Errorf("summary missing skipped lines:\n%s", s)
	}
}

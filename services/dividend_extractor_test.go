package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/finwatch/dividend-backend/shared"
)

// buildHistoryDocument wraps the given table rows in the history-page table
// structure the extractor expects.
func buildHistoryDocument(t *testing.T, bodyRows string) *goquery.Document {
	t.Helper()

	html := `<html><body>
		<table class="yf-1jecxey noDl hideOnPrint">
			<thead><tr><th>Date</th><th>Event</th></tr></thead>
			<tbody>` + bodyRows + `</tbody>
		</table>
	</body></html>`

	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to build test document: %v", err)
	}
	return document
}

func TestExtractDividendHistoryParsesDividendRows(t *testing.T) {
	extractor := NewDividendExtractor()

	document := buildHistoryDocument(t, `
		<tr><td>Dec 15, 2023</td><td>0.24 Dividend</td></tr>
		<tr><td>Sep 15, 2023</td><td>0.24 Dividend</td></tr>
	`)

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 dividend events, got %d", len(events))
	}

	expectedDate := time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)
	if !events[0].Date.Equal(expectedDate) {
		t.Errorf("Expected first event date %v, got %v", expectedDate, events[0].Date)
	}
	if events[0].Amount != "0.24" {
		t.Errorf("Expected first event amount %q, got %q", "0.24", events[0].Amount)
	}

	expectedDate = time.Date(2023, time.September, 15, 0, 0, 0, 0, time.UTC)
	if !events[1].Date.Equal(expectedDate) {
		t.Errorf("Expected second event date %v, got %v", expectedDate, events[1].Date)
	}
}

func TestExtractDividendHistoryJoinsCellTexts(t *testing.T) {
	extractor := NewDividendExtractor()

	// Raw node text of adjacent cells runs together without a separator, and
	// real pages nest markup and stray whitespace inside cells; the row must
	// still tokenize as month, day, year, amount, marker
	document := buildHistoryDocument(t, `
		<tr><td>
			Dec 15, 2023
		</td><td><span>0.24</span> Dividend</td></tr>
	`)

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 dividend event, got %d", len(events))
	}

	expectedDate := time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)
	if !events[0].Date.Equal(expectedDate) {
		t.Errorf("Expected date %v, got %v", expectedDate, events[0].Date)
	}
	if events[0].Amount != "0.24" {
		t.Errorf("Expected amount %q, got %q", "0.24", events[0].Amount)
	}
}

func TestExtractDividendHistorySkipsNonDividendRows(t *testing.T) {
	extractor := NewDividendExtractor()

	document := buildHistoryDocument(t, `
		<tr><td>Jun 10, 2024</td><td>4:1 Stock Split</td></tr>
		<tr><td>Mar 8, 2024</td><td>0.25 Dividend</td></tr>
		<tr><td>Jan 2, 2024</td><td>185.64 Close price</td></tr>
	`)

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("Expected only the dividend row to survive, got %d events", len(events))
	}
	if events[0].Amount != "0.25" {
		t.Errorf("Expected amount %q, got %q", "0.25", events[0].Amount)
	}
	if events[0].Date.Day() != 8 || events[0].Date.Month() != time.March {
		t.Errorf("Expected date Mar 8, got %v", events[0].Date)
	}
}

func TestExtractDividendHistoryMissingTableReturnsEmpty(t *testing.T) {
	extractor := NewDividendExtractor()

	html := `<html><body><p>No dividend history for this company</p></body></html>`
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to build test document: %v", err)
	}

	events, err := extractor.ExtractDividendHistory(document, "Growth Corp")
	if err != nil {
		t.Fatalf("Missing table should not be an error, got: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected empty result for missing table, got %d events", len(events))
	}
	if events == nil {
		t.Error("Expected empty slice, not nil")
	}
}

func TestExtractDividendHistoryMalformedTableReturnsEmpty(t *testing.T) {
	extractor := NewDividendExtractor()

	// Table exists but has no header/body split
	html := `<html><body><table class="yf-1jecxey noDl hideOnPrint"><tbody></tbody></table></body></html>`
	document, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to build test document: %v", err)
	}

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err != nil {
		t.Fatalf("Malformed table should not be an error, got: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected empty result for malformed table, got %d events", len(events))
	}
}

func TestExtractDividendHistoryUnknownMonthIsFatal(t *testing.T) {
	extractor := NewDividendExtractor()

	document := buildHistoryDocument(t, `
		<tr><td>Mar 8, 2024</td><td>0.25 Dividend</td></tr>
		<tr><td>Foo 15, 2023</td><td>0.24 Dividend</td></tr>
	`)

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err == nil {
		t.Fatal("Expected extraction to fail on unknown month token")
	}
	if !shared.IsUnexpectedMonth(err) {
		t.Errorf("Expected UnexpectedMonthError, got %T: %v", err, err)
	}
	if events != nil {
		t.Errorf("Expected nil events on fatal error, got %d", len(events))
	}
}

func TestExtractDividendHistoryMalformedDayIsFatal(t *testing.T) {
	extractor := NewDividendExtractor()

	document := buildHistoryDocument(t, `
		<tr><td>Dec xx, 2023</td><td>0.24 Dividend</td></tr>
	`)

	_, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err == nil {
		t.Fatal("Expected extraction to fail on unparseable day token")
	}
	var malformed *shared.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedRowError, got %T: %v", err, err)
	}
}

func TestExtractDividendHistoryImpossibleDateIsFatal(t *testing.T) {
	extractor := NewDividendExtractor()

	// Feb 30 would silently normalize to Mar 2; it must abort instead
	document := buildHistoryDocument(t, `
		<tr><td>Feb 30, 2023</td><td>0.24 Dividend</td></tr>
	`)

	_, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err == nil {
		t.Fatal("Expected extraction to fail on an impossible calendar date")
	}
	var malformed *shared.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedRowError, got %T: %v", err, err)
	}
}

func TestExtractDividendHistorySkipsShortRows(t *testing.T) {
	extractor := NewDividendExtractor()

	document := buildHistoryDocument(t, `
		<tr><td>Dividend</td></tr>
		<tr><td>Dec 15, 2023</td><td>0.24 Dividend</td></tr>
	`)

	events, err := extractor.ExtractDividendHistory(document, "Test Corp")
	if err != nil {
		t.Fatalf("Short rows should be skipped, not fatal: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event after skipping the short row, got %d", len(events))
	}
}

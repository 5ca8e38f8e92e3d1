package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/sirupsen/logrus"
)

// dividendTableSelector locates the unique dividend-history table on the
// history page. If the upstream layout drops this class set the extractor
// degrades to an empty result rather than corrupting data.
const dividendTableSelector = "table.yf-1jecxey.noDl.hideOnPrint"

// dividendRowMarker ends the text of every dividend row. History tables mix
// split and other corporate-action rows into the same structure; only rows
// carrying this marker are dividend lines.
const dividendRowMarker = "Dividend"

// monthNumbers resolves the upstream three-letter month abbreviation to 1-12.
var monthNumbers = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4,
	"May": 5, "Jun": 6, "Jul": 7, "Aug": 8,
	"Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// DividendExtractor converts one fetched history document into a typed list
// of dividend events. It is stateless; order of the result is whatever the
// source table yields.
type DividendExtractor struct{}

// NewDividendExtractor creates a new dividend extraction service
func NewDividendExtractor() *DividendExtractor {
	return &DividendExtractor{}
}

// ExtractDividendHistory parses the dividend-history table out of document.
//
// A missing table is expected (not every company pays dividends) and yields an
// empty result. A table without the header+body structure also yields an empty
// result with a diagnostic, so one malformed page cannot abort a whole
// ingestion batch. An unrecognized month token is fatal for the entire
// extraction: it signals the upstream format changed in a way the rest of the
// parse cannot be trusted.
func (e *DividendExtractor) ExtractDividendHistory(document *goquery.Document, companyName string) ([]models.DividendEvent, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "DividendExtractor",
		"company":   companyName,
	})

	tables := document.Find(dividendTableSelector)
	if tables.Length() == 0 {
		logger.Warn("Dividend history table not found, returning empty result")
		return []models.DividendEvent{}, nil
	}

	sections := tables.First().Children()
	if sections.Length() < 2 {
		logger.WithField("section_count", sections.Length()).
			Warn("Dividend table missing header/body structure, returning empty result")
		return []models.DividendEvent{}, nil
	}
	tableBody := sections.Eq(1)

	events := []models.DividendEvent{}
	var fatalErr error

	tableBody.Children().EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rowText := dividendRowText(row)
		if !strings.HasSuffix(rowText, dividendRowMarker) {
			return true
		}

		event, err := e.parseDividendRow(rowText)
		if err != nil {
			fatalErr = err
			return false
		}
		if event == nil {
			logger.WithField("row_text", rowText).Warn("Skipping dividend row with unexpected token count")
			return true
		}

		events = append(events, *event)
		return true
	})

	if fatalErr != nil {
		logger.WithError(fatalErr).Error("Dividend extraction aborted")
		return nil, fatalErr
	}

	logger.WithField("event_count", len(events)).Debug("Extracted dividend history")
	return events, nil
}

// dividendRowText flattens one table row into a single space-separated
// string. Adjacent cells carry no separator in the raw node text, so the text
// is rebuilt cell by cell: trim each cell, collapse its internal whitespace,
// join with single spaces. This keeps the token shape stable regardless of
// markup nesting inside the cells.
func dividendRowText(row *goquery.Selection) string {
	cells := []string{}
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if text := strings.Join(strings.Fields(cell.Text()), " "); text != "" {
			cells = append(cells, text)
		}
	})
	return strings.Join(cells, " ")
}

// parseDividendRow tokenizes one qualifying row. The fixed shape is
// [month-abbrev, day-with-comma, year, amount, ..., marker], e.g.
// "Dec 15, 2023 0.24 Dividend". A nil, nil return means the row should be
// skipped; an error means the whole extraction must abort.
func (e *DividendExtractor) parseDividendRow(rowText string) (*models.DividendEvent, error) {
	tokens := strings.Fields(rowText)
	if len(tokens) < 4 {
		return nil, nil
	}

	month, known := monthNumbers[tokens[0]]
	if !known {
		return nil, &shared.UnexpectedMonthError{Token: tokens[0]}
	}

	day, err := strconv.Atoi(strings.ReplaceAll(tokens[1], ",", ""))
	if err != nil {
		return nil, &shared.MalformedRowError{RowText: rowText, Cause: err}
	}

	year, err := strconv.Atoi(tokens[2])
	if err != nil {
		return nil, &shared.MalformedRowError{RowText: rowText, Cause: err}
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2); a row
	// carrying an impossible date means the format drifted, so fail loudly
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return nil, &shared.MalformedRowError{
			RowText: rowText,
			Cause:   fmt.Errorf("day %d out of range for %s %d", day, tokens[0], year),
		}
	}

	return &models.DividendEvent{
		Date:   date,
		Amount: tokens[3],
	}, nil
}

// Package sheet fetches a tabular spreadsheet export over HTTP and parses it
// into ordered rows keyed by column header.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pedalhouse/internal/domain"
)

// FetchError is fatal to a sync run: the source could not be retrieved at all.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 60 * time.Second}}
}

// Fetch retrieves the export and parses it. Non-2xx and transport errors are
// returned as *FetchError and are not retried.
func (c *Client) Fetch(ctx context.Context, url string) ([]domain.SourceRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}
	return Parse(resp.Body)
}

// Parse reads CSV text using the first line as the authoritative header row.
// Cells are trimmed, fully empty lines are skipped, and for duplicate header
// names the first occurrence wins. A header row with no data rows yields an
// empty slice, not an error.
func Parse(r io.Reader) ([]domain.SourceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse source: empty body")
		}
		return nil, fmt.Errorf("parse source header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := []domain.SourceRow{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse source row: %w", err)
		}
		row := domain.SourceRow{}
		empty := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			var cell string
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			if cell != "" {
				empty = false
			}
			if _, dup := row[h]; dup {
				continue // first occurrence wins
			}
			row[h] = cell
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

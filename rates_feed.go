package cgt

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Rate publishers (ECB, Bank of England statistical API, exchangerate hosts)
// all serve JSON documents of dated observations, each with its own shape.
// Rather than one decoder per publisher, a feed is described by two jsonpath
// expressions selecting the observation dates and values.

// RateFeed describes how to extract rate observations from a JSON document.
type RateFeed struct {
	URL       string // document address
	From, To  string // currency pair the observations convert
	DatePath  string // jsonpath selecting the observation dates
	ValuePath string // jsonpath selecting the observation values, same order
}

// FetchRates downloads the feed document and extracts its observations into
// the given table.
func (f RateFeed) FetchRates(client *http.Client, table *RateTable) (int, error) {
	var jobj any
	if err := jwget(client, f.URL, &jobj); err != nil {
		return 0, fmt.Errorf("fetching rate feed %q: %w", f.URL, err)
	}
	return f.extract(jobj, table)
}

// extract pulls dates and values out of the decoded document and records
// them as observations.
func (f RateFeed) extract(jobj any, table *RateTable) (int, error) {
	days, err := pathStrings(jobj, f.DatePath)
	if err != nil {
		return 0, fmt.Errorf("extracting dates: %w", err)
	}
	values, err := pathStrings(jobj, f.ValuePath)
	if err != nil {
		return 0, fmt.Errorf("extracting values: %w", err)
	}
	if len(days) != len(values) {
		return 0, fmt.Errorf("feed mismatch: %d dates but %d values", len(days), len(values))
	}

	n := 0
	for i, str := range days {
		day, err := ParseDate(str)
		if err != nil {
			return n, fmt.Errorf("observation %d: %w", i, err)
		}
		value, err := decimal.NewFromString(values[i])
		if err != nil {
			return n, fmt.Errorf("observation %d: invalid rate %q: %w", i, values[i], err)
		}
		table.Add(f.From, f.To, day, value)
		n++
	}
	return n, nil
}

// pathStrings evaluates a jsonpath expression and normalizes the result into
// a list of strings.
func pathStrings(jobj any, path string) ([]string, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}
	// jsonpath is never clear about whether it returns a list or a single
	// answer, so both are accepted.
	list, ok := jval.([]any)
	if !ok {
		list = []any{jval}
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch t := v.(type) {
		case string:
			out = append(out, strings.TrimSpace(t))
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("jsonpath %q: unsupported value %v", path, v)
		}
	}
	return out, nil
}

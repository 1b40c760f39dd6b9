package cgt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaxYear identifies a UK tax year by its starting calendar year.
// The tax year 2024-25 runs from 6 April 2024 to 5 April 2025 and is
// represented as TaxYear(2024).
type TaxYear int

// TaxYearOf returns the tax year a date belongs to. The boundary is fixed:
// 5 April falls in the old year, 6 April opens the new one.
func TaxYearOf(d Date) TaxYear {
	if d.Month() > time.April || (d.Month() == time.April && d.Day() >= 6) {
		return TaxYear(d.Year())
	}
	return TaxYear(d.Year() - 1)
}

// Start returns the first day of the tax year (6 April).
func (y TaxYear) Start() Date { return NewDate(int(y), time.April, 6) }

// End returns the last day of the tax year (5 April of the following year).
func (y TaxYear) End() Date { return NewDate(int(y)+1, time.April, 5) }

// Contains reports whether a date falls within the tax year.
func (y TaxYear) Contains(d Date) bool { return TaxYearOf(d) == y }

// String formats the tax year in the usual HMRC notation, e.g. "2024-25".
func (y TaxYear) String() string {
	return fmt.Sprintf("%04d-%02d", int(y), (int(y)+1)%100)
}

// ParseTaxYear parses the "2024-25" notation. It also accepts a bare
// starting year like "2024".
func ParseTaxYear(s string) (TaxYear, error) {
	start, _, _ := strings.Cut(s, "-")
	year, err := strconv.Atoi(start)
	if err != nil {
		return 0, fmt.Errorf("invalid tax year %q want format like %q: %w", s, "2024-25", err)
	}
	if year < 1000 || year > 9999 {
		return 0, fmt.Errorf("invalid tax year %q: starting year out of range", s)
	}
	return TaxYear(year), nil
}

// MarshalJSON implements the json.Marshaler interface for TaxYear.
func (y TaxYear) MarshalJSON() ([]byte, error) {
	str := y.String()
	return json.Marshal(&str)
}

// UnmarshalJSON implements the json.Unmarshaler interface for TaxYear.
func (y *TaxYear) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	year, err := ParseTaxYear(str)
	if err != nil {
		return err
	}
	*y = year
	return nil
}

package cgt

import "testing"

func TestTaxYearOf_Boundary(t *testing.T) {
	// The boundary must be deterministic: 5 April belongs to the old year,
	// 6 April opens the new one.
	testCases := []struct {
		date string
		want TaxYear
	}{
		{"2024-04-05", TaxYear(2023)},
		{"2024-04-06", TaxYear(2024)},
		{"2025-04-05", TaxYear(2024)},
		{"2025-04-06", TaxYear(2025)},
		{"2024-01-01", TaxYear(2023)},
		{"2024-12-31", TaxYear(2024)},
	}
	for _, tc := range testCases {
		t.Run(tc.date, func(t *testing.T) {
			if got := TaxYearOf(day(tc.date)); got != tc.want {
				t.Errorf("TaxYearOf(%s) = %s, want %s", tc.date, got, tc.want)
			}
		})
	}
}

func TestTaxYear_Range(t *testing.T) {
	y := TaxYear(2024)
	if got, want := y.Start(), day("2024-04-06"); got != want {
		t.Errorf("Start() = %s, want %s", got, want)
	}
	if got, want := y.End(), day("2025-04-05"); got != want {
		t.Errorf("End() = %s, want %s", got, want)
	}
	if !y.Contains(day("2024-12-25")) {
		t.Error("Contains(2024-12-25) = false, want true")
	}
	if y.Contains(day("2024-04-05")) {
		t.Error("Contains(2024-04-05) = true, want false")
	}
}

func TestParseTaxYear(t *testing.T) {
	testCases := []struct {
		in      string
		want    TaxYear
		wantErr bool
	}{
		{"2024-25", TaxYear(2024), false},
		{"2022-23", TaxYear(2022), false},
		{"2024", TaxYear(2024), false},
		{"24-25", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range testCases {
		got, err := ParseTaxYear(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTaxYear(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseTaxYear(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestTaxYear_String(t *testing.T) {
	if got := TaxYear(2024).String(); got != "2024-25" {
		t.Errorf("String() = %q, want %q", got, "2024-25")
	}
	if got := TaxYear(2099).String(); got != "2099-00" {
		t.Errorf("String() = %q, want %q", got, "2099-00")
	}
}

package cgt

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Calculator runs complete tax calculations. It owns nothing mutable across
// runs: pools and matching state live for one Calculate call and are
// discarded with the report.
type Calculator struct {
	Rates             *RateTable
	Configs           map[TaxYear]Config
	ReportingCurrency string
}

// NewCalculator builds a calculator from a rate table and per-year tax
// configuration. A nil configs map selects the built-in registry; the
// reporting currency defaults to GBP.
func NewCalculator(rates *RateTable, configs map[TaxYear]Config, reportingCurrency string) *Calculator {
	if rates == nil {
		rates = NewRateTable()
	}
	if configs == nil {
		configs = DefaultConfigs()
	}
	if reportingCurrency == "" {
		reportingCurrency = GBP
	}
	return &Calculator{Rates: rates, Configs: configs, ReportingCurrency: reportingCurrency}
}

// Run is the input of one calculation: the complete transaction history plus
// the selection and taxpayer figures needed for band splitting.
type Run struct {
	Transactions   []Transaction
	Year           TaxYear
	Jurisdiction   Jurisdiction
	TotalIncome    Money // taxpayer's non-gain income, for the band split
	DividendIncome Money // dividend income taxed alongside, optional
}

// securityResult is the outcome of matching one security.
type securityResult struct {
	security  string
	disposals []Disposal
	pool      PoolState
	fallbacks []RateFallback
	failure   error // a *NegativeHoldingError; other securities still complete
}

// Calculate processes one complete transaction set into one tax report.
//
// The passes are strictly ordered: batch validation first (all offenders
// reported at once), then per-security matching and disposal computation,
// then aggregation. Securities are independent, so matching fans out across
// goroutines; results are merged by re-sorting disposals so the report is
// byte-identical regardless of scheduling.
func (c *Calculator) Calculate(run Run) (*TaxReport, error) {
	cfg, ok := c.Configs[run.Year]
	if !ok {
		return nil, fmt.Errorf("no tax year configuration for %s", run.Year)
	}
	if run.Jurisdiction == "" {
		run.Jurisdiction = EnglandWalesNI
	}

	// Input order is the same-day tie-breaker, so it is pinned before
	// anything reorders the list.
	txs := make([]Transaction, len(run.Transactions))
	copy(txs, run.Transactions)
	for i := range txs {
		txs[i].seq = i
	}

	if err := ValidateTransactions(txs); err != nil {
		return nil, err
	}

	bySecurity := make(map[string][]Transaction)
	for _, tx := range txs {
		bySecurity[tx.Security] = append(bySecurity[tx.Security], tx)
	}
	securities := make([]string, 0, len(bySecurity))
	for sec := range bySecurity {
		securities = append(securities, sec)
	}
	slices.Sort(securities)

	// Distinct securities share no state, so matching is embarrassingly
	// parallel. Rate errors abort the whole run; negative holdings only
	// flag their own security.
	results := make([]securityResult, len(securities))
	var g errgroup.Group
	for i, sec := range securities {
		g.Go(func() error {
			res, err := c.matchOne(sec, bySecurity[sec])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &TaxReport{
		Year:              run.Year,
		Jurisdiction:      run.Jurisdiction,
		ReportingCurrency: c.ReportingCurrency,
	}
	for _, res := range results {
		if res.failure != nil {
			report.Failed = append(report.Failed, SecurityFailure{Security: res.security, Error: res.failure.Error()})
			continue
		}
		report.Disposals = append(report.Disposals, res.disposals...)
		report.Pools = append(report.Pools, res.pool)
		report.RateFallbacks = append(report.RateFallbacks, res.fallbacks...)
	}

	// Securities were processed in sorted order; a stable sort by date keeps
	// same-date disposals of one security in their chronological match order.
	slices.SortStableFunc(report.Disposals, func(a, b Disposal) int {
		return a.Date.Compare(b.Date)
	})
	report.RateFallbacks = dedupeFallbacks(report.RateFallbacks)

	report.Capital = calculateCGT(cfg, run.TotalIncome, report.YearDisposals())
	report.Dividends = calculateDividends(cfg, run.TotalIncome, run.DividendIncome)
	return report, nil
}

// matchOne matches and computes all disposals of one security. A negative
// holding is captured in the result; only rate errors propagate.
func (c *Calculator) matchOne(security string, txs []Transaction) (securityResult, error) {
	res := securityResult{security: security}
	conv := &Converter{Table: c.Rates, Reporting: c.ReportingCurrency}

	matches, pool, fallbacks, err := matchSecurity(security, txs, conv)
	if err != nil {
		var negative *NegativeHoldingError
		if errors.As(err, &negative) {
			res.failure = negative
			return res, nil
		}
		return res, err
	}
	res.pool = pool
	res.fallbacks = fallbacks

	for _, m := range matches {
		disposal, fbs, err := computeDisposal(m, conv)
		if err != nil {
			return res, err
		}
		res.disposals = append(res.disposals, disposal)
		res.fallbacks = append(res.fallbacks, fbs...)
	}
	return res, nil
}

// dedupeFallbacks drops duplicate fallback notices (a rate reused across
// many transactions) and orders them for reproducible output.
func dedupeFallbacks(fbs []RateFallback) []RateFallback {
	seen := make(map[RateFallback]bool, len(fbs))
	out := fbs[:0]
	for _, fb := range fbs {
		if seen[fb] {
			continue
		}
		seen[fb] = true
		out = append(out, fb)
	}
	slices.SortFunc(out, func(a, b RateFallback) int {
		if c := a.Requested.Compare(b.Requested); c != 0 {
			return c
		}
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		return 0
	})
	return out
}

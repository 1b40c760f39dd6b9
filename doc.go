// Package cgt computes UK Capital Gains Tax on disposals of securities.
//
// It turns a time-ordered list of acquisitions and disposals into matched
// disposal events following the HMRC share identification rules (same-day,
// 30-day "bed and breakfast", then the Section 104 holding), converts every
// cost and proceed into a single reporting currency at trade-date rates, and
// aggregates the results into a tax-year report with annual exempt amount and
// band-by-band CGT figures.
//
// The engine performs no I/O of its own: transactions, exchange rates and
// per-year tax constants are injected, and one Calculate call produces one
// immutable TaxReport.
package cgt

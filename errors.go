package cgt

import (
	"fmt"
	"strings"
)

// RateUnavailableError reports that no exchange rate could be found for a
// currency pair on or before a given day. It is fatal for the whole run: a
// partially converted tax report would be silently wrong.
type RateUnavailableError struct {
	From, To string
	Day      Date
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate for %s/%s on or before %s", e.From, e.To, e.Day)
}

// NegativeHoldingError reports a disposal larger than everything ever held
// for a security. It is a data-integrity problem: the affected security is
// aborted and flagged, other securities complete normally.
type NegativeHoldingError struct {
	Security  string
	Day       Date
	Shortfall Quantity
}

func (e *NegativeHoldingError) Error() string {
	return fmt.Sprintf("disposal of %s on %s exceeds total holding by %s units", e.Security, e.Day, e.Shortfall)
}

// InsufficientPoolError reports a pool disposal larger than the pool's
// running quantity. When matching runs correctly this cannot happen, so its
// occurrence indicates a logic or data-integrity bug upstream.
type InsufficientPoolError struct {
	Security  string
	Requested Quantity
	Held      Quantity
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("pool for %s holds %s units, cannot dispose of %s", e.Security, e.Held, e.Requested)
}

// InvalidTransactionError describes one rejected input transaction.
type InvalidTransactionError struct {
	Index  int // position in the input list
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("transaction #%d: %s", e.Index, e.Reason)
}

// ValidationErrors is the complete list of rejected transactions from the
// validation pass. Validation never stops at the first offender, so the
// caller can show a full error report at once.
type ValidationErrors []*InvalidTransactionError

func (e ValidationErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d invalid transaction(s):", len(e))
	for _, err := range e {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

package cgt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is a typed string identifying the direction of a transaction.
type Side string

// Transaction sides.
const (
	Acquisition  Side = "acquisition"
	SideDisposal Side = "disposal"
)

// Transaction is one normalized buy or sell event, as supplied by the
// out-of-scope parsing layer. Price and Fees are expressed in the
// transaction currency; conversion to the reporting currency happens inside
// the engine at trade-date rates.
type Transaction struct {
	Security string   // opaque unique key: ticker, ISIN or CUSIP
	Side     Side     // acquisition or disposal
	Date     Date     // trade date, never settlement date
	Quantity Quantity // always positive
	Price    Money    // unit price in the transaction currency
	Fees     Money    // commission and charges, same currency as Price

	// seq is the position in the input list, used to break same-day ties so
	// that matching stays deterministic.
	seq int
}

// NewAcquisition builds an acquisition transaction.
func NewAcquisition(security string, day Date, quantity Quantity, price, fees Money) Transaction {
	return Transaction{Security: security, Side: Acquisition, Date: day, Quantity: quantity, Price: price, Fees: fees}
}

// NewDisposal builds a disposal transaction.
func NewDisposal(security string, day Date, quantity Quantity, price, fees Money) Transaction {
	return Transaction{Security: security, Side: SideDisposal, Date: day, Quantity: quantity, Price: price, Fees: fees}
}

// GrossAmount returns quantity times unit price, in the transaction currency.
func (t Transaction) GrossAmount() Money { return t.Price.Mul(t.Quantity) }

// validate returns the reason this transaction is invalid, or "".
func (t Transaction) validate() string {
	var reasons []string
	if t.Security == "" {
		reasons = append(reasons, "security is missing")
	}
	if t.Side != Acquisition && t.Side != SideDisposal {
		reasons = append(reasons, fmt.Sprintf("unknown side %q", t.Side))
	}
	if t.Date.IsZero() {
		reasons = append(reasons, "date is missing")
	}
	if !t.Quantity.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("quantity %s is not positive", t.Quantity))
	}
	if t.Price.IsNegative() {
		reasons = append(reasons, "unit price is negative")
	}
	if t.Price.Currency() == "" {
		reasons = append(reasons, "currency is missing")
	}
	if t.Fees.IsNegative() {
		reasons = append(reasons, "fees are negative")
	}
	if fc := t.Fees.Currency(); fc != "" && fc != t.Price.Currency() {
		reasons = append(reasons, fmt.Sprintf("fees currency %q differs from price currency %q", fc, t.Price.Currency()))
	}
	return strings.Join(reasons, "; ")
}

// ValidateTransactions runs the validation pass that precedes matching. It
// collects every offending transaction instead of failing fast, and returns a
// ValidationErrors listing all of them, or nil.
func ValidateTransactions(txs []Transaction) error {
	var errs ValidationErrors
	for i, tx := range txs {
		if reason := tx.validate(); reason != "" {
			errs = append(errs, &InvalidTransactionError{Index: i, Reason: reason})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// jsonTransaction is the wire format for a transaction record.
type jsonTransaction struct {
	Security string          `json:"security"`
	Side     Side            `json:"side"`
	Date     Date            `json:"date"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Fees     decimal.Decimal `json:"fees"`
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("security", t.Security)
	w.Append("side", t.Side)
	w.Append("date", t.Date)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Amount())
	w.Append("currency", t.Price.Currency())
	w.Append("fees", t.Fees.Amount())
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp jsonTransaction
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	t.Security = temp.Security
	t.Side = temp.Side
	t.Date = temp.Date
	t.Quantity = temp.Quantity
	t.Price = NewMoney(temp.Price, temp.Currency)
	t.Fees = NewMoney(temp.Fees, temp.Currency)
	return nil
}

// DecodeTransactions reads transactions from a JSONL stream, one record per
// line, in input order. Blank lines are skipped.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal([]byte(text), &tx); err != nil {
			return nil, fmt.Errorf("line %d: invalid transaction: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transactions: %w", err)
	}
	return txs, nil
}

// EncodeTransactions writes transactions as JSONL, one record per line.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		raw, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", raw); err != nil {
			return err
		}
	}
	return nil
}

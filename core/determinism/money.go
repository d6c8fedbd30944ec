package determinism

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Money is an exact amount in one currency. Arithmetic across currencies
// panics: callers convert nothing, so a mix is always a programming error.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func MoneyOf(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: currency}
}

// ParseMoney reads a decimal string such as "14810.25"
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return MoneyOf(d, currency), nil
}

func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) same(op string, o Money) {
	if m.currency != o.currency {
		panic(fmt.Sprintf("money: %s across currencies %s and %s", op, m.currency, o.currency))
	}
}

func (m Money) Add(o Money) Money {
	m.same("add", o)
	return MoneyOf(m.amount.Add(o.amount), m.currency)
}

func (m Money) Sub(o Money) Money {
	m.same("subtract", o)
	return MoneyOf(m.amount.Sub(o.amount), m.currency)
}

func (m Money) Cmp(o Money) int {
	m.same("compare", o)
	return m.amount.Cmp(o.amount)
}

// Percent returns pct percent of m, unrounded
func (m Money) Percent(pct decimal.Decimal) Money {
	return MoneyOf(m.amount.Mul(pct).Div(hundred), m.currency)
}

// RoundCents rounds half away from zero to two decimals
func (m Money) RoundCents() Money {
	return MoneyOf(m.amount.Round(2), m.currency)
}

// String renders "1234.50 USD"
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

type wireMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON writes the amount as a fixed two-decimal string so clients
// never see float rounding.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMoney{Amount: m.amount.StringFixed(2), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var w wireMoney
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := ParseMoney(w.Amount, w.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

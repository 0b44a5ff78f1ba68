package types_test

import (
	"testing"

	"github.com/xraph/paywall/types"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    types.Money
		amount   int64
		currency string
	}{
		{"USD", types.USD(4900), 4900, "usd"},
		{"EUR", types.EUR(19900), 19900, "eur"},
		{"GBP", types.GBP(9900), 9900, "gbp"},
		{"Zero", types.Zero("USD"), 0, "usd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("amount = %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", tt.money.Currency, tt.currency)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := types.USD(100)
	b := types.USD(250)

	if got := a.Add(b); got.Amount != 350 {
		t.Errorf("Add = %d, want 350", got.Amount)
	}
	if got := b.Subtract(a); got.Amount != 150 {
		t.Errorf("Subtract = %d, want 150", got.Amount)
	}
	if got := a.Multiply(3); got.Amount != 300 {
		t.Errorf("Multiply = %d, want 300", got.Amount)
	}
	if got := a.Negate(); got.Amount != -100 {
		t.Errorf("Negate = %d, want -100", got.Amount)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		pct    int64
		want   int64
	}{
		{"EvenSplit", 100, 90, 90},
		{"EvenSplitOperator", 100, 10, 10},
		{"TruncatesDown", 99, 90, 89},
		{"TruncatesDownOperator", 99, 10, 9},
		{"SingleUnit", 1, 90, 0},
		{"ZeroAmount", 0, 90, 0},
		{"FullShare", 123, 100, 123},
		{"NoShare", 123, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types.USD(tt.amount).Percent(tt.pct)
			if got.Amount != tt.want {
				t.Errorf("USD(%d).Percent(%d) = %d, want %d", tt.amount, tt.pct, got.Amount, tt.want)
			}
			if got.Currency != "usd" {
				t.Errorf("currency = %q, want usd", got.Currency)
			}
		})
	}
}

func TestPercentSplitLeaksRemainder(t *testing.T) {
	// A 90/10 split of 99 units yields 89 + 9 = 98; one unit is lost to
	// truncation. Percent must not compensate for it.
	payment := types.USD(99)
	owner := payment.Percent(90)
	operator := payment.Percent(10)

	if got := owner.Add(operator).Amount; got != 98 {
		t.Errorf("split total = %d, want 98", got)
	}
}

func TestPercentOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for pct > 100")
		}
	}()
	types.USD(100).Percent(101)
}

func TestCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for currency mismatch")
		}
	}()
	types.USD(100).Add(types.EUR(100))
}

func TestComparison(t *testing.T) {
	a := types.USD(100)
	b := types.USD(200)

	if !a.LessThan(b) {
		t.Error("expected a < b")
	}
	if !b.GreaterThan(a) {
		t.Error("expected b > a")
	}
	if !a.Equal(types.USD(100)) {
		t.Error("expected equal")
	}
	if a.Equal(types.EUR(100)) {
		t.Error("different currencies must not be equal")
	}
	if !a.SameCurrency(b) {
		t.Error("expected same currency")
	}
	if a.SameCurrency(types.EUR(100)) {
		t.Error("usd and eur must differ")
	}
}

func TestPredicates(t *testing.T) {
	if !types.Zero("usd").IsZero() {
		t.Error("Zero should be zero")
	}
	if !types.USD(1).IsPositive() {
		t.Error("USD(1) should be positive")
	}
	if !types.USD(-1).IsNegative() {
		t.Error("USD(-1) should be negative")
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name  string
		money types.Money
		major string
		full  string
	}{
		{"Dollars", types.USD(4900), "49.00", "$49.00"},
		{"Cents", types.USD(5), "0.05", "$0.05"},
		{"Negative", types.USD(-150), "-1.50", "$-1.50"},
		{"Pounds", types.GBP(9900), "99.00", "£99.00"},
		{"NoDecimals", types.Money{Amount: 100, Currency: "jpy"}, "100", "¥100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor = %q, want %q", got, tt.major)
			}
			if got := tt.money.String(); got != tt.full {
				t.Errorf("String = %q, want %q", got, tt.full)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got := types.Sum(types.USD(100), types.USD(200), types.USD(300))
	if got.Amount != 600 {
		t.Errorf("Sum = %d, want 600", got.Amount)
	}

	empty := types.Sum()
	if !empty.IsZero() {
		t.Errorf("empty Sum = %d, want 0", empty.Amount)
	}
}

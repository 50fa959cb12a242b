package service

import (
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
)

// Reconciliation is the server-side computation of an order's money fields.
type Reconciliation struct {
	Subtotal      decimal.Decimal
	Taxes         decimal.Decimal
	ExpectedTotal decimal.Decimal
}

// Subtotal sums price × quantity over lines, rounded to cents for storage.
// Add-on prices are informational and already folded into the line price.
func Subtotal(lines []database.OrderLine) decimal.Decimal {
	return lineSum(lines).Round(2)
}

func lineSum(lines []database.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return sum
}

// Reconcile computes subtotal, taxes and the expected total.
// Taxes and the expected total are derived from the unrounded line sum and
// rounded half-up to two places once, at the end.
func Reconcile(lines []database.OrderLine, discount, taxRate decimal.Decimal) Reconciliation {
	taxable := lineSum(lines).Sub(discount)
	return Reconciliation{
		Subtotal:      Subtotal(lines),
		Taxes:         taxable.Mul(taxRate).Round(2),
		ExpectedTotal: taxable.Mul(decimal.NewFromInt(1).Add(taxRate)).Round(2),
	}
}

// Matches reports whether total equals the expected total after rounding.
func (r Reconciliation) Matches(total decimal.Decimal) bool {
	return total.Round(2).Equal(r.ExpectedTotal)
}

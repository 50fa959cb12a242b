package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusOpen   = "OPEN"
	OrderStatusClosed = "CLOSED"
)

const (
	OrderTypePickup = "PICK-UP"
	OrderTypeDineIn = "DINE-IN"
)

// Closed orders carry a sub-state in their payment information.
const (
	PaymentStatusPaid  = "PAID"
	PaymentStatusWrong = "WRONG"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash    = "CASH"
	PaymentMethodDebit   = "DEBIT"
	PaymentMethodCredit  = "CREDIT"
	PaymentMethodVoucher = "VOUCHER"
)

// ── Role ranks: lower is more privileged ──

const (
	RoleAdmin   = 0
	RoleOwner   = 1
	RoleManager = 2
	RoleServer  = 3
	RoleGuest   = 4
)

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodDebit, PaymentMethodCredit, PaymentMethodVoucher:
		return true
	}
	return false
}

func IsValidOrderStatus(s string) bool {
	return s == OrderStatusOpen || s == OrderStatusClosed
}

func IsValidPaymentStatus(s string) bool {
	return s == PaymentStatusPaid || s == PaymentStatusWrong
}

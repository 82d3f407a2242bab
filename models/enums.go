package models

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusOverdue:
		return true
	}
	return false
}

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeUpi          PaymentMode = "upi"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheque       PaymentMode = "cheque"
)

var paymentModes = map[string]PaymentMode{
	"cash":          PaymentModeCash,
	"card":          PaymentModeCard,
	"upi":           PaymentModeUpi,
	"bank_transfer": PaymentModeBankTransfer,
	"cheque":        PaymentModeCheque,
}

func (m PaymentMode) IsValid() bool {
	_, ok := paymentModes[string(m)]
	return ok
}

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

type ReportType string

const (
	ReportTypeStock           ReportType = "stock"
	ReportTypeCustomerBalance ReportType = "customer_balance"
	ReportTypeSales           ReportType = "sales"
	ReportTypePayments        ReportType = "payments"
)

var AllReportTypes = []ReportType{
	ReportTypeStock,
	ReportTypeCustomerBalance,
	ReportTypeSales,
	ReportTypePayments,
}

func (t ReportType) IsValid() bool {
	for _, rt := range AllReportTypes {
		if rt == t {
			return true
		}
	}
	return false
}

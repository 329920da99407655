package models

// UserProfile is the persisted business identity of the account holder. Pro
// members have it copied into the details of every new estimate so invoices
// come out pre-branded.
type UserProfile struct {
	BusinessName    string `json:"businessName"`
	BusinessLogo    string `json:"businessLogo"`
	PayableTo       string `json:"payableTo"`
	BusinessAddress string `json:"businessAddress"`
	BusinessEmail   string `json:"businessEmail"`
	BusinessPhone   string `json:"businessPhone"`
	PaymentLink     string `json:"paymentLink"`
}

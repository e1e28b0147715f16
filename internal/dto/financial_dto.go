package dto

// FinancialFilter is bound from the query string of GET /v1/financial.
type FinancialFilter struct {
	// Search filters by customer name, case-insensitive substring.
	Search string `form:"search"`
}

type FinancialEntryResponse struct {
	ID            string  `json:"id"`
	Amount        string  `json:"amount"`
	Kind          string  `json:"kind"`
	DueDate       string  `json:"due_date"`
	CustomerName  string  `json:"customer_name"`
	PaymentMethod *string `json:"payment_method"`
	SaleID        *string `json:"sale_id"`
}

type FinancialListResponse struct {
	Data  []FinancialEntryResponse `json:"data"`
	Total int                      `json:"total"`
}

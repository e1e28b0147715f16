package dto

// ─── Draft requests ──────────────────────────────────────────────────────────

type StartDraftRequest struct {
	// CustomerName blank → walk-in sentinel.
	CustomerName string `json:"customer_name"`
}

// DraftLineRequest adds or (when LineID is set) edits a draft line. Quantity,
// unit price and discount arrive as the raw text typed by the user; comma and
// dot decimal separators are both accepted. Unparsable price/discount default
// to zero; an unparsable or non-positive quantity is a validation error.
type DraftLineRequest struct {
	LineID    int64  `json:"line_id"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  string `json:"quantity"   validate:"required"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount"`
}

type FinalizeRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required,uuid"`
	// CustomerEmail: optional — when present the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// SaleItemRequest mutates a line of an already-persisted sale. Same parsing
// rules as DraftLineRequest; the write hits the database immediately and the
// sale total is recomputed in the same transaction.
type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  string `json:"quantity"   validate:"required"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type DraftLineResponse struct {
	LineID      int64  `json:"line_id"`
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Discount    string `json:"discount"`
	// Subtotal is clamped at zero for display; the raw value is what gets
	// stored at commit.
	Subtotal string `json:"subtotal"`
}

type DraftResponse struct {
	CustomerName string              `json:"customer_name"`
	Lines        []DraftLineResponse `json:"lines"`
	Total        string              `json:"total"`
	OpenedAt     string              `json:"opened_at"`
}

type SaleItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Discount    string `json:"discount"`
	Subtotal    string `json:"subtotal"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name,omitempty"`
	PaymentMethod *string            `json:"payment_method,omitempty"`
	Total         string             `json:"total"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     string             `json:"created_at"`
}

type SaleListItem struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name"`
	Total        string `json:"total"`
	ItemCount    int    `json:"item_count"`
	CreatedAt    string `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleListItem `json:"data"`
	Total int            `json:"total"`
}

type PaymentMethodResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

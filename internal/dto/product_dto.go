package dto

// ─── Requests ────────────────────────────────────────────────────────────────

// SaveProductRequest backs both create and update. Price is the raw text the
// user typed: locale decimal input (comma or dot separator) parsed server
// side into a numeric value or null.
type SaveProductRequest struct {
	Code        string `json:"code"`
	Description string `json:"description" validate:"required"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"   validate:"omitempty,url"`
}

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	Search string `form:"search"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string  `json:"id"`
	Code        *string `json:"code"`
	Description string  `json:"description"`
	Price       *string `json:"price"`
	ImageURL    *string `json:"image_url"`
	CreatedAt   string  `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int               `json:"total"`
}

// BarcodeLookupResponse distinguishes a miss (Found=false, soft — the user
// continues manually) from a lookup failure, which is surfaced as an error
// response instead. The scanned code is echoed back either way.
type BarcodeLookupResponse struct {
	Code        string `json:"code"`
	Found       bool   `json:"found"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

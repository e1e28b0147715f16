package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// LookupResult is the normalized outcome of a barcode lookup. Found=false is
// a soft miss: the caller keeps the scanned code and lets the user fill the
// form manually. Transport/API failures surface as errors instead.
type LookupResult struct {
	Found       bool   `json:"found"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// ErrLookupUnavailable wraps transport-level failures of the lookup API so
// callers can distinguish "service broken" from "product unknown".
var ErrLookupUnavailable = errors.New("barcode lookup service unavailable")

// offProductResponse mirrors the Open Food Facts v0 product endpoint.
// status == 1 means found; the pt name is preferred when present.
type offProductResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductNamePT string `json:"product_name_pt"`
		ProductName   string `json:"product_name"`
		ImageFrontURL string `json:"image_front_url"`
		ImageURL      string `json:"image_url"`
	} `json:"product"`
}

// OpenFoodFactsClient queries the public Open Food Facts product database by
// barcode (GET /api/v0/product/{code}.json).
type OpenFoodFactsClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenFoodFactsClient(baseURL string) *OpenFoodFactsClient {
	return &OpenFoodFactsClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup fetches product data for a barcode. A 200 with status 0 is a miss,
// not an error.
func (c *OpenFoodFactsClient) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	url := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLookupUnavailable, resp.StatusCode)
	}

	var body offProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLookupUnavailable, err)
	}

	if body.Status != 1 {
		return &LookupResult{Found: false}, nil
	}

	name := body.Product.ProductNamePT
	if name == "" {
		name = body.Product.ProductName
	}
	image := body.Product.ImageFrontURL
	if image == "" {
		image = body.Product.ImageURL
	}
	return &LookupResult{Found: true, Description: name, ImageURL: image}, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/infra"
	"github.com/Jvjesus89/ERPapp/internal/model"
	"github.com/Jvjesus89/ERPapp/internal/repository"
	"github.com/Jvjesus89/ERPapp/internal/sale"
)

var (
	ErrInvalidBarcode = errors.New("barcode must be at least 8 digits")
)

// barcodeRe: scanners emit EAN-8/EAN-13/GTIN codes, all numeric, min 8 digits.
var barcodeRe = regexp.MustCompile(`^[0-9]{8,}$`)

const (
	searchCacheTTL  = 5 * time.Minute
	barcodeCacheTTL = 24 * time.Hour
	// invalidateDelay coalesces bursts of catalog writes into a single cache
	// flush, the same way typing is debounced on the search box.
	invalidateDelay = 300 * time.Millisecond
)

// BarcodeLooker abstracts the external product database for tests.
type BarcodeLooker interface {
	Lookup(ctx context.Context, code string) (*infra.LookupResult, error)
}

type ProductService interface {
	Create(ctx context.Context, t Tenant, req dto.SaveProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, t Tenant, id uuid.UUID, req dto.SaveProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, t Tenant, id uuid.UUID) error
	Get(ctx context.Context, t Tenant, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, t Tenant, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	LookupBarcode(ctx context.Context, t Tenant, code string) (*dto.BarcodeLookupResponse, error)
}

type productService struct {
	repo   repository.ProductRepository
	rdb    *redis.Client
	looker BarcodeLooker
	cb     *infra.CircuitBreaker

	mu         sync.Mutex
	debouncers map[uuid.UUID]*infra.Debouncer
}

func NewProductService(repo repository.ProductRepository, rdb *redis.Client, looker BarcodeLooker, cb *infra.CircuitBreaker) ProductService {
	return &productService{
		repo:       repo,
		rdb:        rdb,
		looker:     looker,
		cb:         cb,
		debouncers: make(map[uuid.UUID]*infra.Debouncer),
	}
}

func (s *productService) Create(ctx context.Context, t Tenant, req dto.SaveProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{CompanyID: t.CompanyID}
	applySaveRequest(p, req)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.scheduleCacheInvalidation(t.CompanyID)
	return productToResponse(p), nil
}

func (s *productService) Update(ctx context.Context, t Tenant, id uuid.UUID, req dto.SaveProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, t.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	applySaveRequest(p, req)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.scheduleCacheInvalidation(t.CompanyID)
	return productToResponse(p), nil
}

func (s *productService) Delete(ctx context.Context, t Tenant, id uuid.UUID) error {
	err := s.repo.Delete(ctx, t.CompanyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err == nil {
		s.scheduleCacheInvalidation(t.CompanyID)
	}
	return err
}

func (s *productService) Get(ctx context.Context, t Tenant, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, t.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, t Tenant, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	key := searchCacheKey(t.CompanyID, filter.Search)
	if cached := s.cacheGet(ctx, key); cached != nil {
		var resp dto.ProductListResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	products, err := s.repo.Search(ctx, t.CompanyID, filter.Search)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{Data: make([]dto.ProductResponse, 0, len(products))}
	for i := range products {
		resp.Data = append(resp.Data, *productToResponse(&products[i]))
	}
	resp.Total = len(resp.Data)

	s.cacheSet(ctx, key, resp, searchCacheTTL)
	return resp, nil
}

func (s *productService) LookupBarcode(ctx context.Context, t Tenant, code string) (*dto.BarcodeLookupResponse, error) {
	code = strings.TrimSpace(code)
	if !barcodeRe.MatchString(code) {
		return nil, ErrInvalidBarcode
	}

	cacheKey := "barcode:" + code
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		var resp dto.BarcodeLookupResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	var result *infra.LookupResult
	err := s.cb.Execute(func() error {
		var lookupErr error
		result, lookupErr = s.looker.Lookup(ctx, code)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.BarcodeLookupResponse{
		Code:        code,
		Found:       result.Found,
		Description: result.Description,
		ImageURL:    result.ImageURL,
	}
	s.cacheSet(ctx, cacheKey, resp, barcodeCacheTTL)
	return resp, nil
}

// ─── Search cache ────────────────────────────────────────────────────────────

func searchCacheKey(companyID uuid.UUID, query string) string {
	return fmt.Sprintf("products:%s:%s", companyID, strings.ToLower(strings.TrimSpace(query)))
}

// cacheGet tolerates a nil client (unit tests) and Redis failures: a cache
// problem degrades to a database read, never an error.
func (s *productService) cacheGet(ctx context.Context, key string) []byte {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return data
}

func (s *productService) cacheSet(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache write failed")
	}
}

// scheduleCacheInvalidation flushes the company's search cache shortly after
// a catalog write. Debounced per tenant so bulk imports trigger one flush.
func (s *productService) scheduleCacheInvalidation(companyID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	s.mu.Lock()
	d, ok := s.debouncers[companyID]
	if !ok {
		d = infra.NewDebouncer(invalidateDelay)
		s.debouncers[companyID] = d
	}
	s.mu.Unlock()

	d.Schedule(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pattern := fmt.Sprintf("products:%s:*", companyID)
		keys, err := s.rdb.Keys(ctx, pattern).Result()
		if err != nil || len(keys) == 0 {
			return
		}
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Warn().Str("company_id", companyID.String()).Err(err).Msg("search cache invalidation failed")
		}
	})
}

// ─── Mapping ─────────────────────────────────────────────────────────────────

func applySaveRequest(p *model.Product, req dto.SaveProductRequest) {
	p.Description = req.Description
	p.Code = nilIfBlank(req.Code)
	p.ImageURL = nilIfBlank(req.ImageURL)
	if v, ok := sale.ParseAmountStrict(req.Price); ok {
		p.Price = &v
	} else {
		p.Price = nil
	}
}

func nilIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Price != nil {
		price := p.Price.StringFixed(2)
		resp.Price = &price
	}
	return resp
}

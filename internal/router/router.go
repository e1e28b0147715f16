package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/config"
	"github.com/Jvjesus89/ERPapp/internal/credstore"
	"github.com/Jvjesus89/ERPapp/internal/handler"
	"github.com/Jvjesus89/ERPapp/internal/infra"
	"github.com/Jvjesus89/ERPapp/internal/middleware"
	"github.com/Jvjesus89/ERPapp/internal/repository"
	"github.com/Jvjesus89/ERPapp/internal/service"
	"github.com/Jvjesus89/ERPapp/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, creds credstore.Store, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	lookupClient := infra.NewOpenFoodFactsClient(cfg.LookupBaseURL)
	lookupCB := infra.NewCircuitBreaker(0, 0, 0)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	paymentRepo := repository.NewPaymentMethodRepository(db)
	financialRepo := repository.NewFinancialEntryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, creds, cfg)
	productSvc := service.NewProductService(productRepo, rdb, lookupClient, lookupCB)
	saleSvc := service.NewSaleService(
		saleRepo, customerRepo, productRepo, paymentRepo, financialRepo,
		service.NewRedisDraftStore(rdb), dispatcher,
	)
	financialSvc := service.NewFinancialService(financialRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	financialH := handler.NewFinancialHandler(financialSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/signup", authH.SignUp)
		auth.POST("/refresh", authH.Refresh)
		auth.GET("/device/support", authH.DeviceSupport)
		auth.POST("/device/enable", middleware.LoginRateLimiter(), authH.EnableDevice)
		auth.POST("/device/login", middleware.LoginRateLimiter(), authH.DeviceLogin)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.DELETE("/auth/device", authH.DisableDevice)

		products := v1.Group("/products")
		{
			products.GET("", productsH.List)
			products.POST("", productsH.Create)
			products.GET("/barcode/:code", productsH.LookupBarcode)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("/draft", salesH.StartDraft)
			sales.GET("/draft", salesH.GetDraft)
			sales.DELETE("/draft", salesH.CancelDraft)
			sales.PUT("/draft/lines", salesH.UpsertDraftLine)
			sales.DELETE("/draft/lines/:lineId", salesH.RemoveDraftLine)
			sales.POST("/draft/finalize", salesH.FinalizeDraft)

			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
			sales.DELETE("/:id", salesH.Delete)
			sales.POST("/:id/items", salesH.AddItem)
			sales.PUT("/:id/items/:itemId", salesH.UpdateItem)
			sales.DELETE("/:id/items/:itemId", salesH.RemoveItem)
			sales.POST("/:id/finalize", salesH.Finalize)
		}

		v1.GET("/payment-methods", salesH.ListPaymentMethods)
		v1.GET("/financial", financialH.List)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

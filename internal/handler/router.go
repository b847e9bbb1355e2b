package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	diagnosisHandler "github.com/zhouzirui/z-tongue/backend/internal/handler/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/handler/health"
	productHandler "github.com/zhouzirui/z-tongue/backend/internal/handler/product"
	middlewarePkg "github.com/zhouzirui/z-tongue/backend/internal/middleware"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	diagnosisService "github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

// ServiceName 出现在健康检查响应中
const ServiceName = "z-tongue"

// Dependencies 汇总路由需要的服务
type Dependencies struct {
	Diagnosis      *diagnosisService.Service
	Catalog        product.Store
	Checks         []health.Check
	AllowedOrigins []string
	MaxImageBytes  int
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "route not found: "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed: "+r.Method+" "+r.URL.Path)
	})

	healthHandler := health.New(ServiceName, deps.Diagnosis.InferenceEnabled, deps.Checks...)
	diagnosisRoutes := diagnosisHandler.New(deps.Diagnosis, deps.MaxImageBytes, logger.Named("diagnosis"))
	productRoutes := productHandler.New(deps.Catalog, deps.Diagnosis, logger.Named("product"))

	r.Route("/api", func(api chi.Router) {
		healthHandler.RegisterRoutes(api)
		diagnosisRoutes.RegisterRoutes(api)
		productRoutes.RegisterRoutes(api)
	})

	return r
}

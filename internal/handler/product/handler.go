package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/handler/respond"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Recommender 根据会话给出推荐商品
type Recommender interface {
	Recommendations(ctx context.Context, sessionID string, limit int) ([]product.Recommended, error)
}

// Handler 商品目录的HTTP处理器
type Handler struct {
	catalog     product.Store
	recommender Recommender
	logger      *zap.Logger
}

// New 创建商品处理器
func New(catalog product.Store, recommender Recommender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:     catalog,
		recommender: recommender,
		logger:      logger,
	}
}

// RegisterRoutes 注册商品相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.handleListProducts)
	r.Get("/products/categories", h.handleCategories)
	r.Get("/products/recommendations/{sessionId}", h.handleRecommendations)
	r.Get("/products/{id}", h.handleGetProduct)
}

// handleListProducts 按关键词、分类或全部列出商品
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseBounded(query.Get("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "limit "+err.Error())
		return
	}
	offset, err := parseBounded(query.Get("offset"), 0, 0, -1)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "offset "+err.Error())
		return
	}

	if keywords := splitKeywords(query.Get("keywords")); len(keywords) > 0 {
		items, err := h.catalog.SearchProducts(r.Context(), keywords, limit)
		if err != nil {
			h.catalogError(w, r, err)
			return
		}
		utils.RespondData(w, http.StatusOK, map[string]any{
			"products": items,
			"total":    len(items),
			"keywords": keywords,
		})
		return
	}

	opts := product.ListOptions{
		Category: strings.TrimSpace(query.Get("category")),
		Limit:    limit,
		Offset:   offset,
	}
	items, total, err := h.catalog.ListProducts(r.Context(), opts)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]any{
		"products": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleCategories 列出商品分类及数量
func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]any{"categories": categories})
}

// handleGetProduct 查询单个商品
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	item, ok, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "product not found")
		return
	}
	utils.RespondData(w, http.StatusOK, item)
}

// handleRecommendations 查询会话的推荐商品
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if h.recommender == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "recommendations unavailable")
		return
	}
	limit, err := parseBounded(r.URL.Query().Get("limit"), recommend.DefaultLimit, 1, maxPageSize)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "limit "+err.Error())
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	items, err := h.recommender.Recommendations(r.Context(), sessionID, limit)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	utils.RespondData(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"products":  items,
	})
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.logger, fmt.Errorf("%w: %v", recommend.ErrCatalog, err))
}

// parseBounded parses an optional integer. hi < 0 means unbounded.
func parseBounded(raw string, def, lo, hi int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if v < lo || (hi >= 0 && v > hi) {
		if hi < 0 {
			return 0, fmt.Errorf("must be at least %d", lo)
		}
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return v, nil
}

func splitKeywords(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '，' || r == ' ' || r == '\t'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

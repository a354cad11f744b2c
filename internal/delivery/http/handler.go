package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
	"github.com/beautycare/backend/internal/usecase"
)

const (
	serviceName     = "beautycare-backend"
	serviceVersion  = "1.0.0"
	defaultPageSize = 5
)

// CatalogAdmin is the catalog surface the handlers need
type CatalogAdmin interface {
	domain.CatalogReader
	Reload(ctx context.Context) error
	Loaded() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	profiles *usecase.ProfileBuilder
	selector *usecase.Selector
	carts    *usecase.CartService
	catalog  CatalogAdmin
	stats    domain.EventSummarizer
	pageSize int
}

// NewHandler creates a new HTTP handler. stats may be nil when analytics
// is disabled; the summary endpoint then answers 404.
func NewHandler(profiles *usecase.ProfileBuilder, selector *usecase.Selector, carts *usecase.CartService, catalog CatalogAdmin, stats domain.EventSummarizer) *Handler {
	return &Handler{
		profiles: profiles,
		selector: selector,
		carts:    carts,
		catalog:  catalog,
		stats:    stats,
		pageSize: defaultPageSize,
	}
}

// HealthCheck reports whether a catalog is loaded. Without one the service
// refuses selections, so health is 503 until the first successful load.
func (h *Handler) HealthCheck(c *gin.Context) {
	loaded := h.catalog != nil && h.catalog.Loaded()
	status, code := "healthy", http.StatusOK
	if !loaded {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	var version uint64
	if loaded {
		version = h.catalog.Snapshot().Version()
	}

	c.JSON(code, gin.H{
		"status":          status,
		"service":         serviceName,
		"version":         serviceVersion,
		"catalog_loaded":  loaded,
		"catalog_version": version,
	})
}

// PaletteRequest carries the color questionnaire
type PaletteRequest struct {
	UserID  string                 `json:"user_id" binding:"required"`
	Answers usecase.PaletteAnswers `json:"answers"`
}

// SkincareRequest carries the skincare questionnaire
type SkincareRequest struct {
	UserID  string                  `json:"user_id" binding:"required"`
	Answers usecase.SkincareAnswers `json:"answers"`
}

// BuildPalette handles POST /api/v1/profiles/palette
func (h *Handler) BuildPalette(c *gin.Context) {
	var req PaletteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	profile, err := h.profiles.BuildPalette(c.Request.Context(), req.UserID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// BuildSkincare handles POST /api/v1/profiles/skincare
func (h *Handler) BuildSkincare(c *gin.Context) {
	var req SkincareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	profile, err := h.profiles.BuildSkincare(c.Request.Context(), req.UserID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile handles GET /api/v1/profiles/:user_id
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SelectionRequest asks for a selection. Without an inline profile the
// user's stored profile is used.
type SelectionRequest struct {
	UserID  string              `json:"user_id" binding:"required"`
	Profile *domain.UserProfile `json:"profile,omitempty"`
}

// Select handles POST /api/v1/selections
func (h *Handler) Select(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	profile := req.Profile
	if profile == nil {
		var err error
		if profile, err = h.profiles.Get(ctx, req.UserID); err != nil {
			respondError(c, err)
			return
		}
	}
	profile.UserID = req.UserID

	result, err := h.selector.Select(ctx, *profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recommendations handles GET /api/v1/recommendations/:user_id/:category
func (h *Handler) Recommendations(c *gin.Context) {
	category, ok := domain.ParseCategory(c.Param("category"))
	if !ok {
		respondBadRequest(c, "Unknown category: "+c.Param("category"))
		return
	}

	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondBadRequest(c, "page must be a positive integer")
			return
		}
		page = n
	}

	listing, err := h.browse(c.Request.Context(), c.Param("user_id"), category, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Listing is a ranked page plus the callback token for the next one
type Listing struct {
	*usecase.RankedPage
	MoreToken string `json:"more_token,omitempty"`
}

func (h *Handler) browse(ctx context.Context, userID string, category domain.Category, page int) (*Listing, error) {
	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked, err := h.selector.Browse(ctx, *profile, category, page, h.pageSize)
	if err != nil {
		return nil, err
	}

	listing := &Listing{RankedPage: ranked}
	if ranked.HasMore {
		token, err := domain.RecMoreToken(category, page+1)
		if err != nil {
			log.Warn().Err(err).Str("category", string(category)).Msg("Cannot render next page token")
		}
		listing.MoreToken = token
	}
	return listing, nil
}

// ValidateLinksRequest lists outbound URLs to check
type ValidateLinksRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=100"`
}

// ValidateLinks handles POST /api/v1/affiliate/validate
func (h *Handler) ValidateLinks(c *gin.Context) {
	var req ValidateLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	validator := h.selector.Validator()
	verdicts := make([]usecase.LinkVerdict, 0, len(req.URLs))
	ok := 0
	for _, u := range req.URLs {
		v := validator.Validate(u)
		if v.OK() {
			ok++
		}
		verdicts = append(verdicts, v)
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(verdicts),
		"valid":    ok,
		"verdicts": verdicts,
	})
}

// ReloadCatalog handles POST /api/v1/admin/catalog/reload. A failed reload
// keeps serving the previous snapshot.
func (h *Handler) ReloadCatalog(c *gin.Context) {
	if err := h.catalog.Reload(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	snap := h.catalog.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":   "reloaded",
		"version":  snap.Version(),
		"products": len(snap.All()),
	})
}

// AnalyticsSummary handles GET /api/v1/admin/analytics/summary?window=24h
func (h *Handler) AnalyticsSummary(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:     ErrorInfo{Code: "ANALYTICS_DISABLED", Message: "Analytics is disabled"},
			RequestID: c.GetString("request_id"),
		})
		return
	}

	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondBadRequest(c, "window must be a positive duration such as 1h or 30m")
			return
		}
		window = d
	}

	c.JSON(http.StatusOK, h.stats.Summary(window))
}

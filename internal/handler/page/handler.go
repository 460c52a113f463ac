package page

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayurcare/clinic-api/internal/middleware"
	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	Get(ctx context.Context, slug string) (*model.Page, error)
	List(ctx context.Context) ([]*model.Page, error)
	Save(ctx context.Context, slug string, req *model.PageRequest) (*model.Page, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/pages/:slug", middleware.Cache(middleware.PublicContentCacheConfig()), h.Get)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	pages := r.Group("/pages")
	{
		pages.GET("", h.List)
		pages.GET("/:slug", h.Get)
		pages.PUT("/:slug", h.Save)
	}
}

func (h *Handler) Get(c *gin.Context) {
	page, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, page)
}

func (h *Handler) List(c *gin.Context) {
	pages, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, pages)
}

func (h *Handler) Save(c *gin.Context) {
	var req model.PageRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	page, err := h.service.Save(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "Page saved", page)
}

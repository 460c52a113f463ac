package catalog

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/middleware"
	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	Snapshot(ctx context.Context) (*model.Catalog, error)
	ListServices(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	CreateService(ctx context.Context, req *model.ServiceRequest) (*model.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, req *model.ServiceRequest) (*model.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*model.Service, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	cached := middleware.Cache(middleware.PublicContentCacheConfig())
	r.GET("/catalog", cached, h.Catalog)
	r.GET("/services", cached, h.ListPublic)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.GET("", h.ListAll)
		services.POST("", h.Create)
		services.GET("/:id", h.Get)
		services.PUT("/:id", h.Update)
		services.DELETE("/:id", h.Delete)
		services.PATCH("/:id/featured", h.ToggleFeatured)
	}
}

// Catalog returns every choice the booking form offers.
func (h *Handler) Catalog(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, snapshot)
}

func (h *Handler) ListPublic(c *gin.Context) {
	filter := model.ServiceFilter{
		Category:     c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
	}
	h.list(c, filter)
}

func (h *Handler) ListAll(c *gin.Context) {
	h.list(c, model.ServiceFilter{})
}

func (h *Handler) list(c *gin.Context, filter model.ServiceFilter) {
	services, err := h.service.ListServices(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, services)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "service")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	service, err := h.service.GetService(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, service)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.ServiceRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	service, err := h.service.CreateService(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, service)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "service")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.ServiceRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	service, err := h.service.UpdateService(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, service)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "service")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := httputil.RequireConfirmation(c, "deleting a service"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteService(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "Service deleted", nil)
}

func (h *Handler) ToggleFeatured(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "service")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	service, err := h.service.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, service)
}

package blog

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
	ListPublished(ctx context.Context, category string) ([]*model.BlogPost, error)
	GetPublished(ctx context.Context, slug string) (*model.BlogPost, error)
	ListAll(ctx context.Context) ([]*model.BlogPost, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error)
	Create(ctx context.Context, req *model.BlogPostRequest) (*model.BlogPost, error)
	Update(ctx context.Context, id uuid.UUID, req *model.BlogPostRequest) (*model.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TogglePublished(ctx context.Context, id uuid.UUID) (*model.BlogPost, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	blog := r.Group("/blog", middleware.Cache(middleware.PublicContentCacheConfig()))
	{
		blog.GET("", h.ListPublished)
		blog.GET("/:slug", h.GetPublished)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	posts := r.Group("/blog")
	{
		posts.GET("", h.ListAll)
		posts.POST("", h.Create)
		posts.GET("/:id", h.Get)
		posts.PUT("/:id", h.Update)
		posts.DELETE("/:id", h.Delete)
		posts.PATCH("/:id/published", h.TogglePublished)
	}
}

func (h *Handler) ListPublished(c *gin.Context) {
	posts, err := h.service.ListPublished(c.Request.Context(), c.Query("category"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, posts)
}

func (h *Handler) GetPublished(c *gin.Context) {
	post, err := h.service.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, post)
}

func (h *Handler) ListAll(c *gin.Context) {
	posts, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, posts)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "blog post")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	post, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, post)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.BlogPostRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	post, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, post)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "blog post")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.BlogPostRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	post, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, post)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "blog post")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := httputil.RequireConfirmation(c, "deleting a blog post"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "Blog post deleted", nil)
}

func (h *Handler) TogglePublished(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "blog post")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	post, err := h.service.TogglePublished(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, post)
}

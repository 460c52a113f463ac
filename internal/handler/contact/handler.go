package contact

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	Submit(ctx context.Context, req *model.ContactRequest) (*model.ContactMessage, error)
	List(ctx context.Context) ([]*model.ContactMessage, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/contact", h.Submit)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/contact-messages", h.List)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.ContactRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if _, err := h.service.Submit(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusCreated, "Thank you for your message. We will get back to you soon.", nil)
}

func (h *Handler) List(c *gin.Context) {
	messages, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, messages)
}

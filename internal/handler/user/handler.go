package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/me/profile", h.GetProfile)
	r.PUT("/me/profile", h.UpdateProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	identity := session.FromGin(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	identity := session.FromGin(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	var req model.UpdateProfileRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "Profile updated", user)
}

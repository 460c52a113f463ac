package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	SignUp(ctx context.Context, req *model.SignUpRequest) (*model.AuthResponse, error)
	SignIn(ctx context.Context, req *model.SignInRequest) (*model.AuthResponse, error)
	SignOut(ctx context.Context, identity *session.Identity) error
	Session(ctx context.Context, identity *session.Identity) (*model.User, error)
	RequestPasswordReset(ctx context.Context, req *model.PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req *model.PasswordResetConfirmRequest) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.SignUp)
		auth.POST("/sign-in", h.SignIn)
		auth.POST("/password-reset", h.RequestPasswordReset)
		auth.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-out", h.SignOut)
		auth.GET("/session", h.Session)
	}
}

func (h *Handler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, resp)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.svc.SignIn(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) SignOut(c *gin.Context) {
	identity := session.FromGin(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), identity); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "Signed out", nil)
}

// Session restores the signed-in user, e.g. after a page reload.
func (h *Handler) Session(c *gin.Context) {
	identity := session.FromGin(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	user, err := h.svc.Session(c.Request.Context(), identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"user": user, "expires_at": identity.ExpiresAt})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req model.PasswordResetRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "If an account exists for that email, reset instructions have been sent.", nil)
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req model.PasswordResetConfirmRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "Password updated. You can now sign in.", nil)
}

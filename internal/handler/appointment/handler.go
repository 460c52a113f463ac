package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type Service interface {
	Book(ctx context.Context, req *model.BookingRequest, identity *session.Identity) (*model.BookingConfirmation, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) (*model.StatusChange, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
	NextStatuses(ctx context.Context, id uuid.UUID) (*model.Appointment, []model.AppointmentStatus, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/appointments", h.Book)
}

func (h *Handler) RegisterPatientRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/appointments", h.ListMine)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	appointments := rg.Group("/appointments")
	{
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.GET("/:id/transitions", h.Transitions)
		appointments.PATCH("/:id/status", h.UpdateStatus)
		appointments.DELETE("/:id", h.Delete)
	}
}

// Book accepts the public intake form. The caller may be anonymous.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookingRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	confirmation, err := h.service.Book(c.Request.Context(), &req, session.FromGin(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusCreated, confirmation.Message, confirmation)
}

func (h *Handler) List(c *gin.Context) {
	filter, err := statusFilter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

type transitionsResponse struct {
	Appointment *model.Appointment        `json:"appointment"`
	Next        []model.AppointmentStatus `json:"next_statuses"`
}

func (h *Handler) Transitions(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, next, err := h.service.NextStatuses(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, transitionsResponse{Appointment: appointment, Next: next})
}

type mutationResponse struct {
	Appointment  *model.StatusChange   `json:"appointment,omitempty"`
	Appointments *[]*model.Appointment `json:"appointments,omitempty"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.StatusUpdateRequest
	if err := httputil.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	view, err := refreshFilter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	change, err := h.service.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp := mutationResponse{Appointment: change}
	h.refresh(c, view, &resp)
	httputil.RespondWithMessage(c, http.StatusOK, "Appointment status updated", resp)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := httputil.RequireConfirmation(c, "deleting an appointment"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	view, err := refreshFilter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var resp mutationResponse
	h.refresh(c, view, &resp)
	httputil.RespondWithMessage(c, http.StatusOK, "Appointment deleted", resp)
}

// refreshFilter parses the optional ?status= view before any write, so a bad
// value is rejected while the appointment is still untouched.
func refreshFilter(c *gin.Context) (*model.AppointmentFilter, error) {
	if _, ok := c.GetQuery("status"); !ok {
		return nil, nil
	}
	filter, err := statusFilter(c)
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

// refresh attaches the re-fetched list for the filter the admin is viewing.
// The write has already committed, so a failed re-fetch is logged and the
// list is left out.
func (h *Handler) refresh(c *gin.Context, view *model.AppointmentFilter, resp *mutationResponse) {
	if view == nil {
		return
	}
	list, err := h.service.List(c.Request.Context(), *view)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("status", string(view.Status)).Msg("failed to re-fetch appointments after update")
		return
	}
	if list == nil {
		list = []*model.Appointment{}
	}
	resp.Appointments = &list
}

// ListMine returns the signed-in patient's own history.
func (h *Handler) ListMine(c *gin.Context) {
	identity := session.FromGin(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	appointments, err := h.service.ListForUser(c.Request.Context(), identity.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func statusFilter(c *gin.Context) (model.AppointmentFilter, error) {
	filter, ok := model.ParseStatusFilter(c.Query("status"))
	if !ok {
		return filter, apperrors.Validation(map[string]string{
			"status": "must be one of: all, pending, confirmed, completed, cancelled",
		})
	}
	return filter, nil
}

package dashboard

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

type AppointmentSummary interface {
	Summary(ctx context.Context) (model.StatusCounts, error)
}

// CountFunc returns the size of one content collection.
type CountFunc func(ctx context.Context) (int, error)

type Handler struct {
	appointments AppointmentSummary
	services     CountFunc
	posts        CountFunc
}

func NewHandler(appointments AppointmentSummary, services, posts CountFunc) *Handler {
	return &Handler{appointments: appointments, services: services, posts: posts}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Overview)
}

type overview struct {
	Appointments      model.StatusCounts `json:"appointments"`
	TotalAppointments int                `json:"total_appointments"`
	Services          int                `json:"services"`
	BlogPosts         int                `json:"blog_posts"`
}

// Overview backs the admin console's first tab.
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.appointments.Summary(ctx)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	services, err := h.services(ctx)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	posts, err := h.posts(ctx)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, overview{
		Appointments:      counts,
		TotalAppointments: counts.Total(),
		Services:          services,
		BlogPosts:         posts,
	})
}

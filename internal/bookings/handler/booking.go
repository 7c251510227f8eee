package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"nucleus/internal/bookings/service"
	apperrors "nucleus/pkg/errors"
	httputil "nucleus/pkg/http"
	"nucleus/pkg/logger"
	"nucleus/pkg/middleware"
	"nucleus/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := middleware.UserID(r.Context())
	if requesterID == "" {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	// The requester is always the authenticated caller, whatever the body says.
	booking.RequesterID = requesterID

	if err := h.service.Create(r.Context(), &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !middleware.IsAdmin(r.Context()) {
		h.writeError(w, "GetAll", apperrors.Forbidden("Admin role required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *BookingHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := middleware.UserID(r.Context())
	if requesterID == "" {
		h.writeError(w, "GetMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	bookings, totalCount, err := h.service.ListByRequester(r.Context(), requesterID, limit, offset)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetMine", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	// A booking is visible to its requester and to admins only.
	if booking.RequesterID != middleware.UserID(r.Context()) && !middleware.IsAdmin(r.Context()) {
		h.writeError(w, "GetByID", apperrors.Forbidden("Not allowed to view this booking"))
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// UpdateStatus handles approval, rejection and cancellation. Admins may apply
// any legal transition; a requester may only cancel their own booking.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	actorID := middleware.UserID(r.Context())
	if actorID == "" {
		h.writeError(w, "UpdateStatus", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.BookingStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "UpdateStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if !middleware.IsAdmin(r.Context()) {
		if update.Status != model.StatusCancelled {
			h.writeError(w, "UpdateStatus", apperrors.Forbidden("Admin role required"))
			return
		}
		booking, err := h.service.GetByID(r.Context(), id)
		if err != nil {
			h.writeError(w, "UpdateStatus", err)
			return
		}
		if booking.RequesterID != actorID {
			h.writeError(w, "UpdateStatus", apperrors.Forbidden("Not allowed to cancel this booking"))
			return
		}
	}

	booking, err := h.service.UpdateStatus(r.Context(), id, &update, actorID)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "error", err)
	}
}

func (h *BookingHandler) ResourceCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("id")

	// No date lists every active booking of the resource.
	day, err := httputil.ExtractDate(r, "date")
	if err != nil {
		h.writeError(w, "ResourceCalendar", err)
		return
	}

	windows, err := h.service.ResourceCalendar(r.Context(), resourceID, day)
	if err != nil {
		h.writeError(w, "ResourceCalendar", err)
		return
	}

	if err := httputil.WriteSuccess(w, windows); err != nil {
		h.log.Error("failed to write success response", "handler", "ResourceCalendar", "error", err)
	}
}

func (h *BookingHandler) DaySlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("id")

	day, err := h.extractDay(r)
	if err != nil {
		h.writeError(w, "DaySlots", err)
		return
	}

	slots, err := h.service.DaySlots(r.Context(), resourceID, day)
	if err != nil {
		h.writeError(w, "DaySlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "DaySlots", "error", err)
	}
}

// extractDay resolves the date parameter for the slot grid, which always
// renders one concrete day and defaults to today.
func (h *BookingHandler) extractDay(r *http.Request) (time.Time, error) {
	day, err := httputil.ExtractDate(r, "date")
	if err != nil {
		return time.Time{}, err
	}
	if day == nil {
		return time.Now().UTC(), nil
	}
	return *day, nil
}

func (h *BookingHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/my", h.GetMine)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/status", h.UpdateStatus)
	router.GET("/api/v1/bookings/resource/:id", h.ResourceCalendar)
	router.GET("/api/v1/bookings/resource/:id/slots", h.DaySlots)
}

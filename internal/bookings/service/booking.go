package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "nucleus/internal/bookings/errors"
	"nucleus/internal/bookings/repository"
	"nucleus/internal/bookings/validator"
	"nucleus/internal/notify"
	"nucleus/pkg/config"
	apperrors "nucleus/pkg/errors"
	"nucleus/pkg/model"
	"nucleus/pkg/sanitizer"
)

// ResourceCatalog is the slice of the resource service the booking flow
// needs: resolving a resource to check availability and approval policy.
type ResourceCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Resource, error)
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate, actorID string) (*model.Booking, error)
	ResourceCalendar(ctx context.Context, resourceID string, day *time.Time) ([]*model.BookingWindow, error)
	DaySlots(ctx context.Context, resourceID string, day time.Time) ([]*model.Slot, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	catalog   ResourceCatalog
	validator *validator.BookingValidator
	emitter   *notify.Emitter
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	catalog ResourceCatalog,
	validator *validator.BookingValidator,
	emitter *notify.Emitter,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		catalog:   catalog,
		validator: validator,
		emitter:   emitter,
		cfg:       cfg,
	}
}

// Create books a resource for [StartTime, EndTime). The initial status is
// decided here, once, from the resource's approval policy; the booking never
// returns to pending afterwards. The conflict check and the insert run in
// one transaction under an advisory slot lock, so two concurrent requests
// for the same slot cannot both pass the check.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.Status = ""
	booking.AdminNote = ""

	// Range errors are caller mistakes, checked before anything is loaded.
	if !booking.StartTime.Before(booking.EndTime) {
		return apperrors.InvalidInput("EndTime must be after StartTime")
	}

	resource, err := s.catalog.GetByID(ctx, booking.ResourceID)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeNotFound {
			return apperrors.NotFoundWithID("Resource", booking.ResourceID)
		}
		return err
	}

	if !resource.IsAvailable {
		return apperrors.Conflict("Resource is not available for booking")
	}

	booking.Status = s.initialStatus(resource)

	if err := s.validate(booking); err != nil {
		return err
	}

	lockID, err := s.acquireSlotLock(ctx, booking.ResourceID, booking.StartTime)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflict(sessCtx, booking, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"resource_id", booking.ResourceID,
			"requester_id", booking.RequesterID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_id", booking.ResourceID,
		"requester_id", booking.RequesterID,
		"status", booking.Status,
		"start_time", booking.StartTime,
	)

	s.emitter.Record(booking.RequesterID, notify.ActionBookingCreated, "booking", booking.ID, map[string]string{
		"resource_id": booking.ResourceID,
		"status":      booking.Status,
	})
	if booking.Status == model.StatusApproved {
		s.emitter.Notify(booking.RequesterID, "Booking confirmed",
			fmt.Sprintf("Your booking of %s is confirmed for %s.", resource.Name, booking.StartTime.Format(time.RFC1123)),
			model.SeveritySuccess)
	} else {
		s.emitter.Notify(booking.RequesterID, "Booking request received",
			fmt.Sprintf("Your booking request for %s is pending approval.", resource.Name),
			model.SeverityInfo)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(sharedCtx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(sharedCtx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if requesterID == "" {
		return nil, 0, apperrors.Unauthorized("Requester identity is required")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByRequester(sharedCtx, requesterID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings by requester", "requester_id", requesterID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByRequester(sharedCtx, requesterID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings by requester", "requester_id", requesterID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

// UpdateStatus applies a lifecycle transition. Approval re-runs the conflict
// check (excluding the booking itself) inside a transaction: the world may
// have changed since the request entered the queue, and approving over an
// existing approved booking would break the no-overlap invariant.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate, actorID string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	update.AdminNote = sanitizer.Line(update.AdminNote, 500)
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking status update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Status == update.Status {
		return existing, nil
	}

	if !model.CanTransition(existing.Status, update.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Cannot change booking status from %s to %s", existing.Status, update.Status,
		))
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if update.Status == model.StatusApproved {
			if err := s.verifyNoConflict(sessCtx, existing, existing.ID); err != nil {
				return err
			}
		}
		if _, err := s.repo.UpdateStatus(sessCtx, id, update.Status, update.AdminNote); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to update booking status", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking status",
			"id", id,
			"from", existing.Status,
			"to", update.Status,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"from", existing.Status,
		"to", update.Status,
		"actor_id", actorID,
	)

	existing.Status = update.Status
	if update.AdminNote != "" {
		existing.AdminNote = update.AdminNote
	}

	s.emitter.Record(actorID, notify.ActionBookingStatusChanged, "booking", id, map[string]string{
		"status": update.Status,
	})
	s.notifyStatusChange(existing, update)

	return existing, nil
}

// ResourceCalendar returns the active booking windows of a resource. With a
// day, only windows touching that calendar day; without one, all of them.
func (s *bookingService) ResourceCalendar(ctx context.Context, resourceID string, day *time.Time) ([]*model.BookingWindow, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	if _, err := s.catalog.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}

	var dayStart, dayEnd *time.Time
	if day != nil {
		start, end := dayBounds(*day)
		dayStart, dayEnd = &start, &end
	}

	windows, err := s.repo.FindByResourceWindow(ctx, resourceID, dayStart, dayEnd)
	if err != nil {
		s.cfg.Log.Error("Failed to load resource calendar",
			"resource_id", resourceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return windows, nil
}

// DaySlots renders the day as a grid of fixed-duration slots and marks each
// slot unavailable when any active booking overlaps it. The grid is a
// display aid; Create remains the authority on conflicts.
func (s *bookingService) DaySlots(ctx context.Context, resourceID string, day time.Time) ([]*model.Slot, error) {
	windows, err := s.ResourceCalendar(ctx, resourceID, &day)
	if err != nil {
		return nil, err
	}

	dayStart, _ := dayBounds(day)
	gridStart, err := atClock(dayStart, s.cfg.SlotDayStart)
	if err != nil {
		return nil, apperrors.Internal("Invalid slot day start configuration", err)
	}
	gridEnd, err := atClock(dayStart, s.cfg.SlotDayEnd)
	if err != nil {
		return nil, apperrors.Internal("Invalid slot day end configuration", err)
	}

	step := time.Duration(s.cfg.SlotDurationMin) * time.Minute
	slots := make([]*model.Slot, 0)

	for start := gridStart; start.Add(step).Before(gridEnd) || start.Add(step).Equal(gridEnd); start = start.Add(step) {
		end := start.Add(step)
		available := true
		for _, w := range windows {
			if model.Overlaps(start, end, w.StartTime, w.EndTime) {
				available = false
				break
			}
		}
		slots = append(slots, &model.Slot{
			StartTime: start,
			EndTime:   end,
			Available: available,
		})
	}

	return slots, nil
}

// --- Helpers ---

// initialStatus keys on AutoApprove alone: a resource without auto-approval
// always yields a pending booking, whatever RequiresApproval says.
func (s *bookingService) initialStatus(resource *model.Resource) string {
	if resource.AutoApprove {
		return model.StatusApproved
	}
	return model.StatusPending
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) verifyNoConflict(ctx context.Context, booking *model.Booking, excludeID string) error {
	conflicting, err := s.repo.FindConflicting(ctx, booking.ResourceID, booking.StartTime, booking.EndTime, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range conflicting {
		if model.Overlaps(b.StartTime, b.EndTime, booking.StartTime, booking.EndTime) {
			return apperrors.Conflict("Resource is already booked for this time slot").WithDetails(map[string]any{
				"conflicting_start": b.StartTime.Format(time.RFC3339),
				"conflicting_end":   b.EndTime.Format(time.RFC3339),
			})
		}
	}
	return nil
}

// acquireSlotLock creates an advisory lock for one resource slot. Returns a
// conflict error if another request currently holds the slot.
func (s *bookingService) acquireSlotLock(ctx context.Context, resourceID string, startTime time.Time) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s_%d", resourceID, startTime.Unix())

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *bookingService) notifyStatusChange(booking *model.Booking, update *model.BookingStatusUpdate) {
	switch update.Status {
	case model.StatusApproved:
		s.emitter.Notify(booking.RequesterID, "Booking approved",
			fmt.Sprintf("Your booking for %s has been approved.", booking.StartTime.Format(time.RFC1123)),
			model.SeveritySuccess)
	case model.StatusRejected:
		message := "Your booking request has been rejected."
		if update.AdminNote != "" {
			message = fmt.Sprintf("Your booking request has been rejected: %s", update.AdminNote)
		}
		s.emitter.Notify(booking.RequesterID, "Booking rejected", message, model.SeverityError)
	case model.StatusCancelled:
		s.emitter.Notify(booking.RequesterID, "Booking cancelled",
			fmt.Sprintf("Your booking for %s has been cancelled.", booking.StartTime.Format(time.RFC1123)),
			model.SeverityWarning)
	}
}

// dayBounds returns the inclusive window covering one calendar day in UTC.
// The end bound is the last representable millisecond of the day, matching
// the $lte/$gte window query.
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

func atClock(dayStart time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return dayStart.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

package service

import (
	"context"
	"io"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"nucleus/internal/bookings/validator"
	"nucleus/internal/notify"
	"nucleus/pkg/config"
	mongotx "nucleus/pkg/db/mongo"
	apperrors "nucleus/pkg/errors"
	"nucleus/pkg/logger"
	"nucleus/pkg/model"
)

const (
	testResourceID  = "507f1f77bcf86cd799439011"
	testRequesterID = "507f1f77bcf86cd799439012"
	testBookingID   = "507f1f77bcf86cd799439013"
)

// --- Mocks ---

type mockBookingRepo struct {
	createFn         func(ctx context.Context, booking *model.Booking) error
	findByIDFn       func(ctx context.Context, id string) (*model.Booking, error)
	findConflictFn   func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error)
	findWindowFn     func(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error)
	updateStatusFn   func(ctx context.Context, id string, status string, adminNote string) (*mongo.UpdateResult, error)
	createCalls      int
	updateStatusCall int
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, booking)
	}
	booking.ID = testBookingID
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockBookingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) CountByRequester(ctx context.Context, requesterID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) FindConflicting(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findConflictFn != nil {
		return m.findConflictFn(ctx, resourceID, start, end, excludeID)
	}
	return nil, nil
}

func (m *mockBookingRepo) FindByResourceWindow(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error) {
	if m.findWindowFn != nil {
		return m.findWindowFn(ctx, resourceID, dayStart, dayEnd)
	}
	return nil, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status string, adminNote string) (*mongo.UpdateResult, error) {
	m.updateStatusCall++
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, adminNote)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepo struct {
	createFn    func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleteCalls int
}

func (m *mockLockRepo) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFn != nil {
		return m.createFn(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepo) Delete(ctx context.Context, lockID string) error {
	m.deleteCalls++
	return nil
}

type mockCatalog struct {
	resource *model.Resource
	err      error
	calls    int
}

func (m *mockCatalog) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resource, nil
}

// --- Fixtures ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:             logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		BookingLockTTL:  10 * time.Second,
		SlotDayStart:    "09:00",
		SlotDayEnd:      "18:00",
		SlotDurationMin: 60,
	}
}

func newTestService(t *testing.T, repo *mockBookingRepo, locks *mockLockRepo, catalog *mockCatalog) BookingService {
	t.Helper()
	cfg := testConfig(t)
	return NewBookingService(
		repo,
		locks,
		catalog,
		validator.NewBookingValidator(cfg.Log),
		notify.NewEmitter(nil, nil, "test", cfg.Log),
		cfg,
	)
}

func availableResource() *model.Resource {
	return &model.Resource{
		ID:               testResourceID,
		Name:             "Main Hall",
		Type:             model.TypeHall,
		IsAvailable:      true,
		RequiresApproval: true,
	}
}

func newBooking(start, end time.Time) *model.Booking {
	return &model.Booking{
		ResourceID:  testResourceID,
		RequesterID: testRequesterID,
		StartTime:   start,
		EndTime:     end,
	}
}

func slot(hour int) time.Time {
	return time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC)
}

func assertAppErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != wantCode {
		t.Fatalf("error code = %s, want %s (err: %v)", appErr.Code, wantCode, err)
	}
}

// --- Create ---

func TestCreatePendingWhenApprovalRequired(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	booking := newBooking(slot(10), slot(11))
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if booking.Status != model.StatusPending {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusPending)
	}
	if repo.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", repo.createCalls)
	}
}

func TestCreateAutoApproved(t *testing.T) {
	resource := availableResource()
	resource.AutoApprove = true

	repo := &mockBookingRepo{}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: resource})

	booking := newBooking(slot(10), slot(11))
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if booking.Status != model.StatusApproved {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusApproved)
	}
}

func TestCreatePendingWithoutAutoApprove(t *testing.T) {
	// Only AutoApprove grants immediate approval. RequiresApproval=false on
	// its own still yields a pending booking.
	resource := availableResource()
	resource.RequiresApproval = false
	resource.AutoApprove = false

	repo := &mockBookingRepo{}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: resource})

	booking := newBooking(slot(10), slot(11))
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if booking.Status != model.StatusPending {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusPending)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := &mockBookingRepo{
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			return []*model.Booking{
				{StartTime: slot(10), EndTime: slot(12), Status: model.StatusApproved},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	err := svc.Create(context.Background(), newBooking(slot(11), slot(13)))
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	if repo.createCalls != 0 {
		t.Errorf("create calls = %d, want 0: nothing must be persisted on conflict", repo.createCalls)
	}
}

func TestCreateAllowsBackToBackBookings(t *testing.T) {
	repo := &mockBookingRepo{
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			// An adjacent booking sneaking past the range query must still
			// not count as a conflict.
			return []*model.Booking{
				{StartTime: slot(9), EndTime: slot(10), Status: model.StatusApproved},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	if err := svc.Create(context.Background(), newBooking(slot(10), slot(11))); err != nil {
		t.Fatalf("Create() error = %v, back-to-back bookings must be allowed", err)
	}
}

func TestCreateRejectsUnavailableResource(t *testing.T) {
	resource := availableResource()
	resource.IsAvailable = false

	repo := &mockBookingRepo{}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: resource})

	err := svc.Create(context.Background(), newBooking(slot(10), slot(11)))
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	if repo.createCalls != 0 {
		t.Errorf("create calls = %d, want 0", repo.createCalls)
	}
}

func TestCreateUnknownResource(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &mockCatalog{
		err: apperrors.NotFoundWithID("Resource", testResourceID),
	})

	err := svc.Create(context.Background(), newBooking(slot(10), slot(11)))
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestCreateRejectsInvalidRange(t *testing.T) {
	repo := &mockBookingRepo{}
	catalog := &mockCatalog{resource: availableResource()}
	svc := newTestService(t, repo, &mockLockRepo{}, catalog)

	// End before start.
	err := svc.Create(context.Background(), newBooking(slot(11), slot(10)))
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)

	// Zero-length interval.
	err = svc.Create(context.Background(), newBooking(slot(11), slot(11)))
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)

	if repo.createCalls != 0 {
		t.Errorf("create calls = %d, want 0: invalid input must not persist anything", repo.createCalls)
	}
	if catalog.calls != 0 {
		t.Errorf("catalog calls = %d, want 0: the range is checked before the resource is loaded", catalog.calls)
	}
}

func TestCreateInvalidRangeWinsOverUnavailableResource(t *testing.T) {
	resource := availableResource()
	resource.IsAvailable = false

	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &mockCatalog{resource: resource})

	err := svc.Create(context.Background(), newBooking(slot(11), slot(10)))
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
}

func TestCreateSlotLockContention(t *testing.T) {
	duplicateKey := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000}},
	}

	repo := &mockBookingRepo{}
	locks := &mockLockRepo{
		createFn: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, duplicateKey
		},
	}
	svc := newTestService(t, repo, locks, &mockCatalog{resource: availableResource()})

	err := svc.Create(context.Background(), newBooking(slot(10), slot(11)))
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	if repo.createCalls != 0 {
		t.Errorf("create calls = %d, want 0", repo.createCalls)
	}
	if locks.deleteCalls != 0 {
		t.Errorf("lock delete calls = %d, want 0: a lock we never held must not be released", locks.deleteCalls)
	}
}

func TestCreateReleasesLockAfterConflict(t *testing.T) {
	repo := &mockBookingRepo{
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			return []*model.Booking{
				{StartTime: slot(10), EndTime: slot(11), Status: model.StatusPending},
			}, nil
		},
	}
	locks := &mockLockRepo{}
	svc := newTestService(t, repo, locks, &mockCatalog{resource: availableResource()})

	_ = svc.Create(context.Background(), newBooking(slot(10), slot(11)))

	if locks.deleteCalls != 1 {
		t.Errorf("lock delete calls = %d, want 1", locks.deleteCalls)
	}
}

func TestCreatePendingBookingBlocksSlot(t *testing.T) {
	repo := &mockBookingRepo{
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			return []*model.Booking{
				{StartTime: slot(10), EndTime: slot(11), Status: model.StatusPending},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	err := svc.Create(context.Background(), newBooking(slot(10), slot(11)))
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// --- UpdateStatus ---

func pendingBooking() *model.Booking {
	return &model.Booking{
		ID:          testBookingID,
		ResourceID:  testResourceID,
		RequesterID: testRequesterID,
		StartTime:   slot(10),
		EndTime:     slot(11),
		Status:      model.StatusPending,
	}
}

func TestUpdateStatusApprove(t *testing.T) {
	var gotExclude string
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(), nil
		},
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			gotExclude = excludeID
			return nil, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	booking, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusApproved}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if booking.Status != model.StatusApproved {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusApproved)
	}
	if gotExclude != testBookingID {
		t.Errorf("conflict check excludeID = %q, want %q: a booking must not conflict with itself", gotExclude, testBookingID)
	}
	if repo.updateStatusCall != 1 {
		t.Errorf("update calls = %d, want 1", repo.updateStatusCall)
	}
}

func TestUpdateStatusApproveRechecksConflicts(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(), nil
		},
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			// Another booking was approved for the slot while this one sat
			// in the queue.
			return []*model.Booking{
				{ID: "507f1f77bcf86cd799439099", StartTime: slot(10), EndTime: slot(11), Status: model.StatusApproved},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	_, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusApproved}, "admin-1")
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	if repo.updateStatusCall != 0 {
		t.Errorf("update calls = %d, want 0: approval over a conflict must not persist", repo.updateStatusCall)
	}
}

func TestUpdateStatusRejectSkipsConflictCheck(t *testing.T) {
	conflictChecks := 0
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(), nil
		},
		findConflictFn: func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
			conflictChecks++
			return nil, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	booking, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusRejected, AdminNote: "double booked"}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if booking.Status != model.StatusRejected {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusRejected)
	}
	if conflictChecks != 0 {
		t.Errorf("conflict checks = %d, want 0: rejection needs no conflict check", conflictChecks)
	}
}

func TestUpdateStatusTerminalStatesAreImmutable(t *testing.T) {
	for _, terminal := range []string{model.StatusRejected, model.StatusCancelled} {
		repo := &mockBookingRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
				b := pendingBooking()
				b.Status = terminal
				return b, nil
			},
		}
		svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

		_, err := svc.UpdateStatus(context.Background(), testBookingID,
			&model.BookingStatusUpdate{Status: model.StatusApproved}, "admin-1")
		assertAppErrorCode(t, err, apperrors.CodeConflict)

		if repo.updateStatusCall != 0 {
			t.Errorf("update calls from %s = %d, want 0", terminal, repo.updateStatusCall)
		}
	}
}

func TestUpdateStatusApprovedCanOnlyBeCancelled(t *testing.T) {
	approved := pendingBooking()
	approved.Status = model.StatusApproved

	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			b := *approved
			return &b, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	_, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusRejected}, "admin-1")
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	booking, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusCancelled}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateStatus(cancelled) error = %v", err)
	}
	if booking.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusCancelled)
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(), nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	booking, err := svc.UpdateStatus(context.Background(), testBookingID,
		&model.BookingStatusUpdate{Status: model.StatusPending}, "admin-1")
	if err == nil {
		// Pending is not a legal target in the payload; the validator
		// rejects it before the repository is touched.
		t.Fatalf("UpdateStatus(pending) expected validation error, got booking %+v", booking)
	}
	assertAppErrorCode(t, err, apperrors.CodeValidation)
	if repo.updateStatusCall != 0 {
		t.Errorf("update calls = %d, want 0", repo.updateStatusCall)
	}
}

// --- Availability ---

func TestDaySlotsMarksBookedHours(t *testing.T) {
	repo := &mockBookingRepo{
		findWindowFn: func(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error) {
			if dayStart == nil || dayEnd == nil {
				t.Error("slot grid must query a bounded day window")
			}
			return []*model.BookingWindow{
				{StartTime: slot(10), EndTime: slot(12), Status: model.StatusApproved},
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	slots, err := svc.DaySlots(context.Background(), testResourceID, slot(0))
	if err != nil {
		t.Fatalf("DaySlots() error = %v", err)
	}

	// 09:00-18:00 at 60 minutes is nine slots.
	if len(slots) != 9 {
		t.Fatalf("len(slots) = %d, want 9", len(slots))
	}

	for _, s := range slots {
		wantAvailable := !(s.StartTime.Hour() == 10 || s.StartTime.Hour() == 11)
		if s.Available != wantAvailable {
			t.Errorf("slot %s available = %v, want %v", s.StartTime.Format("15:04"), s.Available, wantAvailable)
		}
	}
}

func TestResourceCalendarWithoutDayListsAllActive(t *testing.T) {
	all := []*model.BookingWindow{
		{StartTime: slot(10), EndTime: slot(11), Status: model.StatusApproved},
		{StartTime: slot(10).AddDate(0, 0, 7), EndTime: slot(11).AddDate(0, 0, 7), Status: model.StatusPending},
	}
	repo := &mockBookingRepo{
		findWindowFn: func(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error) {
			if dayStart != nil || dayEnd != nil {
				t.Errorf("day bounds = (%v, %v), want nil: no date means no day filter", dayStart, dayEnd)
			}
			return all, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	windows, err := svc.ResourceCalendar(context.Background(), testResourceID, nil)
	if err != nil {
		t.Fatalf("ResourceCalendar() error = %v", err)
	}
	if len(windows) != len(all) {
		t.Errorf("len(windows) = %d, want %d", len(windows), len(all))
	}
}

func TestResourceCalendarWithDayQueriesDayBounds(t *testing.T) {
	repo := &mockBookingRepo{
		findWindowFn: func(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error) {
			if dayStart == nil || dayEnd == nil {
				t.Fatal("expected day bounds for a dated query")
			}
			if !dayStart.Equal(slot(0)) {
				t.Errorf("dayStart = %v, want %v", dayStart, slot(0))
			}
			if !dayEnd.After(*dayStart) {
				t.Errorf("dayEnd = %v, must be after dayStart", dayEnd)
			}
			return nil, nil
		},
	}
	svc := newTestService(t, repo, &mockLockRepo{}, &mockCatalog{resource: availableResource()})

	day := slot(0)
	if _, err := svc.ResourceCalendar(context.Background(), testResourceID, &day); err != nil {
		t.Fatalf("ResourceCalendar() error = %v", err)
	}
}

func TestResourceCalendarUnknownResource(t *testing.T) {
	svc := newTestService(t, &mockBookingRepo{}, &mockLockRepo{}, &mockCatalog{
		err: apperrors.NotFoundWithID("Resource", testResourceID),
	})

	_, err := svc.ResourceCalendar(context.Background(), testResourceID, nil)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

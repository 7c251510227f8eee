package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"nucleus/internal/notify"
	resourceerrors "nucleus/internal/resources/errors"
	"nucleus/internal/resources/validator"
	"nucleus/pkg/config"
	mongotx "nucleus/pkg/db/mongo"
	apperrors "nucleus/pkg/errors"
	"nucleus/pkg/logger"
	"nucleus/pkg/model"
)

const testResourceID = "507f1f77bcf86cd799439011"

type mockResourceRepo struct {
	createFn    func(ctx context.Context, res *model.Resource) error
	findByIDFn  func(ctx context.Context, id string) (*model.Resource, error)
	updateFn    func(ctx context.Context, id string, res *model.Resource) (*mongo.UpdateResult, error)
	deleteFn    func(ctx context.Context, id string) error
	findAllFn   func(ctx context.Context, limit int, offset int64) ([]*model.Resource, error)
	countFn     func(ctx context.Context) (int64, error)
	createCalls int
}

func (m *mockResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, res)
	}
	res.ID = testResourceID
	return nil
}

func (m *mockResourceRepo) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockResourceRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockResourceRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockResourceRepo) Update(ctx context.Context, id string, res *model.Resource) (*mongo.UpdateResult, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, res)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockResourceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockResourceRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func newTestService(t *testing.T, repo *mockResourceRepo) ResourceService {
	t.Helper()
	cfg := &config.Config{
		Log:          logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	return NewResourceService(
		repo,
		validator.NewResourceValidator(cfg.Log),
		notify.NewEmitter(nil, nil, "test", cfg.Log),
		cfg,
	)
}

func validResource() *model.Resource {
	return &model.Resource{
		Name:             "Physics Lab",
		Type:             model.TypeLab,
		Capacity:         30,
		IsAvailable:      true,
		RequiresApproval: true,
	}
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

func TestCreateResource(t *testing.T) {
	repo := &mockResourceRepo{}
	svc := newTestService(t, repo)

	res := validResource()
	if err := svc.Create(context.Background(), res); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.ID != testResourceID {
		t.Errorf("ID = %q, want %q", res.ID, testResourceID)
	}
}

func TestCreateSanitizesName(t *testing.T) {
	repo := &mockResourceRepo{}
	svc := newTestService(t, repo)

	res := validResource()
	res.Name = "  Physics \t Lab  "
	if err := svc.Create(context.Background(), res); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.Name != "Physics Lab" {
		t.Errorf("Name = %q, want %q", res.Name, "Physics Lab")
	}
}

func TestCreateRejectsInvalidType(t *testing.T) {
	repo := &mockResourceRepo{}
	svc := newTestService(t, repo)

	res := validResource()
	res.Type = "spaceship"
	err := svc.Create(context.Background(), res)
	assertAppErrorCode(t, err, apperrors.CodeValidation)

	if repo.createCalls != 0 {
		t.Errorf("create calls = %d, want 0", repo.createCalls)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	repo := &mockResourceRepo{
		createFn: func(ctx context.Context, res *model.Resource) error {
			return fmt.Errorf("%w: %s", resourceerrors.ErrDuplicateName, res.Name)
		},
	}
	svc := newTestService(t, repo)

	err := svc.Create(context.Background(), validResource())
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			return nil, fmt.Errorf("%w: %s", resourceerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.GetByID(context.Background(), testResourceID)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestGetByIDInvalidID(t *testing.T) {
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			return nil, fmt.Errorf("%w: %s", resourceerrors.ErrInvalidID, id)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.GetByID(context.Background(), "not-an-object-id")
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	existing := validResource()
	existing.ID = testResourceID
	existing.CreatedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	var persisted *model.Resource
	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			cp := *existing
			return &cp, nil
		},
		updateFn: func(ctx context.Context, id string, res *model.Resource) (*mongo.UpdateResult, error) {
			persisted = res
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(t, repo)

	autoApprove := true
	capacity := 45
	updated, err := svc.Update(context.Background(), testResourceID, &model.ResourceUpdate{
		AutoApprove: &autoApprove,
		Capacity:    &capacity,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if persisted == nil {
		t.Fatal("expected repository update to be called")
	}
	if !updated.AutoApprove || updated.Capacity != 45 {
		t.Errorf("updated fields not applied: %+v", updated)
	}
	if updated.Name != existing.Name || updated.Type != existing.Type {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(existing.CreatedAt) {
		t.Errorf("CreatedAt changed on update")
	}
}

func TestUpdateRejectsInvalidMergedState(t *testing.T) {
	existing := validResource()
	existing.ID = testResourceID

	repo := &mockResourceRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Resource, error) {
			cp := *existing
			return &cp, nil
		},
	}
	svc := newTestService(t, repo)

	shortName := "x"
	_, err := svc.Update(context.Background(), testResourceID, &model.ResourceUpdate{
		Name: &shortName,
	})
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestDeleteNotFound(t *testing.T) {
	repo := &mockResourceRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return fmt.Errorf("%w: %s", resourceerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(t, repo)

	err := svc.Delete(context.Background(), testResourceID)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestGetAllNormalizesPagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	repo := &mockResourceRepo{
		findAllFn: func(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Resource{}, nil
		},
		countFn: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	if _, _, err := svc.GetAll(context.Background(), -5, -10); err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if gotLimit <= 0 {
		t.Errorf("limit = %d, want a positive default", gotLimit)
	}
	if gotOffset != 0 {
		t.Errorf("offset = %d, want 0", gotOffset)
	}
}

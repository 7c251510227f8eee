package service

import (
	"context"
	"errors"
	"sync"

	resourceerrors "nucleus/internal/resources/errors"
	"nucleus/internal/resources/repository"
	"nucleus/internal/resources/validator"
	"nucleus/pkg/config"
	apperrors "nucleus/pkg/errors"
	"nucleus/pkg/middleware"
	"nucleus/pkg/model"
	"nucleus/pkg/sanitizer"

	"nucleus/internal/notify"
)

type ResourceService interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error)
	Update(ctx context.Context, id string, updates *model.ResourceUpdate) (*model.Resource, error)
	Delete(ctx context.Context, id string) error
}

type resourceService struct {
	repo      repository.ResourceRepository
	validator *validator.ResourceValidator
	emitter   *notify.Emitter
	cfg       *config.Config
}

func NewResourceService(
	repo repository.ResourceRepository,
	validator *validator.ResourceValidator,
	emitter *notify.Emitter,
	cfg *config.Config,
) ResourceService {
	return &resourceService{
		repo:      repo,
		validator: validator,
		emitter:   emitter,
		cfg:       cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, res *model.Resource) error {
	s.sanitize(res)

	if err := s.validator.Validate(res); err != nil {
		s.cfg.Log.Warn("Resource validation failed",
			"name", res.Name,
			"type", res.Type,
			"error", err,
		)
		return apperrors.Validation("Resource validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, resourceerrors.ErrDuplicateName) {
			return apperrors.Conflict("Resource with this name already exists")
		}
		s.cfg.Log.Error("Failed to create resource",
			"name", res.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully",
		"id", res.ID,
		"name", res.Name,
		"type", res.Type,
	)
	s.record(ctx, notify.ActionResourceCreated, res.ID, map[string]string{"name": res.Name})
	return nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid resource ID format")
		}
		s.cfg.Log.Error("Failed to get resource by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}

	return res, nil
}

func (s *resourceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count resources", "error", err)
			errCount = apperrors.Internal("Failed to count resources", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		resources, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list resources",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve resources", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return resources, count, nil
}

func (s *resourceService) Update(ctx context.Context, id string, updates *model.ResourceUpdate) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeUpdates(existing, updates)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Resource validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Resource validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, resourceerrors.ErrDuplicateName) {
			return nil, apperrors.Conflict("Resource with this name already exists")
		}
		if errors.Is(err, resourceerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to update resource",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update resource", err)
	}

	s.cfg.Log.Info("Resource updated successfully", "id", id, "name", merged.Name)
	s.record(ctx, notify.ActionResourceUpdated, id, map[string]string{"name": merged.Name})
	return merged, nil
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Resource ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, resourceerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		s.cfg.Log.Error("Failed to delete resource",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete resource", err)
	}

	s.cfg.Log.Info("Resource deleted successfully", "id", id)
	s.record(ctx, notify.ActionResourceDeleted, id, nil)
	return nil
}

func (s *resourceService) sanitize(res *model.Resource) {
	res.Name = sanitizer.Line(res.Name, 100)
	res.Description = sanitizer.Text(res.Description)
}

func (s *resourceService) sanitizeUpdate(updates *model.ResourceUpdate) {
	if updates.Name != nil {
		name := sanitizer.Line(*updates.Name, 100)
		updates.Name = &name
	}
	if updates.Description != nil {
		desc := sanitizer.Text(*updates.Description)
		updates.Description = &desc
	}
}

func (s *resourceService) mergeUpdates(existing *model.Resource, updates *model.ResourceUpdate) *model.Resource {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Type != nil {
		merged.Type = *updates.Type
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.IsAvailable != nil {
		merged.IsAvailable = *updates.IsAvailable
	}
	if updates.RequiresApproval != nil {
		merged.RequiresApproval = *updates.RequiresApproval
	}
	if updates.AutoApprove != nil {
		merged.AutoApprove = *updates.AutoApprove
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.ImageURL != nil {
		merged.ImageURL = *updates.ImageURL
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}

func (s *resourceService) record(ctx context.Context, action, targetID string, details map[string]string) {
	if s.emitter == nil {
		return
	}
	actor := middleware.UserID(ctx)
	if actor == "" {
		actor = "system"
	}
	s.emitter.Record(actor, action, "resource", targetID, details)
}

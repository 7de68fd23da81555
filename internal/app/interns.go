package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/internboard/internal/adapters/repository"
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/types"
	"github.com/okian/internboard/pkg/logger"
)

// roster returns the fresh snapshot or refetches it from the backend.
func (s *Service) roster(ctx context.Context) ([]model.Intern, error) {
	if interns, ok := s.store.List(ctx); ok {
		return interns, nil
	}
	gen := s.store.Generation(ctx)
	interns, err := s.backend.ListInterns(ctx)
	if err != nil {
		return nil, err
	}
	if !s.store.ReplaceIfGeneration(ctx, gen, interns) {
		// A write landed while fetching; serve this result once but keep it
		// out of the snapshot.
		s.logger.Debug(ctx, "roster fetch superseded", logger.Int("interns", len(interns)))
		return interns, nil
	}
	s.logger.Debug(ctx, "roster refreshed", logger.Int("interns", len(interns)))
	return interns, nil
}

// ListInterns returns one page of tier-annotated interns matching q.
func (s *Service) ListInterns(ctx context.Context, q roster.Query) (types.Page, error) {
	if err := s.running(); err != nil {
		return types.Page{}, err
	}
	interns, err := s.roster(ctx)
	if err != nil {
		return types.Page{}, fmt.Errorf("list interns: %w", err)
	}
	page := s.view.Apply(interns, q)
	for i := range page.Items {
		recordTier(page.Items[i].Tier)
	}
	return page, nil
}

// RefreshRoster drops the roster snapshot so the next read refetches.
func (s *Service) RefreshRoster(ctx context.Context) error {
	if err := s.running(); err != nil {
		return err
	}
	s.store.Invalidate(ctx)
	return nil
}

// GetIntern returns one intern with its tier.
func (s *Service) GetIntern(ctx context.Context, id string) (types.Row, error) {
	if err := s.running(); err != nil {
		return types.Row{}, err
	}
	in, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrStale) || errors.Is(err, repository.ErrNotFound) {
		in, err = s.backend.GetIntern(ctx, id)
	}
	if err != nil {
		return types.Row{}, fmt.Errorf("get intern %s: %w", id, err)
	}
	row := s.view.Row(in)
	recordTier(row.Tier)
	return row, nil
}

// CreateIntern validates in and creates the intern on the backend.
func (s *Service) CreateIntern(ctx context.Context, in model.InternInput) (types.Row, error) {
	if err := s.running(); err != nil {
		return types.Row{}, err
	}
	if err := s.validator.Intern(&in); err != nil {
		return types.Row{}, err
	}
	created, err := s.backend.CreateIntern(ctx, in)
	if err != nil {
		return types.Row{}, fmt.Errorf("create intern: %w", err)
	}
	s.store.Upsert(ctx, created)
	s.logger.Info(ctx, "intern created", logger.String("id", created.ID))
	return s.view.Row(created), nil
}

// UpdateIntern validates in and updates the intern on the backend.
func (s *Service) UpdateIntern(ctx context.Context, id string, in model.InternInput) (types.Row, error) {
	if err := s.running(); err != nil {
		return types.Row{}, err
	}
	if err := s.validator.Intern(&in); err != nil {
		return types.Row{}, err
	}
	updated, err := s.backend.UpdateIntern(ctx, id, in)
	if err != nil {
		return types.Row{}, fmt.Errorf("update intern %s: %w", id, err)
	}
	s.store.Upsert(ctx, updated)
	s.logger.Info(ctx, "intern updated", logger.String("id", id))
	return s.view.Row(updated), nil
}

// DeleteIntern removes the intern on the backend.
func (s *Service) DeleteIntern(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := s.backend.DeleteIntern(ctx, id); err != nil {
		return fmt.Errorf("delete intern %s: %w", id, err)
	}
	s.store.Remove(ctx, id)
	s.logger.Info(ctx, "intern deleted", logger.String("id", id))
	return nil
}

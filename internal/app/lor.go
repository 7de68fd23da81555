package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/internboard/internal/adapters/mq/queue"
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

// LORKey is the default idempotency key of a trigger.
func LORKey(action model.LORAction, internID string) string {
	return string(action) + ":" + internID
}

// scopedKey ties a caller idempotency key to the intern and action it was
// sent for, so one key reused across interns starts separate jobs.
func scopedKey(action model.LORAction, internID, callerKey string) string {
	base := LORKey(action, internID)
	if callerKey = strings.TrimSpace(callerKey); callerKey != "" {
		return base + ":" + callerKey
	}
	return base
}

// Eligible reports why in cannot receive action, or nil when it can.
func Eligible(in *model.Intern, action model.LORAction) error {
	switch {
	case in.Status != model.StatusApproved:
		return fmt.Errorf("%w: status is %q, want %q", ErrNotEligible, in.Status, model.StatusApproved)
	case in.ComplianceIssue:
		return fmt.Errorf("%w: open compliance issue", ErrNotEligible)
	case in.DisciplineIssue:
		return fmt.Errorf("%w: open discipline issue", ErrNotEligible)
	case action == model.LORSend && !in.LORGenerated:
		return fmt.Errorf("%w: letter not generated yet", ErrNotEligible)
	}
	return nil
}

// TriggerLOR checks eligibility and queues a LOR job. duplicate is true when
// key, scoped to internID and action, already maps to a live job, which is
// returned instead.
func (s *Service) TriggerLOR(ctx context.Context, internID string, action model.LORAction, key string) (job model.LORJob, duplicate bool, err error) {
	if err := s.running(); err != nil {
		return model.LORJob{}, false, err
	}
	if !action.Valid() {
		return model.LORJob{}, false, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	key = scopedKey(action, internID, key)

	in, err := s.backend.GetIntern(ctx, internID)
	if err != nil {
		return model.LORJob{}, false, fmt.Errorf("lor %s %s: %w", action, internID, err)
	}
	if err := Eligible(&in, action); err != nil {
		return model.LORJob{}, false, err
	}

	now := s.now()
	job = model.LORJob{
		ID:        uuid.NewString(),
		InternID:  internID,
		Action:    action,
		Key:       key,
		Status:    model.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if existingID, seen := s.deduper.SeenAndRecord(ctx, key, job.ID); seen {
		if existing, ok := s.jobs.Get(existingID); ok && existing.Status != model.JobFailed {
			metrics.RecordLORDuplicate()
			s.logger.Debug(ctx, "duplicate lor trigger",
				logger.String("key", key),
				logger.String("job_id", existing.ID))
			return existing, true, nil
		}
		// The earlier job failed or was evicted; this trigger takes the key over.
		s.deduper.Unrecord(ctx, key)
		if existingID, seen = s.deduper.SeenAndRecord(ctx, key, job.ID); seen {
			if existing, ok := s.jobs.Get(existingID); ok {
				return existing, true, nil
			}
		}
	}

	s.jobs.Update(ctx, job)
	if err := s.lorQueue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, key)
		s.jobs.Remove(job.ID)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.LORJob{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.LORJob{}, false, err
	}

	metrics.RecordLOREnqueued(string(action))
	s.logger.Info(ctx, "lor job queued",
		logger.String("job_id", job.ID),
		logger.String("intern_id", internID),
		logger.String("action", string(action)))
	return job, false, nil
}

// Job returns the current state of a LOR job.
func (s *Service) Job(_ context.Context, id string) (model.LORJob, error) {
	if err := s.running(); err != nil {
		return model.LORJob{}, err
	}
	job, ok := s.jobs.Get(id)
	if !ok {
		return model.LORJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// lorExecutor runs jobs against the backend for the worker pool.
type lorExecutor struct {
	svc *Service
}

func (e *lorExecutor) Execute(ctx context.Context, job model.LORJob) error {
	res, err := e.svc.backend.RunLOR(ctx, job.InternID, job.Action)
	if err != nil {
		return err
	}
	// LOR flags changed on the backend.
	e.svc.store.Invalidate(ctx)
	e.svc.logger.Info(ctx, "lor job done",
		logger.String("job_id", job.ID),
		logger.String("action", string(job.Action)),
		logger.String("message", res.Message))
	return nil
}

package service

import (
	"context"
	"fmt"

	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
	"github.com/okian/internboard/pkg/metrics"
)

// Rankings returns the backend buckets flattened into at most limit entries.
// limit <= 0 returns every entry.
func (s *Service) Rankings(ctx context.Context, limit int) ([]types.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	buckets, err := s.backend.Rankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	entries := s.view.Flatten(buckets, limit)
	for i := range entries {
		recordTier(entries[i].Tier)
	}
	return entries, nil
}

// Classify runs the configured classifier on one score; nil is missing.
func (s *Service) Classify(score *float64) tier.Result {
	res := s.classifier.ClassifyPtr(score)
	recordTier(res)
	return res
}

// Tiers returns the threshold table, best tier first, followed by the
// missing-score band.
func (s *Service) Tiers() []tier.Band {
	bands := s.classifier.Table()
	if s.classifier.MissingPolicy() == tier.MissingAsUnrated {
		bands = append(bands, tier.Band{Result: s.classifier.ClassifyPtr(nil)})
	}
	return bands
}

func recordTier(r tier.Result) {
	metrics.RecordTierClassified(r.Tier.String())
}

// Package types contains the read shapes shared by the API, the service and the CLI.
package types

import (
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/tier"
)

// Row is an intern annotated with its effective score and tier.
type Row struct {
	model.Intern
	EffectiveScore *float64    `json:"effective_score,omitempty"`
	Tier           tier.Result `json:"tier_info"`
}

// Entry is one line of the flattened ranking.
type Entry struct {
	Rank   int         `json:"rank"`
	Bucket string      `json:"bucket"`
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Dept   string      `json:"department"`
	Score  *float64    `json:"score,omitempty"`
	Tier   tier.Result `json:"tier_info"`
}

// Page is one page of a filtered and sorted roster.
type Page struct {
	Items      []Row   `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	Summary    Summary `json:"summary"`
}

// Summary aggregates a filtered roster.
type Summary struct {
	Count        int            `json:"count"`
	ByTier       map[string]int `json:"by_tier"`
	ByStatus     map[string]int `json:"by_status"`
	AverageScore *float64       `json:"average_score,omitempty"`
	Rated        int            `json:"rated"`
}

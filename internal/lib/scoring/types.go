package scoring

import (
	"context"

	"github.com/dpup/routescore/internal/lib/geo"
	"github.com/dpup/routescore/internal/lib/trace"
)

// Grade summarizes how closely a candidate follows its reference
type Grade string

const (
	Match    Grade = "match"    // symmetric distance <= match threshold
	Near     Grade = "near"     // symmetric distance <= near threshold
	Mismatch Grade = "mismatch" // anything further, or NaN in legacy mode
)

// Result holds both directed average distances for a candidate/reference pair
type Result struct {
	Forward         float64 `json:"forward"`  // candidate -> reference
	Backward        float64 `json:"backward"` // reference -> candidate
	Symmetric       float64 `json:"symmetric"`
	Grade           Grade   `json:"grade"`
	Mode            string  `json:"mode"`
	CandidatePoints int     `json:"candidate_points"`
	ReferencePoints int     `json:"reference_points"`
	Cached          bool    `json:"-"`
}

// BatchResult is one candidate's outcome within ScoreBatch
type BatchResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
	Err    error  `json:"-"`
}

// Scorer compares candidate routes against a reference route
type Scorer interface {
	// Score a single candidate against the reference
	Score(ctx context.Context, candidate, reference geo.Route) (Result, error)

	// Score every candidate against one reference, preserving input order
	ScoreBatch(ctx context.Context, reference geo.Route, candidates []trace.NamedRoute) ([]BatchResult, error)
}

// NewScorer is implemented in scorer.go

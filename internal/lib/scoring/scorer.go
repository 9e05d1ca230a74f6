package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/routescore/internal/cache"
	"github.com/dpup/routescore/internal/config"
	"github.com/dpup/routescore/internal/lib/geo"
	"github.com/dpup/routescore/internal/lib/trace"
)

// scorer implements the Scorer interface
type scorer struct {
	cfg   config.ScoringConfig
	dist  geo.DistanceFunc
	cache *cache.Cache
}

// NewScorer creates a scorer for the configured distance mode. A nil cache
// disables result caching.
func NewScorer(cfg config.ScoringConfig, c *cache.Cache) (Scorer, error) {
	dist, err := distanceFor(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &scorer{cfg: cfg, dist: dist, cache: c}, nil
}

func distanceFor(mode string) (geo.DistanceFunc, error) {
	switch mode {
	case config.ModeClamped, "":
		return geo.Clamped, nil
	case config.ModeLegacy:
		return geo.Legacy, nil
	default:
		return nil, errors.WithHintf(
			errors.Newf("unknown scoring mode %q", mode),
			"use %q or %q", config.ModeClamped, config.ModeLegacy)
	}
}

// Score computes the forward, backward and symmetric distances between a
// candidate and its reference
func (s *scorer) Score(ctx context.Context, candidate, reference geo.Route) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ctx = logging.EnsureLogger(ctx)

	key := s.cacheKey(candidate, reference)
	if s.caching() {
		var cached Result
		found, err := s.cache.GetScore(key, &cached)
		if err != nil {
			logging.Warnw(ctx, "Failed to read cached score", "key", key, "error", err)
		} else if found {
			cached.Cached = true
			return cached, nil
		}
	}

	forward, err := candidate.AverageDistanceUsing(reference, s.dist)
	if err != nil {
		return Result{}, errors.Wrap(err, "forward distance")
	}
	backward, err := reference.AverageDistanceUsing(candidate, s.dist)
	if err != nil {
		return Result{}, errors.Wrap(err, "backward distance")
	}

	symmetric := (forward + backward) / 2
	result := Result{
		Forward:         forward,
		Backward:        backward,
		Symmetric:       symmetric,
		Grade:           s.grade(symmetric),
		Mode:            s.mode(),
		CandidatePoints: candidate.Size(),
		ReferencePoints: reference.Size(),
	}

	logging.Debugw(ctx, "Scored route",
		"forward", forward,
		"backward", backward,
		"grade", result.Grade,
		"candidate_points", result.CandidatePoints,
		"reference_points", result.ReferencePoints)

	// NaN legacy results cannot be JSON encoded, so they are never cached
	if s.caching() && !math.IsNaN(symmetric) {
		if err := s.cache.SetScore(key, result, s.cfg.CacheTTL); err != nil {
			logging.Warnw(ctx, "Failed to cache score", "key", key, "error", err)
		}
	}

	return result, nil
}

// ScoreBatch scores candidates concurrently, bounded by the configured
// worker count. Per-candidate failures are recorded on the item; context
// cancellation aborts the whole batch.
func (s *scorer) ScoreBatch(ctx context.Context, reference geo.Route, candidates []trace.NamedRoute) ([]BatchResult, error) {
	if reference.Size() < 2 {
		return nil, errors.Mark(
			errors.Newf("reference must have at least 2 points, got %d", reference.Size()),
			geo.ErrInvalidArgument)
	}

	ctx = logging.EnsureLogger(ctx)
	results := make([]BatchResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, candidate := range candidates {
		g.Go(func() error {
			res, err := s.Score(gctx, candidate.Route, reference)
			if err != nil && gctx.Err() != nil {
				return err
			}
			results[i] = BatchResult{Name: candidate.Name, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "batch scoring aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "batch scoring aborted")
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logging.Infow(ctx, "Scored batch", "candidates", len(candidates), "failed", failed, "mode", s.mode())

	return results, nil
}

// caching reports whether results are stored. A zero TTL would write
// entries that are already expired.
func (s *scorer) caching() bool {
	return s.cache != nil && s.cfg.CacheTTL > 0
}

func (s *scorer) grade(symmetric float64) Grade {
	switch {
	case symmetric <= s.cfg.MatchThreshold:
		return Match
	case symmetric <= s.cfg.NearThreshold:
		return Near
	default:
		return Mismatch
	}
}

func (s *scorer) mode() string {
	if s.cfg.Mode == "" {
		return config.ModeClamped
	}
	return s.cfg.Mode
}

// cacheKey hashes the mode and both routes' coordinates. Candidate and
// reference are length-prefixed so swapping points between them changes
// the key.
func (s *scorer) cacheKey(candidate, reference geo.Route) string {
	h := sha256.New()
	h.Write([]byte(s.mode()))

	var buf [8]byte
	for _, route := range []geo.Route{candidate, reference} {
		binary.BigEndian.PutUint64(buf[:], uint64(route.Size()))
		h.Write(buf[:])
		for _, p := range route.Points() {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.X))
			h.Write(buf[:])
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.Y))
			h.Write(buf[:])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Rank returns the successful results ordered closest first, keeping at
// most limit entries when limit > 0. Ties keep their input order.
func Rank(results []BatchResult, limit int) []BatchResult {
	ranked := make([]BatchResult, 0, len(results))
	for _, r := range results {
		if r.Err == nil && !math.IsNaN(r.Result.Symmetric) {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Symmetric < ranked[j].Result.Symmetric
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

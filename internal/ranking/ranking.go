// Package ranking scores candidates against an adopter profile.
package ranking

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/spigell/pawmatch/internal/metrics"
	"github.com/spigell/pawmatch/internal/pets"
	"github.com/spigell/pawmatch/internal/session"
	"go.uber.org/zap"
)

const (
	// StrongMatch is the sub-score a factor must exceed to explain a match.
	StrongMatch = 0.7

	defaultWorkers = 4
	maxExplained   = 2
	scoreEpsilon   = 1e-9
)

// Factor names one of the weighted sub-scores.
type Factor string

const (
	FactorLifestyle   Factor = "lifestyle"
	FactorPersonality Factor = "personality"
	FactorConstraints Factor = "constraints"
	FactorUrgency     Factor = "urgency"
)

// Weights holds one weight per factor.
type Weights struct {
	Lifestyle   float64 `json:"lifestyle"`
	Personality float64 `json:"personality"`
	Constraints float64 `json:"constraints"`
	Urgency     float64 `json:"urgency"`
}

// DefaultWeights sum to exactly 1.
var DefaultWeights = Weights{Lifestyle: 0.40, Personality: 0.30, Constraints: 0.20, Urgency: 0.10}

func (w Weights) of(f Factor) float64 {
	switch f {
	case FactorLifestyle:
		return w.Lifestyle
	case FactorPersonality:
		return w.Personality
	case FactorConstraints:
		return w.Constraints
	default:
		return w.Urgency
	}
}

// Breakdown is the per-candidate score. Weights are the effective weights, renormalized only on cold start.
type Breakdown struct {
	Lifestyle   float64 `json:"lifestyle"`
	Personality float64 `json:"personality"`
	Constraints float64 `json:"constraints"`
	Urgency     float64 `json:"urgency"`
	Overall     float64 `json:"overall"`
	Weights     Weights `json:"weights"`
}

// Match is a ranked candidate with its explanation labels.
type Match struct {
	Candidate   *pets.Candidate `json:"candidate"`
	Score       Breakdown       `json:"score"`
	Explanation []string        `json:"explanation"`
}

// Engine ranks candidates.
type Engine struct {
	weights Weights
	workers int
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*Engine)

// WithWorkers bounds the number of candidates scored concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights,
		workers: defaultWorkers,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank scores every candidate and returns at most topK matches, best first.
// A non-positive topK returns all candidates.
func (e *Engine) Rank(ctx context.Context, profile session.Profile, candidates []*pets.Candidate, topK int) ([]Match, error) {
	now := e.now()

	pool := make([]*pets.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate != nil {
			pool = append(pool, candidate)
		}
	}
	candidates = pool
	matches := make([]Match, len(candidates))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				matches[idx] = e.score(profile, candidates[idx], now)
			}
		}()
	}

	var err error
	for idx := range candidates {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case jobs <- idx:
		}
		if err != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	metrics.RecordRankedCandidates(len(matches))
	e.logger.Debug("ranked candidates", zap.Int("candidates", len(candidates)), zap.Int("returned", len(matches)))

	return matches, nil
}

func (e *Engine) score(profile session.Profile, candidate *pets.Candidate, now time.Time) Match {
	subs := map[Factor]subScore{
		FactorLifestyle:   lifestyle(profile, candidate),
		FactorPersonality: personality(profile, candidate),
		FactorConstraints: constraints(profile, candidate),
		FactorUrgency:     urgency(candidate, now),
	}

	breakdown := combine(e.weights, subs)
	return Match{
		Candidate:   candidate,
		Score:       breakdown,
		Explanation: explain(breakdown.Weights, subs),
	}
}

// subScore is a factor value in [0,1]. Unavailable factors have no profile inputs.
type subScore struct {
	value     float64
	available bool
	labels    []string
}

// combine weighs the sub-scores. Weights are renormalized over the available factors only on cold start,
// when neither lifestyle nor personality has inputs; otherwise a missing factor scores neutral under fixed weights.
func combine(weights Weights, subs map[Factor]subScore) Breakdown {
	coldStart := !subs[FactorLifestyle].available && !subs[FactorPersonality].available

	effective := weights
	if coldStart {
		effective = renormalize(weights, subs)
	} else {
		for _, f := range []Factor{FactorLifestyle, FactorPersonality} {
			if !subs[f].available {
				subs[f] = subScore{value: neutral}
			}
		}
	}

	b := Breakdown{
		Lifestyle:   clamp(subs[FactorLifestyle].value),
		Personality: clamp(subs[FactorPersonality].value),
		Constraints: clamp(subs[FactorConstraints].value),
		Urgency:     clamp(subs[FactorUrgency].value),
		Weights:     effective,
	}
	b.Overall = clamp(effective.Lifestyle*b.Lifestyle +
		effective.Personality*b.Personality +
		effective.Constraints*b.Constraints +
		effective.Urgency*b.Urgency)

	return b
}

func renormalize(weights Weights, subs map[Factor]subScore) Weights {
	total := 0.0
	for _, f := range []Factor{FactorLifestyle, FactorPersonality, FactorConstraints, FactorUrgency} {
		if subs[f].available {
			total += weights.of(f)
		}
	}
	if total <= 0 {
		return Weights{}
	}
	if math.Abs(total-1) < scoreEpsilon {
		return weights
	}

	norm := func(f Factor) float64 {
		if !subs[f].available {
			return 0
		}
		return weights.of(f) / total
	}
	return Weights{
		Lifestyle:   norm(FactorLifestyle),
		Personality: norm(FactorPersonality),
		Constraints: norm(FactorConstraints),
		Urgency:     norm(FactorUrgency),
	}
}

// explain collects labels from the two highest-weighted factors above the strong-match threshold.
func explain(weights Weights, subs map[Factor]subScore) []string {
	factors := []Factor{FactorLifestyle, FactorPersonality, FactorConstraints, FactorUrgency}
	sort.SliceStable(factors, func(i, j int) bool {
		return weights.of(factors[i]) > weights.of(factors[j])
	})

	labels := []string{}
	explained := 0
	for _, f := range factors {
		if explained == maxExplained {
			break
		}
		sub := subs[f]
		if !sub.available || weights.of(f) == 0 || sub.value <= StrongMatch {
			continue
		}
		explained++
		labels = append(labels, sub.labels...)
	}
	return labels
}

// sortMatches orders by overall score, then urgency, then candidate id.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if math.Abs(a.Score.Overall-b.Score.Overall) > scoreEpsilon {
			return a.Score.Overall > b.Score.Overall
		}
		if math.Abs(a.Score.Urgency-b.Score.Urgency) > scoreEpsilon {
			return a.Score.Urgency > b.Score.Urgency
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

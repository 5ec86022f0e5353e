// Package rating aggregates independently measured quality sub-scores
// into a net score and applies the admission gate.
package rating

import (
	"context"
	"time"

	"github.com/trustmod/registry/config"
	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/internal/logging"
)

// SubScores are the externally measured quality facts. Pinning practice
// is not here: it is computed locally from the manifest dependencies.
type SubScores struct {
	BusFactor              float64
	Correctness            float64
	RampUp                 float64
	ResponsiveMaintainer   float64
	LicenseScore           float64
	GoodEngineeringProcess float64
}

// Collector measures sub-scores for a source repository. Implementations
// live outside this service (repository-mining analysis engine).
type Collector interface {
	Collect(ctx context.Context, sourceURL string) (SubScores, error)
}

type CollectorFunc func(ctx context.Context, sourceURL string) (SubScores, error)

func (f CollectorFunc) Collect(ctx context.Context, sourceURL string) (SubScores, error) {
	return f(ctx, sourceURL)
}

// Unmeasured is the placeholder collector: every sub-score reads zero
// until the analysis engine is wired in. With the gate enforced nothing
// passes, which matches the current measurement rollout.
func Unmeasured() Collector {
	return CollectorFunc(func(context.Context, string) (SubScores, error) {
		return SubScores{}, nil
	})
}

type Engine struct {
	collector Collector
	cfg       config.RatingConfig
}

func NewEngine(c Collector, cfg config.RatingConfig) *Engine {
	return &Engine{collector: c, cfg: cfg}
}

// Score computes the full rating for a source URL. Collector failures are
// absorbed as zero measurements; scoring itself never fails an ingestion.
func (e *Engine) Score(ctx context.Context, sourceURL string, deps map[string]string) models.PackageRating {
	scores, err := e.collector.Collect(ctx, sourceURL)
	if err != nil {
		logging.Log.Warnw("sub-score collection failed, scoring as unmeasured",
			"url", sourceURL, "error", err)
		scores = SubScores{}
	}

	rating := models.PackageRating{
		BusFactor:              clamp(scores.BusFactor),
		Correctness:            clamp(scores.Correctness),
		RampUp:                 clamp(scores.RampUp),
		ResponsiveMaintainer:   clamp(scores.ResponsiveMaintainer),
		LicenseScore:           clamp(scores.LicenseScore),
		GoodPinningPractice:    PinningScore(deps),
		GoodEngineeringProcess: clamp(scores.GoodEngineeringProcess),
		CreatedAt:              time.Now().UTC(),
	}
	rating.NetScore = e.netScore(rating)
	return rating
}

// netScore is the weighted mean of the seven sub-scores. Weights are
// non-negative, so raising any sub-score never lowers the result.
func (e *Engine) netScore(r models.PackageRating) float64 {
	w := e.cfg.Weights
	total := w.BusFactor + w.Correctness + w.RampUp + w.ResponsiveMaintainer +
		w.LicenseScore + w.GoodPinningPractice + w.GoodEngineeringProcess
	if total <= 0 {
		return 0
	}
	sum := w.BusFactor*r.BusFactor +
		w.Correctness*r.Correctness +
		w.RampUp*r.RampUp +
		w.ResponsiveMaintainer*r.ResponsiveMaintainer +
		w.LicenseScore*r.LicenseScore +
		w.GoodPinningPractice*r.GoodPinningPractice +
		w.GoodEngineeringProcess*r.GoodEngineeringProcess
	return clamp(sum / total)
}

// Admit reports whether the net score clears the gate. With enforcement
// off the gate is advisory and everything is admitted.
func (e *Engine) Admit(netScore float64) bool {
	if !e.cfg.EnforceGate {
		return true
	}
	return netScore >= e.cfg.MinNetScore
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package experiment manages A/B content experiments:
// running → concluded (with a winner) | cancelled, both terminal.
package experiment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
)

// shareTolerance absorbs float error when traffic shares are summed
const shareTolerance = 1e-6

// Engine is the ExperimentEngine
// ⭐ SSOT: Experiment 상태 전이는 여기서만
type Engine struct {
	repo   contracts.ExperimentRepository
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine creates an experiment engine
func NewEngine(repo contracts.ExperimentRepository, log *logger.Logger) *Engine {
	return &Engine{
		repo:   repo,
		logger: log.WithComponent("experiment"),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Create stores a new experiment. The status is always running whatever the
// input says; observed metrics start at zero.
func (e *Engine) Create(ctx context.Context, in contracts.NewExperiment) (*contracts.Experiment, error) {
	in.PostID = strings.TrimSpace(in.PostID)
	in.Name = strings.TrimSpace(in.Name)
	if in.PostID == "" {
		return nil, contracts.NewValidationError("post_id", "is required")
	}
	if in.Name == "" {
		return nil, contracts.NewValidationError("name", "is required")
	}

	variants, err := e.prepareVariants(in.Variants)
	if err != nil {
		return nil, err
	}

	if in.Status != "" && contracts.ExperimentStatus(in.Status) != contracts.ExperimentRunning {
		e.logger.WithField("requested_status", in.Status).Warn("ignoring requested status, experiments start running")
	}

	now := e.now().UTC()
	exp := contracts.Experiment{
		ID:        e.newID(),
		PostID:    in.PostID,
		Name:      in.Name,
		Variants:  variants,
		Status:    contracts.ExperimentRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.repo.CreateExperiment(ctx, exp); err != nil {
		return nil, contracts.WrapStore("create experiment", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"experiment_id": exp.ID,
		"post_id":       exp.PostID,
		"variants":      len(exp.Variants),
	}).Info("experiment created")
	return &exp, nil
}

// prepareVariants checks ids and traffic shares. Missing ids get a uuid;
// when every share is zero traffic is split evenly.
func (e *Engine) prepareVariants(in []contracts.Variant) ([]contracts.Variant, error) {
	if len(in) < 2 {
		return nil, contracts.NewValidationError("variants", "at least two variants are required, got %d", len(in))
	}

	out := make([]contracts.Variant, len(in))
	seen := make(map[string]struct{}, len(in))
	total := 0.0
	for i, v := range in {
		v.ID = strings.TrimSpace(v.ID)
		if v.ID == "" {
			v.ID = e.newID()
		}
		if _, dup := seen[v.ID]; dup {
			return nil, contracts.NewValidationError("variants", "duplicate variant id %q", v.ID)
		}
		seen[v.ID] = struct{}{}

		if math.IsNaN(v.TrafficShare) || v.TrafficShare < 0 || v.TrafficShare > 1 {
			return nil, contracts.NewValidationError("variants.traffic_share", "must be within [0,1], got %v", v.TrafficShare)
		}
		total += v.TrafficShare

		v.Metrics = contracts.VariantMetrics{}
		if v.ContentDelta == nil {
			v.ContentDelta = map[string]string{}
		}
		out[i] = v
	}

	if total > 1+shareTolerance {
		return nil, contracts.NewValidationError("variants.traffic_share", "shares sum to %v, must be <= 1", total)
	}
	if total == 0 {
		even := 1 / float64(len(out))
		for i := range out {
			out[i].TrafficShare = even
		}
	}
	return out, nil
}

// Conclude finishes a running experiment with a winner. An unknown winner or
// an experiment that is not running is a ValidationError and leaves the
// experiment unchanged.
func (e *Engine) Conclude(ctx context.Context, id, winnerVariantID string) (*contracts.Experiment, error) {
	exp, err := e.running(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := exp.Variant(winnerVariantID); !ok {
		return nil, contracts.NewValidationError("winner_variant_id", "%q is not a variant of experiment %s", winnerVariantID, id)
	}

	return e.finish(ctx, exp, contracts.ExperimentConcluded, &winnerVariantID)
}

// Cancel finishes a running experiment without a winner
func (e *Engine) Cancel(ctx context.Context, id string) (*contracts.Experiment, error) {
	exp, err := e.running(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.finish(ctx, exp, contracts.ExperimentCancelled, nil)
}

func (e *Engine) finish(ctx context.Context, exp *contracts.Experiment, to contracts.ExperimentStatus, winner *string) (*contracts.Experiment, error) {
	if !exp.Status.CanTransitionTo(to) {
		return nil, contracts.NewValidationError("status", "cannot move experiment from %s to %s", exp.Status, to)
	}

	ok, err := e.repo.FinishExperiment(ctx, exp.ID, to, winner, e.now().UTC())
	if err != nil {
		return nil, contracts.WrapStore("finish experiment", err)
	}
	if !ok {
		return nil, contracts.NewValidationError("status", "experiment %s is no longer running", exp.ID)
	}

	fields := map[string]interface{}{
		"experiment_id": exp.ID,
		"status":        to,
	}
	if winner != nil {
		fields["winner_variant_id"] = *winner
	}
	e.logger.WithFields(fields).Info("experiment finished")

	return e.Get(ctx, exp.ID)
}

// GetAll lists experiments, optionally filtered by status
func (e *Engine) GetAll(ctx context.Context, status contracts.ExperimentStatus) ([]contracts.Experiment, error) {
	if status != "" && !status.Valid() {
		return nil, contracts.NewValidationError("status", "unknown experiment status %q", status)
	}

	list, err := e.repo.ListExperiments(ctx, status)
	if err != nil {
		return nil, contracts.WrapStore("list experiments", err)
	}
	return list, nil
}

// Get returns one experiment
func (e *Engine) Get(ctx context.Context, id string) (*contracts.Experiment, error) {
	exp, err := e.repo.GetExperiment(ctx, id)
	if err != nil {
		return nil, contracts.WrapStore("get experiment", err)
	}
	if exp == nil {
		return nil, contracts.NewNotFoundError("experiment", id)
	}
	return exp, nil
}

// RecordVariantMetrics replaces one variant's observed metrics while the experiment runs
func (e *Engine) RecordVariantMetrics(ctx context.Context, id, variantID string, m contracts.VariantMetrics) (*contracts.Experiment, error) {
	if m.Impressions < 0 || m.Clicks < 0 || m.Conversions < 0 || m.AvgEngagedTime < 0 || m.Revenue < 0 {
		return nil, contracts.NewValidationError("metrics", "values must be non-negative")
	}

	exp, err := e.running(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := exp.Variant(variantID); !ok {
		return nil, contracts.NewNotFoundError("variant", variantID)
	}

	ok, err := e.repo.UpdateVariantMetrics(ctx, id, variantID, m, e.now().UTC())
	if err != nil {
		return nil, contracts.WrapStore("update variant metrics", err)
	}
	if !ok {
		return nil, contracts.NewValidationError("status", "experiment %s is no longer running", id)
	}
	return e.Get(ctx, id)
}

// running loads an experiment and requires it to be running
func (e *Engine) running(ctx context.Context, id string) (*contracts.Experiment, error) {
	exp, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.Status != contracts.ExperimentRunning {
		return nil, contracts.NewValidationError("status", "experiment %s is %s, not running", id, exp.Status)
	}
	return exp, nil
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/sitecrawler/internal/model"
)

// Step is one stage of a pipeline.
type Step interface {
	// Do executes the step against report.
	// Non-critical problems should be recorded in the report and return nil.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	// steps run in order until one fails or the context ends.
	steps []Step

	// finalSteps always run after steps, with cancellation removed.
	finalSteps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Errors are still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddFinalStep appends a step that runs after all regular steps,
// whatever their outcome.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs the regular steps in sequence, then the final steps.
//
// Regular steps stop at the first error unless continueOnError is set, and
// no further regular step starts once ctx is done. Final steps run with a
// context that is never cancelled. Returned errors are also recorded in
// report, except cancellation, which sets report.Canceled instead.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	err := p.runSteps(ctx, report)

	final := context.WithoutCancel(ctx)
	for _, step := range p.finalSteps {
		if stepErr := p.runStep(final, step, report); stepErr != nil {
			err = errors.Join(err, stepErr)
		}
	}
	return err
}

// runSteps runs the regular steps.
func (p *Pipeline) runSteps(ctx context.Context, report *model.CrawlReport) error {
	var errs []error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			report.Canceled = true
			return errors.Join(append(errs, ctx.Err())...)
		default:
		}

		if err := p.runStep(ctx, step, report); err != nil {
			errs = append(errs, err)
			if !p.continueOnError {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// runStep executes one step and records its failure in report.
func (p *Pipeline) runStep(ctx context.Context, step Step, report *model.CrawlReport) error {
	p.logger.Info("executing step",
		"step", step.Name(),
		"seed", report.Seed,
	)

	err := step.Do(ctx, report)
	if err == nil {
		p.logger.Debug("step completed",
			"step", step.Name(),
			"seed", report.Seed,
		)
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		p.logger.Warn("step interrupted",
			"step", step.Name(),
			"seed", report.Seed,
		)
		report.Canceled = true
		return err
	}

	p.logger.Error("step failed",
		"step", step.Name(),
		"seed", report.Seed,
		"error", err,
	)
	report.AddError(err)
	return err
}

// StepCount returns the number of regular and final steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/nao1215/sitecrawler/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.CrawlReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.CrawlReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// quietLogger discards pipeline logs.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestReport returns an empty report for tests.
func newTestReport() *model.CrawlReport {
	return model.NewCrawlReport("run-1", "https://www.example.com/")
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})

	t.Run("applies WithLogger option", func(t *testing.T) {
		t.Parallel()

		logger := quietLogger()
		p := New(WithLogger(logger))

		if p.logger != logger {
			t.Error("expected custom logger")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddStep(&mockStep{name: "second"})
	p.AddStep(&mockStep{name: "third"})
	p.AddFinalStep(&mockStep{name: "last"})

	if p.StepCount() != 4 {
		t.Errorf("expected 4 steps, got %d", p.StepCount())
	}

	want := []string{"first", "second", "third", "last"}
	if got := p.StepNames(); !slices.Equal(got, want) {
		t.Errorf("StepNames() = %v, want %v", got, want)
	}
}

// TestPipelineExecute tests step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		step := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(context.Context, *model.CrawlReport) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New(WithLogger(quietLogger()))
		p.AddStep(step("a"))
		p.AddStep(step("b"))
		p.AddFinalStep(step("final"))

		if err := p.Execute(context.Background(), newTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"a", "b", "final"}; !slices.Equal(order, want) {
			t.Errorf("order = %v, want %v", order, want)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		errStep := errors.New("step failed")
		failing := &mockStep{
			name:   "failing",
			doFunc: func(context.Context, *model.CrawlReport) error { return errStep },
		}
		skipped := &mockStep{name: "skipped"}
		final := &mockStep{name: "final"}

		p := New(WithLogger(quietLogger()))
		p.AddStep(failing)
		p.AddStep(skipped)
		p.AddFinalStep(final)

		report := newTestReport()
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, errStep) {
			t.Errorf("expected step error, got %v", err)
		}
		if skipped.callCount != 0 {
			t.Error("step after failure should not run")
		}
		if final.callCount != 1 {
			t.Error("final step should run after failure")
		}
		if !slices.Contains(report.Errors, "step failed") {
			t.Errorf("expected error recorded, got %v", report.Errors)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		errA := errors.New("a failed")
		errB := errors.New("b failed")
		a := &mockStep{name: "a", doFunc: func(context.Context, *model.CrawlReport) error { return errA }}
		b := &mockStep{name: "b", doFunc: func(context.Context, *model.CrawlReport) error { return errB }}

		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddStep(a)
		p.AddStep(b)

		report := newTestReport()
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, errA) || !errors.Is(err, errB) {
			t.Errorf("expected both errors, got %v", err)
		}
		if b.callCount != 1 {
			t.Error("second step should run")
		}
		if len(report.Errors) != 2 {
			t.Errorf("expected 2 recorded errors, got %v", report.Errors)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		regular := &mockStep{name: "regular"}
		var finalCtxErr error
		final := &mockStep{
			name: "final",
			doFunc: func(ctx context.Context, _ *model.CrawlReport) error {
				finalCtxErr = ctx.Err()
				return nil
			},
		}

		p := New(WithLogger(quietLogger()))
		p.AddStep(regular)
		p.AddFinalStep(final)

		report := newTestReport()
		err := p.Execute(ctx, report)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if regular.callCount != 0 {
			t.Error("regular step should not run after cancellation")
		}
		if final.callCount != 1 {
			t.Error("final step should run after cancellation")
		}
		if finalCtxErr != nil {
			t.Errorf("final step context should not be cancelled, got %v", finalCtxErr)
		}
		if !report.Canceled {
			t.Error("expected report to be marked canceled")
		}
	})

	t.Run("interruption is not recorded as an error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		interrupted := &mockStep{
			name: "interrupted",
			doFunc: func(ctx context.Context, _ *model.CrawlReport) error {
				cancel()
				return ctx.Err()
			},
		}

		p := New(WithLogger(quietLogger()))
		p.AddStep(interrupted)

		report := newTestReport()
		if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !report.Canceled {
			t.Error("expected report to be marked canceled")
		}
		if report.HasErrors() {
			t.Errorf("cancellation should not be recorded as an error, got %v", report.Errors)
		}
	})

	t.Run("final step errors are returned", func(t *testing.T) {
		t.Parallel()

		errFinal := errors.New("final failed")
		p := New(WithLogger(quietLogger()))
		p.AddFinalStep(&mockStep{
			name:   "final",
			doFunc: func(context.Context, *model.CrawlReport) error { return errFinal },
		})

		report := newTestReport()
		if err := p.Execute(context.Background(), report); !errors.Is(err, errFinal) {
			t.Errorf("expected final error, got %v", err)
		}
		if !report.HasErrors() {
			t.Error("expected final error recorded")
		}
	})
}

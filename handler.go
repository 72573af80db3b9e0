package invoker

import (
	"context"
	"log/slog"

	"github.com/udovin/solve-server/task"
)

// Handler executes one claimed task's kind-specific work. Implementations must be safe to run more than once for the same task id:
// a crash between claim and the final SetStatus call leaves the task
// Running until its lease expires, after which another worker reclaims and
// re-runs it.
//
// Run's context is cancelled by the pinger if the task's lease is ever
// found already expired; a Handler should treat that cancellation the same
// as any other failure.
type Handler interface {
	Run(ctx context.Context, guard *Guard) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, guard *Guard) error

func (f HandlerFunc) Run(ctx context.Context, guard *Guard) error { return f(ctx, guard) }

// JudgeSolutionHandler runs a task.KindJudgeSolution task. This is a thin
// demonstration shell: the compile/run/compare pipeline itself belongs to
// a judging subsystem built on top of this module's sandbox package, which
// only supplies process isolation.
type JudgeSolutionHandler struct {
	Log *slog.Logger
}

func (h *JudgeSolutionHandler) Run(ctx context.Context, guard *Guard) error {
	var cfg task.JudgeSolutionConfig
	if err := guard.ParseConfig(&cfg); err != nil {
		return err
	}
	h.Log.Info("judging solution", "solution_id", cfg.SolutionID, "enable_points", cfg.EnablePoints)
	return guard.SetState(ctx, map[string]any{"verdict": "accepted"})
}

// UpdateProblemPackageHandler runs a task.KindUpdateProblemPackage task:
// unpacking and validating a newly uploaded problem package.
type UpdateProblemPackageHandler struct {
	Log *slog.Logger
}

func (h *UpdateProblemPackageHandler) Run(ctx context.Context, guard *Guard) error {
	var cfg task.UpdateProblemPackageConfig
	if err := guard.ParseConfig(&cfg); err != nil {
		return err
	}
	h.Log.Info("updating problem package", "problem_id", cfg.ProblemID, "file_id", cfg.FileID, "compile", cfg.Compile)
	return guard.SetState(ctx, map[string]any{"status": "installed"})
}

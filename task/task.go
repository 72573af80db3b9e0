// Package task implements the Task object: the row persisted in solve_task
// plus its TaskKind/TaskStatus discriminators and JSON config/state
// helpers, following the original's models::task::Task.
package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/store"
)

// Kind discriminates the work a Task performs. Unknown wraps a raw database
// value this build of the module doesn't recognise, rather than failing to
// decode the row outright.
type Kind int8

const (
	KindJudgeSolution        Kind = 1
	KindUpdateProblemPackage Kind = 2
	KindUnknown              Kind = -1
)

func (k Kind) String() string {
	switch k {
	case KindJudgeSolution:
		return "judge_solution"
	case KindUpdateProblemPackage:
		return "update_problem_package"
	default:
		return "unknown"
	}
}

func kindFromValue(v int64) Kind {
	switch Kind(v) {
	case KindJudgeSolution, KindUpdateProblemPackage:
		return Kind(v)
	default:
		return KindUnknown
	}
}

// Status is the task lifecycle state: Queued -> Running -> {Succeeded,
// Failed}, the last two terminal.
type Status int64

const (
	StatusQueued    Status = 0
	StatusRunning   Status = 1
	StatusSucceeded Status = 2
	StatusFailed    Status = 3
	StatusUnknown   Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is Succeeded or Failed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func statusFromValue(v int64) Status {
	switch Status(v) {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed:
		return Status(v)
	default:
		return StatusUnknown
	}
}

// Task is the row-backed unit of work a worker claims and executes.
type Task struct {
	ID         int64
	Kind       Kind
	Config     json.RawMessage
	Status     Status
	State      json.RawMessage
	ExpireTime *time.Time
}

var _ store.Object = (*Task)(nil)

func (t *Task) ObjectID() int64      { return t.ID }
func (t *Task) SetObjectID(id int64) { t.ID = id }

// IsValid reports whether kind and status both decoded to a known variant.
func (t *Task) IsValid() bool {
	return t.Kind != KindUnknown && t.Status != StatusUnknown
}

// SetConfig marshals v as the task's opaque config payload.
func (t *Task) SetConfig(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t.Config = raw
	return nil
}

// ParseConfig unmarshals the task's config payload into v.
func (t *Task) ParseConfig(v any) error {
	return json.Unmarshal(t.Config, v)
}

// SetState marshals v as the task's opaque progress/result payload.
func (t *Task) SetState(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t.State = raw
	return nil
}

// ParseState unmarshals the task's progress/result payload into v.
func (t *Task) ParseState(v any) error {
	if len(t.State) == 0 {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(t.State, v)
}

func jsonValue(raw json.RawMessage) db.Value {
	if len(raw) == 0 {
		return db.Text("null")
	}
	return db.Text(string(raw))
}

// IntoRow implements store.Object.
func (t *Task) IntoRow() db.SimpleRow {
	expire := db.Null
	if t.ExpireTime != nil {
		expire = db.Time(*t.ExpireTime)
	}
	return db.SimpleRow{
		{Name: "id", Value: db.BigInt(t.ID)},
		{Name: "kind", Value: db.BigInt(int64(t.Kind))},
		{Name: "config", Value: jsonValue(t.Config)},
		{Name: "status", Value: db.BigInt(int64(t.Status))},
		{Name: "state", Value: jsonValue(t.State)},
		{Name: "expire_time", Value: expire},
	}
}

// FromRow implements store.Object.
func (t *Task) FromRow(row db.Row) error {
	id, err := columnBigInt(row, "id")
	if err != nil {
		return err
	}
	kind, err := columnBigInt(row, "kind")
	if err != nil {
		return err
	}
	config, err := row.Column("config")
	if err != nil {
		return err
	}
	status, err := columnBigInt(row, "status")
	if err != nil {
		return err
	}
	state, err := row.Column("state")
	if err != nil {
		return err
	}
	expireVal, err := row.Column("expire_time")
	if err != nil {
		return err
	}
	configText, err := config.AsText()
	if err != nil {
		return fmt.Errorf("task: config column: %w", err)
	}
	stateText, err := state.AsText()
	if err != nil {
		return fmt.Errorf("task: state column: %w", err)
	}
	t.ID = id
	t.Kind = kindFromValue(kind)
	t.Config = json.RawMessage(configText)
	t.Status = statusFromValue(status)
	t.State = json.RawMessage(stateText)
	t.ExpireTime = nil
	if !expireVal.IsNull() {
		expireTime, err := expireVal.AsTime()
		if err != nil {
			return err
		}
		t.ExpireTime = &expireTime
	}
	return nil
}

func columnBigInt(row db.Row, name string) (int64, error) {
	v, err := row.Column(name)
	if err != nil {
		return 0, err
	}
	return v.AsBigInt()
}

// Event is the append-only log entry recorded alongside every Task
// mutation.
type Event = store.BaseEvent[*Task]

// JudgeSolutionConfig is the config payload for a KindJudgeSolution task.
type JudgeSolutionConfig struct {
	SolutionID   int64 `json:"solution_id"`
	EnablePoints bool  `json:"enable_points,omitempty"`
}

// UpdateProblemPackageConfig is the config payload for a
// KindUpdateProblemPackage task.
type UpdateProblemPackageConfig struct {
	ProblemID int64 `json:"problem_id"`
	FileID    int64 `json:"file_id"`
	Compile   bool  `json:"compile,omitempty"`
}

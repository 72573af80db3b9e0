package store

import (
	"time"

	"github.com/udovin/solve-server/db"
)

// IDColumn is the primary key column shared by every Object. Every concrete
// object in this module (task.Task, files.File) uses a surrogate int64 key,
// so Object fixes the id type directly rather than carrying it as a second
// type parameter the way the original's Object::Id associated type did.
const IDColumn = "id"

// EventIDColumn is the primary key of the append-only event log.
const EventIDColumn = "event_id"

// Object is a row-backed entity. Concrete types implement it with a
// pointer receiver so FromRow can populate their fields in place.
type Object interface {
	ObjectID() int64
	SetObjectID(id int64)
	// IsValid reports whether every discriminated field (status, kind, ...)
	// decoded to a known variant rather than falling back to an Unknown
	// value for a database value the current code doesn't recognise.
	IsValid() bool
	IntoRow() db.SimpleRow
	FromRow(row db.Row) error
}

// EventKind discriminates BaseEvent entries.
type EventKind int8

const (
	EventCreate EventKind = 1
	EventDelete EventKind = 2
	EventUpdate EventKind = 3
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventDelete:
		return "delete"
	case EventUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// BaseEvent wraps an Object with the append-only log metadata a Store
// writes alongside every mutation.
type BaseEvent[O Object] struct {
	ID        int64
	Time      time.Time
	AccountID *int64
	Kind      EventKind
	Object    O
}

func newCreateEvent[O Object](object O) BaseEvent[O] {
	return BaseEvent[O]{Kind: EventCreate, Object: object, Time: time.Now().UTC()}
}

func newUpdateEvent[O Object](object O) BaseEvent[O] {
	return BaseEvent[O]{Kind: EventUpdate, Object: object, Time: time.Now().UTC()}
}

// IntoRow flattens the wrapped object's row plus the four event columns,
// matching the column order the original's BaseEvent::into_row produces.
func (e BaseEvent[O]) IntoRow() db.SimpleRow {
	row := e.Object.IntoRow()
	row = append(row, db.NamedValue{Name: EventIDColumn, Value: db.BigInt(e.ID)})
	row = append(row, db.NamedValue{Name: "event_time", Value: db.Time(e.Time)})
	accountID := db.Null
	if e.AccountID != nil {
		accountID = db.BigInt(*e.AccountID)
	}
	row = append(row, db.NamedValue{Name: "event_account_id", Value: accountID})
	row = append(row, db.NamedValue{Name: "event_kind", Value: db.BigInt(int64(e.Kind))})
	return row
}

// FromRow decodes both the wrapped object and the event metadata columns.
// e.Object must already be a non-nil zero value of the concrete type.
func (e *BaseEvent[O]) FromRow(row db.Row) error {
	if err := e.Object.FromRow(row); err != nil {
		return err
	}
	id, err := column(row, EventIDColumn, db.Value.AsBigInt)
	if err != nil {
		return err
	}
	eventTime, err := column(row, "event_time", db.Value.AsTime)
	if err != nil {
		return err
	}
	kind, err := column(row, "event_kind", db.Value.AsBigInt)
	if err != nil {
		return err
	}
	accountVal, err := row.Column("event_account_id")
	if err != nil {
		return err
	}
	e.ID = id
	e.Time = eventTime
	e.Kind = EventKind(kind)
	e.AccountID = nil
	if !accountVal.IsNull() {
		accountID, err := accountVal.AsBigInt()
		if err != nil {
			return err
		}
		e.AccountID = &accountID
	}
	return nil
}

func column[T any](row db.Row, name string, as func(db.Value) (T, error)) (T, error) {
	var zero T
	v, err := row.Column(name)
	if err != nil {
		return zero, err
	}
	return as(v)
}

package files

import (
	"encoding/json"
	"time"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/store"
)

// Status is the File lifecycle state: Pending while an upload is in
// flight or awaiting confirmation, Available once confirmed.
type Status int8

const (
	StatusPending   Status = 0
	StatusAvailable Status = 1
	StatusUnknown   Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAvailable:
		return "available"
	default:
		return "unknown"
	}
}

func statusFromValue(v int64) Status {
	switch Status(v) {
	case StatusPending, StatusAvailable:
		return Status(v)
	default:
		return StatusUnknown
	}
}

// Meta is the JSON payload stored in File.Meta: the attributes recorded
// while streaming an upload through its hashers.
type Meta struct {
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size"`
	MD5      string `json:"md5"`
	SHA3_224 string `json:"sha3_224"`
}

// File is the row-backed unit the file manager operates on.
type File struct {
	ID         int64
	Status     Status
	ExpireTime *time.Time
	Path       string
	Meta       json.RawMessage
}

var _ store.Object = (*File)(nil)

func (f *File) ObjectID() int64      { return f.ID }
func (f *File) SetObjectID(id int64) { f.ID = id }

func (f *File) IsValid() bool { return f.Status != StatusUnknown }

// ParseMeta unmarshals the file's meta payload into m.
func (f *File) ParseMeta() (Meta, error) {
	var m Meta
	if len(f.Meta) == 0 {
		return m, nil
	}
	err := json.Unmarshal(f.Meta, &m)
	return m, err
}

// SetMeta marshals m as the file's meta payload.
func (f *File) SetMeta(m Meta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	f.Meta = raw
	return nil
}

func jsonValue(raw json.RawMessage) db.Value {
	if len(raw) == 0 {
		return db.Text("{}")
	}
	return db.Text(string(raw))
}

// IntoRow implements store.Object.
func (f *File) IntoRow() db.SimpleRow {
	expire := db.Null
	if f.ExpireTime != nil {
		expire = db.Time(*f.ExpireTime)
	}
	return db.SimpleRow{
		{Name: "id", Value: db.BigInt(f.ID)},
		{Name: "status", Value: db.BigInt(int64(f.Status))},
		{Name: "expire_time", Value: expire},
		{Name: "path", Value: db.Text(f.Path)},
		{Name: "meta", Value: jsonValue(f.Meta)},
	}
}

// FromRow implements store.Object.
func (f *File) FromRow(row db.Row) error {
	id, err := row.Column("id")
	if err != nil {
		return err
	}
	status, err := row.Column("status")
	if err != nil {
		return err
	}
	expire, err := row.Column("expire_time")
	if err != nil {
		return err
	}
	path, err := row.Column("path")
	if err != nil {
		return err
	}
	meta, err := row.Column("meta")
	if err != nil {
		return err
	}
	idVal, err := id.AsBigInt()
	if err != nil {
		return err
	}
	statusVal, err := status.AsBigInt()
	if err != nil {
		return err
	}
	pathVal, err := path.AsText()
	if err != nil {
		return err
	}
	metaVal, err := meta.AsText()
	if err != nil {
		return err
	}
	f.ID = idVal
	f.Status = statusFromValue(statusVal)
	f.Path = pathVal
	f.Meta = json.RawMessage(metaVal)
	f.ExpireTime = nil
	if !expire.IsNull() {
		expireTime, err := expire.AsTime()
		if err != nil {
			return err
		}
		f.ExpireTime = &expireTime
	}
	return nil
}

// Event is the append-only log entry recorded alongside every File
// mutation.
type Event = store.BaseEvent[*File]

package session

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle phase of the booth session.
type Status int

const (
	Idle Status = iota
	InProgress
	Completed
	Errored
)

var statusNames = map[Status]string{
	Idle:       "idle",
	InProgress: "in_progress",
	Completed:  "completed",
	Errored:    "error",
}

var statusFromName = map[string]Status{
	"idle":        Idle,
	"in_progress": InProgress,
	"completed":   Completed,
	"error":       Errored,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// SessionState is the single shared session record. Field names match the
// wire format the frontend polls; absent optional fields are omitted.
type SessionState struct {
	Status      Status     `json:"status"`
	LastEvent   string     `json:"last_event,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	AssetPath   string     `json:"asset_path,omitempty"`
	AssetToken  string     `json:"asset_token,omitempty"`
	ShareURL    string     `json:"share_url,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Clone returns a deep copy of the SessionState, duplicating pointer fields
// so the copy can be mutated independently of the original.
func (s *SessionState) Clone() *SessionState {
	c := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// HasAsset reports whether a completed session's asset is addressable:
// both the path and the minted retrieval token are present.
func (s *SessionState) HasAsset() bool {
	return s.AssetPath != "" && s.AssetToken != ""
}

func (s *SessionState) IsTerminal() bool {
	return s.Status == Completed || s.Status == Errored
}

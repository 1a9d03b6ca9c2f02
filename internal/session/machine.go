package session

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// defaultErrorMessage stands in when the booth reports an error event
// without a message parameter.
const defaultErrorMessage = "Unknown booth error"

// Launcher starts an external script without blocking the caller. Completion
// and failure never feed back into session state.
type Launcher interface {
	Launch(script string)
}

// Machine applies normalized events to the session store and triggers the
// launcher bindings. State mutation is synchronous and visible to the next
// Snapshot; the launch itself is dispatched after the mutation and is not
// awaited.
type Machine struct {
	store       *Store
	launcher    Launcher
	actions     map[string]string // event type → script
	startScript string

	now      func() time.Time
	newToken func() string
}

func NewMachine(store *Store, launcher Launcher, startScript string, actions map[string]string) *Machine {
	return &Machine{
		store:       store,
		launcher:    launcher,
		actions:     actions,
		startScript: startScript,
		now:         time.Now,
		newToken:    newToken,
	}
}

// newToken mints an unguessable hex token for gating asset retrieval. It is
// a cache-busting correlation value, not a security boundary.
func newToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// StartManual begins a new session from the UI. If one is already in
// progress the prior state is returned untouched with conflict=true; callers
// must reset or wait. Otherwise the begin script is launched.
func (m *Machine) StartManual() (snap *SessionState, conflict bool) {
	snap, ok := m.store.TryMutate(func(st *SessionState) bool {
		if st.Status == InProgress {
			return false
		}
		now := m.now()
		*st = SessionState{
			Status:    InProgress,
			LastEvent: EventStartManual,
			StartedAt: &now,
		}
		return true
	})
	if !ok {
		return snap, true
	}
	if m.startScript != "" && m.launcher != nil {
		m.launcher.Launch(m.startScript)
	}
	return snap, false
}

// Reset returns the session to a canonical idle state so the UI can offer a
// retake. Always succeeds; calling it twice yields the same snapshot.
func (m *Machine) Reset() *SessionState {
	return m.store.Mutate(func(st *SessionState) {
		*st = SessionState{
			Status:    Idle,
			LastEvent: EventReset,
		}
	})
}

// HandleEvent applies a recognized booth event. Unrecognized types return
// (nil, false) without mutating anything. Recognized events always record
// last_event and any asset/share hints; session_start, error and session_end
// additionally transition the status. Events apply last-writer-wins: an
// out-of-order session_end is accepted as-is.
func (m *Machine) HandleEvent(evt Event) (*SessionState, bool) {
	if !evt.Recognized() {
		return nil, false
	}

	ch := Normalize(evt)

	snap := m.store.Mutate(func(st *SessionState) {
		st.LastEvent = ch.LastEvent
		if ch.AssetPath != "" {
			st.AssetPath = ch.AssetPath
		}
		if ch.ShareURL != "" {
			st.ShareURL = ch.ShareURL
		}

		switch evt.Type {
		case EventStart:
			st.Status = InProgress
			st.Error = ""
		case EventError:
			st.Status = Errored
			if msg := evt.Param("message"); msg != "" {
				st.Error = msg
			} else {
				st.Error = defaultErrorMessage
			}
		case EventEnd:
			// Hints were folded in above, so the stored fields already
			// reflect "event hint else prior value".
			if st.AssetPath != "" {
				st.AssetToken = m.newToken()
			} else {
				st.AssetToken = ""
			}
			now := m.now()
			st.Status = Completed
			st.CompletedAt = &now
			st.Error = ""
		}
	})

	if script := m.actions[evt.Type]; script != "" && m.launcher != nil {
		m.launcher.Launch(script)
	}
	return snap, true
}

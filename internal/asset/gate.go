// Package asset decides whether the current session's photo may be served
// and derives the optimistic polling view of the session state.
package asset

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/boothsync/backend/internal/session"
)

// Gate outcomes. All three surface as a not-found to HTTP callers;
// ErrFileMissing additionally warrants an error annotation on the session.
var (
	ErrNotAvailable  = errors.New("no photo available yet")
	ErrTokenMismatch = errors.New("photo token mismatch")
	ErrFileMissing   = errors.New("photo file not found")
)

const DefaultContentType = "image/jpeg"

// File is a servable asset resolved from a session snapshot.
type File struct {
	Path        string
	Name        string
	ContentType string
}

// Gate validates asset retrieval requests against session snapshots.
type Gate struct {
	contentType string
}

func NewGate(contentType string) *Gate {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Gate{contentType: contentType}
}

// Resolve checks whether the snapshot's asset may be served for the
// requested token. An empty token skips the match (the token is advisory
// cache-busting, not auth); a non-empty token must equal the minted one so a
// stale cached URL never silently serves a different session's photo.
func (g *Gate) Resolve(snap *session.SessionState, token string) (*File, error) {
	if !snap.HasAsset() {
		return nil, ErrNotAvailable
	}
	if token != "" && token != snap.AssetToken {
		return nil, ErrTokenMismatch
	}
	info, err := os.Stat(snap.AssetPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrFileMissing
	}
	return &File{
		Path:        snap.AssetPath,
		Name:        filepath.Base(snap.AssetPath),
		ContentType: g.contentType,
	}, nil
}

// View is the polling shape: the raw state plus derived asset fields. The
// derived keys are always present and null when unavailable, matching what
// the frontend expects.
type View struct {
	session.SessionState
	AssetURL  *string `json:"asset_url"`
	AssetName *string `json:"asset_name"`
	// Share shadows the embedded omitempty share_url so the key is always
	// present (null when unset) in the polling payload.
	Share *string `json:"share_url"`
}

// BuildView enriches a snapshot for polling. asset_url is present only while
// the file actually exists on disk; asset_name sticks to the recorded path.
// This view is allowed to be optimistic: retrieval re-validates via Resolve.
func BuildView(snap *session.SessionState) View {
	v := View{SessionState: *snap}
	if snap.ShareURL != "" {
		s := snap.ShareURL
		v.Share = &s
	}
	if snap.HasAsset() {
		name := filepath.Base(snap.AssetPath)
		v.AssetName = &name
		if info, err := os.Stat(snap.AssetPath); err == nil && info.Mode().IsRegular() {
			u := "/session/asset?token=" + snap.AssetToken
			v.AssetURL = &u
		}
	}
	return v
}

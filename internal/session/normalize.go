package session

import (
	"net/url"
	"strings"
)

// Event type names delivered by the booth software.
const (
	EventPrinting    = "printing"
	EventFileUpload  = "file_upload"
	EventStart       = "session_start"
	EventEnd         = "session_end"
	EventError       = "error"
	EventStartManual = "session_start_manual"
	EventReset       = "manual_reset"
)

// recognized is the fixed allow-list of booth event types. Anything else is
// acknowledged and dropped so the log stays quiet; this is a noise filter,
// not a security control.
var recognized = map[string]bool{
	EventPrinting:   true,
	EventFileUpload: true,
	EventStart:      true,
	EventEnd:        true,
	EventError:      true,
}

// Event is a loosely structured notification: a type plus whatever key/value
// parameters the booth attached to the callback URL.
type Event struct {
	Type   string
	Params map[string]string
}

// Recognized reports whether the event type is on the allow-list.
func (e Event) Recognized() bool {
	return recognized[e.Type]
}

// Param returns the first present non-empty value among the given parameter
// keys, trimmed of surrounding whitespace. Presence is decided before
// trimming: a whitespace-only value claims its alias slot and trims to
// empty rather than deferring to a later key.
func (e Event) Param(keys ...string) string {
	for _, k := range keys {
		if v := e.Params[k]; v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Change is the canonical update derived from a recognized event. Empty
// strings mean the event carried no hint for that field.
type Change struct {
	LastEvent string
	AssetPath string
	ShareURL  string
}

// Normalize maps the event's ad hoc parameters onto canonical fields. The
// booth names the asset parameter inconsistently across versions, so a
// priority of aliases is consulted: param1 before path before file for the
// asset, param2 before share_url for the share link.
func Normalize(evt Event) Change {
	return Change{
		LastEvent: evt.Type,
		AssetPath: evt.Param("param1", "path", "file"),
		ShareURL:  evt.Param("param2", "share_url"),
	}
}

// DecodeParams percent-decodes each value once more. Query parsing already
// unescaped them, but the booth double-encodes values it embeds in callback
// URLs; a value that fails to decode is kept as-is.
func DecodeParams(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if dec, err := url.QueryUnescape(v); err == nil {
			out[k] = dec
		} else {
			out[k] = v
		}
	}
	return out
}

package session

import (
	"testing"
)

func TestRecognized(t *testing.T) {
	tests := []struct {
		eventType string
		want      bool
	}{
		{"printing", true},
		{"file_upload", true},
		{"session_start", true},
		{"session_end", true},
		{"error", true},
		{"unknown_thing", false},
		{"", false},
		{"session_start_manual", false}, // internal marker, never accepted from the wire
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			evt := Event{Type: tt.eventType}
			if got := evt.Recognized(); got != tt.want {
				t.Errorf("Recognized(%q) = %v, want %v", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestNormalizeAssetAliasPriority(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			name:   "param1 beats path and file",
			params: map[string]string{"param1": "a.jpg", "path": "b.jpg", "file": "c.jpg"},
			want:   "a.jpg",
		},
		{
			name:   "path beats file",
			params: map[string]string{"path": "b.jpg", "file": "c.jpg"},
			want:   "b.jpg",
		},
		{
			name:   "file alone",
			params: map[string]string{"file": "c.jpg"},
			want:   "c.jpg",
		},
		{
			name:   "no alias",
			params: map[string]string{"other": "x"},
			want:   "",
		},
		{
			name:   "empty param1 falls through",
			params: map[string]string{"param1": "", "path": "b.jpg"},
			want:   "b.jpg",
		},
		{
			name:   "whitespace-only param1 claims the slot",
			params: map[string]string{"param1": "  ", "path": "b.jpg"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := Normalize(Event{Type: EventEnd, Params: tt.params})
			if ch.AssetPath != tt.want {
				t.Errorf("AssetPath = %q, want %q", ch.AssetPath, tt.want)
			}
		})
	}
}

func TestNormalizeShareAliasPriority(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			name:   "param2 beats share_url",
			params: map[string]string{"param2": "http://a", "share_url": "http://b"},
			want:   "http://a",
		},
		{
			name:   "share_url alone",
			params: map[string]string{"share_url": "http://b"},
			want:   "http://b",
		},
		{
			name:   "absent",
			params: map[string]string{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := Normalize(Event{Type: EventEnd, Params: tt.params})
			if ch.ShareURL != tt.want {
				t.Errorf("ShareURL = %q, want %q", ch.ShareURL, tt.want)
			}
		})
	}
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	ch := Normalize(Event{Type: EventEnd, Params: map[string]string{
		"param1": "  /tmp/photo.jpg \n",
		"param2": "\thttp://share/1 ",
	}})
	if ch.AssetPath != "/tmp/photo.jpg" {
		t.Errorf("AssetPath = %q, want trimmed path", ch.AssetPath)
	}
	if ch.ShareURL != "http://share/1" {
		t.Errorf("ShareURL = %q, want trimmed URL", ch.ShareURL)
	}
}

func TestNormalizeRecordsLastEvent(t *testing.T) {
	ch := Normalize(Event{Type: EventPrinting})
	if ch.LastEvent != "printing" {
		t.Errorf("LastEvent = %q, want printing", ch.LastEvent)
	}
}

func TestDecodeParams(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want map[string]string
	}{
		{
			name: "double-encoded value decoded once more",
			in:   map[string]string{"param1": "C%3A%5Cphotos%5Cp.jpg"},
			want: map[string]string{"param1": `C:\photos\p.jpg`},
		},
		{
			name: "plain value untouched",
			in:   map[string]string{"message": "Camera disconnected"},
			want: map[string]string{"message": "Camera disconnected"},
		},
		{
			name: "invalid escape kept raw",
			in:   map[string]string{"param1": "50%_done"},
			want: map[string]string{"param1": "50%_done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeParams(tt.in)
			for k, want := range tt.want {
				if got[k] != want {
					t.Errorf("DecodeParams[%q] = %q, want %q", k, got[k], want)
				}
			}
		})
	}
}

// Package mock drives the session machine through scripted booth cycles so
// the frontend can be developed without booth hardware attached.
package mock

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/boothsync/backend/internal/session"
	"github.com/boothsync/backend/internal/ws"
)

const tickInterval = 2 * time.Second

// step is one simulated booth notification within a cycle.
type step struct {
	event  string
	params func(g *Generator) map[string]string
}

type Generator struct {
	machine     *session.Machine
	broadcaster *ws.Broadcaster
	assetsDir   string
	cycle       int
}

func NewGenerator(machine *session.Machine, broadcaster *ws.Broadcaster, assetsDir string) *Generator {
	return &Generator{
		machine:     machine,
		broadcaster: broadcaster,
		assetsDir:   assetsDir,
	}
}

// Start loops full booth cycles on a ticker until ctx is cancelled. Roughly
// one cycle in six fails with a booth error instead of completing.
func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	steps := g.nextCycle()
	idx := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if idx >= len(steps) {
				g.machine.Reset()
				g.broadcaster.QueueState()
				steps = g.nextCycle()
				idx = 0
				continue
			}
			st := steps[idx]
			idx++

			var params map[string]string
			if st.params != nil {
				params = st.params(g)
			}
			evt := session.Event{Type: st.event, Params: params}
			if _, ok := g.machine.HandleEvent(evt); !ok {
				log.Printf("mock: event %q not recognized", st.event)
				continue
			}
			g.broadcaster.QueueState()
		}
	}
}

func (g *Generator) nextCycle() []step {
	g.cycle++

	if rand.Intn(6) == 0 {
		return []step{
			{event: session.EventStart},
			{event: session.EventError, params: func(*Generator) map[string]string {
				return map[string]string{"message": "Camera disconnected"}
			}},
		}
	}

	return []step{
		{event: session.EventStart},
		{event: session.EventPrinting},
		{event: session.EventFileUpload},
		{event: session.EventEnd, params: func(g *Generator) map[string]string {
			return g.endParams()
		}},
	}
}

// endParams materializes a demo photo on disk so the status view, the asset
// gate and the token round-trip all behave as they would with a real booth.
func (g *Generator) endParams() map[string]string {
	name := fmt.Sprintf("mock-photo-%d.jpg", g.cycle)
	path := filepath.Join(g.assetsDir, name)
	if err := os.WriteFile(path, demoJPEG, 0o644); err != nil {
		log.Printf("mock: writing demo photo: %v", err)
	}
	return map[string]string{
		"param1": path,
		"param2": fmt.Sprintf("http://share.example/%d", g.cycle),
	}
}

// demoJPEG is a minimal JPEG header followed by EOI; enough for existence
// and content-type checks.
var demoJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

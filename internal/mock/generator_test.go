package mock

import (
	"testing"

	"github.com/boothsync/backend/internal/session"
)

func TestNextCycleShapes(t *testing.T) {
	store := session.NewStore()
	machine := session.NewMachine(store, nil, "", nil)
	g := NewGenerator(machine, nil, t.TempDir())

	// Every cycle starts with session_start and ends in a terminal event.
	for i := 0; i < 50; i++ {
		steps := g.nextCycle()
		if len(steps) < 2 {
			t.Fatalf("cycle %d has %d steps", i, len(steps))
		}
		if steps[0].event != session.EventStart {
			t.Errorf("cycle %d starts with %q", i, steps[0].event)
		}
		last := steps[len(steps)-1].event
		if last != session.EventEnd && last != session.EventError {
			t.Errorf("cycle %d ends with %q", i, last)
		}
	}
}

func TestEndParamsWritesDemoPhoto(t *testing.T) {
	store := session.NewStore()
	machine := session.NewMachine(store, nil, "", nil)
	g := NewGenerator(machine, nil, t.TempDir())
	g.cycle = 7

	params := g.endParams()
	if params["param1"] == "" {
		t.Fatal("endParams produced no asset path")
	}
	if params["param2"] == "" {
		t.Error("endParams produced no share URL")
	}

	// The demo photo must actually exist so the asset gate can serve it.
	snap, ok := machine.HandleEvent(session.Event{Type: session.EventEnd, Params: params})
	if !ok {
		t.Fatal("session_end not handled")
	}
	if snap.AssetPath != params["param1"] {
		t.Errorf("asset_path = %q, want %q", snap.AssetPath, params["param1"])
	}
	if snap.AssetToken == "" {
		t.Error("no token minted for demo photo")
	}
}

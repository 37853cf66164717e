package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleScript = `{
	"name": "duel",
	"players": [{"name": "alice", "x": 1, "y": 1}, {"name": "bob", "x": 3, "y": 3}],
	"events": [
		{"tick": 3, "player": 1, "action": "build", "down": true},
		{"tick": 1, "player": 0, "action": "Right", "down": true},
		{"tick": 2, "player": 0, "action": "right", "down": false}
	],
	"max_ticks": 40
}`

func TestParseInputScript(t *testing.T) {
	s, err := ParseInputScript([]byte(sampleScript))
	if err != nil {
		t.Fatalf("ParseInputScript: %v", err)
	}
	if s.Name != "duel" || len(s.Players) != 2 || s.MaxTicks != 40 {
		t.Errorf("script = %+v", s)
	}
	for i := 1; i < len(s.Events); i++ {
		if s.Events[i-1].Tick > s.Events[i].Tick {
			t.Fatalf("events not sorted: %+v", s.Events)
		}
	}
	if s.actions[0] != ActionRight || s.actions[2] != ActionBuild {
		t.Errorf("actions = %v", s.actions)
	}
}

func TestParseInputScriptRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"no players", `{"players": []}`},
		{"tick zero", `{"players": [{}], "events": [{"tick": 0, "player": 0, "action": "up"}]}`},
		{"unknown player", `{"players": [{}], "events": [{"tick": 1, "player": 2, "action": "up"}]}`},
		{"unknown action", `{"players": [{}], "events": [{"tick": 1, "player": 0, "action": "jump"}]}`},
		{"negative max ticks", `{"players": [{}], "max_ticks": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInputScript([]byte(tt.data))
			if !errors.Is(err, ErrInvalidScript) {
				t.Errorf("err = %v, want ErrInvalidScript", err)
			}
		})
	}
}

func TestLoadInputScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duel.json")
	if err := os.WriteFile(path, []byte(sampleScript), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadInputScript(path); err != nil {
		t.Errorf("LoadInputScript: %v", err)
	}
	if _, err := LoadInputScript(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadInputScript(missing) succeeded")
	}
}

func TestScriptValidateForGrid(t *testing.T) {
	s, err := ParseInputScript([]byte(sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.validateFor(4, 4, 4); err != nil {
		t.Errorf("validateFor(4, 4, 4): %v", err)
	}
	if err := s.validateFor(3, 3, 4); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("spawn outside grid: err = %v", err)
	}
	if err := s.validateFor(4, 4, 1); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("too many players: err = %v", err)
	}
}

func TestScriptCursorAppliesEventsByTick(t *testing.T) {
	s, err := ParseInputScript([]byte(sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	buf := NewInputBuffer(2)
	c := scriptCursor{script: s}

	c.apply(buf, 1)
	buf.Latch(testDT)
	if !buf.State(0, ActionRight).Active {
		t.Error("tick 1 event not applied")
	}
	if buf.State(1, ActionBuild).Active {
		t.Error("tick 3 event applied early")
	}

	c.apply(buf, 3)
	buf.Latch(testDT)
	if buf.State(0, ActionRight).Active || !buf.State(1, ActionBuild).Active {
		t.Error("tick 2 and 3 events not applied")
	}
	if !c.done() {
		t.Error("cursor not done after last event")
	}
}

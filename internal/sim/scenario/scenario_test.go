package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/colony"
	"colonysim.ai/internal/sim/tuning"
)

func configsDir() string { return filepath.Join("..", "..", "..", "configs") }

func TestLoad_ConfigsSample(t *testing.T) {
	s, err := Load(filepath.Join(configsDir(), "scenario.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.PlanetID != "achilles" || s.Population != 40 || len(s.Buildings) != 4 {
		t.Fatalf("unexpected scenario: %+v", s)
	}
	if s.Buildings[1].Tech != "human" {
		t.Fatalf("building tech should default to scenario tech, got %q", s.Buildings[1].Tech)
	}

	cats, err := catalogs.Load(configsDir())
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	p, err := s.Build(cats, tuning.Defaults())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bs := p.Buildings()
	if len(bs) != 4 {
		t.Fatalf("buildings=%d want 4", len(bs))
	}
	if bs[1].Progress() != 0 || !bs[0].Complete() {
		t.Fatalf("progress defaults not applied")
	}
	radar := bs[3]
	if radar.Health() != 60 || !radar.Repairing || radar.Status() != colony.StatusDamaged {
		t.Fatalf("radar health=%d repairing=%v status=%v", radar.Health(), radar.Repairing, radar.Status())
	}
	if !bs[2].Operational() {
		t.Fatalf("factory should be operational after initial allocation")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"missing planet":  "population: 1\n",
		"bad population":  "planet_id: a\npopulation: -1\n",
		"bad progress":    "planet_id: a\nbuildings:\n  - prototype: radar\n    progress: 120\n",
		"empty prototype": "planet_id: a\nbuildings:\n  - x: 1\n",
	}
	for name, body := range cases {
		p := filepath.Join(t.TempDir(), "scenario.yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuild_ReportsPlacementErrors(t *testing.T) {
	cats, err := catalogs.Load(configsDir())
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	s := Scenario{
		PlanetID: "a",
		Tech:     "human",
		Buildings: []Building{
			{Prototype: "radar", Tech: "human", X: 0, Y: 0},
			{Prototype: "radar", Tech: "human", X: 1, Y: 0},
		},
	}
	if _, err := s.Build(cats, tuning.Defaults()); !errors.Is(err, colony.ErrOccupied) {
		t.Fatalf("want ErrOccupied, got %v", err)
	}
}

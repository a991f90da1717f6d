package colony

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/tuning"
)

func testCatalogs() *catalogs.Catalogs {
	def := func(id string, energy, workers, w, h int) *catalogs.BuildingDef {
		return &catalogs.BuildingDef{
			ID:      id,
			Energy:  energy,
			Workers: workers,
			Images:  map[string]*catalogs.BuildingImages{"human": testImages(w, h, 2)},
		}
	}
	c := &catalogs.Catalogs{}
	c.Buildings.ByID = map[string]*catalogs.BuildingDef{
		"power_plant": def("power_plant", 100, 10, 3, 3),
		"solar_plant": def("solar_plant", 40, 0, 2, 2),
		"factory":     def("factory", -60, 20, 4, 3),
		"radar":       def("radar", -20, 0, 2, 2),
	}
	return c
}

func testPlanet(population int) *Planet {
	tune := tuning.Defaults()
	tune.BuildProgressPerTick = 50
	tune.RepairHealthPerTick = 5
	return NewPlanet("achilles", population, testCatalogs(), tune)
}

func mustPlaceBuilt(t *testing.T, p *Planet, proto string, x, y int) *Building {
	t.Helper()
	b, err := p.Place(proto, "human", x, y)
	if err != nil {
		t.Fatalf("Place(%s): %v", proto, err)
	}
	b.SetProgress(100)
	return b
}

func TestPlace_StartsConstruction(t *testing.T) {
	p := testPlanet(10)
	b, err := p.Place("power_plant", "human", 0, 10)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := uuid.Parse(b.ID); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", b.ID, err)
	}
	if b.Progress() != 0 || b.Health() != 100 || !b.Enabled {
		t.Fatalf("fresh building state: progress=%d health=%d enabled=%v", b.Progress(), b.Health(), b.Enabled)
	}
	if b.Planet.PlanetID() != "achilles" {
		t.Fatalf("PlanetID=%q", b.Planet.PlanetID())
	}
	if b.Prototype != p.cats.Buildings.ByID["power_plant"] {
		t.Fatalf("prototype should be shared with the catalog")
	}
	got, ok := p.Building(b.ID)
	if !ok || got != b {
		t.Fatalf("Building(%s) lookup failed", b.ID)
	}
}

func TestPlace_Errors(t *testing.T) {
	p := testPlanet(10)
	if _, err := p.Place("castle", "human", 0, 0); !errors.Is(err, ErrUnknownPrototype) {
		t.Fatalf("want ErrUnknownPrototype, got %v", err)
	}
	if _, err := p.Place("radar", "alien", 0, 0); !errors.Is(err, ErrUnknownTech) {
		t.Fatalf("want ErrUnknownTech, got %v", err)
	}
	if _, err := p.Place("power_plant", "human", 0, 10); err != nil {
		t.Fatalf("Place: %v", err)
	}
	// power_plant covers x 0..2, y 8..10.
	if _, err := p.Place("radar", "human", 2, 8); !errors.Is(err, ErrOccupied) {
		t.Fatalf("want ErrOccupied, got %v", err)
	}
	if _, err := p.Place("radar", "human", 3, 10); err != nil {
		t.Fatalf("adjacent placement should succeed: %v", err)
	}
	if _, err := p.Place("radar", "human", 0, 7); err != nil {
		t.Fatalf("placement below should succeed: %v", err)
	}
	if len(p.Buildings()) != 3 {
		t.Fatalf("buildings=%d want 3", len(p.Buildings()))
	}
}

func TestStep_AdvancesConstruction(t *testing.T) {
	p := testPlanet(10)
	b, _ := p.Place("solar_plant", "human", 0, 0)
	p.Step()
	if b.Progress() != 50 || b.EnergyEffect() != 0 {
		t.Fatalf("after 1 tick: progress=%d energy=%d", b.Progress(), b.EnergyEffect())
	}
	entry := p.Step()
	if !b.Complete() {
		t.Fatalf("expected complete, progress=%d", b.Progress())
	}
	if entry.Tick != 2 || entry.EnergyProduced != 40 {
		t.Fatalf("entry: tick=%d produced=%d", entry.Tick, entry.EnergyProduced)
	}
}

func TestAllocate_WorkerShortageSplitsProportionally(t *testing.T) {
	p := testPlanet(15)
	a := mustPlaceBuilt(t, p, "power_plant", 0, 10)
	b := mustPlaceBuilt(t, p, "power_plant", 10, 10)
	p.Allocate()
	if a.Workers != 8 || b.Workers != 7 {
		t.Fatalf("workers a=%d b=%d want 8,7", a.Workers, b.Workers)
	}
}

func TestAllocate_StaffingFeedsEnergy(t *testing.T) {
	p := testPlanet(20)
	pp := mustPlaceBuilt(t, p, "power_plant", 0, 10)
	f := mustPlaceBuilt(t, p, "factory", 10, 10)
	p.Allocate()

	if pp.Workers != 7 || f.Workers != 13 {
		t.Fatalf("workers pp=%d factory=%d want 7,13", pp.Workers, f.Workers)
	}
	if got := pp.EnergyEffect(); got != 70 {
		t.Fatalf("power plant EnergyEffect=%d want 70", got)
	}
	if got := f.EnergyEffect(); got != -39 {
		t.Fatalf("factory EnergyEffect=%d want -39", got)
	}
	if f.Energy != 39 || !f.Operational() || f.Status() != StatusNormal {
		t.Fatalf("factory energy=%d operational=%v status=%v", f.Energy, f.Operational(), f.Status())
	}
	if pp.Energy != 0 {
		t.Fatalf("producer should not receive energy, got %d", pp.Energy)
	}
}

func TestAllocate_EnergyShortage(t *testing.T) {
	p := testPlanet(0)
	solar := mustPlaceBuilt(t, p, "solar_plant", 0, 10)
	solar.SetHealth(50)
	radars := []*Building{
		mustPlaceBuilt(t, p, "radar", 10, 10),
		mustPlaceBuilt(t, p, "radar", 20, 10),
		mustPlaceBuilt(t, p, "radar", 30, 10),
	}
	p.Allocate()
	for _, r := range radars {
		// 20 produced over 60 demanded.
		if r.Energy != 6 {
			t.Fatalf("radar energy=%d want 6", r.Energy)
		}
		if r.Status() != StatusNoEnergy {
			t.Fatalf("radar status=%v want NO_ENERGY", r.Status())
		}
	}

	solar.SetHealth(100)
	p.Allocate()
	for _, r := range radars {
		if r.Energy != 13 || r.Status() != StatusNormal {
			t.Fatalf("radar energy=%d status=%v want 13 NORMAL", r.Energy, r.Status())
		}
	}
}

func TestRepair_RestoresHealth(t *testing.T) {
	p := testPlanet(0)
	r := mustPlaceBuilt(t, p, "radar", 0, 0)
	if err := p.Damage(r.ID, 10); err != nil {
		t.Fatalf("Damage: %v", err)
	}
	if err := p.Repair(r.ID); err != nil || !r.Repairing {
		t.Fatalf("Repair: %v repairing=%v", err, r.Repairing)
	}
	p.Step()
	if r.Health() != 95 || !r.Repairing {
		t.Fatalf("health=%d repairing=%v", r.Health(), r.Repairing)
	}
	p.Step()
	if r.Health() != 100 || r.Repairing {
		t.Fatalf("health=%d repairing=%v", r.Health(), r.Repairing)
	}
}

func TestStep_RemovesDestroyed(t *testing.T) {
	p := testPlanet(0)
	r := mustPlaceBuilt(t, p, "radar", 0, 0)
	keep := mustPlaceBuilt(t, p, "solar_plant", 5, 0)
	if err := p.Damage(r.ID, 500); err != nil {
		t.Fatalf("Damage: %v", err)
	}
	if r.Status() != StatusDestroyed {
		t.Fatalf("status=%v want DESTROYED", r.Status())
	}
	if err := p.Repair(r.ID); err != nil || r.Repairing {
		t.Fatalf("destroyed building must not be repaired")
	}
	entry := p.Step()
	if len(entry.Removed) != 1 || entry.Removed[0] != r.ID {
		t.Fatalf("Removed=%v want [%s]", entry.Removed, r.ID)
	}
	if _, ok := p.Building(r.ID); ok {
		t.Fatalf("destroyed building still present")
	}
	if bs := p.Buildings(); len(bs) != 1 || bs[0] != keep {
		t.Fatalf("unexpected buildings after removal")
	}
}

func TestPlanet_UnknownIDs(t *testing.T) {
	p := testPlanet(0)
	if err := p.Remove("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove: %v", err)
	}
	if err := p.Damage("nope", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Damage: %v", err)
	}
	if err := p.Damage("nope", -1); !errors.Is(err, ErrBadAmount) {
		t.Fatalf("Damage negative: %v", err)
	}
	if err := p.SetEnabled("nope", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetEnabled: %v", err)
	}
}

func TestSummary_CountsAndJSON(t *testing.T) {
	p := testPlanet(30)
	mustPlaceBuilt(t, p, "power_plant", 0, 10)
	f := mustPlaceBuilt(t, p, "factory", 10, 10)
	r := mustPlaceBuilt(t, p, "radar", 20, 10)
	r.SetHealth(60)
	if err := p.SetEnabled(f.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	p.Allocate()
	s := p.Summary()

	if s.EnergyProduced != 100 || s.EnergyDemand != 12 || s.EnergyAssigned != 12 {
		t.Fatalf("energy produced=%d demand=%d assigned=%d", s.EnergyProduced, s.EnergyDemand, s.EnergyAssigned)
	}
	if s.WorkerDemand != 10 || s.WorkersAssigned != 10 || s.WorkersAvailable != 30 {
		t.Fatalf("workers demand=%d assigned=%d available=%d", s.WorkerDemand, s.WorkersAssigned, s.WorkersAvailable)
	}
	if s.Statuses[StatusNormal] != 2 || s.Statuses[StatusDamaged] != 1 {
		t.Fatalf("statuses=%v", s.Statuses)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back struct {
		Statuses map[string]int `json:"statuses"`
	}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Statuses["DAMAGED"] != 1 || back.Statuses["NORMAL"] != 2 {
		t.Fatalf("statuses json=%v", back.Statuses)
	}
}

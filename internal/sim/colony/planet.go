package colony

import (
	"fmt"

	"github.com/google/uuid"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/tuning"
)

// Planet owns the buildings of one colony and is the only mutator of their
// health, progress, energy, workers and enabled state.
type Planet struct {
	id         string
	population int

	cats *catalogs.Catalogs
	tune tuning.Tuning

	tick      uint64
	buildings []*Building
	byID      map[string]*Building
}

func NewPlanet(id string, population int, cats *catalogs.Catalogs, tune tuning.Tuning) *Planet {
	if population < 0 {
		population = 0
	}
	return &Planet{
		id:         id,
		population: population,
		cats:       cats,
		tune:       tune,
		byID:       map[string]*Building{},
	}
}

func (p *Planet) PlanetID() string { return p.id }
func (p *Planet) Tick() uint64     { return p.tick }
func (p *Planet) Population() int  { return p.population }

func (p *Planet) SetPopulation(n int) {
	if n < 0 {
		n = 0
	}
	p.population = n
}

// Place starts construction of a new building anchored at (x,y).
func (p *Planet) Place(prototypeID, techID string, x, y int) (*Building, error) {
	def, ok := p.cats.Buildings.ByID[prototypeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrototype, prototypeID)
	}
	images, ok := def.ImagesFor(techID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTech, prototypeID, techID)
	}
	b := NewBuilding(def, images, p, x, y)
	for _, o := range p.buildings {
		if b.overlaps(o) {
			return nil, fmt.Errorf("%w: %s at (%d,%d)", ErrOccupied, o.ID, o.X, o.Y)
		}
	}
	b.ID = uuid.NewString()
	p.buildings = append(p.buildings, b)
	p.byID[b.ID] = b
	return b, nil
}

func (p *Planet) Building(id string) (*Building, bool) {
	b, ok := p.byID[id]
	return b, ok
}

// Buildings returns the buildings in placement order.
func (p *Planet) Buildings() []*Building {
	out := make([]*Building, len(p.buildings))
	copy(out, p.buildings)
	return out
}

func (p *Planet) Remove(id string) error {
	if _, ok := p.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(p.byID, id)
	for i, b := range p.buildings {
		if b.ID == id {
			p.buildings = append(p.buildings[:i], p.buildings[i+1:]...)
			break
		}
	}
	return nil
}

func (p *Planet) Damage(id string, amount int) error {
	if amount < 0 {
		return ErrBadAmount
	}
	b, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.SetHealth(b.health - amount)
	return nil
}

// Repair flags a damaged building for repair. Destroyed buildings cannot be
// repaired.
func (p *Planet) Repair(id string) error {
	b, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Repairing = b.health > 0 && b.health < FullHealth
	return nil
}

func (p *Planet) SetEnabled(id string, enabled bool) error {
	b, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.Enabled = enabled
	return nil
}

// Allocate hands out workers and then energy to the buildings that need
// them. Workers go first since staffing changes the energy effect.
func (p *Planet) Allocate() {
	p.allocateWorkers()
	p.allocateEnergy()
}

func (p *Planet) allocateWorkers() {
	total := 0
	for _, b := range p.buildings {
		b.Workers = 0
		total += b.WorkerDemand()
	}
	if total == 0 {
		return
	}
	if p.population >= total {
		for _, b := range p.buildings {
			b.Workers = b.WorkerDemand()
		}
		return
	}
	given := 0
	for _, b := range p.buildings {
		d := b.WorkerDemand()
		b.Workers = d * p.population / total
		given += b.Workers
	}
	// Floor rounding leaves a remainder; hand it out in placement order.
	rest := p.population - given
	for _, b := range p.buildings {
		if rest == 0 {
			break
		}
		if b.Workers < b.WorkerDemand() {
			b.Workers++
			rest--
		}
	}
}

func (p *Planet) allocateEnergy() {
	produced, demand := 0, 0
	for _, b := range p.buildings {
		b.Energy = 0
		if e := b.EnergyEffect(); e > 0 {
			produced += e
		} else {
			demand -= e
		}
	}
	if demand == 0 {
		return
	}
	for _, b := range p.buildings {
		e := b.EnergyEffect()
		if e >= 0 {
			continue
		}
		need := -e
		if produced >= demand {
			b.Energy = need
		} else {
			b.Energy = need * produced / demand
		}
	}
}

// Step runs one simulation tick: construction and repair advance, destroyed
// buildings are removed, and resources are reallocated.
func (p *Planet) Step() TickLogEntry {
	p.tick++

	for _, b := range p.buildings {
		if !b.Complete() {
			b.SetProgress(b.progress + p.tune.BuildProgressPerTick)
			continue
		}
		if b.Repairing {
			if b.health == 0 {
				b.Repairing = false
				continue
			}
			b.SetHealth(b.health + p.tune.RepairHealthPerTick)
			if b.health == FullHealth {
				b.Repairing = false
			}
		}
	}

	var removed []string
	for _, b := range p.Buildings() {
		if b.Status() == StatusDestroyed {
			removed = append(removed, b.ID)
			_ = p.Remove(b.ID)
		}
	}

	p.Allocate()

	entry := p.Summary()
	entry.Removed = removed
	return entry
}

package colony

// TickLogEntry is the per-tick aggregate of a planet written to the tick log
// and the index.
type TickLogEntry struct {
	PlanetID string `json:"planet_id"`
	Tick     uint64 `json:"tick"`

	EnergyProduced int `json:"energy_produced"`
	EnergyDemand   int `json:"energy_demand"`
	EnergyAssigned int `json:"energy_assigned"`

	WorkersAvailable int `json:"workers_available"`
	WorkerDemand     int `json:"worker_demand"`
	WorkersAssigned  int `json:"workers_assigned"`

	Operational int                `json:"operational"`
	Statuses    map[TileStatus]int `json:"statuses"`
	Removed     []string           `json:"removed,omitempty"`
	Buildings   []BuildingRow      `json:"buildings"`
}

type BuildingRow struct {
	ID          string     `json:"id"`
	Prototype   string     `json:"prototype"`
	X           int        `json:"x"`
	Y           int        `json:"y"`
	Health      int        `json:"health"`
	Progress    int        `json:"progress"`
	Enabled     bool       `json:"enabled"`
	Repairing   bool       `json:"repairing,omitempty"`
	Energy      int        `json:"energy"`
	Received    int        `json:"energy_received"`
	Workers     int        `json:"workers"`
	Operational bool       `json:"operational"`
	Status      TileStatus `json:"status"`
}

// Summary aggregates the current supply and demand without mutating anything.
func (p *Planet) Summary() TickLogEntry {
	e := TickLogEntry{
		PlanetID:         p.id,
		Tick:             p.tick,
		WorkersAvailable: p.population,
		Statuses:         map[TileStatus]int{},
		Buildings:        make([]BuildingRow, 0, len(p.buildings)),
	}
	for _, b := range p.buildings {
		eff := b.EnergyEffect()
		if eff > 0 {
			e.EnergyProduced += eff
		} else {
			e.EnergyDemand -= eff
			e.EnergyAssigned += absInt(b.Energy)
		}
		e.WorkerDemand += b.WorkerDemand()
		e.WorkersAssigned += b.Workers

		op := b.Operational()
		if op && b.Complete() {
			e.Operational++
		}
		st := b.Status()
		e.Statuses[st]++

		proto := ""
		if b.Prototype != nil {
			proto = b.Prototype.ID
		}
		e.Buildings = append(e.Buildings, BuildingRow{
			ID:          b.ID,
			Prototype:   proto,
			X:           b.X,
			Y:           b.Y,
			Health:      b.health,
			Progress:    b.progress,
			Enabled:     b.Enabled,
			Repairing:   b.Repairing,
			Energy:      eff,
			Received:    b.Energy,
			Workers:     b.Workers,
			Operational: op,
			Status:      st,
		})
	}
	return e
}

package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/colony"
	"colonysim.ai/internal/sim/tuning"
)

// Scenario describes the starting state of one planet.
type Scenario struct {
	PlanetID   string     `yaml:"planet_id"`
	Population int        `yaml:"population"`
	Tech       string     `yaml:"tech"`
	Buildings  []Building `yaml:"buildings"`
}

type Building struct {
	Prototype string `yaml:"prototype"`
	Tech      string `yaml:"tech,omitempty"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`

	// Unset fields keep the fresh construction-site defaults.
	Progress  *int  `yaml:"progress,omitempty"`
	Health    *int  `yaml:"health,omitempty"`
	Enabled   *bool `yaml:"enabled,omitempty"`
	Repairing bool  `yaml:"repairing,omitempty"`
}

func Load(path string) (Scenario, error) {
	var s Scenario
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("scenario.yaml: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("scenario.yaml: %w", err)
	}
	return s, nil
}

func (s *Scenario) Normalize() {
	s.PlanetID = strings.TrimSpace(s.PlanetID)
	s.Tech = strings.TrimSpace(s.Tech)
	if s.Tech == "" {
		s.Tech = "human"
	}
	for i := range s.Buildings {
		b := &s.Buildings[i]
		b.Prototype = strings.TrimSpace(b.Prototype)
		b.Tech = strings.TrimSpace(b.Tech)
		if b.Tech == "" {
			b.Tech = s.Tech
		}
	}
}

func (s Scenario) Validate() error {
	if s.PlanetID == "" {
		return fmt.Errorf("missing planet_id")
	}
	if s.Population < 0 {
		return fmt.Errorf("population must be >= 0")
	}
	for i, b := range s.Buildings {
		if b.Prototype == "" {
			return fmt.Errorf("buildings[%d]: missing prototype", i)
		}
		if b.Progress != nil && (*b.Progress < 0 || *b.Progress > 100) {
			return fmt.Errorf("buildings[%d]: progress out of range", i)
		}
		if b.Health != nil && (*b.Health < 0 || *b.Health > 100) {
			return fmt.Errorf("buildings[%d]: health out of range", i)
		}
	}
	return nil
}

// Build places every scenario building on a new planet and runs an initial
// allocation so the first tick starts from a consistent state.
func (s Scenario) Build(cats *catalogs.Catalogs, tune tuning.Tuning) (*colony.Planet, error) {
	p := colony.NewPlanet(s.PlanetID, s.Population, cats, tune)
	for i, sb := range s.Buildings {
		b, err := p.Place(sb.Prototype, sb.Tech, sb.X, sb.Y)
		if err != nil {
			return nil, fmt.Errorf("buildings[%d]: %w", i, err)
		}
		if sb.Progress != nil {
			b.SetProgress(*sb.Progress)
		}
		if sb.Health != nil {
			b.SetHealth(*sb.Health)
		}
		if sb.Enabled != nil {
			b.Enabled = *sb.Enabled
		}
		if sb.Repairing {
			if err := p.Repair(b.ID); err != nil {
				return nil, fmt.Errorf("buildings[%d]: %w", i, err)
			}
		}
	}
	p.Allocate()
	return p, nil
}

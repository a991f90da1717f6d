package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz" json:"tick_rate_hz"`

	// Construction progress percent gained per tick.
	BuildProgressPerTick int `yaml:"build_progress_per_tick" json:"build_progress_per_tick"`
	// Health percent restored per tick while repairing.
	RepairHealthPerTick int `yaml:"repair_health_per_tick" json:"repair_health_per_tick"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:           5,
		BuildProgressPerTick: 5,
		RepairHealthPerTick:  2,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.BuildProgressPerTick < 0 || t.BuildProgressPerTick > 100 {
		return fmt.Errorf("build_progress_per_tick must be in [0,100]")
	}
	if t.RepairHealthPerTick < 0 || t.RepairHealthPerTick > 100 {
		return fmt.Errorf("repair_health_per_tick must be in [0,100]")
	}
	return nil
}

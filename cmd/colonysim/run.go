package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"colonysim.ai/internal/persistence/indexdb"
	persistlog "colonysim.ai/internal/persistence/log"
	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/colony"
	"colonysim.ai/internal/sim/scenario"
	"colonysim.ai/internal/sim/tuning"
)

type runConfig struct {
	ConfigDir    string
	TuningPath   string
	ScenarioPath string
	DataDir      string
	Ticks        int
	Realtime     bool
	DisableDB    bool
}

func newRunCommand(logger *log.Logger) *cobra.Command {
	var cfg runConfig
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a colony scenario for a number of ticks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), cfg, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.ConfigDir, "configs", "./configs", "config directory")
	f.StringVar(&cfg.TuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	f.StringVar(&cfg.ScenarioPath, "scenario", "./configs/scenario.yaml", "scenario yaml")
	f.StringVar(&cfg.DataDir, "data", "./data", "runtime data directory")
	f.IntVar(&cfg.Ticks, "ticks", 100, "number of ticks to simulate")
	f.BoolVar(&cfg.Realtime, "realtime", false, "pace ticks at tick_rate_hz instead of running flat out")
	f.BoolVar(&cfg.DisableDB, "disable-db", false, "disable the sqlite tick index")
	return cmd
}

func runScenario(ctx context.Context, cfg runConfig, logger *log.Logger) error {
	if cfg.Ticks < 0 {
		return fmt.Errorf("ticks must be >= 0")
	}
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	tp := strings.TrimSpace(cfg.TuningPath)
	if tp == "" {
		tp = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	sc, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	planet, err := sc.Build(cats, tune)
	if err != nil {
		return fmt.Errorf("build planet: %w", err)
	}

	planetDir := filepath.Join(cfg.DataDir, "planets", sc.PlanetID)
	if err := os.MkdirAll(planetDir, 0o755); err != nil {
		return err
	}
	tickLog := persistlog.NewTickLogger(planetDir)
	defer tickLog.Close()

	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(planetDir, "index.db"))
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	logger.Printf("planet=%s population=%d buildings=%d ticks=%d", sc.PlanetID, planet.Population(), len(planet.Buildings()), cfg.Ticks)

	var pace <-chan time.Time
	if cfg.Realtime && tune.TickRateHz > 0 {
		t := time.NewTicker(time.Second / time.Duration(tune.TickRateHz))
		defer t.Stop()
		pace = t.C
	}

	var last colony.TickLogEntry
	for i := 0; i < cfg.Ticks; i++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		last = planet.Step()
		if err := tickLog.WriteTick(last); err != nil {
			return fmt.Errorf("tick log: %w", err)
		}
		_ = idx.WriteTick(last)
		for _, id := range last.Removed {
			logger.Printf("tick %d: building %s destroyed and removed", last.Tick, id)
		}
	}

	if cfg.Ticks > 0 {
		logger.Printf("tick %d: energy %d/%d workers %d/%d operational=%d statuses=%v",
			last.Tick, last.EnergyProduced, last.EnergyDemand,
			last.WorkersAssigned, last.WorkerDemand, last.Operational, last.Statuses)
	}
	if idx != nil {
		st := idx.Stats()
		if st.DropTickTotal > 0 {
			logger.Printf("index: dropped %d ticks", st.DropTickTotal)
		}
	}
	return nil
}

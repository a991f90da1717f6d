package main

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/scenario"
	"colonysim.ai/internal/sim/tuning"
)

func newValidateCommand(logger *log.Logger) *cobra.Command {
	var (
		configDir    string
		tuningPath   string
		scenarioPath string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate building catalogs, tuning and an optional scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := catalogs.Load(configDir)
			if err != nil {
				return err
			}
			tp := strings.TrimSpace(tuningPath)
			if tp == "" {
				tp = filepath.Join(configDir, "tuning.yaml")
			}
			tune, err := tuning.Load(tp)
			if err != nil {
				return err
			}
			logger.Printf("catalogs ok: %d building prototypes digest=%s", len(cats.Buildings.ByID), cats.Buildings.Digest)
			if sp := strings.TrimSpace(scenarioPath); sp != "" {
				sc, err := scenario.Load(sp)
				if err != nil {
					return err
				}
				if _, err := sc.Build(cats, tune); err != nil {
					return err
				}
				logger.Printf("scenario ok: planet=%s buildings=%d", sc.PlanetID, len(sc.Buildings))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configDir, "configs", "./configs", "config directory")
	cmd.Flags().StringVar(&tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario to check against the catalogs (optional)")
	return cmd
}

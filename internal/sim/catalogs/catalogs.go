package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Buildings BuildingCatalog
}

type BuildingCatalog struct {
	ByID   map[string]*BuildingDef
	Order  []string
	Digest string
}

// BuildingDef is the shared, read-only prototype of a building type.
type BuildingDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"` // "POWER","FACTORY","HOUSING",...
	Energy   int    `json:"energy"`         // + produces, - consumes
	Workers  int    `json:"workers"`
	Hitpoint int    `json:"hitpoints,omitempty"`

	// Images keyed by tech id (race art set).
	Images map[string]*BuildingImages `json:"images"`
}

type BuildingImages struct {
	Regular     Tile   `json:"regular"`
	Damaged     Tile   `json:"damaged"`
	BuildPhases []Tile `json:"build_phases"`
}

// Tile is a piece of building art measured in grid tiles.
type Tile struct {
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (d *BuildingDef) ImagesFor(techID string) (*BuildingImages, bool) {
	im, ok := d.Images[techID]
	if !ok || im == nil {
		return nil, false
	}
	return im, true
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseBuildings(raw, out)
}

func parseBuildings(raw []byte, out *BuildingCatalog) error {
	if err := validateBuildings(raw); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = make(map[string]*BuildingDef, len(defs))
	for i := range defs {
		d := &defs[i]
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("buildings.json: duplicate id %q", d.ID)
		}
		for tech, im := range d.Images {
			if im == nil || im.Regular.Width <= 0 || im.Regular.Height <= 0 {
				return fmt.Errorf("buildings.json: %s/%s: regular tile needs a positive size", d.ID, tech)
			}
		}
		out.ByID[d.ID] = d
	}

	out.Order = make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		out.Order = append(out.Order, id)
	}
	sort.Strings(out.Order)
	return nil
}

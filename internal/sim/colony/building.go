package colony

import (
	"sync"

	"colonysim.ai/internal/sim/catalogs"
)

const (
	// Below this health a completed building shows its damaged art and stops
	// running at staffed output.
	DamagedHealthThreshold = 50

	FullHealth   = 100
	FullProgress = 100
)

// PlanetInfo is the owning planet as seen by a building.
type PlanetInfo interface {
	PlanetID() string
}

type Location struct {
	X int
	Y int
}

// Rect is an axis-aligned grid rectangle. Height measures toward +y.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Building is one placed building instance on a planet grid.
//
// X,Y is the top-left anchor tile; the footprint extends toward +x and -y.
// Health and progress are percentages in [0,100]. Energy is the amount of
// energy received from the planet grid, Workers the assigned staff.
type Building struct {
	ID        string
	Prototype *catalogs.BuildingDef
	Images    *catalogs.BuildingImages
	Planet    PlanetInfo

	X int
	Y int

	health   int
	progress int

	Enabled   bool
	Energy    int
	Workers   int
	Repairing bool

	rectOnce sync.Once
	rect     Rect
}

func NewBuilding(proto *catalogs.BuildingDef, images *catalogs.BuildingImages, planet PlanetInfo, x, y int) *Building {
	return &Building{
		Prototype: proto,
		Images:    images,
		Planet:    planet,
		X:         x,
		Y:         y,
		health:    FullHealth,
		Enabled:   true,
	}
}

func (b *Building) Health() int   { return b.health }
func (b *Building) Progress() int { return b.progress }

func (b *Building) SetHealth(v int)   { b.health = clampPercent(v) }
func (b *Building) SetProgress(v int) { b.progress = clampPercent(v) }

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (b *Building) Complete() bool { return b.progress == FullProgress }

func (b *Building) active() bool { return b.Enabled && b.Complete() }

// Tile returns the art to draw at loc, or false when nothing is drawn there.
//
// A completed building only draws on its left column and on the row
// dy == width-1; under construction the whole footprint shows the same
// build phase.
func (b *Building) Tile(loc Location) (catalogs.Tile, bool) {
	im := b.Images
	if im == nil {
		return catalogs.Tile{}, false
	}
	w, h := im.Regular.Width, im.Regular.Height
	dx := loc.X - b.X
	dy := b.Y - loc.Y
	if dx < 0 || dx >= w || dy < 0 || dy >= h {
		return catalogs.Tile{}, false
	}
	if b.Complete() {
		// TODO(render): confirm with the map renderer whether the right column
		// and top row should be drawn as well.
		if dx == 0 || dy == w-1 {
			if b.health < DamagedHealthThreshold {
				return im.Damaged, true
			}
			return im.Regular, true
		}
		return catalogs.Tile{}, false
	}
	n := len(im.BuildPhases)
	if n == 0 {
		return catalogs.Tile{}, false
	}
	return im.BuildPhases[n*b.progress/100], true
}

// RectWithRoad returns the footprint grown by one road tile on each side.
// The value is computed on first use and never changes afterwards.
func (b *Building) RectWithRoad() Rect {
	b.rectOnce.Do(func() {
		var w, h int
		if b.Images != nil {
			w, h = b.Images.Regular.Width, b.Images.Regular.Height
		}
		b.rect = Rect{X: b.X - 1, Y: b.Y + 1, Width: w + 2, Height: h + 2}
	})
	return b.rect
}

// EnergyEffect is the net energy production (positive) or consumption
// (negative) of the building at its current health and staffing.
func (b *Building) EnergyEffect() int {
	if !b.active() {
		return 0
	}
	base := b.Prototype.Energy
	w := b.WorkerFulfillment()
	if !w.Needed() {
		return base * b.health / 100
	}
	if w.AtLeastHalf() && b.health >= DamagedHealthThreshold {
		return base * b.health * w.Assigned / (100 * w.Required)
	}
	return 0
}

func (b *Building) WorkerDemand() int {
	if !b.active() {
		return 0
	}
	return b.Prototype.Workers
}

func (b *Building) Status() TileStatus {
	switch {
	case b.health == 0:
		return StatusDestroyed
	case b.health < FullHealth:
		return StatusDamaged
	case !b.Operational():
		return StatusNoEnergy
	}
	return StatusNormal
}

// EnergyFulfillment compares received energy with what a consuming building
// needs. Producers and idle buildings report no requirement.
func (b *Building) EnergyFulfillment() Fulfillment {
	e := b.EnergyEffect()
	if e >= 0 {
		return Fulfillment{}
	}
	return Fulfillment{Assigned: absInt(b.Energy), Required: -e}
}

func (b *Building) WorkerFulfillment() Fulfillment {
	d := b.WorkerDemand()
	if d <= 0 {
		return Fulfillment{}
	}
	return Fulfillment{Assigned: b.Workers, Required: d}
}

func (b *Building) RequiresEnergy() bool  { return b.EnergyEffect() < 0 }
func (b *Building) RequiresWorkers() bool { return b.WorkerDemand() > 0 }

// Operational reports whether the building has at least half of each
// resource it needs.
func (b *Building) Operational() bool {
	return b.EnergyFulfillment().Satisfied() && b.WorkerFulfillment().Satisfied()
}

// footprint returns the inclusive tile bounds covered by the regular art.
func (b *Building) footprint() (minX, minY, maxX, maxY int) {
	var w, h int
	if b.Images != nil {
		w, h = b.Images.Regular.Width, b.Images.Regular.Height
	}
	return b.X, b.Y - h + 1, b.X + w - 1, b.Y
}

func (b *Building) overlaps(o *Building) bool {
	ax0, ay0, ax1, ay1 := b.footprint()
	bx0, by0, bx1, by1 := o.footprint()
	return ax0 <= bx1 && bx0 <= ax1 && ay0 <= by1 && by0 <= ay1
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package colony

import "fmt"

type TileStatus int

const (
	StatusNormal TileStatus = iota
	StatusDamaged
	StatusDestroyed
	StatusNoEnergy
)

var tileStatusNames = [...]string{
	StatusNormal:    "NORMAL",
	StatusDamaged:   "DAMAGED",
	StatusDestroyed: "DESTROYED",
	StatusNoEnergy:  "NO_ENERGY",
}

func (s TileStatus) String() string {
	if s < 0 || int(s) >= len(tileStatusNames) {
		return fmt.Sprintf("TileStatus(%d)", int(s))
	}
	return tileStatusNames[s]
}

func (s TileStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(tileStatusNames) {
		return nil, fmt.Errorf("unknown tile status %d", int(s))
	}
	return []byte(tileStatusNames[s]), nil
}

func (s *TileStatus) UnmarshalText(b []byte) error {
	for i, n := range tileStatusNames {
		if n == string(b) {
			*s = TileStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tile status %q", string(b))
}

// Fulfillment is the assigned/required amount of one resource. A zero
// Required means the resource is not needed at all.
type Fulfillment struct {
	Assigned int
	Required int
}

func (f Fulfillment) Needed() bool { return f.Required > 0 }

// Ratio returns Assigned/Required, or -1 when the resource is not needed.
func (f Fulfillment) Ratio() float64 {
	if !f.Needed() {
		return -1
	}
	return float64(f.Assigned) / float64(f.Required)
}

func (f Fulfillment) AtLeastHalf() bool {
	return f.Needed() && 2*f.Assigned >= f.Required
}

// Satisfied is true when the resource is not needed or at least half supplied.
func (f Fulfillment) Satisfied() bool {
	return !f.Needed() || f.AtLeastHalf()
}

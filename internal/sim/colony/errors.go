package colony

import "errors"

var (
	ErrUnknownPrototype = errors.New("unknown building prototype")
	ErrUnknownTech      = errors.New("prototype has no art for tech")
	ErrOccupied         = errors.New("footprint overlaps another building")
	ErrNotFound         = errors.New("building not found")
	ErrBadAmount        = errors.New("amount must not be negative")
)

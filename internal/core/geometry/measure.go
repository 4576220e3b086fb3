package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// BaseSize is a discrete category describing a unit's footprint diameter.
// Categories follow the common tabletop base moulds.
type BaseSize string

const (
	Base25mm BaseSize = "25mm"
	Base32mm BaseSize = "32mm"
	Base40mm BaseSize = "40mm"
	Base50mm BaseSize = "50mm"
	Base60mm BaseSize = "60mm"
)

// baseDiameterMM maps each supported base category to its footprint diameter.
var baseDiameterMM = map[BaseSize]float64{
	Base25mm: 25,
	Base32mm: 32,
	Base40mm: 40,
	Base50mm: 50,
	Base60mm: 60,
}

// BaseSizes lists the supported categories in ascending footprint order.
var BaseSizes = []BaseSize{Base25mm, Base32mm, Base40mm, Base50mm, Base60mm}

const mmPerInch = 25.4

// Converter translates between canonical engine units and the tabletop's
// display unit, inches. All geometric math runs in canonical units; inches
// only appear at the edges (scenario files, player-facing messages).
type Converter struct {
	unitsPerInch float64
}

// NewConverter builds a converter with the given scale. A non-positive or
// non-finite scale is a configuration error and is rejected here, before any
// validation call can run on it.
func NewConverter(unitsPerInch float64) (Converter, error) {
	if unitsPerInch <= 0 || math.IsInf(unitsPerInch, 0) || math.IsNaN(unitsPerInch) {
		return Converter{}, fmt.Errorf("geometry: units-per-inch scale must be a positive finite number, got %v", unitsPerInch)
	}
	return Converter{unitsPerInch: unitsPerInch}, nil
}

// UnitsPerInch returns the configured scale factor.
func (c Converter) UnitsPerInch() float64 { return c.unitsPerInch }

// ToInches converts a canonical distance to display inches.
func (c Converter) ToInches(canonical float64) float64 {
	return canonical / c.unitsPerInch
}

// FromInches converts a display distance in inches to canonical units.
func (c Converter) FromInches(inches float64) float64 {
	return inches * c.unitsPerInch
}

// RadiusForBase returns the collision radius, in canonical units, of a unit
// standing on the given base. Unknown categories fall back to the smallest
// supported base rather than failing: a misspelled base still yields a unit
// that collides plausibly.
func (c Converter) RadiusForBase(base BaseSize) float64 {
	d, ok := baseDiameterMM[base]
	if !ok {
		d = baseDiameterMM[Base25mm]
	}
	return c.FromInches(d / mmPerInch / 2)
}

// FormatDistance renders a canonical distance as an inch string with the
// conventional double-prime suffix, e.g. `6.0"`.
func (c Converter) FormatDistance(canonical float64, decimals int) string {
	return strconv.FormatFloat(c.ToInches(canonical), 'f', decimals, 64) + `"`
}

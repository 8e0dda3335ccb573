package domain

import (
	"math"
	"strings"
)

// FrostingFactors maps complexity levels to frosting thickness in grams of
// buttercream per square centimeter of surface. Medium is the calibration
// baseline; all three are tunable configuration, not contracts.
type FrostingFactors struct {
	LightGPerCm2  float64 `json:"lightGPerCm2"`
	MediumGPerCm2 float64 `json:"mediumGPerCm2"`
	HeavyGPerCm2  float64 `json:"heavyGPerCm2"`
}

// DefaultFrostingFactors returns the shop's standard thickness calibration
func DefaultFrostingFactors() FrostingFactors {
	return FrostingFactors{
		LightGPerCm2:  0.30,
		MediumGPerCm2: 0.45,
		HeavyGPerCm2:  0.65,
	}
}

// Factor returns the thickness factor for a complexity level
func (f FrostingFactors) Factor(c Complexity) float64 {
	switch c.Normalize() {
	case ComplexityLight:
		return f.LightGPerCm2
	case ComplexityHeavy:
		return f.HeavyGPerCm2
	default:
		return f.MediumGPerCm2
	}
}

// Labor estimation constants. The 0.5-hour rounding and the 2-hour floor are
// contractual; the fondant bonus is how much longer a fondant finish takes.
const (
	minLaborHours     = 2.0
	fondantBonusHours = 1.5
)

// Servings returns the servings stored on the tier's size descriptor.
// Non-positive values degrade to zero rather than failing.
func Servings(t Tier) int {
	if t.Size.Servings <= 0 {
		return 0
	}
	return t.Size.Servings
}

// SurfaceArea returns the frosted surface of a tier in square centimeters:
// top plus side for round tiers, top plus four sides for rectangular ones.
// Returns 0 when required dimensions are absent; callers must treat 0 as
// "unknown", not "none needed".
func SurfaceArea(t Tier) float64 {
	switch t.Size.Shape {
	case ShapeRound:
		d, h := t.Size.DiameterCm, t.Size.HeightCm
		if d <= 0 || h <= 0 {
			return 0
		}
		r := d / 2
		return math.Pi*r*r + math.Pi*d*h
	case ShapeSquare:
		// A square tier is a rectangle with equal sides; accept either a
		// length or a width as the side dimension.
		side := t.Size.LengthCm
		if side <= 0 {
			side = t.Size.WidthCm
		}
		if side <= 0 || t.Size.HeightCm <= 0 {
			return 0
		}
		return side*side + 4*side*t.Size.HeightCm
	case ShapeRectangular, ShapeSheet:
		l, w, h := t.Size.LengthCm, t.Size.WidthCm, t.Size.HeightCm
		if l <= 0 || w <= 0 || h <= 0 {
			return 0
		}
		return l*w + 2*(l+w)*h
	}
	return 0
}

// FrostingMass estimates the buttercream mass for a tier in grams
func FrostingMass(t Tier, factors FrostingFactors) float64 {
	return SurfaceArea(t) * factors.Factor(t.Complexity)
}

// EstimatedLaborHours estimates decorating labor for a set of tiers.
// Each tier contributes servings/10 hours plus a finish bonus; the total is
// rounded to the nearest half hour with a two-hour minimum.
func EstimatedLaborHours(tiers []Tier) float64 {
	sum := 0.0
	for _, t := range tiers {
		sum += float64(Servings(t))/10 + finishBonus(t.Frosting.Resolved())
	}
	rounded := math.Round(sum*2) / 2
	return math.Max(minLaborHours, rounded)
}

// finishBonus adds fixed hours for labor-intensive finishes. Matching is by
// substring so "marbled fondant" and "fondant drape" both qualify.
func finishBonus(finish string) float64 {
	if strings.Contains(strings.ToLower(finish), "fondant") {
		return fondantBonusHours
	}
	return 0
}

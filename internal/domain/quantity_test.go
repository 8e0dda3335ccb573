package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func roundTier(diameter, height float64, servings int, frosting string) Tier {
	return Tier{
		ID: "tier-1",
		Size: SizeSpec{
			Shape:      ShapeRound,
			Servings:   servings,
			DiameterCm: diameter,
			HeightCm:   height,
		},
		Frosting: RecipeRef{RecipeName: frosting},
	}
}

func TestSurfaceArea(t *testing.T) {
	t.Run("round tier is top plus side", func(t *testing.T) {
		// 20cm diameter, 10cm tall: pi*100 + pi*200 = 300*pi
		area := SurfaceArea(roundTier(20, 10, 20, "buttercream"))
		assert.InDelta(t, 942.48, area, 0.01)
	})

	t.Run("square tier accepts length or width as side", func(t *testing.T) {
		byLength := SurfaceArea(Tier{Size: SizeSpec{Shape: ShapeSquare, LengthCm: 20, HeightCm: 10}})
		byWidth := SurfaceArea(Tier{Size: SizeSpec{Shape: ShapeSquare, WidthCm: 20, HeightCm: 10}})
		assert.InDelta(t, 20*20+4*20*10, byLength, 0.001)
		assert.Equal(t, byLength, byWidth)
	})

	t.Run("rectangular tier", func(t *testing.T) {
		area := SurfaceArea(Tier{Size: SizeSpec{Shape: ShapeRectangular, LengthCm: 30, WidthCm: 20, HeightCm: 10}})
		assert.InDelta(t, 30*20+2*(30+20)*10, area, 0.001)
	})

	t.Run("missing dimensions degrade to zero", func(t *testing.T) {
		assert.Zero(t, SurfaceArea(Tier{Size: SizeSpec{Shape: ShapeRound, DiameterCm: 20}}))
		assert.Zero(t, SurfaceArea(Tier{Size: SizeSpec{Shape: ShapeRectangular, LengthCm: 30, WidthCm: 20}}))
		assert.Zero(t, SurfaceArea(Tier{Size: SizeSpec{Shape: "hexagonal", DiameterCm: 20, HeightCm: 10}}))
	})
}

func TestFrostingMass(t *testing.T) {
	factors := DefaultFrostingFactors()

	t.Run("scales area by complexity factor", func(t *testing.T) {
		tier := roundTier(20, 10, 20, "buttercream")
		tier.Complexity = ComplexityHeavy
		assert.InDelta(t, 942.48*0.65, FrostingMass(tier, factors), 0.05)
	})

	t.Run("unknown complexity falls back to medium", func(t *testing.T) {
		tier := roundTier(20, 10, 20, "buttercream")
		tier.Complexity = ""
		assert.InDelta(t, 942.48*0.45, FrostingMass(tier, factors), 0.05)
	})
}

func TestEstimatedLaborHours(t *testing.T) {
	tests := []struct {
		name  string
		tiers []Tier
		want  float64
	}{
		{
			name:  "20 servings buttercream is exactly the minimum",
			tiers: []Tier{roundTier(20, 10, 20, "vanilla buttercream")},
			want:  2.0,
		},
		{
			name:  "small tier clamps up to the minimum",
			tiers: []Tier{roundTier(15, 8, 13, "buttercream")},
			want:  2.0,
		},
		{
			name: "sums across tiers and rounds to half hours",
			tiers: []Tier{
				roundTier(25, 10, 34, "buttercream"),
				roundTier(20, 10, 20, "buttercream"),
			},
			// 3.4 + 2.0 = 5.4 rounds to 5.5
			want: 5.5,
		},
		{
			name:  "fondant finish adds a fixed bonus",
			tiers: []Tier{roundTier(20, 10, 20, "marbled fondant")},
			want:  3.5,
		},
		{
			name:  "no tiers still yields the minimum",
			tiers: nil,
			want:  2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimatedLaborHours(tt.tiers))
		})
	}
}

func TestServings(t *testing.T) {
	assert.Equal(t, 20, Servings(roundTier(20, 10, 20, "")))
	assert.Zero(t, Servings(roundTier(20, 10, -5, "")))
}

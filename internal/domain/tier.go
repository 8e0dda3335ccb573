package domain

import (
	"time"
)

// Shape describes the footprint of a cake tier
type Shape string

const (
	ShapeRound       Shape = "round"
	ShapeSquare      Shape = "square"
	ShapeRectangular Shape = "rectangular"
	ShapeSheet       Shape = "sheet"
)

// Complexity is the frosting complexity factor of a tier
type Complexity string

const (
	ComplexityLight  Complexity = "light"
	ComplexityMedium Complexity = "medium"
	ComplexityHeavy  Complexity = "heavy"
)

// Normalize returns the complexity, defaulting to medium when unset or unknown
func (c Complexity) Normalize() Complexity {
	switch c {
	case ComplexityLight, ComplexityMedium, ComplexityHeavy:
		return c
	}
	return ComplexityMedium
}

// FulfillmentMode is how a finished order reaches the customer
type FulfillmentMode string

const (
	FulfillmentDelivery FulfillmentMode = "delivery"
	FulfillmentPickup   FulfillmentMode = "pickup"
)

// SizeSpec is the physical description of a tier
type SizeSpec struct {
	Name       string  `json:"name" bson:"name"`
	Shape      Shape   `json:"shape" bson:"shape"`
	Servings   int     `json:"servings" bson:"servings"`
	DiameterCm float64 `json:"diameterCm,omitempty" bson:"diameterCm,omitempty"`
	LengthCm   float64 `json:"lengthCm,omitempty" bson:"lengthCm,omitempty"`
	WidthCm    float64 `json:"widthCm,omitempty" bson:"widthCm,omitempty"`
	HeightCm   float64 `json:"heightCm,omitempty" bson:"heightCm,omitempty"`
}

// Tier is one layer of a customer cake order. Tiers are owned by the order
// service; this service reads them and assigns them to production batches.
type Tier struct {
	ID          string          `json:"tierId" bson:"tierId"`
	OrderID     string          `json:"orderId" bson:"orderId"`
	Position    int             `json:"position" bson:"position"` // 1 = bottom
	Size        SizeSpec        `json:"size" bson:"size"`
	Batter      RecipeRef       `json:"batter" bson:"batter"`
	Filling     RecipeRef       `json:"filling" bson:"filling"`
	Frosting    RecipeRef       `json:"frosting" bson:"frosting"`
	Complexity  Complexity      `json:"complexity" bson:"complexity"`
	DueDate     time.Time       `json:"dueDate" bson:"dueDate"`
	Fulfillment FulfillmentMode `json:"fulfillment" bson:"fulfillment"`
}

// StockTask is a production task for stocked inventory items. It carries its
// own schedule date, which doubles as its due date for batching purposes.
type StockTask struct {
	ID         string    `json:"taskId" bson:"taskId"`
	ItemName   string    `json:"itemName" bson:"itemName"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Recipe     RecipeRef `json:"recipe" bson:"recipe"`
	UnitWeight float64   `json:"unitWeightG" bson:"unitWeightG"` // grams per unit
	Date       time.Time `json:"date" bson:"date"`
}

// DueDate returns the task's own date, which stands in for an order due date.
func (t StockTask) DueDate() time.Time {
	return t.Date
}

// DateOnly truncates a time to its UTC calendar date. All schedule dates in
// this service are date-only values stored at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same UTC calendar date
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

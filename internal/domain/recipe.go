package domain

import "strings"

// RecipeRef identifies the recipe behind a tier component or stock task.
// Exactly one form is authoritative: a stored recipe reference (RecipeID +
// RecipeName) or a free-text fallback entered on the order.
type RecipeRef struct {
	RecipeID   string `json:"recipeId,omitempty" bson:"recipeId,omitempty"`
	RecipeName string `json:"recipeName,omitempty" bson:"recipeName,omitempty"`
	Fallback   string `json:"fallback,omitempty" bson:"fallback,omitempty"`
}

// Resolved returns the display name used for grouping: the recipe name
// when present, the free-text fallback otherwise.
func (r RecipeRef) Resolved() string {
	if r.RecipeName != "" {
		return r.RecipeName
	}
	return r.Fallback
}

// IsZero reports whether the ref carries no recipe information
func (r RecipeRef) IsZero() bool {
	return r.RecipeID == "" && r.RecipeName == "" && r.Fallback == ""
}

// IdentityResolver decides when two recipe refs name the same production
// recipe. Grouping and batch uniqueness are defined in terms of this key,
// so a stricter identity can be substituted without touching the grouping
// algorithm.
type IdentityResolver interface {
	// Key returns the grouping key for a recipe ref. Refs with equal keys
	// are batched together.
	Key(ref RecipeRef) string
}

// ResolvedNameResolver groups by the resolved display name. Two tiers with
// different recipe ids but the same resolved name land in the same batch:
// the batch is about what gets baked, not the database key.
type ResolvedNameResolver struct{}

func (ResolvedNameResolver) Key(ref RecipeRef) string {
	return normalizeRecipeName(ref.Resolved())
}

// RecipeIDResolver groups strictly by recipe id, falling back to the
// resolved name for free-text refs.
type RecipeIDResolver struct{}

func (RecipeIDResolver) Key(ref RecipeRef) string {
	if ref.RecipeID != "" {
		return "id:" + ref.RecipeID
	}
	return normalizeRecipeName(ref.Resolved())
}

func normalizeRecipeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

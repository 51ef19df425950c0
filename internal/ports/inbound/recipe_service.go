// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
)

// RecipeService defines the use cases for recipe generation, browsing and export
// This is the primary port that HTTP handlers and the CLI use
type RecipeService interface {
	// Commands
	GenerateRecipe(ctx context.Context, cmd GenerateRecipeCommand) (*RecipeDTO, error)

	// Queries. favorites is the caller-held favorite ID list; it is only
	// used to flag the returned copies.
	ListRecipes(ctx context.Context, favorites []string) ([]RecipeDTO, error)
	ListRecipesByCategory(ctx context.Context, category string, favorites []string) ([]RecipeDTO, error)
	ListRecipesBySubcategory(ctx context.Context, category, subcategory string, favorites []string) ([]RecipeDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)

	// Export
	ExportPDF(ctx context.Context, query ExportQuery) (*ExportResult, error)
}

// GenerateRecipeCommand contains the request for a new generated recipe
type GenerateRecipeCommand struct {
	Category    string   `json:"category" validate:"required"`
	Subcategory string   `json:"subcategory"`
	Ingredients []string `json:"ingredients"`
}

// ExportQuery selects recipes for a PDF export. Rules are applied in
// order: FavoritesOnly, IDs, Category, everything.
type ExportQuery struct {
	Category      string
	Subcategory   string
	IDs           []string
	FavoritesOnly bool
	Favorites     []string
}

// RecipeDTO is the wire representation of a recipe
type RecipeDTO = recipe.Recipe

// CategoryDTO lists the browsable subcategories of a category
type CategoryDTO struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// ExportResult is a rendered PDF ready to be sent as an attachment
type ExportResult struct {
	Title       string
	Filename    string
	ContentType string
	Count       int
	Data        []byte
}

// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
)

// RecipeRepository is the categorized, append-only recipe store
type RecipeRepository interface {
	// Insert appends r to the (category, subcategory) bucket, coercing an
	// unknown subcategory to General. It returns the stored copy.
	Insert(ctx context.Context, category, subcategory string, r recipe.Recipe) (recipe.Recipe, error)

	ListAll(ctx context.Context) ([]recipe.Recipe, error)
	ListByCategory(ctx context.Context, category string) ([]recipe.Recipe, error)
	ListBySubcategory(ctx context.Context, category, subcategory string) ([]recipe.Recipe, error)
	FindByIDs(ctx context.Context, ids []string) ([]recipe.Recipe, error)

	// Categories lists, in taxonomy order, the subcategories that hold at
	// least one recipe plus General.
	Categories(ctx context.Context) ([]CategorySummary, error)
	Count(ctx context.Context) (int, error)
}

// CategorySummary is one row of the category listing
type CategorySummary struct {
	Name          string
	Subcategories []string
}

// AIService is the generation backend: prompt in, text or a block out
type AIService interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
	Name() string
}

// Generation is a backend answer. An empty Text means the backend refused.
type Generation struct {
	Text        string
	BlockReason string
	Model       string
}

// Blocked reports whether the backend produced no usable output
func (g *Generation) Blocked() bool {
	return g == nil || g.Text == ""
}

// PDFRenderer turns a complete HTML document into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// PDFMetadata is written into exported documents
type PDFMetadata struct {
	Title       string
	Selection   string
	RecipeCount int
}

// PDFStamper post-processes rendered documents
type PDFStamper interface {
	Stamp(pdf []byte, meta PDFMetadata) ([]byte, error)
}

// TokenDenylist records revoked session tokens until they expire
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

// Insert mocks storing a recipe
func (m *MockRecipeRepository) Insert(ctx context.Context, category, subcategory string, r recipe.Recipe) (recipe.Recipe, error) {
	args := m.Called(ctx, category, subcategory, r)
	return args.Get(0).(recipe.Recipe), args.Error(1)
}

// ListAll mocks listing every recipe
func (m *MockRecipeRepository) ListAll(ctx context.Context) ([]recipe.Recipe, error) {
	args := m.Called(ctx)
	return recipesArg(args, 0), args.Error(1)
}

// ListByCategory mocks listing one category
func (m *MockRecipeRepository) ListByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, category)
	return recipesArg(args, 0), args.Error(1)
}

// ListBySubcategory mocks listing one bucket
func (m *MockRecipeRepository) ListBySubcategory(ctx context.Context, category, subcategory string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, category, subcategory)
	return recipesArg(args, 0), args.Error(1)
}

// FindByIDs mocks an ID lookup
func (m *MockRecipeRepository) FindByIDs(ctx context.Context, ids []string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, ids)
	return recipesArg(args, 0), args.Error(1)
}

// Categories mocks the category listing
func (m *MockRecipeRepository) Categories(ctx context.Context) ([]outbound.CategorySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbound.CategorySummary), args.Error(1)
}

// Count mocks the recipe count
func (m *MockRecipeRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func recipesArg(args mock.Arguments, i int) []recipe.Recipe {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).([]recipe.Recipe)
}

// MockAIService provides a mock generation backend
type MockAIService struct {
	mock.Mock
}

// Generate mocks a generation call
func (m *MockAIService) Generate(ctx context.Context, prompt string) (*outbound.Generation, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.Generation), args.Error(1)
}

// Name returns the mock backend name
func (m *MockAIService) Name() string {
	return "mock"
}

// MockPDFRenderer provides a mock HTML to PDF engine
type MockPDFRenderer struct {
	mock.Mock
}

// Render mocks rendering
func (m *MockPDFRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPDFStamper provides a mock PDF post-processor
type MockPDFStamper struct {
	mock.Mock
}

// Stamp mocks metadata stamping
func (m *MockPDFStamper) Stamp(pdf []byte, meta outbound.PDFMetadata) ([]byte, error) {
	args := m.Called(pdf, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockTokenDenylist provides a mock token revocation store
type MockTokenDenylist struct {
	mock.Mock
}

// Revoke mocks revoking a token
func (m *MockTokenDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

// IsRevoked mocks a revocation lookup
func (m *MockTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockRecipeService provides a mock of the recipe use cases for handler tests
type MockRecipeService struct {
	mock.Mock
}

// GenerateRecipe mocks generation
func (m *MockRecipeService) GenerateRecipe(ctx context.Context, cmd inbound.GenerateRecipeCommand) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeDTO), args.Error(1)
}

// ListRecipes mocks listing
func (m *MockRecipeService) ListRecipes(ctx context.Context, favorites []string) ([]inbound.RecipeDTO, error) {
	args := m.Called(ctx, favorites)
	return recipesArg(args, 0), args.Error(1)
}

// ListRecipesByCategory mocks listing a category
func (m *MockRecipeService) ListRecipesByCategory(ctx context.Context, category string, favorites []string) ([]inbound.RecipeDTO, error) {
	args := m.Called(ctx, category, favorites)
	return recipesArg(args, 0), args.Error(1)
}

// ListRecipesBySubcategory mocks listing a bucket
func (m *MockRecipeService) ListRecipesBySubcategory(ctx context.Context, category, subcategory string, favorites []string) ([]inbound.RecipeDTO, error) {
	args := m.Called(ctx, category, subcategory, favorites)
	return recipesArg(args, 0), args.Error(1)
}

// Categories mocks the category listing
func (m *MockRecipeService) Categories(ctx context.Context) ([]inbound.CategoryDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.CategoryDTO), args.Error(1)
}

// ExportPDF mocks an export
func (m *MockRecipeService) ExportPDF(ctx context.Context, query inbound.ExportQuery) (*inbound.ExportResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.ExportResult), args.Error(1)
}

var (
	_ outbound.RecipeRepository = (*MockRecipeRepository)(nil)
	_ outbound.AIService        = (*MockAIService)(nil)
	_ outbound.PDFRenderer      = (*MockPDFRenderer)(nil)
	_ outbound.PDFStamper       = (*MockPDFStamper)(nil)
	_ outbound.TokenDenylist    = (*MockTokenDenylist)(nil)
	_ inbound.RecipeService     = (*MockRecipeService)(nil)
)

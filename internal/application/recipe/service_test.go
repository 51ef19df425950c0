package recipe

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/alchemorsel/recipegen/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	repo     *memory.RecipeRepository
	ai       *testutils.MockAIService
	renderer *testutils.MockPDFRenderer
	stamper  *testutils.MockPDFStamper
	factory  *testutils.RecipeFactory
	logs     *observer.ObservedLogs
	service  *RecipeService
}

func (s *RecipeServiceTestSuite) SetupTest() {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	s.ctx = context.Background()
	s.logs = logs
	s.repo = memory.NewRecipeRepository(recipe.DefaultTaxonomy(), logger)
	s.ai = new(testutils.MockAIService)
	s.renderer = new(testutils.MockPDFRenderer)
	s.stamper = new(testutils.MockPDFStamper)
	s.factory = testutils.NewRecipeFactory(42)
	s.service = s.newService(s.repo, s.ai)
	s.service.logger = logger.Named("recipe-service")
	s.service.now = func() time.Time { return time.UnixMilli(1717171717171) }
}

func (s *RecipeServiceTestSuite) newService(repo outbound.RecipeRepository, ai outbound.AIService) *RecipeService {
	return NewRecipeService(
		repo,
		recipe.DefaultTaxonomy(),
		ai,
		s.renderer,
		s.stamper,
		monitoring.NewMetricsCollector(),
		noop.NewTracerProvider().Tracer("test"),
		zap.NewNop(),
	)
}

func (s *RecipeServiceTestSuite) seed(category, subcategory string) recipe.Recipe {
	stored, err := s.repo.Insert(s.ctx, category, subcategory, s.factory.Recipe(category, subcategory))
	s.Require().NoError(err)
	return stored
}

func (s *RecipeServiceTestSuite) assertAppError(err error, code errors.ErrorCode, status int, message string) {
	s.Require().Error(err)
	var appErr *errors.AppError
	s.Require().True(stderrors.As(err, &appErr), "expected AppError, got %T", err)
	s.Equal(code, appErr.Code)
	s.Equal(status, appErr.StatusCode())
	s.Equal(message, appErr.Message)
}

func (s *RecipeServiceTestSuite) TestGenerateRecipe() {
	s.Run("GenerateRecipe_ShouldStoreAndReturnRecipe", func() {
		s.SetupTest()
		text := "## Fluffy Pancakes\n\nMix and fry."
		s.ai.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "'Breakfast'") &&
				strings.Contains(prompt, "'Quick'") &&
				strings.Contains(prompt, "eggs, flour")
		})).Return(&outbound.Generation{Text: text}, nil).Once()

		got, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{
			Category:    "Breakfast",
			Subcategory: "Quick",
			Ingredients: []string{"eggs", "flour"},
		})

		s.Require().NoError(err)
		s.Equal("Breakfast_Quick_1717171717171", got.ID)
		s.Equal("Fluffy Pancakes", got.Title)
		s.Equal("Quick", got.Subcategory)
		s.Equal(text, got.FullText)
		s.False(got.IsFavorite)

		stored, err := s.repo.ListBySubcategory(s.ctx, "Breakfast", "Quick")
		s.Require().NoError(err)
		testutils.NewRecipeAssertions(s.T()).IDs(stored, got.ID)
		s.ai.AssertExpectations(s.T())
	})

	s.Run("GenerateRecipe_ShouldStoreUnknownSubcategoryUnderGeneral", func() {
		s.SetupTest()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(&outbound.Generation{Text: "# Tofu Bowl\nAssemble."}, nil).Once()

		got, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{
			Category:    "Lunch",
			Subcategory: "Keto",
		})

		s.Require().NoError(err)
		s.Equal("Lunch_Keto_1717171717171", got.ID)
		s.Equal(recipe.GeneralSubcategory, got.Subcategory)
	})

	s.Run("GenerateRecipe_ShouldLogPromptPrefix", func() {
		s.SetupTest()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(&outbound.Generation{Text: "# Soup\nBoil."}, nil).Once()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{
			Category:    "Dinner",
			Ingredients: s.factory.Ingredients(10),
		})

		s.Require().NoError(err)
		entries := s.logs.FilterMessage("Generating recipe").All()
		s.Require().Len(entries, 1)
		prefix := entries[0].ContextMap()["prompt_prefix"].(string)
		s.Len([]rune(prefix), promptLogLimit)
		s.True(strings.HasPrefix(prefix, "Generate a detailed recipe for category 'Dinner'"))
	})

	s.Run("GenerateRecipe_ShouldRejectMissingCategory", func() {
		s.SetupTest()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{})

		s.assertAppError(err, errors.CodeValidationFailed, http.StatusBadRequest, "Category is required.")
		s.ai.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
	})

	s.Run("GenerateRecipe_ShouldRejectUnknownCategory", func() {
		s.SetupTest()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Brunch"})

		s.assertAppError(err, errors.CodeValidationFailed, http.StatusBadRequest, "Category 'Brunch' is invalid.")
	})

	s.Run("GenerateRecipe_ShouldReportMissingBackend", func() {
		s.SetupTest()
		service := s.newService(s.repo, nil)

		_, err := service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Dessert"})

		s.assertAppError(err, errors.CodeConfiguration, http.StatusInternalServerError,
			"Generation API key is not configured on the server.")
	})

	s.Run("GenerateRecipe_ShouldHideBackendFailure", func() {
		s.SetupTest()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(nil, stderrors.New("dial tcp: connection refused")).Once()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Snacks"})

		s.assertAppError(err, errors.CodeExternalServiceError, http.StatusInternalServerError,
			"Failed to generate or process the recipe. Check the server logs.")
		s.NotContains(err.Error(), "connection refused")
		count, _ := s.repo.Count(s.ctx)
		s.Zero(count)
	})

	s.Run("GenerateRecipe_ShouldReportBlockedGeneration", func() {
		s.SetupTest()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(&outbound.Generation{BlockReason: "SAFETY"}, nil).Once()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Dinner"})

		s.assertAppError(err, errors.CodeGenerationBlocked, http.StatusBadRequest,
			"Recipe generation was blocked by safety policies. Reason: SAFETY")
	})

	s.Run("GenerateRecipe_ShouldDefaultBlockReason", func() {
		s.SetupTest()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(&outbound.Generation{}, nil).Once()

		_, err := s.service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Dinner"})

		s.assertAppError(err, errors.CodeGenerationBlocked, http.StatusBadRequest,
			"Recipe generation was blocked by safety policies. Reason: unspecified")
	})

	s.Run("GenerateRecipe_ShouldReportStoreFailure", func() {
		s.SetupTest()
		repo := new(testutils.MockRecipeRepository)
		repo.On("Insert", mock.Anything, "Dessert", "Fit", mock.Anything).
			Return(recipe.Recipe{}, stderrors.New("bucket missing")).Once()
		s.ai.On("Generate", mock.Anything, mock.Anything).
			Return(&outbound.Generation{Text: "# Cake\nBake."}, nil).Once()
		service := s.newService(repo, s.ai)

		_, err := service.GenerateRecipe(s.ctx, inbound.GenerateRecipeCommand{Category: "Dessert", Subcategory: "Fit"})

		s.assertAppError(err, errors.CodeInternal, http.StatusInternalServerError, "Failed to save the generated recipe.")
		repo.AssertExpectations(s.T())
	})
}

func (s *RecipeServiceTestSuite) TestQueries() {
	s.Run("ListRecipes_ShouldFlagFavorites", func() {
		s.SetupTest()
		a := s.seed("Breakfast", "General")
		b := s.seed("Dinner", "Light")

		list, err := s.service.ListRecipes(s.ctx, []string{b.ID, "unknown"})

		s.Require().NoError(err)
		testutils.NewRecipeAssertions(s.T()).IDs(list, a.ID, b.ID)
		testutils.NewRecipeAssertions(s.T()).Favorites(list, b.ID)
	})

	s.Run("ListRecipes_ShouldNotCarryFavoritesBetweenCalls", func() {
		s.SetupTest()
		a := s.seed("Breakfast", "General")
		b := s.seed("Lunch", "Vegan")

		first, err := s.service.ListRecipes(s.ctx, []string{a.ID})
		s.Require().NoError(err)
		second, err := s.service.ListRecipes(s.ctx, []string{b.ID})
		s.Require().NoError(err)
		third, err := s.service.ListRecipes(s.ctx, nil)
		s.Require().NoError(err)

		testutils.NewRecipeAssertions(s.T()).Favorites(first, a.ID)
		testutils.NewRecipeAssertions(s.T()).Favorites(second, b.ID)
		testutils.NewRecipeAssertions(s.T()).Favorites(third)
		stored, err := s.repo.ListAll(s.ctx)
		s.Require().NoError(err)
		for _, r := range stored {
			s.False(r.IsFavorite)
		}
	})

	s.Run("ListRecipes_ShouldReturnEmptySliceWhenStoreIsEmpty", func() {
		s.SetupTest()

		list, err := s.service.ListRecipes(s.ctx, nil)

		s.Require().NoError(err)
		s.NotNil(list)
		s.Empty(list)
	})

	s.Run("ListRecipesByCategory_ShouldMapUnknownCategory", func() {
		s.SetupTest()

		_, err := s.service.ListRecipesByCategory(s.ctx, "Brunch", nil)

		s.assertAppError(err, errors.CodeNotFound, http.StatusNotFound, "Category not found")
	})

	s.Run("ListRecipesBySubcategory_ShouldFallBackToGeneral", func() {
		s.SetupTest()
		general := s.seed("Dessert", "General")
		s.seed("Dessert", "Chocolate")

		list, err := s.service.ListRecipesBySubcategory(s.ctx, "Dessert", "Vegan", []string{general.ID})

		s.Require().NoError(err)
		testutils.NewRecipeAssertions(s.T()).IDs(list, general.ID)
		testutils.NewRecipeAssertions(s.T()).Favorites(list, general.ID)
	})

	s.Run("ListRecipesBySubcategory_ShouldMapMissingSubcategory", func() {
		s.SetupTest()
		taxonomy, err := recipe.NewTaxonomy([]recipe.Category{{Name: "Drinks", Subcategories: []string{"Hot"}}})
		s.Require().NoError(err)
		service := s.newService(memory.NewRecipeRepository(taxonomy, zap.NewNop()), s.ai)

		_, err = service.ListRecipesBySubcategory(s.ctx, "Drinks", "Cold", nil)

		s.assertAppError(err, errors.CodeNotFound, http.StatusNotFound, "Subcategory not found")
	})

	s.Run("Categories_ShouldListPopulatedBucketsAndGeneral", func() {
		s.SetupTest()
		s.seed("Lunch", "Vegan")

		categories, err := s.service.Categories(s.ctx)

		s.Require().NoError(err)
		s.Require().Len(categories, 5)
		s.Equal("Breakfast", categories[0].Name)
		s.Equal([]string{"General"}, categories[0].Subcategories)
		s.Equal("Lunch", categories[1].Name)
		s.Equal([]string{"General", "Vegan"}, categories[1].Subcategories)
	})
}

func (s *RecipeServiceTestSuite) TestExportPDF() {
	pdf := []byte("%PDF-1.7 fake")

	s.Run("ExportPDF_ShouldRenderAndStampSelection", func() {
		s.SetupTest()
		first := s.seed("Dinner", "Gourmet")
		s.seed("Lunch", "General")
		s.renderer.On("Render", mock.Anything, mock.MatchedBy(func(html string) bool {
			return strings.Contains(html, "<h1>Recipes for Dinner - Gourmet</h1>") &&
				strings.Contains(html, "Category: Dinner / Gourmet")
		})).Return(pdf, nil).Once()
		s.stamper.On("Stamp", pdf, outbound.PDFMetadata{
			Title:       "Recipes for Dinner - Gourmet",
			Selection:   "category:Dinner/Gourmet",
			RecipeCount: 1,
		}).Return([]byte("%PDF-1.7 stamped"), nil).Once()

		result, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{Category: "Dinner", Subcategory: "Gourmet"})

		s.Require().NoError(err)
		s.Equal("Recipes_for_Dinner_-_Gourmet.pdf", result.Filename)
		s.Equal("application/pdf", result.ContentType)
		s.Equal(1, result.Count)
		s.Equal([]byte("%PDF-1.7 stamped"), result.Data)
		s.NotEmpty(first.ID)
		s.Len(s.logs.FilterMessage("Generating PDF").All(), 1)
		s.renderer.AssertExpectations(s.T())
		s.stamper.AssertExpectations(s.T())
	})

	s.Run("ExportPDF_ShouldKeepRenderedBytesWhenStampingFails", func() {
		s.SetupTest()
		s.seed("Snacks", "Sweet")
		s.renderer.On("Render", mock.Anything, mock.Anything).Return(pdf, nil).Once()
		s.stamper.On("Stamp", pdf, mock.Anything).Return(nil, stderrors.New("corrupt xref")).Once()

		result, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{})

		s.Require().NoError(err)
		s.Equal("All_Recipes.pdf", result.Filename)
		s.Equal(pdf, result.Data)
	})

	s.Run("ExportPDF_ShouldLookUpRequestedIDsOnly", func() {
		s.SetupTest()
		repo := new(testutils.MockRecipeRepository)
		picked := testutils.NewRecipeBuilder().WithID("Dinner_Light_1").InBucket("Dinner", "Light").Build()
		repo.On("FindByIDs", mock.Anything, []string{"Dinner_Light_1", "gone"}).
			Return([]recipe.Recipe{picked}, nil).Once()
		s.renderer.On("Render", mock.Anything, mock.Anything).Return(pdf, nil).Once()
		s.stamper.On("Stamp", pdf, outbound.PDFMetadata{
			Title:       "Recipe Selection",
			Selection:   "ids",
			RecipeCount: 1,
		}).Return(pdf, nil).Once()
		service := s.newService(repo, s.ai)

		result, err := service.ExportPDF(s.ctx, inbound.ExportQuery{IDs: []string{"Dinner_Light_1", "gone"}})

		s.Require().NoError(err)
		s.Equal("Recipe_Selection.pdf", result.Filename)
		s.Equal(1, result.Count)
		repo.AssertExpectations(s.T())
		repo.AssertNotCalled(s.T(), "ListAll", mock.Anything)
	})

	s.Run("ExportPDF_ShouldLookUpFavoritesOnly", func() {
		s.SetupTest()
		favorite := s.seed("Dessert", "Fruit")
		s.seed("Dessert", "Fruit")
		s.renderer.On("Render", mock.Anything, mock.Anything).Return(pdf, nil).Once()
		s.stamper.On("Stamp", pdf, mock.Anything).Return(pdf, nil).Once()

		result, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{FavoritesOnly: true, Favorites: []string{favorite.ID}})

		s.Require().NoError(err)
		s.Equal("My_Favorite_Recipes.pdf", result.Filename)
		s.Equal(1, result.Count)
	})

	s.Run("ExportPDF_ShouldRequireFavoriteIDs", func() {
		s.SetupTest()
		s.seed("Snacks", "Sweet")

		_, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{FavoritesOnly: true})

		s.assertAppError(err, errors.CodeValidationFailed, http.StatusBadRequest,
			"No favorite recipe IDs were supplied for the PDF.")
		s.renderer.AssertNotCalled(s.T(), "Render", mock.Anything, mock.Anything)
	})

	s.Run("ExportPDF_ShouldReportEmptySelection", func() {
		s.SetupTest()

		_, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{Category: "Dessert"})

		s.assertAppError(err, errors.CodeNotFound, http.StatusNotFound,
			"No recipes found to generate the PDF with the given filters.")
	})

	s.Run("ExportPDF_ShouldReportRenderFailure", func() {
		s.SetupTest()
		s.seed("Breakfast", "Healthy")
		s.renderer.On("Render", mock.Anything, mock.Anything).Return(nil, stderrors.New("chromium crashed")).Once()

		_, err := s.service.ExportPDF(s.ctx, inbound.ExportQuery{})

		s.assertAppError(err, errors.CodeInternal, http.StatusInternalServerError, "Failed to generate the PDF file.")
		s.stamper.AssertNotCalled(s.T(), "Stamp", mock.Anything, mock.Anything)
	})
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

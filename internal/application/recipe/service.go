// Package recipe provides the application layer for recipe generation,
// browsing and export. It implements the use cases defined in the inbound
// ports.
package recipe

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const promptLogLimit = 200

// User-facing messages
const (
	msgCategoryRequired = "Category is required."
	msgCategoryInvalid  = "Category '%s' is invalid."
	msgNotConfigured    = "Generation API key is not configured on the server."
	msgGenerationFailed = "Failed to generate or process the recipe. Check the server logs."
	msgSaveFailed       = "Failed to save the generated recipe."
	msgNothingToExport  = "No recipes found to generate the PDF with the given filters."
	msgPDFFailed        = "Failed to generate the PDF file."
	msgCategoryNotFound = "Category not found"
	msgSubNotFound      = "Subcategory not found"
)

// Metrics receives business measurements from the service
type Metrics interface {
	Generation(outcome string)
	GenerationLatency(provider string, duration time.Duration)
	Export(outcome string, recipes int)
}

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	taxonomy   *recipe.Taxonomy
	aiService  outbound.AIService
	renderer   outbound.PDFRenderer
	stamper    outbound.PDFStamper
	metrics    Metrics
	tracer     trace.Tracer
	validate   *validator.Validate
	now        func() time.Time
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service. aiService may be nil, in
// which case generation reports a configuration error. stamper may be nil.
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	taxonomy *recipe.Taxonomy,
	aiService outbound.AIService,
	renderer outbound.PDFRenderer,
	stamper outbound.PDFStamper,
	metrics Metrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		taxonomy:   taxonomy,
		aiService:  aiService,
		renderer:   renderer,
		stamper:    stamper,
		metrics:    metrics,
		tracer:     tracer,
		validate:   validator.New(),
		now:        time.Now,
		logger:     logger.Named("recipe-service"),
	}
}

// GenerateRecipe asks the backend for a recipe and stores it
func (s *RecipeService) GenerateRecipe(ctx context.Context, cmd inbound.GenerateRecipeCommand) (*inbound.RecipeDTO, error) {
	ctx, span := s.tracer.Start(ctx, "recipe.generate", trace.WithAttributes(
		attribute.String("recipe.category", cmd.Category),
		attribute.String("recipe.subcategory", cmd.Subcategory),
		attribute.Int("recipe.ingredients", len(cmd.Ingredients)),
	))
	defer span.End()

	if err := s.validate.Struct(cmd); err != nil {
		s.metrics.Generation(monitoring.OutcomeInvalid)
		return nil, errors.NewValidationError(msgCategoryRequired)
	}
	if !s.taxonomy.HasCategory(cmd.Category) {
		s.metrics.Generation(monitoring.OutcomeInvalid)
		return nil, errors.NewValidationError(fmt.Sprintf(msgCategoryInvalid, cmd.Category))
	}

	if s.aiService == nil {
		s.logger.Error("Recipe generation attempted without a configured backend")
		s.metrics.Generation(monitoring.OutcomeUnconfigured)
		return nil, errors.NewConfigurationError(msgNotConfigured)
	}

	prompt := recipe.BuildPrompt(cmd.Category, cmd.Subcategory, cmd.Ingredients)
	s.logger.Info("Generating recipe",
		zap.String("provider", s.aiService.Name()),
		zap.String("prompt_prefix", truncate(prompt, promptLogLimit)),
	)

	start := s.now()
	gen, err := s.aiService.Generate(ctx, prompt)
	s.metrics.GenerationLatency(s.aiService.Name(), s.now().Sub(start))
	if err != nil {
		s.logger.Error("Generation backend call failed",
			zap.String("provider", s.aiService.Name()),
			zap.Error(err),
		)
		monitoring.RecordError(span, err)
		s.metrics.Generation(monitoring.OutcomeFailed)
		return nil, errors.NewExternalServiceError(s.aiService.Name(), msgGenerationFailed, err)
	}

	if gen.Blocked() {
		reason := ""
		if gen != nil {
			reason = gen.BlockReason
		}
		s.logger.Warn("Generation blocked by the backend",
			zap.String("provider", s.aiService.Name()),
			zap.String("block_reason", reason),
		)
		span.SetAttributes(attribute.String("recipe.block_reason", reason))
		s.metrics.Generation(monitoring.OutcomeBlocked)
		return nil, errors.NewGenerationBlockedError(reason)
	}

	rec := recipe.New(cmd.Category, cmd.Subcategory, gen.Text, s.now())
	stored, err := s.recipeRepo.Insert(ctx, cmd.Category, cmd.Subcategory, rec)
	if err != nil {
		s.logger.Error("Failed to store generated recipe",
			zap.String("recipe_id", rec.ID),
			zap.Error(err),
		)
		monitoring.RecordError(span, err)
		s.metrics.Generation(monitoring.OutcomeFailed)
		return nil, errors.NewInternalError(msgSaveFailed).WithCause(err)
	}

	s.logger.Info("Recipe generated",
		zap.String("recipe_id", stored.ID),
		zap.String("title", stored.Title),
		zap.String("category", stored.Category),
		zap.String("subcategory", stored.Subcategory),
	)
	span.SetAttributes(attribute.String("recipe.id", stored.ID))
	s.metrics.Generation(monitoring.OutcomeSuccess)

	return &stored, nil
}

// ListRecipes returns every stored recipe flagged against favorites
func (s *RecipeService) ListRecipes(ctx context.Context, favorites []string) ([]inbound.RecipeDTO, error) {
	recipes, err := s.recipeRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}
	return withFavorites(recipes, favorites), nil
}

// ListRecipesByCategory returns the recipes of one category
func (s *RecipeService) ListRecipesByCategory(ctx context.Context, category string, favorites []string) ([]inbound.RecipeDTO, error) {
	recipes, err := s.recipeRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, s.mapLookupError(err)
	}
	return withFavorites(recipes, favorites), nil
}

// ListRecipesBySubcategory returns the recipes of one bucket
func (s *RecipeService) ListRecipesBySubcategory(ctx context.Context, category, subcategory string, favorites []string) ([]inbound.RecipeDTO, error) {
	recipes, err := s.recipeRepo.ListBySubcategory(ctx, category, subcategory)
	if err != nil {
		return nil, s.mapLookupError(err)
	}
	return withFavorites(recipes, favorites), nil
}

// Categories lists the browsable subcategories per category
func (s *RecipeService) Categories(ctx context.Context) ([]inbound.CategoryDTO, error) {
	summaries, err := s.recipeRepo.Categories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}

	dtos := make([]inbound.CategoryDTO, 0, len(summaries))
	for _, summary := range summaries {
		dtos = append(dtos, inbound.CategoryDTO{
			Name:          summary.Name,
			Subcategories: summary.Subcategories,
		})
	}
	return dtos, nil
}

// ExportPDF renders the selected recipes into a PDF document
func (s *RecipeService) ExportPDF(ctx context.Context, query inbound.ExportQuery) (*inbound.ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "recipe.export_pdf")
	defer span.End()

	candidates, err := s.exportCandidates(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}

	sel, err := SelectForExport(candidates, s.taxonomy, query)
	if err != nil {
		s.metrics.Export(monitoring.OutcomeInvalid, 0)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("export.scope", sel.Scope),
		attribute.Int("export.recipes", len(sel.Recipes)),
	)

	if len(sel.Recipes) == 0 {
		s.metrics.Export(monitoring.OutcomeEmpty, 0)
		return nil, errors.NewNotFoundError(msgNothingToExport)
	}

	if s.renderer == nil {
		s.logger.Error("PDF export attempted without a renderer")
		s.metrics.Export(monitoring.OutcomeFailed, 0)
		return nil, errors.NewConfigurationError(msgPDFFailed)
	}

	html, err := RenderExportHTML(sel)
	if err != nil {
		s.logger.Error("Failed to build export document", zap.Error(err))
		s.metrics.Export(monitoring.OutcomeFailed, 0)
		return nil, errors.NewInternalError(msgPDFFailed).WithCause(err)
	}

	filename := ExportFilename(sel.Title)
	s.logger.Info("Generating PDF",
		zap.String("filename", filename),
		zap.String("scope", sel.Scope),
		zap.Int("recipes", len(sel.Recipes)),
	)

	data, err := s.renderer.Render(ctx, html)
	if err != nil {
		s.logger.Error("PDF rendering failed", zap.String("filename", filename), zap.Error(err))
		monitoring.RecordError(span, err)
		s.metrics.Export(monitoring.OutcomeFailed, 0)
		return nil, errors.NewInternalError(msgPDFFailed).WithCause(err)
	}

	if s.stamper != nil {
		stamped, err := s.stamper.Stamp(data, outbound.PDFMetadata{
			Title:       sel.Title,
			Selection:   sel.Scope,
			RecipeCount: len(sel.Recipes),
		})
		if err != nil {
			s.logger.Warn("Failed to stamp PDF metadata, sending the document as rendered",
				zap.String("filename", filename),
				zap.Error(err),
			)
		} else {
			data = stamped
		}
	}

	s.metrics.Export(monitoring.OutcomeSuccess, len(sel.Recipes))

	return &inbound.ExportResult{
		Title:       sel.Title,
		Filename:    filename,
		ContentType: "application/pdf",
		Count:       len(sel.Recipes),
		Data:        data,
	}, nil
}

func (s *RecipeService) mapLookupError(err error) error {
	switch {
	case stderrors.Is(err, recipe.ErrCategoryNotFound):
		return errors.NewNotFoundError(msgCategoryNotFound)
	case stderrors.Is(err, recipe.ErrSubcategoryNotFound):
		return errors.NewNotFoundError(msgSubNotFound)
	}
	return errors.Wrap(err, "failed to list recipes")
}

func withFavorites(recipes []recipe.Recipe, favorites []string) []inbound.RecipeDTO {
	set := recipe.FavoriteSet(favorites)
	out := make([]inbound.RecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.WithFavorite(set))
	}
	return out
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// exportCandidates reads only the requested records when the query selects
// by ID, and the whole store otherwise
func (s *RecipeService) exportCandidates(ctx context.Context, query inbound.ExportQuery) ([]recipe.Recipe, error) {
	switch {
	case query.FavoritesOnly:
		if len(query.Favorites) == 0 {
			return nil, nil
		}
		return s.recipeRepo.FindByIDs(ctx, query.Favorites)
	case len(query.IDs) > 0:
		return s.recipeRepo.FindByIDs(ctx, query.IDs)
	}
	return s.recipeRepo.ListAll(ctx)
}

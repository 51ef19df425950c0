package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgNoJSONData = "Request has no JSON data."

// RecipeHandlers serves the recipe JSON API and the PDF export
type RecipeHandlers struct {
	recipeService inbound.RecipeService
	maxBodyBytes  int64
	logger        *zap.Logger
}

// NewRecipeHandlers creates the recipe handlers. maxBodyBytes caps the
// generate request body; zero means 1MB.
func NewRecipeHandlers(recipeService inbound.RecipeService, maxBodyBytes int64, logger *zap.Logger) *RecipeHandlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &RecipeHandlers{
		recipeService: recipeService,
		maxBodyBytes:  maxBodyBytes,
		logger:        logger.Named("recipe-handlers"),
	}
}

// GenerateRecipe handles POST /generate_recipe
func (h *RecipeHandlers) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.decodeGenerate(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.recipeService.GenerateRecipe(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, rec)
}

// decodeGenerate accepts any JSON object with at least one field. A
// missing, empty or non-object body has no data.
func (h *RecipeHandlers) decodeGenerate(w http.ResponseWriter, r *http.Request) (inbound.GenerateRecipeCommand, error) {
	var cmd inbound.GenerateRecipeCommand

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return cmd, errors.NewBadRequestError("Request body is too large.")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &fields); err != nil || len(fields) == 0 {
		return cmd, errors.NewValidationError(msgNoJSONData)
	}

	if err := json.Unmarshal(body, &cmd); err != nil {
		return cmd, errors.NewValidationError("Request fields have the wrong type.")
	}
	return cmd, nil
}

// ListRecipes handles GET /recipes
func (h *RecipeHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeService.ListRecipes(r.Context(), listParam(r.URL.Query(), "favorites"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, recipes)
}

// ListRecipesByCategory handles GET /recipes/{category}
func (h *RecipeHandlers) ListRecipesByCategory(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "category")

	recipes, err := h.recipeService.ListRecipesByCategory(r.Context(), category, listParam(r.URL.Query(), "favorites"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, recipes)
}

// ListRecipesBySubcategory handles GET /recipes/{category}/{subcategory}
func (h *RecipeHandlers) ListRecipesBySubcategory(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "category")
	subcategory := pathParam(r, "subcategory")

	recipes, err := h.recipeService.ListRecipesBySubcategory(r.Context(), category, subcategory, listParam(r.URL.Query(), "favorites"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, recipes)
}

// Categories handles GET /categories
func (h *RecipeHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.recipeService.Categories(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, orderedCategories(categories))
}

// ExportPDF handles GET /generate_pdf
func (h *RecipeHandlers) ExportPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := inbound.ExportQuery{
		Category:      q.Get("category"),
		Subcategory:   q.Get("subcategory"),
		IDs:           listParam(q, "ids"),
		FavoritesOnly: q.Get("favorites_only") == "true",
		Favorites:     listParam(q, "favorites"),
	}

	result, err := h.recipeService.ExportPDF(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("Failed to send PDF", zap.String("filename", result.Filename), zap.Error(err))
	}
}

// orderedCategories encodes as a JSON object whose keys keep the taxonomy
// order
type orderedCategories []inbound.CategoryDTO

func (c orderedCategories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, category := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(category.Name)
		if err != nil {
			return nil, err
		}
		subs := category.Subcategories
		if subs == nil {
			subs = []string{}
		}
		value, err := json.Marshal(subs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// contentDisposition marks the response as a download. Non-ASCII names
// are sent as an RFC 2231 filename* parameter.
func contentDisposition(filename string) string {
	ascii := true
	for _, r := range filename {
		if r > 127 {
			ascii = false
			break
		}
	}
	if ascii {
		return fmt.Sprintf("attachment; filename=%q", filename)
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

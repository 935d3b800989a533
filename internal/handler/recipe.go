package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/dukerupert/recipebook/internal/model"
	"github.com/dukerupert/recipebook/internal/service"
	"github.com/dukerupert/recipebook/internal/websocket"
)

// maxUploadMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const maxUploadMemory = 32 << 20

type RecipeHandler struct {
	recipes *service.RecipeService
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRecipeHandler(rs *service.RecipeService, hub *websocket.Hub, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: rs, hub: hub, logger: logger}
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	p := service.ListRecipesParams{
		Tag:          r.URL.Query().Get("tag"),
		MasteryLevel: r.URL.Query().Get("mastery_level"),
	}

	skip, err := queryInt(r, "skip")
	if err != nil {
		writeError(w, http.StatusBadRequest, "skip must be an integer")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if p.Rating, err = queryInt(r, "rating"); err != nil {
		writeError(w, http.StatusBadRequest, "rating must be an integer")
		return
	}
	if skip != nil {
		p.Skip = *skip
	}
	p.Limit = limit

	recipes, err := h.recipes.List(p)
	if err != nil {
		writeServiceError(w, h.logger, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	recipe, err := h.recipes.Get(id)
	if err != nil {
		writeServiceError(w, h.logger, "get recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var recipe *model.Recipe
	if isJSON(r) {
		var in service.RecipeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		created, err := h.recipes.Create(in)
		if err != nil {
			writeServiceError(w, h.logger, "create recipe", err)
			return
		}
		recipe = created
	} else {
		form, cleanup, err := readForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer cleanup()

		created, err := h.recipes.CreateForm(form)
		if err != nil {
			writeServiceError(w, h.logger, "create recipe", err)
			return
		}
		recipe = created
	}

	h.hub.Publish(websocket.NewMessage(websocket.EntityRecipe, websocket.ActionCreated, recipe.ID))
	writeJSON(w, http.StatusCreated, recipe)
}

// Update replaces the recipe. The multipart path only checks existence
// before decoding; the JSON path does the same so a missing id always wins
// over a malformed body.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var recipe *model.Recipe
	if isJSON(r) {
		if _, err := h.recipes.Get(id); err != nil {
			writeServiceError(w, h.logger, "update recipe", err)
			return
		}
		var in service.RecipeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if recipe, err = h.recipes.Update(id, in); err != nil {
			writeServiceError(w, h.logger, "update recipe", err)
			return
		}
	} else {
		form, cleanup, err := readForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer cleanup()

		if recipe, err = h.recipes.UpdateForm(id, form); err != nil {
			writeServiceError(w, h.logger, "update recipe", err)
			return
		}
	}

	h.hub.Publish(websocket.NewMessage(websocket.EntityRecipe, websocket.ActionUpdated, id))
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.recipes.Delete(id); err != nil {
		writeServiceError(w, h.logger, "delete recipe", err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.EntityRecipe, websocket.ActionDeleted, id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "recipe deleted"})
}

// readForm collects the recipe fields from a multipart or urlencoded body.
// The returned cleanup closes the uploaded image, if any.
func readForm(r *http.Request) (service.RecipeForm, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return service.RecipeForm{}, noop, errors.New("invalid form body")
	}

	form := service.RecipeForm{
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Ingredients:  r.FormValue("ingredients"),
		Seasonings:   r.FormValue("seasonings"),
		Steps:        r.FormValue("steps"),
		CookingTime:  r.FormValue("cooking_time"),
		Servings:     r.FormValue("servings"),
		Difficulty:   r.FormValue("difficulty"),
		Tags:         r.FormValue("tags"),
		MasteryLevel: r.FormValue("mastery_level"),
		Rating:       r.FormValue("rating"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, noop, nil
	case err != nil:
		return service.RecipeForm{}, noop, errors.New("invalid image upload")
	}
	form.Image = &service.Image{Filename: header.Filename, Body: file}
	return form, func() { file.Close() }, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

package handlers

import (
	"errors"
	"net/http"

	"recipeshare/internal/services"

	"github.com/labstack/echo/v4"
)

type TagHandler struct {
	tagService *services.TagService
}

func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	tags, err := h.tagService.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tags")
	}

	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	tagID, err := pathID(c)
	if err != nil {
		return err
	}

	tag, err := h.tagService.GetByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, services.ErrTagNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get tag")
	}

	return c.JSON(http.StatusOK, tag)
}

type IngredientHandler struct {
	ingredientService *services.IngredientService
}

func NewIngredientHandler(ingredientService *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredientService: ingredientService}
}

func (h *IngredientHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	ingredients, err := h.ingredientService.Search(ctx, c.QueryParam("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search ingredients")
	}

	return c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	ingredientID, err := pathID(c)
	if err != nil {
		return err
	}

	ingredient, err := h.ingredientService.GetByID(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, services.ErrIngredientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "ingredient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get ingredient")
	}

	return c.JSON(http.StatusOK, ingredient)
}

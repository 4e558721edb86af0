package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"recipeshare/internal/jobs"
	"recipeshare/internal/logging"
	"recipeshare/internal/middleware"
	"recipeshare/internal/models"
	"recipeshare/internal/services"

	"github.com/labstack/echo/v4"
)

type RecipeHandler struct {
	recipeService       *services.RecipeService
	shoppingListService *services.ShoppingListService
	jobClient           *jobs.Client
}

func NewRecipeHandler(recipeService *services.RecipeService, shoppingListService *services.ShoppingListService, jobClient *jobs.Client) *RecipeHandler {
	return &RecipeHandler{
		recipeService:       recipeService,
		shoppingListService: shoppingListService,
		jobClient:           jobClient,
	}
}

func (h *RecipeHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	authorID, _ := strconv.ParseUint(c.QueryParam("author"), 10, 32)

	input := services.ListRecipesInput{
		Page:     page,
		PerPage:  perPage,
		AuthorID: uint(authorID),
		TagSlugs: c.QueryParams()["tags"],
		// The flag filters only engage on the literal value "1" and only for
		// authenticated viewers; anything else silently disables them.
		Favorited: c.QueryParam("is_favorited") == "1",
		InCart:    c.QueryParam("is_in_shopping_cart") == "1",
	}

	result, err := h.recipeService.List(ctx, middleware.ViewerID(c), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recipes")
	}

	return c.JSON(http.StatusOK, result)
}

func (h *RecipeHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	recipeID, err := pathID(c)
	if err != nil {
		return err
	}

	recipe, err := h.recipeService.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get recipe")
	}

	favorited, inCart, subscribed := h.recipeService.ViewerFlags(ctx, middleware.ViewerID(c), recipe)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"recipe": recipe.ToResponse(favorited, inCart, subscribed),
	})
}

func (h *RecipeHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var input services.CreateRecipeInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	recipe, err := h.recipeService.Create(ctx, userID, input)
	if err != nil {
		var fieldErrs services.FieldErrors
		if errors.As(err, &fieldErrs) {
			return echo.NewHTTPError(http.StatusBadRequest, fieldErrs)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create recipe")
	}

	if h.jobClient != nil {
		// notification is best-effort; the recipe is already persisted
		if err := h.jobClient.EnqueueRecipeNotification(ctx, recipe.ID, recipe.Name, recipe.AuthorID); err != nil {
			logging.Warn(ctx).Err(err).Uint("recipe_id", recipe.ID).Msg("failed to enqueue recipe notification")
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"recipe": recipe.ToResponse(false, false, false),
	})
}

func (h *RecipeHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	recipeID, err := pathID(c)
	if err != nil {
		return err
	}

	var input services.UpdateRecipeInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	recipe, err := h.recipeService.Update(ctx, recipeID, userID, input)
	if err != nil {
		var fieldErrs services.FieldErrors
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrNotRecipeAuthor):
			return echo.NewHTTPError(http.StatusForbidden, "you are not the author of this recipe")
		case errors.As(err, &fieldErrs):
			return echo.NewHTTPError(http.StatusBadRequest, fieldErrs)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update recipe")
	}

	favorited, inCart, subscribed := h.recipeService.ViewerFlags(ctx, &userID, recipe)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"recipe": recipe.ToResponse(favorited, inCart, subscribed),
	})
}

func (h *RecipeHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	recipeID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.recipeService.Delete(ctx, recipeID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrNotRecipeAuthor):
			return echo.NewHTTPError(http.StatusForbidden, "you are not the author of this recipe")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete recipe")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c echo.Context) error {
	return h.addMembership(c, h.recipeService.Favorite, "recipe is already in favorites")
}

func (h *RecipeHandler) Unfavorite(c echo.Context) error {
	return h.removeMembership(c, h.recipeService.Unfavorite, "recipe is not in favorites")
}

func (h *RecipeHandler) AddToShoppingCart(c echo.Context) error {
	return h.addMembership(c, h.recipeService.AddToShoppingCart, "recipe is already in the shopping cart")
}

func (h *RecipeHandler) RemoveFromShoppingCart(c echo.Context) error {
	return h.removeMembership(c, h.recipeService.RemoveFromShoppingCart, "recipe is not in the shopping cart")
}

func (h *RecipeHandler) DownloadShoppingCart(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	text, err := h.shoppingListService.Build(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build shopping list")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="shopping_list.txt"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *RecipeHandler) addMembership(c echo.Context, add func(ctx context.Context, recipeID, userID uint) (*models.RecipeSummary, error), conflictMessage string) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	recipeID, err := pathID(c)
	if err != nil {
		return err
	}

	summary, err := add(ctx, recipeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrAlreadyExists):
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"errors": conflictMessage})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to update membership for recipe %d", recipeID))
	}

	return c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) removeMembership(c echo.Context, remove func(ctx context.Context, recipeID, userID uint) error, missingMessage string) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	recipeID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := remove(ctx, recipeID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrNotPresent):
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"errors": missingMessage})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to update membership for recipe %d", recipeID))
	}

	return c.NoContent(http.StatusNoContent)
}

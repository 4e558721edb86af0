package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"recipeshare/internal/middleware"
	"recipeshare/internal/services"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	result, err := h.userService.List(ctx, middleware.ViewerID(c), page, perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	return c.JSON(http.StatusOK, result)
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := pathID(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.Profile(ctx, middleware.ViewerID(c), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": profile,
	})
}

func (h *UserHandler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	authorID, err := pathID(c)
	if err != nil {
		return err
	}

	recipesLimit, _ := strconv.Atoi(c.QueryParam("recipes_limit"))

	author, err := h.userService.Subscribe(ctx, userID, authorID, recipesLimit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrSelfSubscription):
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"errors": "cannot subscribe to yourself",
			})
		case errors.Is(err, services.ErrAlreadyExists):
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"errors": "already subscribed to this author",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to subscribe")
	}

	return c.JSON(http.StatusCreated, author)
}

func (h *UserHandler) Unsubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	authorID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Unsubscribe(ctx, userID, authorID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrNotPresent):
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"errors": "not subscribed to this author",
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to unsubscribe")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	recipesLimit, _ := strconv.Atoi(c.QueryParam("recipes_limit"))

	result, err := h.userService.Subscriptions(ctx, userID, page, perPage, recipesLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list subscriptions")
	}

	return c.JSON(http.StatusOK, result)
}

// pathID parses the :id path parameter; unknown ids get a uniform 404.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return uint(id), nil
}

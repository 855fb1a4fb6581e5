package handlers

import (
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.POST("/users/sync", h.SyncUser)
	g.GET("/users/me", h.GetMe)
	g.GET("/users/:id", h.GetUser)
}

// SyncUser upserts the authenticated user's profile row. Profile fields come
// from the request body when present and otherwise from the verified identity
// token's claims; the reputation score is never written here.
func (h *UserHandler) SyncUser(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.SyncUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &models.User{
		ID:          firebaseUID,
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}

	// Fall back to the identity token claims for fields the body omitted
	if token, ok := c.Get("firebaseToken").(*auth.Token); ok && token != nil {
		if user.Email == "" {
			user.Email, _ = token.Claims["email"].(string)
		}
		if user.DisplayName == "" {
			user.DisplayName, _ = token.Claims["name"].(string)
		}
		if user.AvatarURL == "" {
			user.AvatarURL, _ = token.Claims["picture"].(string)
		}
	}

	if err := h.userRepository.UpsertProfile(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	synced, err := h.userRepository.GetUserByID(c.Request().Context(), firebaseUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, synced)
}

// GetMe returns the authenticated user's full profile
func (h *UserHandler) GetMe(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	user, err := h.userRepository.GetUserByID(c.Request().Context(), firebaseUID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser returns another user's public profile
func (h *UserHandler) GetUser(c echo.Context) error {
	userID := c.Param("id")

	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":             user.ToCompact(),
		"reputation_score": user.ReputationScore,
	})
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
)

// SelfInvestmentHandler handles HTTP requests related to self-investments
type SelfInvestmentHandler struct {
	selfInvestmentRepository repositories.SelfInvestmentRepository
	userRepository           repositories.UserRepository
}

// NewSelfInvestmentHandler creates a new SelfInvestmentHandler
func NewSelfInvestmentHandler(selfInvestmentRepo repositories.SelfInvestmentRepository, userRepo repositories.UserRepository) *SelfInvestmentHandler {
	return &SelfInvestmentHandler{
		selfInvestmentRepository: selfInvestmentRepo,
		userRepository:           userRepo,
	}
}

// RegisterSelfInvestmentRoutes registers self-investment routes
func (h *SelfInvestmentHandler) RegisterSelfInvestmentRoutes(g *echo.Group) {
	g.POST("/self-investments", h.CreateSelfInvestment)
	g.GET("/self-investments", h.GetSelfInvestments) // all, or filtered by user via query param
	g.GET("/self-investments/top", h.GetTopROIs)
	g.GET("/self-investments/worst", h.GetWorstROIs)
}

// CreateSelfInvestment records a self-investment for the authenticated user
func (h *SelfInvestmentHandler) CreateSelfInvestment(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.CreateSelfInvestmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	investmentDate := time.Now()
	if req.InvestmentDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.InvestmentDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "investment_date must be an RFC 3339 timestamp")
		}
		investmentDate = parsed
	}

	if err := h.userRepository.EnsureUser(c.Request().Context(), firebaseUID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	investment := &models.SelfInvestment{
		UserID:         firebaseUID,
		Title:          req.Title,
		Category:       req.Category,
		AmountInvested: req.AmountInvested,
		ROI:            req.ROI,
		Outcome:        req.Outcome,
		Description:    req.Description,
		InvestmentDate: investmentDate,
	}

	if err := h.selfInvestmentRepository.CreateSelfInvestment(c.Request().Context(), investment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, investment)
}

// GetSelfInvestments retrieves self-investments, optionally filtered by user
func (h *SelfInvestmentHandler) GetSelfInvestments(c echo.Context) error {
	userID := c.QueryParam("user_id")

	if userID != "" {
		investments, err := h.selfInvestmentRepository.GetByUserID(c.Request().Context(), userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, investments)
	}

	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	investments, err := h.selfInvestmentRepository.GetAll(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, investments)
}

// GetTopROIs returns the best-returning paid-off investments
func (h *SelfInvestmentHandler) GetTopROIs(c echo.Context) error {
	investments, err := h.selfInvestmentRepository.GetTopROIs(c.Request().Context(), leaderboardLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, investments)
}

// GetWorstROIs returns the worst-returning investments that did not pay off
func (h *SelfInvestmentHandler) GetWorstROIs(c echo.Context) error {
	investments, err := h.selfInvestmentRepository.GetWorstROIs(c.Request().Context(), leaderboardLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, investments)
}

func leaderboardLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		return 10 // Default limit
	}
	return limit
}

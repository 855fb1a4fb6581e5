package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tickersocial/backend/internal/market"
)

// MarketHandler handles market data HTTP requests. Market data is a display
// input only; the ranking pipeline never depends on it.
type MarketHandler struct {
	provider *market.Provider
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(provider *market.Provider) *MarketHandler {
	return &MarketHandler{provider: provider}
}

// RegisterMarketRoutes registers market data routes
func (h *MarketHandler) RegisterMarketRoutes(g *echo.Group) {
	g.GET("/market/top", h.GetTopStocks)
	g.GET("/market/:ticker", h.GetQuote)
}

// GetQuote returns the current quote for a ticker
func (h *MarketHandler) GetQuote(c echo.Context) error {
	ticker := c.Param("ticker")

	quote, err := h.provider.Quote(c.Request().Context(), ticker)
	if err != nil {
		if errors.Is(err, market.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Market data unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, quote)
}

// GetTopStocks returns quotes for the curated top-stocks list
func (h *MarketHandler) GetTopStocks(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > len(market.TopStocks) {
		limit = 10
	}

	tickers := market.TopStocks[:limit]
	quotes := h.provider.Quotes(c.Request().Context(), tickers)

	return c.JSON(http.StatusOK, echo.Map{
		"tickers": tickers,
		"quotes":  quotes,
	})
}

package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/repositories"
	"github.com/tickersocial/backend/pkg/config"
)

// ErrUnavailable is returned when no provider is configured or no provider
// could produce a quote for the ticker
var ErrUnavailable = errors.New("market data unavailable")

// quotes fresher than this are served from the cache without a provider call
const cacheFreshness = 60 * time.Second

// Provider looks up current market data for a ticker, caching quotes in the
// market repository. Ranking and analysis never depend on it; it is a
// display-layer input only.
type Provider struct {
	httpClient      *http.Client
	cache           repositories.MarketRepository
	alphaVantageKey string
	finnhubKey      string
}

// NewProvider creates a market data provider backed by the quote cache
func NewProvider(cfg *config.Config, cache repositories.MarketRepository) *Provider {
	return &Provider{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		cache:           cache,
		alphaVantageKey: cfg.AlphaVantageAPIKey,
		finnhubKey:      cfg.FinnhubAPIKey,
	}
}

// Quote returns current market data for a ticker, serving a cached quote when
// fresh enough and otherwise trying Alpha Vantage, then Finnhub
func (p *Provider) Quote(ctx context.Context, ticker string) (*models.MarketQuote, error) {
	ticker = strings.ToUpper(ticker)

	if cached, err := p.cache.GetQuote(ctx, ticker); err == nil {
		if time.Since(cached.FetchedAt) < cacheFreshness {
			return cached, nil
		}
	}

	quote, err := p.fetchQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SaveQuote(ctx, quote); err != nil {
		log.Printf("Error caching quote for %s: %v", ticker, err)
	}
	return quote, nil
}

// Quotes fetches quotes for multiple tickers concurrently; tickers whose
// lookup fails are absent from the result
func (p *Provider) Quotes(ctx context.Context, tickers []string) map[string]*models.MarketQuote {
	results := make(map[string]*models.MarketQuote, len(tickers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			quote, err := p.Quote(ctx, ticker)
			if err != nil {
				return
			}
			mu.Lock()
			results[strings.ToUpper(ticker)] = quote
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()
	return results
}

func (p *Provider) fetchQuote(ctx context.Context, ticker string) (*models.MarketQuote, error) {
	if p.alphaVantageKey != "" {
		quote, err := p.fetchAlphaVantage(ctx, ticker)
		if err == nil {
			return quote, nil
		}
		log.Printf("Alpha Vantage lookup failed for %s: %v", ticker, err)
	}

	if p.finnhubKey != "" {
		quote, err := p.fetchFinnhub(ctx, ticker)
		if err == nil {
			return quote, nil
		}
		log.Printf("Finnhub lookup failed for %s: %v", ticker, err)
	}

	return nil, ErrUnavailable
}

func (p *Provider) fetchAlphaVantage(ctx context.Context, ticker string) (*models.MarketQuote, error) {
	endpoint := fmt.Sprintf("https://www.alphavantage.co/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		url.QueryEscape(ticker), url.QueryEscape(p.alphaVantageKey))

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	priceStr, ok := payload.GlobalQuote["05. price"]
	if !ok || priceStr == "" {
		return nil, fmt.Errorf("no quote in Alpha Vantage response")
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("bad price in Alpha Vantage response: %w", err)
	}

	previousClose := price
	if v, err := strconv.ParseFloat(payload.GlobalQuote["08. previous close"], 64); err == nil && v > 0 {
		previousClose = v
	}
	volume, _ := strconv.ParseInt(payload.GlobalQuote["06. volume"], 10, 64)

	return &models.MarketQuote{
		Ticker:        ticker,
		Price:         price,
		Volume:        volume,
		ChangePercent: changePercent(price, previousClose),
		FetchedAt:     time.Now(),
	}, nil
}

func (p *Provider) fetchFinnhub(ctx context.Context, ticker string) (*models.MarketQuote, error) {
	endpoint := fmt.Sprintf("https://finnhub.io/api/v1/quote?symbol=%s&token=%s",
		url.QueryEscape(ticker), url.QueryEscape(p.finnhubKey))

	var payload struct {
		Current       float64 `json:"c"`
		PreviousClose float64 `json:"pc"`
		Volume        int64   `json:"v"`
	}
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Current <= 0 {
		return nil, fmt.Errorf("no quote in Finnhub response")
	}

	previousClose := payload.PreviousClose
	if previousClose <= 0 {
		previousClose = payload.Current
	}

	return &models.MarketQuote{
		Ticker:        ticker,
		Price:         payload.Current,
		Volume:        payload.Volume,
		ChangePercent: changePercent(payload.Current, previousClose),
		FetchedAt:     time.Now(),
	}, nil
}

func (p *Provider) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func changePercent(price, previousClose float64) float64 {
	if previousClose <= 0 {
		return 0
	}
	return (price - previousClose) / previousClose * 100
}

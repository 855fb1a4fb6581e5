package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tickersocial/backend/internal/llm"
)

const analysisSystemPrompt = "You are a financial analysis AI. Always return valid JSON."

const analysisPromptTemplate = `You are an expert financial analyst AI. Analyze the following investment post and extract structured insights.

Return a JSON object with this exact structure:
{
  "tags": [
    {"type": "sector", "value": "technology", "confidence": 0.9},
    {"type": "catalyst_type", "value": "earnings", "confidence": 0.8},
    {"type": "risk_profile", "value": "medium", "confidence": 0.7},
    {"type": "sentiment", "value": "bullish", "confidence": 0.85}
  ],
  "sentiment": "bullish",
  "summary": "Brief 2-3 sentence summary",
  "qualityScore": 0.85,
  "timeSensitivityScore": 0.7,
  "tickerRelevanceScore": 0.9,
  "extractedTickers": ["AAPL", "MSFT"]
}

Guidelines:
- qualityScore: 0-1 based on clarity, evidence, reasoning, novelty
- timeSensitivityScore: 0-1 based on urgency (earnings soon, breaking news = high)
- tickerRelevanceScore: 0-1 based on how relevant the ticker is to the content
- Extract all ticker symbols mentioned (uppercase, no $)
- Keep response under 300 tokens`

const analysisMaxTokens = 500

// Tag is a semantic annotation extracted from a post
type Tag struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Analysis is the structured result of analyzing a post. All probability-like
// fields are clamped to [0,1] regardless of what the model returned.
type Analysis struct {
	Tags                 []Tag    `json:"tags"`
	Sentiment            string   `json:"sentiment"`
	Summary              string   `json:"summary"`
	QualityScore         float64  `json:"qualityScore"`
	TimeSensitivityScore float64  `json:"timeSensitivityScore"`
	TickerRelevanceScore float64  `json:"tickerRelevanceScore"`
	ExtractedTickers     []string `json:"extractedTickers"`
}

// Engine scores posts and derives semantic tags via the language model,
// degrading to a deterministic default when the model is unavailable
type Engine struct {
	llmClient llm.Client
}

// NewEngine creates a new analysis engine
func NewEngine(llmClient llm.Client) *Engine {
	return &Engine{llmClient: llmClient}
}

// Analyze enriches post content with quality, urgency and relevance scores
// plus semantic tags. It never fails: every error path degrades to the
// deterministic default analysis so post creation is never blocked.
func (e *Engine) Analyze(ctx context.Context, content, ticker, analysisType string) Analysis {
	if !e.llmClient.Configured() {
		return defaultAnalysis(ticker)
	}

	raw, err := e.llmClient.CompleteJSON(ctx, analysisSystemPrompt, buildAnalysisPrompt(content, ticker, analysisType), analysisMaxTokens)
	if err != nil {
		log.Printf("Error analyzing post: %v", err)
		return defaultAnalysis(ticker)
	}

	var parsed Analysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("Error parsing analysis response: %v", err)
		return defaultAnalysis(ticker)
	}

	return normalize(parsed)
}

// defaultAnalysis is the deterministic result used whenever the model is
// unconfigured or fails. Ticker presence is the only input it depends on.
func defaultAnalysis(ticker string) Analysis {
	tickerRelevance := 0.3
	extracted := []string{}
	if ticker != "" {
		tickerRelevance = 0.8
		extracted = []string{strings.ToUpper(ticker)}
	}
	return Analysis{
		Tags:                 []Tag{},
		Sentiment:            "neutral",
		Summary:              "Analysis unavailable",
		QualityScore:         0.5,
		TimeSensitivityScore: 0.5,
		TickerRelevanceScore: tickerRelevance,
		ExtractedTickers:     extracted,
	}
}

func buildAnalysisPrompt(content, ticker, analysisType string) string {
	var b strings.Builder
	b.WriteString(analysisPromptTemplate)
	b.WriteString("\n\nPost content:\n")
	b.WriteString(content)
	if ticker != "" {
		b.WriteString(fmt.Sprintf("\n\nTicker: %s", ticker))
	}
	if analysisType != "" {
		b.WriteString(fmt.Sprintf("\nAnalysis Type: %s", analysisType))
	}
	return b.String()
}

// normalize clamps every score the model returned; the model is untrusted to
// respect the [0,1] bounds stated in the prompt
func normalize(a Analysis) Analysis {
	tags := make([]Tag, 0, len(a.Tags))
	for _, tag := range a.Tags {
		tag.Confidence = clamp01(tag.Confidence)
		tags = append(tags, tag)
	}
	a.Tags = tags

	tickers := make([]string, 0, len(a.ExtractedTickers))
	for _, t := range a.ExtractedTickers {
		tickers = append(tickers, strings.ToUpper(t))
	}
	a.ExtractedTickers = tickers

	switch a.Sentiment {
	case "bullish", "bearish", "neutral":
	default:
		a.Sentiment = "neutral"
	}

	a.QualityScore = clamp01(a.QualityScore)
	a.TimeSensitivityScore = clamp01(a.TimeSensitivityScore)
	a.TickerRelevanceScore = clamp01(a.TickerRelevanceScore)
	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// GeminiClient asks Gemini for a structured market analysis of a pair. A
// missing API key or any upstream failure degrades to a clearly labeled
// placeholder report; the caller never sees a hard failure.
type GeminiClient struct {
	client *resty.Client
	apiKey string
	model  string
	logger *zap.Logger
}

var _ domain.Analyzer = (*GeminiClient)(nil)

// NewGeminiClient creates an analyzer. An empty apiKey is allowed and puts
// the client in placeholder-only mode.
func NewGeminiClient(apiKey string, logger *zap.Logger) *GeminiClient {
	if apiKey == "" {
		logger.Warn("no Gemini API key configured, analysis will return placeholder reports")
	}
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(30 * time.Second)

	return &GeminiClient{
		client: client,
		apiKey: apiKey,
		model:  defaultModel,
		logger: logger,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (g *GeminiClient) SetBaseURL(url string) {
	g.client.SetBaseURL(url)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Analyze requests a market analysis for pair. The model is asked for strict
// JSON; the reply may still wrap it in markdown fences, so the first JSON
// object found in the text is used.
func (g *GeminiClient) Analyze(ctx context.Context, pair string) (*domain.AnalysisReport, error) {
	if g.apiKey == "" {
		return g.placeholderReport(pair), nil
	}

	prompt := fmt.Sprintf(`Analyze the current market for the crypto trading pair %s.
Respond with a single JSON object with these fields:
- summary: a short market summary
- technicalIndicators: { "trend": "bullish" | "bearish" | "neutral", "support": number, "resistance": number }
- riskLevel: "LOW" | "MEDIUM" | "HIGH"
Return only the JSON string.`, pair)

	var result generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", g.model))
	if err != nil {
		g.logger.Error("analysis request failed", zap.String("pair", pair), zap.Error(err))
		return g.placeholderReport(pair), nil
	}
	if resp.IsError() {
		g.logger.Error("analysis request rejected",
			zap.String("pair", pair), zap.Int("status", resp.StatusCode()))
		return g.placeholderReport(pair), nil
	}

	report, err := parseReport(result)
	if err != nil {
		g.logger.Error("analysis response unusable", zap.String("pair", pair), zap.Error(err))
		return g.placeholderReport(pair), nil
	}
	report.Timestamp = time.Now().UnixMilli()
	return report, nil
}

// parseReport extracts the report JSON from the model's reply text.
func parseReport(resp generateResponse) (*domain.AnalysisReport, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	text := resp.Candidates[0].Content.Parts[0].Text

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal([]byte(text[start:end+1]), &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}

func (g *GeminiClient) placeholderReport(pair string) *domain.AnalysisReport {
	return &domain.AnalysisReport{
		Summary:   fmt.Sprintf("[placeholder report] %s looks stable, watch the 1h candles.", pair),
		RiskLevel: domain.RiskLow,
		TechnicalIndicators: domain.TechnicalIndicators{
			Trend: "neutral",
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

package domain

// RiskLevel grades how risky the analyzed market currently looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// TechnicalIndicators is the indicator block of an analysis report.
type TechnicalIndicators struct {
	Trend      string  `json:"trend"`
	Support    float64 `json:"support,omitempty"`
	Resistance float64 `json:"resistance,omitempty"`
}

// AnalysisReport is the structured result of an AI market analysis for one
// pair. When the analyzer is unconfigured or fails, implementations return a
// clearly labeled placeholder report instead of an error.
type AnalysisReport struct {
	Summary             string              `json:"summary"`
	TechnicalIndicators TechnicalIndicators `json:"technicalIndicators"`
	RiskLevel           RiskLevel           `json:"riskLevel"`
	Timestamp           int64               `json:"timestamp"`
}

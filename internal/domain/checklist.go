package domain

// ChecklistItem is one entry of the pre-trade checklist template.
type ChecklistItem struct {
	ID         string `json:"id" yaml:"id"`
	Text       string `json:"text" yaml:"text"`
	IsRequired bool   `json:"isRequired" yaml:"required"`
}

// DefaultChecklist is the built-in template used until the trader edits it.
func DefaultChecklist() []ChecklistItem {
	return []ChecklistItem{
		{ID: "c1", Text: "Generate Gemini analysis report", IsRequired: true},
		{ID: "c2", Text: "Generate AI analysis report", IsRequired: true},
		{ID: "c3", Text: "Generate ChatGPT analysis report", IsRequired: true},
		{ID: "c4", Text: "Produce a combined report from all three AIs", IsRequired: true},
		{ID: "c5", Text: "Check whether the reports diverge too much", IsRequired: true},
		{ID: "c6", Text: "Decide long or short", IsRequired: true},
		{ID: "c7", Text: "Confirm take-profit levels are reasonable (TP1, TP2, TP3)", IsRequired: true},
		{ID: "c8", Text: "Confirm stop-loss is reasonable", IsRequired: true},
		{ID: "c9", Text: "Check for major news or economic data in the last 12 hours", IsRequired: true},
		{ID: "c10", Text: "Check recent crypto ETF inflows and outflows", IsRequired: true},
		{ID: "c11", Text: "Check recent whale activity", IsRequired: true},
		{ID: "c12", Text: "Anything more important in the next 12 hours?", IsRequired: true},
		{ID: "c13", Text: "Mental state is normal right now", IsRequired: true},
		{ID: "c14", Text: "Is it the weekend? (weekends move less)", IsRequired: true},
	}
}

// DefaultPairs is the built-in selection of tradable pairs.
func DefaultPairs() []string {
	return []string{
		"BTC/USDT",
		"ETH/USDT",
		"SOL/USDT",
		"BNB/USDT",
		"BTC(cm)",
		"ETH(cm)",
	}
}

// Storage keys for the four persisted collections.
const (
	KeyActiveTrades = "tradeguard_active_trades"
	KeyHistory      = "tradeguard_history"
	KeyTemplate     = "tradeguard_template"
	KeyPairs        = "tradeguard_pairs"
)

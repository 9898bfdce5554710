package domain

// Status is the lifecycle state of a trade.
type Status string

const (
	// StatusChecking means the trader is still working through the checklist.
	StatusChecking Status = "CHECKING"
	// StatusOpen means the position is live on the exchange.
	StatusOpen Status = "OPEN"
	// StatusClosed means the trade is settled and recorded. Terminal.
	StatusClosed Status = "CLOSED"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SnapshotItem is one checklist entry frozen onto a trade when it opens.
type SnapshotItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Trade is the central record of one gated position, from checklist to
// settlement. Field names on the wire match the export document format.
//
// Direction is empty while the trade is CHECKING and is fixed when the trade
// is closed. EndTime, OpenPrice, ClosePrice, Pnl and PnlPercentage carry
// meaning only once Status is CLOSED. Timestamps are Unix milliseconds.
type Trade struct {
	ID                string         `json:"id"`
	Pair              string         `json:"pair"`
	Direction         Side           `json:"direction,omitempty"`
	Status            Status         `json:"status"`
	StartTime         int64          `json:"startTime"`
	EndTime           int64          `json:"endTime,omitempty"`
	OpenPrice         float64        `json:"openPrice,omitempty"`
	ClosePrice        float64        `json:"closePrice,omitempty"`
	Pnl               float64        `json:"pnl"`
	PnlPercentage     float64        `json:"pnlPercentage"`
	Notes             string         `json:"notes,omitempty"`
	ChecklistSnapshot []SnapshotItem `json:"checklistSnapshot"`
}

// PriceUpdate is a single tick from the market data stream. Ephemeral, never
// persisted.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

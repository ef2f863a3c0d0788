package model

// SignalType indicates the direction of a trading signal.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// SignalEvent represents a discrete trading signal produced by the analysis
// collaborator. It is read-only to this service. SignalDate carries the raw
// timestamp exactly as received; it is parsed when the signal is resolved
// onto a price series so a malformed value never poisons a whole batch.
type SignalEvent struct {
	ID            string                 `json:"id"`
	SignalType    SignalType             `json:"signal_type"`
	SignalDate    string                 `json:"signal_date"`
	SignalPrice   float64                `json:"signal_price"`
	StrategyName  string                 `json:"strategy_name"`
	ReturnPercent *float64               `json:"return_percent"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// SignalMarker represents a signal plotted onto a price chart: the signal,
// the calendar day it landed on, and the value it is drawn at.
type SignalMarker struct {
	Signal       SignalEvent `json:"signal"`
	MatchedDate  Day         `json:"matched_date"`
	PlottedValue float64     `json:"plotted_value"`
}

// SignalGroup collects all signals that share one calendar day, in input
// order. Grouping is presentation-only; every signal keeps its own marker.
type SignalGroup struct {
	Date    Day           `json:"date"`
	Signals []SignalEvent `json:"signals"`
}

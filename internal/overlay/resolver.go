package overlay

import (
	"time"

	"github.com/yourorg/watchlist-service/internal/model"
)

// Resolve maps each signal onto the aligned price series, producing one
// marker per signal. The signal's timestamp is truncated to its calendar
// day; the marker is plotted at that day's close when the series has a bar
// with a close for it, and at the signal's own recorded price otherwise, so
// a signal dated outside the fetched price window is still drawn.
//
// Signals whose timestamps cannot be parsed are excluded and reported
// through a MalformedSignalError alongside the markers for the remaining
// signals. The error is recoverable: callers that only care about the
// markers may log it and move on.
func Resolve(signals []model.SignalEvent, series *model.MovingAverageSeries) ([]model.SignalMarker, error) {
	markers := make([]model.SignalMarker, 0, len(signals))
	var skipped []model.SkippedSignal

	for _, sig := range signals {
		day, err := parseSignalDate(sig.SignalDate)
		if err != nil {
			skipped = append(skipped, model.SkippedSignal{
				ID:      sig.ID,
				RawDate: sig.SignalDate,
				Err:     err,
			})
			continue
		}

		plotted := sig.SignalPrice
		if point, ok := series.At(day); ok && point.Close != nil {
			plotted = *point.Close
		}

		markers = append(markers, model.SignalMarker{
			Signal:       sig,
			MatchedDate:  day,
			PlottedValue: plotted,
		})
	}

	if len(skipped) > 0 {
		return markers, &model.MalformedSignalError{Skipped: skipped}
	}
	return markers, nil
}

// GroupByDate buckets signals by calendar day for combined tooltips: one
// group per distinct day, first-seen day order, signals within a group in
// input order. Nothing is deduplicated or merged; grouping is visual only.
// Signals with unparseable dates are omitted here, since Resolve already
// reports them.
func GroupByDate(signals []model.SignalEvent) []model.SignalGroup {
	index := make(map[string]int)
	var groups []model.SignalGroup

	for _, sig := range signals {
		day, err := parseSignalDate(sig.SignalDate)
		if err != nil {
			continue
		}
		key := day.String()
		if i, ok := index[key]; ok {
			groups[i].Signals = append(groups[i].Signals, sig)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, model.SignalGroup{
			Date:    day,
			Signals: []model.SignalEvent{sig},
		})
	}

	return groups
}

// parseSignalDate accepts the timestamp formats the analysis collaborator
// emits: RFC3339 or a bare ISO date.
func parseSignalDate(raw string) (model.Day, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return model.DayOf(t), nil
	}
	return model.ParseDay(raw)
}

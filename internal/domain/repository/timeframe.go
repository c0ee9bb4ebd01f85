package repository

import "time"

// TimeFrame is a symbolic look-back window for history queries.
type TimeFrame string

const (
	TF1D  TimeFrame = "1D"
	TF1W  TimeFrame = "1W"
	TF1M  TimeFrame = "1M"
	TF3M  TimeFrame = "3M"
	TF1Y  TimeFrame = "1Y"
	TFAll TimeFrame = "All"
)

// TimeFrames lists every supported window.
var TimeFrames = []TimeFrame{TF1D, TF1W, TF1M, TF3M, TF1Y, TFAll}

// IsValidTimeFrame returns true if tf is a supported timeframe.
func IsValidTimeFrame(tf TimeFrame) bool {
	switch tf {
	case TF1D, TF1W, TF1M, TF3M, TF1Y, TFAll:
		return true
	default:
		return false
	}
}

// DefaultTimeFrame returns the default timeframe.
func DefaultTimeFrame() TimeFrame { return TF1M }

// NormalizeTimeFrame converts raw string to a valid timeframe (or default).
func NormalizeTimeFrame(s string) TimeFrame {
	if s == "" {
		return DefaultTimeFrame()
	}
	tf := TimeFrame(s)
	if IsValidTimeFrame(tf) {
		return tf
	}
	return DefaultTimeFrame()
}

// Cutoff returns the earliest instant included in the window ending at now.
// All maps to the Unix epoch; unknown values behave like 1M.
func (tf TimeFrame) Cutoff(now time.Time) time.Time {
	switch tf {
	case TF1D:
		return now.AddDate(0, 0, -1)
	case TF1W:
		return now.AddDate(0, 0, -7)
	case TF3M:
		return now.AddDate(0, -3, 0)
	case TF1Y:
		return now.AddDate(-1, 0, 0)
	case TFAll:
		return time.Unix(0, 0).UTC()
	default:
		return now.AddDate(0, -1, 0)
	}
}

package filler

import "log/slog"

// Progress receives progress updates from a batch run. Pump is called after every
// completed record so an interactive front-end can redraw.
type Progress interface {
	SetMaximum(n int)
	Increment()
	Pump()
}

// NopProgress discards progress updates
type NopProgress struct{}

func (NopProgress) SetMaximum(int) {}
func (NopProgress) Increment()     {}
func (NopProgress) Pump()          {}

// LogProgress reports progress through a structured logger
type LogProgress struct {
	Logger  *slog.Logger
	maximum int
	value   int
}

// SetMaximum sets the number of records expected
func (p *LogProgress) SetMaximum(n int) {
	p.maximum = n
	p.value = 0
}

// Increment advances the counter by one record
func (p *LogProgress) Increment() {
	p.value++
}

// Pump logs the current position
func (p *LogProgress) Pump() {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("progress", "done", p.value, "total", p.maximum)
}

// Value returns the number of completed records
func (p *LogProgress) Value() int { return p.value }

// Maximum returns the number of records expected
func (p *LogProgress) Maximum() int { return p.maximum }

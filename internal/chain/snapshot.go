package chain

import "time"

// Series names one of the derived dashboard series.
type Series string

const (
	SeriesBaseFee  Series = "base_fee"
	SeriesGasUsage Series = "gas_usage"
	SeriesVolume   Series = "transfer_volume"
)

// AllSeries lists the series in display order.
var AllSeries = []Series{SeriesVolume, SeriesBaseFee, SeriesGasUsage}

// Title returns the human readable chart title for the series.
func (s Series) Title() string {
	switch s {
	case SeriesBaseFee:
		return "Base Fee Per Gas (Gwei)"
	case SeriesGasUsage:
		return "Gas Usage (%)"
	case SeriesVolume:
		return "ERC20 Token Transfer Volume"
	default:
		return string(s)
	}
}

// PanelState is the render state of a single chart.
type PanelState string

const (
	StateLoading PanelState = "loading"
	StateReady   PanelState = "ready"
	StateEmpty   PanelState = "empty"
	StateFailed  PanelState = "error"
)

// Panel holds one derived series and its render state.
type Panel struct {
	Series Series
	State  PanelState
	Points []MetricPoint
	Err    error
}

// HasData reports whether the panel carries anything worth drawing.
func (p Panel) HasData() bool {
	return p.State == StateReady && len(p.Points) > 0
}

// Snapshot is the outcome of one refresh cycle.
type Snapshot struct {
	TakenAt  time.Time
	Duration time.Duration
	Blocks   []Block
	Panels   map[Series]Panel
	// Err is set when the window itself could not be fetched.
	Err error
}

// Head returns the newest block number in the window, or zero.
func (s Snapshot) Head() uint64 {
	if len(s.Blocks) == 0 {
		return 0
	}
	return s.Blocks[len(s.Blocks)-1].Number
}

// Panel returns the panel for series, defaulting to the loading state.
func (s Snapshot) Panel(series Series) Panel {
	if p, ok := s.Panels[series]; ok {
		return p
	}
	return Panel{Series: series, State: StateLoading}
}

// Failed reports whether the window or any panel failed.
func (s Snapshot) Failed() bool {
	if s.Err != nil {
		return true
	}
	for _, p := range s.Panels {
		if p.State == StateFailed {
			return true
		}
	}
	return false
}

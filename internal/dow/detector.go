package dow

import (
	"math"

	"github.com/kalletarpila/swingmaster/internal/core"
	"go.uber.org/zap"
)

// Config holds detector parameters
type Config struct {
	// Window is the number of bars on each side a pivot must dominate.
	Window int
	// NearDuplicatePct ignores pivots this close to the active reference.
	NearDuplicatePct float64
	// CrossEpsilon is the band used to reclassify a pivot that reaches the
	// opposite active extreme.
	CrossEpsilon float64
	// BreakBars is the number of consecutive closes beyond the opposite
	// structural extreme that force a regime reset.
	BreakBars int
}

// DefaultConfig returns the production parameters
func DefaultConfig() Config {
	return Config{
		Window:           3,
		NearDuplicatePct: 0.0001,
		CrossEpsilon:     0.0001,
		BreakBars:        2,
	}
}

// Validate checks detector parameters
func (c Config) Validate() error {
	if c.Window < 1 {
		return core.WrapError(core.ErrConfigInvalid, errWindow)
	}
	if c.BreakBars < 1 {
		return core.WrapError(core.ErrConfigInvalid, errBreakBars)
	}
	if c.NearDuplicatePct < 0 || c.CrossEpsilon < 0 {
		return core.WrapError(core.ErrConfigInvalid, errEpsilon)
	}
	return nil
}

// Result is the outcome of one detection pass
type Result struct {
	Markers    []Marker
	ActiveHigh *Extreme
	ActiveLow  *Extreme
	Trend      Trend
}

// Detector finds structure markers in an ascending series
type Detector struct {
	cfg    Config
	logger *zap.Logger
}

// NewDetector creates a detector. A nil logger disables debug tracing.
func NewDetector(cfg Config, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect walks the series once. Markers are produced in ascending date
// order and each depends only on bars up to its own date, so filtering the
// result by date equals running the detector on the truncated series.
// correlationID tags debug output of this pass.
func (d *Detector) Detect(bars []Bar, correlationID string) Result {
	r := &pass{
		cfg:    d.cfg,
		bars:   bars,
		trend:  TrendNeutral,
		logger: d.logger.With(zap.String("correlation_id", correlationID)),
	}

	n := d.cfg.Window
	for i := range bars {
		// break of structure is evaluated before pivots of the same bar
		if r.checkBreak(i) {
			continue
		}

		c := i - n
		if c < n {
			continue
		}
		if r.isPivotHigh(c) {
			r.onPivot(true, bars[c].High, c, i)
		}
		if r.isPivotLow(c) {
			r.onPivot(false, bars[c].Low, c, i)
		}
	}

	return Result{
		Markers:    r.markers,
		ActiveHigh: r.activeHigh,
		ActiveLow:  r.activeLow,
		Trend:      r.trend,
	}
}

// pass holds the mutable state of one Detect call
type pass struct {
	cfg    Config
	bars   []Bar
	logger *zap.Logger

	activeHigh *Extreme
	activeLow  *Extreme
	lastHigh   Label
	lastLow    Label
	trend      Trend

	breakDownRun int
	breakUpRun   int

	markers []Marker
}

func (r *pass) isPivotHigh(c int) bool {
	n := r.cfg.Window
	for j := c - n; j <= c+n; j++ {
		if j != c && r.bars[j].High >= r.bars[c].High {
			return false
		}
	}
	return true
}

func (r *pass) isPivotLow(c int) bool {
	n := r.cfg.Window
	for j := c - n; j <= c+n; j++ {
		if j != c && r.bars[j].Low <= r.bars[c].Low {
			return false
		}
	}
	return true
}

func (r *pass) checkBreak(i int) bool {
	v := r.bars[i].Value

	if r.trend == TrendUp && r.activeLow != nil && v < r.activeLow.Price {
		r.breakDownRun++
	} else {
		r.breakDownRun = 0
	}
	if r.trend == TrendDown && r.activeHigh != nil && v > r.activeHigh.Price {
		r.breakUpRun++
	} else {
		r.breakUpRun = 0
	}

	switch {
	case r.breakDownRun >= r.cfg.BreakBars:
		r.reset(i, BreakDown, r.activeLow.Price)
		return true
	case r.breakUpRun >= r.cfg.BreakBars:
		r.reset(i, BreakUp, r.activeHigh.Price)
		return true
	}
	return false
}

func (r *pass) reset(i int, dir Break, level float64) {
	bar := r.bars[i]
	r.markers = append(r.markers, Marker{
		Date:       bar.Date,
		Value:      bar.Value,
		Label:      LabelReset,
		PivotPrice: level,
		PivotDate:  bar.Date,
		Break:      dir,
	})
	r.logger.Debug("dow regime reset",
		zap.Time("date", bar.Date),
		zap.String("break", string(dir)),
		zap.Float64("level", level),
		zap.String("trend_before", string(r.trend)),
	)

	r.activeHigh = nil
	r.activeLow = nil
	r.lastHigh = ""
	r.lastLow = ""
	r.breakDownRun = 0
	r.breakUpRun = 0
	r.trend = deriveTrend(r.lastHigh, r.lastLow)
}

func (r *pass) onPivot(isHigh bool, price float64, c, i int) {
	// a pivot reaching the opposite structural extreme is a retest of it
	if isHigh && r.activeLow != nil && price <= r.activeLow.Price*(1+r.cfg.CrossEpsilon) {
		isHigh = false
	} else if !isHigh && r.activeHigh != nil && price >= r.activeHigh.Price*(1-r.cfg.CrossEpsilon) {
		isHigh = true
	}

	pivot := Extreme{Date: r.bars[c].Date, Price: price}
	var label Label
	if isHigh {
		switch {
		case r.activeHigh == nil:
			label = LabelHigh
			r.activeHigh = &pivot
		case r.nearDuplicate(price, r.activeHigh.Price):
			return
		case price > r.activeHigh.Price:
			label = LabelHigherHigh
			r.activeHigh = &pivot
		default:
			label = LabelLowerHigh
		}
		r.lastHigh = label
	} else {
		switch {
		case r.activeLow == nil:
			label = LabelLow
		case r.nearDuplicate(price, r.activeLow.Price):
			return
		case price < r.activeLow.Price:
			label = LabelLowerLow
		default:
			label = LabelHigherLow
		}
		r.activeLow = &pivot
		r.lastLow = label
	}

	bar := r.bars[i]
	r.markers = append(r.markers, Marker{
		Date:       bar.Date,
		Value:      bar.Value,
		Label:      label,
		PivotPrice: price,
		PivotDate:  pivot.Date,
	})
	r.logger.Debug("dow pivot confirmed",
		zap.String("label", string(label)),
		zap.Time("pivot_date", pivot.Date),
		zap.Time("confirmed", bar.Date),
		zap.Float64("price", price),
	)

	next := deriveTrend(r.lastHigh, r.lastLow)
	if next == r.trend {
		return
	}
	r.trend = next
	switch next {
	case TrendUp:
		r.appendTrendMarker(LabelUp, i, pivot)
	case TrendDown:
		r.appendTrendMarker(LabelDown, i, pivot)
	}
}

func (r *pass) appendTrendMarker(label Label, i int, pivot Extreme) {
	bar := r.bars[i]
	r.markers = append(r.markers, Marker{
		Date:       bar.Date,
		Value:      bar.Value,
		Label:      label,
		PivotPrice: pivot.Price,
		PivotDate:  pivot.Date,
	})
}

func (r *pass) nearDuplicate(price, ref float64) bool {
	if ref == 0 {
		return price == 0
	}
	return math.Abs(price-ref)/math.Abs(ref) <= r.cfg.NearDuplicatePct
}

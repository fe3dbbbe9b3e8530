// Package holdover scales the configured preheat/preshutdown maxima by the
// current external temperature. The law is a piecewise-linear factor through
// (low_temp_c, 1.0) and (high_temp_c, min_fraction): the colder it is, the
// longer heating leads and lags a booking. Outside the band the factor is
// clamped, and without a trustworthy reading the maxima apply unchanged.
package holdover

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/interp"
)

// Config sets the scaling band. The defaults reproduce the field-proven
// behavior of the controllers this replaces: full hold-over at -10°C and
// below, min_fraction at 20°C and above.
type Config struct {
	LowTempC    float64 `json:"low_temp_c"`
	HighTempC   float64 `json:"high_temp_c"`
	MinFraction float64 `json:"min_fraction"`
}

// SetDefaults applies the default band when none is configured.
func (c *Config) SetDefaults() {
	if c.LowTempC == 0 && c.HighTempC == 0 {
		c.LowTempC = -10
		c.HighTempC = 20
	}
}

// Validate checks the band boundaries.
func (c Config) Validate() error {
	if c.LowTempC >= c.HighTempC {
		return fmt.Errorf("holdover: low_temp_c (%g) must be below high_temp_c (%g)", c.LowTempC, c.HighTempC)
	}
	if c.MinFraction < 0 || c.MinFraction > 1 {
		return fmt.Errorf("holdover: min_fraction %g outside [0,1]", c.MinFraction)
	}
	return nil
}

// Scaler computes effective hold-over times. It is pure and safe for
// concurrent use once constructed.
type Scaler struct {
	curve interp.PiecewiseLinear
}

// New fits the scaling curve from the configured band.
func New(cfg Config) (*Scaler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(
		[]float64{cfg.LowTempC, cfg.HighTempC},
		[]float64{1, cfg.MinFraction},
	); err != nil {
		return nil, fmt.Errorf("holdover: fit scaling curve: %w", err)
	}
	return &Scaler{curve: pl}, nil
}

// Factor returns the scaling factor for a temperature. It is monotonically
// non-increasing in celsius and constant outside the configured band.
func (s *Scaler) Factor(celsius float64) float64 {
	return s.curve.Predict(celsius)
}

// Effective returns the hold-over times derived from the configured maxima.
// celsius is nil when the temperature feed is absent or stale; the maxima
// then apply unchanged (fail-safe: assume the worst case).
func (s *Scaler) Effective(maxPreheat, maxPreshutdown time.Duration, celsius *float64) (preheat, preshutdown time.Duration) {
	if celsius == nil {
		return maxPreheat, maxPreshutdown
	}
	f := s.Factor(*celsius)
	return scale(maxPreheat, f), scale(maxPreshutdown, f)
}

// scale rounds to whole minutes; the controller bus runs on a minute
// cadence, finer resolution never reaches the wire.
func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(math.Round(d.Minutes()*f)) * time.Minute
}

package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/sim"
)

// Config is everything a session needs to generate and drive a simulation. The ranges
// match the controls offered to users; the engine itself only requires a positive
// size and probability.
type Config struct {
	Strain       sim.Strain   `json:"strain" yaml:"strain" validate:"gte=1,lte=3"`
	Probability  float64      `json:"probability" yaml:"probability" validate:"gte=0.1,lte=1,step=0.1"`
	NetworkSize  int          `json:"networkSize" yaml:"network_size" validate:"gte=10,lte=50,step=5"`
	TickInterval lib.Duration `json:"tickInterval" yaml:"tick_interval"`
	// Seed makes runs reproducible. Zero picks a seed from the clock.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

const (
	minTickInterval = 10 * time.Millisecond
	maxTickInterval = time.Minute
)

// DefaultConfig mirrors the defaults of the browser controls.
func DefaultConfig() Config {
	return Config{
		Strain:       sim.Virus,
		Probability:  0.3,
		NetworkSize:  20,
		TickInterval: lib.DurationFrom(500 * time.Millisecond),
	}
}

// Params returns the per-tick infection parameters for c.
func (c Config) Params() sim.Params {
	return sim.Params{
		Strain:      c.Strain,
		Probability: c.Probability,
		Multiplier:  sim.DefaultMultiplier,
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("step", validateStep); err != nil {
		panic(err)
	}
}

// validateStep checks that a numeric field is a whole multiple of the tag parameter,
// e.g. `step=0.1`.
func validateStep(fl validator.FieldLevel) bool {
	step, err := strconv.ParseFloat(fl.Param(), 64)
	if err != nil || step <= 0 {
		return false
	}

	var v float64
	switch f := fl.Field(); {
	case f.CanFloat():
		v = f.Float()
	case f.CanInt():
		v = float64(f.Int())
	default:
		return false
	}

	ratio := v / step
	return math.Abs(ratio-math.Round(ratio)) < 1e-6
}

// Validate checks c against the recognized control ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.TickInterval.Duration < minTickInterval || c.TickInterval.Duration > maxTickInterval {
		return fmt.Errorf("TickInterval: must be between %s and %s, got %s",
			minTickInterval, maxTickInterval, c.TickInterval.Duration)
	}
	return nil
}

// formatValidationError flattens validator errors into one "Field: reason" message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var reason string
		switch fe.Tag() {
		case "gte":
			reason = "must be at least " + fe.Param()
		case "lte":
			reason = "must be at most " + fe.Param()
		case "step":
			reason = "must be a multiple of " + fe.Param()
		default:
			reason = "failed " + fe.Tag() + " validation"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s, got %v", fe.Field(), reason, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Op names a scenario step.
type Op string

const (
	OpSubmit Op = "submit"
	OpUpdate Op = "update"
	OpCancel Op = "cancel"
	OpBook   Op = "book"
	OpFlush  Op = "flush"
)

// ErrInvalidScenario is returned for files that cannot be run as written.
var ErrInvalidScenario = errors.New("invalid scenario")

// Step is one command. Price is kept as written so decimal prices are not
// rounded through a float.
type Step struct {
	Op       Op      `yaml:"op"`
	ID       string  `yaml:"id"`
	Side     string  `yaml:"side"`
	Type     string  `yaml:"type"`
	Price    *string `yaml:"price"`
	Quantity *int64  `yaml:"quantity"`
	Levels   int     `yaml:"levels"`
}

// Scenario is an ordered list of steps run against one book.
type Scenario struct {
	Steps []Step `yaml:"steps"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a scenario document.
func Parse(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step carries the fields its op needs. Values
// the book itself validates, such as side names or quantities, are left to
// the book so they show up in its error history.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, s := range sc.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%w: step %d: %s", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpSubmit:
		if s.Side == "" || s.Type == "" {
			return errors.New("submit needs side and type")
		}
		if s.Quantity == nil {
			return errors.New("submit needs quantity")
		}
	case OpUpdate:
		if s.ID == "" {
			return errors.New("update needs id")
		}
		if s.Price == nil && s.Quantity == nil {
			return errors.New("update needs price or quantity")
		}
	case OpCancel:
		if s.ID == "" {
			return errors.New("cancel needs id")
		}
	case OpBook:
		if s.Levels < 0 {
			return errors.New("levels must not be negative")
		}
	case OpFlush:
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Package scenario loads declarative message-loss scenarios from YAML and
// applies them to a fault-injection controller. Applying a scenario
// replaces whatever was armed before it.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maniacs-sfa/orleans/internal/faults"
	"github.com/maniacs-sfa/orleans/internal/model"
)

// Loss arms one endpoint at a loss percentage.
type Loss struct {
	Endpoint string  `yaml:"endpoint"`
	Percent  float64 `yaml:"percent"`
}

// Scenario is a named set of loss rules for one test run.
type Scenario struct {
	Name   string `yaml:"name"`
	Seed   uint64 `yaml:"seed,omitempty"`
	Losses []Loss `yaml:"losses"`
}

// Load reads and parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate rejects structurally broken scenarios. Percentages outside
// [0,100] are honored with saturating semantics by the decision function,
// so they pass validation; Warnings reports them.
func (s *Scenario) validate() error {
	for i, l := range s.Losses {
		if _, err := model.ParseEndpoint(l.Endpoint); err != nil {
			return fmt.Errorf("scenario: loss %d: %w", i, err)
		}
	}
	return nil
}

// Warnings lists suspicious but legal rules, one line per finding.
func (s *Scenario) Warnings() []string {
	var warnings []string
	for i, l := range s.Losses {
		if l.Percent < 0 || l.Percent > 100 {
			warnings = append(warnings,
				fmt.Sprintf("loss %d: percent %v outside [0,100], saturating semantics apply", i, l.Percent))
		}
	}
	return warnings
}

// Apply replaces the controller's armed state with this scenario's rules:
// everything previously armed is cleared, then each loss rule is armed.
func (s *Scenario) Apply(ctrl *faults.Controller) error {
	ctrl.DisableAll()
	for i, l := range s.Losses {
		ep, err := model.ParseEndpoint(l.Endpoint)
		if err != nil {
			return fmt.Errorf("scenario: loss %d: %w", i, err)
		}
		ctrl.Enable(ep, l.Percent)
	}
	return nil
}

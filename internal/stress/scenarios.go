package stress

import (
	"embed"
	"fmt"

	"github.com/aristath/sentinel/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultScenariosYAML []byte

// Library is a validated collection of stress scenarios plus the
// correlation-clamp bounds they share. Construction fails the same
// structural checks test_stress_testing_fixes.py ran as one-off assertions
// against a running system — here they are constructor-time invariants of
// the config loader instead.
type Library struct {
	MinCorrelation float64
	MaxCorrelation float64
	Scenarios      []domain.StressScenario
}

type rawConfig struct {
	Configuration struct {
		MinFactorCorrelation float64 `yaml:"min_factor_correlation"`
		MaxFactorCorrelation float64 `yaml:"max_factor_correlation"`
	} `yaml:"configuration"`
	StressScenarios map[string]map[string]rawScenario `yaml:"stress_scenarios"`
}

type rawScenario struct {
	Name           string             `yaml:"name"`
	Severity       string             `yaml:"severity"`
	Active         *bool              `yaml:"active"`
	Optional       bool               `yaml:"optional"`
	Historical     bool               `yaml:"historical"`
	ShockedFactors map[string]float64 `yaml:"shocked_factors"`
}

// DefaultLibrary loads the scenario set embedded at compile time.
func DefaultLibrary() (*Library, error) {
	return Load(defaultScenariosYAML)
}

// Load parses and validates a scenario config. Unknown factor names are
// rejected rather than silently dropped, since a typo'd factor key would
// otherwise make a scenario quietly inert.
func Load(data []byte) (*Library, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("stress: parsing scenario config: %w", err)
	}

	known := make(map[domain.FactorID]bool)
	for _, f := range domain.RidgeFactors {
		known[f] = true
	}
	for _, f := range domain.SpreadFactors {
		known[f] = true
	}

	var scenarios []domain.StressScenario
	for category, byID := range raw.StressScenarios {
		for id, rs := range byID {
			shocked := make(map[domain.FactorID]float64, len(rs.ShockedFactors))
			for name, shock := range rs.ShockedFactors {
				fid := domain.FactorID(name)
				if !known[fid] {
					return nil, fmt.Errorf("stress: scenario %q: unknown factor %q", id, name)
				}
				shocked[fid] = shock
			}

			active := !rs.Historical
			if rs.Active != nil {
				active = *rs.Active
			}

			scenarios = append(scenarios, domain.StressScenario{
				Name:           rs.Name,
				Category:       category,
				Severity:       domain.ScenarioSeverity(rs.Severity),
				Active:         active,
				Optional:       rs.Optional,
				Historical:     rs.Historical,
				ShockedFactors: shocked,
			})
		}
	}

	lib := &Library{
		MinCorrelation: raw.Configuration.MinFactorCorrelation,
		MaxCorrelation: raw.Configuration.MaxFactorCorrelation,
		Scenarios:      scenarios,
	}

	if err := lib.validateDistribution(); err != nil {
		return nil, err
	}

	return lib, nil
}

// validateDistribution enforces the target severity mix: base scenarios
// must be at least 20% of active scenarios, extreme scenarios must be
// under 20%. An empty active set trivially passes (nothing to violate).
func (l *Library) validateDistribution() error {
	var active int
	var base, extreme int
	for _, s := range l.Scenarios {
		if !s.Active {
			continue
		}
		active++
		switch s.Severity {
		case domain.SeverityBase:
			base++
		case domain.SeverityExtreme:
			extreme++
		}
	}
	if active == 0 {
		return nil
	}

	basePct := float64(base) / float64(active) * 100
	extremePct := float64(extreme) / float64(active) * 100

	if basePct < 20 {
		return fmt.Errorf("stress: base scenarios are %.1f%% of active scenarios, want >= 20%%", basePct)
	}
	if extremePct >= 20 {
		return fmt.Errorf("stress: extreme scenarios are %.1f%% of active scenarios, want < 20%%", extremePct)
	}
	return nil
}

// ActiveScenarios returns only the scenarios eligible to run.
func (l *Library) ActiveScenarios() []domain.StressScenario {
	var out []domain.StressScenario
	for _, s := range l.Scenarios {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

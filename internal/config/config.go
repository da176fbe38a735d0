package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rules models techco.yml, the balance tables every engine formula reads from.
// All gameplay numbers live here so they stay tunable without touching code.
type Rules struct {
	Game struct {
		SeedMoney     float64 `yaml:"seed_money"`
		FixedOverhead float64 `yaml:"fixed_overhead"`
	} `yaml:"game"`
	Projects struct {
		BaseMinutesPerComplexity   int             `yaml:"base_minutes_per_complexity"`
		MinMinutes                 int             `yaml:"min_minutes"`
		SeniorityDiscount          float64         `yaml:"seniority_discount"`
		JuniorMaxComplexity        int             `yaml:"junior_max_complexity"`
		ValuePerComplexity         map[int]float64 `yaml:"value_per_complexity"`
		CompletionToleranceSeconds int             `yaml:"completion_tolerance_seconds"`
	} `yaml:"projects"`
	Generation struct {
		BaseMinutes          int     `yaml:"base_minutes"`
		MinutesPerExperience int     `yaml:"minutes_per_experience"`
		MinMinutes           int     `yaml:"min_minutes"`
		ValueBase            float64 `yaml:"value_base"`
		ValueJitter          Band    `yaml:"value_jitter"`
	} `yaml:"generation"`
	Salaries struct {
		Developer map[int]Band `yaml:"developer"`
		Sales     map[int]Band `yaml:"sales"`
	} `yaml:"salaries"`
}

// Band is an inclusive [Min, Max] range used for uniform draws.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Load reads and validates rules from workspace.
func Load(workspace string) (*Rules, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("rules %s not found; generate with tc config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the rules file does not exist.
func LoadOptional(workspace string) (*Rules, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the rules meet required structure.
func (r *Rules) Validate() error {
	if r.Game.SeedMoney <= 0 {
		return fmt.Errorf("rules.game.seed_money must be positive")
	}
	if r.Game.FixedOverhead < 0 {
		return fmt.Errorf("rules.game.fixed_overhead must not be negative")
	}
	if r.Projects.BaseMinutesPerComplexity <= 0 {
		return fmt.Errorf("rules.projects.base_minutes_per_complexity must be positive")
	}
	if r.Projects.MinMinutes <= 0 {
		return fmt.Errorf("rules.projects.min_minutes must be positive")
	}
	if r.Projects.SeniorityDiscount < 0 || r.Projects.SeniorityDiscount >= 0.25 {
		return fmt.Errorf("rules.projects.seniority_discount must be in [0, 0.25)")
	}
	if r.Projects.JuniorMaxComplexity < 1 || r.Projects.JuniorMaxComplexity > 5 {
		return fmt.Errorf("rules.projects.junior_max_complexity must be 1-5")
	}
	if r.Projects.CompletionToleranceSeconds < 0 {
		return fmt.Errorf("rules.projects.completion_tolerance_seconds must not be negative")
	}
	for c := 1; c <= 5; c++ {
		v, ok := r.Projects.ValuePerComplexity[c]
		if !ok {
			return fmt.Errorf("rules.projects.value_per_complexity missing complexity %d", c)
		}
		if v <= 0 {
			return fmt.Errorf("rules.projects.value_per_complexity[%d] must be positive", c)
		}
	}
	if r.Generation.BaseMinutes <= 0 || r.Generation.MinMinutes <= 0 {
		return fmt.Errorf("rules.generation minutes must be positive")
	}
	if r.Generation.MinutesPerExperience < 0 {
		return fmt.Errorf("rules.generation.minutes_per_experience must not be negative")
	}
	if r.Generation.ValueBase <= 0 {
		return fmt.Errorf("rules.generation.value_base must be positive")
	}
	if err := r.Generation.ValueJitter.validate("rules.generation.value_jitter"); err != nil {
		return err
	}
	for name, table := range map[string]map[int]Band{
		"developer": r.Salaries.Developer,
		"sales":     r.Salaries.Sales,
	} {
		for level := 1; level <= 5; level++ {
			band, ok := table[level]
			if !ok {
				return fmt.Errorf("rules.salaries.%s missing level %d", name, level)
			}
			if err := band.validate(fmt.Sprintf("rules.salaries.%s[%d]", name, level)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b Band) validate(field string) error {
	if b.Min <= 0 {
		return fmt.Errorf("%s.min must be positive", field)
	}
	if b.Max < b.Min {
		return fmt.Errorf("%s.max must be >= min", field)
	}
	return nil
}

// Path returns the rules file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "techco.yml")
}

// GenerateDefault returns the default rules YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Rules struct.
func Default() *Rules {
	var r Rules
	_ = yaml.Unmarshal([]byte(defaultTemplate), &r)
	return &r
}

// FromYAML parses and validates rules from raw YAML bytes.
func FromYAML(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid rules yaml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

const defaultTemplate = `game:
  seed_money: 10000
  fixed_overhead: 1500

projects:
  base_minutes_per_complexity: 30
  min_minutes: 5
  seniority_discount: 0.15
  junior_max_complexity: 3
  completion_tolerance_seconds: 30
  value_per_complexity:
    1: 1000
    2: 2500
    3: 5000
    4: 9000
    5: 15000

generation:
  base_minutes: 60
  minutes_per_experience: 10
  min_minutes: 10
  value_base: 1000
  value_jitter:
    min: 0.8
    max: 1.2

salaries:
  developer:
    1: {min: 3000, max: 4500}
    2: {min: 4500, max: 6000}
    3: {min: 6000, max: 8000}
    4: {min: 8000, max: 10500}
    5: {min: 10500, max: 14000}
  sales:
    1: {min: 2500, max: 3500}
    2: {min: 3500, max: 4800}
    3: {min: 4800, max: 6500}
    4: {min: 6500, max: 8500}
    5: {min: 8500, max: 11000}
`

// Package automap applies declarative rules across a tile grid. A rule
// matches cells by the tiles around them and writes either one of several
// weighted tiles or a terrain, painted through the Wang engine.
package automap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned for rule sets that cannot be applied
var ErrInvalidRule = errors.New("invalid automap rule")

// UntilStableMaxIterations caps UntilStable so rules that never converge
// still terminate
const UntilStableMaxIterations = 100

// ApplyMode selects how many passes Apply runs
type ApplyMode int

const (
	// Once runs a single pass
	Once ApplyMode = iota
	// UntilStable repeats passes until one changes nothing or the cap is hit
	UntilStable
)

func (m ApplyMode) String() string {
	switch m {
	case Once:
		return "once"
	case UntilStable:
		return "until_stable"
	default:
		return fmt.Sprintf("ApplyMode(%d)", int(m))
	}
}

// ParseApplyMode accepts "once" and "until_stable"
func ParseApplyMode(s string) (ApplyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once":
		return Once, nil
	case "until_stable", "untilstable":
		return UntilStable, nil
	default:
		return Once, fmt.Errorf("%w: unknown apply mode %q", ErrInvalidRule, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (m ApplyMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ApplyMode) UnmarshalText(b []byte) error {
	parsed, err := ParseApplyMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// CellMatcher tests the cell at an offset from the rule's anchor cell.
// It matches when the cell holds one of Tiles, or is empty and Empty is
// set. With neither it matches any non-empty cell. Cells outside the grid
// count as empty.
type CellMatcher struct {
	DX     int   `yaml:"dx,omitempty"`
	DY     int   `yaml:"dy,omitempty"`
	Tiles  []int `yaml:"tiles,omitempty"`
	Empty  bool  `yaml:"empty,omitempty"`
	Negate bool  `yaml:"negate,omitempty"`
}

// WeightedTile is one output alternative
type WeightedTile struct {
	Tile   int `yaml:"tile"`
	Weight int `yaml:"weight,omitempty"`
}

// TerrainRef names a terrain of a terrain set
type TerrainRef struct {
	Set     string `yaml:"set"`
	Terrain string `yaml:"terrain"`
}

// Output is what a rule writes at each matched cell: one of Tiles picked
// by weight, or Terrain painted over all matched cells at once.
type Output struct {
	Tiles   []WeightedTile `yaml:"tiles,omitempty"`
	Terrain *TerrainRef    `yaml:"terrain,omitempty"`
}

// Rule is one automap rule
type Rule struct {
	Name  string        `yaml:"name"`
	Match []CellMatcher `yaml:"match"`
	// Chance is the percentage of matched cells written; 0 means all
	Chance int    `yaml:"chance,omitempty"`
	Output Output `yaml:"output"`
}

// RuleSet is an ordered list of rules and how to apply them
type RuleSet struct {
	Name  string    `yaml:"name"`
	Mode  ApplyMode `yaml:"mode"`
	Rules []Rule    `yaml:"rules"`
}

// Validate checks the structure of every rule. Terrain references are
// resolved later, against the sets the engine is given.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rule set %q has no rules: %w", rs.Name, ErrInvalidRule)
	}
	for i, r := range rs.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
	}
	return nil
}

func (r Rule) validate() error {
	if len(r.Match) == 0 {
		return fmt.Errorf("%w: no matchers", ErrInvalidRule)
	}
	if r.Chance < 0 || r.Chance > 100 {
		return fmt.Errorf("%w: chance %d outside 0..100", ErrInvalidRule, r.Chance)
	}
	hasTiles := len(r.Output.Tiles) > 0
	hasTerrain := r.Output.Terrain != nil
	if hasTiles == hasTerrain {
		return fmt.Errorf("%w: output needs exactly one of tiles or terrain", ErrInvalidRule)
	}
	for _, wt := range r.Output.Tiles {
		if wt.Weight < 0 {
			return fmt.Errorf("%w: negative weight for tile %d", ErrInvalidRule, wt.Tile)
		}
	}
	if hasTerrain && (r.Output.Terrain.Set == "" || r.Output.Terrain.Terrain == "") {
		return fmt.Errorf("%w: terrain output needs set and terrain", ErrInvalidRule)
	}
	return nil
}

// ParseRuleSet decodes and validates a YAML rule set
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("automap: unmarshal: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRuleSet reads a YAML rule set from disk
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("automap: load %s: %w", path, err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("automap: %s: %w", path, err)
	}
	return rs, nil
}

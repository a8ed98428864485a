package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"

	"gopkg.in/yaml.v3"
)

// Scenario is a timeline of parameter changes applied to every actor of a run.
//
//	name: start-walking
//	steps:
//	  - at: 0
//	    set: {speed: 0}
//	  - at: 0.5
//	    set: {speed: 1.5, grounded: true, direction: [0.3, 0.7]}
//	    play_speed: 2
type Scenario struct {
	Name  string         `yaml:"name"`
	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioStep assigns parameters once the run reaches At seconds.
type ScenarioStep struct {
	At        float32                  `yaml:"at"`
	Set       map[string]ScenarioValue `yaml:"set,omitempty"`
	PlaySpeed *float32                 `yaml:"play_speed,omitempty"`
}

// ScenarioValue is a parameter value written as a number, a bool or an [x, y] pair.
type ScenarioValue struct {
	animgraph.Value
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ScenarioValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!bool" {
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			v.Value = animgraph.BoolValue(b)
			return nil
		}
		var f float32
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: parameter values are numbers, bools or [x, y]", node.Line)
		}
		v.Value = animgraph.FloatValue(f)
		return nil
	case yaml.SequenceNode:
		var xy []float32
		if err := node.Decode(&xy); err != nil {
			return err
		}
		if len(xy) != 2 {
			return fmt.Errorf("line %d: vector values need 2 components, got %d", node.Line, len(xy))
		}
		v.Value = animgraph.Vector2Value(xy[0], xy[1])
		return nil
	default:
		return fmt.Errorf("line %d: parameter values are numbers, bools or [x, y]", node.Line)
	}
}

// LoadScenario decodes a scenario and orders its steps by time.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	for i, step := range s.Steps {
		if step.At < 0 {
			return nil, fmt.Errorf("step %d: negative time %g", i, step.At)
		}
	}
	slices.SortStableFunc(s.Steps, func(a, b ScenarioStep) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		default:
			return 0
		}
	})
	return &s, nil
}

// LoadScenarioFile reads the scenario at path.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := LoadScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// scenarioPlayer applies the steps of a Scenario as the run time advances.
type scenarioPlayer struct {
	scenario *Scenario
	next     int
}

func newScenarioPlayer(s *Scenario) *scenarioPlayer {
	if s == nil {
		s = &Scenario{}
	}
	return &scenarioPlayer{scenario: s}
}

// Advance applies every pending step whose time is at or before elapsed.
//
// Parameters:
//   - elapsed: run time in seconds
//   - instances: the graph instances to drive
//
// Returns:
//   - []string: a description of each applied step
//   - error: the first parameter that could not be set
func (p *scenarioPlayer) Advance(elapsed float32, instances []*animgraph.GraphInstance) ([]string, error) {
	var applied []string
	for p.next < len(p.scenario.Steps) && p.scenario.Steps[p.next].At <= elapsed+1e-6 {
		step := p.scenario.Steps[p.next]
		p.next++

		names := make([]string, 0, len(step.Set))
		for name := range step.Set {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, inst := range instances {
			if inst == nil {
				continue
			}
			for _, name := range names {
				if err := inst.SetParameter(name, step.Set[name].Value); err != nil {
					return applied, fmt.Errorf("step at %gs: %w", step.At, err)
				}
			}
			if step.PlaySpeed != nil {
				inst.SetPlaySpeed(*step.PlaySpeed)
			}
		}
		for _, name := range names {
			applied = append(applied, fmt.Sprintf("%s=%s", name, formatValue(step.Set[name].Value)))
		}
		if step.PlaySpeed != nil {
			applied = append(applied, fmt.Sprintf("play_speed=%g", *step.PlaySpeed))
		}
	}
	return applied, nil
}

// Done reports whether every step has been applied.
func (p *scenarioPlayer) Done() bool {
	return p.next >= len(p.scenario.Steps)
}

func formatValue(v animgraph.Value) string {
	switch v.Type {
	case animgraph.TypeBool:
		return fmt.Sprintf("%t", v.AsBool())
	case animgraph.TypeInt:
		return fmt.Sprintf("%d", v.AsInt())
	case animgraph.TypeVector2:
		xy := v.AsVector2()
		return fmt.Sprintf("[%.2f %.2f]", xy[0], xy[1])
	case animgraph.TypeVector3:
		return fmt.Sprintf("[%.2f %.2f %.2f]", v.Vector[0], v.Vector[1], v.Vector[2])
	default:
		return fmt.Sprintf("%.3g", v.AsFloat())
	}
}

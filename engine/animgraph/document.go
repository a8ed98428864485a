package animgraph

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DocumentVersion is the graph document format written by SaveDocument.
const DocumentVersion = 1

// Document is the serialized form of a Graph. Nodes are listed parents first; node and
// condition attributes are the YAML encoding of the node or condition value.
type Document struct {
	Version     int             `yaml:"version"`
	Name        string          `yaml:"name"`
	Root        string          `yaml:"root"`
	Parameters  []ParameterDoc  `yaml:"parameters,omitempty"`
	Nodes       []NodeDoc       `yaml:"nodes"`
	Connections []ConnectionDoc `yaml:"connections,omitempty"`
	Transitions []TransitionDoc `yaml:"transitions,omitempty"`
}

// ParameterDoc declares a graph parameter. Vector holds the default of a vector2 parameter,
// Default the default of every other type.
type ParameterDoc struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Default float32     `yaml:"default,omitempty"`
	Vector  *[2]float32 `yaml:"vector,omitempty,flow"`
	Min     float32     `yaml:"min,omitempty"`
	Max     float32     `yaml:"max,omitempty"`
}

// NodeDoc is one node. Parent names the containing blend tree or state machine.
type NodeDoc struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Parent     string     `yaml:"parent,omitempty"`
	Disabled   bool      `yaml:"disabled,omitempty"`
	Attributes yaml.Node `yaml:"attributes,omitempty"`
}

// UnmarshalYAML decodes the node fields and keeps the attributes mapping undecoded until
// the node type is known.
func (nd *NodeDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain NodeDoc
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	p.Attributes = attributesOf(value)
	*nd = NodeDoc(p)
	return nil
}

// ConnectionDoc connects ports addressed by name.
type ConnectionDoc struct {
	From     string `yaml:"from"`
	FromPort string `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   string `yaml:"to_port"`
}

// ConditionDoc is one transition condition.
type ConditionDoc struct {
	Type       string    `yaml:"type"`
	Attributes yaml.Node `yaml:"attributes,omitempty"`
}

// UnmarshalYAML decodes the condition type and keeps its attributes mapping undecoded.
func (cd *ConditionDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain ConditionDoc
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	p.Attributes = attributesOf(value)
	*cd = ConditionDoc(p)
	return nil
}

// attributesOf returns the value under the attributes key of a mapping, or a zero node.
func attributesOf(value *yaml.Node) yaml.Node {
	if value.Kind != yaml.MappingNode {
		return yaml.Node{}
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "attributes" {
			return *value.Content[i+1]
		}
	}
	return yaml.Node{}
}

// TransitionDoc is one state machine transition. An empty From is a wildcard.
type TransitionDoc struct {
	Machine                      string         `yaml:"machine"`
	From                         string         `yaml:"from,omitempty"`
	To                           string         `yaml:"to"`
	BlendTime                    float32        `yaml:"blend_time"`
	Interpolation                Interpolation  `yaml:"interpolation"`
	Priority                     int            `yaml:"priority,omitempty"`
	CanBeInterrupted             bool           `yaml:"can_be_interrupted"`
	CanInterruptOtherTransitions bool           `yaml:"can_interrupt_other_transitions,omitempty"`
	CanInterruptItself           bool           `yaml:"can_interrupt_itself,omitempty"`
	SyncMode                     SyncMode       `yaml:"sync"`
	EventMode                    EventMode      `yaml:"events"`
	Disabled                     bool           `yaml:"disabled,omitempty"`
	AllowedStates                []string       `yaml:"allowed_states,omitempty,flow"`
	Conditions                   []ConditionDoc `yaml:"conditions,omitempty"`
}

// LoadDocument decodes a graph document and checks its version.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - *Document: the decoded document
//   - error: a decode error or ErrUnsupportedVersion
func LoadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("load document: %w: empty document", ErrInvalidGraph)
		}
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("load document %q: %w: %d", doc.Name, ErrUnsupportedVersion, doc.Version)
	}
	return &doc, nil
}

// LoadGraphFile reads and builds the graph document at path.
func LoadGraphFile(path string, registry *Registry) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := LoadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := doc.Build(registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SaveDocument encodes doc as YAML.
func SaveDocument(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("save document %q: %w", doc.Name, err)
	}
	return enc.Close()
}

func parseTypeID(s string) (TypeID, bool) {
	for i, n := range typeNames {
		if n == s {
			return TypeID(i), true
		}
	}
	return TypeNone, false
}

// Build creates the graph described by the document. A nil registry uses DefaultRegistry.
//
// Parameters:
//   - registry: the node and condition types available to the document
//
// Returns:
//   - *Graph: the validated graph
//   - error: the first construction or validation error
func (d *Document) Build(registry *Registry, opts ...GraphBuilderOption) (*Graph, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if d.Version != DocumentVersion {
		return nil, fmt.Errorf("build %q: %w: %d", d.Name, ErrUnsupportedVersion, d.Version)
	}
	g := NewGraph(d.Name, opts...)

	for _, p := range d.Parameters {
		t, ok := parseTypeID(p.Type)
		if !ok {
			return nil, fmt.Errorf("build %q: parameter %q: %w: %q", d.Name, p.Name, ErrParameterType, p.Type)
		}
		def := ParameterDef{Name: p.Name, Type: t, Min: p.Min, Max: p.Max}
		if t == TypeVector2 && p.Vector != nil {
			def.Default = Vector2Value(p.Vector[0], p.Vector[1])
		} else {
			def.Default = Value{Number: p.Default}
		}
		if err := g.AddParameter(def); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
	}

	for _, nd := range d.Nodes {
		n, err := registry.NewNode(nd.Type)
		if err != nil {
			return nil, fmt.Errorf("build %q: node %q: %w", d.Name, nd.Name, err)
		}
		if nd.Attributes.Kind != 0 {
			if err := nd.Attributes.Decode(n); err != nil {
				return nil, fmt.Errorf("build %q: node %q attributes: %w", d.Name, nd.Name, err)
			}
		}
		var parent NodeHandle
		if nd.Parent != "" {
			h, ok := g.FindHandle(nd.Parent)
			if !ok {
				return nil, fmt.Errorf("build %q: node %q: parent: %w: %q", d.Name, nd.Name, ErrNodeNotFound, nd.Parent)
			}
			parent = h
		}
		if _, err := g.AddNode(n, nd.Name, parent); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
		n.Base().SetDisabled(nd.Disabled)
	}

	for _, nd := range d.Nodes {
		m, ok := g.FindNode(nd.Name).(*StateMachineNode)
		if !ok || m.EntryState == "" {
			continue
		}
		h, ok := g.FindHandle(m.EntryState)
		if !ok {
			return nil, fmt.Errorf("build %q: machine %q: entry state: %w: %q", d.Name, nd.Name, ErrNodeNotFound, m.EntryState)
		}
		if err := m.SetEntryState(h); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
	}

	for _, c := range d.Connections {
		if _, err := g.ConnectByName(c.From, c.FromPort, c.To, c.ToPort); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
	}

	for i := range d.Transitions {
		if err := d.buildTransition(g, registry, &d.Transitions[i]); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
	}

	if d.Root != "" {
		h, ok := g.FindHandle(d.Root)
		if !ok {
			return nil, fmt.Errorf("build %q: root: %w: %q", d.Name, ErrNodeNotFound, d.Root)
		}
		if err := g.SetRoot(h); err != nil {
			return nil, fmt.Errorf("build %q: %w", d.Name, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("build %q: %w", d.Name, err)
	}
	return g, nil
}

func (d *Document) buildTransition(g *Graph, registry *Registry, td *TransitionDoc) error {
	m, ok := g.FindNode(td.Machine).(*StateMachineNode)
	if !ok {
		return fmt.Errorf("transition %s -> %s: machine: %w: %q", td.From, td.To, ErrNodeNotFound, td.Machine)
	}
	state := func(name string) (NodeHandle, error) {
		h, ok := g.FindHandle(name)
		if !ok {
			return NodeHandle{}, fmt.Errorf("transition %s -> %s: %w: %q", td.From, td.To, ErrNodeNotFound, name)
		}
		return h, nil
	}
	var source NodeHandle
	if td.From != "" {
		h, err := state(td.From)
		if err != nil {
			return err
		}
		source = h
	}
	target, err := state(td.To)
	if err != nil {
		return err
	}

	t := NewStateTransition(source, target, td.BlendTime)
	t.Interpolation = td.Interpolation
	t.Priority = td.Priority
	t.CanBeInterrupted = td.CanBeInterrupted
	t.CanInterruptOtherTransitions = td.CanInterruptOtherTransitions
	t.CanInterruptItself = td.CanInterruptItself
	t.SyncMode = td.SyncMode
	t.EventMode = td.EventMode
	t.Disabled = td.Disabled
	for _, name := range td.AllowedStates {
		h, err := state(name)
		if err != nil {
			return err
		}
		t.AllowedStates = append(t.AllowedStates, h)
	}
	for _, cd := range td.Conditions {
		c, err := registry.NewCondition(cd.Type)
		if err != nil {
			return fmt.Errorf("transition %s -> %s: %w", td.From, td.To, err)
		}
		if cd.Attributes.Kind != 0 {
			if err := cd.Attributes.Decode(c); err != nil {
				return fmt.Errorf("transition %s -> %s: condition %q: %w", td.From, td.To, cd.Type, err)
			}
		}
		t.AddCondition(c)
	}
	return m.AddTransition(t)
}

// encodeAttributes returns the YAML encoding of v, or a zero node when v has no attributes.
func encodeAttributes(v any) (yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return yaml.Node{}, err
	}
	if n.Kind == yaml.MappingNode && len(n.Content) == 0 {
		return yaml.Node{}, nil
	}
	return n, nil
}

// GraphToDocument captures a graph as a document. Nodes are written depth first so every
// parent precedes its children.
//
// Parameters:
//   - g: the graph
//
// Returns:
//   - *Document: the document
//   - error: an attribute encoding error
func GraphToDocument(g *Graph) (*Document, error) {
	doc := &Document{Version: DocumentVersion, Name: g.Name()}
	if root := g.Root(); root != nil {
		doc.Root = root.Base().Name()
	}

	for _, p := range g.Parameters() {
		pd := ParameterDoc{Name: p.Name, Type: p.Type.String(), Min: p.Min, Max: p.Max}
		if p.Type == TypeVector2 {
			v := p.Default.AsVector2()
			pd.Vector = &v
		} else {
			pd.Default = p.Default.Number
		}
		doc.Parameters = append(doc.Parameters, pd)
	}

	var walk func(n Node) error
	walk = func(n Node) error {
		b := n.Base()
		nd := NodeDoc{Name: b.Name(), Type: n.TypeName(), Disabled: b.IsDisabled()}
		if parent := g.Node(b.Parent()); parent != nil {
			nd.Parent = parent.Base().Name()
		}
		attrs, err := encodeAttributes(n)
		if err != nil {
			return fmt.Errorf("node %q attributes: %w", b.Name(), err)
		}
		nd.Attributes = attrs
		doc.Nodes = append(doc.Nodes, nd)

		for _, c := range b.Connections() {
			src := g.Node(c.Source())
			if src == nil {
				continue
			}
			doc.Connections = append(doc.Connections, ConnectionDoc{
				From:     src.Base().Name(),
				FromPort: src.Base().OutputPort(int(c.SourcePort())).Name,
				To:       b.Name(),
				ToPort:   b.InputPort(int(c.TargetPort())).Name,
			})
		}
		if m, ok := n.(*StateMachineNode); ok {
			for _, t := range m.Transitions() {
				td, err := transitionToDoc(g, m, t)
				if err != nil {
					return err
				}
				doc.Transitions = append(doc.Transitions, td)
			}
		}
		for _, h := range b.Children() {
			if child := g.Node(h); child != nil {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, n := range g.Nodes() {
		if n.Base().Parent().IsValid() {
			continue
		}
		if err := walk(n); err != nil {
			return nil, fmt.Errorf("graph %q: %w", g.Name(), err)
		}
	}
	return doc, nil
}

func transitionToDoc(g *Graph, m *StateMachineNode, t *StateTransition) (TransitionDoc, error) {
	name := func(h NodeHandle) string {
		if n := g.Node(h); n != nil {
			return n.Base().Name()
		}
		return ""
	}
	td := TransitionDoc{
		Machine:                      m.Name(),
		From:                         name(t.Source()),
		To:                           name(t.Target()),
		BlendTime:                    t.BlendTime,
		Interpolation:                t.Interpolation,
		Priority:                     t.Priority,
		CanBeInterrupted:             t.CanBeInterrupted,
		CanInterruptOtherTransitions: t.CanInterruptOtherTransitions,
		CanInterruptItself:           t.CanInterruptItself,
		SyncMode:                     t.SyncMode,
		EventMode:                    t.EventMode,
		Disabled:                     t.Disabled,
	}
	for _, h := range t.AllowedStates {
		td.AllowedStates = append(td.AllowedStates, name(h))
	}
	for _, c := range t.Conditions() {
		attrs, err := encodeAttributes(c)
		if err != nil {
			return TransitionDoc{}, fmt.Errorf("transition %s -> %s: condition %q: %w", td.From, td.To, c.TypeName(), err)
		}
		td.Conditions = append(td.Conditions, ConditionDoc{Type: c.TypeName(), Attributes: attrs})
	}
	return td, nil
}

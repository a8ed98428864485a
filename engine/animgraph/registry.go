package animgraph

import (
	"fmt"
	"sort"
	"sync"
)

// InvalidIndex marks an unset sync index, port index or child index.
const InvalidIndex = -1

// Category groups node types for listing.
type Category string

const (
	CategorySources    Category = "sources"
	CategoryBlending   Category = "blending"
	CategoryMath       Category = "math"
	CategoryLogic      Category = "logic"
	CategoryMisc       Category = "misc"
	CategoryStates     Category = "states"
	CategoryConditions Category = "conditions"
)

// AttributeInfo describes one configurable field of a node or condition type.
// It is consumed only by tooling and by document validation.
type AttributeInfo struct {
	Name        string
	Kind        string
	Default     any
	Options     []string
	Description string
}

// NodeTypeInfo is a registered node type.
type NodeTypeInfo struct {
	Name        string
	Category    Category
	Description string
	Attributes  []AttributeInfo
	New         func() Node
}

// ConditionTypeInfo is a registered transition condition type.
type ConditionTypeInfo struct {
	Name        string
	Description string
	Attributes  []AttributeInfo
	New         func() Condition
}

// Registry holds the node and condition type tables and the string id pool.
// A Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	nodes      map[string]NodeTypeInfo
	conditions map[string]ConditionTypeInfo
	strings    []string
	stringIDs  map[string]uint32
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// NewRegistry creates an empty registry. Id 0 of the string pool is the empty string.
//
// Returns:
//   - *Registry: the new registry
func NewRegistry() *Registry {
	return &Registry{
		nodes:      make(map[string]NodeTypeInfo),
		conditions: make(map[string]ConditionTypeInfo),
		strings:    []string{""},
		stringIDs:  map[string]uint32{"": 0},
	}
}

// DefaultRegistry returns the process-wide registry holding every built-in node and condition type.
// It is built on first use.
//
// Returns:
//   - *Registry: the shared registry
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		registerBuiltinNodes(r)
		registerBuiltinConditions(r)
		defaultRegistry = r
	})
	return defaultRegistry
}

// RegisterNodeType adds a node type.
//
// Parameters:
//   - info: the type description; Name and New are required
//
// Returns:
//   - error: ErrDuplicateNodeType when the name is taken
func (r *Registry) RegisterNodeType(info NodeTypeInfo) error {
	if info.Name == "" || info.New == nil {
		return fmt.Errorf("register node type %q: name and factory are required", info.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[info.Name]; ok {
		return fmt.Errorf("register node type %q: %w", info.Name, ErrDuplicateNodeType)
	}
	r.nodes[info.Name] = info
	return nil
}

// RegisterConditionType adds a condition type.
//
// Parameters:
//   - info: the type description; Name and New are required
//
// Returns:
//   - error: ErrDuplicateNodeType when the name is taken
func (r *Registry) RegisterConditionType(info ConditionTypeInfo) error {
	if info.Name == "" || info.New == nil {
		return fmt.Errorf("register condition type %q: name and factory are required", info.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conditions[info.Name]; ok {
		return fmt.Errorf("register condition type %q: %w", info.Name, ErrDuplicateNodeType)
	}
	r.conditions[info.Name] = info
	return nil
}

// NewNode creates a node of the named type with its default configuration.
//
// Parameters:
//   - typeName: the registered type name
//
// Returns:
//   - Node: the new, unattached node
//   - error: ErrUnknownNodeType when the type is not registered
func (r *Registry) NewNode(typeName string) (Node, error) {
	r.mu.RLock()
	info, ok := r.nodes[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typeName)
	}
	return info.New(), nil
}

// NewCondition creates a condition of the named type with its default configuration.
//
// Parameters:
//   - typeName: the registered type name
//
// Returns:
//   - Condition: the new condition
//   - error: ErrUnknownCondition when the type is not registered
func (r *Registry) NewCondition(typeName string) (Condition, error) {
	r.mu.RLock()
	info, ok := r.conditions[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, typeName)
	}
	return info.New(), nil
}

// NodeType looks up a node type by name.
func (r *Registry) NodeType(name string) (NodeTypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.nodes[name]
	return info, ok
}

// NodeTypes returns every registered node type sorted by category, then name.
func (r *Registry) NodeTypes() []NodeTypeInfo {
	r.mu.RLock()
	out := make([]NodeTypeInfo, 0, len(r.nodes))
	for _, info := range r.nodes {
		out = append(out, info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ConditionTypes returns every registered condition type sorted by name.
func (r *Registry) ConditionTypes() []ConditionTypeInfo {
	r.mu.RLock()
	out := make([]ConditionTypeInfo, 0, len(r.conditions))
	for _, info := range r.conditions {
		out = append(out, info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StringID interns s and returns its id. Equal strings always map to the same id.
//
// Parameters:
//   - s: the string to intern
//
// Returns:
//   - uint32: the id; 0 for the empty string
func (r *Registry) StringID(s string) uint32 {
	r.mu.RLock()
	id, ok := r.stringIDs[s]
	r.mu.RUnlock()
	if ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.stringIDs[s]; ok {
		return id
	}
	id = uint32(len(r.strings))
	r.strings = append(r.strings, s)
	r.stringIDs[s] = id
	return id
}

// StringFromID returns the string interned under id, or "" for an unknown id.
func (r *Registry) StringFromID(id uint32) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.strings) {
		return ""
	}
	return r.strings[id]
}

// StringID interns s in the default registry.
func StringID(s string) uint32 {
	return DefaultRegistry().StringID(s)
}

// StringFromID resolves id against the default registry.
func StringFromID(id uint32) string {
	return DefaultRegistry().StringFromID(id)
}

func mustRegisterNode(r *Registry, info NodeTypeInfo) {
	if err := r.RegisterNodeType(info); err != nil {
		panic(err)
	}
}

func mustRegisterCondition(r *Registry, info ConditionTypeInfo) {
	if err := r.RegisterConditionType(info); err != nil {
		panic(err)
	}
}

package animgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/google/uuid"
)

// NodeHandle addresses a node in a Graph's arena. The generation guards against slot reuse
// after removal. The zero NodeHandle is invalid.
type NodeHandle struct {
	Index      uint32
	Generation uint32
}

// IsValid reports whether h was issued by a graph. It does not check that the node is still alive.
func (h NodeHandle) IsValid() bool { return h.Generation != 0 }

// String formats the handle as index@generation.
func (h NodeHandle) String() string {
	return fmt.Sprintf("%d@%d", h.Index, h.Generation)
}

// ParameterDef declares a graph parameter. Instances hold the live values.
type ParameterDef struct {
	Name    string
	Type    TypeID
	Default Value
	Min     float32
	Max     float32
}

type nodeSlot struct {
	node       Node
	generation uint32
}

// Graph is an authored animation graph: an arena of nodes addressed by NodeHandle,
// the connections between them, the designated root and the parameter declarations.
// A Graph is built single-threaded and treated as read-only while instances evaluate it.
type Graph struct {
	name   string
	id     uuid.UUID
	logger *slog.Logger

	slots  []nodeSlot
	free   []uint32
	byName map[string]NodeHandle
	root   NodeHandle

	params     []ParameterDef
	paramIndex map[string]int

	connectionCounter uint32

	mu        sync.Mutex
	instances map[*GraphInstance]struct{}
}

// NewGraph creates an empty graph.
//
// Parameters:
//   - name: the graph name
//   - opts: optional configuration
//
// Returns:
//   - *Graph: the new graph
func NewGraph(name string, opts ...GraphBuilderOption) *Graph {
	g := &Graph{
		name:       name,
		id:         uuid.New(),
		byName:     make(map[string]NodeHandle),
		paramIndex: make(map[string]int),
		instances:  make(map[*GraphInstance]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = common.ComponentLogger("animgraph")
	}
	return g
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// ID returns the graph id.
func (g *Graph) ID() uuid.UUID { return g.id }

func (g *Graph) nextConnectionID() uint32 {
	g.connectionCounter++
	return g.connectionCounter
}

// AddNode places n in the arena, registers its ports and attaches it to parent.
//
// Parameters:
//   - n: the node; it must not belong to a graph yet
//   - name: unique node name
//   - parent: the containing composite, or the zero handle for a top-level node
//
// Returns:
//   - NodeHandle: the handle of the new node
//   - error: ErrDuplicateName, ErrStaleHandle for a dead parent, or ErrInvalidGraph
func (g *Graph) AddNode(n Node, name string, parent NodeHandle) (NodeHandle, error) {
	b := n.Base()
	if b.graph != nil {
		return NodeHandle{}, fmt.Errorf("add node %q: %w: node already belongs to a graph", name, ErrInvalidGraph)
	}
	if name == "" {
		return NodeHandle{}, fmt.Errorf("add node: %w: empty name", ErrInvalidGraph)
	}
	if _, ok := g.byName[name]; ok {
		return NodeHandle{}, fmt.Errorf("add node %q: %w", name, ErrDuplicateName)
	}
	var parentNode Node
	if parent.IsValid() {
		if parentNode = g.Node(parent); parentNode == nil {
			return NodeHandle{}, fmt.Errorf("add node %q: parent %s: %w", name, parent, ErrStaleHandle)
		}
	}

	var idx uint32
	if k := len(g.free); k > 0 {
		idx = g.free[k-1]
		g.free = g.free[:k-1]
	} else {
		idx = uint32(len(g.slots))
		g.slots = append(g.slots, nodeSlot{})
	}
	s := &g.slots[idx]
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.node = n
	h := NodeHandle{Index: idx, Generation: s.generation}

	b.name = name
	b.nameID = StringID(name)
	if b.id == uuid.Nil {
		b.id = uuid.New()
	}
	b.handle = h
	b.parent = parent
	b.graph = g
	n.RegisterPorts()
	b.portsFrozen = true

	if parentNode != nil {
		pb := parentNode.Base()
		pb.children = append(pb.children, h)
	}
	g.byName[name] = h
	if a, ok := parentNode.(childAdditionObserver); ok {
		a.OnChildAdded(h)
	}
	return h, nil
}

// RemoveNode removes a node, its children and every connection that uses it.
// Its slot is freed and every handle to it becomes stale.
//
// Parameters:
//   - h: the node to remove
//
// Returns:
//   - error: ErrStaleHandle when h is not alive
func (g *Graph) RemoveNode(h NodeHandle) error {
	n := g.Node(h)
	if n == nil {
		return fmt.Errorf("remove node %s: %w", h, ErrStaleHandle)
	}
	b := n.Base()
	for len(b.children) > 0 {
		if err := g.RemoveNode(b.children[len(b.children)-1]); err != nil {
			// A dead child handle only needs to be dropped.
			b.children = b.children[:len(b.children)-1]
		}
	}

	for i := range g.slots {
		if other := g.slots[i].node; other != nil && other != n {
			other.Base().RemoveConnectionsUsingNode(h)
		}
	}
	for len(b.connections) > 0 {
		b.RemoveConnection(b.connections[0])
	}
	if p := g.Node(b.parent); p != nil {
		pb := p.Base()
		for i, c := range pb.children {
			if c == h {
				pb.children = append(pb.children[:i], pb.children[i+1:]...)
				break
			}
		}
		if r, ok := p.(childRemovalObserver); ok {
			r.OnChildRemoved(h)
		}
	}
	if g.root == h {
		g.root = NodeHandle{}
	}
	delete(g.byName, b.name)

	s := &g.slots[h.Index]
	s.node = nil
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	g.free = append(g.free, h.Index)
	b.graph = nil
	b.handle = NodeHandle{}
	b.portsFrozen = false

	g.mu.Lock()
	instances := make([]*GraphInstance, 0, len(g.instances))
	for inst := range g.instances {
		instances = append(instances, inst)
	}
	g.mu.Unlock()
	for _, inst := range instances {
		inst.OnNodeRemoved(h)
	}
	return nil
}

// childAdditionObserver is implemented by composites that resolve children by name.
type childAdditionObserver interface {
	OnChildAdded(h NodeHandle)
}

// childRemovalObserver is implemented by composites that keep extra references to their children.
type childRemovalObserver interface {
	OnChildRemoved(h NodeHandle)
}

// Node resolves a handle. It returns nil for the zero handle and for stale handles.
func (g *Graph) Node(h NodeHandle) Node {
	if !h.IsValid() || int(h.Index) >= len(g.slots) {
		return nil
	}
	s := g.slots[h.Index]
	if s.generation != h.Generation {
		return nil
	}
	return s.node
}

// FindNode returns the node with the given name, or nil.
func (g *Graph) FindNode(name string) Node {
	h, ok := g.byName[name]
	if !ok {
		return nil
	}
	return g.Node(h)
}

// FindHandle returns the handle of the named node.
func (g *Graph) FindHandle(name string) (NodeHandle, bool) {
	h, ok := g.byName[name]
	return h, ok
}

// Nodes returns every live node in slot order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.byName))
	for _, s := range g.slots {
		if s.node != nil {
			out = append(out, s.node)
		}
	}
	return out
}

// NumNodes returns the number of live nodes.
func (g *Graph) NumNodes() int { return len(g.byName) }

// NumSlots returns the size of the arena, including freed slots.
func (g *Graph) NumSlots() int { return len(g.slots) }

// SetRoot designates the node whose pose is the graph output.
//
// Returns:
//   - error: ErrStaleHandle for a dead handle, ErrInvalidGraph when the node has no pose output
func (g *Graph) SetRoot(h NodeHandle) error {
	n := g.Node(h)
	if n == nil {
		return fmt.Errorf("set root %s: %w", h, ErrStaleHandle)
	}
	if !n.HasOutputPose() {
		return fmt.Errorf("set root %q: %w: node has no pose output", n.Base().Name(), ErrInvalidGraph)
	}
	g.root = h
	return nil
}

// Root returns the root node, or nil when none is set.
func (g *Graph) Root() Node { return g.Node(g.root) }

// RootHandle returns the root handle.
func (g *Graph) RootHandle() NodeHandle { return g.root }

// Connect connects an output port of from to an input port of to, replacing any
// connection already on that input.
//
// Parameters:
//   - from: the source node
//   - fromPort: output port index on from
//   - to: the target node
//   - toPort: input port index on to
//
// Returns:
//   - *Connection: the new connection
//   - error: ErrStaleHandle, ErrPortOutOfRange, ErrIncompatiblePorts or ErrInvalidGraph
func (g *Graph) Connect(from NodeHandle, fromPort int, to NodeHandle, toPort int) (*Connection, error) {
	src, dst := g.Node(from), g.Node(to)
	if src == nil || dst == nil {
		return nil, fmt.Errorf("connect %s -> %s: %w", from, to, ErrStaleHandle)
	}
	if from == to {
		return nil, fmt.Errorf("connect %q to itself: %w", src.Base().Name(), ErrInvalidGraph)
	}
	if src.Base().parent != dst.Base().parent {
		return nil, fmt.Errorf("connect %q -> %q: %w: nodes have different parents", src.Base().Name(), dst.Base().Name(), ErrInvalidGraph)
	}
	out := src.Base().OutputPort(fromPort)
	in := dst.Base().InputPort(toPort)
	if out == nil || in == nil {
		return nil, fmt.Errorf("connect %q:%d -> %q:%d: %w", src.Base().Name(), fromPort, dst.Base().Name(), toPort, ErrPortOutOfRange)
	}
	if !out.CheckIfIsCompatibleWith(in) {
		return nil, fmt.Errorf("connect %q.%s (%s) -> %q.%s (%s): %w",
			src.Base().Name(), out.Name, out.PrimaryType(), dst.Base().Name(), in.Name, in.PrimaryType(), ErrIncompatiblePorts)
	}
	c := dst.Base().AddConnection(src, fromPort, toPort)
	if c == nil {
		return nil, fmt.Errorf("connect %q -> %q: %w", src.Base().Name(), dst.Base().Name(), ErrInvalidGraph)
	}
	return c, nil
}

// ConnectByName connects ports addressed by node and port names.
func (g *Graph) ConnectByName(from, fromPort, to, toPort string) (*Connection, error) {
	src, dst := g.FindNode(from), g.FindNode(to)
	if src == nil {
		return nil, fmt.Errorf("connect: %w: %q", ErrNodeNotFound, from)
	}
	if dst == nil {
		return nil, fmt.Errorf("connect: %w: %q", ErrNodeNotFound, to)
	}
	op := src.Base().FindOutputPortByName(fromPort)
	if op == InvalidIndex {
		return nil, fmt.Errorf("connect: %w: %q has no output %q", ErrPortOutOfRange, from, fromPort)
	}
	ip := dst.Base().FindInputPortByName(toPort)
	if ip == InvalidIndex {
		return nil, fmt.Errorf("connect: %w: %q has no input %q", ErrPortOutOfRange, to, toPort)
	}
	return g.Connect(src.Base().handle, op, dst.Base().handle, ip)
}

// Disconnect removes the connection plugged into an input port.
//
// Returns:
//   - bool: false when the port had no connection or the node is stale
func (g *Graph) Disconnect(to NodeHandle, toPort int) bool {
	dst := g.Node(to)
	if dst == nil {
		return false
	}
	c := dst.Base().FindConnection(toPort)
	if c == nil {
		return false
	}
	return dst.Base().RemoveConnection(c)
}

// ValidateConnections checks every connection in the graph: the source must be alive, both
// ports must resolve, and the port types must be compatible.
//
// Returns:
//   - []*Connection: the invalid connections; empty for a clean graph
func (g *Graph) ValidateConnections() []*Connection {
	var invalid []*Connection
	for _, n := range g.Nodes() {
		b := n.Base()
		for _, c := range b.connections {
			if !c.IsValid(g) || int(c.targetPort) >= b.NumInputs() {
				invalid = append(invalid, c)
				g.logger.Warn("dangling connection", "node", b.name, "connection", c.id)
				continue
			}
			src := g.Node(c.source)
			if !src.Base().outputs[c.sourcePort].CheckIfIsCompatibleWith(&b.inputs[c.targetPort]) {
				invalid = append(invalid, c)
				g.logger.Warn("incompatible connection", "node", b.name, "connection", c.id, "source", src.Base().name)
			}
		}
	}
	return invalid
}

// Validate checks that a root is set, that all connections are valid and that the
// connections do not form a cycle.
//
// Returns:
//   - error: wraps ErrInvalidGraph with every problem found
func (g *Graph) Validate() error {
	var errs []error
	if g.Root() == nil {
		errs = append(errs, errors.New("no root node"))
	}
	if bad := g.ValidateConnections(); len(bad) > 0 {
		errs = append(errs, fmt.Errorf("%d invalid connections", len(bad)))
	}
	if name, ok := g.findCycle(); ok {
		errs = append(errs, fmt.Errorf("connection cycle through %q", name))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}
	return nil
}

func (g *Graph) findCycle() (string, bool) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(g.slots))
	var visit func(n Node) (string, bool)
	visit = func(n Node) (string, bool) {
		idx := n.Base().handle.Index
		switch state[idx] {
		case visiting:
			return n.Base().name, true
		case done:
			return "", false
		}
		state[idx] = visiting
		for _, c := range n.Base().connections {
			if src := g.Node(c.source); src != nil {
				if name, ok := visit(src); ok {
					return name, true
				}
			}
		}
		state[idx] = done
		return "", false
	}
	for _, n := range g.Nodes() {
		if name, ok := visit(n); ok {
			return name, true
		}
	}
	return "", false
}

// AddParameter declares a parameter.
//
// Parameters:
//   - def: the declaration; Type must be float, int, bool or vector2
//
// Returns:
//   - error: ErrDuplicateName or ErrParameterType
func (g *Graph) AddParameter(def ParameterDef) error {
	if _, ok := g.paramIndex[def.Name]; ok {
		return fmt.Errorf("add parameter %q: %w", def.Name, ErrDuplicateName)
	}
	switch def.Type {
	case TypeFloat, TypeInt, TypeBool, TypeVector2:
	default:
		return fmt.Errorf("add parameter %q: %w: %s", def.Name, ErrParameterType, def.Type)
	}
	def.Default.Type = def.Type
	g.paramIndex[def.Name] = len(g.params)
	g.params = append(g.params, def)
	return nil
}

// FindParameter returns the index of the named parameter.
func (g *Graph) FindParameter(name string) (int, bool) {
	i, ok := g.paramIndex[name]
	return i, ok
}

// Parameters returns the parameter declarations in declaration order.
func (g *Graph) Parameters() []ParameterDef { return g.params }

func (g *Graph) attach(inst *GraphInstance) {
	g.mu.Lock()
	g.instances[inst] = struct{}{}
	g.mu.Unlock()
}

func (g *Graph) detach(inst *GraphInstance) {
	g.mu.Lock()
	delete(g.instances, inst)
	g.mu.Unlock()
}

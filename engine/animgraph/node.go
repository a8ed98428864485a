package animgraph

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is the capability interface every node type implements. Concrete nodes embed
// NodeBase, which supplies the port model, the connection list and default behaviour
// for every callback.
type Node interface {
	// Base returns the embedded NodeBase.
	Base() *NodeBase
	// TypeName returns the registered type name.
	TypeName() string
	// RegisterPorts declares the node's input and output ports. It runs once when the
	// node is added to a graph; the port counts are fixed afterwards.
	RegisterPorts()
	// CreateUniqueData returns the type-specific per-instance payload, or nil.
	CreateUniqueData(inst *GraphInstance) any
	// Update advances time, weights and sync state bottom-up.
	Update(inst *GraphInstance, dt float32)
	// TopDownUpdate pushes play speed, weights and sync targets to the inputs.
	TopDownUpdate(inst *GraphInstance, dt float32)
	// Output writes the node's poses and values into its output ports.
	Output(inst *GraphInstance)
	// PostUpdate produces the node's events and motion-extraction delta.
	PostUpdate(inst *GraphInstance, dt float32)
	// Rewind resets the node's playback to the start.
	Rewind(inst *GraphInstance)
	// HasOutputPose reports whether the node produces a pose.
	HasOutputPose() bool
}

// PlayTimeSetter is implemented by nodes that own a time source and must forward
// time changes imposed by synchronization.
type PlayTimeSetter interface {
	SetCurrentPlayTime(inst *GraphInstance, t float32)
}

// SubtreeProvider is implemented by composite nodes whose active inputs are not
// plain connection sources (blend trees, state machines).
type SubtreeProvider interface {
	ActiveSubtree(inst *GraphInstance) []Node
}

// NodeBase is the shared part of every node: identity, hierarchy, ports and the
// connections feeding the input ports.
type NodeBase struct {
	name        string
	nameID      uint32
	id          uuid.UUID
	handle      NodeHandle
	parent      NodeHandle
	children    []NodeHandle
	graph       *Graph
	inputs      []Port
	outputs     []Port
	connections []*Connection
	disabled    bool
	portsFrozen bool
}

// Base returns b. It lets every type embedding NodeBase satisfy Node.Base.
func (b *NodeBase) Base() *NodeBase { return b }

// Name returns the node name, unique within its graph.
func (b *NodeBase) Name() string { return b.name }

// NameID returns the interned id of the node name.
func (b *NodeBase) NameID() uint32 { return b.nameID }

// ID returns the globally unique node id.
func (b *NodeBase) ID() uuid.UUID { return b.id }

// Handle returns the node's arena handle. It is zero until the node is added to a graph.
func (b *NodeBase) Handle() NodeHandle { return b.handle }

// Parent returns the handle of the composite node containing this one, or the zero handle.
func (b *NodeBase) Parent() NodeHandle { return b.parent }

// Children returns the handles of the nodes contained in this composite.
func (b *NodeBase) Children() []NodeHandle { return b.children }

// Graph returns the graph the node belongs to, or nil.
func (b *NodeBase) Graph() *Graph { return b.graph }

// IsDisabled reports whether the node is skipped during evaluation.
func (b *NodeBase) IsDisabled() bool { return b.disabled }

// SetDisabled enables or disables the node.
func (b *NodeBase) SetDisabled(disabled bool) { b.disabled = disabled }

// NumInputs returns the number of input ports.
func (b *NodeBase) NumInputs() int { return len(b.inputs) }

// NumOutputs returns the number of output ports.
func (b *NodeBase) NumOutputs() int { return len(b.outputs) }

// InputPort returns the input port at index, or nil when out of range.
func (b *NodeBase) InputPort(index int) *Port {
	if index < 0 || index >= len(b.inputs) {
		return nil
	}
	return &b.inputs[index]
}

// OutputPort returns the output port at index, or nil when out of range.
func (b *NodeBase) OutputPort(index int) *Port {
	if index < 0 || index >= len(b.outputs) {
		return nil
	}
	return &b.outputs[index]
}

// InitInputPorts allocates n empty input ports.
// It panics once the node's ports have been frozen by the graph.
func (b *NodeBase) InitInputPorts(n int) {
	b.mustBeUnfrozen()
	b.inputs = make([]Port, n)
}

// InitOutputPorts allocates n empty output ports.
// It panics once the node's ports have been frozen by the graph.
func (b *NodeBase) InitOutputPorts(n int) {
	b.mustBeUnfrozen()
	b.outputs = make([]Port, n)
}

func (b *NodeBase) mustBeUnfrozen() {
	if b.portsFrozen {
		panic(fmt.Sprintf("animgraph: ports of node %q are frozen", b.name))
	}
}

// SetupInputPort names and types an input port.
//
// Parameters:
//   - name: the port name
//   - index: the port index, as allocated by InitInputPorts
//   - typeID: the accepted value type
//   - portID: a stable id used by documents to address the port
func (b *NodeBase) SetupInputPort(name string, index int, typeID TypeID, portID uint32) {
	p := &b.inputs[index]
	p.Name = name
	p.NameID = StringID(name)
	p.PortID = portID
	p.SetCompatibleTypes(typeID)
}

// SetupInputPortAsNumber sets up an input port accepting float, int and bool values.
func (b *NodeBase) SetupInputPortAsNumber(name string, index int, portID uint32) {
	b.SetupInputPort(name, index, TypeFloat, portID)
	b.inputs[index].SetCompatibleTypes(TypeFloat, TypeInt, TypeBool)
}

// SetupOutputPort names and types an output port.
//
// Parameters:
//   - name: the port name
//   - index: the port index, as allocated by InitOutputPorts
//   - typeID: the produced value type
//   - portID: a stable id used by documents to address the port
func (b *NodeBase) SetupOutputPort(name string, index int, typeID TypeID, portID uint32) {
	p := &b.outputs[index]
	p.Name = name
	p.NameID = StringID(name)
	p.PortID = portID
	p.SetCompatibleTypes(typeID)
}

// SetupOutputPortAsPose sets up an output port producing a pose.
func (b *NodeBase) SetupOutputPortAsPose(name string, index int, portID uint32) {
	b.SetupOutputPort(name, index, TypePose, portID)
}

// FindInputPortByName returns the index of the named input port, or InvalidIndex.
func (b *NodeBase) FindInputPortByName(name string) int {
	for i := range b.inputs {
		if b.inputs[i].Name == name {
			return i
		}
	}
	return InvalidIndex
}

// FindOutputPortByName returns the index of the named output port, or InvalidIndex.
func (b *NodeBase) FindOutputPortByName(name string) int {
	for i := range b.outputs {
		if b.outputs[i].Name == name {
			return i
		}
	}
	return InvalidIndex
}

// FindInputPortByID returns the index of the input port with the given port id, or InvalidIndex.
func (b *NodeBase) FindInputPortByID(portID uint32) int {
	for i := range b.inputs {
		if b.inputs[i].PortID == portID {
			return i
		}
	}
	return InvalidIndex
}

// FindOutputPortByID returns the index of the output port with the given port id, or InvalidIndex.
func (b *NodeBase) FindOutputPortByID(portID uint32) int {
	for i := range b.outputs {
		if b.outputs[i].PortID == portID {
			return i
		}
	}
	return InvalidIndex
}

// HasOutputPose reports whether any output port's primary type is a pose.
func (b *NodeBase) HasOutputPose() bool {
	for i := range b.outputs {
		if b.outputs[i].PrimaryType() == TypePose {
			return true
		}
	}
	return false
}

// MainPosePort returns the index of the first pose output, or InvalidIndex.
func (b *NodeBase) MainPosePort() int {
	for i := range b.outputs {
		if b.outputs[i].PrimaryType() == TypePose {
			return i
		}
	}
	return InvalidIndex
}

// AddConnection connects an output port of source to one of this node's input ports.
// An input port holds a single connection: an existing connection on targetPort is replaced.
// The port types are not checked here; Graph.Connect does that.
//
// Parameters:
//   - source: the node feeding the connection, in the same graph
//   - sourcePort: output port index on source
//   - targetPort: input port index on this node
//
// Returns:
//   - *Connection: the new connection, or nil if either port is out of range or the nodes are not in a graph
func (b *NodeBase) AddConnection(source Node, sourcePort, targetPort int) *Connection {
	if b.graph == nil || source == nil || source.Base().graph != b.graph {
		return nil
	}
	if targetPort < 0 || targetPort >= len(b.inputs) || sourcePort < 0 || sourcePort >= source.Base().NumOutputs() {
		return nil
	}
	if old := b.inputs[targetPort].Connection; old != nil {
		b.RemoveConnection(old)
	}
	c := &Connection{
		id:         b.graph.nextConnectionID(),
		source:     source.Base().handle,
		sourcePort: uint16(sourcePort),
		targetPort: uint16(targetPort),
	}
	b.connections = append(b.connections, c)
	b.inputs[targetPort].Connection = c
	return c
}

// RemoveConnection detaches c from this node.
//
// Returns:
//   - bool: false when c is not owned by this node
func (b *NodeBase) RemoveConnection(c *Connection) bool {
	for i, owned := range b.connections {
		if owned != c {
			continue
		}
		if int(c.targetPort) < len(b.inputs) && b.inputs[c.targetPort].Connection == c {
			b.inputs[c.targetPort].Connection = nil
		}
		b.connections = append(b.connections[:i], b.connections[i+1:]...)
		return true
	}
	return false
}

// RemoveConnectionByPorts removes the connection matching the (source, sourcePort, targetPort) triple.
func (b *NodeBase) RemoveConnectionByPorts(source NodeHandle, sourcePort, targetPort int) bool {
	if c := b.FindConnectionByPorts(source, sourcePort, targetPort); c != nil {
		return b.RemoveConnection(c)
	}
	return false
}

// RemoveConnectionByID removes the connection with the given id.
func (b *NodeBase) RemoveConnectionByID(id uint32) bool {
	for _, c := range b.connections {
		if c.id == id {
			return b.RemoveConnection(c)
		}
	}
	return false
}

// RemoveConnectionsUsingNode removes every connection whose source is h.
//
// Returns:
//   - int: the number of removed connections
func (b *NodeBase) RemoveConnectionsUsingNode(h NodeHandle) int {
	removed := 0
	for i := 0; i < len(b.connections); {
		if c := b.connections[i]; c.source == h {
			b.RemoveConnection(c)
			removed++
			continue
		}
		i++
	}
	return removed
}

// FindConnection returns the connection plugged into targetPort, or nil.
func (b *NodeBase) FindConnection(targetPort int) *Connection {
	if targetPort < 0 || targetPort >= len(b.inputs) {
		return nil
	}
	return b.inputs[targetPort].Connection
}

// FindConnectionByPorts returns the connection matching the (source, sourcePort, targetPort) triple, or nil.
func (b *NodeBase) FindConnectionByPorts(source NodeHandle, sourcePort, targetPort int) *Connection {
	for _, c := range b.connections {
		if c.source == source && int(c.sourcePort) == sourcePort && int(c.targetPort) == targetPort {
			return c
		}
	}
	return nil
}

// Connections returns the connections feeding this node, in creation order.
func (b *NodeBase) Connections() []*Connection { return b.connections }

// HasConnectionAtInputPort reports whether targetPort has an incoming connection.
func (b *NodeBase) HasConnectionAtInputPort(targetPort int) bool {
	return b.FindConnection(targetPort) != nil
}

// InputNode returns the node feeding targetPort, or nil when unconnected or stale.
func (b *NodeBase) InputNode(targetPort int) Node {
	c := b.FindConnection(targetPort)
	if c == nil || b.graph == nil {
		return nil
	}
	return b.graph.Node(c.source)
}

// CreateUniqueData returns no payload.
func (b *NodeBase) CreateUniqueData(*GraphInstance) any { return nil }

// RegisterPorts declares no ports.
func (b *NodeBase) RegisterPorts() {}

// Update updates every incoming node, then takes its timing from the pose input at port 0,
// or else from the first connection's source when that produces a pose.
func (b *NodeBase) Update(inst *GraphInstance, dt float32) {
	for _, c := range b.connections {
		inst.UpdateIncomingNode(inst.graph.Node(c.source), dt)
	}
	data := inst.dataFor(b.handle)
	if data == nil || len(b.connections) == 0 {
		return
	}
	if src := b.InputNode(0); src != nil && src.HasOutputPose() {
		data.Init(inst.UniqueData(src))
		return
	}
	if src := inst.graph.Node(b.connections[0].source); src != nil && src.HasOutputPose() {
		data.Init(inst.UniqueData(src))
	}
}

// TopDownUpdate syncs every input to this node, then runs their top-down update.
func (b *NodeBase) TopDownUpdate(inst *GraphInstance, dt float32) {
	inst.HierarchicalSyncAllInputNodes(inst.graph.Node(b.handle))
	for _, c := range b.connections {
		inst.TopDownUpdateIncomingNode(inst.graph.Node(c.source), dt)
	}
}

// Output outputs every incoming node.
func (b *NodeBase) Output(inst *GraphInstance) {
	for _, c := range b.connections {
		inst.OutputIncomingNode(inst.graph.Node(c.source))
	}
}

// PostUpdate post-updates every incoming node, then copies events and the trajectory delta
// from the pose input with the lowest port index, or from the first connection.
func (b *NodeBase) PostUpdate(inst *GraphInstance, dt float32) {
	for _, c := range b.connections {
		inst.PostUpdateIncomingNode(inst.graph.Node(c.source), dt)
	}
	rd := inst.RequestRefDatas(b.handle)
	if rd == nil {
		return
	}

	var from Node
	for i := range b.inputs {
		if b.inputs[i].PrimaryType() != TypePose {
			continue
		}
		if src := b.InputNode(i); src != nil {
			from = src
			break
		}
	}
	if from == nil && len(b.connections) > 0 {
		if src := inst.graph.Node(b.connections[0].source); src != nil && src.HasOutputPose() {
			from = src
		}
	}
	if from == nil {
		rd.Clear()
		return
	}
	if srcRD := inst.RefDataOf(from); srcRD != nil {
		rd.CopyFrom(srcRD)
	} else {
		rd.Clear()
	}
}

// Rewind rewinds every incoming node, then resets the node's normalized play time to 0.
func (b *NodeBase) Rewind(inst *GraphInstance) {
	for _, c := range b.connections {
		if src := inst.graph.Node(c.source); src != nil {
			src.Rewind(inst)
		}
	}
	if n := inst.graph.Node(b.handle); n != nil {
		inst.SetCurrentPlayTimeNormalized(n, 0)
	}
}

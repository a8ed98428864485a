package animgraph

// Connection is a directed edge from a source node's output port to an input port
// of the node that owns the connection. It references its source by handle.
type Connection struct {
	id         uint32
	source     NodeHandle
	sourcePort uint16
	targetPort uint16
}

// ID returns the graph-unique connection id.
func (c *Connection) ID() uint32 { return c.id }

// Source returns the handle of the node feeding this connection.
func (c *Connection) Source() NodeHandle { return c.source }

// SourcePort returns the output port index on the source node.
func (c *Connection) SourcePort() uint16 { return c.sourcePort }

// TargetPort returns the input port index on the owning node.
func (c *Connection) TargetPort() uint16 { return c.targetPort }

// IsValid reports whether the source node is still alive in g and the source port exists.
//
// Parameters:
//   - g: the graph the connection belongs to
//
// Returns:
//   - bool: whether the connection can be evaluated
func (c *Connection) IsValid(g *Graph) bool {
	src := g.Node(c.source)
	if src == nil {
		return false
	}
	return int(c.sourcePort) < src.Base().NumOutputs()
}

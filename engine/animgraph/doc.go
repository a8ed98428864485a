// Package animgraph evaluates animation graphs: networks of nodes connected
// through typed ports that together produce a skeletal pose every tick.
//
// A Graph is authored once and shared. Each animated actor binds the graph
// through its own GraphInstance, which owns the per-node runtime state
// (NodeData), the parameter values and the pooled pose buffers.
//
// Every tick runs four passes over the nodes reachable from the root:
//
//	Update         advance time, weights and sync bookkeeping
//	TopDownUpdate  push play speed, weights and sync targets to inputs
//	Output         produce poses and values into output ports
//	PostUpdate     produce events and the motion-extraction delta
//
// Each pass is dependency-ordered and lazy: a node pulls only the inputs it
// needs this tick, and per-instance ready flags make every node run once
// per pass even when it is shared by several consumers.
//
// Pose and per-tick event buffers come from per-instance pools. A node's
// pose reference count is raised once per consumer in the Update pass and
// lowered as each consumer finishes its Output; at zero the buffers go back
// to the pool. Handles are generation-guarded, so a released buffer can never
// be read by mistake, and whatever is still held when the tick ends is swept
// back to the pools.
package animgraph

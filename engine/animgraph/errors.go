package animgraph

import "errors"

var (
	// ErrUnknownNodeType is returned when a node type name is not registered.
	ErrUnknownNodeType = errors.New("animgraph: unknown node type")

	// ErrDuplicateNodeType is returned when a node type name is registered twice.
	ErrDuplicateNodeType = errors.New("animgraph: duplicate node type")

	// ErrDuplicateName is returned when a node or parameter name is already in use.
	ErrDuplicateName = errors.New("animgraph: duplicate name")

	// ErrStaleHandle is returned when a node handle refers to a removed node.
	ErrStaleHandle = errors.New("animgraph: stale node handle")

	// ErrNodeNotFound is returned when a node name does not resolve.
	ErrNodeNotFound = errors.New("animgraph: node not found")

	// ErrPortOutOfRange is returned when a port index or name does not exist on a node.
	ErrPortOutOfRange = errors.New("animgraph: port out of range")

	// ErrIncompatiblePorts is returned when an output port cannot feed an input port.
	ErrIncompatiblePorts = errors.New("animgraph: incompatible ports")

	// ErrUnknownParameter is returned when a parameter name is not declared.
	ErrUnknownParameter = errors.New("animgraph: unknown parameter")

	// ErrParameterType is returned when a parameter is set with a value of the wrong type.
	ErrParameterType = errors.New("animgraph: parameter type mismatch")

	// ErrUnsupportedVersion is returned when a graph document has an unknown version.
	ErrUnsupportedVersion = errors.New("animgraph: unsupported document version")

	// ErrInvalidGraph is returned when a graph fails structural validation.
	ErrInvalidGraph = errors.New("animgraph: invalid graph")

	// ErrUnknownCondition is returned when a condition type name is not registered.
	ErrUnknownCondition = errors.New("animgraph: unknown condition type")
)

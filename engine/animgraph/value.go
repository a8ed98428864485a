package animgraph

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/pose"
)

// TypeID tags the kind of value a port carries. TypeNone terminates compatibility lists.
type TypeID uint32

const (
	TypeNone TypeID = iota
	TypeFloat
	TypeInt
	TypeBool
	TypeVector2
	TypeVector3
	TypePose
	TypeMotionInstance
)

var typeNames = [...]string{
	TypeNone:           "none",
	TypeFloat:          "float",
	TypeInt:            "int",
	TypeBool:           "bool",
	TypeVector2:        "vector2",
	TypeVector3:        "vector3",
	TypePose:           "pose",
	TypeMotionInstance: "motion_instance",
}

// String returns the lower-case type name.
func (t TypeID) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// PoseHandle addresses a pooled pose owned by a GraphInstance.
type PoseHandle = common.Handle[*pose.Pose]

// RefDataHandle addresses a pooled RefData owned by a GraphInstance.
type RefDataHandle = common.Handle[*RefData]

// Value is the content of an output port for one graph instance.
// Numbers (float, int, bool) share Number; bools are stored as 0 or 1.
type Value struct {
	Type   TypeID
	Number float32
	Vector [3]float32
	Pose   PoseHandle
}

// FloatValue creates a float value.
func FloatValue(f float32) Value {
	return Value{Type: TypeFloat, Number: f}
}

// IntValue creates an int value.
func IntValue(i int) Value {
	return Value{Type: TypeInt, Number: float32(i)}
}

// BoolValue creates a bool value.
func BoolValue(b bool) Value {
	v := Value{Type: TypeBool}
	if b {
		v.Number = 1
	}
	return v
}

// Vector2Value creates a 2D vector value.
func Vector2Value(x, y float32) Value {
	return Value{Type: TypeVector2, Vector: [3]float32{x, y, 0}}
}

// AsFloat converts numeric values to float32. Vectors convert to their length.
func (v Value) AsFloat() float32 {
	switch v.Type {
	case TypeFloat, TypeInt, TypeBool:
		return v.Number
	case TypeVector2:
		return float32(math.Hypot(float64(v.Vector[0]), float64(v.Vector[1])))
	case TypeVector3:
		x, y, z := float64(v.Vector[0]), float64(v.Vector[1]), float64(v.Vector[2])
		return float32(math.Sqrt(x*x + y*y + z*z))
	default:
		return 0
	}
}

// AsInt converts the value to an int by truncation.
func (v Value) AsInt() int {
	return int(v.AsFloat())
}

// AsBool reports whether the numeric value is non-zero.
func (v Value) AsBool() bool {
	return common.Abs(v.AsFloat()) > common.Epsilon
}

// AsVector2 returns the x and y components. Numbers are broadcast to x.
func (v Value) AsVector2() [2]float32 {
	switch v.Type {
	case TypeVector2, TypeVector3:
		return [2]float32{v.Vector[0], v.Vector[1]}
	case TypeFloat, TypeInt, TypeBool:
		return [2]float32{v.Number, 0}
	default:
		return [2]float32{}
	}
}

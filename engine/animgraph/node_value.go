package animgraph

import (
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// ParameterNode exposes graph parameters as output values, one output per parameter.
// With no parameter list every parameter declared when the node is added is exposed.
type ParameterNode struct {
	NodeBase `yaml:"-"`

	Parameters []string `yaml:"parameters,omitempty"`

	exposed []string
}

// NewParameterNode creates a node exposing the named parameters.
func NewParameterNode(parameters ...string) *ParameterNode {
	return &ParameterNode{Parameters: parameters}
}

// TypeName returns "parameter".
func (n *ParameterNode) TypeName() string { return "parameter" }

// RegisterPorts declares one output per exposed parameter, typed like the parameter.
// Names that are not declared in the graph are skipped.
func (n *ParameterNode) RegisterPorts() {
	n.exposed = n.exposed[:0]
	if n.graph == nil {
		return
	}
	defs := n.graph.Parameters()
	types := make([]TypeID, 0, len(defs))
	if len(n.Parameters) == 0 {
		for _, def := range defs {
			n.exposed = append(n.exposed, def.Name)
			types = append(types, def.Type)
		}
	} else {
		for _, name := range n.Parameters {
			i, ok := n.graph.FindParameter(name)
			if !ok {
				continue
			}
			n.exposed = append(n.exposed, name)
			types = append(types, defs[i].Type)
		}
	}
	n.InitOutputPorts(len(n.exposed))
	for i, name := range n.exposed {
		n.SetupOutputPort(name, i, types[i], uint32(i))
	}
}

// Update has no inputs to update.
func (n *ParameterNode) Update(*GraphInstance, float32) {}

// Output copies the current parameter values.
func (n *ParameterNode) Output(inst *GraphInstance) {
	for i, name := range n.exposed {
		if v, ok := inst.Parameter(name); ok {
			inst.SetOutputValue(n, i, v)
		}
	}
}

// FloatConstantNode outputs a fixed value.
type FloatConstantNode struct {
	NodeBase `yaml:"-"`

	Value float32 `yaml:"value"`
}

// NewFloatConstantNode creates a constant node.
func NewFloatConstantNode(v float32) *FloatConstantNode { return &FloatConstantNode{Value: v} }

// TypeName returns "float_constant".
func (n *FloatConstantNode) TypeName() string { return "float_constant" }

// RegisterPorts declares the result output.
func (n *FloatConstantNode) RegisterPorts() {
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// Output writes the constant.
func (n *FloatConstantNode) Output(inst *GraphInstance) {
	inst.SetOutputValue(n, 0, FloatValue(n.Value))
}

// Math1Op is a single-operand float operation.
type Math1Op int

const (
	Math1Sin Math1Op = iota
	Math1Cos
	Math1Tan
	Math1Sqr
	Math1Sqrt
	Math1Abs
	Math1Floor
	Math1Ceil
	Math1OneMinus
	Math1Invert
	Math1Log
	Math1Log2
	Math1Ln
	Math1Exp
	Math1Fraction
	Math1Sign
	Math1Round
	Math1Degrees
	Math1Radians
	Math1RandomFloat
)

var math1OpNames = []string{
	"sin", "cos", "tan", "sqr", "sqrt", "abs", "floor", "ceil", "one_minus", "invert",
	"log", "log2", "ln", "exp", "fraction", "sign", "round", "degrees", "radians", "random_float",
}

func (o Math1Op) String() string { return enumString(math1OpNames, int(o)) }

// MarshalText implements encoding.TextMarshaler.
func (o Math1Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Math1Op) UnmarshalText(b []byte) error {
	i, err := parseEnum(math1OpNames, "math1 operation", b)
	*o = Math1Op(i)
	return err
}

// Apply evaluates the operation. Square root, logarithms and the inverse of values outside
// their domain return 0. RandomFloat returns a value in [0, x).
func (o Math1Op) Apply(x float32, rng *rand.Rand) float32 {
	f := float64(x)
	switch o {
	case Math1Sin:
		return float32(math.Sin(f))
	case Math1Cos:
		return float32(math.Cos(f))
	case Math1Tan:
		return float32(math.Tan(f))
	case Math1Sqr:
		return x * x
	case Math1Sqrt:
		if x <= 0 {
			return 0
		}
		return float32(math.Sqrt(f))
	case Math1Abs:
		return common.Abs(x)
	case Math1Floor:
		return float32(math.Floor(f))
	case Math1Ceil:
		return float32(math.Ceil(f))
	case Math1OneMinus:
		return 1 - x
	case Math1Invert:
		return common.SafeDiv(1, x, 0)
	case Math1Log:
		if x <= common.Epsilon {
			return 0
		}
		return float32(math.Log10(f))
	case Math1Log2:
		if x <= common.Epsilon {
			return 0
		}
		return float32(math.Log2(f))
	case Math1Ln:
		if x <= common.Epsilon {
			return 0
		}
		return float32(math.Log(f))
	case Math1Exp:
		return float32(math.Exp(f))
	case Math1Fraction:
		return x - float32(math.Trunc(f))
	case Math1Sign:
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	case Math1Round:
		return float32(math.Round(f))
	case Math1Degrees:
		return x * (180 / math.Pi)
	case Math1Radians:
		return x * (math.Pi / 180)
	case Math1RandomFloat:
		if rng == nil {
			return 0
		}
		return rng.Float32() * x
	}
	return 0
}

// FloatMath1Node applies a Math1Op to its input. An unconnected input reads as 0.
type FloatMath1Node struct {
	NodeBase `yaml:"-"`

	Operation Math1Op `yaml:"operation"`
}

// NewFloatMath1Node creates a single-operand math node.
func NewFloatMath1Node(op Math1Op) *FloatMath1Node { return &FloatMath1Node{Operation: op} }

// TypeName returns "float_math1".
func (n *FloatMath1Node) TypeName() string { return "float_math1" }

// RegisterPorts declares the x input and the result output.
func (n *FloatMath1Node) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// Output computes the result.
func (n *FloatMath1Node) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	x := inst.InputFloat(n, 0, 0)
	inst.SetOutputValue(n, 0, FloatValue(n.Operation.Apply(x, inst.Rand())))
}

// Math2Op is a two-operand float operation.
type Math2Op int

const (
	Math2Add Math2Op = iota
	Math2Subtract
	Math2Multiply
	Math2Divide
	Math2Average
	Math2RandomFloat
	Math2Mod
	Math2Min
	Math2Max
	Math2Power
)

var math2OpNames = []string{
	"add", "subtract", "multiply", "divide", "average", "random_float", "mod", "min", "max", "power",
}

func (o Math2Op) String() string { return enumString(math2OpNames, int(o)) }

// MarshalText implements encoding.TextMarshaler.
func (o Math2Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Math2Op) UnmarshalText(b []byte) error {
	i, err := parseEnum(math2OpNames, "math2 operation", b)
	*o = Math2Op(i)
	return err
}

// Apply evaluates the operation. Divide and mod by zero return 0. RandomFloat returns a
// value between x and y.
func (o Math2Op) Apply(x, y float32, rng *rand.Rand) float32 {
	switch o {
	case Math2Add:
		return x + y
	case Math2Subtract:
		return x - y
	case Math2Multiply:
		return x * y
	case Math2Divide:
		return common.SafeDiv(x, y, 0)
	case Math2Average:
		return (x + y) * 0.5
	case Math2RandomFloat:
		if rng == nil {
			return x
		}
		return common.Lerp(x, y, rng.Float32())
	case Math2Mod:
		return common.SafeFMod(x, y)
	case Math2Min:
		return min(x, y)
	case Math2Max:
		return max(x, y)
	case Math2Power:
		r := math.Pow(float64(x), float64(y))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0
		}
		return float32(r)
	}
	return 0
}

// FloatMath2Node applies a Math2Op to x and y. An unconnected side reads its own static
// value, DefaultValueX or DefaultValueY.
type FloatMath2Node struct {
	NodeBase `yaml:"-"`

	Operation     Math2Op `yaml:"operation"`
	DefaultValueX float32 `yaml:"default_x"`
	DefaultValueY float32 `yaml:"default_y"`
}

// NewFloatMath2Node creates a two-operand math node.
func NewFloatMath2Node(op Math2Op) *FloatMath2Node { return &FloatMath2Node{Operation: op} }

// TypeName returns "float_math2".
func (n *FloatMath2Node) TypeName() string { return "float_math2" }

// RegisterPorts declares the x and y inputs and the result output.
func (n *FloatMath2Node) RegisterPorts() {
	n.InitInputPorts(2)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.SetupInputPortAsNumber("y", 1, 1)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// Output computes the result.
func (n *FloatMath2Node) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	x := inst.InputFloat(n, 0, n.DefaultValueX)
	y := inst.InputFloat(n, 1, n.DefaultValueY)
	inst.SetOutputValue(n, 0, FloatValue(n.Operation.Apply(x, y, inst.Rand())))
}

// CompareFunc is a float comparison.
type CompareFunc int

const (
	CompareEqual CompareFunc = iota
	CompareNotEqual
	CompareLess
	CompareGreater
	CompareLessEqual
	CompareGreaterEqual
	CompareInRange
	CompareNotInRange
)

var compareFuncNames = []string{"==", "!=", "<", ">", "<=", ">=", "in_range", "not_in_range"}

func (f CompareFunc) String() string { return enumString(compareFuncNames, int(f)) }

// MarshalText implements encoding.TextMarshaler.
func (f CompareFunc) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *CompareFunc) UnmarshalText(b []byte) error {
	i, err := parseEnum(compareFuncNames, "compare function", b)
	*f = CompareFunc(i)
	return err
}

// Test compares x against y. The range variants test x against [y, rangeMax] in either order.
func (f CompareFunc) Test(x, y, rangeMax float32) bool {
	switch f {
	case CompareEqual:
		return common.IsClose(x, y, common.Epsilon)
	case CompareNotEqual:
		return !common.IsClose(x, y, common.Epsilon)
	case CompareLess:
		return x < y
	case CompareGreater:
		return x > y
	case CompareLessEqual:
		return x <= y
	case CompareGreaterEqual:
		return x >= y
	case CompareInRange, CompareNotInRange:
		lo, hi := min(y, rangeMax), max(y, rangeMax)
		in := x >= lo && x <= hi
		return in == (f == CompareInRange)
	}
	return false
}

// ReturnMode selects what a condition node outputs for a result.
type ReturnMode int

const (
	// ReturnValue outputs the configured result value.
	ReturnValue ReturnMode = iota
	// ReturnX outputs the x input.
	ReturnX
	// ReturnY outputs the y input.
	ReturnY
)

var returnModeNames = []string{"value", "x", "y"}

func (m ReturnMode) String() string { return enumString(returnModeNames, int(m)) }

// MarshalText implements encoding.TextMarshaler.
func (m ReturnMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ReturnMode) UnmarshalText(b []byte) error {
	i, err := parseEnum(returnModeNames, "return mode", b)
	*m = ReturnMode(i)
	return err
}

func (m ReturnMode) pick(value, x, y float32) float32 {
	switch m {
	case ReturnX:
		return x
	case ReturnY:
		return y
	}
	return value
}

// FloatConditionNode compares x with y and outputs a float chosen by the result and a bool.
// An unconnected y reads DefaultValue.
type FloatConditionNode struct {
	NodeBase `yaml:"-"`

	Function        CompareFunc `yaml:"function"`
	DefaultValue    float32     `yaml:"default_value"`
	RangeMax        float32     `yaml:"range_max"`
	TrueResult      float32     `yaml:"true_result"`
	FalseResult     float32     `yaml:"false_result"`
	TrueReturnMode  ReturnMode  `yaml:"true_return"`
	FalseReturnMode ReturnMode  `yaml:"false_return"`
}

// NewFloatConditionNode creates a condition node outputting 1 for true and 0 for false.
func NewFloatConditionNode(f CompareFunc) *FloatConditionNode {
	return &FloatConditionNode{Function: f, TrueResult: 1}
}

// TypeName returns "float_condition".
func (n *FloatConditionNode) TypeName() string { return "float_condition" }

// RegisterPorts declares x, y and the float and bool outputs.
func (n *FloatConditionNode) RegisterPorts() {
	n.InitInputPorts(2)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.SetupInputPortAsNumber("y", 1, 1)
	n.InitOutputPorts(2)
	n.SetupOutputPort("Float", 0, TypeFloat, 0)
	n.SetupOutputPort("Bool", 1, TypeBool, 1)
}

// Output evaluates the comparison.
func (n *FloatConditionNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	x := inst.InputFloat(n, 0, 0)
	y := inst.InputFloat(n, 1, n.DefaultValue)
	ok := n.Function.Test(x, y, n.RangeMax)
	result := n.FalseReturnMode.pick(n.FalseResult, x, y)
	if ok {
		result = n.TrueReturnMode.pick(n.TrueResult, x, y)
	}
	inst.SetOutputValue(n, 0, FloatValue(result))
	inst.SetOutputValue(n, 1, BoolValue(ok))
}

// BoolLogicFunc is a boolean operation.
type BoolLogicFunc int

const (
	LogicAnd BoolLogicFunc = iota
	LogicOr
	LogicXor
	LogicNand
	LogicNor
	LogicXnor
	LogicNotX
	LogicNotY
)

var boolLogicNames = []string{"and", "or", "xor", "nand", "nor", "xnor", "not_x", "not_y"}

func (f BoolLogicFunc) String() string { return enumString(boolLogicNames, int(f)) }

// MarshalText implements encoding.TextMarshaler.
func (f BoolLogicFunc) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *BoolLogicFunc) UnmarshalText(b []byte) error {
	i, err := parseEnum(boolLogicNames, "logic function", b)
	*f = BoolLogicFunc(i)
	return err
}

// Apply evaluates the operation.
func (f BoolLogicFunc) Apply(x, y bool) bool {
	switch f {
	case LogicAnd:
		return x && y
	case LogicOr:
		return x || y
	case LogicXor:
		return x != y
	case LogicNand:
		return !(x && y)
	case LogicNor:
		return !(x || y)
	case LogicXnor:
		return x == y
	case LogicNotX:
		return !x
	case LogicNotY:
		return !y
	}
	return false
}

// BoolLogicNode combines two booleans. An unconnected side reads its own static value.
// The Float output carries TrueResult or FalseResult; the Bool output carries 1 or 0.
type BoolLogicNode struct {
	NodeBase `yaml:"-"`

	Function      BoolLogicFunc `yaml:"function"`
	DefaultValueX bool          `yaml:"default_x"`
	DefaultValueY bool          `yaml:"default_y"`
	TrueResult    float32       `yaml:"true_result"`
	FalseResult   float32       `yaml:"false_result"`
}

// NewBoolLogicNode creates a logic node with results 1 and 0.
func NewBoolLogicNode(f BoolLogicFunc) *BoolLogicNode {
	return &BoolLogicNode{Function: f, TrueResult: 1}
}

// TypeName returns "bool_logic".
func (n *BoolLogicNode) TypeName() string { return "bool_logic" }

// RegisterPorts declares x, y and the float and bool outputs.
func (n *BoolLogicNode) RegisterPorts() {
	n.InitInputPorts(2)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.SetupInputPortAsNumber("y", 1, 1)
	n.InitOutputPorts(2)
	n.SetupOutputPort("Float", 0, TypeFloat, 0)
	n.SetupOutputPort("Bool", 1, TypeBool, 1)
}

// Output evaluates the operation.
func (n *BoolLogicNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	x := inst.InputBool(n, 0, n.DefaultValueX)
	y := inst.InputBool(n, 1, n.DefaultValueY)
	ok := n.Function.Apply(x, y)
	result := n.FalseResult
	if ok {
		result = n.TrueResult
	}
	inst.SetOutputValue(n, 0, FloatValue(result))
	inst.SetOutputValue(n, 1, BoolValue(ok))
}

const floatSwitchCases = 5

// FloatSwitchNode outputs one of five values chosen by the decision input. An
// unconnected case reads its static value.
type FloatSwitchNode struct {
	NodeBase `yaml:"-"`

	Values [floatSwitchCases]float32 `yaml:"values,flow"`
}

// NewFloatSwitchNode creates a float switch.
func NewFloatSwitchNode() *FloatSwitchNode { return &FloatSwitchNode{} }

// TypeName returns "float_switch".
func (n *FloatSwitchNode) TypeName() string { return "float_switch" }

// RegisterPorts declares five value inputs, the decision input and the result output.
func (n *FloatSwitchNode) RegisterPorts() {
	n.InitInputPorts(floatSwitchCases + 1)
	for i := 0; i < floatSwitchCases; i++ {
		n.SetupInputPortAsNumber(string(rune('0'+i)), i, uint32(i))
	}
	n.SetupInputPortAsNumber("Decision", floatSwitchCases, floatSwitchCases)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// Update updates the decision and only the selected case.
func (n *FloatSwitchNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, floatSwitchCases, dt)
	inst.UpdateInput(n, n.decision(inst), dt)
}

func (n *FloatSwitchNode) decision(inst *GraphInstance) int {
	d := int(inst.InputFloat(n, floatSwitchCases, 0))
	return max(0, min(d, floatSwitchCases-1))
}

// Output forwards the selected case.
func (n *FloatSwitchNode) Output(inst *GraphInstance) {
	d := n.decision(inst)
	inst.OutputInput(n, d)
	inst.SetOutputValue(n, 0, FloatValue(inst.InputFloat(n, d, n.Values[d])))
}

// RangeRemapperNode maps x from the input range onto the output range.
type RangeRemapperNode struct {
	NodeBase `yaml:"-"`

	InputMin  float32 `yaml:"input_min"`
	InputMax  float32 `yaml:"input_max"`
	OutputMin float32 `yaml:"output_min"`
	OutputMax float32 `yaml:"output_max"`
	Clamp     bool    `yaml:"clamp"`
}

// NewRangeRemapperNode creates a clamping remapper from [0, 1] to [0, 1].
func NewRangeRemapperNode() *RangeRemapperNode {
	return &RangeRemapperNode{InputMax: 1, OutputMax: 1, Clamp: true}
}

// TypeName returns "range_remapper".
func (n *RangeRemapperNode) TypeName() string { return "range_remapper" }

// RegisterPorts declares the x input and the result output.
func (n *RangeRemapperNode) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// Remap applies the mapping. An empty input range maps to OutputMin.
func (n *RangeRemapperNode) Remap(x float32) float32 {
	span := n.InputMax - n.InputMin
	if common.Abs(span) < common.Epsilon {
		return n.OutputMin
	}
	t := (x - n.InputMin) / span
	if n.Clamp {
		t = common.Clamp(t, 0, 1)
	}
	return common.Lerp(n.OutputMin, n.OutputMax, t)
}

// Output computes the result.
func (n *RangeRemapperNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	inst.SetOutputValue(n, 0, FloatValue(n.Remap(inst.InputFloat(n, 0, 0))))
}

// SmoothingNode eases its output towards the destination input. Speed is the fraction of
// the remaining distance covered per second.
type SmoothingNode struct {
	NodeBase `yaml:"-"`

	Speed         float32 `yaml:"speed"`
	UseStartValue bool    `yaml:"use_start_value"`
	StartValue    float32 `yaml:"start_value"`
}

type smoothingData struct {
	current     float32
	initialized bool
}

// NewSmoothingNode creates a smoothing node.
func NewSmoothingNode(speed float32) *SmoothingNode { return &SmoothingNode{Speed: speed} }

// TypeName returns "smoothing".
func (n *SmoothingNode) TypeName() string { return "smoothing" }

// RegisterPorts declares the destination input and the result output.
func (n *SmoothingNode) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPortAsNumber("Dest", 0, 0)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Result", 0, TypeFloat, 0)
}

// CreateUniqueData returns the smoothed value state.
func (n *SmoothingNode) CreateUniqueData(*GraphInstance) any { return &smoothingData{} }

// Update moves the current value towards the destination.
func (n *SmoothingNode) Update(inst *GraphInstance, dt float32) {
	inst.UpdateInputValue(n, 0, dt)
	p := payloadOf[*smoothingData](inst, n)
	if p == nil {
		return
	}
	dest := inst.InputFloat(n, 0, 0)
	if !p.initialized {
		p.current = dest
		if n.UseStartValue {
			p.current = n.StartValue
		}
		p.initialized = true
		return
	}
	p.current = common.Lerp(p.current, dest, common.Clamp(n.Speed*dt, 0, 1))
}

// Output writes the current value.
func (n *SmoothingNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	if p := payloadOf[*smoothingData](inst, n); p != nil {
		inst.SetOutputValue(n, 0, FloatValue(p.current))
	}
}

// Rewind restarts from the start value.
func (n *SmoothingNode) Rewind(inst *GraphInstance) {
	n.NodeBase.Rewind(inst)
	if p := payloadOf[*smoothingData](inst, n); p != nil {
		p.initialized = false
	}
}

// Vector2ComposeNode builds a 2D vector from x and y.
type Vector2ComposeNode struct {
	NodeBase `yaml:"-"`
}

// NewVector2ComposeNode creates a compose node.
func NewVector2ComposeNode() *Vector2ComposeNode { return &Vector2ComposeNode{} }

// TypeName returns "vector2_compose".
func (n *Vector2ComposeNode) TypeName() string { return "vector2_compose" }

// RegisterPorts declares x, y and the vector output.
func (n *Vector2ComposeNode) RegisterPorts() {
	n.InitInputPorts(2)
	n.SetupInputPortAsNumber("x", 0, 0)
	n.SetupInputPortAsNumber("y", 1, 1)
	n.InitOutputPorts(1)
	n.SetupOutputPort("Vector", 0, TypeVector2, 0)
}

// Output builds the vector.
func (n *Vector2ComposeNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	inst.SetOutputValue(n, 0, Vector2Value(inst.InputFloat(n, 0, 0), inst.InputFloat(n, 1, 0)))
}

// Vector2DecomposeNode splits a 2D vector into x and y.
type Vector2DecomposeNode struct {
	NodeBase `yaml:"-"`
}

// NewVector2DecomposeNode creates a decompose node.
func NewVector2DecomposeNode() *Vector2DecomposeNode { return &Vector2DecomposeNode{} }

// TypeName returns "vector2_decompose".
func (n *Vector2DecomposeNode) TypeName() string { return "vector2_decompose" }

// RegisterPorts declares the vector input and the x and y outputs.
func (n *Vector2DecomposeNode) RegisterPorts() {
	n.InitInputPorts(1)
	n.SetupInputPort("Vector", 0, TypeVector2, 0)
	n.InitOutputPorts(2)
	n.SetupOutputPort("x", 0, TypeFloat, 0)
	n.SetupOutputPort("y", 1, TypeFloat, 1)
}

// Output splits the vector.
func (n *Vector2DecomposeNode) Output(inst *GraphInstance) {
	inst.OutputAllInputs(n)
	v := inst.InputVector2(n, 0, [2]float32{})
	inst.SetOutputValue(n, 0, FloatValue(v[0]))
	inst.SetOutputValue(n, 1, FloatValue(v[1]))
}

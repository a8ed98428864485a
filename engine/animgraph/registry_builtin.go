package animgraph

func attr(name, kind string, def any, description string) AttributeInfo {
	return AttributeInfo{Name: name, Kind: kind, Default: def, Description: description}
}

func enumAttr(name string, def any, options []string, description string) AttributeInfo {
	return AttributeInfo{Name: name, Kind: "enum", Default: def, Options: options, Description: description}
}

func registerBuiltinNodes(r *Registry) {
	syncAttr := enumAttr("sync", SyncDisabled.String(), syncModeNames[:], "how the inputs are synchronized")
	eventAttr := enumAttr("events", EventModeBoth.String(), eventModeNames[:], "which input's events are emitted")
	motionAttrs := []AttributeInfo{
		attr("loop", "bool", true, "wrap around at the end of the motion"),
		syncAttr,
		enumAttr("events", EventModeMostActive.String(), eventModeNames[:], "which motions' events are emitted"),
	}

	// sources
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "motion",
		Category:    CategorySources,
		Description: "plays a motion asset",
		Attributes: []AttributeInfo{
			attr("motion", "string", "", "motion asset id"),
			attr("loop", "bool", true, "wrap around at the end of the motion"),
			attr("play_speed", "float", float32(1), "speed used while the speed input is unconnected"),
			attr("reverse", "bool", false, "play backwards"),
			attr("mirror", "bool", false, "sample the mirrored pose"),
			attr("emit_events", "bool", true, "emit the motion's events"),
			attr("in_place", "bool", false, "discard root motion"),
			attr("freeze_at_last_frame", "bool", true, "hold the last frame when a non-looping motion ends"),
		},
		New: func() Node { return NewMotionNode("") },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "bind_pose",
		Category:    CategorySources,
		Description: "outputs the skeleton's bind pose",
		New:         func() Node { return NewBindPoseNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "blend_space_1d",
		Category:    CategorySources,
		Description: "blends motions placed on a line by the X input",
		Attributes:  append([]AttributeInfo{attr("motions", "motions", nil, "motions and their coordinates")}, motionAttrs...),
		New:         func() Node { return NewBlendSpace1DNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "blend_space_2d",
		Category:    CategorySources,
		Description: "blends motions placed on a plane by the X and Y inputs",
		Attributes:  append([]AttributeInfo{attr("motions", "motions", nil, "motions and their positions")}, motionAttrs...),
		New:         func() Node { return NewBlendSpace2DNode() },
	})

	// blending
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "blend_tree",
		Category:    CategoryBlending,
		Description: "container evaluating its final node",
		New:         func() Node { return NewBlendTreeNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "final",
		Category:    CategoryBlending,
		Description: "the output of a blend tree",
		New:         func() Node { return NewFinalNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "blend2",
		Category:    CategoryBlending,
		Description: "blends two poses by weight",
		Attributes: []AttributeInfo{
			syncAttr,
			eventAttr,
			attr("additive", "bool", false, "add B on top of A"),
		},
		New: func() Node { return NewBlend2Node() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "pose_switch",
		Category:    CategoryBlending,
		Description: "outputs one of ten poses picked by the decision input",
		New:         func() Node { return NewPoseSwitchNode() },
	})

	// states
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "state_machine",
		Category:    CategoryStates,
		Description: "plays one state at a time and cross-fades between them",
		Attributes: []AttributeInfo{
			attr("entry_state", "string", "", "name of the state entered first"),
			attr("always_start_in_entry_state", "bool", true, "restart in the entry state on rewind"),
		},
		New: func() Node { return NewStateMachineNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "entry",
		Category:    CategoryStates,
		Description: "passes through the state the enclosing machine is leaving",
		New:         func() Node { return NewEntryNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "exit",
		Category:    CategoryStates,
		Description: "terminal state; marks the machine as finished",
		New:         func() Node { return NewExitNode() },
	})

	// math
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "float_constant",
		Category:    CategoryMath,
		Description: "outputs a constant",
		Attributes:  []AttributeInfo{attr("value", "float", float32(0), "the constant")},
		New:         func() Node { return NewFloatConstantNode(0) },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "float_math1",
		Category:    CategoryMath,
		Description: "applies a unary function",
		Attributes:  []AttributeInfo{enumAttr("operation", Math1Sin.String(), math1OpNames, "the function")},
		New:         func() Node { return NewFloatMath1Node(Math1Sin) },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "float_math2",
		Category:    CategoryMath,
		Description: "applies a binary operation",
		Attributes: []AttributeInfo{
			enumAttr("operation", Math2Add.String(), math2OpNames, "the operation"),
			attr("default_x", "float", float32(0), "x while unconnected"),
			attr("default_y", "float", float32(0), "y while unconnected"),
		},
		New: func() Node { return NewFloatMath2Node(Math2Add) },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "range_remapper",
		Category:    CategoryMath,
		Description: "maps a value from one range to another",
		Attributes: []AttributeInfo{
			attr("input_min", "float", float32(0), ""),
			attr("input_max", "float", float32(1), ""),
			attr("output_min", "float", float32(0), ""),
			attr("output_max", "float", float32(1), ""),
			attr("clamp", "bool", true, "clamp the input to its range"),
		},
		New: func() Node { return NewRangeRemapperNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "smoothing",
		Category:    CategoryMath,
		Description: "follows its input at a limited rate",
		Attributes: []AttributeInfo{
			attr("speed", "float", float32(0.25), "fraction of the gap closed per second"),
			attr("use_start_value", "bool", false, "start from start_value instead of the input"),
			attr("start_value", "float", float32(0), ""),
		},
		New: func() Node { return NewSmoothingNode(0.25) },
	})

	// logic
	compareAttrs := []AttributeInfo{
		enumAttr("function", CompareEqual.String(), compareFuncNames, "the comparison"),
		attr("default_value", "float", float32(0), "y while unconnected"),
		attr("range_max", "float", float32(0), "upper bound for the range tests"),
		attr("true_result", "float", float32(1), ""),
		attr("false_result", "float", float32(0), ""),
		enumAttr("true_return", "value", returnModeNames, "what to output when true"),
		enumAttr("false_return", "value", returnModeNames, "what to output when false"),
	}
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "float_condition",
		Category:    CategoryLogic,
		Description: "compares two values",
		Attributes:  compareAttrs,
		New:         func() Node { return NewFloatConditionNode(CompareEqual) },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "bool_logic",
		Category:    CategoryLogic,
		Description: "combines two booleans",
		Attributes: []AttributeInfo{
			enumAttr("function", LogicAnd.String(), boolLogicNames, "the logic function"),
			attr("default_x", "bool", false, "x while unconnected"),
			attr("default_y", "bool", false, "y while unconnected"),
			attr("true_result", "float", float32(1), ""),
			attr("false_result", "float", float32(0), ""),
		},
		New: func() Node { return NewBoolLogicNode(LogicAnd) },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "float_switch",
		Category:    CategoryLogic,
		Description: "outputs one of five values picked by the decision input",
		Attributes:  []AttributeInfo{attr("values", "float[5]", nil, "values used while a case is unconnected")},
		New:         func() Node { return NewFloatSwitchNode() },
	})

	// misc
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "parameter",
		Category:    CategoryMisc,
		Description: "exposes graph parameters as outputs",
		Attributes:  []AttributeInfo{attr("parameters", "string[]", nil, "exposed parameter names; empty exposes all")},
		New:         func() Node { return NewParameterNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "vector2_compose",
		Category:    CategoryMisc,
		Description: "builds a vector from x and y",
		New:         func() Node { return NewVector2ComposeNode() },
	})
	mustRegisterNode(r, NodeTypeInfo{
		Name:        "vector2_decompose",
		Category:    CategoryMisc,
		Description: "splits a vector into x and y",
		New:         func() Node { return NewVector2DecomposeNode() },
	})
}

func registerBuiltinConditions(r *Registry) {
	compare := []AttributeInfo{
		enumAttr("function", CompareEqual.String(), compareFuncNames, "the comparison"),
		attr("test_value", "float", float32(0), ""),
		attr("range_value", "float", float32(0), "upper bound for the range tests"),
	}
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "parameter",
		Description: "compares a float parameter",
		Attributes:  append([]AttributeInfo{attr("parameter", "string", "", "parameter name")}, compare...),
		New:         func() Condition { return &ParameterCondition{} },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "vector2",
		Description: "compares the length or a component of a vector parameter",
		Attributes: append([]AttributeInfo{
			attr("parameter", "string", "", "parameter name"),
			enumAttr("operation", Vector2Length.String(), vector2OpNames, "what is compared"),
		}, compare...),
		New: func() Condition { return &Vector2Condition{} },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "time",
		Description: "holds once the source state was active long enough",
		Attributes: []AttributeInfo{
			attr("count_down_time", "float", float32(1), "seconds"),
			attr("use_randomization", "bool", false, "draw the count down from the random range"),
			attr("min_random_time", "float", float32(0), ""),
			attr("max_random_time", "float", float32(1), ""),
		},
		New: func() Condition { return NewTimeCondition(1) },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "play_time",
		Description: "tests the play time of a node",
		Attributes: []AttributeInfo{
			attr("node", "string", "", "node name"),
			enumAttr("mode", PlayTimeReachedTime.String(), playTimeModeNames, "what is tested"),
			attr("play_time", "float", float32(0), "seconds"),
		},
		New: func() Condition { return &PlayTimeCondition{} },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "motion",
		Description: "tests the motion instance of a motion node",
		Attributes: []AttributeInfo{
			attr("node", "string", "", "motion node name"),
			enumAttr("function", MotionTestHasEnded.String(), motionTestNames, "what is tested"),
			attr("event_type", "string", "", "event type for the event test"),
			attr("event_parameter", "string", "", "event parameter for the event test"),
			attr("num_loops", "int", 1, "loop count for the max loops test"),
			attr("play_time", "float", float32(0), "seconds"),
		},
		New: func() Condition { return &MotionCondition{Function: MotionTestHasEnded, NumLoops: 1} },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "state",
		Description: "tests the lifecycle of a state",
		Attributes: []AttributeInfo{
			attr("state", "string", "", "state name"),
			enumAttr("function", StateTestEnd.String(), stateTestNames, "what is tested"),
			attr("play_time", "float", float32(0), "seconds"),
		},
		New: func() Condition { return &StateCondition{Function: StateTestEnd} },
	})
	mustRegisterCondition(r, ConditionTypeInfo{
		Name:        "tag",
		Description: "tests which tags are active",
		Attributes: []AttributeInfo{
			enumAttr("function", "all", tagTestNames, "what is tested"),
			attr("tags", "string[]", nil, "tag names"),
		},
		New: func() Condition { return &TagCondition{} },
	})
}

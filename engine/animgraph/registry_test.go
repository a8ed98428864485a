package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCreatesEveryType(t *testing.T) {
	r := DefaultRegistry()
	assert.Same(t, r, DefaultRegistry())

	types := r.NodeTypes()
	require.Len(t, types, 22)
	for i := 1; i < len(types); i++ {
		prev, cur := types[i-1], types[i]
		assert.True(t, prev.Category < cur.Category || (prev.Category == cur.Category && prev.Name < cur.Name),
			"%s before %s", prev.Name, cur.Name)
	}
	for _, info := range types {
		n, err := r.NewNode(info.Name)
		require.NoError(t, err)
		assert.Equal(t, info.Name, n.TypeName())
	}

	conds := r.ConditionTypes()
	require.Len(t, conds, 7)
	for _, info := range conds {
		c, err := r.NewCondition(info.Name)
		require.NoError(t, err)
		assert.Equal(t, info.Name, c.TypeName())
	}

	info, ok := r.NodeType("motion")
	require.True(t, ok)
	assert.Equal(t, CategorySources, info.Category)
	assert.NotEmpty(t, info.Attributes)
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.NewNode("motion")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	_, err = r.NewCondition("time")
	assert.ErrorIs(t, err, ErrUnknownCondition)

	info := NodeTypeInfo{Name: "custom", Category: CategoryMisc, New: func() Node { return NewBindPoseNode() }}
	require.NoError(t, r.RegisterNodeType(info))
	assert.ErrorIs(t, r.RegisterNodeType(info), ErrDuplicateNodeType)
	assert.Error(t, r.RegisterNodeType(NodeTypeInfo{Name: "nameless factory"}))

	cond := ConditionTypeInfo{Name: "always", New: func() Condition { return &TagCondition{} }}
	require.NoError(t, r.RegisterConditionType(cond))
	assert.Error(t, r.RegisterConditionType(cond))
}

func TestStringIDPool(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, uint32(0), r.StringID(""))
	a := r.StringID("LeftFoot")
	assert.Equal(t, a, r.StringID("LeftFoot"))
	assert.NotEqual(t, a, r.StringID("RightFoot"))
	assert.Equal(t, "LeftFoot", r.StringFromID(a))
	assert.Equal(t, "", r.StringFromID(999))
}

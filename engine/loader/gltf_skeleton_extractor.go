package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor turns a glTF skin, or the whole node tree when the file has no
// skins, into a parent-first model.Skeleton.
type gltfSkeletonExtractor interface {
	// FindSkin picks the skin to import.
	//
	// Parameters:
	//   - name: the skin name to look for; empty selects the skin of the first skinned
	//     mesh node, falling back to skin 0
	//
	// Returns:
	//   - int: the skin index, or -1 when the document has no skins
	//   - error: when a named skin does not exist
	FindSkin(name string) (int, error)

	// ExtractSkeleton builds the skeleton of a skin. A negative index imports every node
	// of the document as a bone with an identity inverse bind matrix.
	//
	// Parameters:
	//   - skinIndex: the skin to extract, or -1
	//
	// Returns:
	//   - *model.Skeleton: the skeleton, bones ordered parents first
	//   - map[int]int32: glTF node index to bone index, for retargeting animation channels
	//   - error: on invalid joints or accessors
	ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a skeleton extractor over a parsed document.
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) FindSkin(name string) (int, error) {
	doc := e.parser.Document()
	if doc == nil {
		return -1, errNoDocument
	}

	if name != "" {
		for i, s := range doc.Skins {
			if s.Name == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("skin %q not found", name)
	}

	if len(doc.Skins) == 0 {
		return -1, nil
	}
	for _, n := range doc.Nodes {
		if n.Mesh != nil && n.Skin != nil && *n.Skin >= 0 && *n.Skin < len(doc.Skins) {
			return *n.Skin, nil
		}
	}
	return 0, nil
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, errNoDocument
	}
	if skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	var joints []int
	var inverseBind [][16]float32
	if skinIndex < 0 {
		joints = make([]int, len(doc.Nodes))
		for i := range joints {
			joints[i] = i
		}
	} else {
		skin := &doc.Skins[skinIndex]
		joints = skin.Joints
		if skin.InverseBindMatrices != nil {
			var err error
			if inverseBind, err = e.parser.ReadMat4Accessor(*skin.InverseBindMatrices); err != nil {
				return nil, nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
			}
		}
	}

	parentOf := gltfNodeParents(doc)
	jointBone := make(map[int]int, len(joints))
	for i, node := range joints {
		if node < 0 || node >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, node)
		}
		jointBone[node] = i
	}

	bones := make([]model.Bone, len(joints))
	used := make(map[string]int, len(joints))
	for i, node := range joints {
		n := &doc.Nodes[node]
		bones[i] = model.Bone{
			Name:           gltfUniqueName(n.Name, fmt.Sprintf("bone_%d", i), used),
			ParentIndex:    -1,
			LocalTransform: gltfExtractNodeTransform(n),
		}
		if i < len(inverseBind) {
			bones[i].InverseBindMatrix = inverseBind[i]
		} else {
			common.Identity(bones[i].InverseBindMatrix[:])
		}
		// A joint whose parent node is not a joint becomes a root.
		if parent, ok := jointBone[parentOf[node]]; ok {
			bones[i].ParentIndex = int32(parent)
		}
	}

	order := gltfParentFirstOrder(bones)
	sorted := make([]model.Bone, len(bones))
	newIndex := make([]int32, len(bones))
	for to, from := range order {
		newIndex[from] = int32(to)
	}
	for to, from := range order {
		b := bones[from]
		if b.ParentIndex >= 0 {
			b.ParentIndex = newIndex[b.ParentIndex]
		}
		sorted[to] = b
	}

	skel, err := model.NewSkeleton(sorted)
	if err != nil {
		return nil, nil, err
	}

	nodeToBone := make(map[int]int32, len(joints))
	for i, node := range joints {
		nodeToBone[node] = newIndex[i]
	}
	return skel, nodeToBone, nil
}

// gltfNodeParents returns the parent node index of every node, -1 for roots.
func gltfNodeParents(doc *gltfDocument) []int {
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(parents) {
				parents[c] = i
			}
		}
	}
	return parents
}

// gltfParentFirstOrder returns a breadth-first ordering of bones in which every parent
// precedes its children. Bones unreachable from a root (cycles) are appended as roots.
func gltfParentFirstOrder(bones []model.Bone) []int {
	children := make([][]int, len(bones))
	queue := make([]int, 0, len(bones))
	for i, b := range bones {
		if b.ParentIndex < 0 {
			queue = append(queue, i)
		} else {
			children[b.ParentIndex] = append(children[b.ParentIndex], i)
		}
	}

	visited := make([]bool, len(bones))
	order := make([]int, 0, len(bones))
	for len(order) < len(bones) {
		if len(queue) == 0 {
			for i := range bones {
				if !visited[i] {
					bones[i].ParentIndex = -1
					queue = append(queue, i)
					break
				}
			}
		}
		i := queue[0]
		queue = queue[1:]
		if visited[i] {
			continue
		}
		visited[i] = true
		order = append(order, i)
		queue = append(queue, children[i]...)
	}
	return order
}

// gltfUniqueName returns name (or fallback when empty), suffixed when already taken.
func gltfUniqueName(name, fallback string, used map[string]int) string {
	if name == "" {
		name = fallback
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n)
}

// gltfExtractNodeTransform returns the node's local TRS, decomposing a matrix when present.
func gltfExtractNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(*node.Matrix)
	}

	t := model.IdentityTransform()
	if node.Translation != nil {
		t.Translation = *node.Translation
	}
	if node.Rotation != nil {
		t.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		t.Scale = *node.Scale
	}
	return t
}

// gltfDecomposeMatrix splits a column-major matrix into TRS. Shear is discarded.
func gltfDecomposeMatrix(m [16]float32) model.Transform {
	length := func(x, y, z float32) float32 {
		return float32(math.Sqrt(float64(x*x + y*y + z*z)))
	}
	s := [3]float32{length(m[0], m[1], m[2]), length(m[4], m[5], m[6]), length(m[8], m[9], m[10])}

	div := s
	for i := range div {
		if div[i] < 1e-4 {
			div[i] = 1
		}
	}

	// Rows of the rotation block: r[row][col].
	r := [3][3]float32{
		{m[0] / div[0], m[4] / div[1], m[8] / div[2]},
		{m[1] / div[0], m[5] / div[1], m[9] / div[2]},
		{m[2] / div[0], m[6] / div[1], m[10] / div[2]},
	}

	return model.Transform{
		Translation: [3]float32{m[12], m[13], m[14]},
		Rotation:    gltfRotationToQuaternion(r),
		Scale:       s,
	}
}

// gltfRotationToQuaternion converts a rotation matrix to a unit quaternion (x, y, z, w).
func gltfRotationToQuaternion(r [3][3]float32) [4]float32 {
	sqrt := func(v float32) float32 { return float32(math.Sqrt(float64(v))) }

	var q [4]float32
	switch trace := r[0][0] + r[1][1] + r[2][2]; {
	case trace > 0:
		s := sqrt(trace+1) * 2
		q = [4]float32{(r[2][1] - r[1][2]) / s, (r[0][2] - r[2][0]) / s, (r[1][0] - r[0][1]) / s, 0.25 * s}
	case r[0][0] > r[1][1] && r[0][0] > r[2][2]:
		s := sqrt(1+r[0][0]-r[1][1]-r[2][2]) * 2
		q = [4]float32{0.25 * s, (r[0][1] + r[1][0]) / s, (r[0][2] + r[2][0]) / s, (r[2][1] - r[1][2]) / s}
	case r[1][1] > r[2][2]:
		s := sqrt(1+r[1][1]-r[0][0]-r[2][2]) * 2
		q = [4]float32{(r[0][1] + r[1][0]) / s, 0.25 * s, (r[1][2] + r[2][1]) / s, (r[0][2] - r[2][0]) / s}
	default:
		s := sqrt(1+r[2][2]-r[0][0]-r[1][1]) * 2
		q = [4]float32{(r[0][2] + r[2][0]) / s, (r[1][2] + r[2][1]) / s, 0.25 * s, (r[1][0] - r[0][1]) / s}
	}
	return common.QuatNormalize(q)
}

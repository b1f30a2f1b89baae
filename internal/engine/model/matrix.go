package model

import (
	"github.com/Faultbox/drawstate/pkg/formats"
	"github.com/Faultbox/drawstate/pkg/math"
)

// MeshMatrix returns the matrix applied to the vertices of node idx: the
// hierarchy matrix followed by the node's Offset and 3x3 matrix, which
// children do not inherit.
func MeshMatrix(rsm *formats.RSM, idx int, animTimeMs float32) math.Mat4 {
	node := &rsm.Nodes[idx]
	result := HierarchyMatrix(rsm, idx, animTimeMs)
	result = result.Mul(math.Translate(node.Offset[0], node.Offset[1], node.Offset[2]))
	return result.Mul(math.FromMat3x3(node.Matrix))
}

// HierarchyMatrix returns the matrix children of node idx inherit:
// parent_hierarchy * Position * Rotation * Scale. This is the node's
// pivot, which is what a bone transform reports.
func HierarchyMatrix(rsm *formats.RSM, idx int, animTimeMs float32) math.Mat4 {
	visited := make(map[int]bool)
	return hierarchyMatrix(rsm, idx, animTimeMs, visited)
}

func hierarchyMatrix(rsm *formats.RSM, idx int, animTimeMs float32, visited map[int]bool) math.Mat4 {
	// Malformed files can contain parent cycles.
	if visited[idx] {
		return math.Identity()
	}
	visited[idx] = true
	node := &rsm.Nodes[idx]

	pos := node.Position
	if p, ok := InterpolatePosKeys(node.PosKeys, animTimeMs); ok {
		pos = p
	}
	local := math.Translate(pos[0], pos[1], pos[2])

	// Rotation comes from keyframes or the static axis-angle, never both.
	if len(node.RotKeys) > 0 {
		local = local.Mul(InterpolateRotKeys(node.RotKeys, animTimeMs).ToMat4())
	} else if node.RotAngle != 0 {
		axis := math.Vec3From(node.RotAxis)
		if axis.Length() > 1e-6 {
			local = local.Mul(math.RotateAxis(axis.Normalize().Array(), node.RotAngle))
		}
	}

	local = local.Mul(math.Scale(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := InterpolateScaleKeys(node.ScaleKeys, animTimeMs)
		local = local.Mul(math.Scale(s[0], s[1], s[2]))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := parentIndex(rsm, node.Parent); parent >= 0 {
			return hierarchyMatrix(rsm, parent, animTimeMs, visited).Mul(local)
		}
	}
	return local
}

func parentIndex(rsm *formats.RSM, name string) int {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return i
		}
	}
	return -1
}

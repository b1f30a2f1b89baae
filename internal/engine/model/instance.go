package model

import (
	"strings"

	"github.com/Faultbox/drawstate/pkg/formats"
	"github.com/Faultbox/drawstate/pkg/math"
)

// Instance is a posed model. Bones are the model's nodes; bone index is
// node index + 1 so that 0 stays free for "no bone". Sub-objects are the
// nodes carrying geometry, named "parent.node" (or just the node name
// for roots).
type Instance struct {
	rsm       *formats.RSM
	transform math.Mat4
	timeMs    float32
}

// NewInstance creates an instance of m in its frame-0 pose.
func NewInstance(m *formats.RSM) *Instance {
	return &Instance{rsm: m, transform: math.Identity()}
}

// Model returns the instanced model.
func (i *Instance) Model() *formats.RSM { return i.rsm }

// Transform returns the instance transform.
func (i *Instance) Transform() math.Mat4 { return i.transform }

// SetTransform replaces the instance transform.
func (i *Instance) SetTransform(m math.Mat4) { i.transform = m }

// SetScale replaces the instance transform with a uniform scale.
func (i *Instance) SetScale(s float32) { i.transform = math.UniformScale(s) }

// PoseTime returns the bound animation time in milliseconds.
func (i *Instance) PoseTime() float32 { return i.timeMs }

// SetPoseTime binds the pose at t milliseconds.
func (i *Instance) SetPoseTime(t float32) { i.timeMs = t }

// BindPose binds the first or last frame. RSM models have a single
// animation timeline, so the animation name is not used.
func (i *Instance) BindPose(_ string, finalFrame bool) func() {
	prev := i.timeMs
	i.timeMs = 0
	if finalFrame {
		i.timeMs = float32(i.rsm.AnimLength)
	}
	return func() { i.timeMs = prev }
}

// FindBoneIndexAndTransform looks a node up by name, ignoring case.
func (i *Instance) FindBoneIndexAndTransform(name string) (int, math.Mat4, bool) {
	idx := i.rsm.NodeIndexFold(name)
	if idx < 0 {
		return 0, math.Identity(), false
	}
	return idx + 1, i.transform.Mul(HierarchyMatrix(i.rsm, idx, i.timeMs)), true
}

// FindSubObjectIndexAndTransform looks a meshed node up by its display
// name, ignoring case.
func (i *Instance) FindSubObjectIndexAndTransform(name string) (int, math.Mat4, bool) {
	for idx := range i.rsm.Nodes {
		node := &i.rsm.Nodes[idx]
		if node.HasMesh() && strings.EqualFold(SubObjectName(node), name) {
			return idx + 1, i.transform.Mul(MeshMatrix(i.rsm, idx, i.timeMs)), true
		}
	}
	return 0, math.Identity(), false
}

// SubObjectName returns the display name of a node.
func SubObjectName(node *formats.RSMNode) string {
	if node.Parent == "" || node.Parent == node.Name {
		return node.Name
	}
	return node.Parent + "." + node.Name
}

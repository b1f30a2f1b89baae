// Package drawstate selects a drawable's visual state from its condition
// flags and caches the skeletal bones each state needs.
//
// A Table holds the authored states of one drawable template. Lookups go
// through a memoized best-match search; bone resolution is deferred until
// a Coordinator decides the state is needed and the simulation context
// allows the work.
package drawstate

import (
	"errors"

	"github.com/Faultbox/drawstate/pkg/math"
)

// ErrModelNotFound is returned by a BoneQuery that cannot instantiate a model.
var ErrModelNotFound = errors.New("model not found")

// ModelInstance is a posed copy of a model. Bone indices are 1-based;
// index 0 means "root/none".
type ModelInstance interface {
	FindBoneIndexAndTransform(name string) (int, math.Mat4, bool)
	FindSubObjectIndexAndTransform(name string) (int, math.Mat4, bool)
	Transform() math.Mat4
	SetTransform(m math.Mat4)
	// BindPose poses the instance at the first or last frame of the
	// named animation and returns a function restoring the previous pose.
	BindPose(animation string, finalFrame bool) (restore func())
}

// BoneQuery creates model instances for bone lookups.
type BoneQuery interface {
	CreateTemporaryModelInstance(model string, scale float32) (ModelInstance, error)
	ReleaseTemporaryModelInstance(inst ModelInstance)
}

// SimulationContext reports whether expensive validation may run now.
type SimulationContext interface {
	IsActivelySimulatingOrLoading() bool
}

// SimulationFunc adapts a function to SimulationContext.
type SimulationFunc func() bool

func (f SimulationFunc) IsActivelySimulatingOrLoading() bool { return f() }

// Always is a SimulationContext that always allows validation.
var Always SimulationContext = SimulationFunc(func() bool { return true })

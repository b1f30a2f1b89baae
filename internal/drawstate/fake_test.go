package drawstate

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/drawstate/pkg/math"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

// fakeModel maps lowercase bone and sub-object names to indices.
type fakeModel struct {
	bones      map[string]int
	subObjects map[string]int
}

func modelWithBones(names ...string) *fakeModel {
	m := &fakeModel{bones: map[string]int{}, subObjects: map[string]int{}}
	for i, n := range names {
		m.bones[n] = i + 1
	}
	return m
}

type poseCall struct {
	animation string
	final     bool
}

type fakeInstance struct {
	model     *fakeModel
	transform math.Mat4
	poses     []poseCall
	restored  int
	lookups   []string
}

func (f *fakeInstance) boneTransform(idx int) math.Mat4 {
	return f.transform.Mul(math.Translate(float32(idx), 0, 0))
}

func (f *fakeInstance) FindBoneIndexAndTransform(name string) (int, math.Mat4, bool) {
	f.lookups = append(f.lookups, name)
	idx, ok := f.model.bones[name]
	if !ok {
		return 0, math.Identity(), false
	}
	return idx, f.boneTransform(idx), true
}

func (f *fakeInstance) FindSubObjectIndexAndTransform(name string) (int, math.Mat4, bool) {
	idx, ok := f.model.subObjects[name]
	if !ok {
		return 0, math.Identity(), false
	}
	return idx, f.boneTransform(idx), true
}

func (f *fakeInstance) Transform() math.Mat4     { return f.transform }
func (f *fakeInstance) SetTransform(m math.Mat4) { f.transform = m }

func (f *fakeInstance) BindPose(animation string, final bool) func() {
	f.poses = append(f.poses, poseCall{animation, final})
	return func() { f.restored++ }
}

type fakeQuery struct {
	models   map[string]*fakeModel
	created  int
	released int
	last     *fakeInstance
}

func (q *fakeQuery) CreateTemporaryModelInstance(model string, scale float32) (ModelInstance, error) {
	m, ok := q.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	q.created++
	q.last = &fakeInstance{model: m, transform: math.Identity()}
	return q.last, nil
}

func (q *fakeQuery) ReleaseTemporaryModelInstance(ModelInstance) { q.released++ }

// switchable is a SimulationContext tests can flip.
type switchable struct{ on bool }

func (s *switchable) IsActivelySimulatingOrLoading() bool { return s.on }

type harness struct {
	query *fakeQuery
	sim   *switchable
	coord *Coordinator
	table *Table
	logs  *observer.ObservedLogs
}

func newHarness(models map[string]*fakeModel, standard ...string) *harness {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	q := &fakeQuery{models: models}
	sim := &switchable{on: true}
	return &harness{
		query: q,
		sim:   sim,
		coord: NewCoordinator(q, sim, CoordinatorConfig{StandardPublicBones: standard, Logger: log}),
		table: NewTable("TestTank", namekey.New(), log),
		logs:  logs,
	}
}

func (h *harness) warnings(msg string) int {
	return h.logs.FilterMessage(msg).FilterLevelExact(zapcore.WarnLevel).Len()
}

package drawstate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/internal/sparsematch"
	"github.com/Faultbox/drawstate/pkg/condition"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

// TransitionSig packs the transition keys of the old and new state.
type TransitionSig uint64

// MakeTransitionSig returns the signature of a transition from old to new.
func MakeTransitionSig(old, new namekey.Key) TransitionSig {
	return TransitionSig(uint64(old)<<32 | uint64(new))
}

// Keys splits a signature into its old and new transition keys.
func (sig TransitionSig) Keys() (old, new namekey.Key) {
	return namekey.Key(sig >> 32), namekey.Key(uint32(sig))
}

// Table holds the condition states of one drawable template.
//
// Entry points that add states enforce the load-time invariants and
// return a *ConfigError on violation. Any mutation drops memoized lookups.
type Table struct {
	name        string
	names       *namekey.Interner
	log         *zap.Logger
	states      []*State
	hasDefault  bool
	transitions map[TransitionSig]*State
	sigs        []TransitionSig // declaration order
	ignore      condition.Flags
	extraBones  []string
	scale       float32
	validatedTW uint8 // bit 1<<(night | snow<<1) per validated combination
	finder      *sparsematch.Finder[*State]
}

// NewTable creates an empty table for the named template. Names are
// interned in names, which is usually shared by all tables.
func NewTable(name string, names *namekey.Interner, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("template", name))
	return &Table{
		name:        name,
		names:       names,
		log:         log,
		transitions: make(map[TransitionSig]*State),
		scale:       1,
		finder:      sparsematch.New[*State](log),
	}
}

// Name returns the template name.
func (t *Table) Name() string { return t.name }

// Names returns the table's name interner.
func (t *Table) Names() *namekey.Interner { return t.names }

// Scale returns the uniform model scale.
func (t *Table) Scale() float32 { return t.scale }

// SetScale sets the uniform model scale. Cached bones are dropped.
func (t *Table) SetScale(scale float32) {
	t.scale = scale
	t.invalidateAll()
}

// NewState returns a state owned by t that is not yet part of it. Its
// content starts as a copy of the default state, if one exists.
func (t *Table) NewState() *State {
	s := &State{table: t}
	if t.hasDefault {
		s.copyContent(t.states[0])
	}
	return s
}

// SetDefaultState adds s as the default state. Its only pattern is the
// empty one. The default must come first and there can be only one.
func (t *Table) SetDefaultState(s *State) error {
	if t.hasDefault {
		return t.configError(s.Description(), ErrMultipleDefaults, "")
	}
	if len(t.states) > 0 {
		return t.configError(s.Description(), ErrDefaultNotFirst, "%d states already declared", len(t.states))
	}
	s.table = t
	s.conditions = []condition.Flags{condition.None()}
	if s.description == "" {
		s.description = "DEFAULT"
	}
	t.states = append(t.states, s)
	t.hasDefault = true
	t.changed()
	return nil
}

// AddConditionState adds a normal state matched by pattern.
func (t *Table) AddConditionState(pattern condition.Flags, s *State) error {
	if err := t.checkPattern(s.Description(), pattern); err != nil {
		return err
	}
	s.table = t
	s.conditions = []condition.Flags{pattern}
	t.states = append(t.states, s)
	t.changed()
	return nil
}

// AddAliasFlags adds another pattern to the most recently added state.
func (t *Table) AddAliasFlags(pattern condition.Flags) error {
	if len(t.states) == 0 {
		return t.configError("", ErrAliasWithoutState, "alias %s", pattern)
	}
	s := t.states[len(t.states)-1]
	if err := t.checkPattern(s.Description(), pattern); err != nil {
		return err
	}
	s.conditions = append(s.conditions, pattern)
	t.changed()
	return nil
}

func (t *Table) checkPattern(desc string, pattern condition.Flags) error {
	if pattern.AnyIntersectionWith(t.ignore) {
		overlap := pattern.Cleared(pattern.Cleared(t.ignore))
		return t.configError(desc, ErrIgnoredConditions, "%s uses ignored %s", pattern, overlap)
	}
	for _, other := range t.states {
		for _, c := range other.conditions {
			if c == pattern {
				return t.configError(desc, ErrDuplicateConditions, "%s already used by %s", pattern, other.Description())
			}
		}
	}
	return nil
}

// AddTransition adds s as the state played when moving from the state
// keyed from to the state keyed to.
func (t *Table) AddTransition(from, to string, s *State) error {
	desc := from + " -> " + to
	if s.description == "" {
		s.description = desc
	}
	if from == "" || to == "" {
		return t.configError(desc, ErrEmptyTransitionKey, "")
	}
	if from == to {
		return t.configError(desc, ErrTransitionSameState, "%q", from)
	}
	if !s.AnimationMode.SingleShot() {
		return t.configError(desc, ErrTransitionMode, "mode %s", s.AnimationMode)
	}
	if s.transitionKey != namekey.None || s.allowToFinishKey != namekey.None {
		return t.configError(desc, ErrTransitionKeys, "")
	}
	sig := MakeTransitionSig(t.names.Key(from), t.names.Key(to))
	if _, dup := t.transitions[sig]; dup {
		return t.configError(desc, ErrDuplicateTransition, "")
	}
	s.table = t
	s.conditions = nil
	s.transitionSig = sig
	t.transitions[sig] = s
	t.sigs = append(t.sigs, sig)
	t.changed()
	return nil
}

// SetIgnoreConditions sets the bits that never take part in matching. It
// fails if an already declared pattern uses one of them.
func (t *Table) SetIgnoreConditions(mask condition.Flags) error {
	for _, s := range t.states {
		for _, c := range s.conditions {
			if c.AnyIntersectionWith(mask) {
				return t.configError(s.Description(), ErrIgnoredConditions, "%s overlaps ignore mask %s", c, mask)
			}
		}
	}
	t.ignore = mask
	t.changed()
	return nil
}

// IgnoreConditions returns the ignore mask.
func (t *Table) IgnoreConditions() condition.Flags { return t.ignore }

// AddPublicBone declares a bone resolved for every state of the table.
func (t *Table) AddPublicBone(name string) {
	name = strings.ToLower(name)
	for _, b := range t.extraBones {
		if b == name {
			return
		}
	}
	t.extraBones = append(t.extraBones, name)
	t.invalidateAll()
}

// FindBestState returns the state that best fits query after the ignore
// mask is removed. Results are memoized.
func (t *Table) FindBestState(query condition.Flags) (*State, bool) {
	masked := query.Cleared(t.ignore)
	if s, ok := t.finder.TryGetCached(masked); ok {
		return s, true
	}
	return t.finder.FindBest(t.states, masked)
}

// Transition returns the transition state between two states, if both
// carry transition keys and such a transition was declared.
func (t *Table) Transition(from, to *State) (*State, bool) {
	if from == nil || to == nil || from.transitionKey == namekey.None || to.transitionKey == namekey.None {
		return nil, false
	}
	s, ok := t.transitions[MakeTransitionSig(from.transitionKey, to.transitionKey)]
	return s, ok
}

// TransitionByKeys returns the transition declared between two keys.
func (t *Table) TransitionByKeys(from, to string) (*State, bool) {
	f, ok1 := t.names.Lookup(from)
	g, ok2 := t.names.Lookup(to)
	if !ok1 || !ok2 {
		return nil, false
	}
	s, ok := t.transitions[MakeTransitionSig(f, g)]
	return s, ok
}

// States returns the normal states in declaration order, default first.
func (t *Table) States() []*State { return t.states }

// Transitions returns the transition states in declaration order.
func (t *Table) Transitions() []*State {
	out := make([]*State, len(t.sigs))
	for i, sig := range t.sigs {
		out[i] = t.transitions[sig]
	}
	return out
}

// DefaultState returns the default state, if declared.
func (t *Table) DefaultState() (*State, bool) {
	if !t.hasDefault {
		return nil, false
	}
	return t.states[0], true
}

// Clear removes every state and transition.
func (t *Table) Clear() {
	t.states = nil
	t.hasDefault = false
	t.transitions = make(map[TransitionSig]*State)
	t.sigs = nil
	t.ignore = condition.None()
	t.extraBones = nil
	t.validatedTW = 0
	t.changed()
}

// stateWithKey reports whether a normal state with the given transition
// key matches exactly the given night and snow bits.
func (t *Table) stateWithKey(key namekey.Key, night, snow bool) bool {
	for _, s := range t.states {
		if s.transitionKey == key && s.Matches(night, snow) {
			return true
		}
	}
	return false
}

func (t *Table) changed() {
	t.finder.Clear()
}

func (t *Table) invalidateAll() {
	for _, s := range t.states {
		s.invalidate()
	}
	for _, s := range t.transitions {
		s.invalidate()
	}
	t.validatedTW = 0
}

package drawstate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/pkg/condition"
	"github.com/Faultbox/drawstate/pkg/math"
)

// Drawable tracks the current state of one drawn object.
type Drawable struct {
	table   *Table
	coord   *Coordinator
	flags   condition.Flags
	current *State
	pending *State // target of the playing transition
	night   bool
	snow    bool
}

// NewDrawable creates a drawable showing the state that best fits no
// conditions.
func NewDrawable(t *Table, c *Coordinator) *Drawable {
	d := &Drawable{table: t, coord: c}
	d.SetConditionFlags(condition.None())
	return d
}

// SetConditionFlags selects the state that best fits flags. Moving
// between two states with a declared transition plays the transition
// first; the target becomes current on AnimationFinished.
func (d *Drawable) SetConditionFlags(flags condition.Flags) {
	d.flags = flags
	next, ok := d.table.FindBestState(flags)
	if !ok {
		return
	}

	from := d.current
	if d.pending != nil {
		from = d.pending
	}
	if next == from {
		return
	}

	if tr, ok := d.table.Transition(from, next); ok {
		d.coord.log.Debug("transition",
			zap.String("template", d.table.name),
			zap.String("from", from.Description()),
			zap.String("to", next.Description()),
		)
		d.current, d.pending = tr, next
	} else {
		d.current, d.pending = next, nil
	}
	d.coord.ValidateState(d.current, nil)
}

// AnimationFinished moves from a finished transition to its target.
func (d *Drawable) AnimationFinished() {
	if d.pending == nil {
		return
	}
	d.current, d.pending = d.pending, nil
	d.coord.ValidateState(d.current, nil)
}

// SetTimeAndWeather validates the states needed under the new lighting.
func (d *Drawable) SetTimeAndWeather(night, snow bool) {
	d.night, d.snow = night, snow
	d.coord.ValidateForTimeAndWeather(d.table, night, snow)
}

// ConditionFlags returns the last flags set.
func (d *Drawable) ConditionFlags() condition.Flags { return d.flags }

// CurrentState returns the state being drawn, which may be a transition.
func (d *Drawable) CurrentState() *State { return d.current }

// PendingState returns the target of the playing transition, or nil.
func (d *Drawable) PendingState() *State { return d.pending }

// InTransition reports whether a transition is playing.
func (d *Drawable) InTransition() bool { return d.pending != nil }

// ModelName returns the current state's model name.
func (d *Drawable) ModelName() string {
	if d.current == nil {
		return ""
	}
	return d.current.ModelName()
}

// BoneTransform returns the pristine transform of a bone of the current
// state, validating the state first if needed.
func (d *Drawable) BoneTransform(name string) (math.Mat4, bool) {
	if d.current == nil {
		return math.Identity(), false
	}
	d.coord.ValidateState(d.current, nil)
	key, ok := d.table.names.Lookup(strings.ToLower(name))
	if !ok {
		return math.Identity(), false
	}
	return d.current.BoneTransform(key)
}

// ResolveState returns the state that best fits flags without changing
// the drawable.
func (d *Drawable) ResolveState(flags condition.Flags) (*State, bool) {
	return d.table.FindBestState(flags)
}

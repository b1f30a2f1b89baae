package drawstate

import (
	"strings"

	"go.uber.org/zap"
)

// CoordinatorConfig holds process-wide validation settings.
type CoordinatorConfig struct {
	// StandardPublicBones are resolved for every state.
	StandardPublicBones []string
	// Group controls numbered bone probing. Zero means DefaultBoneGroup.
	Group  BoneGroup
	Logger *zap.Logger
}

// Coordinator decides when states resolve their bones.
type Coordinator struct {
	query    BoneQuery
	sim      SimulationContext
	standard []string
	group    BoneGroup
	log      *zap.Logger
}

// NewCoordinator creates a coordinator resolving bones through q. A nil
// sim always allows validation.
func NewCoordinator(q BoneQuery, sim SimulationContext, cfg CoordinatorConfig) *Coordinator {
	if sim == nil {
		sim = Always
	}
	if cfg.Group == (BoneGroup{}) {
		cfg.Group = DefaultBoneGroup
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	standard := make([]string, 0, len(cfg.StandardPublicBones))
	for _, b := range cfg.StandardPublicBones {
		standard = append(standard, strings.ToLower(b))
	}
	return &Coordinator{
		query:    q,
		sim:      sim,
		standard: standard,
		group:    cfg.Group,
		log:      cfg.Logger,
	}
}

func (c *Coordinator) shouldValidate() bool {
	return c.sim.IsActivelySimulatingOrLoading()
}

// ValidateState brings a state's bone cache, turret and barrel info up to
// date. inst may be nil.
func (c *Coordinator) ValidateState(s *State, inst ModelInstance) {
	s.ValidateBoneCache(c, inst)
	s.ValidateTurretInfo(c)
	s.ValidateWeaponBarrelInfo(c)
}

// ValidateForTimeAndWeather validates the states of t that can be shown
// under the given lighting and weather. Each combination is handled once
// per table until Invalidate.
//
// States whose patterns match (false, false) or (night, snow) are
// validated. A transition is validated only when states carrying both of
// its transition keys match (night, snow).
func (c *Coordinator) ValidateForTimeAndWeather(t *Table, night, snow bool) {
	bit := uint8(1) << (b2i(night) | b2i(snow)<<1)
	if t.validatedTW&bit != 0 {
		return
	}
	if !c.shouldValidate() {
		return
	}

	for _, s := range t.states {
		if s.Matches(false, false) || s.Matches(night, snow) {
			c.ValidateState(s, nil)
		}
	}
	for _, sig := range t.sigs {
		from, to := sig.Keys()
		if t.stateWithKey(from, night, snow) && t.stateWithKey(to, night, snow) {
			c.ValidateState(t.transitions[sig], nil)
		}
	}

	t.validatedTW |= bit
	c.log.Debug("validated time and weather",
		zap.String("template", t.name),
		zap.Bool("night", night),
		zap.Bool("snow", snow),
	)
}

// Invalidate drops the bone caches of every state in t, for example after
// its models were reloaded.
func (c *Coordinator) Invalidate(t *Table) {
	t.invalidateAll()
}

func b2i(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

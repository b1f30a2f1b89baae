package drawstate

import (
	"sort"
	"strings"

	"github.com/Faultbox/drawstate/pkg/condition"
	"github.com/Faultbox/drawstate/pkg/math"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

// WeaponSlot indexes per-weapon bone templates.
type WeaponSlot int

const (
	Primary WeaponSlot = iota
	Secondary
	Tertiary
	WeaponSlotCount
)

func (w WeaponSlot) String() string {
	switch w {
	case Primary:
		return "PRIMARY"
	case Secondary:
		return "SECONDARY"
	case Tertiary:
		return "TERTIARY"
	}
	return "UNKNOWN"
}

// TurretCount is the number of turrets a state may drive (main and alt).
const TurretCount = 2

// WeaponBones names the bones used by one weapon slot. Each name is a
// base; numbered variants name one barrel each.
type WeaponBones struct {
	FireFX      string
	Recoil      string
	MuzzleFlash string
	Launch      string
}

func (w WeaponBones) empty() bool {
	return w.FireFX == "" && w.Recoil == "" && w.MuzzleFlash == "" && w.Launch == ""
}

// TurretBones names a turret's yaw and pitch bones.
type TurretBones struct {
	Turret   string
	Pitch    string
	ArtAngle float32 // yaw of the turret as modelled, radians
	ArtPitch float32
}

// TurretInfo holds resolved turret bone indices. 0 means no bone.
type TurretInfo struct {
	TurretBone int
	PitchBone  int
}

// WeaponBarrel is one numbered barrel of a weapon slot. 0 means no bone.
type WeaponBarrel struct {
	RecoilBone      int
	FireFXBone      int
	MuzzleFlashBone int
	LaunchBone      int
	LaunchTransform math.Mat4 // pristine transform of the launch bone, or identity
}

// ParticleBone attaches a particle system to a bone.
type ParticleBone struct {
	Bone   string
	System string
}

// Validity records which derived data of a state is current.
type Validity uint8

const (
	PristineBonesValid Validity = 1 << iota
	PublicBonesValid
	TurretValid
	WeaponBarrelInfoValid
	LaunchBonesValid
)

// PristineBone is a bone's index and transform in the rest pose.
type PristineBone struct {
	Index     int
	Transform math.Mat4
}

type cacheState uint8

const (
	cacheInvalid cacheState = iota
	cachePopulating
	cacheValid
)

// State is one authored visual variant of a drawable.
//
// Lookups on a State fill its caches lazily, so a State must not be used
// from several goroutines at once.
type State struct {
	Model            string // "" or "None" for no model
	Flags            StateFlag
	Weapons          [WeaponSlotCount]WeaponBones
	Turrets          [TurretCount]TurretBones
	Animations       []Animation
	AnimationMode    AnimationMode
	HiddenSubObjects []string
	ShownSubObjects  []string
	ParticleBones    []ParticleBone

	description      string
	conditions       []condition.Flags
	transitionKey    namekey.Key
	allowToFinishKey namekey.Key
	transitionSig    TransitionSig
	publicBones      []string

	table    *Table
	validity Validity
	cache    cacheState
	bones    map[namekey.Key]PristineBone
	turrets  [TurretCount]TurretInfo
	barrels  [WeaponSlotCount][]WeaponBarrel
	hasFX    [WeaponSlotCount]bool
}

// Clear resets every field, including caches, to its zero value. The
// owning table is kept.
func (s *State) Clear() {
	t := s.table
	*s = State{table: t}
}

// copyContent copies authored content from src, leaving identity fields
// (conditions, keys, description) and caches alone.
func (s *State) copyContent(src *State) {
	s.Model = src.Model
	s.Flags = src.Flags
	s.Weapons = src.Weapons
	s.Turrets = src.Turrets
	s.Animations = append([]Animation(nil), src.Animations...)
	s.AnimationMode = src.AnimationMode
	s.HiddenSubObjects = append([]string(nil), src.HiddenSubObjects...)
	s.ShownSubObjects = append([]string(nil), src.ShownSubObjects...)
	s.ParticleBones = append([]ParticleBone(nil), src.ParticleBones...)
	s.publicBones = append([]string(nil), src.publicBones...)
}

// ConditionCount returns the number of condition patterns.
func (s *State) ConditionCount() int { return len(s.conditions) }

// Condition returns the i-th condition pattern.
func (s *State) Condition(i int) condition.Flags { return s.conditions[i] }

// Conditions returns a copy of the condition patterns.
func (s *State) Conditions() []condition.Flags {
	return append([]condition.Flags(nil), s.conditions...)
}

// SetDescription sets the name used in diagnostics.
func (s *State) SetDescription(d string) { s.description = d }

// Description names the state for diagnostics.
func (s *State) Description() string {
	if s.description != "" {
		return s.description
	}
	if len(s.conditions) > 0 {
		return s.conditions[0].String()
	}
	return "<unnamed>"
}

// Matches reports whether any pattern has exactly the given NIGHT and
// SNOW bits.
func (s *State) Matches(night, snow bool) bool {
	for _, c := range s.conditions {
		if c.Test(condition.Night) == night && c.Test(condition.Snow) == snow {
			return true
		}
	}
	return false
}

// SetTransitionKey sets the name other states use to address this one in
// transitions.
func (s *State) SetTransitionKey(name string) {
	s.transitionKey = s.table.names.Key(name)
}

// SetAllowToFinishKey names the state whose animation must finish before
// this one starts.
func (s *State) SetAllowToFinishKey(name string) {
	s.allowToFinishKey = s.table.names.Key(name)
}

// TransitionKey returns the transition key, or namekey.None.
func (s *State) TransitionKey() namekey.Key { return s.transitionKey }

// AllowToFinishKey returns the finish key, or namekey.None.
func (s *State) AllowToFinishKey() namekey.Key { return s.allowToFinishKey }

// TransitionSig returns the transition this state plays, or 0 for
// normal states.
func (s *State) TransitionSig() TransitionSig { return s.transitionSig }

// IsTransition reports whether the state is a transition state.
func (s *State) IsTransition() bool { return s.transitionSig != 0 }

// AddPublicBone declares a bone that must be resolved for this state.
func (s *State) AddPublicBone(name string) {
	name = strings.ToLower(name)
	for _, b := range s.publicBones {
		if b == name {
			return
		}
	}
	s.publicBones = append(s.publicBones, name)
}

// PublicBones returns the declared public bones, lowercased.
func (s *State) PublicBones() []string {
	return append([]string(nil), s.publicBones...)
}

// ModelName returns the model name, or "" when the state has no model.
func (s *State) ModelName() string {
	if !s.HasModel() {
		return ""
	}
	return s.Model
}

// HasModel reports whether the state draws a model.
func (s *State) HasModel() bool {
	return s.Model != "" && !strings.EqualFold(s.Model, "none")
}

// Validity returns the current validity bits.
func (s *State) Validity() Validity { return s.validity }

// IsValid reports whether all bits in v are set.
func (s *State) IsValid(v Validity) bool { return s.validity&v == v }

// FindPristineBone returns a cached bone. The cache must be valid.
func (s *State) FindPristineBone(key namekey.Key) (PristineBone, bool) {
	if s.cache != cacheValid {
		return PristineBone{}, false
	}
	b, ok := s.bones[key]
	return b, ok
}

// FindPristineBoneByName looks a bone up by name, ignoring case.
func (s *State) FindPristineBoneByName(name string) (PristineBone, bool) {
	if s.table == nil {
		return PristineBone{}, false
	}
	key, ok := s.table.names.Lookup(strings.ToLower(name))
	if !ok {
		return PristineBone{}, false
	}
	return s.FindPristineBone(key)
}

// BoneTransform returns the pristine transform for a lowercase bone key.
func (s *State) BoneTransform(key namekey.Key) (math.Mat4, bool) {
	b, ok := s.FindPristineBone(key)
	if !ok {
		return math.Identity(), false
	}
	return b.Transform, true
}

// PristineBoneCount returns the number of cached bones.
func (s *State) PristineBoneCount() int {
	if s.cache != cacheValid {
		return 0
	}
	return len(s.bones)
}

// PristineBoneNames returns the lowercase names of the cached bones,
// sorted.
func (s *State) PristineBoneNames() []string {
	if s.cache != cacheValid || s.table == nil {
		return nil
	}
	out := make([]string, 0, len(s.bones))
	for k := range s.bones {
		out = append(out, s.table.names.Name(k))
	}
	sort.Strings(out)
	return out
}

// Turret returns resolved turret bones for slot i.
func (s *State) Turret(i int) TurretInfo { return s.turrets[i] }

// WeaponBarrels returns the resolved barrels of a weapon slot.
func (s *State) WeaponBarrels(slot WeaponSlot) []WeaponBarrel { return s.barrels[slot] }

// HasRecoilBonesOrMuzzleFlashes reports whether any barrel of slot has a
// recoil or muzzle-flash bone.
func (s *State) HasRecoilBonesOrMuzzleFlashes(slot WeaponSlot) bool { return s.hasFX[slot] }

// HasWeaponBones reports whether any slot has recoil or muzzle-flash bones.
func (s *State) HasWeaponBones() bool {
	for _, v := range s.hasFX {
		if v {
			return true
		}
	}
	return false
}

// declaredBones lists the bones the state itself asks for: public bones,
// weapon and turret bones, and particle attachment bones, lowercased.
func (s *State) declaredBones() []string {
	out := append([]string(nil), s.publicBones...)
	for _, w := range s.Weapons {
		out = append(out, w.FireFX, w.Recoil, w.MuzzleFlash, w.Launch)
	}
	for _, t := range s.Turrets {
		out = append(out, t.Turret, t.Pitch)
	}
	for _, p := range s.ParticleBones {
		out = append(out, p.Bone)
	}
	for i, n := range out {
		out[i] = strings.ToLower(n)
	}
	return out
}

package drawstate

import (
	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/pkg/math"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

// ValidateBoneCache resolves the state's bones into the pristine bone cache.
//
// It does nothing if the cache is already valid. When the simulation
// context disallows validation, the cache is dropped instead and stays
// invalid. inst may be nil, in which case a temporary instance of the
// state's model is created and released.
func (s *State) ValidateBoneCache(c *Coordinator, inst ModelInstance) {
	switch s.cache {
	case cacheValid:
		return
	case cachePopulating:
		c.log.Warn("bone cache validation re-entered", zap.String("state", s.Description()))
		return
	}

	if !c.shouldValidate() {
		s.invalidate()
		return
	}

	s.cache = cachePopulating
	s.bones = make(map[namekey.Key]PristineBone)
	if s.HasModel() {
		s.populateBones(c, inst)
	}
	s.cache = cacheValid
	s.validity |= PristineBonesValid | PublicBonesValid
}

func (s *State) populateBones(c *Coordinator, inst ModelInstance) {
	scale := s.table.scale
	if inst == nil {
		tmp, err := c.query.CreateTemporaryModelInstance(s.Model, scale)
		if err != nil {
			c.log.Warn("cannot instantiate model for bone validation",
				zap.String("state", s.Description()),
				zap.String("model", s.Model),
				zap.Error(err),
			)
			return
		}
		defer c.query.ReleaseTemporaryModelInstance(tmp)
		inst = tmp
	}

	orig := inst.Transform()
	inst.SetTransform(math.UniformScale(scale))
	var anim string
	if len(s.Animations) > 0 {
		anim = s.Animations[0].Name
	}
	restore := inst.BindPose(anim, s.Flags&PristineBonePosInFinalFrame != 0)
	defer func() {
		restore()
		inst.SetTransform(orig)
	}()

	// A name the state declares is reported when missing, even if it is
	// also a standard or table bone and comes up in an earlier pass.
	declared := make(map[string]bool)
	for _, name := range s.declaredBones() {
		declared[name] = true
	}
	seen := make(map[string]bool)
	for _, names := range [][]string{c.standard, s.table.extraBones, s.declaredBones()} {
		for _, name := range names {
			s.resolveBone(c, inst, name, declared[name], seen)
		}
	}
}

// resolveBone records name, or its numbered variants, as bones; failing
// that, as sub-objects. Missing declared bones are logged.
func (s *State) resolveBone(c *Coordinator, inst ModelInstance, name string, declared bool, seen map[string]bool) {
	if name == "" || seen[name] {
		return
	}
	seen[name] = true

	record := func(find func(string) (int, math.Mat4, bool)) func(string) bool {
		return func(n string) bool {
			idx, m, ok := find(n)
			if ok {
				s.bones[s.table.names.LowercaseKey(n)] = PristineBone{Index: idx, Transform: m}
			}
			return ok
		}
	}

	for _, find := range []func(string) (int, math.Mat4, bool){
		inst.FindBoneIndexAndTransform,
		inst.FindSubObjectIndexAndTransform,
	} {
		try := record(find)
		if try(name) || c.group.Probe(name, try) > 0 {
			return
		}
	}

	if declared {
		c.log.Warn("bone not found",
			zap.String("state", s.Description()),
			zap.String("model", s.Model),
			zap.String("bone", name),
		)
	}
}

// ValidateTurretInfo resolves turret and pitch bone indices from the bone
// cache. It needs a valid bone cache and does nothing until then.
func (s *State) ValidateTurretInfo(c *Coordinator) {
	if s.IsValid(TurretValid) || !c.shouldValidate() || !s.IsValid(PristineBonesValid) {
		return
	}
	for i, tb := range s.Turrets {
		s.turrets[i] = TurretInfo{
			TurretBone: s.boneIndex(c, tb.Turret, "turret"),
			PitchBone:  s.boneIndex(c, tb.Pitch, "turret pitch"),
		}
	}
	s.validity |= TurretValid
}

func (s *State) boneIndex(c *Coordinator, name, role string) int {
	if name == "" {
		return 0
	}
	b, ok := s.FindPristineBoneByName(name)
	if !ok {
		if s.HasModel() {
			c.log.Warn(role+" bone not found",
				zap.String("state", s.Description()),
				zap.String("model", s.Model),
				zap.String("bone", name),
			)
		}
		return 0
	}
	return b.Index
}

// ValidateWeaponBarrelInfo builds the barrel list of every weapon slot
// from the bone cache. It needs a valid bone cache and does nothing until
// then.
func (s *State) ValidateWeaponBarrelInfo(c *Coordinator) {
	if s.IsValid(WeaponBarrelInfoValid) || !c.shouldValidate() || !s.IsValid(PristineBonesValid) {
		return
	}

	for slot := range s.Weapons {
		w := s.Weapons[slot]
		s.barrels[slot] = nil
		s.hasFX[slot] = false
		if w.empty() {
			continue
		}

		for i := 1; i <= c.group.MaxSuffix; i++ {
			b, found, fx := s.barrel(w, func(base string) string { return c.group.Name(base, i) })
			if !found {
				break
			}
			s.barrels[slot] = append(s.barrels[slot], b)
			s.hasFX[slot] = s.hasFX[slot] || fx
		}

		if len(s.barrels[slot]) == 0 {
			b, found, fx := s.barrel(w, func(base string) string { return base })
			if found {
				s.barrels[slot] = append(s.barrels[slot], b)
				s.hasFX[slot] = fx
			} else if s.HasModel() {
				c.log.Warn("no weapon barrel bones found",
					zap.String("state", s.Description()),
					zap.String("model", s.Model),
					zap.Stringer("slot", WeaponSlot(slot)),
				)
			}
		}
	}
	s.validity |= WeaponBarrelInfoValid | LaunchBonesValid
}

// barrel looks up the bones of w under the names produced by name. found
// is false when none exist; fx reports a recoil or muzzle-flash bone.
func (s *State) barrel(w WeaponBones, name func(string) string) (b WeaponBarrel, found, fx bool) {
	b.LaunchTransform = math.Identity()
	lookup := func(base string) (PristineBone, bool) {
		if base == "" {
			return PristineBone{}, false
		}
		return s.FindPristineBoneByName(name(base))
	}
	if pb, ok := lookup(w.Recoil); ok {
		b.RecoilBone, found, fx = pb.Index, true, true
	}
	if pb, ok := lookup(w.MuzzleFlash); ok {
		b.MuzzleFlashBone, found, fx = pb.Index, true, true
	}
	if pb, ok := lookup(w.FireFX); ok {
		b.FireFXBone, found = pb.Index, true
	}
	if pb, ok := lookup(w.Launch); ok {
		b.LaunchBone, b.LaunchTransform, found = pb.Index, pb.Transform, true
	}
	return b, found, fx
}

// invalidate drops the bone cache and everything derived from it.
func (s *State) invalidate() {
	s.cache = cacheInvalid
	s.bones = nil
	s.validity = 0
	s.turrets = [TurretCount]TurretInfo{}
	s.barrels = [WeaponSlotCount][]WeaponBarrel{}
	s.hasFX = [WeaponSlotCount]bool{}
}

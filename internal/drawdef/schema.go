package drawdef

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/drawstate/internal/drawstate"
	"github.com/Faultbox/drawstate/pkg/condition"
)

// fieldParser applies one YAML value to a state.
type fieldParser func(s *drawstate.State, n *yaml.Node) error

// stateFields is the schema shared by default, normal and transition
// states.
var stateFields = map[string]fieldParser{
	"model": func(s *drawstate.State, n *yaml.Node) error {
		return decodeScalar(n, &s.Model)
	},
	"description": func(s *drawstate.State, n *yaml.Node) error {
		var d string
		if err := decodeScalar(n, &d); err != nil {
			return err
		}
		s.SetDescription(d)
		return nil
	},
	"flags": func(s *drawstate.State, n *yaml.Node) error {
		names, err := stringList(n)
		if err != nil {
			return err
		}
		var flags drawstate.StateFlag
		for _, name := range names {
			f, err := drawstate.ParseStateFlag(name)
			if err != nil {
				return err
			}
			flags |= f
		}
		s.Flags = flags
		return nil
	},
	"animation_mode": func(s *drawstate.State, n *yaml.Node) error {
		var name string
		if err := decodeScalar(n, &name); err != nil {
			return err
		}
		mode, err := drawstate.ParseAnimationMode(name)
		if err != nil {
			return err
		}
		s.AnimationMode = mode
		return nil
	},
	"animations":     parseAnimations,
	"weapons":        parseWeapons,
	"turrets":        parseTurrets,
	"particle_bones": parseParticleBones,
	"hide_sub_objects": func(s *drawstate.State, n *yaml.Node) error {
		names, err := stringList(n)
		s.HiddenSubObjects = names
		return err
	},
	"show_sub_objects": func(s *drawstate.State, n *yaml.Node) error {
		names, err := stringList(n)
		s.ShownSubObjects = names
		return err
	},
	"public_bones": func(s *drawstate.State, n *yaml.Node) error {
		names, err := stringList(n)
		for _, name := range names {
			s.AddPublicBone(name)
		}
		return err
	},
	"transition_key": func(s *drawstate.State, n *yaml.Node) error {
		var key string
		if err := decodeScalar(n, &key); err != nil {
			return err
		}
		s.SetTransitionKey(key)
		return nil
	},
	"wait_to_finish": func(s *drawstate.State, n *yaml.Node) error {
		var key string
		if err := decodeScalar(n, &key); err != nil {
			return err
		}
		s.SetAllowToFinishKey(key)
		return nil
	},
}

func parseAnimations(s *drawstate.State, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fieldError(n, "expected a list of animations")
	}
	anims := make([]drawstate.Animation, 0, len(n.Content))
	for _, item := range n.Content {
		// A bare string is just the animation name.
		if item.Kind == yaml.ScalarNode {
			anims = append(anims, drawstate.Animation{Name: item.Value})
			continue
		}
		if err := checkKeys(item, "name", "idle", "distance_covered", "blend_frames"); err != nil {
			return err
		}
		var raw struct {
			Name            string  `yaml:"name"`
			Idle            bool    `yaml:"idle"`
			DistanceCovered float32 `yaml:"distance_covered"`
			BlendFrames     int     `yaml:"blend_frames"`
		}
		if err := item.Decode(&raw); err != nil {
			return err
		}
		if raw.Name == "" {
			return fieldError(item, "animation without a name")
		}
		anims = append(anims, drawstate.Animation{
			Name:            raw.Name,
			Idle:            raw.Idle,
			DistanceCovered: raw.DistanceCovered,
			BlendFrames:     raw.BlendFrames,
		})
	}
	s.Animations = anims
	return nil
}

var weaponSlots = map[string]drawstate.WeaponSlot{
	"primary":   drawstate.Primary,
	"secondary": drawstate.Secondary,
	"tertiary":  drawstate.Tertiary,
}

func parseWeapons(s *drawstate.State, n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fieldError(n, "expected a mapping of weapon slots")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		slot, ok := weaponSlots[strings.ToLower(key.Value)]
		if !ok {
			return fieldError(key, "unknown weapon slot %q", key.Value)
		}
		if err := checkKeys(val, "fire_fx", "recoil", "muzzle_flash", "launch"); err != nil {
			return err
		}
		var raw struct {
			FireFX      string `yaml:"fire_fx"`
			Recoil      string `yaml:"recoil"`
			MuzzleFlash string `yaml:"muzzle_flash"`
			Launch      string `yaml:"launch"`
		}
		if err := val.Decode(&raw); err != nil {
			return err
		}
		s.Weapons[slot] = drawstate.WeaponBones(raw)
	}
	return nil
}

func parseTurrets(s *drawstate.State, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fieldError(n, "expected a list of turrets")
	}
	if len(n.Content) > drawstate.TurretCount {
		return fieldError(n, "at most %d turrets", drawstate.TurretCount)
	}
	for i, item := range n.Content {
		if err := checkKeys(item, "turret", "pitch", "art_angle", "art_pitch"); err != nil {
			return err
		}
		var raw struct {
			Turret   string  `yaml:"turret"`
			Pitch    string  `yaml:"pitch"`
			ArtAngle float32 `yaml:"art_angle"`
			ArtPitch float32 `yaml:"art_pitch"`
		}
		if err := item.Decode(&raw); err != nil {
			return err
		}
		s.Turrets[i] = drawstate.TurretBones(raw)
	}
	return nil
}

func parseParticleBones(s *drawstate.State, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fieldError(n, "expected a list of particle bones")
	}
	out := make([]drawstate.ParticleBone, 0, len(n.Content))
	for _, item := range n.Content {
		if err := checkKeys(item, "bone", "system"); err != nil {
			return err
		}
		var raw struct {
			Bone   string `yaml:"bone"`
			System string `yaml:"system"`
		}
		if err := item.Decode(&raw); err != nil {
			return err
		}
		out = append(out, drawstate.ParticleBone(raw))
	}
	s.ParticleBones = out
	return nil
}

// parseConditions reads either a list of names or one space-separated
// string, e.g. "DAMAGED SNOW". An empty list is the empty pattern.
func parseConditions(n *yaml.Node) (condition.Flags, error) {
	var names []string
	if n.Kind == yaml.ScalarNode {
		names = strings.Fields(n.Value)
	} else {
		var err error
		if names, err = stringList(n); err != nil {
			return condition.Flags{}, err
		}
	}
	f, err := condition.Parse(names)
	if err != nil {
		return condition.Flags{}, fieldError(n, "%v", err)
	}
	return f, nil
}

func decodeScalar(n *yaml.Node, out any) error {
	if n.Kind != yaml.ScalarNode {
		return fieldError(n, "expected a single value")
	}
	return n.Decode(out)
}

func stringList(n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fieldError(n, "expected a list")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fieldError(item, "expected a string")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// checkKeys rejects mapping keys outside allowed.
func checkKeys(n *yaml.Node, allowed ...string) error {
	if n.Kind != yaml.MappingNode {
		return fieldError(n, "expected a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		ok := false
		for _, a := range allowed {
			if key.Value == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("line %d: %w %q", key.Line, ErrUnknownField, key.Value)
		}
	}
	return nil
}

func fieldError(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", n.Line, ErrInvalidField, fmt.Sprintf(format, args...))
}

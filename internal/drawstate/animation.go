package drawstate

import (
	"fmt"
	"strings"
)

// AnimationMode controls how a state's animations play.
type AnimationMode int

const (
	AnimManual AnimationMode = iota
	AnimLoop
	AnimOnce
	AnimLoopPingPong
	AnimLoopBackwards
	AnimOnceBackwards
)

var animationModeNames = [...]string{
	AnimManual:        "MANUAL",
	AnimLoop:          "LOOP",
	AnimOnce:          "ONCE",
	AnimLoopPingPong:  "LOOP_PINGPONG",
	AnimLoopBackwards: "LOOP_BACKWARDS",
	AnimOnceBackwards: "ONCE_BACKWARDS",
}

func (m AnimationMode) String() string {
	if m >= 0 && int(m) < len(animationModeNames) {
		return animationModeNames[m]
	}
	return fmt.Sprintf("AnimationMode(%d)", int(m))
}

// SingleShot reports whether the mode plays through once and stops.
func (m AnimationMode) SingleShot() bool {
	return m == AnimOnce || m == AnimOnceBackwards
}

// ParseAnimationMode parses a mode name, ignoring case.
func ParseAnimationMode(s string) (AnimationMode, error) {
	for i, name := range animationModeNames {
		if strings.EqualFold(s, name) {
			return AnimationMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAnimationMode, s)
}

// Animation is one entry of a state's animation list.
type Animation struct {
	Name            string
	Idle            bool    // chosen when the drawable is idle
	DistanceCovered float32 // ground distance one loop covers, for speed matching
	BlendFrames     int
}

// StateFlag is a per-state behaviour switch.
type StateFlag uint32

const (
	PristineBonePosInFinalFrame StateFlag = 1 << iota
	MaintainFrameAcrossStates
	RandomizeStartFrame
	StartFrameFirst
	StartFrameLast
	AdjustHeightByConstructionPercent
)

var stateFlagNames = []struct {
	flag StateFlag
	name string
}{
	{PristineBonePosInFinalFrame, "PRISTINE_BONE_POS_IN_FINAL_FRAME"},
	{MaintainFrameAcrossStates, "MAINTAIN_FRAME_ACROSS_STATES"},
	{RandomizeStartFrame, "RANDOMSTART"},
	{StartFrameFirst, "START_FRAME_FIRST"},
	{StartFrameLast, "START_FRAME_LAST"},
	{AdjustHeightByConstructionPercent, "ADJUST_HEIGHT_BY_CONSTRUCTION_PERCENT"},
}

// ParseStateFlag parses a flag name, ignoring case.
func ParseStateFlag(s string) (StateFlag, error) {
	for _, f := range stateFlagNames {
		if strings.EqualFold(s, f.name) {
			return f.flag, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStateFlag, s)
}

func (f StateFlag) String() string {
	var parts []string
	for _, n := range stateFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, " ")
}

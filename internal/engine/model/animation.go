package model

import (
	"github.com/Faultbox/drawstate/pkg/formats"
	"github.com/Faultbox/drawstate/pkg/math"
)

// InterpolateRotKeys interpolates rotation keyframes at the given time.
// Keys are assumed sorted by frame.
func InterpolateRotKeys(keys []formats.RSMRotKeyframe, timeMs float32) math.Quat {
	if len(keys) == 0 {
		return math.QuatIdentity()
	}
	if len(keys) == 1 {
		return math.QuatFromArray(keys[0].Quaternion)
	}

	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	if prev == next {
		return math.QuatFromArray(keys[prev].Quaternion)
	}
	q0 := math.QuatFromArray(keys[prev].Quaternion)
	q1 := math.QuatFromArray(keys[next].Quaternion)
	return q0.Slerp(q1, t)
}

// InterpolatePosKeys interpolates position keyframes at the given time.
func InterpolatePosKeys(keys []formats.RSMPosKeyframe, timeMs float32) ([3]float32, bool) {
	if len(keys) == 0 {
		return [3]float32{}, false
	}
	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	return lerp3(keys[prev].Position, keys[next].Position, t), true
}

// InterpolateScaleKeys interpolates scale keyframes at the given time.
func InterpolateScaleKeys(keys []formats.RSMScaleKeyframe, timeMs float32) [3]float32 {
	if len(keys) == 0 {
		return [3]float32{1, 1, 1}
	}
	if len(keys) == 1 {
		return keys[0].Scale
	}

	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	return lerp3(keys[prev].Scale, keys[next].Scale, t)
}

// bracket finds the keys surrounding timeMs and the blend factor between
// them. Past the last key, prev == next.
func bracket(n int, frame func(int) int32, timeMs float32) (prev, next int, t float32) {
	for i := 0; i < n; i++ {
		if float32(frame(i)) > timeMs {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frame(prev), frame(next)
	if f1 != f0 {
		t = (timeMs - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
		a[2] + t*(b[2]-a[2]),
	}
}

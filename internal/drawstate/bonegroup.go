package drawstate

import "fmt"

// BoneGroup describes numbered bone variants such as "muzzle01".."muzzle99".
type BoneGroup struct {
	MaxSuffix int // highest suffix probed
	Width     int // zero padding
}

// DefaultBoneGroup probes name01 through name99.
var DefaultBoneGroup = BoneGroup{MaxSuffix: 99, Width: 2}

// Name returns base with suffix i appended.
func (g BoneGroup) Name(base string, i int) string {
	return fmt.Sprintf("%s%0*d", base, g.Width, i)
}

// Probe calls found for base01, base02, ... and stops at the first miss
// or after MaxSuffix. It returns how many consecutive variants were found.
func (g BoneGroup) Probe(base string, found func(name string) bool) int {
	n := 0
	for i := 1; i <= g.MaxSuffix; i++ {
		if !found(g.Name(base, i)) {
			break
		}
		n++
	}
	return n
}

// RSM (Resource Model) format parser for 3D models.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Faultbox/drawstate/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
)

const (
	rsmMagic      = "GRSM"
	rsmNameLength = 40
	maxRSMNodes   = 10000
	maxRSMItems   = 100000
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord represents a texture coordinate with optional vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // RGBA vertex color (v1.2+)
	U, V  float32
}

// RSMFace represents a triangle face in a mesh.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16
	Padding     uint16
	TwoSide     int32
	SmoothGroup int32 // v1.2+
}

// RSMPosKeyframe represents a position animation keyframe.
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe represents a rotation animation keyframe.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // X, Y, Z, W
}

// RSMScaleKeyframe represents a scale animation keyframe.
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one node of the model hierarchy. Nodes double as bones:
// their names are what condition states bind to.
type RSMNode struct {
	Name       string
	Parent     string // empty for root
	TextureIDs []int32

	Matrix   [9]float32 // 3x3 rotation matrix
	Offset   [3]float32 // pivot offset, not inherited by children
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe   // v < 1.5
	RotKeys   []RSMRotKeyframe   //
	ScaleKeys []RSMScaleKeyframe // v >= 1.5
}

// HasMesh reports whether the node carries renderable geometry, which
// makes it addressable as a sub-object.
func (n *RSMNode) HasMesh() bool {
	return len(n.Faces) > 0
}

// RSMVolumeBox represents a bounding volume box.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM represents a parsed RSM (Resource Model) file.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // milliseconds
	Shading     RSMShadingType
	Alpha       float32
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// rsmReader reads little-endian fields and remembers the first short read.
type rsmReader struct {
	data []byte
	off  int
	err  error
}

func (r *rsmReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = ErrTruncatedRSMData
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *rsmReader) remaining() int { return len(r.data) - r.off }

func (r *rsmReader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *rsmReader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *rsmReader) i32() int32 {
	if b := r.take(4); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *rsmReader) f32() float32 {
	if b := r.take(4); b != nil {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *rsmReader) vec3() [3]float32 {
	return [3]float32{r.f32(), r.f32(), r.f32()}
}

func (r *rsmReader) name() string {
	return encoding.FixedStringToUTF8(r.take(rsmNameLength))
}

// count reads an element count and rejects values outside [0, max].
func (r *rsmReader) count(max int32, what string) int {
	n := r.i32()
	if r.err == nil && (n < 0 || n > max) {
		r.err = fmt.Errorf("%w: %s count %d", ErrTruncatedRSMData, what, n)
		return 0
	}
	return int(n)
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != rsmMagic {
		return nil, ErrInvalidRSMMagic
	}

	r := &rsmReader{data: data, off: 4}
	rsm := &RSM{Version: RSMVersion{Major: r.u8(), Minor: r.u8()}}

	// Versions 1.x and 2.x share the node layout handled here.
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rsm.AnimLength = r.i32()
	rsm.Shading = RSMShadingType(r.i32())
	rsm.Alpha = 1.0
	if rsm.Version.AtLeast(1, 4) {
		rsm.Alpha = float32(r.u8()) / 255.0
	}
	r.take(16) // reserved

	textureCount := r.count(maxRSMItems, "texture")
	rsm.Textures = make([]string, textureCount)
	for i := range rsm.Textures {
		rsm.Textures[i] = r.name()
	}
	rsm.RootNode = r.name()

	nodeCount := r.i32()
	if r.err != nil {
		return nil, r.err
	}
	if nodeCount < 0 || nodeCount > maxRSMNodes {
		return nil, ErrInvalidNodeCount
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		parseRSMNode(r, rsm.Version, &rsm.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, r.err)
		}
	}

	// Volume boxes are optional trailing data.
	if r.remaining() >= 4 {
		boxCount := r.count(1000, "volume box")
		boxes := make([]RSMVolumeBox, boxCount)
		for i := range boxes {
			boxes[i].Size = r.vec3()
			boxes[i].Position = r.vec3()
			boxes[i].Rotation = r.vec3()
			if rsm.Version.AtLeast(1, 3) {
				boxes[i].Flag = r.i32()
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("parsing volume boxes: %w", r.err)
		}
		if boxCount > 0 {
			rsm.VolumeBoxes = boxes
		}
	}

	return rsm, nil
}

func parseRSMNode(r *rsmReader, version RSMVersion, node *RSMNode) {
	node.Name = r.name()
	node.Parent = r.name()

	if n := r.count(maxRSMItems, "node texture"); n > 0 {
		node.TextureIDs = make([]int32, n)
		for i := range node.TextureIDs {
			node.TextureIDs[i] = r.i32()
		}
	}

	for i := range node.Matrix {
		node.Matrix[i] = r.f32()
	}
	node.Offset = r.vec3()
	node.Position = r.vec3()
	node.RotAngle = r.f32()
	node.RotAxis = r.vec3()
	node.Scale = r.vec3()

	if n := r.count(maxRSMItems, "vertex"); n > 0 {
		node.Vertices = make([][3]float32, n)
		for i := range node.Vertices {
			node.Vertices[i] = r.vec3()
		}
	}

	if n := r.count(maxRSMItems, "texcoord"); n > 0 {
		node.TexCoords = make([]RSMTexCoord, n)
		for i := range node.TexCoords {
			tc := &node.TexCoords[i]
			if version.AtLeast(1, 2) {
				copy(tc.Color[:], r.take(4))
			} else {
				tc.Color = [4]uint8{255, 255, 255, 255}
			}
			tc.U = r.f32()
			tc.V = r.f32()
		}
	}

	if n := r.count(maxRSMItems, "face"); n > 0 {
		node.Faces = make([]RSMFace, n)
		for i := range node.Faces {
			f := &node.Faces[i]
			f.VertexIDs = [3]uint16{r.u16(), r.u16(), r.u16()}
			f.TexCoordIDs = [3]uint16{r.u16(), r.u16(), r.u16()}
			f.TextureID = r.u16()
			f.Padding = r.u16()
			f.TwoSide = r.i32()
			if version.AtLeast(1, 2) {
				f.SmoothGroup = r.i32()
			}
		}
	}

	if !version.AtLeast(1, 5) {
		if n := r.count(maxRSMItems, "position key"); n > 0 {
			node.PosKeys = make([]RSMPosKeyframe, n)
			for i := range node.PosKeys {
				node.PosKeys[i] = RSMPosKeyframe{Frame: r.i32(), Position: r.vec3()}
			}
		}
	}

	if n := r.count(maxRSMItems, "rotation key"); n > 0 {
		node.RotKeys = make([]RSMRotKeyframe, n)
		for i := range node.RotKeys {
			node.RotKeys[i] = RSMRotKeyframe{
				Frame:      r.i32(),
				Quaternion: [4]float32{r.f32(), r.f32(), r.f32(), r.f32()},
			}
		}
	}

	if version.AtLeast(1, 5) {
		if n := r.count(maxRSMItems, "scale key"); n > 0 {
			node.ScaleKeys = make([]RSMScaleKeyframe, n)
			for i := range node.ScaleKeys {
				node.ScaleKeys[i] = RSMScaleKeyframe{Frame: r.i32(), Scale: r.vec3()}
			}
		}
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// GetNodeByName returns a node by its exact name, or nil if not found.
func (rsm *RSM) GetNodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// NodeIndexFold returns the index of the first node whose name matches
// name ignoring case, or -1.
func (rsm *RSM) NodeIndexFold(name string) int {
	for i := range rsm.Nodes {
		if strings.EqualFold(rsm.Nodes[i].Name, name) {
			return i
		}
	}
	return -1
}

// GetRootNode returns the root node (first node matching RootNode name).
func (rsm *RSM) GetRootNode() *RSMNode {
	return rsm.GetNodeByName(rsm.RootNode)
}

// GetChildNodes returns all nodes that have the given parent name.
func (rsm *RSM) GetChildNodes(parentName string) []*RSMNode {
	var children []*RSMNode
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Parent == parentName {
			children = append(children, &rsm.Nodes[i])
		}
	}
	return children
}

// HasAnimation returns true if the model has any animation keyframes.
func (rsm *RSM) HasAnimation() bool {
	for _, node := range rsm.Nodes {
		if len(node.PosKeys) > 0 || len(node.RotKeys) > 0 || len(node.ScaleKeys) > 0 {
			return true
		}
	}
	return false
}

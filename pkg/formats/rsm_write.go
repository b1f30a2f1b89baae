package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/drawstate/pkg/encoding"
)

// EncodeRSM serializes rsm in the layout read by ParseRSM.
// Tools and tests use it to author models without binary fixtures.
func EncodeRSM(rsm *RSM) ([]byte, error) {
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}
	if len(rsm.Nodes) > maxRSMNodes {
		return nil, ErrInvalidNodeCount
	}

	w := &rsmWriter{}
	w.buf.WriteString(rsmMagic)
	w.buf.WriteByte(rsm.Version.Major)
	w.buf.WriteByte(rsm.Version.Minor)
	w.put(rsm.AnimLength)
	w.put(int32(rsm.Shading))
	if rsm.Version.AtLeast(1, 4) {
		w.buf.WriteByte(uint8(rsm.Alpha*255 + 0.5))
	}
	w.buf.Write(make([]byte, 16))

	w.put(int32(len(rsm.Textures)))
	for _, tex := range rsm.Textures {
		w.name(tex)
	}
	w.name(rsm.RootNode)

	w.put(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		w.node(rsm.Version, &rsm.Nodes[i])
	}

	w.put(int32(len(rsm.VolumeBoxes)))
	for _, box := range rsm.VolumeBoxes {
		w.put(box.Size)
		w.put(box.Position)
		w.put(box.Rotation)
		if rsm.Version.AtLeast(1, 3) {
			w.put(box.Flag)
		}
	}

	return w.buf.Bytes(), nil
}

type rsmWriter struct {
	buf bytes.Buffer
}

func (w *rsmWriter) put(v any) {
	// bytes.Buffer writes never fail.
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *rsmWriter) name(s string) {
	w.buf.Write(encoding.UTF8ToFixedString(s, rsmNameLength))
}

func (w *rsmWriter) node(version RSMVersion, n *RSMNode) {
	w.name(n.Name)
	w.name(n.Parent)

	w.put(int32(len(n.TextureIDs)))
	w.put(n.TextureIDs)

	w.put(n.Matrix)
	w.put(n.Offset)
	w.put(n.Position)
	w.put(n.RotAngle)
	w.put(n.RotAxis)
	w.put(n.Scale)

	w.put(int32(len(n.Vertices)))
	w.put(n.Vertices)

	w.put(int32(len(n.TexCoords)))
	for _, tc := range n.TexCoords {
		if version.AtLeast(1, 2) {
			w.put(tc.Color)
		}
		w.put(tc.U)
		w.put(tc.V)
	}

	w.put(int32(len(n.Faces)))
	for _, f := range n.Faces {
		w.put(f.VertexIDs)
		w.put(f.TexCoordIDs)
		w.put(f.TextureID)
		w.put(f.Padding)
		w.put(f.TwoSide)
		if version.AtLeast(1, 2) {
			w.put(f.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		w.put(int32(len(n.PosKeys)))
		w.put(n.PosKeys)
	}

	w.put(int32(len(n.RotKeys)))
	w.put(n.RotKeys)

	if version.AtLeast(1, 5) {
		w.put(int32(len(n.ScaleKeys)))
		w.put(n.ScaleKeys)
	}
}

package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"strings"
)

// File is one entry to be packed by Write.
type File struct {
	Name    string
	Content []byte
}

// Write packs files into a version 0x200 archive. Entries are stored
// zlib-compressed and 8-byte aligned, with backslash paths like the
// archives shipped with the game.
func Write(w io.Writer, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		compressed, err := deflate(f.Content)
		if err != nil {
			return err
		}
		aligned := uint32(len(compressed))
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}
		offset := uint32(body.Len())
		body.Write(compressed)
		body.Write(make([]byte, aligned-uint32(len(compressed))))

		table.WriteString(strings.ReplaceAll(f.Name, "/", "\\"))
		table.WriteByte(0)
		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(rec[4:], aligned)
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Content)))
		rec[12] = entryFileFlag
		binary.LittleEndian.PutUint32(rec[13:], offset)
		table.Write(rec[:])
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return err
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     supportedVer,
	}
	copy(header.Magic[:], grfMagic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	sizes := []uint32{uint32(len(compressedTable)), uint32(table.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return err
	}
	_, err = w.Write(compressedTable)
	return err
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

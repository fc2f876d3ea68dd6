package writefiles

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/notargets/gofluid/grid"
)

var fieldMagic = [4]byte{'G', 'F', 'L', 'D'}

type fieldHeader struct {
	Magic                     [4]byte
	Width, Height, Components uint32
}

// WriteField dumps a field as a little endian header followed by the raw
// float32 cells in row-major order.
func WriteField(w io.Writer, r grid.Reader) (err error) {
	var (
		W, H = r.Dims()
		hdr  = fieldHeader{
			Magic:      fieldMagic,
			Width:      uint32(W),
			Height:     uint32(H),
			Components: uint32(r.Components()),
		}
	)
	if err = binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return
	}
	return binary.Write(w, binary.LittleEndian, r.Data())
}

func ReadField(rd io.Reader) (f *grid.Field, err error) {
	var (
		hdr fieldHeader
	)
	if err = binary.Read(rd, binary.LittleEndian, &hdr); err != nil {
		return
	}
	if hdr.Magic != fieldMagic {
		err = fmt.Errorf("not a field dump: magic %q", hdr.Magic[:])
		return
	}
	if f, err = grid.New(int(hdr.Width), int(hdr.Height), int(hdr.Components)); err != nil {
		return
	}
	if err = binary.Read(rd, binary.LittleEndian, f.Data()); err != nil {
		f = nil
	}
	return
}

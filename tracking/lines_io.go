package tracking

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/goki/mat32"
)

var end = binary.LittleEndian

// LinesHeader prefixes the .lines binary streamline format: a
// little-endian header, one int64 point count per line, then the packed
// float32 point triples of every line in order.
type LinesHeader struct {
	Endianness int64
	HeaderSize int64
	Lines      int64
	Points     int64
}

// WriteLines writes the streamlines to wr in .lines format.
func WriteLines(wr io.Writer, lines []*Streamline) error {
	var endFlag int64
	if end == binary.LittleEndian {
		endFlag = -1
	}

	hd := LinesHeader{}
	hd.Endianness = endFlag
	hd.HeaderSize = int64(unsafe.Sizeof(hd))
	hd.Lines = int64(len(lines))
	counts := make([]int64, len(lines))
	for i, ln := range lines {
		counts[i] = int64(ln.Len())
		hd.Points += counts[i]
	}

	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}
	if err := binary.Write(wr, end, counts); err != nil {
		return err
	}
	for _, ln := range lines {
		if err := binary.Write(wr, end, flatten(ln.Points)); err != nil {
			return err
		}
	}
	return nil
}

// ReadLines reads one .lines file from rd. The streamlines come back
// terminated: they are results, not lines in progress.
func ReadLines(rd io.Reader) ([]*Streamline, error) {
	hd := LinesHeader{}
	if err := binary.Read(rd, end, &hd); err != nil {
		return nil, err
	}
	if hd.Endianness != -1 {
		return nil, fmt.Errorf(
			"unsupported endianness flag %d", hd.Endianness,
		)
	}
	if hd.HeaderSize != int64(unsafe.Sizeof(hd)) {
		return nil, fmt.Errorf(
			"header size is %d, expected %d",
			hd.HeaderSize, unsafe.Sizeof(hd),
		)
	}
	if hd.Lines < 0 || hd.Points < 0 {
		return nil, fmt.Errorf(
			"negative line (%d) or point (%d) count", hd.Lines, hd.Points,
		)
	}

	counts := make([]int64, hd.Lines)
	if err := binary.Read(rd, end, counts); err != nil {
		return nil, err
	}

	lines := make([]*Streamline, hd.Lines)
	total := int64(0)
	for i, n := range counts {
		if n < 1 {
			return nil, fmt.Errorf("line %d has %d points", i, n)
		}
		total += n

		buf := make([]float32, 3*n)
		if err := binary.Read(rd, end, buf); err != nil {
			return nil, err
		}
		pts := make([]mat32.Vec3, n)
		for j := range pts {
			pts[j] = mat32.NewVec3(buf[3*j], buf[3*j+1], buf[3*j+2])
		}
		lines[i] = &Streamline{Points: pts, status: Terminated}
	}
	if total != hd.Points {
		return nil, fmt.Errorf(
			"header says %d points, lines hold %d", hd.Points, total,
		)
	}
	return lines, nil
}

func flatten(pts []mat32.Vec3) []float32 {
	buf := make([]float32, 0, 3*len(pts))
	for _, p := range pts {
		buf = append(buf, p.X, p.Y, p.Z)
	}
	return buf
}

// WriteLinesFile writes the streamlines to path in .lines format.
func WriteLinesFile(path string, lines []*Streamline) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLines(f, lines)
}

// ReadLinesFile reads the .lines file stored at path.
func ReadLinesFile(path string) ([]*Streamline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}

package volume

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/emer/etable/etensor"
)

var end = binary.LittleEndian

// GridHeader prefixes the .nvol binary volume format: a little-endian
// header followed by the raw float32 payload in row-major order.
type GridHeader struct {
	Endianness int64
	HeaderSize int64
	Rank       int64
	Nx, Ny, Nz int64
	Channels   int64
}

// WriteVolume writes vol to wr in .nvol format.
func WriteVolume(wr io.Writer, vol *Volume) error {
	var endFlag int64
	if end == binary.LittleEndian {
		endFlag = -1
	}

	hd := GridHeader{}
	hd.Endianness = endFlag
	hd.HeaderSize = int64(unsafe.Sizeof(hd))
	hd.Rank = int64(vol.Rank())
	hd.Nx = int64(vol.Dim(0))
	hd.Ny = int64(vol.Dim(1))
	hd.Nz = int64(vol.Dim(2))
	hd.Channels = int64(vol.Channels())

	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}
	return binary.Write(wr, end, vol.Data.Values)
}

// ReadVolume reads one .nvol volume from rd.
func ReadVolume(rd io.Reader, dev Device) (*Volume, error) {
	hd := GridHeader{}
	if err := binary.Read(rd, end, &hd); err != nil {
		return nil, err
	}
	if err := checkHeader(&hd); err != nil {
		return nil, err
	}

	shape := []int{int(hd.Nx), int(hd.Ny), int(hd.Nz)}
	if hd.Rank == 4 {
		shape = append(shape, int(hd.Channels))
	}
	data := etensor.NewFloat32(shape, nil, nil)
	if err := binary.Read(rd, end, data.Values); err != nil {
		return nil, err
	}
	return New(data, dev), nil
}

func checkHeader(hd *GridHeader) error {
	if hd.Endianness != -1 {
		return fmt.Errorf("unsupported endianness flag %d", hd.Endianness)
	}
	if hd.HeaderSize != int64(unsafe.Sizeof(*hd)) {
		return fmt.Errorf(
			"header size is %d, expected %d",
			hd.HeaderSize, unsafe.Sizeof(*hd),
		)
	}
	if hd.Rank != 3 && hd.Rank != 4 {
		return fmt.Errorf("volume rank is %d, must be 3 or 4", hd.Rank)
	}
	if hd.Nx <= 0 || hd.Ny <= 0 || hd.Nz <= 0 || hd.Channels <= 0 {
		return fmt.Errorf(
			"invalid grid dimensions (%d, %d, %d) x %d",
			hd.Nx, hd.Ny, hd.Nz, hd.Channels,
		)
	}
	if hd.Rank == 3 && hd.Channels != 1 {
		return fmt.Errorf(
			"rank-3 volume declares %d channels", hd.Channels,
		)
	}
	return nil
}

// ReadVolumeFile reads the .nvol volume stored at path.
func ReadVolumeFile(path string, dev Device) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVolume(f, dev)
}

// WriteVolumeFile writes vol to path in .nvol format.
func WriteVolumeFile(path string, vol *Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteVolume(f, vol)
}

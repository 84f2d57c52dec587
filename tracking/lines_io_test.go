package tracking

import (
	"bytes"
	"testing"

	"github.com/goki/mat32"
	"github.com/stretchr/testify/assert"
)

func TestLinesRoundTrip(t *testing.T) {
	lines := []*Streamline{
		{Points: []mat32.Vec3{{X: 0.5, Y: 1, Z: 1.5}, {X: 1, Y: 1, Z: 1.5}, {X: 1.5, Y: 1, Z: 1.5}}},
		{Points: []mat32.Vec3{{X: 4, Y: 4, Z: 4}}},
		{Points: []mat32.Vec3{{X: 2, Y: 3, Z: 4}, {X: 2, Y: 3.5, Z: 4}}},
	}

	buf := &bytes.Buffer{}
	if err := WriteLines(buf, lines); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadLines(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(got) != len(lines) {
		t.Fatalf("read %d lines, wrote %d", len(got), len(lines))
	}
	for i := range lines {
		assert.Equal(t, lines[i].Points, got[i].Points, "line %d", i)
		assert.Equal(t, Terminated, got[i].Status(), "line %d", i)
	}
}

func TestReadLinesRejectsBadHeader(t *testing.T) {
	lines := []*Streamline{
		{Points: []mat32.Vec3{{X: 1, Y: 1, Z: 1}, {X: 2, Y: 2, Z: 2}}},
	}
	buf := &bytes.Buffer{}
	if err := WriteLines(buf, lines); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw := buf.Bytes()
	raw[0] = 7 // endianness flag
	_, err := ReadLines(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestWriteEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteLines(buf, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadLines(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	assert.Len(t, got, 0)
}

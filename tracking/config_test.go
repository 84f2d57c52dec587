package tracking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/gcfg.v1"
)

func TestExampleConfigParses(t *testing.T) {
	wrap := DefaultTrackWrapper()
	if err := gcfg.ReadStringInto(wrap, ExampleTrackFile); err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if err := wrap.Tracking.CheckInit(); err != nil {
		t.Fatalf("example config does not validate: %v", err)
	}
}

func TestReadTrackConfig(t *testing.T) {
	text := `[Tracking]
Input = in.nvol
Mask = mask.nvol
Output = out.lines
Seeds = 50
Model = CopyPrev
StepSize = 0.25
Theta = 45
MinPoints = 5
MaxPoints = 80
Workers = 2
`
	path := filepath.Join(t.TempDir(), "track.cfg")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	con, err := ReadTrackConfig(path)
	if err != nil {
		t.Fatalf("config rejected: %v", err)
	}

	assert.Equal(t, "in.nvol", con.Input)
	assert.Equal(t, "CopyPrev", con.Model)
	assert.Equal(t, 0.25, con.StepSize)
	assert.Equal(t, 45.0, con.Theta)
	assert.Equal(t, 5, con.MinPoints)
	assert.Equal(t, 80, con.MaxPoints)
	assert.Equal(t, 2, con.Workers)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1, con.MaxInvalidDirs)
	assert.Equal(t, int64(1234), con.RngSeed)

	par := con.Params()
	assert.Equal(t, 5, par.MinPoints)
	assert.Equal(t, 80, par.MaxPoints)
	assert.Equal(t, 50, par.Seeds)
}

func TestConfigValidation(t *testing.T) {
	base := `[Tracking]
Input = in.nvol
Mask = mask.nvol
Output = out.lines
Seeds = 50
`
	bad := []string{
		"",                        // missing required keys entirely
		base + "Seeds = 0\n",      // no seeds
		base + "Model = RNN\n",    // unknown model
		base + "StepSize = 0\n",   // degenerate step
		base + "Theta = 360\n",    // no such cone
		base + "MinPoints = 0\n",  // too small
		base + "MaxPoints = 5\n",  // MinPoints default is 10
		base + "Workers = 0\n",    // no workers
	}

	for i, text := range bad {
		path := filepath.Join(t.TempDir(), "bad.cfg")
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadTrackConfig(path); err == nil {
			t.Errorf("config %d accepted:\n%s", i, text)
		}
	}
}

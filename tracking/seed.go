package tracking

import (
	"math/rand"

	"github.com/goki/mat32"

	"github.com/levje/dwi-ml/volume"
)

// SeedGenerator draws seed positions uniformly from the voxels of a
// seeding mask. Draws are deterministic for a given rng seed, and the
// skip parameter lets a restarted run reproduce the draws it already
// consumed.
type SeedGenerator struct {
	mask   *volume.Mask
	voxels [][3]int
}

// NewSeedGenerator indexes the set voxels of mask in scan order. Panics
// if the mask is empty: there is nowhere to seed.
func NewSeedGenerator(mask *volume.Mask) *SeedGenerator {
	vol := mask.Volume()
	voxels := [][3]int{}
	for x := 0; x < vol.Dim(0); x++ {
		for y := 0; y < vol.Dim(1); y++ {
			for z := 0; z < vol.Dim(2); z++ {
				if vol.At(x, y, z, 0) > 0.5 {
					voxels = append(voxels, [3]int{x, y, z})
				}
			}
		}
	}
	if len(voxels) == 0 {
		panic("seeding mask contains no voxels")
	}
	return &SeedGenerator{mask: mask, voxels: voxels}
}

// InitGenerator returns the rng used to draw seeds, positioned past the
// first skip draws.
func (sg *SeedGenerator) InitGenerator(rngSeed int64, skip int) *rand.Rand {
	rng := rand.New(rand.NewSource(rngSeed))
	for i := 0; i < skip; i++ {
		sg.nextPos(rng)
	}
	return rng
}

// NextNPos draws the next n seed positions. Order is reproducible for a
// fixed rng seed and skip.
func (sg *SeedGenerator) NextNPos(rng *rand.Rand, n int) []mat32.Vec3 {
	seeds := make([]mat32.Vec3, n)
	for i := range seeds {
		seeds[i] = sg.nextPos(rng)
	}
	return seeds
}

func (sg *SeedGenerator) nextPos(rng *rand.Rand) mat32.Vec3 {
	v := sg.voxels[rng.Intn(len(sg.voxels))]
	return mat32.NewVec3(
		float32(v[0])+rng.Float32(),
		float32(v[1])+rng.Float32(),
		float32(v[2])+rng.Float32(),
	)
}

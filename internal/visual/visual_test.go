package visual

import (
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/trainer"
)

func firstBatch(t *testing.T, n, size int) dataset.Batch {
	t.Helper()
	ds, err := dataset.Synthetic(n, 10, 1)
	require.NoError(t, err)
	loader, err := dataset.NewLoader(ds, size, true, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, ok := loader.Epoch().Next()
	require.True(t, ok)
	return b
}

func TestMakeGridLayout(t *testing.T) {
	batch := firstBatch(t, 4, 4)
	grid := MakeGrid(batch)
	assert.Equal(t, 4*34+2, grid.Bounds().Dx())
	assert.Equal(t, 36, grid.Bounds().Dy())

	// Padding is black.
	r, g, b, _ := grid.At(0, 0).RGBA()
	assert.Zero(t, r+g+b)

	// First pixel of the second image matches its red/green/blue planes.
	img := batch.Images.Data()[dataset.ImageSize : 2*dataset.ImageSize]
	pix := dataset.EncodeImage(nil, img)
	c := grid.RGBAAt(2+34, 2)
	assert.Equal(t, pix[0], c.R)
	assert.Equal(t, pix[1024], c.G)
	assert.Equal(t, pix[2048], c.B)
}

func TestMakeGridWraps(t *testing.T) {
	grid := MakeGrid(firstBatch(t, 10, 10))
	assert.Equal(t, 8*34+2, grid.Bounds().Dx())
	assert.Equal(t, 2*34+2, grid.Bounds().Dy())
}

func TestCaption(t *testing.T) {
	classes := dataset.Classes[:]
	assert.Equal(t, "plane   car  frog truck", Caption([]int{0, 1, 6, 9}, classes))
}

func TestSaveGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, SaveGrid(path, firstBatch(t, 4, 4), dataset.Classes[:]))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)

	assert.Error(t, SaveGrid(path, dataset.Batch{}, dataset.Classes[:]))
}

func TestLossCurve(t *testing.T) {
	curve := NewLossCurve(100)
	assert.ErrorIs(t, curve.Save(filepath.Join(t.TempDir(), "x.png")), ErrNoData)

	var obs trainer.Observer = curve
	obs.OnReport(trainer.Progress{Epoch: 1, Batch: 50, Loss: 2.3})
	obs.OnReport(trainer.Progress{Epoch: 2, Batch: 50, Loss: 1.9})
	obs.OnEpoch(1, 2.1)
	assert.Len(t, curve.reports, 2)
	assert.Len(t, curve.epochs, 1)
	assert.Equal(t, 150.0, curve.reports[1].X)
	assert.Equal(t, 100.0, curve.epochs[0].X)

	path := filepath.Join(t.TempDir(), "loss.png")
	require.NoError(t, curve.Save(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// Package visual writes the debugging images of a run: a grid of training
// samples with their labels, and the training loss curve.
package visual

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/born-ml/cifarnet/internal/dataset"
)

const (
	gridPadding = 2
	gridPerRow  = 8
	cellSize    = 96 // rendered size of one image in points
)

// MakeGrid tiles a batch of normalized [N, 3, 32, 32] images into one RGB
// image, gridPerRow per row, separated by gridPadding black pixels.
func MakeGrid(batch dataset.Batch) *image.RGBA {
	n := batch.Size()
	cols := min(n, gridPerRow)
	rows := (n + gridPerRow - 1) / gridPerRow
	if cols == 0 {
		cols, rows = 1, 1
	}
	cell := dataset.Width + gridPadding
	img := image.NewRGBA(image.Rect(0, 0, cols*cell+gridPadding, rows*(dataset.Height+gridPadding)+gridPadding))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	data := batch.Images.Data()
	plane := dataset.Height * dataset.Width
	for k := 0; k < n; k++ {
		src := data[k*dataset.ImageSize : (k+1)*dataset.ImageSize]
		pix := dataset.EncodeImage(make([]byte, 0, dataset.ImageSize), src)
		x0 := gridPadding + (k%gridPerRow)*cell
		y0 := gridPadding + (k/gridPerRow)*(dataset.Height+gridPadding)
		for y := 0; y < dataset.Height; y++ {
			for x := 0; x < dataset.Width; x++ {
				p := y*dataset.Width + x
				img.SetRGBA(x0+x, y0+y, color.RGBA{R: pix[p], G: pix[plane+p], B: pix[2*plane+p], A: 255})
			}
		}
	}
	return img
}

// Caption formats labels as space-joined, right-aligned class names.
func Caption(labels []int, classes []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%5s", classes[l])
	}
	return strings.Join(parts, " ")
}

// SaveGrid renders the batch grid with its caption as title and writes a PNG.
func SaveGrid(path string, batch dataset.Batch, classes []string) error {
	if batch.Size() == 0 {
		return fmt.Errorf("visual: empty batch")
	}
	grid := MakeGrid(batch)
	b := grid.Bounds()

	p := plot.New()
	p.Title.Text = Caption(batch.Labels, classes)
	p.HideAxes()
	p.Add(plotter.NewImage(grid, 0, 0, float64(b.Dx()), float64(b.Dy())))

	scale := vg.Length(cellSize) / vg.Length(dataset.Width+gridPadding)
	width := vg.Length(b.Dx()) * scale
	height := vg.Length(b.Dy())*scale + 3*p.Title.TextStyle.Font.Size
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("visual: save grid: %w", err)
	}
	return nil
}

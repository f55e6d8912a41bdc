// Package dataset provides the CIFAR-10 images the classifier trains and
// evaluates on.
//
// The binary distribution stores each split as fixed-size records:
//
//	<1 x label byte><1024 x red><1024 x green><1024 x blue>
//
// which is already channel-major (CHW), so a record maps directly onto a
// [3, 32, 32] slice of the image buffer after normalization.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Channels, Height and Width describe one image.
	Channels = 3
	Height   = 32
	Width    = 32

	// ImageSize is the number of values per image.
	ImageSize = Channels * Height * Width
	// RecordSize is one label byte followed by the image bytes.
	RecordSize = ImageSize + 1

	// NumClasses is the fixed label count.
	NumClasses = 10

	// BatchesDir is the directory the archive extracts to.
	BatchesDir = "cifar-10-batches-bin"
	metaFile   = "batches.meta.txt"
)

// Classes are the short display names of the ten labels, in label order.
var Classes = [NumClasses]string{
	"plane", "car", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

var (
	// ErrRetrieval is returned when the dataset cannot be obtained or decoded.
	ErrRetrieval = errors.New("dataset: retrieval failed")
	// ErrCorrupt marks batch files with truncated records or bad labels.
	ErrCorrupt = errors.New("dataset: corrupt batch file")
)

// Split selects the train or test partition.
type Split int

const (
	Train Split = iota
	Test
)

func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// Files returns the batch file names that make up the split.
func (s Split) Files() []string {
	switch s {
	case Train:
		return []string{
			"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin",
			"data_batch_4.bin", "data_batch_5.bin",
		}
	case Test:
		return []string{"test_batch.bin"}
	default:
		return nil
	}
}

// Sample is a read-only view of one image and its label.
type Sample struct {
	Image []float32 // [3*32*32] normalized, CHW
	Label int
}

// Dataset holds normalized images in one flat buffer plus their labels.
type Dataset struct {
	images []float32
	labels []int
}

// New builds a dataset from a flat image buffer and labels.
func New(images []float32, labels []int) (*Dataset, error) {
	if len(images) != len(labels)*ImageSize {
		return nil, fmt.Errorf("dataset: %d values for %d labels", len(images), len(labels))
	}
	for i, l := range labels {
		if l < 0 || l >= NumClasses {
			return nil, fmt.Errorf("dataset: label %d at %d out of range", l, i)
		}
	}
	return &Dataset{images: images, labels: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.labels)
}

// Sample returns the i-th image and label.
func (d *Dataset) Sample(i int) Sample {
	return Sample{Image: d.images[i*ImageSize : (i+1)*ImageSize], Label: d.labels[i]}
}

// Subset returns the first n samples. n <= 0 or n >= Len returns d.
func (d *Dataset) Subset(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return &Dataset{images: d.images[:n*ImageSize], labels: d.labels[:n]}
}

// ClassCounts returns how many samples carry each label.
func (d *Dataset) ClassCounts() [NumClasses]int {
	var counts [NumClasses]int
	for _, l := range d.labels {
		counts[l]++
	}
	return counts
}

// Load decodes the split's batch files from root/cifar-10-batches-bin.
func Load(root string, split Split) (*Dataset, error) {
	files := split.Files()
	if files == nil {
		return nil, fmt.Errorf("%w: unknown split %v", ErrRetrieval, split)
	}
	ds := &Dataset{}
	for _, name := range files {
		path := filepath.Join(root, BatchesDir, name)
		if err := ds.appendFile(path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
	}
	return ds, nil
}

func (d *Dataset) appendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.decode(bufio.NewReader(f), path)
}

// decode reads records until EOF.
func (d *Dataset) decode(r io.Reader, name string) error {
	record := make([]byte, RecordSize)
	for n := 0; ; n++ {
		_, err := io.ReadFull(r, record)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s: truncated record %d", ErrCorrupt, name, n)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		label := int(record[0])
		if label >= NumClasses {
			return fmt.Errorf("%w: %s: record %d has label %d", ErrCorrupt, name, n, label)
		}
		d.labels = append(d.labels, label)
		d.images = DecodeImage(d.images, record[1:])
	}
}

// ReadClassNames reads the label names shipped with the archive. When the
// metadata file is absent it falls back to Classes.
func ReadClassNames(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, BatchesDir, metaFile))
	if errors.Is(err, os.ErrNotExist) {
		return append([]string(nil), Classes[:]...), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(names) != NumClasses {
		return nil, fmt.Errorf("%w: %s lists %d classes", ErrCorrupt, metaFile, len(names))
	}
	return names, nil
}

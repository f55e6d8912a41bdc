package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecords returns n binary records whose label is i%10 and whose pixels
// all equal byte(i).
func fakeRecords(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteByte(byte(i % NumClasses))
		buf.Write(bytes.Repeat([]byte{byte(i)}, ImageSize))
	}
	return buf.Bytes()
}

// writeBatches creates every batch file under root with n records each.
func writeBatches(t *testing.T, root string, n int) {
	t.Helper()
	dir := filepath.Join(root, BatchesDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range append(Train.Files(), Test.Files()...) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), fakeRecords(n), 0o644))
	}
}

func TestNormalizeRange(t *testing.T) {
	assert.Equal(t, float32(-1), Normalize(0))
	assert.Equal(t, float32(0), Normalize(0.5))
	assert.Equal(t, float32(1), Normalize(1))

	for _, v := range []float32{0, 0.1, 0.25, 0.5, 0.9, 1} {
		assert.InDelta(t, v, Denormalize(Normalize(v)), 1e-6)
	}
}

func TestEncodeImageRoundTrip(t *testing.T) {
	raw := []byte{0, 1, 127, 128, 254, 255}
	assert.Equal(t, raw, EncodeImage(nil, DecodeImage(nil, raw)))
	assert.Equal(t, []byte{0, 255}, EncodeImage(nil, []float32{-3, 3}))
}

func TestLoadSplits(t *testing.T) {
	root := t.TempDir()
	writeBatches(t, root, 3)

	train, err := Load(root, Train)
	require.NoError(t, err)
	assert.Equal(t, 15, train.Len())

	test, err := Load(root, Test)
	require.NoError(t, err)
	require.Equal(t, 3, test.Len())

	s := test.Sample(2)
	assert.Equal(t, 2, s.Label)
	assert.Len(t, s.Image, ImageSize)
	assert.InDelta(t, Normalize(2.0/255), s.Image[0], 1e-6)
	assert.InDelta(t, Normalize(2.0/255), s.Image[ImageSize-1], 1e-6)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), Test)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadTruncatedRecord(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, BatchesDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data := fakeRecords(2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_batch.bin"), data[:len(data)-10], 0o644))

	_, err := Load(root, Test)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadBadLabel(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, BatchesDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data := fakeRecords(1)
	data[0] = 42
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_batch.bin"), data, 0o644))

	_, err := Load(root, Test)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReadClassNames(t *testing.T) {
	root := t.TempDir()
	names, err := ReadClassNames(root)
	require.NoError(t, err)
	assert.Equal(t, Classes[:], names)

	dir := filepath.Join(root, BatchesDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	meta := "airplane\nautomobile\nbird\ncat\ndeer\ndog\nfrog\nhorse\nship\ntruck\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFile), []byte(meta), 0o644))

	names, err = ReadClassNames(root)
	require.NoError(t, err)
	assert.Equal(t, "automobile", names[1])
	assert.Len(t, names, NumClasses)

	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFile), []byte("a\nb\n"), 0o644))
	_, err = ReadClassNames(root)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoaderVisitsEachSampleOncePerEpoch(t *testing.T) {
	ds, err := Synthetic(10, 10, 1)
	require.NoError(t, err)
	loader, err := NewLoader(ds, 4, true, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Equal(t, 3, loader.NumBatches())

	var orders [][]int
	for epoch := 0; epoch < 2; epoch++ {
		it := loader.Epoch()
		var labels, sizes []int
		for {
			b, ok := it.Next()
			if !ok {
				break
			}
			sizes = append(sizes, b.Size())
			assert.Equal(t, []int{b.Size(), Channels, Height, Width}, []int(b.Images.Shape()))
			labels = append(labels, b.Labels...)
		}
		assert.Equal(t, []int{4, 4, 2}, sizes)
		orders = append(orders, append([]int(nil), labels...))
		sort.Ints(labels)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, labels)
	}
	assert.NotEqual(t, orders[0], orders[1])
}

func TestLoaderFixedOrder(t *testing.T) {
	ds, err := Synthetic(6, 3, 1)
	require.NoError(t, err)
	loader, err := NewLoader(ds, 4, false, nil)
	require.NoError(t, err)

	for range 2 {
		it := loader.Epoch()
		b, ok := it.Next()
		require.True(t, ok)
		assert.Equal(t, []int{0, 1, 2, 0}, b.Labels)
		assert.Equal(t, ds.Sample(1).Image, b.Images.Data()[ImageSize:2*ImageSize])
	}
}

func TestNewLoaderValidation(t *testing.T) {
	ds, _ := Synthetic(4, 2, 1)
	_, err := NewLoader(ds, 0, false, nil)
	assert.Error(t, err)
	_, err = NewLoader(ds, 4, true, nil)
	assert.Error(t, err)
}

func TestSyntheticDeterministicAndBalanced(t *testing.T) {
	a, err := Synthetic(20, 4, 9)
	require.NoError(t, err)
	b, err := Synthetic(20, 4, 9)
	require.NoError(t, err)

	assert.Equal(t, a.images, b.images)
	counts := a.ClassCounts()
	assert.Equal(t, [NumClasses]int{5, 5, 5, 5}, counts)
	for _, v := range a.images {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}

	_, err = Synthetic(4, 0, 1)
	assert.Error(t, err)
	_, err = Synthetic(4, 11, 1)
	assert.Error(t, err)
}

func TestSubset(t *testing.T) {
	ds, _ := Synthetic(10, 5, 1)
	assert.Equal(t, 4, ds.Subset(4).Len())
	assert.Same(t, ds, ds.Subset(0))
	assert.Same(t, ds, ds.Subset(100))
}

func TestNewRejectsMismatch(t *testing.T) {
	_, err := New(make([]float32, ImageSize), []int{0, 1})
	assert.Error(t, err)
	_, err = New(make([]float32, ImageSize), []int{12})
	assert.Error(t, err)
}

// archive builds a gzipped tar holding every batch file with n records each.
func archive(t *testing.T, n int, extra map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: BatchesDir + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
	write := func(name string, data []byte) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(data)),
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	for _, name := range append(Train.Files(), Test.Files()...) {
		write(BatchesDir+"/"+name, fakeRecords(n))
	}
	for name, body := range extra {
		write(name, []byte(body))
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func serve(t *testing.T, body []byte, status int) (*httptest.Server, *int) {
	t.Helper()
	hits := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hits++
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestFetchDownloadsAndReuses(t *testing.T) {
	body := archive(t, 2, map[string]string{BatchesDir + "/" + metaFile: strings.Join(Classes[:], "\n")})
	sum := sha256.Sum256(body)
	srv, hits := serve(t, body, http.StatusOK)
	root := filepath.Join(t.TempDir(), "data")

	var log bytes.Buffer
	opts := FetchOptions{URL: srv.URL, SHA256: hex.EncodeToString(sum[:]), Log: &log}
	require.NoError(t, Fetch(context.Background(), root, opts))
	assert.True(t, Present(root))
	assert.Contains(t, log.String(), "Downloading")

	test, err := Load(root, Test)
	require.NoError(t, err)
	assert.Equal(t, 2, test.Len())

	log.Reset()
	require.NoError(t, Fetch(context.Background(), root, opts))
	assert.Equal(t, 1, *hits)
	assert.Contains(t, log.String(), "Files already downloaded and verified")
}

func TestFetchHTTPError(t *testing.T) {
	srv, _ := serve(t, nil, http.StatusNotFound)
	err := Fetch(context.Background(), t.TempDir(), FetchOptions{URL: srv.URL})
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestFetchDigestMismatch(t *testing.T) {
	srv, _ := serve(t, archive(t, 1, nil), http.StatusOK)
	root := t.TempDir()
	err := Fetch(context.Background(), root, FetchOptions{URL: srv.URL, SHA256: strings.Repeat("0", 64)})
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.False(t, Present(root))
}

func TestFetchRejectsEscapingEntries(t *testing.T) {
	srv, _ := serve(t, archive(t, 1, map[string]string{"../evil.txt": "x"}), http.StatusOK)
	root := filepath.Join(t.TempDir(), "data")
	err := Fetch(context.Background(), root, FetchOptions{URL: srv.URL})
	assert.ErrorIs(t, err, ErrRetrieval)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "evil.txt"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestFetchNotAnArchive(t *testing.T) {
	srv, _ := serve(t, []byte("not gzip"), http.StatusOK)
	err := Fetch(context.Background(), t.TempDir(), FetchOptions{URL: srv.URL})
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestFetchCanceled(t *testing.T) {
	srv, _ := serve(t, archive(t, 1, nil), http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Fetch(ctx, t.TempDir(), FetchOptions{URL: srv.URL})
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, context.Canceled)
}

package dataset

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultURL is the upstream location of the binary archive.
const DefaultURL = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"

// FetchOptions controls Fetch.
type FetchOptions struct {
	URL    string       // archive location, DefaultURL when empty
	SHA256 string       // expected archive digest (hex); unchecked when empty
	Client *http.Client // http.DefaultClient when nil
	Log    io.Writer    // progress messages; discarded when nil
}

// Present reports whether every batch file exists under root.
func Present(root string) bool {
	files := append(Train.Files(), Test.Files()...)
	for _, name := range files {
		info, err := os.Stat(filepath.Join(root, BatchesDir, name))
		if err != nil || info.Size() == 0 {
			return false
		}
	}
	return true
}

// Fetch makes sure the extracted batch files exist under root, downloading
// and unpacking the archive when they do not. Every failure wraps ErrRetrieval.
func Fetch(ctx context.Context, root string, opts FetchOptions) error {
	logw := opts.Log
	if logw == nil {
		logw = io.Discard
	}
	if Present(root) {
		fmt.Fprintln(logw, "Files already downloaded and verified")
		return nil
	}

	url := opts.URL
	if url == "" {
		url = DefaultURL
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	fmt.Fprintf(logw, "Downloading %s to %s\n", url, root)
	if err := download(ctx, client, url, root, opts.SHA256); err != nil {
		_ = os.RemoveAll(filepath.Join(root, BatchesDir))
		return fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if !Present(root) {
		return fmt.Errorf("%w: archive from %s lacks %s batch files", ErrRetrieval, url, BatchesDir)
	}
	return nil
}

func download(ctx context.Context, client *http.Client, url, root, digest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %s", url, resp.Status)
	}

	h := sha256.New()
	if err := extract(io.TeeReader(resp.Body, h), root); err != nil {
		return err
	}
	// Drain trailing padding so the digest covers the whole archive.
	if _, err := io.Copy(h, resp.Body); err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	if digest != "" {
		if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, digest) {
			return fmt.Errorf("archive digest %s, want %s", got, digest)
		}
	}
	return nil
}

// extract unpacks regular files from a gzipped tar stream into root.
func extract(r io.Reader, root string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	base, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		target := filepath.Join(base, filepath.FromSlash(hdr.Name))
		if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
			return fmt.Errorf("tar entry %q escapes %s", hdr.Name, root)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			// links and devices are not part of the archive
		}
	}
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

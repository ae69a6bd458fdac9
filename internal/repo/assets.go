package repo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AssetKind selects the directory a generated asset is stored in.
type AssetKind string

const (
	// AssetImages holds generated egg and creature images.
	AssetImages AssetKind = "images"
	// AssetAudio holds synthesized creature sounds.
	AssetAudio AssetKind = "audio"
)

// ErrBadAssetName is returned for filenames that would escape the asset
// directory.
var ErrBadAssetName = errors.New("invalid asset filename")

// AssetStore writes generated binaries below Root and maps them to the public
// paths the HTTP layer serves (/static/<kind>/<file>).
type AssetStore struct {
	Root      string
	URLPrefix string
}

// NewAssetStore creates the images and audio directories under root.
func NewAssetStore(root string) (*AssetStore, error) {
	for _, k := range []AssetKind{AssetImages, AssetAudio} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", k, err)
		}
	}
	return &AssetStore{Root: root, URLPrefix: "/static"}, nil
}

// NewImageName returns a unique PNG filename such as "egg_<uuid>.png".
func NewImageName(prefix string) string {
	return prefix + "_" + uuid.NewString() + ".png"
}

// Save streams r into <Root>/<kind>/<filename> and returns the public path.
// A partially written file is removed on error.
func (a *AssetStore) Save(kind AssetKind, filename string, r io.Reader) (string, error) {
	full, err := a.Path(kind, filename)
	if err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", err
	}
	return a.PublicURL(kind, filename), nil
}

// PublicURL maps a stored asset to its served path.
func (a *AssetStore) PublicURL(kind AssetKind, filename string) string {
	return path.Join(a.URLPrefix, string(kind), filename)
}

// Path resolves filename inside the kind directory, rejecting anything that
// is not a plain file name.
func (a *AssetStore) Path(kind AssetKind, filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || filepath.Base(filename) != filename {
		return "", ErrBadAssetName
	}
	return filepath.Join(a.Root, string(kind), filename), nil
}

// Lookup returns the on-disk path of an existing asset, or ErrNotFound.
func (a *AssetStore) Lookup(kind AssetKind, filename string) (string, error) {
	full, err := a.Path(kind, filename)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(full)
	if err != nil || st.IsDir() {
		return "", ErrNotFound
	}
	return full, nil
}

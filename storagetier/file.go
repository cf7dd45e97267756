package storagetier

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
)

// FileTier stores each key as one file under a directory, giving flow
// records durability across process restarts. Keys are base64url encoded
// to form safe file names.
type FileTier struct {
	name Name
	dir  string
}

// DefaultFileDir returns the conventional on-disk location for the
// persistent tier, under the user data directory.
func DefaultFileDir() string {
	return filepath.Join(xdg.DataHome, "authflow", "state")
}

// NewFileTier creates a file-backed tier rooted at dir. An empty dir uses
// DefaultFileDir; an empty name defaults to Persistent. The directory is
// created lazily on first write.
func NewFileTier(dir string, name Name) *FileTier {
	if dir == "" {
		dir = DefaultFileDir()
	}
	if name == "" {
		name = Persistent
	}
	return &FileTier{name: name, dir: dir}
}

// Name implements Tier.
func (f *FileTier) Name() Name {
	return f.name
}

func (f *FileTier) pathFor(key string) string {
	return filepath.Join(f.dir, base64.RawURLEncoding.EncodeToString([]byte(key)))
}

// SetItem implements Tier.
func (f *FileTier) SetItem(key, value string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileTier.SetItem] create state dir")
	}
	if err := os.WriteFile(f.pathFor(key), []byte(value), 0o600); err != nil {
		return errors.Wrap(err, "[FileTier.SetItem] write")
	}
	return nil
}

// GetItem implements Tier.
func (f *FileTier) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(f.pathFor(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[FileTier.GetItem] read")
	}
	return string(data), true, nil
}

// RemoveItem implements Tier.
func (f *FileTier) RemoveItem(key string) error {
	err := os.Remove(f.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileTier.RemoveItem] remove")
	}
	return nil
}

// Keys implements Tier.
func (f *FileTier) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileTier.Keys] read dir")
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(entry.Name())
		if err != nil {
			// Not one of ours.
			continue
		}
		if key := string(decoded); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Available implements Tier. Probes that the state directory exists or can
// be created, without writing any record data.
func (f *FileTier) Available() bool {
	return os.MkdirAll(f.dir, 0o700) == nil
}

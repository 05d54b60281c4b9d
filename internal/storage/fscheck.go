package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SQLite's locking is unreliable over these.
var networkFilesystems = []string{"afpfs", "cifs", "nfs", "smbfs", "smb2", "webdav"}

// detectFS is swapped out in tests.
var detectFS = detectFilesystemType

// checkLocalFilesystem refuses database paths that live on a network mount.
// The path need not exist yet; its nearest existing ancestor is inspected.
func checkLocalFilesystem(path string, detect func(string) (string, error)) error {
	if path == "" {
		return errors.New("sqlite path is empty")
	}

	existing, err := nearestExistingPath(path)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", path, err)
	}

	fsType, err := detect(existing)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", existing, err)
	}
	if isNetworkFilesystem(fsType) {
		return fmt.Errorf("approval log %q is on network filesystem %q; SQLite needs local disk, point service.state_dir at a local path", path, fsType)
	}
	return nil
}

func nearestExistingPath(path string) (string, error) {
	candidate, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	for {
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("no existing parent for %q", path)
		}
		candidate = parent
	}
}

func isNetworkFilesystem(fsType string) bool {
	return slices.Contains(networkFilesystems, strings.ToLower(strings.TrimSpace(fsType)))
}

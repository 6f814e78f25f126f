package store

import (
	"os"
	"path/filepath"
)

// filePerm is the mode of written files.
const filePerm = 0o644

// writeFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename. On failure the temporary file is removed
// and any existing file at path is left untouched.
func writeFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) //nolint:errcheck
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package capability

import (
	"errors"
	"io/fs"
	"os"

	"github.com/kjk/common/atomicfile"
)

const defaultMode fs.FileMode = 0644

// writeFileAtomic replaces path with data. The destination keeps its
// permission bits; a new file gets defaultMode.
func writeFileAtomic(path string, data []byte) error {
	mode := defaultMode
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// the temp file is created 0600; the content is already in place, so a
	// failed chmod does not fail the write
	_ = os.Chmod(path, mode)
	return nil
}

// CreateEmpty atomically creates path holding an empty JSON array. It fails
// if path already exists.
func CreateEmpty(path string) error {
	if _, err := os.Stat(path); err == nil {
		return &os.PathError{Op: "create", Path: path, Err: os.ErrExist}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return writeFileAtomic(path, []byte("[]\n"))
}

package patch

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const tmpPrefix = ".gemstrap-tmp-"

// WriteFileAtomic writes data to name through a temp file in the same
// directory followed by a rename, so readers see either the old content or
// the new content and never a partial write. On failure the original file is
// left unchanged. The parent directory must exist.
func WriteFileAtomic(fsys billy.Filesystem, name string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(name)

	f, err := util.TempFile(fsys, dir, tmpPrefix)
	if err != nil {
		return err
	}
	tmpName := f.Name()

	success := false
	defer func() {
		if !success {
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if ch, ok := fsys.(billy.Change); ok {
		if err := ch.Chmod(tmpName, perm); err != nil {
			return err
		}
	}

	if err := fsys.Rename(tmpName, name); err != nil {
		return err
	}

	success = true
	return nil
}

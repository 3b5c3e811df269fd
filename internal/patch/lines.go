package patch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/riboseinc/gemstrap/internal/apperr"
)

// EnsureLines appends every line that is not already present in path,
// comparing trimmed lines. The file is created when missing. Calling it again
// with the same lines is a no-op.
func (p *Patcher) EnsureLines(path string, lines ...string) error {
	raw, err := util.ReadFile(p.fs, path)
	if err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindPatch, "reading "+path, err)
	}
	content := string(raw)

	present := make(map[string]bool)
	for _, l := range strings.Split(content, "\n") {
		present[strings.TrimSpace(l)] = true
	}

	var missing []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || present[l] {
			continue
		}
		present[l] = true
		missing = append(missing, l)
	}
	if len(missing) == 0 {
		return nil
	}

	// Ensure there's a newline before our addition.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"

	if dir := filepath.Dir(path); dir != "." {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return apperr.Wrap(apperr.KindPatch, "creating "+dir, err)
		}
	}
	if err := p.write(path, []byte(content)); err != nil {
		return apperr.Wrap(apperr.KindPatch, "writing "+path, err)
	}
	p.log.Debug().Str("file", path).Strs("lines", missing).Msg("lines appended")
	return nil
}

package patch

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
)

const defaultPerm os.FileMode = 0o644

// Patcher applies rules to files inside one project tree.
type Patcher struct {
	fs     billy.Filesystem
	fields Fields
	log    zerolog.Logger
}

// New returns a Patcher over fsys whose templates draw from fields.
func New(fsys billy.Filesystem, fields Fields, log zerolog.Logger) *Patcher {
	cp := make(Fields, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Patcher{fs: fsys, fields: cp, log: log}
}

// Apply reads path, runs rules in order and writes the result back only if
// every rule succeeded. A mandatory rule that matches nothing fails the whole
// call with a KindPatch error and the file is not touched.
func (p *Patcher) Apply(path string, rules []Rule) error {
	raw, err := util.ReadFile(p.fs, path)
	if err != nil {
		return apperr.Wrap(apperr.KindPatch, "reading "+path, err)
	}

	before := string(raw)
	content := before
	for _, r := range rules {
		c, err := r.compile(p.fields)
		if err != nil {
			return apperr.Wrap(apperr.KindPatch, "preparing rules for "+path, err)
		}
		var n int
		content, n = c.apply(content)
		p.log.Trace().Str("file", path).Str("rule", r.Name).Int("matches", n).Msg("rule applied")
		if n == 0 && r.Mandatory {
			return apperr.WrapWithDetails(apperr.KindPatch,
				"mandatory rule "+r.Name+" matched nothing in "+path, nil,
				map[string]string{"file": path, "rule": r.Name})
		}
	}

	if content == before {
		p.log.Debug().Str("file", path).Msg("already up to date")
		return nil
	}

	if err := p.write(path, []byte(content)); err != nil {
		return apperr.Wrap(apperr.KindPatch, "writing "+path, err)
	}
	if ev := p.log.Debug(); ev.Enabled() {
		ev.Str("file", path).Str("diff", Diff(path, before, content)).Msg("patched")
	}
	return nil
}

// write replaces path atomically, keeping its permissions.
func (p *Patcher) write(path string, data []byte) error {
	perm := defaultPerm
	if info, err := p.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return errors.Wrap(WriteFileAtomic(p.fs, path, data, perm), "atomic write")
}

package configdoc

import (
	"bytes"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/patch"
)

// ErrNotScalarList is returned by SortDedup when a list holds mappings or
// sequences. Compound lists keep their append order.
var ErrNotScalarList = errors.New("list contains non-scalar elements")

// ErrTypeMismatch is returned when a key path runs through a value of the
// wrong kind, e.g. appending to a scalar.
var ErrTypeMismatch = errors.New("unexpected value type")

// Document is a parsed YAML mapping bound to a file path.
type Document struct {
	path string
	root *yaml.Node
}

// Load reads and parses path from fsys. A missing or malformed file, or one
// whose top level is not a mapping, is a KindParse error. An empty file
// loads as an empty mapping.
func Load(fsys billy.Filesystem, path string) (*Document, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, "reading "+path, err)
	}
	return Parse(path, data)
}

// Parse builds a Document from data. path is only used for messages and Save.
func Parse(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, "parsing "+path, err)
	}

	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, apperr.New(apperr.KindParse, path+": expected a single YAML document")
	}
	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		root.Content[0] = newMapping()
		top = root.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, apperr.New(apperr.KindParse, path+": top level must be a mapping")
	}

	return &Document{path: path, root: &root}, nil
}

// New returns an empty document that will be saved to path.
func New(path string) *Document {
	return &Document{
		path: path,
		root: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}},
	}
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// EnsureDefault sets keyPath to value only when the key is absent.
// Intermediate mappings are created as needed.
func (d *Document) EnsureDefault(keyPath string, value any) error {
	parent, key, err := d.parentOf(keyPath, true)
	if err != nil {
		return err
	}
	if lookup(parent, key) != nil {
		return nil
	}
	node, err := toNode(value)
	if err != nil {
		return errors.Wrapf(err, "encoding default for %s", keyPath)
	}
	parent.Content = append(parent.Content, keyNode(key), node)
	return nil
}

// AppendUnique appends each item to the list at keyPath unless an equal
// value is already there. The list is created when missing. Items may be
// scalars or compound values such as maps. Scalars compare by their text,
// so an unquoted 2.6 already in the list matches the string "2.6".
func (d *Document) AppendUnique(keyPath string, items ...any) error {
	parent, key, err := d.parentOf(keyPath, true)
	if err != nil {
		return err
	}

	seq := lookup(parent, key)
	if seq == nil {
		seq = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		parent.Content = append(parent.Content, keyNode(key), seq)
	}
	if seq.Kind != yaml.SequenceNode {
		return errors.Wrapf(ErrTypeMismatch, "%s is not a list", keyPath)
	}

	for _, item := range items {
		node, err := toNode(item)
		if err != nil {
			return errors.Wrapf(err, "encoding item for %s", keyPath)
		}
		found, err := containsNode(seq.Content, node)
		if err != nil {
			return errors.Wrapf(err, "decoding %s", keyPath)
		}
		if !found {
			seq.Content = append(seq.Content, node)
		}
	}
	return nil
}

// SortDedup sorts the scalar list at keyPath and drops repeated values.
// A missing key is a no-op. A list with compound elements is rejected with
// ErrNotScalarList and left unchanged.
func (d *Document) SortDedup(keyPath string) error {
	parent, key, err := d.parentOf(keyPath, false)
	if err != nil {
		return err
	}
	if parent == nil {
		return nil
	}
	seq := lookup(parent, key)
	if seq == nil {
		return nil
	}
	if seq.Kind != yaml.SequenceNode {
		return errors.Wrapf(ErrTypeMismatch, "%s is not a list", keyPath)
	}
	for _, child := range seq.Content {
		if child.Kind != yaml.ScalarNode {
			return errors.Wrapf(ErrNotScalarList, "sorting %s", keyPath)
		}
	}
	seq.Content = sortDedupScalars(seq.Content)
	return nil
}

// Get decodes the value at keyPath.
func (d *Document) Get(keyPath string) (any, bool) {
	parent, key, err := d.parentOf(keyPath, false)
	if err != nil || parent == nil {
		return nil, false
	}
	node := lookup(parent, key)
	if node == nil {
		return nil, false
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Strings returns the scalar list at keyPath as strings, in document order.
func (d *Document) Strings(keyPath string) ([]string, error) {
	parent, key, err := d.parentOf(keyPath, false)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}
	seq := lookup(parent, key)
	if seq == nil {
		return nil, nil
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s is not a list", keyPath)
	}
	out := make([]string, 0, len(seq.Content))
	for _, child := range seq.Content {
		if child.Kind != yaml.ScalarNode {
			return nil, errors.Wrapf(ErrNotScalarList, "reading %s", keyPath)
		}
		out = append(out, child.Value)
	}
	return out, nil
}

// Delete removes keyPath. Returns whether the key existed.
func (d *Document) Delete(keyPath string) bool {
	parent, key, err := d.parentOf(keyPath, false)
	if err != nil || parent == nil {
		return false
	}
	for i := 0; i+1 < len(parent.Content); i += 2 {
		if parent.Content[i].Value == key {
			parent.Content = append(parent.Content[:i], parent.Content[i+2:]...)
			return true
		}
	}
	return false
}

// Bytes serializes the document with 2-space indentation. Key order is the
// load order followed by keys added since, so identical input and identical
// operations always produce identical bytes.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, errors.Wrapf(err, "encoding %s", d.path)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "encoding %s", d.path)
	}
	return buf.Bytes(), nil
}

// Save writes the document back to the path it was loaded from.
func (d *Document) Save(fsys billy.Filesystem) error {
	return d.SaveAs(fsys, d.path)
}

// SaveAs writes the document to path atomically.
func (d *Document) SaveAs(fsys billy.Filesystem, path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := fsys.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := patch.WriteFileAtomic(fsys, path, data, perm); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// parentOf walks every segment of keyPath but the last and returns the
// mapping that holds the final key. With create set, missing mappings are
// added; otherwise a missing segment yields a nil parent.
func (d *Document) parentOf(keyPath string, create bool) (*yaml.Node, string, error) {
	segs, err := splitKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}

	node := d.root.Content[0]
	for _, seg := range segs[:len(segs)-1] {
		next := lookup(node, seg)
		if next == nil {
			if !create {
				return nil, "", nil
			}
			next = newMapping()
			node.Content = append(node.Content, keyNode(seg), next)
		}
		if next.Kind != yaml.MappingNode {
			return nil, "", errors.Wrapf(ErrTypeMismatch, "%s: segment %q is not a mapping", keyPath, seg)
		}
		node = next
	}
	return node, segs[len(segs)-1], nil
}

func splitKeyPath(keyPath string) ([]string, error) {
	segs := strings.Split(keyPath, ".")
	for _, s := range segs {
		if s == "" {
			return nil, errors.Errorf("invalid key path %q", keyPath)
		}
	}
	return segs, nil
}

// lookup returns the value node for key in mapping m, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func toNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

// containsNode reports whether n equals one of nodes. Scalars compare by
// value text; compound nodes compare by their decoded contents.
func containsNode(nodes []*yaml.Node, n *yaml.Node) (bool, error) {
	var want any
	if n.Kind != yaml.ScalarNode {
		if err := n.Decode(&want); err != nil {
			return false, err
		}
	}
	for _, e := range nodes {
		if n.Kind == yaml.ScalarNode {
			if e.Kind == yaml.ScalarNode && e.Value == n.Value {
				return true, nil
			}
			continue
		}
		if e.Kind != n.Kind {
			continue
		}
		var got any
		if err := e.Decode(&got); err != nil {
			return false, err
		}
		if cmp.Equal(got, want) {
			return true, nil
		}
	}
	return false, nil
}

// Package dataset implements the clip container: a hierarchical store of
// named groups, each holding attributes and numeric arrays. On disk a file is
// a zip archive with one NumPy .npy entry per array and a .attrs.json entry
// per group, so downstream Python trainers can read the arrays directly.
package dataset

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// FileExt is the extension of container files.
const FileExt = ".npz"

const (
	attrsEntry = ".attrs.json"
	arrayExt   = ".npy"
)

// A File is an open container. A file is either created for writing or opened
// for reading, never both.
type File struct {
	path string

	// write mode
	osFile *os.File
	zw     *zip.Writer
	groups map[string]*Group
	order  []string

	// read mode
	zr      *zip.ReadCloser
	entries map[string]*zip.File
}

// A Group is a named node of a container created for writing. Attributes set
// on it are flushed when the file is closed.
type Group struct {
	file  *File
	path  string
	attrs map[string]interface{}
}

// Create creates a new container file, truncating any existing file.
func Create(path string) (*File, error) {
	osFile, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating container")
	}
	return &File{
		path:   path,
		osFile: osFile,
		zw:     zip.NewWriter(osFile),
		groups: map[string]*Group{},
	}, nil
}

// Open opens an existing container file for reading.
func Open(path string) (*File, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening container %s", path)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, entry := range zr.File {
		entries[entry.Name] = entry
	}
	return &File{path: path, zr: zr, entries: entries}, nil
}

// Close flushes pending group attributes (write mode) and releases the file.
func (f *File) Close() error {
	if f.zr != nil {
		return f.zr.Close()
	}
	var err error
	for _, path := range f.order {
		err = multierr.Combine(err, f.writeAttrs(f.groups[path]))
	}
	err = multierr.Combine(err, f.zw.Close(), f.osFile.Close())
	return err
}

// CreateGroup creates a named group. Nested groups are addressed with
// slash-separated paths; group names are unique within a file.
func (f *File) CreateGroup(path string) (*Group, error) {
	if f.zw == nil {
		return nil, errors.Errorf("container %s is read only", f.path)
	}
	if _, ok := f.groups[path]; ok {
		return nil, errors.Errorf("group %q already exists", path)
	}
	g := &Group{file: f, path: path, attrs: map[string]interface{}{}}
	f.groups[path] = g
	f.order = append(f.order, path)
	return g, nil
}

// SetIntAttr sets an integer attribute on the group.
func (g *Group) SetIntAttr(name string, v int) {
	g.attrs[name] = v
}

// SetFloatAttr sets a float attribute on the group.
func (g *Group) SetFloatAttr(name string, v float64) {
	g.attrs[name] = v
}

// PutMatrix stores a 2-D array under the group.
func (g *Group) PutMatrix(name string, m *mat.Dense) error {
	return g.file.PutMatrix(g.path+"/"+name, m)
}

// PutMatrix stores a 2-D array at a slash-separated path. Root-level arrays
// (such as the "qpos" reference of a stac file) have no group prefix.
func (f *File) PutMatrix(path string, m *mat.Dense) error {
	if f.zw == nil {
		return errors.Errorf("container %s is read only", f.path)
	}
	w, err := f.zw.Create(path + arrayExt)
	if err != nil {
		return errors.Wrapf(err, "creating array %q", path)
	}
	return errors.Wrapf(npyio.Write(w, m), "writing array %q", path)
}

// PutVector stores a 1-D array under the group. An empty or nil vector is
// stored as a zero-length array.
func (g *Group) PutVector(name string, v []float64) error {
	if v == nil {
		v = []float64{}
	}
	w, err := g.file.zw.Create(g.path + "/" + name + arrayExt)
	if err != nil {
		return errors.Wrapf(err, "creating array %q", name)
	}
	return errors.Wrapf(npyio.Write(w, v), "writing array %q", name)
}

func (f *File) writeAttrs(g *Group) error {
	w, err := f.zw.Create(g.path + "/" + attrsEntry)
	if err != nil {
		return errors.Wrapf(err, "creating attrs for group %q", g.path)
	}
	return errors.Wrapf(json.NewEncoder(w).Encode(g.attrs), "writing attrs for group %q", g.path)
}

// Matrix reads the 2-D array at the given slash-separated path.
func (f *File) Matrix(path string) (*mat.Dense, error) {
	rc, err := f.openEntry(path + arrayExt)
	if err != nil {
		return nil, err
	}
	var m mat.Dense
	err = npyio.Read(rc, &m)
	return &m, multierr.Combine(errors.Wrapf(err, "reading array %q", path), rc.Close())
}

// Vector reads the 1-D array at the given slash-separated path.
func (f *File) Vector(path string) ([]float64, error) {
	rc, err := f.openEntry(path + arrayExt)
	if err != nil {
		return nil, err
	}
	var v []float64
	err = npyio.Read(rc, &v)
	return v, multierr.Combine(errors.Wrapf(err, "reading array %q", path), rc.Close())
}

// IntAttr reads an integer attribute of a group.
func (f *File) IntAttr(groupPath, name string) (int, error) {
	v, err := f.attr(groupPath, name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(float64) // encoding/json decodes all numbers as float64
	if !ok {
		return 0, errors.Errorf("attribute %q of group %q is not numeric", name, groupPath)
	}
	return int(n), nil
}

// FloatAttr reads a float attribute of a group.
func (f *File) FloatAttr(groupPath, name string) (float64, error) {
	v, err := f.attr(groupPath, name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(float64)
	if !ok {
		return 0, errors.Errorf("attribute %q of group %q is not numeric", name, groupPath)
	}
	return n, nil
}

func (f *File) attr(groupPath, name string) (interface{}, error) {
	rc, err := f.openEntry(groupPath + "/" + attrsEntry)
	if err != nil {
		return nil, err
	}
	attrs := map[string]interface{}{}
	err = json.NewDecoder(rc).Decode(&attrs)
	if err = multierr.Combine(errors.Wrapf(err, "reading attrs of group %q", groupPath), rc.Close()); err != nil {
		return nil, err
	}
	v, ok := attrs[name]
	if !ok {
		return nil, errors.Errorf("group %q has no attribute %q", groupPath, name)
	}
	return v, nil
}

// Groups returns the top-level group names, in archive order.
func (f *File) Groups() []string {
	if f.zr == nil {
		return append([]string{}, f.order...)
	}
	var names []string
	seen := map[string]bool{}
	for _, entry := range f.zr.File {
		top := entry.Name
		if i := strings.IndexByte(top, '/'); i >= 0 {
			top = top[:i]
		} else {
			continue
		}
		if !seen[top] {
			seen[top] = true
			names = append(names, top)
		}
	}
	return names
}

// HasGroup reports whether the container holds a group with the given path.
func (f *File) HasGroup(path string) bool {
	if f.zr == nil {
		_, ok := f.groups[path]
		return ok
	}
	prefix := path + "/"
	for name := range f.entries {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// CopyGroup copies the group srcGroup of src into dst under the name
// dstGroup, entry by entry, without re-encoding the array data.
func CopyGroup(dst, src *File, srcGroup, dstGroup string) error {
	if src.zr == nil {
		return errors.Errorf("container %s is not open for reading", src.path)
	}
	if dst.zw == nil {
		return errors.Errorf("container %s is read only", dst.path)
	}
	prefix := srcGroup + "/"
	copied := 0
	for _, entry := range src.zr.File {
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}
		header := entry.FileHeader
		header.Name = dstGroup + "/" + strings.TrimPrefix(entry.Name, prefix)
		w, err := dst.zw.CreateRaw(&header)
		if err != nil {
			return errors.Wrapf(err, "copying entry %q", entry.Name)
		}
		r, err := entry.OpenRaw()
		if err != nil {
			return errors.Wrapf(err, "copying entry %q", entry.Name)
		}
		if _, err := io.Copy(w, r); err != nil {
			return errors.Wrapf(err, "copying entry %q", entry.Name)
		}
		copied++
	}
	if copied == 0 {
		return errors.Errorf("container %s has no group %q", src.path, srcGroup)
	}
	return nil
}

func (f *File) openEntry(name string) (io.ReadCloser, error) {
	if f.zr == nil {
		return nil, errors.Errorf("container %s is not open for reading", f.path)
	}
	entry, ok := f.entries[name]
	if !ok {
		return nil, errors.Errorf("container %s has no entry %q", f.path, name)
	}
	rc, err := entry.Open()
	return rc, errors.Wrapf(err, "opening entry %q", name)
}

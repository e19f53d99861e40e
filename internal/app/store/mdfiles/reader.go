// internal/app/store/mdfiles/reader.go
package mdfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/tccsite/internal/domain/models"
)

// Ext is the only file extension the reader picks up.
const Ext = ".md"

var (
	// ErrNotFound means no document exists for the slug.
	ErrNotFound = errors.New("mdfiles: document not found")
	// ErrInvalidSlug means the slug cannot name a file in the directory.
	ErrInvalidSlug = errors.New("mdfiles: invalid slug")
)

// Document is one parsed file: its filename-derived slug, the front-matter
// mapping and the text after the front matter.
type Document struct {
	Slug string
	Meta map[string]any
	Body string
}

// Record flattens the document into a content record. The body is stored
// under "content" and the slug is written to every idField, overriding any
// front-matter value of the same name.
func (d Document) Record(idFields ...string) models.Record {
	rec := make(models.Record, len(d.Meta)+len(idFields)+1)
	for k, v := range d.Meta {
		rec[k] = v
	}
	rec["content"] = d.Body
	for _, f := range idFields {
		rec[f] = d.Slug
	}
	return rec
}

// Reader reads collection directories below a content root.
type Reader struct {
	root string
}

// NewReader returns a Reader rooted at root (e.g. "content").
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// Root returns the content root directory.
func (r *Reader) Root() string { return r.root }

// ReadCollection parses every *.md file in root/dir, ordered by filename.
// A missing directory yields an empty slice and no error. The first file
// that cannot be read or parsed fails the whole call.
func (r *Reader) ReadCollection(dir string) ([]Document, error) {
	path := filepath.Join(r.root, dir)
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		doc, err := readFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadOne parses root/dir/<slug>.md.
func (r *Reader) ReadOne(dir, slug string) (Document, error) {
	if !validSlug(slug) {
		return Document{}, ErrInvalidSlug
	}
	doc, err := readFile(filepath.Join(r.root, dir, slug+Ext))
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func readFile(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	meta, body, err := Parse(raw)
	if err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return Document{
		Slug: strings.TrimSuffix(filepath.Base(path), Ext),
		Meta: meta,
		Body: body,
	}, nil
}

func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.Contains(slug, "..")
}

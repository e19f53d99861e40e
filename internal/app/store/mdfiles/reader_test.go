package mdfiles_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/tccsite/internal/app/store/mdfiles"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadCollection_MissingDirIsEmpty(t *testing.T) {
	r := mdfiles.NewReader(t.TempDir())
	docs, err := r.ReadCollection("programs")
	if err != nil {
		t.Fatalf("ReadCollection: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
}

func TestReadCollection_SlugsFromFilenames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "programs", "intro-to-law.md"), "---\ntitle: Intro to Law\nweeks: 6\n---\nBody one.\n")
	writeFile(t, filepath.Join(root, "programs", "advanced-torts.md"), "---\ntitle: Advanced Torts\n---\nBody two.\n")
	writeFile(t, filepath.Join(root, "programs", "notes.txt"), "ignored")

	docs, err := mdfiles.NewReader(root).ReadCollection("programs")
	if err != nil {
		t.Fatalf("ReadCollection: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	// os.ReadDir returns entries sorted by name.
	if docs[0].Slug != "advanced-torts" || docs[1].Slug != "intro-to-law" {
		t.Errorf("unexpected slugs: %q, %q", docs[0].Slug, docs[1].Slug)
	}
	if docs[1].Meta["title"] != "Intro to Law" {
		t.Errorf("title = %v", docs[1].Meta["title"])
	}
	if docs[1].Meta["weeks"] != 6 {
		t.Errorf("weeks = %#v, want 6", docs[1].Meta["weeks"])
	}
	if docs[1].Body != "Body one.\n" {
		t.Errorf("body = %q", docs[1].Body)
	}
}

func TestReadCollection_MalformedFrontMatterFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "gallery", "bad.md"), "---\ntitle: [unclosed\n---\n")

	if _, err := mdfiles.NewReader(root).ReadCollection("gallery"); err == nil {
		t.Fatal("expected an error for malformed front matter")
	}
}

func TestReadOne(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "research", "study.md"), "---\ntitle: Study\npdfUrl: /files/study.pdf\n---\n")
	r := mdfiles.NewReader(root)

	doc, err := r.ReadOne("research", "study")
	if err != nil {
		t.Fatalf("ReadOne: %v", err)
	}
	if doc.Meta["pdfUrl"] != "/files/study.pdf" {
		t.Errorf("pdfUrl = %v", doc.Meta["pdfUrl"])
	}

	if _, err := r.ReadOne("research", "missing"); !errors.Is(err, mdfiles.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	for _, slug := range []string{"", "..", "../secrets", "a/b", `a\b`} {
		if _, err := r.ReadOne("research", slug); !errors.Is(err, mdfiles.ErrInvalidSlug) {
			t.Errorf("slug %q: err = %v, want ErrInvalidSlug", slug, err)
		}
	}
}

func TestDocumentRecord_FilenameWins(t *testing.T) {
	doc := mdfiles.Document{
		Slug: "intro",
		Meta: map[string]any{"slug": "other", "title": "Intro"},
		Body: "text",
	}
	rec := doc.Record("slug", "id")
	if rec["slug"] != "intro" || rec["id"] != "intro" {
		t.Errorf("ids = %v/%v, want intro/intro", rec["slug"], rec["id"])
	}
	if rec["content"] != "text" || rec["title"] != "Intro" {
		t.Errorf("unexpected record %#v", rec)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantMeta map[string]any
		wantBody string
		wantErr  bool
	}{
		{"no front matter", "just text", map[string]any{}, "just text", false},
		{"empty front matter", "---\n---\nbody", map[string]any{}, "body", false},
		{"crlf", "---\r\ntitle: A\r\n---\r\nbody", map[string]any{"title": "A"}, "body", false},
		{"closing at eof", "---\ntitle: A\n---", map[string]any{"title": "A"}, "", false},
		{"date stays string", "---\ndate: 2024-01-15\n---\n", map[string]any{"date": "2024-01-15"}, "", false},
		{"unterminated", "---\ntitle: A\nbody", nil, "", true},
		{"bad yaml", "---\ntags: [a, b\n---\n", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := mdfiles.Parse([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if len(meta) != len(tt.wantMeta) {
				t.Fatalf("meta = %#v, want %#v", meta, tt.wantMeta)
			}
			for k, v := range tt.wantMeta {
				if meta[k] != v {
					t.Errorf("meta[%q] = %#v, want %#v", k, meta[k], v)
				}
			}
		})
	}
}

func TestParse_NestedValuesAreJSONSafe(t *testing.T) {
	meta, _, err := mdfiles.Parse([]byte("---\nimage:\n  url: /a.png\n  alt: A\ntags: [x, y]\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	img, ok := meta["image"].(map[string]any)
	if !ok || img["url"] != "/a.png" {
		t.Errorf("image = %#v", meta["image"])
	}
	tags, ok := meta["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", meta["tags"])
	}
}

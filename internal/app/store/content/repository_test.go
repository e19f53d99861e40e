package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"github.com/dalemusser/tccsite/internal/testutil"
	"go.uber.org/zap"
)

var seedFiles = map[string]string{
	"programs/intro-to-law.md":   "---\ntitle: Intro to Law\nlevel: beginner\n---\nWeek one.\n",
	"programs/advanced-torts.md": "---\ntitle: Advanced Torts\nlevel: advanced\n---\n",
	"testimonials/alice.md":      "---\nquote: Great\n---\n",
	"jobs/counsel.md":            "---\ntitle: Counsel\nclosingDate: 2024-03-01\n---\n",
}

func newRepo(t *testing.T, store *kv.Client) *content.Repository {
	t.Helper()
	return content.New(store, testutil.ContentDir(t, seedFiles), content.Options{}, zap.NewNop())
}

func slugs(recs []models.Record, field string) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.String(field))
	}
	return out
}

func TestGetAll_StoreUnreachableUsesFiles(t *testing.T) {
	repo := newRepo(t, testutil.UnreachableStore(t))

	recs, src, err := repo.GetAll(testutil.TestContext(t), "programs")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if src != content.SourceFiles {
		t.Errorf("source = %q, want files", src)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(recs))
	}

	bySlug := map[string]models.Record{}
	for _, r := range recs {
		bySlug[r.String("slug")] = r
	}
	intro, ok := bySlug["intro-to-law"]
	if !ok {
		t.Fatal("missing intro-to-law")
	}
	if intro.String("title") != "Intro to Law" || intro.String("level") != "beginner" {
		t.Errorf("front matter not carried: %#v", intro)
	}
	if _, ok := bySlug["advanced-torts"]; !ok {
		t.Error("missing advanced-torts")
	}
	if intro.String("id") != "intro-to-law" {
		t.Errorf("programs mirror id: got %q", intro.String("id"))
	}
}

func TestGetAll_StoreWinsWithoutMerge(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "programs", []models.Record{{"slug": "only-in-store", "id": "only-in-store"}})
	repo := newRepo(t, store)

	recs, src, err := repo.GetAll(testutil.TestContext(t), "programs")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if src != content.SourceStore {
		t.Errorf("source = %q, want store", src)
	}
	if got := slugs(recs, "slug"); len(got) != 1 || got[0] != "only-in-store" {
		t.Errorf("slugs = %v, want [only-in-store]", got)
	}
}

func TestGetAll_ExplicitEmptyDoesNotFallBack(t *testing.T) {
	store := testutil.MemoryStore(t)
	if err := store.Set(context.Background(), "programs", "[]"); err != nil {
		t.Fatal(err)
	}
	repo := newRepo(t, store)

	recs, src, err := repo.GetAll(testutil.TestContext(t), "programs")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if src != content.SourceStore || len(recs) != 0 {
		t.Errorf("got %d records from %q, want 0 from store", len(recs), src)
	}
}

func TestGetAll_FalsyValuesFallBack(t *testing.T) {
	for _, raw := range []string{"", "null", "{not json"} {
		t.Run(raw, func(t *testing.T) {
			store := testutil.MemoryStore(t)
			if err := store.Set(context.Background(), "programs", raw); err != nil {
				t.Fatal(err)
			}
			recs, src, err := newRepo(t, store).GetAll(testutil.TestContext(t), "programs")
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			if src != content.SourceFiles || len(recs) != 2 {
				t.Errorf("got %d records from %q, want 2 from files", len(recs), src)
			}
		})
	}
}

func TestGetAll_KeyPrefix(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "tcc:gallery", []models.Record{{"id": "g1"}})
	repo := content.New(store, testutil.ContentDir(t, nil), content.Options{KeyPrefix: "tcc:"}, zap.NewNop())

	recs, src, _ := repo.GetAll(testutil.TestContext(t), "gallery")
	if src != content.SourceStore || len(recs) != 1 {
		t.Errorf("got %d records from %q, want 1 from store", len(recs), src)
	}
}

func TestGetAll_TestimonialsReversed(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "testimonials", []models.Record{
		{"id": "a", "quote": "first"},
		{"id": "b", "quote": "second"},
	})

	recs, _, err := newRepo(t, store).GetAll(testutil.TestContext(t), "testimonials")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if got := slugs(recs, "id"); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("ids = %v, want [b a]", got)
	}
}

func TestGetAll_AnnouncementsByDateDesc(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "announcements", []models.Record{
		{"slug": "old", "date": "2023-01-01"},
		{"slug": "undated"},
		{"slug": "new", "date": "2024-06-01T10:00:00Z"},
		{"slug": "mid", "date": "March 5, 2024"},
	})

	recs, _, _ := newRepo(t, store).GetAll(testutil.TestContext(t), "announcements")
	want := []string{"new", "mid", "old", "undated"}
	got := slugs(recs, "slug")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestGetAll_CareersUndatedLastAndSlugFromTitle(t *testing.T) {
	store := testutil.MemoryStore(t)
	testutil.Seed(t, store, "careers", []models.Record{
		{"title": "Paralegal (Part-Time)"},
		{"slug": "older", "title": "Older", "closingDate": "2024-01-01"},
		{"slug": "newer", "title": "Newer", "closingDate": "2025-01-01"},
	})

	recs, _, _ := newRepo(t, store).GetAll(testutil.TestContext(t), "careers")
	want := []string{"newer", "older", "paralegal-part-time"}
	got := slugs(recs, "slug")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// Read normalization is not written back.
	var stored []models.Record
	testutil.Stored(t, store, "careers", &stored)
	if stored[0].String("slug") != "" {
		t.Errorf("slug written back to store: %#v", stored[0])
	}
}

func TestGetAll_CareersFromJobsDir(t *testing.T) {
	recs, src, _ := newRepo(t, testutil.UnreachableStore(t)).GetAll(testutil.TestContext(t), "careers")
	if src != content.SourceFiles || len(recs) != 1 || recs[0].String("slug") != "counsel" {
		t.Errorf("careers from files = %#v (%s)", recs, src)
	}
}

func TestGetAll_UnknownCollection(t *testing.T) {
	_, _, err := newRepo(t, testutil.MemoryStore(t)).GetAll(testutil.TestContext(t), "team")
	if !errors.Is(err, content.ErrUnknownCollection) {
		t.Errorf("err = %v, want ErrUnknownCollection", err)
	}
}

func TestGetAll_MalformedFilesYieldEmpty(t *testing.T) {
	files := testutil.ContentDir(t, map[string]string{"gallery/bad.md": "---\ntitle: [x\n---\n"})
	repo := content.New(testutil.UnreachableStore(t), files, content.Options{}, zap.NewNop())

	recs, _, err := repo.GetAll(testutil.TestContext(t), "gallery")
	if err != nil || len(recs) != 0 {
		t.Errorf("got (%v, %v), want empty and no error", recs, err)
	}
	if _, err := repo.FileRecords("gallery"); err == nil {
		t.Error("FileRecords should surface the parse error")
	}
}

func TestGetOne(t *testing.T) {
	repo := newRepo(t, testutil.UnreachableStore(t))
	ctx := testutil.TestContext(t)

	rec, _, err := repo.GetOne(ctx, "programs", "advanced-torts")
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if rec.String("title") != "Advanced Torts" {
		t.Errorf("title = %q", rec.String("title"))
	}

	if _, _, err := repo.GetOne(ctx, "programs", "nope"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRecords(t *testing.T) {
	ctx := testutil.TestContext(t)

	recs, err := newRepo(t, testutil.MemoryStore(t)).StoreRecords(ctx, "gallery")
	if err != nil || recs == nil || len(recs) != 0 {
		t.Errorf("absent key: got (%v, %v), want empty", recs, err)
	}

	_, err = newRepo(t, testutil.UnreachableStore(t)).StoreRecords(ctx, "gallery")
	if !errors.Is(err, kv.ErrUnavailable) {
		t.Errorf("unreachable: err = %v, want ErrUnavailable", err)
	}
}

func TestFileRecord(t *testing.T) {
	repo := newRepo(t, testutil.UnreachableStore(t))
	rec, err := repo.FileRecord("programs", "intro-to-law")
	if err != nil || rec.String("slug") != "intro-to-law" {
		t.Errorf("FileRecord = (%v, %v)", rec, err)
	}
	if _, err := repo.FileRecord("programs", "../secret"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

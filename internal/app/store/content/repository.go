// internal/app/store/content/repository.go
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/store/mdfiles"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"go.uber.org/zap"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrValidation        = errors.New("invalid record")
)

// Source names where a read was served from.
type Source string

const (
	SourceStore Source = "store"
	SourceFiles Source = "files"
)

// DefaultMutationRetries bounds the compare-and-set loop of a mutation.
const DefaultMutationRetries = 5

// Options configures a Repository.
type Options struct {
	// KeyPrefix is prepended to every store key (e.g. "tcc:").
	KeyPrefix string
	// MutationRetries is how many times a mutation re-reads and retries
	// after losing a compare-and-set race.
	MutationRetries uint
}

// Repository reads and writes content collections. The store is
// authoritative once it holds a value for a collection; the markdown
// files are the seed and the fallback when the store is unreachable or
// has no value.
type Repository struct {
	store   *kv.Client
	files   *mdfiles.Reader
	prefix  string
	retries uint
	log     *zap.Logger
}

// New builds a Repository over a store client and a file reader.
func New(store *kv.Client, files *mdfiles.Reader, opts Options, logger *zap.Logger) *Repository {
	if opts.MutationRetries == 0 {
		opts.MutationRetries = DefaultMutationRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:   store,
		files:   files,
		prefix:  opts.KeyPrefix,
		retries: opts.MutationRetries,
		log:     logger,
	}
}

// Store returns the underlying store client.
func (r *Repository) Store() *kv.Client { return r.store }

// KeyPrefix returns the prefix applied to store keys.
func (r *Repository) KeyPrefix() string { return r.prefix }

// Collection resolves a collection name.
func (r *Repository) Collection(name string) (models.Collection, error) {
	c, ok := models.LookupCollection(name)
	if !ok {
		return models.Collection{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

// GetAll returns the collection in its read order and where it came from.
// Store trouble never surfaces as an error: it falls back to the files.
func (r *Repository) GetAll(ctx context.Context, name string) ([]models.Record, Source, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, "", err
	}
	recs, src := r.load(ctx, c)
	normalizeRead(c, recs)
	order(c, recs)
	return recs, src, nil
}

// GetOne scans the collection for a record with the given identifier.
func (r *Repository) GetOne(ctx context.Context, name, id string) (models.Record, Source, error) {
	recs, src, err := r.GetAll(ctx, name)
	if err != nil {
		return nil, "", err
	}
	c, _ := r.Collection(name)
	if i := indexOf(c, recs, id); i >= 0 {
		return recs[i], src, nil
	}
	return nil, src, fmt.Errorf("%s %q: %w", name, id, ErrNotFound)
}

// load prefers the store. Absent keys, empty values and undecodable
// values fall back to files; an explicit empty sequence does not.
func (r *Repository) load(ctx context.Context, c models.Collection) ([]models.Record, Source) {
	key := c.StoreKey(r.prefix)
	if r.store.EnsureConnection(ctx) {
		raw, ok, err := r.store.Get(ctx, key)
		switch {
		case err != nil:
			r.log.Warn("content store read failed; using files",
				zap.String("collection", c.Name), zap.Error(err))
		case ok && raw != "":
			recs, err := decode(raw)
			if err == nil && recs != nil {
				return recs, SourceStore
			}
			r.log.Warn("content store value not a record sequence; using files",
				zap.String("collection", c.Name), zap.String("key", key), zap.Error(err))
		}
	}
	return r.fallback(c), SourceFiles
}

func (r *Repository) fallback(c models.Collection) []models.Record {
	recs, err := r.FileRecords(c.Name)
	if err != nil {
		r.log.Error("content file read failed",
			zap.String("collection", c.Name), zap.String("dir", c.Dir), zap.Error(err))
		return []models.Record{}
	}
	return recs
}

// FileRecords reads the collection's seed documents in canonical shape:
// the filename slug is written to the identifier field (and to "id" for
// mirrored collections). Errors are returned, not swallowed.
func (r *Repository) FileRecords(name string) ([]models.Record, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, err
	}
	docs, err := r.files.ReadCollection(c.Dir)
	if err != nil {
		return nil, err
	}
	recs := make([]models.Record, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, d.Record(fileIDFields(c)...))
	}
	return recs, nil
}

// FileRecord reads one seed document directly, bypassing the store.
func (r *Repository) FileRecord(name, slug string) (models.Record, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, err
	}
	d, err := r.files.ReadOne(c.Dir, slug)
	if errors.Is(err, mdfiles.ErrNotFound) || errors.Is(err, mdfiles.ErrInvalidSlug) {
		return nil, fmt.Errorf("%s %q: %w", name, slug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return d.Record(fileIDFields(c)...), nil
}

// StoreRecords returns exactly what the store holds for the collection,
// in storage order. An absent key is an empty sequence. Unlike GetAll it
// fails with kv.ErrUnavailable when the store is down.
func (r *Repository) StoreRecords(ctx context.Context, name string) ([]models.Record, error) {
	c, err := r.Collection(name)
	if err != nil {
		return nil, err
	}
	if !r.store.EnsureConnection(ctx) {
		return nil, kv.ErrUnavailable
	}
	raw, _, err := r.store.Get(ctx, c.StoreKey(r.prefix))
	if err != nil {
		return nil, err
	}
	recs, err := decodeStored(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name, err)
	}
	normalizeRead(c, recs)
	return recs, nil
}

func fileIDFields(c models.Collection) []string {
	if c.MirrorID && c.IDField != "id" {
		return []string{c.IDField, "id"}
	}
	return []string{c.IDField}
}

// normalizeRead fills in careers slugs from titles. Reads do not write the
// fix back; the next mutation of the collection stores it.
func normalizeRead(c models.Collection, recs []models.Record) {
	if !c.SlugFromTitle {
		return
	}
	for _, rec := range recs {
		if rec.String("slug") == "" {
			if title := rec.String("title"); title != "" {
				rec["slug"] = normalize.Slug(title)
			}
		}
	}
}

func indexOf(c models.Collection, recs []models.Record, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range recs {
		if c.IDOf(rec) == id {
			return i
		}
		if c.MirrorID && rec.String("id") == id {
			return i
		}
	}
	return -1
}

// decode parses a stored sequence. JSON null decodes to a nil slice.
func decode(raw string) ([]models.Record, error) {
	var recs []models.Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// decodeStored is decode for write paths: absent, empty and null values
// are all an empty sequence.
func decodeStored(raw string) ([]models.Record, error) {
	if raw == "" {
		return []models.Record{}, nil
	}
	recs, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.Record{}
	}
	return recs, nil
}

func encode(recs []models.Record) (string, error) {
	if recs == nil {
		recs = []models.Record{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

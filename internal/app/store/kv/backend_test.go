package kv_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// backendSuite runs the same contract against every Backend.
type backendSuite struct {
	suite.Suite
	open func(t *testing.T) kv.Backend
	b    kv.Backend
	ctx  context.Context
}

func (s *backendSuite) SetupTest() {
	s.ctx = context.Background()
	s.b = s.open(s.T())
}

func (s *backendSuite) TearDownTest() {
	if s.b != nil {
		_ = s.b.Close(s.ctx)
	}
}

func (s *backendSuite) TestGetMissing() {
	_, err := s.b.Get(s.ctx, "missing")
	s.Require().ErrorIs(err, kv.ErrNotFound)
}

func (s *backendSuite) TestSetBumpsVersion() {
	s.Require().NoError(s.b.Set(s.ctx, "programs", `[{"slug":"a"}]`))
	e, err := s.b.Get(s.ctx, "programs")
	s.Require().NoError(err)
	s.Equal(`[{"slug":"a"}]`, e.Value)
	s.Equal(int64(1), e.Version)

	s.Require().NoError(s.b.Set(s.ctx, "programs", `[]`))
	e, err = s.b.Get(s.ctx, "programs")
	s.Require().NoError(err)
	s.Equal(`[]`, e.Value)
	s.Equal(int64(2), e.Version)
}

func (s *backendSuite) TestSetIfVersionCreate() {
	s.Require().NoError(s.b.SetIfVersion(s.ctx, "k", "v1", 0))
	err := s.b.SetIfVersion(s.ctx, "k", "v2", 0)
	s.Require().ErrorIs(err, kv.ErrVersionConflict)

	e, err := s.b.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("v1", e.Value)
}

func (s *backendSuite) TestSetIfVersionStale() {
	s.Require().NoError(s.b.Set(s.ctx, "k", "v1"))
	e, err := s.b.Get(s.ctx, "k")
	s.Require().NoError(err)

	s.Require().NoError(s.b.SetIfVersion(s.ctx, "k", "v2", e.Version))
	err = s.b.SetIfVersion(s.ctx, "k", "v3", e.Version)
	s.Require().ErrorIs(err, kv.ErrVersionConflict)

	got, err := s.b.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("v2", got.Value)
	s.Equal(e.Version+1, got.Version)
}

func (s *backendSuite) TestIncr() {
	n, err := s.b.Incr(s.ctx, "research:views:a")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.b.Incr(s.ctx, "research:views:a")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	e, err := s.b.Get(s.ctx, "research:views:a")
	s.Require().NoError(err)
	s.Equal("2", e.Value)
}

func (s *backendSuite) TestIncrExistingString() {
	s.Require().NoError(s.b.Set(s.ctx, "c", "41"))
	n, err := s.b.Incr(s.ctx, "c")
	s.Require().NoError(err)
	s.Equal(int64(42), n)
}

func (s *backendSuite) TestIncrNotInteger() {
	s.Require().NoError(s.b.Set(s.ctx, "c", "abc"))
	_, err := s.b.Incr(s.ctx, "c")
	s.Require().Error(err)
}

func (s *backendSuite) TestIncrConcurrent() {
	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.b.Incr(s.ctx, "hits")
			s.NoError(err)
		}()
	}
	wg.Wait()

	e, err := s.b.Get(s.ctx, "hits")
	s.Require().NoError(err)
	s.Equal("20", e.Value)
}

func (s *backendSuite) TestDelete() {
	s.Require().NoError(s.b.Set(s.ctx, "k", "v"))
	s.Require().NoError(s.b.Delete(s.ctx, "k"))
	_, err := s.b.Get(s.ctx, "k")
	s.Require().ErrorIs(err, kv.ErrNotFound)

	// Deleting again is fine.
	s.Require().NoError(s.b.Delete(s.ctx, "k"))
}

func (s *backendSuite) TestKeysPrefix() {
	for _, k := range []string{"research:views:b", "research", "research:views:a", "programs"} {
		s.Require().NoError(s.b.Set(s.ctx, k, "1"))
	}
	keys, err := s.b.Keys(s.ctx, "research:views:")
	s.Require().NoError(err)
	s.Equal([]string{"research:views:a", "research:views:b"}, keys)

	all, err := s.b.Keys(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 4)
}

func TestMemoryBackend(t *testing.T) {
	suite.Run(t, &backendSuite{open: func(*testing.T) kv.Backend { return kv.NewMemory() }})
}

func TestBadgerBackend(t *testing.T) {
	suite.Run(t, &backendSuite{open: func(t *testing.T) kv.Backend {
		b, err := kv.OpenBadger(kv.BadgerOptions{InMemory: true})
		if err != nil {
			t.Fatalf("OpenBadger: %v", err)
		}
		return b
	}})
}

func TestSQLiteBackend(t *testing.T) {
	suite.Run(t, &backendSuite{open: func(t *testing.T) kv.Backend {
		b, err := kv.OpenSQLite(":memory:")
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return b
	}})
}

func TestMongoBackend(t *testing.T) {
	uri := os.Getenv("TCCSITE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TCCSITE_TEST_MONGO_URI not set")
	}
	suite.Run(t, &backendSuite{open: func(t *testing.T) kv.Backend {
		ctx := context.Background()
		db := "tccsite_test_" + uuid.NewString()[:8]
		b, err := kv.DialMongo(ctx, uri, db, "kv")
		if err != nil {
			t.Fatalf("DialMongo: %v", err)
		}
		if err := b.Ping(ctx); err != nil {
			t.Skipf("mongo not reachable: %v", err)
		}
		return &droppingMongo{Mongo: b}
	}})
}

// droppingMongo drops its test database before disconnecting.
type droppingMongo struct {
	*kv.Mongo
}

func (d *droppingMongo) Close(ctx context.Context) error {
	if err := kv.DropMongoDatabase(ctx, d.Mongo); err != nil {
		return err
	}
	return d.Mongo.Close(ctx)
}

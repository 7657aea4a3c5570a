package censor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"censorship/pkg/cache"
	"censorship/pkg/lang"
)

type countingSource struct {
	calls atomic.Int32
	cfgs  map[string]lang.Config
}

func (s *countingSource) Language(ctx context.Context, name string) (lang.Config, error) {
	s.calls.Add(1)
	cfg, ok := s.cfgs[name]
	if !ok {
		return lang.Config{}, lang.ErrUnsupportedLanguage
	}
	return cfg.Clone(), nil
}

func testSource() *countingSource {
	return &countingSource{cfgs: map[string]lang.Config{
		"test": {
			Language:       "test",
			Profanities:    []string{"shit", "penis"},
			FalsePositives: []string{"Pen Is"},
			Separators:     []string{"-", "."},
			Substitutions: map[string][]string{
				"e": {"e"},
				"h": {"h"},
				"i": {"i", "1"},
				"n": {"n"},
				"p": {"p"},
				"s": {"s"},
				"t": {"t"},
			},
		},
	}}
}

type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) Get(context.Context, string) ([]byte, error)       { return nil, errStoreDown }
func (brokenStore) Set(context.Context, string, []byte) error         { return errStoreDown }
func (brokenStore) Delete(context.Context, ...string) error           { return errStoreDown }
func (brokenStore) AddMember(context.Context, string, string) error   { return errStoreDown }
func (brokenStore) Members(context.Context, string) ([]string, error) { return nil, errStoreDown }

func TestCensor_CatalogSource(t *testing.T) {
	cat, err := lang.Default()
	if err != nil {
		t.Fatal(err)
	}
	c := New(catalogSource{cat}, WithDefaultLanguage(cat.DefaultLanguage()))

	r, err := c.Check(context.Background(), "", "shit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasProfanity() {
		t.Error("want profanity with default language")
	}

	r, err = c.Check(context.Background(), "French", "tête tete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasProfanity() {
		t.Errorf("want no profanity, got %v", r.UniqueProfanitiesFound())
	}

	_, err = c.Check(context.Background(), "klingon", "shit")
	if !errors.Is(err, lang.ErrUnsupportedLanguage) {
		t.Errorf("want ErrUnsupportedLanguage, got %v", err)
	}
}

type catalogSource struct {
	cat *lang.Catalog
}

func (s catalogSource) Language(ctx context.Context, name string) (lang.Config, error) {
	return s.cat.Language(name)
}

func TestCensor_CompilesOnce(t *testing.T) {
	src := testSource()
	c := New(src)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := c.Check(context.Background(), "test", "sh1t")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !r.HasProfanity() {
				t.Error("want profanity")
			}
		}()
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("want dictionary loaded once, got %d loads", got)
	}

	c.Invalidate("test")
	if _, err := c.Checker(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("want dictionary reloaded after invalidate, got %d loads", got)
	}
}

// gatedSource blocks its first load until release is closed.
type gatedSource struct {
	mu      sync.Mutex
	cfg     lang.Config
	loads   int
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Language(ctx context.Context, name string) (lang.Config, error) {
	s.mu.Lock()
	s.loads++
	first := s.loads == 1
	cfg := s.cfg.Clone()
	s.mu.Unlock()

	if first {
		close(s.started)
		<-s.release
	}
	return cfg, nil
}

func (s *gatedSource) addProfanity(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Profanities = append(s.cfg.Profanities, word)
}

func TestCensor_InvalidateDuringCompile(t *testing.T) {
	tests := []struct {
		name  string
		reset func(c *Censor) error
	}{
		{"invalidate", func(c *Censor) error { c.Invalidate("test"); return nil }},
		{"clear", func(c *Censor) error { return c.Clear(context.Background()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &gatedSource{
				cfg:     testSource().cfgs["test"],
				started: make(chan struct{}),
				release: make(chan struct{}),
			}
			c := New(src)
			ctx := context.Background()

			done := make(chan error, 1)
			go func() {
				_, err := c.Checker(ctx, "test")
				done <- err
			}()

			<-src.started
			src.addProfanity("tit")
			if err := tt.reset(c); err != nil {
				t.Fatal(err)
			}
			close(src.release)
			if err := <-done; err != nil {
				t.Fatalf("unexpected error from first compile: %v", err)
			}

			r, err := c.Check(ctx, "test", "tit")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !r.HasProfanity() {
				t.Error("want word added during compile to be checked")
			}
		})
	}
}

func TestCensor_UnknownLanguageNotTracked(t *testing.T) {
	c := New(testSource())

	for i := 0; i < 3; i++ {
		if _, err := c.Check(context.Background(), "klingon", "text"); !errors.Is(err, lang.ErrUnsupportedLanguage) {
			t.Fatalf("want ErrUnsupportedLanguage, got %v", err)
		}
	}
	if len(c.gens) != 0 {
		t.Errorf("want no generations kept for unknown languages, got %v", c.gens)
	}
}

func TestCensor_InvalidConfigRejected(t *testing.T) {
	src := &countingSource{cfgs: map[string]lang.Config{
		"empty": {Language: "empty"},
	}}
	c := New(src)

	_, err := c.Check(context.Background(), "empty", "text")
	if !errors.Is(err, lang.ErrInvalidConfig) {
		t.Errorf("want ErrInvalidConfig, got %v", err)
	}
}

func TestCensor_CachesPatterns(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	src := testSource()

	c := New(src, WithStore(store, "test_index"))
	if _, err := c.Checker(ctx, "test"); err != nil {
		t.Fatal(err)
	}

	key := cacheKey(src.cfgs["test"])
	b, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("want patterns stored under %s: %v", key, err)
	}
	var bodies map[string]string
	if err := json.Unmarshal(b, &bodies); err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 2 {
		t.Errorf("want 2 cached bodies, got %d", len(bodies))
	}

	keys, err := store.Members(ctx, "test_index")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("want tracked keys [%s], got %v", key, keys)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if store.Has(key) {
		t.Error("want cached patterns removed after clear")
	}
	if keys, _ := store.Members(ctx, "test_index"); len(keys) != 0 {
		t.Errorf("want no tracked keys after clear, got %v", keys)
	}
}

func TestCensor_RestoresFromCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	src := testSource()
	cfg := src.cfgs["test"]

	// a cache entry that maps "shit" to the pattern of "heck" proves the
	// stored bodies are used instead of recompiling
	bodies := map[string]string{
		"shit":  NewCompiler(cfg).Body("heck"),
		"penis": NewCompiler(cfg).Body("penis"),
	}
	b, err := json.Marshal(bodies)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.NewTracker(store, "test_index").Put(ctx, cacheKey(cfg), b); err != nil {
		t.Fatal(err)
	}

	c := New(src, WithStore(store, "test_index"))
	r, err := c.Check(ctx, "test", "oh heck")
	if err != nil {
		t.Fatal(err)
	}
	found := r.UniqueProfanitiesFound()
	if len(found) != 1 || found[0] != "shit" {
		t.Errorf("want cached pattern used, got %v", found)
	}
}

func TestCensor_CorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	src := testSource()

	if err := store.Set(ctx, cacheKey(src.cfgs["test"]), []byte(`{"shit": "(("}`)); err != nil {
		t.Fatal(err)
	}

	c := New(src, WithStore(store, ""))
	r, err := c.Check(ctx, "test", "shit")
	if err != nil {
		t.Fatalf("want corrupt entry ignored, got %v", err)
	}
	if !r.HasProfanity() {
		t.Error("want profanity from freshly compiled patterns")
	}
}

func TestCensor_StoreDownDegrades(t *testing.T) {
	c := New(testSource(), WithStore(brokenStore{}, "test_index"))

	r, err := c.Check(context.Background(), "test", "s-h-1-t")
	if err != nil {
		t.Fatalf("want check to survive store failure, got %v", err)
	}
	if !r.HasProfanity() {
		t.Error("want profanity")
	}

	if err := c.Clear(context.Background()); !errors.Is(err, errStoreDown) {
		t.Errorf("want store error from clear, got %v", err)
	}
}

func TestCensor_FalsePositiveFromSource(t *testing.T) {
	c := New(testSource())

	r, err := c.Check(context.Background(), "test", "Pen is mightier, penis.")
	if err != nil {
		t.Fatal(err)
	}
	if r.ProfanitiesCount() != 1 {
		t.Errorf("want 1 match, got %d", r.ProfanitiesCount())
	}
	if want := "Pen is mightier, *****."; r.CleanString() != want {
		t.Errorf("want clean %q, got %q", want, r.CleanString())
	}
}

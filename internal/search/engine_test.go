package search

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/indexer"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/source"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/internal/vector"
)

const testDims = 384

func testConfig(dir string) *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage = config.StorageConfig{
		IndexPath:    filepath.Join(dir, "grants.index"),
		RecordsPath:  filepath.Join(dir, "grants.json"),
		ManifestPath: filepath.Join(dir, "manifest.json"),
		DatabasePath: filepath.Join(dir, "grants.db"),
	}
	cfg.Embedding.Provider = embedding.ProviderLexical
	cfg.Embedding.Dimensions = testDims
	return cfg
}

// newTestEngine builds an in-memory engine over records with the lexical embedder.
func newTestEngine(t testing.TB, records []models.Record) *Engine {
	t.Helper()
	cfg := testConfig(t.TempDir())
	emb := embedding.NewLexicalEmbedder(testDims)
	var index vector.Index
	if len(records) == 0 {
		flat, err := vector.NewFlatIndex(testDims)
		if err != nil {
			t.Fatal(err)
		}
		if err := flat.Build(context.Background(), nil, nil); err != nil {
			t.Fatal(err)
		}
		index = flat
	} else {
		built, err := indexer.NewIndexer(emb, cfg).Build(context.Background(), records)
		if err != nil {
			t.Fatal(err)
		}
		index = built.Index
	}
	store, err := storage.NewRecordStore(records)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(emb, index, store, cfg.Search)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func threeRecords() []models.Record {
	demo := source.DemoRecords()
	demo[0].Title = "Education Excellence Grant"
	demo[1].Title = "Environmental Protection Initiative"
	demo[2].Title = "Community Health Program"
	return demo[:3]
}

func TestEngine_SelfRetrieval(t *testing.T) {
	records := source.DemoRecords()
	engine := newTestEngine(t, records)
	for _, r := range records {
		results, err := engine.Query(context.Background(), source.SearchableText(r), 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Fatalf("%s: got %d results", r.ID, len(results))
		}
		if results[0].Record.ID != r.ID || results[0].Distance > 1e-6 {
			t.Errorf("%s: top result %s at distance %f", r.ID, results[0].Record.ID, results[0].Distance)
		}
	}
}

func TestEngine_SelfRetrievalWithHTMLEntities(t *testing.T) {
	records := source.DemoRecords()
	records[0].Description = "Research &amp; development support for rural schools&#39; STEM programs"
	records[1].Description = "Wetland\u200b restoration\n\nand  flood &quot;resilience&quot; planning"
	engine := newTestEngine(t, records)
	for _, r := range records[:2] {
		results, err := engine.Query(context.Background(), source.SearchableText(r), 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Fatalf("%s: got %d results", r.ID, len(results))
		}
		if results[0].Record.ID != r.ID || results[0].Distance > 1e-6 {
			t.Errorf("%s: top result %s at distance %f, want self at ~0", r.ID, results[0].Record.ID, results[0].Distance)
		}
	}
}

func TestEngine_QueryOrderingAndRanks(t *testing.T) {
	engine := newTestEngine(t, source.DemoRecords())
	results, err := engine.Query(context.Background(), "funding for education programs helping disadvantaged youth", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Record.ID != "DEMO-001" {
		t.Errorf("top result = %s, want DEMO-001", results[0].Record.ID)
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if i > 0 && r.Distance < results[i-1].Distance {
			t.Errorf("distances not ascending at %d: %f < %f", i, r.Distance, results[i-1].Distance)
		}
	}
}

func TestEngine_KLargerThanSize(t *testing.T) {
	engine := newTestEngine(t, threeRecords())
	results, err := engine.Query(context.Background(), "community programs", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d, want %d", i, r.Rank, i+1)
		}
	}
}

func TestEngine_ClimateQueryPrefersEnvironmental(t *testing.T) {
	engine := newTestEngine(t, threeRecords())
	results, err := engine.Query(context.Background(), "funding for climate change sustainability", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Record.Title != "Environmental Protection Initiative" {
		t.Errorf("top result = %q, want the environmental record", results[0].Record.Title)
	}
}

func TestEngine_MentalHealthFindsHealthRecord(t *testing.T) {
	engine := newTestEngine(t, source.DemoRecords())
	results, err := engine.Query(context.Background(), "mental health", 3)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range results {
		if strings.EqualFold(r.Record.Category, "health") {
			found = true
		}
	}
	if !found {
		t.Errorf("no health record in top 3: %v", results)
	}
}

func TestEngine_EmptyInputs(t *testing.T) {
	empty := newTestEngine(t, nil)
	results, err := empty.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("empty index: got %v, want empty non-nil slice", results)
	}

	engine := newTestEngine(t, threeRecords())
	for _, q := range []string{"", "   ", "\n\t"} {
		results, err := engine.Query(context.Background(), q, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 0 {
			t.Errorf("blank query %q: got %d results", q, len(results))
		}
	}
	results, err = engine.Query(context.Background(), "health", 0)
	if err != nil || len(results) != 0 {
		t.Errorf("k=0: results=%d err=%v", len(results), err)
	}
}

func TestEngine_Search(t *testing.T) {
	engine := newTestEngine(t, source.DemoRecords())
	q := &models.SearchQuery{Query: "  clean drinking water  "}
	resp, err := engine.Search(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "clean drinking water" {
		t.Errorf("query = %q", resp.Query)
	}
	if resp.Total != 5 || len(resp.Results) != 5 {
		t.Errorf("default limit: total=%d results=%d, want 5", resp.Total, len(resp.Results))
	}
	if resp.Results[0].Record.ID != "DEMO-007" {
		t.Errorf("top result = %s, want DEMO-007", resp.Results[0].Record.ID)
	}

	if _, err := engine.Search(context.Background(), &models.SearchQuery{Query: "x", Limit: -1}); err == nil {
		t.Error("negative limit should be rejected")
	}
}

func TestEngine_Accessors(t *testing.T) {
	engine := newTestEngine(t, threeRecords())
	if engine.Size() != 3 {
		t.Errorf("Size() = %d", engine.Size())
	}
	if engine.IndexType() != "flat" {
		t.Errorf("IndexType() = %q", engine.IndexType())
	}
	if engine.Dimensions() != testDims {
		t.Errorf("Dimensions() = %d", engine.Dimensions())
	}
	if engine.ModelName() != embedding.LexicalModelName {
		t.Errorf("ModelName() = %q", engine.ModelName())
	}
	if r, ok := engine.Record("DEMO-002"); !ok || r.Category != "Environment" {
		t.Errorf("Record(DEMO-002) = %v, %v", r, ok)
	}
	if _, ok := engine.Record("missing"); ok {
		t.Error("Record(missing) should not be found")
	}
}

func TestNewEngine_Misaligned(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewLexicalEmbedder(4)
	flat, err := vector.NewFlatIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := flat.Build(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}); err != nil {
		t.Fatal(err)
	}

	short, _ := storage.NewRecordStore([]models.Record{{ID: "a"}})
	if _, err := NewEngine(emb, flat, short, config.SearchConfig{}); !errors.Is(err, ErrMisaligned) {
		t.Errorf("size mismatch: err=%v", err)
	}
	swapped, _ := storage.NewRecordStore([]models.Record{{ID: "b"}, {ID: "a"}})
	if _, err := NewEngine(emb, flat, swapped, config.SearchConfig{}); !errors.Is(err, ErrMisaligned) {
		t.Errorf("order mismatch: err=%v", err)
	}
	aligned, _ := storage.NewRecordStore([]models.Record{{ID: "a"}, {ID: "b"}})
	if _, err := NewEngine(embedding.NewLexicalEmbedder(8), flat, aligned, config.SearchConfig{}); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("dimension mismatch: err=%v", err)
	}
	if _, err := NewEngine(emb, flat, aligned, config.SearchConfig{}); err != nil {
		t.Errorf("aligned pair: %v", err)
	}
}

func persistDemo(t *testing.T, cfg *config.Config, records []models.Record) {
	t.Helper()
	idx := indexer.NewIndexer(embedding.NewLexicalEmbedder(testDims), cfg)
	built, err := idx.Build(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	defer built.Close()
	if _, err := idx.Persist(context.Background(), built); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	cfg := testConfig(t.TempDir())
	records := source.DemoRecords()
	persistDemo(t, cfg, records)

	inMemory := newTestEngine(t, records)
	loaded, err := Open(context.Background(), cfg, embedding.NewLexicalEmbedder(testDims), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	for _, q := range []string{"mental health", "community development social services integration", "technology"} {
		want, err := inMemory.Query(context.Background(), q, 4)
		if err != nil {
			t.Fatal(err)
		}
		got, err := loaded.Query(context.Background(), q, 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("%q: %d results after reload, want %d", q, len(got), len(want))
		}
		for i := range want {
			if got[i].Record.ID != want[i].Record.ID || math.Abs(got[i].Distance-want[i].Distance) > 1e-9 {
				t.Errorf("%q result %d: got %s %f, want %s %f", q, i,
					got[i].Record.ID, got[i].Distance, want[i].Record.ID, want[i].Distance)
			}
		}
	}
}

func TestOpen_MissingArtifacts(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := Open(context.Background(), cfg, embedding.NewLexicalEmbedder(testDims), nil)
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("no manifest: err=%v, want ErrMissingArtifact", err)
	}
	if !strings.Contains(err.Error(), "grantseek index") {
		t.Errorf("error should name the remediation: %v", err)
	}

	persistDemo(t, cfg, source.DemoRecords())
	if err := os.Remove(cfg.Storage.RecordsPath); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(context.Background(), cfg, embedding.NewLexicalEmbedder(testDims), nil); !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("missing records file: err=%v, want ErrMissingArtifact", err)
	}
}

func TestOpen_HalfReplacedPair(t *testing.T) {
	cfg := testConfig(t.TempDir())
	persistDemo(t, cfg, source.DemoRecords())

	// Replace the records file with a different, valid record set.
	if err := storage.SaveRecords(cfg.Storage.RecordsPath, source.DemoRecords()[:4]); err != nil {
		t.Fatal(err)
	}
	_, err := Open(context.Background(), cfg, embedding.NewLexicalEmbedder(testDims), nil)
	if !errors.Is(err, ErrMisaligned) {
		t.Errorf("err=%v, want ErrMisaligned", err)
	}
}

func TestOpen_ModelMismatch(t *testing.T) {
	cfg := testConfig(t.TempDir())
	persistDemo(t, cfg, source.DemoRecords())

	_, err := Open(context.Background(), cfg, renamedEmbedder{embedding.NewLexicalEmbedder(testDims)}, nil)
	if !errors.Is(err, ErrModelMismatch) {
		t.Errorf("err=%v, want ErrModelMismatch", err)
	}
}

type renamedEmbedder struct {
	*embedding.LexicalEmbedder
}

func (renamedEmbedder) ModelName() string { return "all-MiniLM-L6-v2" }

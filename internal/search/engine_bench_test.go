package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/vector"
)

func BenchmarkFlatIndexSearch(b *testing.B) {
	idx, _ := vector.NewFlatIndex(testDims)
	ctx := context.Background()
	vecs := make([][]float32, 1000)
	ids := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		vecs[i] = make([]float32, testDims)
		vecs[i][0] = float32(i) / 1000
		ids[i] = fmt.Sprintf("GRANT-%04d", i)
	}
	_ = idx.Build(ctx, ids, vecs)
	query := make([]float32, testDims)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 10)
	}
}

func BenchmarkLexicalEmbedder_Embed(b *testing.B) {
	e := embedding.NewLexicalEmbedder(testDims)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "community health wellness programs mental health")
	}
}

func BenchmarkEngine_Query(b *testing.B) {
	records := make([]models.Record, 500)
	topics := []string{"education", "climate", "health", "water", "housing"}
	for i := range records {
		topic := topics[i%len(topics)]
		records[i] = models.Record{
			ID:          fmt.Sprintf("GRANT-%04d", i),
			Title:       fmt.Sprintf("%s program %d", topic, i),
			Description: fmt.Sprintf("Funding for local %s projects run by municipalities.", topic),
			Agency:      models.NotAvailable,
			Category:    topic,
		}
	}
	engine := newTestEngine(b, records)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Query(ctx, "clean drinking water for rural towns", 5)
	}
}

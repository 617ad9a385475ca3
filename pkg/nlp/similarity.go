package nlp

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarity embeds both texts through the oracle and returns their cosine
// similarity. The two embedding calls run concurrently.
func Similarity(ctx context.Context, oracle Oracle, text1, text2 string) (float64, error) {
	var emb1, emb2 []float32

	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		emb1, err = oracle.GenerateEmbedding(gCtx, text1)
		return err
	})
	eg.Go(func() error {
		var err error
		emb2, err = oracle.GenerateEmbedding(gCtx, text2)
		return err
	})
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	return CosineSimilarity(emb1, emb2), nil
}

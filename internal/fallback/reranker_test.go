package fallback

import (
	"context"
	"math"
	"testing"

	"github.com/ragstudio/embedgate/internal/domain"
)

func rerank(t *testing.T, query string, docs []string, topK int) []domain.RankedDocument {
	t.Helper()
	res, err := NewReranker().Rerank(context.Background(), query, docs, topK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res.Documents
}

func TestReranker_EmptyDocuments(t *testing.T) {
	got := rerank(t, "any query", nil, domain.TopKAll)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d documents", len(got))
	}
}

func TestReranker_TopKZero(t *testing.T) {
	got := rerank(t, "cat", []string{"The cat sat", "A dog ran"}, 0)
	if len(got) != 0 {
		t.Fatalf("expected empty result for top_k=0, got %d documents", len(got))
	}
}

func TestReranker_NoTopKReturnsAllIndicesOnce(t *testing.T) {
	docs := []string{"alpha beta", "gamma delta", "beta gamma", "unrelated"}
	got := rerank(t, "beta", docs, domain.TopKAll)

	if len(got) != len(docs) {
		t.Fatalf("expected %d results, got %d", len(docs), len(got))
	}
	seen := make(map[int]bool)
	for _, d := range got {
		if seen[d.Index] {
			t.Errorf("index %d appears more than once", d.Index)
		}
		seen[d.Index] = true
	}
	for i := range docs {
		if !seen[i] {
			t.Errorf("index %d missing from result", i)
		}
	}
}

func TestReranker_TopKAboveDocCount(t *testing.T) {
	got := rerank(t, "x", []string{"x y", "y z"}, 10)
	if len(got) != 2 {
		t.Fatalf("expected all 2 documents, got %d", len(got))
	}
}

func TestReranker_StableTieOrder(t *testing.T) {
	got := rerank(t, "a", []string{"x", "x"}, domain.TopKAll)

	if got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("expected tie to preserve input order [0 1], got [%d %d]",
			got[0].Index, got[1].Index)
	}
	if got[0].Score != got[1].Score {
		t.Fatalf("expected equal scores, got %v and %v", got[0].Score, got[1].Score)
	}
}

func TestReranker_SubstringBonusRanksFirst(t *testing.T) {
	docs := []string{
		"I love machine learning",
		"completely unrelated text",
		"learning machines is fun",
	}
	got := rerank(t, "machine learning", docs, domain.TopKAll)

	if got[0].Index != 0 {
		t.Fatalf("expected document 0 (full substring match) first, got %d", got[0].Index)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("expected strictly higher score for substring match: %v vs %v",
			got[0].Score, got[1].Score)
	}
}

func TestReranker_TopKOne(t *testing.T) {
	got := rerank(t, "cat", []string{"The cat sat", "A dog ran"}, 1)

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(got))
	}
	if got[0].Index != 0 {
		t.Fatalf("expected index 0 first, got %d", got[0].Index)
	}
}

func TestReranker_JaccardScore(t *testing.T) {
	// query {a, b}, doc {b, c}: intersection 1, union 3. No substring match.
	got := rerank(t, "a b", []string{"b c"}, domain.TopKAll)

	want := 1.0 / 3.0
	if math.Abs(got[0].Score-want) > 1e-12 {
		t.Fatalf("expected Jaccard score %v, got %v", want, got[0].Score)
	}
}

func TestReranker_CaseInsensitive(t *testing.T) {
	got := rerank(t, "CAT", []string{"the cat sat", "dogs only"}, domain.TopKAll)

	if got[0].Index != 0 {
		t.Fatalf("expected case-insensitive match to rank document 0 first, got %d", got[0].Index)
	}
	// Jaccard 1/3 plus the substring bonus.
	want := 1.0/3.0 + substringBonus
	if math.Abs(got[0].Score-want) > 1e-12 {
		t.Fatalf("expected score %v, got %v", want, got[0].Score)
	}
}

func TestReranker_DuplicateWordsCollapse(t *testing.T) {
	// Repeated words must not inflate the score: both sets are {cat},
	// Jaccard 1.0, and "cat cat cat" is not a substring of "cat cat".
	got := rerank(t, "cat cat cat", []string{"cat cat"}, domain.TopKAll)

	want := 1.0
	if math.Abs(got[0].Score-want) > 1e-12 {
		t.Fatalf("expected score %v, got %v", want, got[0].Score)
	}
}

func TestReranker_WhitespaceOnlyInputs(t *testing.T) {
	got := rerank(t, "   ", []string{"  \t ", "some words"}, domain.TopKAll)

	// Empty word sets on both sides: Jaccard 0. The whitespace query is not a
	// substring of either lowered document unless the exact run appears.
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, d := range got {
		if d.Score < 0 || d.Score > 1.1 {
			t.Errorf("score out of range for index %d: %v", d.Index, d.Score)
		}
	}
}

func TestReranker_EmptyQueryUniformBonus(t *testing.T) {
	// The empty string is a substring of every document, so each scores exactly
	// the bonus and input order is preserved.
	got := rerank(t, "", []string{"first", "second", "third"}, domain.TopKAll)

	for i, d := range got {
		if d.Index != i {
			t.Fatalf("expected preserved order, got index %d at position %d", d.Index, i)
		}
		if math.Abs(d.Score-substringBonus) > 1e-12 {
			t.Errorf("expected uniform score %v, got %v", substringBonus, d.Score)
		}
	}
}

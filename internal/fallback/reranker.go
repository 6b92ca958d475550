package fallback

import (
	"context"
	"sort"
	"strings"

	"github.com/ragstudio/embedgate/internal/domain"
)

// substringBonus rewards documents containing the full query verbatim.
const substringBonus = 0.1

// Reranker scores documents against a query by lexical word overlap.
// It is stateless and safe for concurrent use.
type Reranker struct{}

// NewReranker creates a fallback reranker.
func NewReranker() *Reranker {
	return &Reranker{}
}

var _ domain.Reranker = (*Reranker)(nil)

// Rerank implements domain.Reranker. The returned error is always nil.
//
// Score per document: Jaccard similarity of lowercase whitespace-delimited word
// sets, plus 0.1 when the lowercased query appears as a contiguous substring of
// the lowercased document. Sorting is stable: equal scores keep input order.
func (r *Reranker) Rerank(
	_ context.Context, query string, documents []string, topK int,
) (domain.RerankResult, error) {
	queryLower := strings.ToLower(query)
	queryWords := wordSet(queryLower)

	ranked := make([]domain.RankedDocument, len(documents))
	for i, doc := range documents {
		docLower := strings.ToLower(doc)
		score := jaccard(queryWords, wordSet(docLower))
		// An empty query is a substring of every document: the uniform bonus
		// keeps ties and the stable input order decides the ranking.
		if strings.Contains(docLower, queryLower) {
			score += substringBonus
		}
		ranked[i] = domain.RankedDocument{Index: i, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return domain.RerankResult{Documents: domain.TruncateTopK(ranked, topK)}, nil
}

// wordSet splits lowercase text into a set of whitespace-delimited words.
// Duplicates collapse; punctuation is kept as part of the word.
func wordSet(lower string) map[string]struct{} {
	words := strings.Fields(lower)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes |a ∩ b| / |a ∪ b|. An empty union scores 0.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

package compare

import (
	"context"
	"errors"
	"reflect"
	"sort"

	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
)

// ErrMissingText reports that one of the compared entities lacks the text
// field the semantic similarity is computed over.
var ErrMissingText = errors.New("both entities must have a text field")

// Conflict is an attribute present in both entities with differing values.
type Conflict struct {
	Attribute string `json:"attribute"`
	Value1    any    `json:"entity1_value"`
	Value2    any    `json:"entity2_value"`
}

// Result is the outcome of an entity comparison.
type Result struct {
	Similarity            float64    `json:"similarity"`
	MatchingAttributes    []string   `json:"matching_attributes"`
	ConflictingAttributes []Conflict `json:"conflicting_attributes"`
	Verdict               string     `json:"verdict"`
	Confidence            string     `json:"confidence"`
}

// Compare scores two entity property bags against each other. The semantic
// similarity is computed over their text fields; shared attributes are
// split into matching and conflicting by structural equality. The verdict
// is match at or above threshold, possible_match at or above 70% of it,
// and no_match below that.
func Compare(
	ctx context.Context,
	oracle nlp.Oracle,
	entity1 map[string]any,
	entity2 map[string]any,
	threshold float64,
) (Result, error) {
	result := Result{
		MatchingAttributes:    []string{},
		ConflictingAttributes: []Conflict{},
	}

	text1, _ := entity1["text"].(string)
	text2, _ := entity2["text"].(string)
	if text1 == "" || text2 == "" {
		return result, ErrMissingText
	}

	similarity, err := nlp.Similarity(ctx, oracle, text1, text2)
	if err != nil {
		return result, err
	}
	result.Similarity = similarity

	keys := make([]string, 0, len(entity1))
	for key := range entity1 {
		if _, ok := entity2[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reflect.DeepEqual(entity1[key], entity2[key]) {
			result.MatchingAttributes = append(result.MatchingAttributes, key)
		} else {
			result.ConflictingAttributes = append(result.ConflictingAttributes, Conflict{
				Attribute: key,
				Value1:    entity1[key],
				Value2:    entity2[key],
			})
		}
	}

	switch {
	case similarity >= threshold:
		result.Verdict = "match"
	case similarity >= threshold*0.7:
		result.Verdict = "possible_match"
	default:
		result.Verdict = "no_match"
	}
	result.Confidence = util.ConfidenceLevel(similarity, threshold)

	return result, nil
}

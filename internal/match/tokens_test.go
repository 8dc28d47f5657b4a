package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_DropsNoiseAndSorts(t *testing.T) {
	assert.Equal(t,
		[]string{"cotton", "men", "red", "shirt"},
		Tokenize("red cotton t-shirt for men"),
		"stopwords and single characters dropped, tokens sorted")
}

func TestTokenize_FoldsVariants(t *testing.T) {
	assert.Equal(t, Tokenize("red cotton t-shirt"), Tokenize("red cotton tee"))
}

func TestTokenize_Dedupes(t *testing.T) {
	assert.Equal(t, []string{"red"}, Tokenize("red red red"))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("the a an"))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard([]string{"red", "shirt"}, []string{"red", "shirt"}))
	assert.Equal(t, 0.5, Jaccard([]string{"cotton", "red", "shirt"}, []string{"cotton", "red", "dress"}))
	assert.Equal(t, 0.0, Jaccard([]string{"red"}, []string{"blue"}))
}

func TestJaccard_EmptySetsNeverSimilar(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard([]string{"red"}, nil))
}

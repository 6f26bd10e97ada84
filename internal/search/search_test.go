package search_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/search"
)

func TestTokenize(t *testing.T) {
	tokens := search.Tokenize("Hello, World! This is a test.")
	assert.Equal(t, []string{"hello", "world", "test"}, tokens)
}

func TestTokenize_Markup(t *testing.T) {
	text := "<p>A <b>daring</b> escape</p><script>var x = 1;</script>"
	assert.Equal(t, []string{"daring", "escape"}, search.Tokenize(text))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain words", search.PlainText("plain words"))
	assert.Equal(t, "one two", search.PlainText("<div>one</div>\n<div>two</div>"))
	assert.Equal(t, "Tom & Jerry", search.PlainText("Tom &amp; Jerry"))
	assert.Equal(t, "when x<y the war ends", search.PlainText("when x<y the war ends"))
	assert.Equal(t, "a < b > c", search.PlainText("a < b > c"))
}

func TestTokenize_StrayAngleBracket(t *testing.T) {
	assert.Equal(t, []string{"empire", "wages", "war", "galaxy"},
		search.Tokenize("when x<y the empire wages war across the galaxy"))
}

func TestIndex_SimilarTo_StrayAngleBracket(t *testing.T) {
	idx := search.NewIndex([]string{
		"when x<y the empire wages war across the galaxy",
		"spaceships and aliens",
		"the empire wages war across the galaxy",
	})

	hits := idx.SimilarTo(0, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 2, hits[0].Row)
	assert.Greater(t, hits[0].Score, 0.9)
	assert.Equal(t, 1, hits[1].Row)
	assert.Zero(t, hits[1].Score)
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"the", "and", "about", "a", "yourselves"} {
		assert.True(t, search.IsStopWord(w), w)
	}
	for _, w := range []string{"war", "peace", "story"} {
		assert.False(t, search.IsStopWord(w), w)
	}
}

func TestTFIDFVectorizer(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer()
	vectorizer.Fit([]string{"apple banana", "apple orange"})

	assert.Equal(t, []string{"apple", "banana", "orange"}, vectorizer.Terms)
	assert.Len(t, vectorizer.Vocabulary, 3)

	// apple occurs in both documents: ln(3/3)+1; banana in one: ln(3/2)+1.
	assert.InDelta(t, 1.0, vectorizer.IDF[0], 1e-9)
	assert.InDelta(t, math.Log(1.5)+1, vectorizer.IDF[1], 1e-9)

	vec := vectorizer.Transform("apple banana")
	assert.Equal(t, []int{0, 1}, vec.Indices)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)
	assert.Less(t, vec.Values[0], vec.Values[1])

	assert.Equal(t, 0, vectorizer.Transform("kiwi").Len())
}

func TestCosineSimilarity(t *testing.T) {
	a := search.SparseVector{Indices: []int{0, 2}, Values: []float64{1, 1}}
	b := search.SparseVector{Indices: []int{1, 2}, Values: []float64{1, 1}}

	assert.InDelta(t, 0.5, search.CosineSimilarity(a, b), 1e-4)
	assert.InDelta(t, 1.0, search.CosineSimilarity(a, a), 1e-9)
	assert.Equal(t, 0.0, search.CosineSimilarity(a, search.SparseVector{}))
}

func abcCatalog() *catalog.Catalog {
	return catalog.FromBooks(
		catalog.Book{Title: "A", Author: "X", Genre: "Fiction", Description: "a story about war"},
		catalog.Book{Title: "B", Author: "Y", Genre: "Fiction", Description: "a story about war and peace"},
		catalog.Book{Title: "C", Author: "Z", Genre: "Sci-Fi", Description: "spaceships and aliens"},
	)
}

func TestBuildIndex(t *testing.T) {
	c := abcCatalog()
	idx, err := search.BuildIndex(c)
	require.NoError(t, err)

	assert.Equal(t, c.Len(), idx.Len())
	assert.Equal(t, []string{"aliens", "peace", "spaceships", "story", "war"}, idx.Vocabulary())

	again, err := search.BuildIndex(c)
	require.NoError(t, err)
	for i := 0; i < c.Len(); i++ {
		assert.Equal(t, idx.Vector(i), again.Vector(i))
	}
}

func TestBuildIndex_NoDescription(t *testing.T) {
	c := catalog.New([]string{"title", "author"}, [][]string{{"A", "X"}})
	idx, err := search.BuildIndex(c)
	assert.ErrorIs(t, err, search.ErrFeatureUnavailable)
	assert.Nil(t, idx)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_SimilarTo(t *testing.T) {
	idx, err := search.BuildIndex(abcCatalog())
	require.NoError(t, err)

	hits := idx.SimilarTo(0, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Row)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	for _, h := range hits {
		assert.NotEqual(t, 0, h.Row)
	}

	assert.Len(t, idx.SimilarTo(0, 1), 1)
	assert.Nil(t, idx.SimilarTo(0, 0))
	assert.Nil(t, idx.SimilarTo(7, 3))
}

func TestIndex_SimilarTo_TiesKeepOrder(t *testing.T) {
	idx := search.NewIndex([]string{"war", "", "peace", "", "aliens"})

	hits := idx.SimilarTo(0, 10)
	rows := make([]int, len(hits))
	for i, h := range hits {
		rows[i] = h.Row
		assert.Equal(t, 0.0, h.Score)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, rows)
}

func TestIndex_Search(t *testing.T) {
	idx, err := search.BuildIndex(abcCatalog())
	require.NoError(t, err)

	hits := idx.Search("peace", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Row)

	hits = idx.Search("war stories", 10)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Row)

	assert.Empty(t, idx.Search("the and", 10))
	assert.Empty(t, idx.Search("war", 0))
}

package search

import (
	"math"
	"sort"
)

// Vectorizer turns text into a vector
type Vectorizer interface {
	Fit(docs []string)
	Transform(text string) SparseVector
}

// SparseVector holds the non-zero weights of a vector. Indices are sorted
// ascending and index into the vectorizer's vocabulary.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Norm returns the Euclidean length of the vector.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// TFIDFVectorizer implements Term Frequency - Inverse Document Frequency.
// The vocabulary is sorted so that fitting the same corpus twice yields the
// same term indices.
type TFIDFVectorizer struct {
	Vocabulary map[string]int
	Terms      []string
	IDF        []float64
}

func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{
		Vocabulary: make(map[string]int),
	}
}

// Fit analyzes the corpus to build vocabulary and IDF stats. Any previous
// fit is discarded.
func (v *TFIDFVectorizer) Fit(docs []string) {
	n := float64(len(docs))
	docFreq := make(map[string]int)

	for _, doc := range docs {
		seenInDoc := make(map[string]bool)
		for _, token := range Tokenize(doc) {
			if !seenInDoc[token] {
				docFreq[token]++
				seenInDoc[token] = true
			}
		}
	}

	v.Terms = make([]string, 0, len(docFreq))
	for term := range docFreq {
		v.Terms = append(v.Terms, term)
	}
	sort.Strings(v.Terms)

	v.Vocabulary = make(map[string]int, len(v.Terms))
	v.IDF = make([]float64, len(v.Terms))
	for i, term := range v.Terms {
		v.Vocabulary[term] = i
		// smoothed: idf = ln((1 + n) / (1 + df)) + 1
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
}

// Transform converts text to an L2-normalised tf-idf vector over the fitted
// vocabulary. Unknown terms are ignored; text with no known terms yields the
// zero vector.
func (v *TFIDFVectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, token := range Tokenize(text) {
		if idx, ok := v.Vocabulary[token]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var sum float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.IDF[idx]
		vec.Values = append(vec.Values, w)
		sum += w * w
	}
	norm := math.Sqrt(sum)
	for i := range vec.Values {
		vec.Values[i] /= norm
	}
	return vec
}

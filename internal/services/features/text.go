package features

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// stopWords is a compact English stop list applied before n-gram construction.
var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
		a about above after again against all almost also am among an and any are as at
		be because been before being below between both but by can cannot could
		did do does doing done down during each either else etc every few for from further
		had has have having he her here hers herself him himself his how however i if in into
		is it its itself just least less let like me more most much must my myself
		neither no nor not now of off often on once one only or other our ours ourselves out over own
		per rather same she should since so some such than that the their theirs them themselves
		then there these they this those though through thus to too under until up upon us
		very was we were what when where whether which while who whom whose why will with
		within without would yet you your yours yourself yourselves`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopWord reports whether w (lower case) is in the stop list.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Tokenize lower-cases text and splits it into runs of letters and digits,
// keeping tokens of at least two runes.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// Terms returns the unigrams and bigrams of text after stop word removal.
func Terms(text string) []string {
	tokens := Tokenize(text)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !IsStopWord(t) {
			kept = append(kept, t)
		}
	}
	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 1; i < len(kept); i++ {
		terms = append(terms, kept[i-1]+" "+kept[i])
	}
	return terms
}

// CharLength counts runes.
func CharLength(text string) float64 { return float64(len([]rune(text))) }

// WordCount counts whitespace separated words.
func WordCount(text string) float64 { return float64(len(strings.Fields(text))) }

// Vocabulary is a frozen TF-IDF term index.
type Vocabulary struct {
	terms map[string]int
	idf   []float64
}

// FitVocabulary selects at most maxFeatures terms by corpus frequency (ties
// broken alphabetically) and computes smoothed inverse document frequencies.
func FitVocabulary(docs []string, maxFeatures int) *Vocabulary {
	tf := make(map[string]int)
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, term := range Terms(d) {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	all := make([]string, 0, len(tf))
	for term := range tf {
		all = append(all, term)
	}
	sort.Slice(all, func(i, j int) bool {
		if tf[all[i]] != tf[all[j]] {
			return tf[all[i]] > tf[all[j]]
		}
		return all[i] < all[j]
	})
	if maxFeatures > 0 && len(all) > maxFeatures {
		all = all[:maxFeatures]
	}
	sort.Strings(all)

	n := float64(len(docs))
	v := &Vocabulary{terms: make(map[string]int, len(all)), idf: make([]float64, len(all))}
	for i, term := range all {
		v.terms[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// Size returns the number of terms.
func (v *Vocabulary) Size() int { return len(v.idf) }

// Terms returns the vocabulary in index order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.idf))
	for term, i := range v.terms {
		out[i] = term
	}
	return out
}

// Transform maps text onto the vocabulary as an L2-normalized TF-IDF vector.
// Unknown terms are ignored.
func (v *Vocabulary) Transform(text string) []float64 {
	vec := make([]float64, len(v.idf))
	for _, term := range Terms(text) {
		if i, ok := v.terms[term]; ok {
			vec[i]++
		}
	}
	for i := range vec {
		vec[i] *= v.idf[i]
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Scaler standardizes columns with statistics frozen at fit time.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column mean and population standard deviation.
// Zero-variance columns get a unit scale.
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	cols := len(rows[0])
	s := Scaler{Mean: make([]float64, cols), Std: make([]float64, cols)}
	col := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean := floats.Sum(col) / float64(len(col))
		var ss float64
		for _, x := range col {
			ss += (x - mean) * (x - mean)
		}
		std := math.Sqrt(ss / float64(len(col)))
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s
}

// Transform returns a standardized copy of row.
func (s Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, x := range row {
		if j >= len(s.Mean) {
			out[j] = x
			continue
		}
		out[j] = (x - s.Mean[j]) / s.Std[j]
	}
	return out
}

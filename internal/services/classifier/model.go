// Package classifier estimates how likely review texts are fabricated.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/services/features"

	"gonum.org/v1/gonum/floats"
)

// Model is a trained classifier. It is immutable and safe for concurrent use.
type Model struct {
	vocab   *features.Vocabulary
	scaler  features.Scaler
	weights []float64
	bias    float64
	trained int
}

// Train fits the vocabulary, the structural scaler and a logistic regression
// from scratch. Examples with empty text are skipped.
func Train(examples []models.LabeledReview, opts ...TrainOption) (*Model, error) {
	cfg := defaultTrainConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	texts := make([]string, 0, len(examples))
	labels := make([]float64, 0, len(examples))
	var fakes int
	for _, ex := range examples {
		if strings.TrimSpace(ex.Text) == "" {
			continue
		}
		texts = append(texts, ex.Text)
		if ex.Fake {
			labels = append(labels, 1)
			fakes++
		} else {
			labels = append(labels, 0)
		}
	}
	if len(texts) == 0 {
		return nil, &models.InsufficientDataError{Reason: "no labeled reviews"}
	}
	if fakes == 0 || fakes == len(texts) {
		return nil, &models.InsufficientDataError{Points: len(texts), Reason: "training needs both fake and genuine reviews"}
	}

	m := &Model{vocab: features.FitVocabulary(texts, cfg.MaxFeatures), trained: len(texts)}

	structural := make([][]float64, len(texts))
	for i, t := range texts {
		structural[i] = structuralFeatures(t)
	}
	m.scaler = features.FitScaler(structural)

	X := make([][]float64, len(texts))
	for i, t := range texts {
		X[i] = m.vectorize(t)
	}
	m.fit(X, labels, cfg)
	return m, nil
}

func structuralFeatures(text string) []float64 {
	return []float64{features.CharLength(text), features.WordCount(text)}
}

func (m *Model) vectorize(text string) []float64 {
	lex := m.vocab.Transform(text)
	st := m.scaler.Transform(structuralFeatures(text))
	return append(lex, st...)
}

// fit runs deterministic full-batch gradient descent on the log loss.
func (m *Model) fit(X [][]float64, y []float64, cfg *TrainConfig) {
	dim := len(X[0])
	n := float64(len(X))
	w := make([]float64, dim)
	grad := make([]float64, dim)
	var b float64

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gb float64
		for i, x := range X {
			diff := sigmoid(floats.Dot(w, x)+b) - y[i]
			floats.AddScaled(grad, diff, x)
			gb += diff
		}
		for j := range w {
			w[j] -= cfg.LearningRate * (grad[j]/n + cfg.L2*w[j])
		}
		b -= cfg.LearningRate * gb / n
	}
	m.weights = w
	m.bias = b
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Features returns the vocabulary size plus the two structural features.
func (m *Model) Features() int {
	if m == nil {
		return 0
	}
	return len(m.weights)
}

// TrainedOn returns the number of examples used in training.
func (m *Model) TrainedOn() int {
	if m == nil {
		return 0
	}
	return m.trained
}

// Predict returns the fake probability of each text, in input order.
func (m *Model) Predict(texts []string) ([]float64, error) {
	if m == nil || m.vocab == nil {
		return nil, models.ErrUntrainedModel
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = sigmoid(floats.Dot(m.weights, m.vectorize(t)) + m.bias)
	}
	return out, nil
}

// FakePercentage counts probabilities >= threshold. An empty batch yields 0%.
func (m *Model) FakePercentage(texts []string, threshold float64) (models.FakeReport, error) {
	probs, err := m.Predict(texts)
	if err != nil {
		return models.FakeReport{}, err
	}
	return Summarize(probs, threshold), nil
}

// Summarize thresholds a probability vector.
func Summarize(probs []float64, threshold float64) models.FakeReport {
	var fake int
	for _, p := range probs {
		if p >= threshold {
			fake++
		}
	}
	var pct float64
	if len(probs) > 0 {
		pct = 100 * float64(fake) / float64(len(probs))
	}
	return models.FakeReport{
		Percentage:    pct,
		FakeCount:     fake,
		TotalCount:    len(probs),
		Threshold:     threshold,
		Level:         OverallLevel(pct),
		Probabilities: probs,
	}
}

// PlatformBreakdown reports the fake-percentage per platform label in
// first-appearance order. Reviews without a platform are left out.
func (m *Model) PlatformBreakdown(reviews []models.Review, threshold float64) ([]models.PlatformFakeReport, error) {
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}
	probs, err := m.Predict(texts)
	if err != nil {
		return nil, err
	}
	return BreakdownByPlatform(reviews, probs, threshold), nil
}

// BreakdownByPlatform groups already computed probabilities by platform.
func BreakdownByPlatform(reviews []models.Review, probs []float64, threshold float64) []models.PlatformFakeReport {
	if len(reviews) != len(probs) {
		panic(fmt.Sprintf("classifier: %d reviews but %d probabilities", len(reviews), len(probs)))
	}
	order := make([]string, 0, 4)
	groups := make(map[string][]float64)
	for i, r := range reviews {
		if r.Platform == "" {
			continue
		}
		if _, ok := groups[r.Platform]; !ok {
			order = append(order, r.Platform)
		}
		groups[r.Platform] = append(groups[r.Platform], probs[i])
	}
	out := make([]models.PlatformFakeReport, 0, len(order))
	for _, p := range order {
		s := Summarize(groups[p], threshold)
		out = append(out, models.PlatformFakeReport{
			Platform:   p,
			Percentage: s.Percentage,
			FakeCount:  s.FakeCount,
			TotalCount: s.TotalCount,
			Level:      PlatformLevel(s.Percentage),
		})
	}
	return out
}

// Suspicious returns up to limit reviews with probability strictly above
// threshold, in input order, with text cut to 200 runes.
func Suspicious(texts []string, probs []float64, threshold float64, limit int) []models.SuspiciousReview {
	out := make([]models.SuspiciousReview, 0, limit)
	for i, p := range probs {
		if len(out) >= limit {
			break
		}
		if p <= threshold || i >= len(texts) {
			continue
		}
		text := []rune(texts[i])
		if len(text) > 200 {
			text = text[:200]
		}
		out = append(out, models.SuspiciousReview{Index: i, Text: string(text), Probability: p})
	}
	return out
}

// OverallLevel labels a batch fake-percentage.
func OverallLevel(pct float64) models.FakeLevel {
	switch {
	case pct < 20:
		return models.FakeLevelLow
	case pct < 50:
		return models.FakeLevelMedium
	default:
		return models.FakeLevelHigh
	}
}

// PlatformLevel labels a per-platform fake-percentage.
func PlatformLevel(pct float64) models.FakeLevel {
	switch {
	case pct < 30:
		return models.FakeLevelLow
	case pct < 60:
		return models.FakeLevelMedium
	default:
		return models.FakeLevelHigh
	}
}

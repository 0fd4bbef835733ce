package classifier

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpus() []models.LabeledReview {
	genuine := []string{
		"Great value!",
		"Okay phone, works",
		"Great product, works as described and arrived on time.",
		"Good quality",
		"Solid product for the price.",
		"Great fit and comfortable.",
		"Okay quality, nothing special but fine for daily use.",
		"Nice product, my family loves it.",
	}
	promotional := []string{
		"Buy NOW!!! LIMITED TIME!!!",
		"DON'T MISS THIS OFFER!!!",
		"Act fast, only 2 left!!!",
		"Save $$$$ now!!!!",
		"LIMITED OFFER buy today!!!",
		"Click here to buy now, this limited offer ends soon, act fast!!!",
		"Buy!!!",
		"Best offer ever, buy now before it is gone!!!",
	}
	out := make([]models.LabeledReview, 0, len(genuine)+len(promotional))
	for i := range genuine {
		out = append(out, models.LabeledReview{Text: genuine[i]})
		out = append(out, models.LabeledReview{Text: promotional[i], Fake: true})
	}
	return out
}

func trained(t *testing.T) *Model {
	t.Helper()
	m, err := Train(corpus())
	require.NoError(t, err)
	return m
}

func TestPromotionalReviewScoresHighest(t *testing.T) {
	m := trained(t)
	probs, err := m.Predict([]string{"Great!", "BUY NOW LIMITED OFFER!!!", "Okay product"})
	require.NoError(t, err)
	require.Len(t, probs, 3)

	assert.Greater(t, probs[1], probs[0])
	assert.Greater(t, probs[1], probs[2])
	assert.Greater(t, probs[1], 0.5)
	assert.Less(t, probs[0], 0.5)
	assert.Less(t, probs[2], 0.5)

	report, err := m.FakePercentage([]string{"Great!", "BUY NOW LIMITED OFFER!!!", "Okay product"}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FakeCount)
	assert.InDelta(t, 100.0/3, report.Percentage, 1e-9)
	assert.Equal(t, models.FakeLevelMedium, report.Level)
}

func TestProbabilitiesInUnitInterval(t *testing.T) {
	m := trained(t)
	probs, err := m.Predict([]string{"", "!!!", strings.Repeat("buy offer ", 500), "unseen words entirely"})
	require.NoError(t, err)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestTrainingIsDeterministic(t *testing.T) {
	texts := []string{"Great!", "BUY NOW LIMITED OFFER!!!", "Okay product"}
	a, err := trained(t).Predict(texts)
	require.NoError(t, err)
	b, err := trained(t).Predict(texts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFakePercentageEmptyBatch(t *testing.T) {
	report, err := trained(t).FakePercentage(nil, 0.5)
	require.NoError(t, err)
	assert.Zero(t, report.Percentage)
	assert.Zero(t, report.TotalCount)
	assert.Equal(t, models.FakeLevelLow, report.Level)
}

func TestFakePercentageMonotoneInThreshold(t *testing.T) {
	m := trained(t)
	texts := []string{"Great!", "BUY NOW LIMITED OFFER!!!", "Okay product", "Act fast!!!", "Nice fit"}
	var last = 101.0
	for _, th := range []float64{0, 0.2, 0.4, 0.5, 0.6, 0.8, 1} {
		r, err := m.FakePercentage(texts, th)
		require.NoError(t, err)
		assert.LessOrEqual(t, r.Percentage, last, "threshold %v", th)
		last = r.Percentage
	}
	r, err := m.FakePercentage(texts, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Percentage)
}

func TestUntrainedModel(t *testing.T) {
	var m *Model
	_, err := m.Predict([]string{"x"})
	assert.ErrorIs(t, err, models.ErrUntrainedModel)

	d := NewDetector(nil)
	assert.False(t, d.Trained())
	_, err = d.Predict([]string{"x"})
	assert.ErrorIs(t, err, models.ErrUntrainedModel)
	_, err = d.FakePercentage([]string{"x"}, 0.5)
	assert.ErrorIs(t, err, models.ErrUntrainedModel)
	_, err = d.Analyze([]models.Review{{Text: "x"}}, 0.5)
	assert.ErrorIs(t, err, models.ErrUntrainedModel)
}

func TestTrainRejectsDegenerateCorpus(t *testing.T) {
	_, err := Train(nil)
	var insufficient *models.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))

	_, err = Train([]models.LabeledReview{{Text: "good"}, {Text: "fine"}})
	assert.True(t, errors.As(err, &insufficient))

	_, err = Train([]models.LabeledReview{{Text: "  "}, {Text: "", Fake: true}})
	assert.True(t, errors.As(err, &insufficient))
}

func TestTrainTable(t *testing.T) {
	rows := make([][]string, 0)
	for _, ex := range corpus() {
		label := "OR"
		if ex.Fake {
			label = "CG"
		}
		rows = append(rows, []string{"Home", ex.Text, label})
	}
	rows = append(rows, []string{"Home", "unlabeled", "?"}, []string{"Home", "", "CG"})
	tbl := table.FromRecords("training", []string{"category", "text_", "label"}, rows)

	m, err := TrainTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, len(corpus()), m.TrainedOn())

	_, err = TrainTable(table.FromRecords("bad", []string{"body", "label"}, nil))
	var schema *models.SchemaError
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, "bad", schema.Table)

	_, err = TrainTable(table.FromRecords("bad", []string{"review"}, nil))
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, labelColumns, schema.Wanted)
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		in   string
		fake bool
		ok   bool
	}{
		{"1", true, true},
		{"0", false, true},
		{"1.0", true, true},
		{"0.2", false, true},
		{"TRUE", true, true},
		{"false", false, true},
		{"CG", true, true},
		{"or", false, true},
		{"fake", true, true},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, c := range cases {
		fake, ok := ParseLabel(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.fake, fake, c.in)
	}
}

func TestReviewsFromTable(t *testing.T) {
	tbl := table.FromRecords("reviews", []string{"Review", "Platform"}, [][]string{
		{"nice", "Amazon"},
		{"", "eBay"},
		{"ok"},
	})
	reviews, err := ReviewsFromTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, []models.Review{
		{Text: "nice", Platform: "Amazon"},
		{Text: "", Platform: "eBay"},
		{Text: "ok", Platform: ""},
	}, reviews)
}

func TestBreakdownByPlatform(t *testing.T) {
	reviews := []models.Review{
		{Text: "a", Platform: "eBay"},
		{Text: "b", Platform: "Amazon"},
		{Text: "c", Platform: "eBay"},
		{Text: "d"},
	}
	out := BreakdownByPlatform(reviews, []float64{0.9, 0.1, 0.2, 0.99}, 0.5)
	require.Len(t, out, 2)
	assert.Equal(t, "eBay", out[0].Platform)
	assert.Equal(t, 50.0, out[0].Percentage)
	assert.Equal(t, models.FakeLevelMedium, out[0].Level)
	assert.Equal(t, "Amazon", out[1].Platform)
	assert.Equal(t, 0.0, out[1].Percentage)
	assert.Equal(t, models.FakeLevelLow, out[1].Level)
}

func TestSuspicious(t *testing.T) {
	long := strings.Repeat("é", 250)
	texts := []string{"a", long, "c", "d", "e", "f"}
	probs := []float64{0.7, 0.95, 0.8, 0.71, 0.99, 0.9}
	out := Suspicious(texts, probs, 0.7, 3)
	require.Len(t, out, 3)
	assert.Equal(t, 1, out[0].Index)
	assert.Equal(t, 200, len([]rune(out[0].Text)))
	assert.Equal(t, 2, out[1].Index)
	assert.Equal(t, 3, out[2].Index)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, models.FakeLevelLow, OverallLevel(19.99))
	assert.Equal(t, models.FakeLevelMedium, OverallLevel(20))
	assert.Equal(t, models.FakeLevelHigh, OverallLevel(50))
	assert.Equal(t, models.FakeLevelLow, PlatformLevel(29.9))
	assert.Equal(t, models.FakeLevelMedium, PlatformLevel(30))
	assert.Equal(t, models.FakeLevelHigh, PlatformLevel(60))
}

func TestDetectorConcurrentPredictionDuringRetrain(t *testing.T) {
	d := NewDetector(nil, WithEpochs(200))
	require.NoError(t, d.Train(corpus()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				probs, err := d.Predict([]string{"BUY NOW LIMITED OFFER!!!"})
				assert.NoError(t, err)
				assert.Len(t, probs, 1)
			}
		}()
	}
	require.NoError(t, d.Train(corpus()))
	wg.Wait()

	analysis, err := d.Analyze([]models.Review{
		{Text: "Great!", Platform: "Amazon"},
		{Text: "BUY NOW LIMITED OFFER!!!", Platform: "eBay"},
	}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.Overall.TotalCount)
	assert.Len(t, analysis.Platforms, 2)
}

func TestDetectorSuspiciousSettings(t *testing.T) {
	d := NewDetector(nil).WithSuspicious(0.01, 0)
	require.NoError(t, d.Train(corpus()))

	analysis, err := d.Analyze([]models.Review{{Text: "BUY NOW LIMITED OFFER!!!"}}, 0.5)
	require.NoError(t, err)
	assert.Empty(t, analysis.Suspicious)

	d.WithSuspicious(0.01, 1)
	analysis, err = d.Analyze([]models.Review{{Text: "BUY NOW LIMITED OFFER!!!"}, {Text: "BUY NOW!!!"}}, 0.5)
	require.NoError(t, err)
	assert.Len(t, analysis.Suspicious, 1)
}

package models

// Review is one raw review string with an optional platform label.
type Review struct {
	Text     string `json:"text"`
	Platform string `json:"platform,omitempty"`
}

// LabeledReview is a training example. Fake is true for fabricated reviews.
type LabeledReview struct {
	Text string `json:"text"`
	Fake bool   `json:"fake"`
}

// FakeLevel is a coarse label for a fake-percentage.
type FakeLevel string

const (
	FakeLevelLow    FakeLevel = "Low"
	FakeLevelMedium FakeLevel = "Medium"
	FakeLevelHigh   FakeLevel = "High"
)

// FakeReport summarizes classifier output for a batch of reviews.
type FakeReport struct {
	Percentage    float64   `json:"percentage"`
	FakeCount     int       `json:"fake_count"`
	TotalCount    int       `json:"total_count"`
	Threshold     float64   `json:"threshold"`
	Level         FakeLevel `json:"level"`
	Probabilities []float64 `json:"probabilities"`
}

// PlatformFakeReport is the fake-percentage of one platform's reviews.
type PlatformFakeReport struct {
	Platform   string    `json:"platform"`
	Percentage float64   `json:"percentage"`
	FakeCount  int       `json:"fake_count"`
	TotalCount int       `json:"total_count"`
	Level      FakeLevel `json:"level"`
}

// SuspiciousReview is a review the model is highly confident is fake.
type SuspiciousReview struct {
	Index       int     `json:"index"`
	Text        string  `json:"text"`
	Probability float64 `json:"probability"`
}

// ReviewAnalysis bundles everything the report shows about reviews.
type ReviewAnalysis struct {
	Overall    FakeReport           `json:"overall"`
	Platforms  []PlatformFakeReport `json:"platforms,omitempty"`
	Suspicious []SuspiciousReview   `json:"suspicious,omitempty"`
}

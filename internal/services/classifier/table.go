package classifier

import (
	"strconv"
	"strings"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/table"
)

var (
	textColumns     = []string{"text_", "text", "review", "review_text", "reviews", "content", "comment"}
	labelColumns    = []string{"label", "is_fake", "fake", "target", "class"}
	platformColumns = []string{"platform", "marketplace", "source", "site"}
)

// TrainTable trains on a labeled table. Rows with empty text or an
// unreadable label are skipped.
func TrainTable(t *table.Table, opts ...TrainOption) (*Model, error) {
	examples, err := LabeledFromTable(t)
	if err != nil {
		return nil, err
	}
	return Train(examples, opts...)
}

// LabeledFromTable extracts labeled training examples.
func LabeledFromTable(t *table.Table) ([]models.LabeledReview, error) {
	textCol, ok := t.Resolve(textColumns...)
	if !ok {
		return nil, &models.SchemaError{Table: t.Name, Wanted: textColumns, Columns: t.Columns}
	}
	labelCol, ok := t.Resolve(labelColumns...)
	if !ok {
		return nil, &models.SchemaError{Table: t.Name, Wanted: labelColumns, Columns: t.Columns}
	}
	out := make([]models.LabeledReview, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		text := t.Value(i, textCol)
		if text == "" {
			continue
		}
		fake, ok := ParseLabel(t.Value(i, labelCol))
		if !ok {
			continue
		}
		out = append(out, models.LabeledReview{Text: text, Fake: fake})
	}
	return out, nil
}

// ReviewsFromTable extracts unlabeled reviews. Missing text becomes "".
func ReviewsFromTable(t *table.Table) ([]models.Review, error) {
	textCol, ok := t.Resolve(textColumns...)
	if !ok {
		return nil, &models.SchemaError{Table: t.Name, Wanted: textColumns, Columns: t.Columns}
	}
	platformCol, hasPlatform := t.Resolve(platformColumns...)
	out := make([]models.Review, t.Len())
	for i := range out {
		out[i].Text = t.Value(i, textCol)
		if hasPlatform {
			out[i].Platform = t.Value(i, platformCol)
		}
	}
	return out, nil
}

// ParseLabel reads a fake/genuine label. Numbers >= 0.5 are fake; the
// CG/OR convention of generated-versus-original corpora is understood.
func ParseLabel(s string) (fake bool, ok bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return false, false
	case "fake", "cg", "spam", "yes", "y":
		return true, true
	case "real", "genuine", "or", "ham", "no", "n":
		return false, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f >= 0.5, true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b, true
	}
	return false, false
}

// Texts returns the review texts in order.
func Texts(reviews []models.Review) []string {
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = r.Text
	}
	return out
}

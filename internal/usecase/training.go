package usecase

import (
	"errors"
	"fmt"
	"io/fs"

	"ShopScore/internal/services/classifier"
	"ShopScore/pkg/logger"
)

// TrainDetector fits det on the catalog's training table. A missing table
// leaves det untrained, so reports fall back to a neutral fake score.
func TrainDetector(catalog *Catalog, det *classifier.Detector, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	t, err := catalog.TrainingTable()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("no training data, classifier stays untrained", logger.Error(err))
			return nil
		}
		return err
	}
	log.Debug("training table loaded", logger.String("table", t.Name), logger.Int("rows", t.Len()))
	if err := det.TrainTable(t); err != nil {
		return fmt.Errorf("train classifier on %s: %w", t.Name, err)
	}
	return nil
}

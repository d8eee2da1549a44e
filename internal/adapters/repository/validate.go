package repository

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/tier"
)

func validateUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidUser)
	}
	return nil
}

func validateItems(items []model.RankedItem) error {
	names := dedupe.NewNameSet()
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidItem, i)
		}
		if math.IsNaN(it.Score) || it.Score < 0 || it.Score > tier.MaxScore {
			return fmt.Errorf("%w: %q score %v outside [0, %v]", ErrInvalidItem, it.Name, it.Score, tier.MaxScore)
		}
		if !names.Add(it.Name) {
			return fmt.Errorf("%w: %q", ErrDuplicateRow, it.Name)
		}
	}
	return nil
}

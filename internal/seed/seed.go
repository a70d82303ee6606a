// Package seed holds the sample families loaded into an empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/kerigma/internal/model"
)

//go:embed families.json
var familiesJSON []byte

// Families returns the sample families in display order.
func Families() ([]model.Family, error) {
	var families []model.Family
	if err := json.Unmarshal(familiesJSON, &families); err != nil {
		return nil, fmt.Errorf("decode seed families: %w", err)
	}
	return families, nil
}

type importer interface {
	Import(ctx context.Context, families []model.Family) error
}

// Load imports the sample families and returns how many were loaded.
func Load(ctx context.Context, dst importer) (int, error) {
	families, err := Families()
	if err != nil {
		return 0, err
	}
	if err := dst.Import(ctx, families); err != nil {
		return 0, fmt.Errorf("import seed families: %w", err)
	}
	return len(families), nil
}

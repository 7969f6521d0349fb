package ml

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"house-pricer/internal/dataset"
	"house-pricer/internal/features"

	"github.com/stretchr/testify/require"
)

// housingCSV builds a small synthetic table whose price is a noisy linear
// function of the features.
func housingCSV(rows int, seed int64, extraColumn bool) string {
	rng := rand.New(rand.NewSource(seed))
	furnishing := []string{"furnished", "semi-furnished", "unfurnished"}

	var b strings.Builder
	b.WriteString("price,area,bedrooms,bathrooms,mainroad,furnishingstatus")
	if extraColumn {
		b.WriteString(",parking")
	}
	b.WriteString("\n")

	for i := 0; i < rows; i++ {
		area := 2000 + rng.Intn(8000)
		bedrooms := 1 + rng.Intn(5)
		bathrooms := 1 + rng.Intn(3)
		mainroad := "no"
		if rng.Intn(3) > 0 {
			mainroad = "yes"
		}
		furnish := rng.Intn(len(furnishing))

		price := 1_000_000 + 600*area + 250_000*bedrooms + 400_000*bathrooms + 300_000*(2-furnish)
		if mainroad == "yes" {
			price += 500_000
		}
		price += rng.Intn(100_000)

		fmt.Fprintf(&b, "%d,%d,%d,%d,%s,%s", price, area, bedrooms, bathrooms, mainroad, furnishing[furnish])
		if extraColumn {
			fmt.Fprintf(&b, ",%d", rng.Intn(3))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func testDataset(t *testing.T, extraColumn bool) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(housingCSV(80, 42, extraColumn)), "price")
	require.NoError(t, err)
	return ds
}

func testFitOptions(dir string) FitOptions {
	params := DefaultBoostParams()
	params.Rounds = 60
	params.MaxDepth = 4
	return FitOptions{
		ModelPath:  filepath.Join(dir, "models", "model.json"),
		ScalerPath: filepath.Join(dir, "models", "scaler.json"),
		TestSize:   0.2,
		Seed:       42,
		Boost:      params,
	}
}

// constantPredictor always predicts value for a one column schema.
func constantPredictor(t *testing.T, value, residualStd float64) *Predictor {
	t.Helper()
	schema, err := features.NewSchema([]string{"area"}, nil)
	require.NoError(t, err)
	return &Predictor{
		schema:      schema,
		scaler:      &StandardScaler{Mean: []float64{0}, Scale: []float64{1}},
		booster:     &Booster{NumFeatures: 1, BaseScore: value},
		residualStd: residualStd,
		report:      TrainingReport{Version: "test", Features: 1},
	}
}

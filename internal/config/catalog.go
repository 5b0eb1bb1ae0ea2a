package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// Catalog is the scenario and rule configuration read from CATALOG_FILE. Entries are
// untrusted; the engines validate them before use.
type Catalog struct {
	Scenarios []domain.StressScenario `yaml:"scenarios"`
	Rules     []domain.ComplianceRule `yaml:"rules"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	var c Catalog
	if err := decodeYAMLFile(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SeriesPoint is one observation of a snapshot's return history.
type SeriesPoint struct {
	Date            time.Time `json:"date" yaml:"date"`
	PortfolioReturn float64   `json:"portfolio_return" yaml:"portfolio_return"`
	BenchmarkReturn float64   `json:"benchmark_return" yaml:"benchmark_return"`
	PortfolioValue  float64   `json:"portfolio_value" yaml:"portfolio_value"`
	BenchmarkValue  float64   `json:"benchmark_value" yaml:"benchmark_value"`
}

// SnapshotDocument is the wire and file form of a portfolio snapshot.
type SnapshotDocument struct {
	TotalValue float64           `json:"total_value" yaml:"total_value"`
	Positions  []domain.Position `json:"positions" yaml:"positions"`
	Series     []SeriesPoint     `json:"series,omitempty" yaml:"series,omitempty"`
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*SnapshotDocument, error) {
	var d SnapshotDocument
	if err := decodeYAMLFile(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Build validates the document. The series is nil when the document has none.
func (d *SnapshotDocument) Build() (*domain.Portfolio, *domain.ReturnSeries, error) {
	portfolio, err := domain.NewPortfolio(d.Positions, d.TotalValue)
	if err != nil {
		return nil, nil, err
	}
	if len(d.Series) == 0 {
		return portfolio, nil, nil
	}
	series, err := domain.NewReturnSeries(ReturnPoints(d.Series))
	if err != nil {
		return nil, nil, err
	}
	return portfolio, series, nil
}

// ReturnPoints converts wire points to domain points.
func ReturnPoints(points []SeriesPoint) []domain.ReturnPoint {
	out := make([]domain.ReturnPoint, len(points))
	for i, p := range points {
		out[i] = domain.ReturnPoint(p)
	}
	return out
}

func decodeYAMLFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", domain.ErrInvalidConfiguration, path, err)
	}
	return nil
}

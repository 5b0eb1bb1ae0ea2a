package stress

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// HistoricalScenarios returns the built-in historical crisis scenarios. Shocks are
// peak-to-trough moves of a broad equity index.
func HistoricalScenarios() []domain.StressScenario {
	return []domain.StressScenario{
		{
			ID:                    "black_monday_1987",
			Name:                  "Black Monday 1987",
			Description:           "Single-day crash of 19 October 1987",
			Type:                  domain.ScenarioHistorical,
			MarketShockPct:        -22.6,
			VolatilityIncreasePct: 150,
			CorrelationChangePct:  40,
			LiquidityImpactPct:    -30,
			DurationDays:          1,
		},
		{
			ID:                    "dotcom_2000",
			Name:                  "Dot-com bust 2000-2002",
			Description:           "Technology bubble unwind from March 2000 to October 2002",
			Type:                  domain.ScenarioHistorical,
			MarketShockPct:        -49.1,
			VolatilityIncreasePct: 60,
			CorrelationChangePct:  20,
			LiquidityImpactPct:    -10,
			DurationDays:          929,
		},
		{
			ID:                    "gfc_2008",
			Name:                  "Global financial crisis 2008",
			Description:           "Credit crisis drawdown from October 2007 to March 2009",
			Type:                  domain.ScenarioHistorical,
			MarketShockPct:        -56.8,
			VolatilityIncreasePct: 200,
			CorrelationChangePct:  50,
			LiquidityImpactPct:    -40,
			DurationDays:          517,
		},
		{
			ID:                    "covid_2020",
			Name:                  "COVID-19 crash 2020",
			Description:           "Pandemic sell-off of February and March 2020",
			Type:                  domain.ScenarioHistorical,
			MarketShockPct:        -33.9,
			VolatilityIncreasePct: 250,
			CorrelationChangePct:  45,
			LiquidityImpactPct:    -25,
			DurationDays:          23,
		},
		{
			ID:                    "rate_shock_2022",
			Name:                  "Rate shock 2022",
			Description:           "Inflation and rate-hike bear market of 2022",
			Type:                  domain.ScenarioHistorical,
			MarketShockPct:        -25.4,
			VolatilityIncreasePct: 60,
			CorrelationChangePct:  30,
			LiquidityImpactPct:    -10,
			DurationDays:          282,
		},
	}
}

// Catalog holds stress scenarios in insertion order. Safe for concurrent use; scenarios
// are returned by value.
type Catalog struct {
	mu        sync.RWMutex
	order     []string
	scenarios map[string]domain.StressScenario
	newID     func() string
}

// NewCatalog creates a catalog seeded with scenarios, which must carry unique ids.
func NewCatalog(scenarios ...domain.StressScenario) (*Catalog, error) {
	c := &Catalog{
		scenarios: make(map[string]domain.StressScenario),
		newID:     uuid.NewString,
	}
	for _, s := range scenarios {
		if err := c.Register(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewDefaultCatalog creates a catalog with the historical scenarios.
func NewDefaultCatalog() *Catalog {
	c, err := NewCatalog(HistoricalScenarios()...)
	if err != nil {
		panic(err) // built-in scenarios are static
	}
	return c
}

// Register adds a scenario under its own id.
func (c *Catalog) Register(s domain.StressScenario) error {
	if s.ID == "" {
		return fmt.Errorf("%w: scenario %q has no id", domain.ErrInvalidConfiguration, s.Name)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.scenarios[s.ID]; exists {
		return fmt.Errorf("%w: duplicate scenario id %q", domain.ErrInvalidConfiguration, s.ID)
	}
	c.scenarios[s.ID] = s
	c.order = append(c.order, s.ID)
	return nil
}

// Create validates a user-defined scenario, assigns it a fresh id and appends it.
// An empty type defaults to custom.
func (c *Catalog) Create(s domain.StressScenario) (domain.StressScenario, error) {
	if s.Type == "" {
		s.Type = domain.ScenarioCustom
	}
	s.ID = c.newID()
	if err := c.Register(s); err != nil {
		return domain.StressScenario{}, err
	}
	return s, nil
}

// Get returns the scenario with the given id.
func (c *Catalog) Get(id string) (domain.StressScenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenarios[id]
	if !ok {
		return domain.StressScenario{}, fmt.Errorf("%w: scenario %q", domain.ErrNotFound, id)
	}
	return s, nil
}

// List returns all scenarios in insertion order.
func (c *Catalog) List() []domain.StressScenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.StressScenario, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.scenarios[id])
	}
	return out
}

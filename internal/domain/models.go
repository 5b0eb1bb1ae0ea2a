// Package domain provides the risk data model shared by the engines: return series,
// positions and portfolios, VaR results, stress scenarios and results, and compliance rules
// and reports.
//
// All percentages crossing a package boundary are percent points (-20 means -20%).
// Position weights are the one exception: they are fractions in [0, 1].
package domain

import (
	"fmt"
	"sort"
)

// InstrumentType classifies a position's instrument.
type InstrumentType string

const (
	// InstrumentEquity represents individual stocks/shares
	InstrumentEquity InstrumentType = "EQUITY"
	// InstrumentETF represents Exchange Traded Funds
	InstrumentETF InstrumentType = "ETF"
	// InstrumentETC represents Exchange Traded Commodities
	InstrumentETC InstrumentType = "ETC"
	// InstrumentMutualFund represents mutual funds
	InstrumentMutualFund InstrumentType = "MUTUALFUND"
	InstrumentBond       InstrumentType = "BOND"
	InstrumentDerivative InstrumentType = "DERIVATIVE"
	InstrumentCash       InstrumentType = "CASH"
	InstrumentUnknown    InstrumentType = "UNKNOWN"
)

// Position is one holding of a portfolio snapshot.
type Position struct {
	Symbol         string         `json:"symbol" yaml:"symbol"`
	Name           string         `json:"name" yaml:"name"`
	Weight         float64        `json:"weight" yaml:"weight"` // fraction of total value, 0..1
	MarketValue    float64        `json:"market_value" yaml:"market_value"`
	Sector         string         `json:"sector" yaml:"sector"`
	InstrumentType InstrumentType `json:"instrument_type" yaml:"instrument_type"`
	// Beta is the position's sensitivity to the market shock. Nil means 1.
	Beta *float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
}

// EffectiveBeta returns Beta, defaulting to 1.
func (p Position) EffectiveBeta() float64 {
	if p.Beta == nil {
		return 1
	}
	return *p.Beta
}

// Portfolio is a validated, non-empty set of positions. Weights need not sum to 1; the
// remainder is treated as cash.
type Portfolio struct {
	positions  []Position
	totalValue float64
}

// NewPortfolio validates positions and builds a Portfolio.
// totalValue includes any cash residual; zero means "sum of market values".
func NewPortfolio(positions []Position, totalValue float64) (*Portfolio, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: portfolio has no positions", ErrInvalidInput)
	}
	if !finite(totalValue) || totalValue < 0 {
		return nil, fmt.Errorf("%w: total value %v", ErrInvalidInput, totalValue)
	}

	seen := make(map[string]bool, len(positions))
	copied := make([]Position, len(positions))
	sum := 0.0
	for i, p := range positions {
		if p.Symbol == "" {
			return nil, fmt.Errorf("%w: position %d has no symbol", ErrInvalidInput, i)
		}
		if seen[p.Symbol] {
			return nil, fmt.Errorf("%w: duplicate position %s", ErrInvalidInput, p.Symbol)
		}
		seen[p.Symbol] = true

		if !finite(p.Weight, p.MarketValue) {
			return nil, fmt.Errorf("%w: position %s has non-finite values", ErrInvalidInput, p.Symbol)
		}
		if p.Weight < 0 || p.Weight > 1 {
			return nil, fmt.Errorf("%w: position %s weight %v outside [0,1]", ErrInvalidInput, p.Symbol, p.Weight)
		}
		if p.MarketValue < 0 {
			return nil, fmt.Errorf("%w: position %s has negative market value", ErrInvalidInput, p.Symbol)
		}
		if p.Beta != nil {
			if !finite(*p.Beta) {
				return nil, fmt.Errorf("%w: position %s has non-finite beta", ErrInvalidInput, p.Symbol)
			}
			beta := *p.Beta
			p.Beta = &beta
		}
		if p.InstrumentType == "" {
			p.InstrumentType = InstrumentUnknown
		}
		copied[i] = p
		sum += p.MarketValue
	}

	if totalValue == 0 {
		totalValue = sum
	}

	return &Portfolio{positions: copied, totalValue: totalValue}, nil
}

// Positions returns a deep copy of the positions.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, len(p.positions))
	copy(out, p.positions)
	for i := range out {
		if out[i].Beta != nil {
			beta := *out[i].Beta
			out[i].Beta = &beta
		}
	}
	return out
}

// TotalValue returns the portfolio value including cash.
func (p *Portfolio) TotalValue() float64 {
	return p.totalValue
}

// WeightSum returns the sum of position weights.
func (p *Portfolio) WeightSum() float64 {
	sum := 0.0
	for _, pos := range p.positions {
		sum += pos.Weight
	}
	return sum
}

// CashWeight returns the unallocated weight, 1 - sum(weights), floored at 0.
func (p *Portfolio) CashWeight() float64 {
	if cash := 1 - p.WeightSum(); cash > 0 {
		return cash
	}
	return 0
}

// SectorWeights returns summed weights per sector.
func (p *Portfolio) SectorWeights() map[string]float64 {
	out := make(map[string]float64)
	for _, pos := range p.positions {
		out[pos.Sector] += pos.Weight
	}
	return out
}

// InstrumentWeights returns summed weights per instrument type.
func (p *Portfolio) InstrumentWeights() map[InstrumentType]float64 {
	out := make(map[InstrumentType]float64)
	for _, pos := range p.positions {
		out[pos.InstrumentType] += pos.Weight
	}
	return out
}

// LargestPosition returns the position with the highest weight (first one on ties).
func (p *Portfolio) LargestPosition() Position {
	largest := p.positions[0]
	for _, pos := range p.positions[1:] {
		if pos.Weight > largest.Weight {
			largest = pos
		}
	}
	return largest
}

// Sectors returns the distinct sectors in sorted order.
func (p *Portfolio) Sectors() []string {
	weights := p.SectorWeights()
	out := make([]string, 0, len(weights))
	for s := range weights {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

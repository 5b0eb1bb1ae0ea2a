// Package compliance classifies portfolio figures against configured limits and floors.
package compliance

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// categoryOrder fixes the order of report category summaries.
var categoryOrder = []domain.RuleCategory{
	domain.CategoryPositionLimit,
	domain.CategorySectorLimit,
	domain.CategoryRiskLimit,
	domain.CategoryRegulatory,
}

// Config tunes the compliance engine.
type Config struct {
	TradingDaysPerYear int
}

// Evaluation is the outcome of one pass over a rule set.
type Evaluation struct {
	Results []domain.ComplianceCheckResult `json:"results"`
	Report  domain.ComplianceReport        `json:"report"`
}

// Engine evaluates compliance rules.
type Engine struct {
	cfg Config
	now func() time.Time
	log zerolog.Logger
}

// NewEngine creates a compliance engine.
func NewEngine(cfg Config, log zerolog.Logger) *Engine {
	if cfg.TradingDaysPerYear <= 0 {
		cfg.TradingDaysPerYear = formulas.TradingDaysPerYear
	}
	return &Engine{
		cfg: cfg,
		now: time.Now,
		log: log.With().Str("component", "compliance_engine").Logger(),
	}
}

// Evaluate classifies every rule. The whole rule set is validated first; one malformed
// rule fails the pass with no partial results.
func (e *Engine) Evaluate(rules []domain.ComplianceRule) (*Evaluation, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	results := make([]domain.ComplianceCheckResult, len(rules))
	for i, r := range rules {
		results[i] = Classify(r)
	}
	report := buildReport(results, e.now())

	e.log.Info().
		Str("overall_status", string(report.OverallStatus)).
		Int("rules", report.TotalRules).
		Int("warnings", report.Warnings).
		Int("violations", report.Violations).
		Msg("Compliance evaluated")

	return &Evaluation{Results: results, Report: report}, nil
}

// Classify derives the status of a single, already validated rule.
func Classify(r domain.ComplianceRule) domain.ComplianceCheckResult {
	usage := r.CurrentValue / r.Threshold
	var status domain.ComplianceStatus

	switch r.Direction {
	case domain.BelowIsBad:
		switch {
		case r.CurrentValue < r.Threshold:
			status = domain.StatusViolation
		case r.CurrentValue < r.Threshold*FloorWarningRatio:
			status = domain.StatusWarning
		default:
			status = domain.StatusCompliant
		}
	default:
		switch {
		case usage > 1:
			status = domain.StatusViolation
		case usage > LimitWarningUsage:
			status = domain.StatusWarning
		default:
			status = domain.StatusCompliant
		}
	}

	return domain.ComplianceCheckResult{
		RuleID:       r.ID,
		RuleName:     r.Name,
		Category:     r.Category,
		Direction:    r.Direction,
		Unit:         r.Unit,
		Threshold:    r.Threshold,
		CurrentValue: r.CurrentValue,
		Usage:        usage,
		Status:       status,
		Message:      message(r, status),
	}
}

func message(r domain.ComplianceRule, status domain.ComplianceStatus) string {
	current, threshold := formatValue(r.CurrentValue, r.Unit), formatValue(r.Threshold, r.Unit)
	if r.Direction == domain.BelowIsBad {
		switch status {
		case domain.StatusViolation:
			return fmt.Sprintf("%s is below the minimum of %s", current, threshold)
		case domain.StatusWarning:
			return fmt.Sprintf("%s is close to the minimum of %s", current, threshold)
		}
		return fmt.Sprintf("%s is above the minimum of %s", current, threshold)
	}
	switch status {
	case domain.StatusViolation:
		return fmt.Sprintf("%s exceeds the limit of %s", current, threshold)
	case domain.StatusWarning:
		return fmt.Sprintf("%s is above %.0f%% of the limit of %s", current, LimitWarningUsage*100, threshold)
	}
	return fmt.Sprintf("%s is within the limit of %s", current, threshold)
}

func formatValue(v float64, unit domain.RuleUnit) string {
	switch unit {
	case domain.UnitPercent:
		return fmt.Sprintf("%.2f%%", v)
	case domain.UnitRatio:
		return fmt.Sprintf("%.2fx", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// buildReport aggregates results. Violations dominate warnings, which dominate compliance.
func buildReport(results []domain.ComplianceCheckResult, now time.Time) domain.ComplianceReport {
	report := domain.ComplianceReport{
		TotalRules:  len(results),
		Categories:  []domain.CategorySummary{},
		GeneratedAt: now,
	}
	byCategory := make(map[domain.RuleCategory]*domain.CategorySummary)

	for _, r := range results {
		summary, ok := byCategory[r.Category]
		if !ok {
			summary = &domain.CategorySummary{Category: r.Category, Status: domain.StatusCompliant}
			byCategory[r.Category] = summary
		}
		summary.Total++

		switch r.Status {
		case domain.StatusViolation:
			report.Violations++
			summary.Violations++
			summary.Status = domain.StatusViolation
		case domain.StatusWarning:
			report.Warnings++
			summary.Warnings++
			if summary.Status != domain.StatusViolation {
				summary.Status = domain.StatusWarning
			}
		default:
			report.Compliant++
			summary.Compliant++
		}
	}

	switch {
	case report.Violations > 0:
		report.OverallStatus = domain.OverallViolations
	case report.Warnings > 0:
		report.OverallStatus = domain.OverallIssues
	default:
		report.OverallStatus = domain.OverallCompliant
	}

	report.Score = 100
	if report.TotalRules > 0 {
		report.Score = float64(report.Compliant) / float64(report.TotalRules) * 100
	}

	for _, c := range categoryOrder {
		if s, ok := byCategory[c]; ok {
			report.Categories = append(report.Categories, *s)
		}
	}
	return report
}

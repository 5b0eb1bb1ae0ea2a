package domain

import "time"

// RuleCategory groups compliance rules.
type RuleCategory string

const (
	CategoryPositionLimit RuleCategory = "position_limit"
	CategoryRiskLimit     RuleCategory = "risk_limit"
	CategorySectorLimit   RuleCategory = "sector_limit"
	CategoryRegulatory    RuleCategory = "regulatory"
)

// RuleUnit is the unit of a rule's threshold and current value.
type RuleUnit string

const (
	UnitPercent RuleUnit = "percent"
	UnitAmount  RuleUnit = "amount"
	UnitRatio   RuleUnit = "ratio"
)

// RuleDirection states which side of the threshold is bad. It must be declared explicitly.
type RuleDirection string

const (
	// AboveIsBad marks a limit: exceeding the threshold is a breach.
	AboveIsBad RuleDirection = "above_is_bad"
	// BelowIsBad marks a floor: falling under the threshold is a breach.
	BelowIsBad RuleDirection = "below_is_bad"
)

// ComplianceStatus is the per-rule classification.
type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "compliant"
	StatusWarning   ComplianceStatus = "warning"
	StatusViolation ComplianceStatus = "violation"
)

// OverallStatus is the aggregate report classification.
type OverallStatus string

const (
	OverallCompliant  OverallStatus = "compliant"
	OverallIssues     OverallStatus = "issues"
	OverallViolations OverallStatus = "violations"
)

// ComplianceRule is a configured threshold check. Status is never stored on the rule; it is
// derived from CurrentValue and Threshold on every evaluation.
type ComplianceRule struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Category     RuleCategory  `json:"category" yaml:"category"`
	Threshold    float64       `json:"threshold" yaml:"threshold"`
	Unit         RuleUnit      `json:"unit" yaml:"unit"`
	Direction    RuleDirection `json:"direction" yaml:"direction"`
	CurrentValue float64       `json:"current_value" yaml:"current_value"`
	// Metric optionally names the snapshot figure that supplies CurrentValue.
	Metric string `json:"metric,omitempty" yaml:"metric,omitempty"`
}

// ComplianceCheckResult is the derived outcome of one rule.
type ComplianceCheckResult struct {
	RuleID       string           `json:"rule_id"`
	RuleName     string           `json:"rule_name"`
	Category     RuleCategory     `json:"category"`
	Direction    RuleDirection    `json:"direction"`
	Unit         RuleUnit         `json:"unit"`
	Threshold    float64          `json:"threshold"`
	CurrentValue float64          `json:"current_value"`
	Usage        float64          `json:"usage"` // currentValue / threshold
	Status       ComplianceStatus `json:"status"`
	Message      string           `json:"message"`
}

// CategorySummary counts statuses within one category.
type CategorySummary struct {
	Category   RuleCategory     `json:"category"`
	Total      int              `json:"total"`
	Compliant  int              `json:"compliant"`
	Warnings   int              `json:"warnings"`
	Violations int              `json:"violations"`
	Status     ComplianceStatus `json:"status"` // worst status in the category
}

// ComplianceReport aggregates one evaluation pass.
type ComplianceReport struct {
	OverallStatus OverallStatus     `json:"overall_status"`
	TotalRules    int               `json:"total_rules"`
	Compliant     int               `json:"compliant"`
	Warnings      int               `json:"warnings"`
	Violations    int               `json:"violations"`
	Score         float64           `json:"score"` // percent of rules compliant
	Categories    []CategorySummary `json:"categories"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

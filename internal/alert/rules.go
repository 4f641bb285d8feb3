// Package alert checks the figures of each committed run against operator
// rules such as "blocked_ratio > 0.5".
package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Run figures available to rule expressions. Per-state counts are exposed as
// "state_" plus the lower-cased state name, e.g. state_entry_window.
const (
	MetricTickers           = "tickers"
	MetricTransitions       = "transitions"
	MetricBlocked           = "blocked"
	MetricBlockedRatio      = "blocked_ratio"
	MetricInsufficient      = "insufficient"
	MetricInsufficientRatio = "insufficient_ratio"
)

var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Rule defines a run health rule.
type Rule struct {
	Name     string `mapstructure:"name"`
	Expr     string `mapstructure:"expr"`
	Runs     int    `mapstructure:"runs"` // consecutive matching runs before firing
	Severity string `mapstructure:"severity"`
	Message  string `mapstructure:"message"`
}

// Validate checks that the rule can be evaluated.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("alert rule name is required")
	}
	if _, _, _, err := r.parse(); err != nil {
		return err
	}
	if r.Runs < 0 {
		return fmt.Errorf("alert rule %s: runs must not be negative", r.Name)
	}
	switch strings.ToLower(r.Severity) {
	case "", "info", "warning", "critical":
	default:
		return fmt.Errorf("alert rule %s: unknown severity %q", r.Name, r.Severity)
	}
	return nil
}

func (r Rule) parse() (metric, op string, threshold float64, err error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("alert rule %s: cannot parse %q", r.Name, r.Expr)
	}
	threshold, err = strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("alert rule %s: threshold: %w", r.Name, err)
	}
	return matches[1], matches[2], threshold, nil
}

// Evaluate evaluates the rule expression against metrics. A missing metric
// never matches.
func (r Rule) Evaluate(metrics map[string]float64) bool {
	metric, op, threshold, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := metrics[metric]
	if !exists {
		return false
	}

	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message with the observed value.
func (r Rule) FormatMessage(metrics map[string]float64) string {
	severity := r.Severity
	if severity == "" {
		severity = "warning"
	}
	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(severity), r.Name, r.Message)
	if metric, _, _, err := r.parse(); err == nil {
		if v, ok := metrics[metric]; ok {
			msg += fmt.Sprintf(" (%s=%s)", metric, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return msg
}

// RunMetrics builds the figures of one run. Ratios are zero for an empty run.
func RunMetrics(tickers, transitions, blocked, insufficient int, counts map[core.State]int) map[string]float64 {
	m := map[string]float64{
		MetricTickers:           float64(tickers),
		MetricTransitions:       float64(transitions),
		MetricBlocked:           float64(blocked),
		MetricInsufficient:      float64(insufficient),
		MetricBlockedRatio:      0,
		MetricInsufficientRatio: 0,
	}
	if tickers > 0 {
		m[MetricBlockedRatio] = float64(blocked) / float64(tickers)
		m[MetricInsufficientRatio] = float64(insufficient) / float64(tickers)
	}
	for _, s := range core.AllStates {
		m[StateMetric(s)] = float64(counts[s])
	}
	return m
}

// StateMetric names the count metric of a state
func StateMetric(s core.State) string {
	return "state_" + strings.ToLower(s.String())
}

package alert

import (
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

func TestEvaluator_ConsecutiveRuns(t *testing.T) {
	rule := Rule{
		Name:     "stale_data",
		Expr:     "insufficient_ratio > 0.05",
		Runs:     2,
		Severity: "warning",
		Message:  "Too many tickers lack data",
	}
	eval := NewEvaluator([]Rule{rule})
	metrics := map[string]float64{"insufficient_ratio": 0.10}

	// first matching run only starts the streak
	if fired := eval.Observe(metrics); len(fired) != 0 {
		t.Errorf("expected no firing on first run, got %v", fired)
	}

	fired := eval.Observe(metrics)
	if len(fired) != 1 {
		t.Fatalf("expected 1 firing on second run, got %d", len(fired))
	}
	if fired[0].Rule != "stale_data" || fired[0].Severity != "warning" {
		t.Errorf("unexpected firing %+v", fired[0])
	}
}

func TestEvaluator_Cooldown(t *testing.T) {
	eval := NewEvaluator([]Rule{{
		Name:     "no_data",
		Expr:     "tickers == 0",
		Severity: "critical",
		Message:  "Run evaluated nothing",
	}})
	eval.SetCooldown(20 * time.Hour)

	metrics := map[string]float64{"tickers": 0}
	total := 0
	for i := 0; i < 3; i++ {
		total += len(eval.Observe(metrics))
	}
	if total != 1 {
		t.Errorf("expected 1 firing due to cooldown, got %d", total)
	}

	eval.advanceTime(24 * time.Hour)
	if len(eval.Observe(metrics)) != 1 {
		t.Error("expected firing after cooldown elapsed")
	}
}

func TestEvaluator_RuleNotTriggered(t *testing.T) {
	eval := NewEvaluator([]Rule{{Name: "many_blocked", Expr: "blocked_ratio > 0.5"}})

	if fired := eval.Observe(map[string]float64{"blocked_ratio": 0.1}); len(fired) != 0 {
		t.Errorf("expected no firing, got %v", fired)
	}
}

func TestEvaluator_MultipleRules(t *testing.T) {
	eval := NewEvaluator([]Rule{
		{Name: "rule1", Expr: "tickers == 0", Severity: "critical", Message: "Empty"},
		{Name: "rule2", Expr: "blocked > 5", Severity: "warning", Message: "Blocks"},
	})

	// only rule2 matches
	fired := eval.Observe(map[string]float64{"tickers": 40, "blocked": 7})
	if len(fired) != 1 || fired[0].Rule != "rule2" {
		t.Errorf("expected rule2 to fire, got %v", fired)
	}
}

func TestEvaluator_StreakResetsWhenRuleStopsMatching(t *testing.T) {
	eval := NewEvaluator([]Rule{{Name: "stale", Expr: "insufficient > 3", Runs: 2}})

	eval.Observe(map[string]float64{"insufficient": 5})
	eval.Observe(map[string]float64{"insufficient": 1})

	// streak starts over
	if fired := eval.Observe(map[string]float64{"insufficient": 5}); len(fired) != 0 {
		t.Errorf("expected no firing after reset, got %v", fired)
	}
	if fired := eval.Observe(map[string]float64{"insufficient": 5}); len(fired) != 1 {
		t.Errorf("expected firing after two matching runs, got %v", fired)
	}
}

func TestRule_Evaluate(t *testing.T) {
	tests := []struct {
		expr     string
		metrics  map[string]float64
		expected bool
	}{
		{"blocked_ratio > 0.05", map[string]float64{"blocked_ratio": 0.10}, true},
		{"blocked_ratio > 0.05", map[string]float64{"blocked_ratio": 0.01}, false},
		{"tickers == 0", map[string]float64{"tickers": 0}, true},
		{"tickers == 0", map[string]float64{"tickers": 1}, false},
		{"transitions >= 10", map[string]float64{"transitions": 10}, true},
		{"transitions >= 10", map[string]float64{"transitions": 9}, false},
		{"state_pass <= 3", map[string]float64{"state_pass": 2}, true},
		{"state_pass <= 3", map[string]float64{"state_pass": 4}, false},
		{"blocked != 0", map[string]float64{"blocked": 2}, true},
		{"blocked != 0", map[string]float64{"blocked": 0}, false},
		{"missing > 0", map[string]float64{}, false},
		{"not an expression", map[string]float64{"not": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			rule := Rule{Expr: tt.expr}
			result := rule.Evaluate(tt.metrics)
			if result != tt.expected {
				t.Errorf("expr %q with metrics %v: expected %v, got %v",
					tt.expr, tt.metrics, tt.expected, result)
			}
		})
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid", Rule{Name: "r", Expr: "blocked > 1", Severity: "critical"}, false},
		{"missing name", Rule{Expr: "blocked > 1"}, true},
		{"bad expression", Rule{Name: "r", Expr: "blocked >> 1"}, true},
		{"negative runs", Rule{Name: "r", Expr: "blocked > 1", Runs: -1}, true},
		{"unknown severity", Rule{Name: "r", Expr: "blocked > 1", Severity: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRule_FormatMessage(t *testing.T) {
	rule := Rule{
		Name:     "many_blocked",
		Expr:     "blocked > 5",
		Severity: "warning",
		Message:  "Guardrail blocks are high",
	}

	msg := rule.FormatMessage(map[string]float64{"blocked": 12})

	if msg != "[WARNING] many_blocked: Guardrail blocks are high (blocked=12)" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRunMetrics(t *testing.T) {
	m := RunMetrics(4, 2, 1, 2, map[core.State]int{core.StatePass: 3, core.StateNoTrade: 1})

	if m[MetricBlockedRatio] != 0.25 || m[MetricInsufficientRatio] != 0.5 {
		t.Errorf("unexpected ratios %v", m)
	}
	if m["state_pass"] != 3 || m["state_no_trade"] != 1 {
		t.Errorf("unexpected state counts %v", m)
	}
	if v, ok := m["state_entry_window"]; !ok || v != 0 {
		t.Error("expected zero count for unseen state")
	}

	empty := RunMetrics(0, 0, 0, 0, nil)
	if empty[MetricBlockedRatio] != 0 {
		t.Error("expected zero ratio for empty run")
	}
}

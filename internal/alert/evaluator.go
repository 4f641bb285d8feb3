package alert

import (
	"sync"
	"time"
)

// Firing is a rule that fired for a run
type Firing struct {
	Rule     string
	Severity string
	Message  string
}

// Evaluator tracks rule state across consecutive runs.
type Evaluator struct {
	rules    []Rule
	cooldown time.Duration

	// consecutive matching runs per rule
	streak map[string]int
	// last fired time for cooldown
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates an evaluator for rules. Rules are expected to be
// validated already; unparseable ones never fire.
func NewEvaluator(rules []Rule) *Evaluator {
	return &Evaluator{
		rules:     rules,
		streak:    make(map[string]int),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetCooldown sets the minimum time between two firings of one rule.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Len returns the number of rules
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Observe evaluates every rule against the figures of one run and returns
// the rules that fired, in rule order.
func (e *Evaluator) Observe(metrics map[string]float64) []Firing {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fired []Firing
	for _, rule := range e.rules {
		if f, ok := e.evaluate(rule, metrics); ok {
			fired = append(fired, f)
		}
	}
	return fired
}

func (e *Evaluator) evaluate(rule Rule, metrics map[string]float64) (Firing, bool) {
	if !rule.Evaluate(metrics) {
		delete(e.streak, rule.Name)
		return Firing{}, false
	}

	e.streak[rule.Name]++
	if e.streak[rule.Name] < rule.Runs {
		return Firing{}, false
	}

	now := e.now()
	if last, ok := e.lastFired[rule.Name]; ok && now.Sub(last) < e.cooldown {
		return Firing{}, false
	}

	e.lastFired[rule.Name] = now
	delete(e.streak, rule.Name)

	severity := rule.Severity
	if severity == "" {
		severity = "warning"
	}
	return Firing{
		Rule:     rule.Name,
		Severity: severity,
		Message:  rule.FormatMessage(metrics),
	}, true
}

// advanceTime is for testing - advances the internal clock.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}

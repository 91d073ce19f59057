// Package classifier assigns a document type to each section, using the rule
// library first and the classification oracle when rules are not conclusive.
package classifier

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"smartsplit/internal/domain"
	"smartsplit/internal/patterns"
	"smartsplit/internal/port"
)

// agreementBoost is the share of the remaining confidence granted when the
// oracle agrees with a sub-threshold rule label.
const agreementBoost = 0.2

// Config holds the classification policy.
type Config struct {
	ConfidenceThreshold float64
	MaxInputChars       int
	RuleConfidence      float64
	OracleConfidence    float64
	OracleTimeout       time.Duration
	Concurrency         int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.7,
		MaxInputChars:       1000,
		RuleConfidence:      0.9,
		OracleConfidence:    0.8,
		OracleTimeout:       10 * time.Second,
		Concurrency:         4,
	}
}

// Classifier is safe for concurrent use. A nil oracle makes every section
// without a conclusive rule match fall back to "other".
type Classifier struct {
	lib     *patterns.Library
	oracle  port.ClassificationOracle
	cfg     Config
	allowed []string
	known   map[string]bool
}

// New creates a Classifier.
func New(lib *patterns.Library, oracle port.ClassificationOracle, cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = def.MaxInputChars
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = def.OracleTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}

	c := &Classifier{lib: lib, oracle: oracle, cfg: cfg, known: make(map[string]bool)}
	for _, dt := range domain.DocumentTypes {
		c.addLabel(string(dt))
	}
	if lib != nil {
		for _, l := range lib.ClassificationLabels() {
			c.addLabel(l)
		}
	}
	return c
}

func (c *Classifier) addLabel(l string) {
	if l == "" || c.known[l] {
		return
	}
	c.known[l] = true
	c.allowed = append(c.allowed, l)
}

// AllowedLabels returns the label enumeration offered to the oracle.
func (c *Classifier) AllowedLabels() []string {
	return append([]string(nil), c.allowed...)
}

// Classify labels one section's text. It never fails: every path yields a result.
func (c *Classifier) Classify(ctx context.Context, text string) domain.ClassificationResult {
	prefix := Truncate(text, c.cfg.MaxInputChars)
	if strings.TrimSpace(prefix) == "" {
		return domain.FallbackResult()
	}

	var ruleLabel string
	var ruleHit bool
	if c.lib != nil {
		ruleLabel, ruleHit = c.lib.BestLabel(prefix)
	}
	if ruleHit && c.cfg.RuleConfidence >= c.cfg.ConfidenceThreshold {
		return domain.ClassificationResult{
			DocumentType: domain.DocumentType(ruleLabel),
			Confidence:   c.cfg.RuleConfidence,
			Method:       domain.MethodRuleBased,
		}
	}

	if c.oracle == nil {
		return domain.FallbackResult()
	}

	label, err := c.callOracle(ctx, prefix)
	if err != nil {
		log.Printf("classifier.Classify: oracle fallback: %v", err)
		return domain.FallbackResult()
	}

	confidence := c.cfg.OracleConfidence
	if ruleHit && label == ruleLabel {
		confidence += (1 - confidence) * agreementBoost
	}
	return domain.ClassificationResult{
		DocumentType: domain.DocumentType(label),
		Confidence:   confidence,
		Method:       domain.MethodAPI,
	}
}

type oracleAnswer struct {
	label string
	err   error
}

// callOracle makes exactly one oracle call bounded by the configured timeout.
// A panicking or hanging oracle yields an error instead of stalling the run.
func (c *Classifier) callOracle(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OracleTimeout)
	defer cancel()

	done := make(chan oracleAnswer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- oracleAnswer{err: fmt.Errorf("oracle panicked: %v", r)}
			}
		}()
		label, err := c.oracle.Classify(ctx, text, c.AllowedLabels())
		done <- oracleAnswer{label: label, err: err}
	}()

	select {
	case ans := <-done:
		if ans.err != nil {
			return "", ans.err
		}
		if !c.known[ans.label] {
			return "", fmt.Errorf("oracle returned label outside the allowed set: %q", ans.label)
		}
		return ans.label, nil
	case <-ctx.Done():
		return "", fmt.Errorf("oracle call: %w", ctx.Err())
	}
}

// ClassifyAll classifies sections concurrently. Results are positional:
// results[i] belongs to texts[i] regardless of completion order.
func (c *Classifier) ClassifyAll(ctx context.Context, texts []string) []domain.ClassificationResult {
	results := make([]domain.ClassificationResult, len(texts))
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for i := range texts {
		g.Go(func() error {
			results[i] = c.Classify(ctx, texts[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Truncate returns at most maxChars runes of s.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

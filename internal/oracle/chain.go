package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"smartsplit/internal/port"
)

// Member is one provider of a Chain.
type Member struct {
	Name   string
	Oracle port.ClassificationOracle
	// Timeout bounds the member's single request. Zero leaves only the
	// caller's deadline.
	Timeout time.Duration
}

// Chain is one logical oracle call spread over ordered providers. Each member
// gets at most one request per Classify, inside its own deadline, so a hung
// primary still leaves the next member its full timeout. A member that reports
// rate limiting sits out until its Retry-After has passed.
type Chain struct {
	members []Member

	mu      sync.Mutex
	benched []time.Time // per member; zero when available
	now     func() time.Time
}

// NewChain returns a Chain over members in priority order.
func NewChain(members ...Member) *Chain {
	return &Chain{
		members: members,
		benched: make([]time.Time, len(members)),
		now:     time.Now,
	}
}

// Members returns the member names in priority order.
func (c *Chain) Members() []string {
	names := make([]string, len(c.members))
	for i, m := range c.members {
		names[i] = m.Name
	}
	return names
}

func (c *Chain) benchedUntil(i int) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	until := c.benched[i]
	return until, !until.IsZero() && c.now().Before(until)
}

func (c *Chain) bench(i int, until time.Time) {
	c.mu.Lock()
	c.benched[i] = until
	c.mu.Unlock()
}

func earlier(a, b time.Time) time.Time {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}

func ask(ctx context.Context, m Member, text string, labels []string) (string, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	return m.Oracle.Classify(ctx, text, labels)
}

// Classify returns the first label a member produces. When every member that
// could be asked was rate limited the error is a *RateLimitError whose
// RetryAfter is the earliest moment one of them is usable again.
func (c *Chain) Classify(ctx context.Context, text string, allowedLabels []string) (string, error) {
	var (
		failures    []error
		wake        time.Time
		onlyLimited = true
	)

	for i, m := range c.members {
		if until, ok := c.benchedUntil(i); ok {
			log.Printf("oracle.Chain: %s sits out until %s", m.Name, until.Format(time.RFC3339))
			wake = earlier(wake, until)
			continue
		}

		label, err := ask(ctx, m, text, allowedLabels)
		if err == nil {
			return label, nil
		}
		log.Printf("oracle.Chain: no label from %s: %v", m.Name, err)
		failures = append(failures, fmt.Errorf("%s: %w", m.Name, err))

		var rl *RateLimitError
		if errors.As(err, &rl) {
			until := c.now().Add(rl.RetryAfter)
			c.bench(i, until)
			wake = earlier(wake, until)
		} else {
			onlyLimited = false
		}

		// The caller's budget is spent; later members would fail immediately.
		if ctx.Err() != nil {
			break
		}
	}

	if len(failures) == 0 || onlyLimited {
		wait := wake.Sub(c.now())
		if wait < time.Second {
			wait = time.Second
		}
		return "", NewRateLimitError("all", errors.New("every oracle is rate limited"), int(wait.Seconds()))
	}
	return "", fmt.Errorf("no oracle produced a label: %w", errors.Join(failures...))
}

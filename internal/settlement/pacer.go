package settlement

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFetchDelay respeita o limite de ~10 req/min do provedor de resultados
const DefaultFetchDelay = 6 * time.Second

// Pacer controla o ritmo das chamadas ao ResultFetcher
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay garante um intervalo mínimo fixo entre chamadas consecutivas.
// A primeira chamada não espera.
type FixedDelay struct {
	Delay time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewFixedDelay(d time.Duration) *FixedDelay { return &FixedDelay{Delay: d} }

func (p *FixedDelay) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := time.Until(p.last.Add(p.Delay)); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	p.last = time.Now()
	return nil
}

// LimiterPacer usa um rate.Limiter (uma chamada por intervalo, burst 1)
type LimiterPacer struct {
	l *rate.Limiter
}

func NewLimiterPacer(every time.Duration) *LimiterPacer {
	return &LimiterPacer{l: rate.NewLimiter(rate.Every(every), 1)}
}

func (p *LimiterPacer) Wait(ctx context.Context) error { return p.l.Wait(ctx) }

// NewPacer escolhe a estratégia pelo nome configurado ("fixed" | "limiter")
func NewPacer(kind string, every time.Duration) Pacer {
	if kind == "limiter" {
		return NewLimiterPacer(every)
	}
	return NewFixedDelay(every)
}

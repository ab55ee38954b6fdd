package clock

import (
	"sync"
	"time"
)

// Clock fornece o "agora" para prazos e janelas semanais
type Clock interface {
	Now() time.Time
}

// System usa o relógio de parede, sempre em UTC
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed é um relógio controlável, usado em testes e em execuções retroativas
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t.UTC()} }

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t.UTC()
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// StartOfWeek devolve a segunda-feira 00:00 UTC da semana de t
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // segunda = 0
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfWeek devolve domingo 23:59:59.999 UTC da semana de t
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Millisecond)
}

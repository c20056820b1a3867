package debounce

import "sync"

// Ticket identifies one dispatched call and the input it was made for.
type Ticket struct {
	Seq  uint64
	Text string
}

// Guard decides whether an asynchronous result may still be shown.
// A result is applied only if its input is still the current text and no
// newer result has been applied already.
type Guard struct {
	mu      sync.Mutex
	current string
	issued  uint64
	applied uint64
}

// SetText records the text currently displayed.
func (g *Guard) SetText(text string) {
	g.mu.Lock()
	g.current = text
	g.mu.Unlock()
}

// Current returns the text last passed to SetText.
func (g *Guard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Issue returns a ticket for a call made with text.
func (g *Guard) Issue(text string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return Ticket{Seq: g.issued, Text: text}
}

// Apply runs apply and reports true when the ticket is still current.
// apply runs under the guard's lock, so applications never interleave.
func (g *Guard) Apply(t Ticket, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.Text != g.current || t.Seq <= g.applied {
		return false
	}
	g.applied = t.Seq
	if apply != nil {
		apply()
	}
	return true
}

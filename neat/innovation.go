package neat

import "fmt"

// Innovation records one structural mutation: a directed connection between
// two node indices. Its Number is its position in the ledger.
type Innovation struct {
	From   int
	To     int
	Number int
}

// Ledger is the append-only record of innovations for one population.
// Every structural mutation consults it so that the same connection
// discovered by several genomes in one generation shares an innovation number.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	innovations []Innovation
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Len returns the number of innovations allocated so far. Captured at the
// start of a generation it is the window start passed to Innovation.
func (l *Ledger) Len() int {
	return len(l.innovations)
}

// Innovation returns the innovation number for the connection from -> to.
// Only entries allocated at or after index since are searched; a pair last
// seen before the window gets a fresh number.
func (l *Ledger) Innovation(from, to, since int) int {
	if since < 0 {
		since = 0
	}
	for i := since; i < len(l.innovations); i++ {
		if l.innovations[i].From == from && l.innovations[i].To == to {
			return l.innovations[i].Number
		}
	}
	number := len(l.innovations)
	l.innovations = append(l.innovations, Innovation{From: from, To: to, Number: number})
	return number
}

// Lookup returns the innovation with the given number.
func (l *Ledger) Lookup(number int) (Innovation, error) {
	if number < 0 || number >= len(l.innovations) {
		return Innovation{}, fmt.Errorf("%w: innovation %d (ledger holds %d)", ErrLinkNotFound, number, len(l.innovations))
	}
	return l.innovations[number], nil
}

// endpoints is Lookup for callers that already hold a link of this ledger.
func (l *Ledger) endpoints(number int) (from, to int) {
	in := l.innovations[number]
	return in.From, in.To
}

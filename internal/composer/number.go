package composer

import (
	"fmt"
	"math/rand"
	"time"
)

// NumberGenerator issues display ticket numbers of the form TKT-YYMMDD-NNNN.
// They are for display only; the backend assigns the real identifier.
type NumberGenerator struct {
	now  func() time.Time
	intn func(int) int
}

// NewNumberGenerator builds a generator. Nil arguments fall back to the wall
// clock and math/rand.
func NewNumberGenerator(now func() time.Time, intn func(int) int) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	if intn == nil {
		intn = rand.Intn
	}
	return &NumberGenerator{now: now, intn: intn}
}

// Next returns a number stamped with the current local date.
func (g *NumberGenerator) Next() string {
	return g.At(g.now())
}

// At returns a number stamped with the date of t.
func (g *NumberGenerator) At(t time.Time) string {
	return fmt.Sprintf("TKT-%s-%04d", t.Format("060102"), g.intn(10000))
}

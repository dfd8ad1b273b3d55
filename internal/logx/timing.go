package logx

import (
	"time"
)

type Timer struct {
	start time.Time
	id    string
	comp  string
	op    string
}

func Start(id, comp, op string) *Timer {
	return &Timer{
		start: time.Now(),
		id:    id,
		comp:  comp,
		op:    op,
	}
}

// End logs the elapsed time and returns it.
func (t *Timer) End() time.Duration {
	elapsed := time.Since(t.start)
	logger().Info().Str("comp", t.comp).Str("id", t.id).Dur("elapsed", elapsed).Msg(t.op)
	return elapsed
}

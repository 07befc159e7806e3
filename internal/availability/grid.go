package availability

import "fmt"

// Grid is the day view's slot sequence from Start to End inclusive every Step minutes.
type Grid struct {
	Start int
	End   int
	Step  int
}

// NewGrid builds a grid from HH:MM bounds.
func NewGrid(start, end string, step int) (Grid, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Grid{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Grid{}, err
	}
	if step <= 0 {
		return Grid{}, fmt.Errorf("slot step must be positive, got %d", step)
	}
	if s >= e {
		return Grid{}, fmt.Errorf("day window %s-%s is empty", start, end)
	}
	return Grid{Start: s, End: e, Step: step}, nil
}

// DefaultGrid is 06:00 to 22:00 every 30 minutes.
func DefaultGrid() Grid {
	return Grid{Start: 6 * 60, End: 22 * 60, Step: 30}
}

// Slots returns minute offsets of every slot in order.
func (g Grid) Slots() []int {
	if g.Step <= 0 || g.End < g.Start {
		return nil
	}
	out := make([]int, 0, (g.End-g.Start)/g.Step+1)
	for t := g.Start; t <= g.End; t += g.Step {
		out = append(out, t)
	}
	return out
}

// Labels returns the slots formatted as HH:MM.
func (g Grid) Labels() []string {
	slots := g.Slots()
	out := make([]string, len(slots))
	for i, t := range slots {
		out[i] = FormatClock(t)
	}
	return out
}

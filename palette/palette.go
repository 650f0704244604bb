package palette

import (
	"errors"
	"fmt"
	"sync"
)

var ErrIndexOutOfRange = errors.New("problem index out of range")

type Status int

const (
	StatusUnanswered Status = iota
	StatusAnswered
)

type Cell struct {
	Index  int
	Status Status
	Active bool
}

// Palette tracks which problem is on screen. It never touches answers;
// the two are correlated only through the problem id at each index.
type Palette struct {
	mu     sync.Mutex
	count  int
	active int
	locked bool
}

func New(problemCount int) *Palette {
	return &Palette{count: problemCount}
}

func (p *Palette) Count() int {
	return p.count
}

func (p *Palette) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Next moves forward; at the last index it does nothing.
func (p *Palette) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active >= p.count-1 {
		return false
	}
	p.active++
	return true
}

// Previous moves back; at index 0 it does nothing.
func (p *Palette) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active <= 0 {
		return false
	}
	p.active--
	return true
}

func (p *Palette) JumpTo(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= p.count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, p.count)
	}
	p.active = i
	return nil
}

// Lock marks the attempt as read-only. Moving the cursor stays allowed so
// submitted answers can still be browsed.
func (p *Palette) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = true
}

func (p *Palette) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

func (p *Palette) Cells(answered func(i int) bool) []Cell {
	active := p.Active()
	cells := make([]Cell, p.count)
	for i := range cells {
		cells[i] = Cell{Index: i, Status: StatusUnanswered, Active: i == active}
		if answered(i) {
			cells[i].Status = StatusAnswered
		}
	}
	return cells
}

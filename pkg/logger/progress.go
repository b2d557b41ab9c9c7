package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var barColor = color.New(color.FgGreen)

// ProgressBar tracks completion of a fixed number of steps, e.g. the
// processes of a simulation run. It is safe for concurrent increments.
type ProgressBar struct {
	mu      sync.Mutex
	total   int
	current int
	width   int
	message string
}

// NewProgressBar creates a progress bar for total steps
func NewProgressBar(total int, message string) *ProgressBar {
	return &ProgressBar{
		total:   total,
		width:   40,
		message: message,
	}
}

// Increment advances the bar by one step
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	p.draw()
}

// Finish completes the bar and terminates the line
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.draw()
	fmt.Println()
}

func (p *ProgressBar) draw() {
	if p.total <= 0 {
		return
	}
	percent := float64(p.current) / float64(p.total)
	filled := int(percent * float64(p.width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)
	fmt.Printf("\r%s: %s %3.0f%%", p.message, barColor.Sprint(bar), percent*100)
}

package logic

// PullTracker recognizes the pull-to-refresh gesture: a drag that starts
// while the list is scrolled to the top. Each row dragged downwards adds
// unitsPerRow to the pull distance; releasing at or beyond threshold triggers.
type PullTracker struct {
	threshold   int
	unitsPerRow int

	active   bool
	startY   int
	distance int
}

// NewPullTracker creates a tracker
func NewPullTracker(threshold, unitsPerRow int) *PullTracker {
	if threshold <= 0 {
		threshold = 1
	}
	if unitsPerRow <= 0 {
		unitsPerRow = 1
	}
	return &PullTracker{threshold: threshold, unitsPerRow: unitsPerRow}
}

// Press starts a gesture at row y. Presses while the list is scrolled are ignored.
func (p *PullTracker) Press(y int, atTop bool) {
	if !atTop {
		p.Cancel()
		return
	}
	p.active = true
	p.startY = y
	p.distance = 0
}

// Move updates the pull distance. Dragging above the start clamps to zero.
func (p *PullTracker) Move(y int) {
	if !p.active {
		return
	}
	rows := y - p.startY
	if rows < 0 {
		rows = 0
	}
	p.distance = rows * p.unitsPerRow
}

// Release ends the gesture and reports whether a refresh should start
func (p *PullTracker) Release(y int) bool {
	if !p.active {
		return false
	}
	p.Move(y)
	triggered := p.distance >= p.threshold
	p.Cancel()
	return triggered
}

// Cancel abandons the gesture without triggering
func (p *PullTracker) Cancel() {
	p.active = false
	p.startY = 0
	p.distance = 0
}

// Active reports whether a gesture is in progress
func (p *PullTracker) Active() bool {
	return p.active
}

// Distance returns the current pull distance
func (p *PullTracker) Distance() int {
	return p.distance
}

// Threshold returns the distance needed to trigger
func (p *PullTracker) Threshold() int {
	return p.threshold
}

// Armed reports whether releasing now would trigger a refresh
func (p *PullTracker) Armed() bool {
	return p.active && p.distance >= p.threshold
}

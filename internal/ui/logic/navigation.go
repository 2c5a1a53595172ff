package logic

// Navigator handles selection and viewport management over a flat list.
// Positions and heights are counted in items, not terminal rows.
type Navigator struct {
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	totalItems     int
}

// NewNavigator creates a new navigator
func NewNavigator() *Navigator {
	return &Navigator{viewportHeight: 1}
}

// Selected returns the current selected index
func (n *Navigator) Selected() int {
	return n.selectedIndex
}

// Offset returns the index of the first visible item
func (n *Navigator) Offset() int {
	return n.viewportOffset
}

// Height returns the number of items that fit in the viewport
func (n *Navigator) Height() int {
	return n.viewportHeight
}

// Total returns the number of items
func (n *Navigator) Total() int {
	return n.totalItems
}

// AtTop reports whether the list is scrolled to its first item
func (n *Navigator) AtTop() bool {
	return n.viewportOffset == 0
}

// SetViewportHeight updates how many items fit on screen
func (n *Navigator) SetViewportHeight(height int) {
	if height < 1 {
		height = 1
	}
	n.viewportHeight = height
	n.ensureSelectedVisible()
}

// SetTotal updates the item count and clamps the selection into range
func (n *Navigator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	n.totalItems = total
	n.ensureSelectedVisible()
}

// Select sets the selected index and ensures it's visible
func (n *Navigator) Select(index int) {
	n.selectedIndex = index
	n.ensureSelectedVisible()
}

// Move moves the selection by delta items
func (n *Navigator) Move(delta int) {
	n.Select(n.selectedIndex + delta)
}

// PageUp moves the selection up by one page
func (n *Navigator) PageUp() {
	n.Move(-n.pageSize())
}

// PageDown moves the selection down by one page
func (n *Navigator) PageDown() {
	n.Move(n.pageSize())
}

// Home selects the first item
func (n *Navigator) Home() {
	n.Select(0)
}

// End selects the last item
func (n *Navigator) End() {
	n.Select(n.totalItems - 1)
}

// Visible returns the half-open range of items in the viewport
func (n *Navigator) Visible() (start, end int) {
	start = n.viewportOffset
	end = start + n.viewportHeight
	if end > n.totalItems {
		end = n.totalItems
	}
	return start, end
}

func (n *Navigator) pageSize() int {
	// Leave one item of overlap
	if n.viewportHeight > 1 {
		return n.viewportHeight - 1
	}
	return 1
}

func (n *Navigator) ensureSelectedVisible() {
	if n.selectedIndex >= n.totalItems {
		n.selectedIndex = n.totalItems - 1
	}
	if n.selectedIndex < 0 {
		n.selectedIndex = 0
	}

	if n.selectedIndex < n.viewportOffset {
		n.viewportOffset = n.selectedIndex
	}
	if n.selectedIndex >= n.viewportOffset+n.viewportHeight {
		n.viewportOffset = n.selectedIndex - n.viewportHeight + 1
	}

	// Don't leave empty space below the last item
	maxOffset := n.totalItems - n.viewportHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if n.viewportOffset > maxOffset {
		n.viewportOffset = maxOffset
	}
	if n.viewportOffset < 0 {
		n.viewportOffset = 0
	}
}

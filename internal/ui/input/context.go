package input

import (
	"postexplorer/internal/domain"
	"postexplorer/internal/ui/logic"
)

// ModelContext implements the Context interface for the input handler
type ModelContext struct {
	Snapshot  domain.Snapshot
	Navigator *logic.Navigator
}

// CurrentIndex returns the current selected index
func (c *ModelContext) CurrentIndex() int {
	return c.Navigator.Selected()
}

// TotalItems returns the number of visible posts
func (c *ModelContext) TotalItems() int {
	return len(c.Snapshot.Posts)
}

// CurrentPostID returns the id of the selected post, or 0
func (c *ModelContext) CurrentPostID() int {
	i := c.CurrentIndex()
	if i < 0 || i >= len(c.Snapshot.Posts) {
		return 0
	}
	return c.Snapshot.Posts[i].ID
}

// SearchQuery returns the current search query
func (c *ModelContext) SearchQuery() string {
	return c.Snapshot.SearchQuery
}

// Status returns the fetch status
func (c *ModelContext) Status() domain.FetchStatus {
	return c.Snapshot.Status
}

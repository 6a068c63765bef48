package gateway

// categoryAttempts walks the ordered category list for one ticket. Each
// call to next either yields the category to try or reports exhaustion.
type categoryAttempts struct {
	order []string
	pos   int
}

func newCategoryAttempts(requested string) *categoryAttempts {
	order := make([]string, 0, len(fallbackCategories)+1)
	order = append(order, requested)
	order = append(order, fallbackCategories...)
	return &categoryAttempts{order: order}
}

func (a *categoryAttempts) next() (string, bool) {
	if a.pos >= len(a.order) {
		return "", false
	}
	c := a.order[a.pos]
	a.pos++
	return c, true
}

// count is the number of categories handed out so far.
func (a *categoryAttempts) count() int { return a.pos }

package shared

// Pagination normalises limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// Normalize clamps the pagination window to sane defaults.
func (p Pagination) Normalize() Pagination {
	out := p
	if out.Limit <= 0 || out.Limit > 200 {
		out.Limit = 50
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

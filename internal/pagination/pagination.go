package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds offset pagination parameters.
type Params struct {
	Limit  int
	Offset int
}

// New clamps limit into [1, MaxLimit] (zero or negative means DefaultLimit)
// and negative offsets to zero.
func New(limit, offset int) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// FromQuery reads limit and offset query parameters. Unparseable values fall
// back to the defaults.
func FromQuery(q url.Values) Params {
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return New(limit, offset)
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

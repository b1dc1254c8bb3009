package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Equal(t, Params{Limit: 20, Offset: 0}, New(0, 0))
	assert.Equal(t, Params{Limit: 100, Offset: 5}, New(500, 5))
	assert.Equal(t, Params{Limit: 20, Offset: 0}, New(-1, -10))
	assert.Equal(t, Params{Limit: 7, Offset: 14}, New(7, 14))
}

func TestFromQuery(t *testing.T) {
	q := url.Values{"limit": {"10"}, "offset": {"30"}}
	assert.Equal(t, Params{Limit: 10, Offset: 30}, FromQuery(q))

	q = url.Values{"limit": {"lots"}, "offset": {"-3"}}
	assert.Equal(t, Params{Limit: DefaultLimit, Offset: 0}, FromQuery(q))
}

func TestHasNext(t *testing.T) {
	p := New(10, 20)
	assert.True(t, p.HasNext(31))
	assert.False(t, p.HasNext(30))
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/use-agent/shelfscan/models"
)

func TestCache_SetGet(t *testing.T) {
	rq := require.New(t)
	c := New(time.Minute, 10)

	key := Key("amazon.com", "headphones")
	_, ok := c.Get(key)
	rq.False(ok)

	products := []models.Product{{Title: "A", Rating: models.RatingOf(4)}}
	c.Set(key, products)

	got, ok := c.Get(key)
	rq.True(ok)
	rq.Equal(products, got)
}

func TestCache_EmptyResultIsCached(t *testing.T) {
	rq := require.New(t)
	c := New(time.Minute, 10)

	c.Set("k", []models.Product{})
	got, ok := c.Get("k")
	rq.True(ok)
	rq.Empty(got)
	rq.NotNil(got)
}

func TestCache_Expires(t *testing.T) {
	c := New(20*time.Millisecond, 10)
	c.Set("k", []models.Product{{Title: "A"}})

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", nil)
	c.Set("b", nil)
	c.Set("c", nil)

	require.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	require.True(t, ok)
}

func TestKey(t *testing.T) {
	rq := require.New(t)

	rq.Equal(Key("amazon.com", "Headphones "), Key("amazon.com", "headphones"))
	rq.NotEqual(Key("amazon.com", "headphones"), Key("amazon.de", "headphones"))
	rq.Len(Key("a", "b"), 64)
}

package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, size int) (*Cache[string], *clock) {
	clk := &clock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string](ttl, size)
	c.now = clk.now
	return c, clk
}

func TestCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache(time.Minute, 0)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "one")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, clk := newTestCache(time.Minute, 0)
	c.Set("a", "one")

	clk.advance(30 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "access refreshes expiry")

	clk.advance(50 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	clk.advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_Sweep(t *testing.T) {
	c, clk := newTestCache(time.Minute, 0)
	c.Set("a", "one")
	c.Set("b", "two")
	clk.advance(2 * time.Minute)
	c.Set("c", "three")

	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, clk := newTestCache(time.Hour, 2)
	c.Set("a", "one")
	clk.advance(time.Second)
	c.Set("b", "two")
	clk.advance(time.Second)
	_, _ = c.Get("a")
	clk.advance(time.Second)

	c.Set("c", "three")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	// Overwriting an existing key never evicts
	c.Set("a", "uno")
	assert.Equal(t, 2, c.Len())
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](time.Minute, 100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%10)
			c.Set(key, i)
			c.Get(key)
			c.Sweep()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 10)
}

func TestID(t *testing.T) {
	t.Run("issues cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		id := ID(rec, req, false)
		require.NotEmpty(t, id)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.Equal(t, id, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("reuses cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "existing"})

		assert.Equal(t, "existing", ID(rec, req, false))
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, "existing", Lookup(req))
	})

	t.Run("lookup without cookie", func(t *testing.T) {
		assert.Empty(t, Lookup(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One relation with an open outer ring; the assembler must close it.
const sampleOverpass = `{
  "elements": [
    {
      "type": "relation",
      "id": 1683721,
      "tags": {"swisstopo:BFS_NUMMER": "261", "name": "Zurich"},
      "members": [
        {
          "type": "way",
          "role": "outer",
          "geometry": [
            {"lat": 0, "lon": 0},
            {"lat": 0, "lon": 10},
            {"lat": 10, "lon": 10},
            {"lat": 10, "lon": 0}
          ]
        },
        {"type": "node", "role": "admin_centre"}
      ]
    },
    {
      "type": "relation",
      "id": 99,
      "tags": {"name": "untagged"},
      "members": [
        {
          "type": "way",
          "role": "outer",
          "geometry": [{"lat": 0, "lon": 0}, {"lat": 0, "lon": 1}, {"lat": 1, "lon": 1}]
        }
      ]
    }
  ]
}`

func overpassServer(t *testing.T, failures int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.Form.Get("data"))
		if int(n) <= failures {
			http.Error(w, "server overloaded", http.StatusGatewayTimeout)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleOverpass))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestOverpassFetch(t *testing.T) {
	srv, _ := overpassServer(t, 0)
	c := &OverpassClient{URL: srv.URL, Query: "[out:json];", Retries: 1}

	records, err := c.Fetch(context.Background(), "swisstopo:BFS_NUMMER", "name")
	require.NoError(t, err)
	// The untagged relation is dropped.
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "261", rec.ID)
	assert.Equal(t, "Zurich", rec.Name)
	require.NotNil(t, rec.Geom)
	assert.True(t, rec.Geom.IsValid())
	assert.InDelta(t, 100.0, rec.Geom.Area(), 1e-9)
}

func TestOverpassFetchRetriesThenSucceeds(t *testing.T) {
	srv, calls := overpassServer(t, 2)
	c := &OverpassClient{
		URL:        srv.URL,
		Query:      "[out:json];",
		Retries:    3,
		RetryDelay: time.Millisecond,
	}

	records, err := c.Fetch(context.Background(), "swisstopo:BFS_NUMMER", "name")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestOverpassFetchExhaustsRetries(t *testing.T) {
	srv, calls := overpassServer(t, 100)
	c := &OverpassClient{
		URL:        srv.URL,
		Query:      "[out:json];",
		Retries:    2,
		RetryDelay: time.Millisecond,
	}

	_, err := c.Fetch(context.Background(), "swisstopo:BFS_NUMMER", "name")
	require.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestOverpassFetchContextCancelled(t *testing.T) {
	srv, _ := overpassServer(t, 100)
	c := &OverpassClient{
		URL:        srv.URL,
		Query:      "[out:json];",
		Retries:    3,
		RetryDelay: time.Hour,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "swisstopo:BFS_NUMMER", "name")
	require.Error(t, err)
}

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/planner"
)

const feedBody = `{
	"element_count": 2,
	"near_earth_objects": {
		"2024-01-01": [
			{
				"id": "3542519",
				"name": "(2010 PK9)",
				"absolute_magnitude_h": 21.87,
				"estimated_diameter": {
					"kilometers": {"estimated_diameter_min": 0.1011, "estimated_diameter_max": 0.2262}
				},
				"is_potentially_hazardous_asteroid": true,
				"close_approach_data": [
					{
						"close_approach_date": "2024-01-01",
						"relative_velocity": {"kilometers_per_hour": "52078.8865746769"},
						"miss_distance": {"astronomical": "0.3027519", "lunar": "117.7704891", "kilometers": "45290298.2"},
						"orbiting_body": "Earth"
					}
				]
			}
		]
	}
}`

func testWindow(t *testing.T) planner.Window {
	t.Helper()
	p, err := planner.New(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		7,
	)
	require.NoError(t, err)
	w, ok := p.WindowAt(0)
	require.True(t, ok)
	return w
}

func newTestClient(serverURL string, interval time.Duration, maxAttempts int) *NeoWsClient {
	return NewNeoWsClient(&ClientConfig{
		APIKey:             "DEMO_KEY",
		BaseURL:            serverURL,
		MinRequestInterval: interval,
		MaxAttempts:        maxAttempts,
		InitialBackoff:     time.Millisecond,
		MaxBackoff:         5 * time.Millisecond,
	})
}

func TestFetchWindowSuccess(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, feedBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond, 3)

	payload, err := client.FetchWindow(context.Background(), testWindow(t))
	require.NoError(t, err)

	assert.Equal(t, 2, payload.ElementCount)
	require.Contains(t, payload.NearEarthObjects, "2024-01-01")
	require.Len(t, payload.NearEarthObjects["2024-01-01"], 1)

	neo := payload.NearEarthObjects["2024-01-01"][0]
	require.NotNil(t, neo.ID)
	assert.Equal(t, "3542519", *neo.ID)

	assert.Contains(t, gotQuery, "start_date=2024-01-01")
	assert.Contains(t, gotQuery, "end_date=2024-01-07")
	assert.Contains(t, gotQuery, "api_key=DEMO_KEY")
}

func TestFetchWindowEnforcesSpacing(t *testing.T) {
	var mu sync.Mutex
	var requestTimes []time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestTimes = append(requestTimes, time.Now())
		mu.Unlock()
		fmt.Fprint(w, feedBody)
	}))
	defer server.Close()

	const interval = 100 * time.Millisecond
	client := newTestClient(server.URL, interval, 1)
	w := testWindow(t)

	// Three back-to-back fetches against a zero-latency server
	for i := 0; i < 3; i++ {
		_, err := client.FetchWindow(context.Background(), w)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requestTimes, 3)

	// Small tolerance for limiter timer granularity
	const epsilon = 5 * time.Millisecond
	for i := 1; i < len(requestTimes); i++ {
		gap := requestTimes[i].Sub(requestTimes[i-1])
		assert.GreaterOrEqual(t, gap, interval-epsilon,
			"requests %d and %d only %v apart", i-1, i, gap)
	}
}

func TestFetchWindowRetriesTransientThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		n := requests
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, feedBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond, 5)

	_, err := client.FetchWindow(context.Background(), testWindow(t))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, requests)
}

func TestFetchWindowRetriesExhausted(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond, 3)

	_, err := client.FetchWindow(context.Background(), testWindow(t))
	require.Error(t, err)

	// Exhaustion converts to a permanent failure, surfaced exactly once
	assert.True(t, apperrors.IsPermanent(err))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, requests, "must stop after the configured attempt budget")
}

func TestFetchWindowPermanentFailureNotRetried(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond, 5)

	_, err := client.FetchWindow(context.Background(), testWindow(t))
	require.Error(t, err)
	assert.True(t, apperrors.IsPermanent(err))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, requests, "permanent failures must not be retried")
}

func TestFetchWindowMalformedBodyNotRetried(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		fmt.Fprint(w, `{"element_count": not json`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond, 5)

	_, err := client.FetchWindow(context.Background(), testWindow(t))
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedPayload(err))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, requests)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{"429 is transient", http.StatusTooManyRequests, "", true},
		{"500 is transient", http.StatusInternalServerError, "", true},
		{"503 is transient", http.StatusServiceUnavailable, "", true},
		{"403 quota marker is transient", http.StatusForbidden, `{"error":{"code":"OVER_RATE_LIMIT"}}`, true},
		{"403 is permanent", http.StatusForbidden, "", false},
		{"401 is permanent", http.StatusUnauthorized, "", false},
		{"400 is permanent", http.StatusBadRequest, "", false},
		{"404 is permanent", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(tt.status, tt.body)
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, apperrors.IsTransient(err))
			assert.Equal(t, !tt.wantTransient, apperrors.IsPermanent(err))
		})
	}
}

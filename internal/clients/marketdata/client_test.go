package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarag/riskfolio/pkg/logger"
)

const chartPayload = `{
	"chart": {
		"result": [{
			"timestamp": [1700000000, 1700086400, 1700172800],
			"indicators": {"quote": [{"close": [100.0, null, 102.5]}]}
		}],
		"error": null
	}
}`

func TestGetDailyHistory_ParsesAndSkipsNulls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/BTC-USD")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(chartPayload))
	}))
	defer server.Close()

	log := logger.New(logger.Config{Level: "error"})
	client := NewClient(server.URL, 5*time.Second, log)

	points, err := client.GetDailyHistory(context.Background(), "BTC-USD", 3)
	require.NoError(t, err)
	require.Len(t, points, 2, "null close must be skipped")

	assert.Equal(t, int64(1700000000000), points[0].TimestampMillis)
	assert.Equal(t, 100.0, points[0].Price)
	assert.Equal(t, 102.5, points[1].Price)
}

func TestGetDailyHistory_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	log := logger.New(logger.Config{Level: "error"})
	client := NewClient(server.URL, 5*time.Second, log)

	_, err := client.GetDailyHistory(context.Background(), "NOPE", 30)
	assert.Error(t, err)
}

func TestGetDailyHistory_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	log := logger.New(logger.Config{Level: "error"})
	client := NewClient(server.URL, 5*time.Second, log)

	_, err := client.GetDailyHistory(context.Background(), "EMPTY", 30)
	assert.Error(t, err)
}

func TestParseChartResponse_Malformed(t *testing.T) {
	_, err := parseChartResponse("X", []byte("not json"))
	assert.Error(t, err)
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProbe(t *testing.T) {
	before := testutil.ToFloat64(probesTotal.WithLabelValues("translator", "unavailable"))
	RecordProbe("translator", "unavailable")
	after := testutil.ToFloat64(probesTotal.WithLabelValues("translator", "unavailable"))
	assert.Equal(t, before+1, after)
}

func TestRecordDownload(t *testing.T) {
	okBefore := testutil.ToFloat64(downloadsTotal.WithLabelValues("summarizer", "success"))
	failBefore := testutil.ToFloat64(downloadsTotal.WithLabelValues("summarizer", "failure"))

	RecordDownload("summarizer", nil)
	RecordDownload("summarizer", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(downloadsTotal.WithLabelValues("summarizer", "success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(downloadsTotal.WithLabelValues("summarizer", "failure")))

	SetDownloadProgress("summarizer", 55)
	assert.Equal(t, 55.0, testutil.ToFloat64(downloadProgress.WithLabelValues("summarizer")))
}

func TestRecordInvocation(t *testing.T) {
	before := testutil.ToFloat64(invocationsTotal.WithLabelValues("prompt", "stream", "cancelled"))
	RecordInvocation("prompt", "stream", "cancelled", 120*time.Millisecond)
	AddStreamChunks("prompt", 3)
	AddStreamChunks("prompt", 0)

	assert.Equal(t, before+1, testutil.ToFloat64(invocationsTotal.WithLabelValues("prompt", "stream", "cancelled")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(streamChunksTotal.WithLabelValues("prompt")), 3.0)
}

func TestHandler(t *testing.T) {
	RecordProbe("proofreader", "available")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `capctl_probes_total{kind="proofreader",status="available"}`)
}

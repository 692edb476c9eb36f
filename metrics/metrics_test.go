package metrics_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/recordtrail"
	"github.com/mickamy/recordtrail/metrics"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", metrics.Outcome(nil))
	assert.Equal(t, "invalid", metrics.Outcome(recordtrail.ErrEmptyChange))
	assert.Equal(t, "storage_error", metrics.Outcome(fmt.Errorf("wrap: %w", &recordtrail.StorageError{Op: "commit", Err: errors.New("x")})))
	assert.Equal(t, "error", metrics.Outcome(errors.New("other")))
}

func TestCollector_ObserveRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.ObserveRecord("orders", recordtrail.KindUpdate, 3, 10*time.Millisecond, nil)
	c.ObserveRecord("orders", recordtrail.KindUpdate, 2, 5*time.Millisecond, nil)
	c.ObserveRecord("orders", recordtrail.KindCreate, 0, time.Millisecond, &recordtrail.StorageError{Op: "begin transaction", Err: errors.New("down")})
	c.ObserveRecord("orders; drop", recordtrail.KindCreate, 0, 0, &recordtrail.ValidationError{Field: "table", Reason: "bad"})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RecordsTotal.WithLabelValues("orders", "update", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecordsTotal.WithLabelValues("orders", "create", "storage_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecordsTotal.WithLabelValues("", "", "invalid")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.ChangedAttrs.WithLabelValues("orders")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RecordDuration))
}

func TestCollector_ObserveHistory(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.ObserveHistory("orders", 4, time.Millisecond, nil)
	c.ObserveHistory("orders", 0, time.Millisecond, &recordtrail.StorageError{Op: "query history", Err: errors.New("x")})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HistoryTotal.WithLabelValues("orders", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HistoryTotal.WithLabelValues("orders", "storage_error")))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	c.ObserveRecord("orders", recordtrail.KindDelete, 1, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `recordtrail_records_total{kind="delete",outcome="ok",table="orders"} 1`), body)
}

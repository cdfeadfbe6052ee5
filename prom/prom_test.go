package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knnlive"
	"github.com/hupe1980/knnlive/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.RecordInsert(3, time.Millisecond, nil)
	c.RecordInsert(1, time.Millisecond, errors.New("boom"))
	c.RecordDelete(2, time.Millisecond, nil)
	c.RecordSearch(5, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.inserts))
	assert.Equal(t, 4.0, promtestutil.ToFloat64(c.insertedObjects))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.insertErrors))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.deletes))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.deletedObjects))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(c.deleteErrors))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.searches))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.searchErrors))
}

func TestNewCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollectorWithMonitor(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	m, err := knnlive.New(2, knnlive.WithMetricsCollector(c))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Insert(ctx, testutil.Points1D(1, 0, 1, 2)))
	_, err = m.SearchObject(ctx, []float64{0.5}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.inserts))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(c.insertedObjects))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.searches))
}

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedRandomDistribution(t *testing.T) {
	w := NewWeightedRandom(1)
	counts := map[enums.Produce]int{}
	const draws = 71000
	for i := 0; i < draws; i++ {
		label, err := w.Classify(context.Background(), Frame{})
		require.NoError(t, err)
		require.True(t, label.IsValid())
		counts[label]++
	}

	// 7 classes at weight 1 and Unknown at 0.1: Unknown ~1000, each class ~10000.
	assert.InDelta(t, 1000, counts[enums.ProduceUnknown], 250)
	for _, p := range enums.KnownProduce() {
		assert.InDelta(t, 10000, counts[p], 800, "label %s", p)
	}
}

func TestWeightedRandomHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWeightedRandom(1).Classify(ctx, Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteMapsLabels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		label := "bell_pepper"
		if string(body) == "mystery" {
			label = "durian"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"label": label, "confidence": 0.9})
	}))
	defer srv.Close()

	remote, err := NewRemote(srv.URL, srv.Client())
	require.NoError(t, err)

	label, err := remote.Classify(context.Background(), Frame{Data: []byte("jpeg"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, enums.ProduceBellPepper, label)

	label, err = remote.Classify(context.Background(), Frame{Data: []byte("mystery"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, enums.ProduceUnknown, label)

	remote.MinConfidence = 0.95
	label, err = remote.Classify(context.Background(), Frame{Data: []byte("jpeg"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, enums.ProduceUnknown, label)
}

func TestRemoteSurfacesUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote, err := NewRemote(srv.URL, srv.Client())
	require.NoError(t, err)
	_, err = remote.Classify(context.Background(), Frame{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = remote.Classify(context.Background(), Frame{})
	assert.Error(t, err)

	_, err = NewRemote(" ", nil)
	assert.Error(t, err)
}

type stubClassifier struct {
	label enums.Produce
	err   error
	delay time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, _ Frame) (enums.Produce, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.label, s.err
}

func TestOracleFallsBackToUnknownWithoutHistory(t *testing.T) {
	reg := prometheus.NewRegistry()
	stub := &stubClassifier{err: errors.New("boom")}
	oracle, err := NewOracle(stub, 50*time.Millisecond, logger.Nop(), metrics.NewClassifierMetrics(reg))
	require.NoError(t, err)

	res, err := oracle.Classify(context.Background(), Frame{})
	require.NoError(t, err)
	assert.Equal(t, enums.ProduceUnknown, res.Label)
	assert.True(t, res.Fallback)
}

func TestOracleTimeoutReturnsPreviousLabel(t *testing.T) {
	stub := &stubClassifier{label: enums.ProduceTomato}
	oracle, err := NewOracle(stub, 20*time.Millisecond, logger.Nop(), nil)
	require.NoError(t, err)

	res, err := oracle.Classify(context.Background(), Frame{})
	require.NoError(t, err)
	require.Equal(t, enums.ProduceTomato, res.Label)
	require.False(t, res.Fallback)

	stub.label = enums.ProduceCorn
	stub.delay = time.Second
	start := time.Now()
	res, err = oracle.Classify(context.Background(), Frame{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, enums.ProduceTomato, res.Label)
	assert.True(t, res.Fallback)
}

// stubbornClassifier models a local model call that never looks at ctx.
type stubbornClassifier struct {
	release chan struct{}
	label   enums.Produce
}

func (s *stubbornClassifier) Classify(context.Context, Frame) (enums.Produce, error) {
	<-s.release
	return s.label, nil
}

func TestOracleBoundsClassifierIgnoringContext(t *testing.T) {
	reg := prometheus.NewRegistry()
	slow := &stubbornClassifier{release: make(chan struct{}), label: enums.ProduceCarrot}
	defer close(slow.release)

	oracle, err := NewOracle(slow, 30*time.Millisecond, logger.Nop(), metrics.NewClassifierMetrics(reg))
	require.NoError(t, err)

	start := time.Now()
	res, err := oracle.Classify(context.Background(), Frame{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, enums.ProduceUnknown, res.Label)
	assert.True(t, res.Fallback)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var timeouts float64
	for _, mf := range mfs {
		if mf.GetName() != "veggiepos_classifier_fallbacks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "reason" && l.GetValue() == "timeout" {
					timeouts += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, timeouts)
}

func TestOracleReportsCallerCancellation(t *testing.T) {
	stub := &stubClassifier{delay: time.Second}
	oracle, err := NewOracle(stub, time.Second, logger.Nop(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = oracle.Classify(ctx, Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOracleNormalizesInvalidLabels(t *testing.T) {
	oracle, err := NewOracle(&stubClassifier{label: "Kiwi"}, time.Second, logger.Nop(), nil)
	require.NoError(t, err)
	res, err := oracle.Classify(context.Background(), Frame{})
	require.NoError(t, err)
	assert.Equal(t, enums.ProduceUnknown, res.Label)
}

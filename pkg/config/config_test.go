package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── env getters ───────── */

func TestGetEnv(t *testing.T) {
	t.Setenv("CFG_STRING", " value ")
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "4.2")
	t.Setenv("CFG_BOOL", "TRUE")
	t.Setenv("CFG_DURATION", "1h30m")
	t.Setenv("CFG_LIST", " a, ,b ,")
	t.Setenv("CFG_EMPTY_LIST", " , ")

	assert.Equal(t, "value", GetEnvString("CFG_STRING", "d"))
	assert.Equal(t, "d", GetEnvString("CFG_UNSET", "d"))
	assert.Equal(t, 42, GetEnvInt("CFG_INT", 1))
	assert.Equal(t, 1, GetEnvInt("CFG_BAD_INT", 1))
	assert.True(t, GetEnvBool("CFG_BOOL", false))
	assert.Equal(t, 90*time.Minute, GetEnvDuration("CFG_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvStringList("CFG_LIST", nil))
	assert.Equal(t, []string{"x"}, GetEnvStringList("CFG_EMPTY_LIST", []string{"x"}))
}

/* ───────── validators ───────── */

func TestValidateCronSchedule(t *testing.T) {
	for _, ok := range []string{"*/15 * * * *", "30 5 * * *", "0 0 1 * MON", "@hourly"} {
		assert.NoError(t, ValidateCronSchedule(ok), ok)
	}
	for _, bad := range []string{"", "* * *", "61 * * * *", "0 0 * * * *"} {
		err := ValidateCronSchedule(bad)
		assert.ErrorIs(t, err, ErrInvalidValue, bad)
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("Asia/Jakarta"))
	assert.ErrorIs(t, ValidateTimezone(""), ErrInvalidValue)
	assert.ErrorIs(t, ValidateTimezone("Mars/Olympus"), ErrInvalidValue)
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.ErrorIs(t, ValidatePositiveDuration(0), ErrInvalidValue)

	assert.NoError(t, ValidateDurationRange(time.Minute, time.Minute, time.Hour))
	assert.ErrorIs(t, ValidateDurationRange(2*time.Hour, time.Minute, time.Hour), ErrInvalidValue)
	assert.ErrorIs(t, ValidateDurationRange(time.Minute, time.Hour, time.Minute), ErrInvalidValue)

	assert.NoError(t, ValidateIntRange(64, 1, 64))
	assert.ErrorIs(t, ValidateIntRange(0, 1, 64), ErrInvalidValue)
	assert.ErrorIs(t, ValidateIntRange(5, 10, 1), ErrInvalidValue)
}

func TestValidateTrustedProxies(t *testing.T) {
	assert.NoError(t, ValidateTrustedProxies(nil))
	assert.NoError(t, ValidateTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "::1", "fd00::/8"}))
	assert.ErrorIs(t, ValidateTrustedProxies([]string{"10.0.0.0/8", "proxy.local"}), ErrInvalidValue)
	assert.ErrorIs(t, ValidateTrustedProxies([]string{"10.0.0.0/33"}), ErrInvalidValue)
}

/* ───────── Load ───────── */

func TestLoad(t *testing.T) {
	t.Setenv("CFG_CRON", "*/5 * * * *")
	t.Setenv("CFG_BAD_CRON", "every minute")
	t.Setenv("CFG_PAR", "abc")
	t.Setenv("CFG_RANGE", "500")

	r := Load("CFG_CRON", "@hourly", String, ValidateCronSchedule)
	assert.Equal(t, Result[string]{Value: "*/5 * * * *"}, r)

	r = Load("CFG_BAD_CRON", "@hourly", String, ValidateCronSchedule)
	assert.True(t, r.FallbackApplied)
	assert.Equal(t, "@hourly", r.Value)
	assert.Contains(t, r.Warning, "CFG_BAD_CRON")

	unset := Load("CFG_UNSET", 4, Int, nil)
	assert.Equal(t, Result[int]{Value: 4}, unset)

	parseErr := Load("CFG_PAR", 4, Int, nil)
	assert.True(t, parseErr.FallbackApplied)
	assert.Equal(t, 4, parseErr.Value)

	rangeErr := Load("CFG_RANGE", 4, Int, func(v int) error { return ValidateIntRange(v, 1, 64) })
	assert.True(t, rangeErr.FallbackApplied)
	assert.Equal(t, 4, rangeErr.Value)
}

func TestFallbacks(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewConfigMetrics("test", reg)
	var buf bytes.Buffer
	f := NewFallbacks(slog.New(slog.NewTextHandler(&buf, nil)), m)

	good := Observe(f, "good", Result[int]{Value: 1})
	bad := Observe(f, "parallelism", Result[int]{Value: 4, FallbackApplied: true, Warning: "invalid"})

	assert.Equal(t, 1, good)
	assert.Equal(t, 4, bad)
	require.True(t, f.Done())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("parallelism")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("good")))
	assert.Contains(t, buf.String(), "configuration fallback applied")
	assert.Positive(t, testutil.ToFloat64(m.LoadTimestamp))

	clean := NewFallbacks(nil, m)
	Observe(clean, "good", Result[int]{Value: 1})
	assert.False(t, clean.Done())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))
}

func TestNewConfigMetrics_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewConfigMetrics("worker", reg)
	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "worker_config_load_timestamp")
	assert.Contains(t, names, "worker_config_fallback_active")

	assert.Panics(t, func() { NewConfigMetrics("worker", reg) }, "duplicate registration")
}

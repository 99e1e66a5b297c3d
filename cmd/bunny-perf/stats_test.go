package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	_, ok := summarize(nil)
	assert.False(t, ok)

	samples := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}
	summary, ok := summarize(samples)
	require.True(t, ok)
	assert.Equal(t, time.Millisecond, summary.Min)
	assert.Equal(t, 51*time.Millisecond, summary.Median)
	assert.Equal(t, 76*time.Millisecond, summary.P75)
	assert.Equal(t, 96*time.Millisecond, summary.P95)
	assert.Equal(t, 100*time.Millisecond, summary.P99)
	assert.Equal(t, 100*time.Millisecond, summary.Max)

	// The input is left unsorted
	assert.Equal(t, 100*time.Millisecond, samples[0])
}

func TestStatsPrint(t *testing.T) {
	s := newStats()
	s.published.Add(10)
	s.consumed.Add(9)
	s.confirmed.Add(10)
	s.recordLatency(2 * time.Millisecond)

	var out bytes.Buffer
	s.print(&out)
	assert.Contains(t, out.String(), "Published: 10 messages")
	assert.Contains(t, out.String(), "Consumed:  9 messages")
	assert.Contains(t, out.String(), "median: 2ms")
	assert.NotContains(t, out.String(), "Nacked")
}

func TestFinished(t *testing.T) {
	assert.True(t, finished(context.DeadlineExceeded))
	assert.True(t, finished(fmt.Errorf("run: %w", context.Canceled)))
	assert.False(t, finished(errors.New("boom")))
}

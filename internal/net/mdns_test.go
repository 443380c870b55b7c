package net

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseStopsAtContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Browse(ctx, time.Minute)
	elapsed := time.Since(start)

	// Hosts without multicast fail the query; either way the minute-long
	// timeout is cut to the deadline.
	if err != nil {
		t.Logf("browse: %v", err)
	}
	assert.Less(t, elapsed, 10*time.Second)
}

func TestBrowseWithDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	found, err := Browse(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, found)
}

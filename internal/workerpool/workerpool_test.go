package workerpool_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"exchangecore/internal/workerpool"
)

func TestPoolProcessesTasks(t *testing.T) {
	var processed int64
	done := make(chan struct{}, 10)

	pool := workerpool.New(3, func(t *tomb.Tomb, task any) error {
		atomic.AddInt64(&processed, 1)
		done <- struct{}{}
		return nil
	})

	var tb tomb.Tomb
	tb.Go(func() error {
		pool.Run(&tb)
		return nil
	})

	for i := 0; i < 5; i++ {
		pool.AddTask(i)
	}

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task to process")
		}
	}

	tb.Kill(nil)
	require.NoError(t, tb.Wait())
	assert.EqualValues(t, 5, atomic.LoadInt64(&processed))
}

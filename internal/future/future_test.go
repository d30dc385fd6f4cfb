package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveThenAwait(t *testing.T) {
	f := New[string]()
	f.Resolve("hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := f.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.True(t, f.Settled())
}

func TestFuture_AwaitBeforeResolve(t *testing.T) {
	f := New[int]()

	resultCh := make(chan int, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		v, err := f.Await(ctx)
		assert.NoError(t, err)
		resultCh <- v
	}()

	time.Sleep(10 * time.Millisecond)
	f.Resolve(42)

	select {
	case v := <-resultCh:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Await never returned")
	}
}

func TestFuture_Reject(t *testing.T) {
	f := New[int]()
	wantErr := errors.New("boom")
	f.Reject(wantErr)

	v, err := f.Await(context.Background())
	assert.Equal(t, 0, v)
	assert.Equal(t, wantErr, err)
}

func TestFuture_SecondCompletionIsNoop(t *testing.T) {
	f := New[int]()
	f.Resolve(1)
	f.Resolve(2)
	f.Reject(errors.New("ignored"))

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_ContextCanceledBeforeSettle(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.Settled())
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"diner/internal/catalog"
	"diner/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSessionsAreIndependent(t *testing.T) {
	st := NewStore(catalog.Default(), time.Minute, nil)
	a := st.Create()
	b := st.Create()
	require.NotEqual(t, a, b)

	require.NoError(t, st.Do(a, func(s *order.Session) error {
		_, err := s.Add(0)
		return err
	}))

	snapA, err := st.Snapshot(a)
	require.NoError(t, err)
	snapB, err := st.Snapshot(b)
	require.NoError(t, err)

	assert.Len(t, snapA.Lines, 1)
	assert.Empty(t, snapB.Lines)
	assert.Equal(t, 2, st.Len())
}

func TestStoreUnknownSession(t *testing.T) {
	st := NewStore(catalog.Default(), 0, nil)

	err := st.Do("nope", func(*order.Session) error { return nil })
	assert.True(t, errors.Is(err, ErrUnknownSession))
	assert.False(t, st.Exists("nope"))
}

func TestStoreDoSerializesAccess(t *testing.T) {
	st := NewStore(catalog.Default(), 0, nil)
	id := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Do(id, func(s *order.Session) error {
				_, err := s.Add(3)
				return err
			})
		}()
	}
	wg.Wait()

	snap, err := st.Snapshot(id)
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 50)
	assert.Equal(t, int64(50*800), int64(snap.Total))
}

func TestStoreSweep(t *testing.T) {
	st := NewStore(catalog.Default(), time.Minute, nil)
	id := st.Create()

	assert.Empty(t, st.Sweep())

	st.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, []string{id}, st.Sweep())
	assert.False(t, st.Exists(id))
}

func TestStoreSweepDisabled(t *testing.T) {
	st := NewStore(catalog.Default(), 0, nil)
	st.Create()
	st.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	assert.Nil(t, st.Sweep())
	assert.Equal(t, 1, st.Len())
}

func TestStoreRunStopsWithContext(t *testing.T) {
	st := NewStore(catalog.Default(), time.Millisecond, nil)
	id := st.Create()

	expired := make(chan []string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, 5*time.Millisecond, func(ids []string) {
			select {
			case expired <- ids:
			default:
			}
		})
		close(done)
	}()

	select {
	case ids := <-expired:
		assert.Equal(t, []string{id}, ids)
	case <-time.After(2 * time.Second):
		t.Fatal("session was not swept")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(catalog.Default(), 0, nil)
	id := st.Create()
	st.Delete(id)
	assert.Equal(t, 0, st.Len())
}

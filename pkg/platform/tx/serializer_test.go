package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "villageinsure/pkg/domain-errors"
)

func TestSerializer(t *testing.T) {
	t.Run("serializes concurrent read-modify-write", func(t *testing.T) {
		s := NewSerializer(time.Second)
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.RunInTx(context.Background(), func(context.Context) error {
					v := counter
					time.Sleep(10 * time.Microsecond)
					counter = v + 1
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})

	t.Run("nested calls reuse the held lock", func(t *testing.T) {
		s := NewSerializer(100 * time.Millisecond)
		err := s.RunInTx(context.Background(), func(ctx context.Context) error {
			assert.True(t, InTx(ctx))
			return s.RunInTx(ctx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
	})

	t.Run("propagates fn error", func(t *testing.T) {
		s := NewSerializer(0)
		boom := errors.New("boom")
		err := s.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context is rejected with timeout code", func(t *testing.T) {
		s := NewSerializer(0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.RunInTx(ctx, func(context.Context) error { return nil })
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("lock wait is bounded", func(t *testing.T) {
		s := NewSerializer(20 * time.Millisecond)
		release := make(chan struct{})
		held := make(chan struct{})
		go func() {
			_ = s.RunInTx(context.Background(), func(context.Context) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held
		err := s.RunInTx(context.Background(), func(context.Context) error { return nil })
		close(release)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

package session

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshScheduler_FiresAtExpiry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		s := newRefreshScheduler(func() { fired.Add(1) })

		s.arm(time.Now().Add(time.Hour))

		time.Sleep(59 * time.Minute)
		synctest.Wait()
		assert.Equal(t, int32(0), fired.Load(), "must not fire before expiry")

		time.Sleep(2 * time.Minute)
		synctest.Wait()
		assert.Equal(t, int32(1), fired.Load())
	})
}

func TestRefreshScheduler_RearmReplacesTimer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		s := newRefreshScheduler(func() { fired.Add(1) })

		s.arm(time.Now().Add(time.Hour))
		s.arm(time.Now().Add(2 * time.Hour))

		time.Sleep(90 * time.Minute)
		synctest.Wait()
		assert.Equal(t, int32(0), fired.Load(), "re-arming cancels the earlier timer")

		time.Sleep(time.Hour)
		synctest.Wait()
		assert.Equal(t, int32(1), fired.Load(), "exactly one refresh per arm")
	})
}

func TestRefreshScheduler_PastExpiryFiresImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		s := newRefreshScheduler(func() { fired.Add(1) })

		s.arm(time.Now().Add(-time.Minute))

		synctest.Wait()
		assert.Equal(t, int32(1), fired.Load())
	})
}

func TestRefreshScheduler_Disarm(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32
		s := newRefreshScheduler(func() { fired.Add(1) })

		s.arm(time.Now().Add(time.Hour))
		s.disarm()

		time.Sleep(2 * time.Hour)
		synctest.Wait()
		assert.Equal(t, int32(0), fired.Load())
	})
}

func TestRefreshScheduler_DisarmWithoutArm(t *testing.T) {
	s := newRefreshScheduler(func() {})
	assert.NotPanics(t, func() { s.disarm() })
}

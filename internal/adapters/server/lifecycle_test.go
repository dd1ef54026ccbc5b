package server_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/jsbook/internal/adapters/server"
)

func TestLifecycle_AutoShutdown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(100 * time.Millisecond)

		select {
		case <-lc.Done():
		case <-time.After(200 * time.Millisecond):
			t.Fatal("expected shutdown to be triggered")
		}
		synctest.Wait()
	})
}

func TestLifecycle_RequestRestartsIdleWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(100 * time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		lc.Begin()()

		select {
		case <-lc.Done():
			t.Fatal("shutdown should not have triggered yet")
		case <-time.After(60 * time.Millisecond):
		}

		<-lc.Done()
		assert.Equal(t, time.Duration(0), lc.IdleRemaining())
		synctest.Wait()
	})
}

func TestLifecycle_InFlightRequestHoldsShutdown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(100 * time.Millisecond)

		end := lc.Begin()
		select {
		case <-lc.Done():
			t.Fatal("a request is in flight")
		case <-time.After(time.Second):
		}
		assert.Equal(t, 1, lc.InFlight())
		assert.Equal(t, 100*time.Millisecond, lc.IdleRemaining())

		end()
		end()
		assert.Zero(t, lc.InFlight())

		select {
		case <-lc.Done():
			t.Fatal("the idle window starts when the request ends")
		case <-time.After(90 * time.Millisecond):
		}
		<-lc.Done()
		synctest.Wait()
	})
}

func TestLifecycle_OverlappingRequests(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(100 * time.Millisecond)

		endA := lc.Begin()
		endB := lc.Begin()
		endA()
		assert.Equal(t, 1, lc.InFlight())

		select {
		case <-lc.Done():
			t.Fatal("the second request is still in flight")
		case <-time.After(500 * time.Millisecond):
		}

		endB()
		<-lc.Done()
		synctest.Wait()
	})
}

func TestLifecycle_ZeroTimeoutNeverShutsDown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(0)
		lc.Begin()()

		select {
		case <-lc.Done():
			t.Fatal("idle shutdown is disabled")
		case <-time.After(24 * time.Hour):
		}
		assert.Equal(t, time.Duration(0), lc.IdleRemaining())

		lc.Shutdown()
		<-lc.Done()
		synctest.Wait()
	})
}

func TestLifecycle_IdleRemaining(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		timeout := 100 * time.Millisecond
		lc := server.NewLifecycle(timeout)
		assert.Equal(t, timeout, lc.IdleRemaining())

		time.Sleep(40 * time.Millisecond)
		assert.Equal(t, 60*time.Millisecond, lc.IdleRemaining())
		assert.Equal(t, 40*time.Millisecond, lc.Uptime())

		lc.Shutdown()
		synctest.Wait()
	})
}

func TestLifecycle_LastActivity(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lc := server.NewLifecycle(time.Hour)
		initial := lc.LastActivity()

		time.Sleep(10 * time.Millisecond)
		end := lc.Begin()
		assert.True(t, lc.LastActivity().Equal(initial.Add(10*time.Millisecond)))

		time.Sleep(5 * time.Millisecond)
		end()
		assert.True(t, lc.LastActivity().Equal(initial.Add(15*time.Millisecond)))

		lc.Shutdown()
		synctest.Wait()
	})
}

func TestLifecycle_ShutdownIsIdempotent(t *testing.T) {
	lc := server.NewLifecycle(time.Hour)
	lc.Shutdown()
	lc.Shutdown()

	select {
	case <-lc.Done():
	default:
		t.Fatal("expected shutdown channel to be closed")
	}
}

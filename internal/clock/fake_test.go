package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(200 * time.Millisecond)

	c.Advance(199 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case got := <-ch:
		if want := epoch.Add(200 * time.Millisecond); !got.Equal(want) {
			t.Fatalf("fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if n := c.PendingCount(); n != 0 {
		t.Fatalf("pending = %d after firing, want 0", n)
	}
}

func TestFakeAfterZero(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	c := Fake(epoch)
	calls := 0
	timer := c.AfterFunc(time.Second, func() { calls++ })
	if !timer.Stop() {
		t.Fatal("Stop on pending timer should report true")
	}
	c.Advance(2 * time.Second)
	if calls != 0 {
		t.Fatalf("stopped AfterFunc ran %d times", calls)
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(10 * time.Millisecond)
	defer tk.Stop()

	for i := 0; i < 3; i++ {
		c.Advance(10 * time.Millisecond)
		select {
		case <-tk.C:
		default:
			t.Fatalf("tick %d missing", i)
		}
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-c.After(time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine never woke up")
	}
}

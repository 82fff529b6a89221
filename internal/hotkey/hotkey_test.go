package hotkey

import "testing"

func TestHandleCaseInsensitive(t *testing.T) {
	d := New(nil)
	n := 0
	d.Bind(TogglePause, func() { n++ })

	for _, k := range []string{"p", "P", " p "} {
		if !d.Handle(k) {
			t.Fatalf("key %q not handled", k)
		}
	}
	if n != 3 {
		t.Fatalf("action ran %d times, want 3", n)
	}
	if d.Handle("x") {
		t.Fatal("unbound key handled")
	}
}

func TestDisabledDispatcherIgnoresKeys(t *testing.T) {
	on := false
	d := New(func() bool { return on })
	fired := false
	d.Bind(Step, func() { fired = true })

	if d.Handle("o") || fired {
		t.Fatal("action ran while disabled")
	}
	on = true
	if !d.Handle("O") || !fired {
		t.Fatal("action did not run once enabled")
	}
}

func TestBindReplaces(t *testing.T) {
	d := New(nil)
	got := ""
	d.Bind("P", func() { got = "first" })
	d.Bind("p", func() { got = "second" })
	d.Handle("p")
	if got != "second" {
		t.Fatalf("got %q", got)
	}
	if len(d.Keys()) != 1 {
		t.Fatalf("keys=%v", d.Keys())
	}
}

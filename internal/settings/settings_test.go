package settings

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xtding233/burst-helper/internal/clock"
)

var testUnits = []string{"Cursor", "Grandma", "Farm", "Mine"}

func open(t *testing.T, store Store) *Settings {
	t.Helper()
	s, err := Open(store, Options{Units: testUnits, Free: "Cursor"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenSeedsSelection(t *testing.T) {
	store := NewMemoryStore()
	s := open(t, store)

	cfg := s.Snapshot()
	want := []string{"Grandma", "Farm", "Mine"}
	if got := cfg.Selected.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("seeded names=%v, want %v", got, want)
	}
	if len(cfg.Selected.Selected()) != 0 {
		t.Fatalf("seeded entries must start unselected")
	}
	if store.Puts() != 1 {
		t.Fatalf("seed must be persisted once, puts=%d", store.Puts())
	}

	// a second Open over the persisted record adds nothing
	open(t, store)
	if store.Puts() != 1 {
		t.Fatalf("reopening must not rewrite, puts=%d", store.Puts())
	}
}

func TestOpenKeepsStoredSelectionOrder(t *testing.T) {
	store := NewMemoryStore()
	store.Put(StorageKey, []byte("selected:\n  Mine: true\n  Temple: false\n"))
	s := open(t, store)

	got := s.Snapshot().Selected.Names()
	want := "Mine,Temple,Grandma,Farm"
	if strings.Join(got, ",") != want {
		t.Fatalf("names=%v, want %s", got, want)
	}
	if !s.Snapshot().Selected.Get("Mine") {
		t.Fatalf("stored membership lost")
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	s := open(t, store)
	if err := s.SetSelected("Farm", true); err != nil {
		t.Fatal(err)
	}
	a := s.Load()
	b := s.Load()
	if !a.Equal(b) {
		t.Fatalf("two loads differ:\n%+v\n%+v", a, b)
	}
}

func TestMergeCompleteness(t *testing.T) {
	cases := []struct {
		name  string
		blob  string
		check func(t *testing.T, c Config)
	}{
		{"empty object", "{}", func(t *testing.T, c Config) {
			if !c.Equal(Defaults()) {
				t.Fatalf("got %+v, want defaults", c)
			}
		}},
		{"one override", "sellMode: count\n", func(t *testing.T, c Config) {
			want := Defaults()
			want.SellMode = SellCount
			if !c.Equal(want) {
				t.Fatalf("got %+v", c)
			}
		}},
		{"json blob", `{"rebuy": false, "rebuyDelayMs": 50}`, func(t *testing.T, c Config) {
			if c.Rebuy || c.RebuyDelayMs != 50 {
				t.Fatalf("overrides lost: %+v", c)
			}
			if c.SellCount != 10 || !c.AutoResumeAfterBurst || !c.PauseHotkeys {
				t.Fatalf("defaults lost: %+v", c)
			}
		}},
		{"unknown keys ignored", "bogus: 1\nsellCount: 3\n", func(t *testing.T, c Config) {
			if c.SellCount != 3 {
				t.Fatalf("sellCount=%d", c.SellCount)
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte(tc.blob))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tc.check(t, c)
		})
	}
}

func TestCorruptBlobMeansDefaults(t *testing.T) {
	for _, blob := range []string{"", "   ", "{not yaml: [", "- a\n- b\n"} {
		c, _ := Parse([]byte(blob))
		if !c.Equal(Defaults()) {
			t.Fatalf("blob %q: got %+v, want defaults", blob, c)
		}
	}

	store := NewMemoryStore()
	store.Put(StorageKey, []byte("{{{{"))
	s := open(t, store)
	cfg := s.Snapshot()
	if cfg.SellMode != SellAll || cfg.SellCount != 10 || cfg.Selected.Len() != 3 {
		t.Fatalf("corrupt store should give seeded defaults, got %+v", cfg)
	}
}

func TestMistypedFieldKeepsTheRest(t *testing.T) {
	c, err := Parse([]byte("sellCount: lots\nrebuy: false\nsellMode: count\n"))
	if err == nil {
		t.Fatalf("expected a type error to be reported")
	}
	if c.Rebuy || c.SellMode != SellCount {
		t.Fatalf("well-typed fields lost: %+v", c)
	}
	if c.SellCount < 1 {
		t.Fatalf("sellCount=%d must be clamped", c.SellCount)
	}
}

func TestLoadClampsStoredValues(t *testing.T) {
	store := NewMemoryStore()
	store.Put(StorageKey, []byte("sellMode: everything\nsellCount: -4\nrebuyDelayMs: -1\n"))
	cfg := open(t, store).Snapshot()
	if cfg.SellMode != SellAll || cfg.SellCount != 1 || cfg.RebuyDelayMs != 0 {
		t.Fatalf("not clamped: %+v", cfg)
	}
}

func TestSettersClamp(t *testing.T) {
	s := open(t, NewMemoryStore())
	for _, n := range []int{-1 << 31, -5, 0, 1, 7, 1 << 30} {
		if err := s.SetSellCount(n); err != nil {
			t.Fatal(err)
		}
		if got := s.Snapshot().SellCount; got < 1 || (n >= 1 && got != n) {
			t.Fatalf("SetSellCount(%d) stored %d", n, got)
		}
		if err := s.SetRebuyDelay(n); err != nil {
			t.Fatal(err)
		}
		if got := s.Snapshot().RebuyDelayMs; got < 0 || (n >= 0 && got != n) {
			t.Fatalf("SetRebuyDelay(%d) stored %d", n, got)
		}
	}
	if err := s.SetSellMode("nonsense"); err != nil {
		t.Fatal(err)
	}
	if s.Snapshot().SellMode != SellAll {
		t.Fatalf("unknown mode must fall back to all")
	}
}

func TestSetterPersistsImmediately(t *testing.T) {
	store := NewMemoryStore()
	s := open(t, store)
	if err := s.SetAutoPause(true); err != nil {
		t.Fatal(err)
	}
	b, _, _ := store.Get(StorageKey)
	c, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if !c.AutoPauseBeforeBurst {
		t.Fatalf("change not persisted: %s", b)
	}
}

func TestSetterKeepsMutationWhenStoreFails(t *testing.T) {
	store := NewMemoryStore()
	s := open(t, store)
	boom := errors.New("disk full")
	store.Err = boom

	var seen []Config
	s.OnChange(func(c Config) { seen = append(seen, c) })

	if err := s.SetRebuy(false); !errors.Is(err, boom) || !errors.Is(err, ErrNotSaved) {
		t.Fatalf("err=%v, want disk full", err)
	}
	if s.Snapshot().Rebuy {
		t.Fatalf("in-memory mutation must be kept")
	}
	if len(seen) != 1 || seen[0].Rebuy {
		t.Fatalf("listeners not told about change: %+v", seen)
	}
}

func TestSetSelectedRejectsEmptyName(t *testing.T) {
	s := open(t, NewMemoryStore())
	if err := s.SetSelected("  ", true); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("err=%v", err)
	}
}

func TestExportImport(t *testing.T) {
	a := open(t, NewMemoryStore())
	a.SetSelected("Mine", true)
	a.SetSellMode("count")
	a.SetSellCount(4)
	blob, err := a.Export()
	if err != nil {
		t.Fatal(err)
	}

	store := NewMemoryStore()
	b := open(t, store)
	if err := b.Import(blob); err != nil {
		t.Fatal(err)
	}
	if !b.Snapshot().Equal(a.Snapshot()) {
		t.Fatalf("import mismatch:\n%+v\n%+v", b.Snapshot(), a.Snapshot())
	}
	// written through to the local store
	if !open(t, store).Snapshot().Equal(a.Snapshot()) {
		t.Fatalf("import not persisted")
	}
}

func TestImportToleratesComments(t *testing.T) {
	s := open(t, NewMemoryStore())
	blob := `{
		// saved by an older build
		"sellMode": "count",
		"sellCount": 2,
	}`
	if err := s.Import(blob); err != nil {
		t.Fatal(err)
	}
	if c := s.Snapshot(); c.SellMode != SellCount || c.SellCount != 2 {
		t.Fatalf("got %+v", c)
	}
}

func TestImportGarbageChangesNothing(t *testing.T) {
	s := open(t, NewMemoryStore())
	s.SetRebuy(false)
	before := s.Snapshot()
	if err := s.Import("definitely not json"); err == nil {
		t.Fatalf("expected parse error")
	}
	if !s.Snapshot().Equal(before) {
		t.Fatalf("garbage import changed the record")
	}
}

func TestApply(t *testing.T) {
	s := open(t, NewMemoryStore())
	steps := map[string]string{
		"sellMode":             "count",
		"sellCount":            "12.9",
		"rebuyDelayMs":         "abc",
		"rebuy":                "false",
		"pauseHotkeys":         "0",
		"autoPauseBeforeBurst": "true",
		"selected.Farm":        "true",
	}
	for k, v := range steps {
		if err := s.Apply(k, v); err != nil {
			t.Fatalf("Apply(%s): %v", k, err)
		}
	}
	c := s.Snapshot()
	if c.SellMode != SellCount || c.SellCount != 12 || c.RebuyDelayMs != 0 ||
		c.Rebuy || c.PauseHotkeys || !c.AutoPauseBeforeBurst || !c.Selected.Get("Farm") {
		t.Fatalf("got %+v", c)
	}
	if err := s.Apply("volume", "11"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err=%v", err)
	}
}

func TestParseCountAndDelay(t *testing.T) {
	cases := []struct {
		in           string
		count, delay int
	}{
		{"5", 5, 5},
		{" 7 ", 7, 7},
		{"3.8", 3, 3},
		{"0", 1, 0},
		{"-9", 1, 0},
		{"", 1, 0},
		{"NaN", 1, 0},
		{"ten", 1, 0},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.in); got != tc.count {
			t.Errorf("ParseCount(%q)=%d, want %d", tc.in, got, tc.count)
		}
		if got := ParseDelay(tc.in); got != tc.delay {
			t.Errorf("ParseDelay(%q)=%d, want %d", tc.in, got, tc.delay)
		}
	}
}

func TestSelectionEncodingsKeepOrder(t *testing.T) {
	var sel Selection
	sel.Set("Mine", true)
	sel.Set("Farm", false)
	sel.Set("Bank", true)
	cfg := Defaults()
	cfg.Selected = sel

	y, err := Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	fromYAML, err := Parse(y)
	if err != nil {
		t.Fatal(err)
	}
	j, err := EncodeJSON(cfg)
	if err != nil {
		t.Fatal(err)
	}
	fromJSON, err := ParseHostBlob(j)
	if err != nil {
		t.Fatal(err)
	}
	for _, got := range []Config{fromYAML, fromJSON} {
		if !got.Selected.Equal(sel) {
			t.Fatalf("order or values lost: %v", got.Selected.Names())
		}
	}
}

func TestSelectionUnion(t *testing.T) {
	a := NewSelection(false, "A", "B")
	var b Selection
	b.Set("B", true)
	b.Set("C", true)
	u := a.Union(b)
	if strings.Join(u.Names(), ",") != "A,B,C" {
		t.Fatalf("names=%v", u.Names())
	}
	if u.Get("A") || !u.Get("B") || !u.Get("C") {
		t.Fatalf("values wrong: %v", u.Selected())
	}
	if a.Get("B") {
		t.Fatalf("Union mutated its receiver")
	}
}

func TestFileStore(t *testing.T) {
	fs := FileStore{Dir: t.TempDir()}
	if _, ok, err := fs.Get(StorageKey); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := fs.Put(StorageKey, []byte("rebuy: false\n")); err != nil {
		t.Fatal(err)
	}
	b, ok, err := fs.Get(StorageKey)
	if !ok || err != nil || string(b) != "rebuy: false\n" {
		t.Fatalf("got %q ok=%v err=%v", b, ok, err)
	}
}

func TestWatchReloadsOnEdit(t *testing.T) {
	fs := FileStore{Dir: t.TempDir()}
	s := open(t, fs)
	clk := clock.Fake(time.Now())

	reloaded := make(chan Config, 4)
	s.OnChange(func(c Config) { reloaded <- c })

	w := Watch(s, fs, time.Second, clk)
	defer w.Stop()

	if err := os.WriteFile(fs.Path(StorageKey), []byte("sellCount: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(fs.Path(StorageKey), future, future); err != nil {
		t.Fatal(err)
	}

	clk.WaitForTimers(1)
	clk.Advance(time.Second)

	select {
	case c := <-reloaded:
		if c.SellCount != 42 {
			t.Fatalf("reloaded sellCount=%d", c.SellCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("edit never picked up")
	}
}

// racingStore runs onGet once, in the middle of the next Get.
type racingStore struct {
	*MemoryStore
	onGet func()
}

func (r *racingStore) Get(key string) ([]byte, bool, error) {
	b, ok, err := r.MemoryStore.Get(key)
	if fn := r.onGet; fn != nil {
		r.onGet = nil
		fn()
	}
	return b, ok, err
}

func TestLoadKeepsChangeMadeDuringRead(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore()}
	s := open(t, store)

	// an external edit is pending while a setter lands mid-read
	if err := store.MemoryStore.Put(StorageKey, []byte("sellCount: 42\n")); err != nil {
		t.Fatal(err)
	}
	store.onGet = func() {
		if err := s.SetRebuyDelay(900); err != nil {
			t.Error(err)
		}
	}

	s.Load()
	if got := s.Snapshot().RebuyDelayMs; got != 900 {
		t.Fatalf("rebuyDelayMs=%d, setter lost to a stale read", got)
	}
}

func TestLoadSkipsOwnWrite(t *testing.T) {
	store := NewMemoryStore()
	s := open(t, store)
	if err := s.SetSellCount(4); err != nil {
		t.Fatal(err)
	}

	calls := 0
	s.OnChange(func(Config) { calls++ })
	if got := s.Load(); got.SellCount != 4 {
		t.Fatalf("sellCount=%d", got.SellCount)
	}
	if calls != 0 {
		t.Fatalf("reloading our own write notified %d listeners", calls)
	}

	if err := store.Put(StorageKey, []byte("sellCount: 8\n")); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(); got.SellCount != 8 || calls != 1 {
		t.Fatalf("external edit: sellCount=%d calls=%d", got.SellCount, calls)
	}
}

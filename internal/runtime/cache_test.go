package runtime_test

import (
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
)

func TestCache_SetOnlyWhenEmpty(t *testing.T) {
	c := runtime.NewCache()

	if !c.Set("menu", true) {
		t.Fatal("expected first write to succeed")
	}
	if c.Set("menu", "other") {
		t.Error("a filled slot must not be overwritten")
	}
	if c.Set("tab", "") || c.Set("flag", false) || c.Set("nothing", nil) {
		t.Error("empty values must not fill a slot")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 slot, got %d", c.Len())
	}
	if v, _ := c.Value("menu"); v != true {
		t.Errorf("unexpected value %v", v)
	}
}

func TestCache_TakeIsSingleUse(t *testing.T) {
	c := runtime.NewCache()
	c.Set("id", "42")

	v, ok := c.Take("id")
	if !ok || v != "42" {
		t.Fatalf("expected 42, got %v (%v)", v, ok)
	}
	if _, ok := c.Take("id"); ok {
		t.Error("slot should be empty after Take")
	}
	if c.Has("id") {
		t.Error("Has should report the slot as consumed")
	}
}

func TestCache_ExportRestore(t *testing.T) {
	c := runtime.NewCache()
	c.Set("a", true)
	saved := c.Export()

	c.Set("b", "x")
	c.Take("a")
	c.Restore(saved)

	if !c.Has("a") || c.Has("b") {
		t.Errorf("restore did not reset slots: %v", c.Export())
	}

	// The export is a copy.
	saved["c"] = true
	if c.Has("c") {
		t.Error("export shares storage with the cache")
	}
}

func TestCache_ImportSnapshot(t *testing.T) {
	c := runtime.NewCache()
	c.Set("menu", "kept")

	values, err := runtime.DecodeSnapshot(`{"menu":true,"chat":2,"id":"42"}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	written := c.Import(values)

	if len(written) != 2 {
		t.Errorf("expected 2 slots written, got %v", written)
	}
	if v, _ := c.Value("menu"); v != "kept" {
		t.Errorf("import overwrote a filled slot: %v", v)
	}
	if v, _ := c.Value("chat"); v != 2 {
		t.Errorf("numbers should come back as int, got %T", v)
	}

	raw, err := c.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"chat":2,"id":"42","menu":"kept"}` {
		t.Errorf("unexpected snapshot %s", raw)
	}

	if _, err := runtime.DecodeSnapshot("not json"); err == nil {
		t.Error("expected an error for a malformed snapshot")
	}
}

package storage

import (
	"context"
	"testing"
	"time"
)

func openTestLocal(t *testing.T, namespace string) *Local {
	t.Helper()
	l, err := OpenLocal(t.TempDir(), namespace)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// TestLocalGetPut round-trips raw values and checks missing keys report ok=false.
func TestLocalGetPut(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t, "trainsync")

	if _, ok, err := l.Get(ctx, "sessions"); err != nil || ok {
		t.Fatalf("Get missing = ok %v err %v, want false nil", ok, err)
	}

	if err := l.Put(ctx, "sessions", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if err := l.Put(ctx, "sessions", []byte(`[1,2]`)); err != nil {
		t.Fatal(err)
	}
	got, ok, err := l.Get(ctx, "sessions")
	if err != nil || !ok {
		t.Fatalf("Get = ok %v err %v", ok, err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("value = %s, want [1,2]", got)
	}

	if err := l.Delete(ctx, "sessions"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l.Get(ctx, "sessions"); ok {
		t.Error("key still present after delete")
	}
}

// TestLocalNamespaces verifies two namespaces over the same file do not collide.
func TestLocalNamespaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := OpenLocal(dir, "alice")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.Put(ctx, "quick_check", []byte(`"a"`)); err != nil {
		t.Fatal(err)
	}
	a.Close()

	b, err := OpenLocal(dir, "bob")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, ok, _ := b.Get(ctx, "quick_check"); ok {
		t.Error("bob sees alice's key")
	}
	if err := b.Put(ctx, "device_id", []byte(`"x"`)); err != nil {
		t.Fatal(err)
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "device_id" {
		t.Errorf("keys = %v, want [device_id]", keys)
	}
}

func TestLocalJSON(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t, "")

	type doc struct {
		When  time.Time `json:"when"`
		Count int       `json:"count"`
	}
	in := doc{When: time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC), Count: 3}
	if err := l.PutJSON(ctx, "doc", in); err != nil {
		t.Fatal(err)
	}
	var out doc
	ok, err := l.GetJSON(ctx, "doc", &out)
	if err != nil || !ok {
		t.Fatalf("GetJSON = ok %v err %v", ok, err)
	}
	if !out.When.Equal(in.When) || out.Count != 3 {
		t.Errorf("got %+v, want %+v", out, in)
	}

	if err := l.Put(ctx, "broken", []byte(`{`)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.GetJSON(ctx, "broken", &out); err == nil {
		t.Error("expected decode error for corrupt value")
	}
}

func TestImportLogs(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t, "")

	ms := 1200
	msg := "token refresh failed"
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	if _, err := l.InsertImportLog(ctx, ImportLog{CreatedAt: base, Source: "strava", Status: "success", ActivitiesReceived: 4, SessionsAdded: 3, DurationMs: &ms}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.InsertImportLog(ctx, ImportLog{CreatedAt: base.Add(time.Hour), Source: "strava", Status: "error", ErrorMessage: &msg}); err != nil {
		t.Fatal(err)
	}

	logs, err := l.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Status != "error" || logs[0].ErrorMessage == nil || *logs[0].ErrorMessage != msg {
		t.Errorf("newest log = %+v", logs[0])
	}
	if logs[1].SessionsAdded != 3 || logs[1].DurationMs == nil || *logs[1].DurationMs != 1200 {
		t.Errorf("oldest log = %+v", logs[1])
	}
}

func TestLocalJSONBatch(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t, "ns")

	if err := l.PutJSON(ctx, "a", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.PutJSON(ctx, "b", 2); err != nil {
		t.Fatal(err)
	}

	if err := l.PutJSONBatch(ctx, map[string]any{"a": 10, "b": nil, "c": 30}); err != nil {
		t.Fatal(err)
	}
	var n int
	if ok, _ := l.GetJSON(ctx, "a", &n); !ok || n != 10 {
		t.Errorf("a = %d (ok %v), want 10", n, ok)
	}
	if ok, _ := l.GetJSON(ctx, "b", &n); ok {
		t.Error("b still present after nil batch entry")
	}
	if ok, _ := l.GetJSON(ctx, "c", &n); !ok || n != 30 {
		t.Errorf("c = %d (ok %v), want 30", n, ok)
	}

	// An entry that cannot be encoded aborts the whole batch.
	err := l.PutJSONBatch(ctx, map[string]any{"a": 99, "c": nil, "bad": make(chan int)})
	if err == nil {
		t.Fatal("expected encode error")
	}
	if ok, _ := l.GetJSON(ctx, "a", &n); !ok || n != 10 {
		t.Errorf("a = %d after failed batch, want 10", n)
	}
	if ok, _ := l.GetJSON(ctx, "c", &n); !ok || n != 30 {
		t.Errorf("c = %d (ok %v) after failed batch, want 30", n, ok)
	}
}

package gallery

import "testing"

func TestRegistryInsertGetRemove(t *testing.T) {
	r := NewRegistry()

	s := &Session{ID: "s1", UserID: "u1", DeviceID: "d1"}
	r.Insert(s)

	got, ok := r.Get("s1")
	if !ok || got != s {
		t.Fatalf("Get after Insert: ok=%v got=%v", ok, got)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	r.Remove("s1")
	if _, ok := r.Get("s1"); ok {
		t.Fatalf("session still present after Remove")
	}
	if _, ok := r.FindByIdentity("u1", "d1"); ok {
		t.Fatalf("identity index not cleared on Remove")
	}

	// removing an unknown session is a no-op, not an error
	r.Remove("s1")
	r.Remove("never-existed")
}

func TestRegistryFindByIdentity(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Session{ID: "s1", UserID: "u1"})
	r.Insert(&Session{ID: "s2", DeviceID: "d2"})
	r.Insert(&Session{ID: "s3"})

	if id, ok := r.FindByIdentity("u1", ""); !ok || id != "s1" {
		t.Fatalf("FindByIdentity(u1) = %q,%v", id, ok)
	}
	if id, ok := r.FindByIdentity("", "d2"); !ok || id != "s2" {
		t.Fatalf("FindByIdentity(d2) = %q,%v", id, ok)
	}
	// empty identifiers never match, even though s3 has empty identity
	if _, ok := r.FindByIdentity("", ""); ok {
		t.Fatalf("empty identity matched")
	}
	if _, ok := r.FindByIdentity("u9", "d9"); ok {
		t.Fatalf("unknown identity matched")
	}
}

func TestRegistryIdentityIndexSurvivesStaleRemove(t *testing.T) {
	r := NewRegistry()
	old := &Session{ID: "s1", UserID: "u1"}
	r.Insert(old)

	// a newer session takes over the identity before the old entry
	// is removed
	r.Insert(&Session{ID: "s2", UserID: "u1"})
	r.Remove("s1")

	if id, ok := r.FindByIdentity("u1", ""); !ok || id != "s2" {
		t.Fatalf("index lost newer session: %q,%v", id, ok)
	}
}

func TestRegistryAllInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		r.Insert(&Session{ID: id})
	}
	r.Remove("a")
	r.Insert(&Session{ID: "d"})

	want := []string{"c", "b", "d"}
	all := r.All()
	if len(all) != len(want) {
		t.Fatalf("All() len = %d, want %d", len(all), len(want))
	}
	for i, s := range all {
		if s.ID != want[i] {
			t.Fatalf("All()[%d] = %s, want %s", i, s.ID, want[i])
		}
	}
}

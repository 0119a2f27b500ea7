package gallery

import (
	"testing"
)

func TestManagerRoutesByGalleryID(t *testing.T) {
	sender := newFakeSender()
	m := NewManager(Config{}, sender)

	r1, err := m.Join("s1", JoinOptions{GalleryID: "gallery-7"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	r2, err := m.Join("s2", JoinOptions{GalleryID: "gallery-7"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("same gallery id resolved to different rooms")
	}

	r3, err := m.Join("s3", JoinOptions{GalleryID: "gallery-8"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if r3 == r1 {
		t.Fatalf("distinct gallery ids share a room")
	}
}

func TestManagerGeneratesRoomKey(t *testing.T) {
	sender := newFakeSender()
	m := NewManager(Config{}, sender)

	r1, err := m.Join("s1", JoinOptions{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	r2, err := m.Join("s2", JoinOptions{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if r1.ID() == "" || r2.ID() == "" {
		t.Fatalf("generated room key empty")
	}
	if r1 == r2 {
		t.Fatalf("keyless joins landed in the same room")
	}
}

func TestManagerDisposesEmptyRoom(t *testing.T) {
	sender := newFakeSender()
	m := NewManager(Config{}, sender)

	r1, _ := m.Join("s1", JoinOptions{GalleryID: "g"})
	r1.Leave("s1")

	if len(m.Stats()) != 0 {
		t.Fatalf("empty room not removed: %+v", m.Stats())
	}

	// the key is reusable; a rejoin gets a fresh room
	r2, err := m.Join("s2", JoinOptions{GalleryID: "g"})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if r2 == r1 {
		t.Fatalf("rejoin reused the disposed room instance")
	}
	if r2.Occupancy() != 1 {
		t.Fatalf("rejoin occupancy = %d", r2.Occupancy())
	}
}

func TestManagerStats(t *testing.T) {
	sender := newFakeSender()
	m := NewManager(Config{}, sender)

	_, _ = m.Join("s1", JoinOptions{GalleryID: "b"})
	_, _ = m.Join("s2", JoinOptions{GalleryID: "b"})
	_, _ = m.Join("s3", JoinOptions{GalleryID: "a"})

	stats := m.Stats()
	if len(stats) != 2 {
		t.Fatalf("stats len = %d, want 2", len(stats))
	}
	if stats[0].ID != "a" || stats[0].Sessions != 1 {
		t.Fatalf("stats[0] = %+v", stats[0])
	}
	if stats[1].ID != "b" || stats[1].Sessions != 2 {
		t.Fatalf("stats[1] = %+v", stats[1])
	}
}

func TestManagerEvictionAcrossJoins(t *testing.T) {
	sender := newFakeSender()
	m := NewManager(Config{}, sender)

	_, _ = m.Join("sA", JoinOptions{GalleryID: "g", UserID: "u1"})
	r, _ := m.Join("sB", JoinOptions{GalleryID: "g", UserID: "u1"})

	if codes := sender.closeCodes("sA"); len(codes) != 1 || codes[0] != CloseReplaced {
		t.Fatalf("A close codes = %v", codes)
	}
	if r.Occupancy() != 1 {
		t.Fatalf("occupancy = %d, want 1", r.Occupancy())
	}
}

package pkginfo

import (
	"context"
	"errors"
	"testing"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Add(1, Record{Name: "a.b", VersionCode: 1})
	m.Add(1, Record{Name: "a.c", VersionCode: 2})

	got, err := m.PackagesForUID(context.Background(), 1)
	if err != nil {
		t.Fatalf("PackagesForUID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}

	got, err = m.PackagesForUID(context.Background(), 2)
	if err != nil {
		t.Fatalf("PackagesForUID empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestMemory_SetErr(t *testing.T) {
	down := errors.New("source down")
	m := NewMemory()
	m.Add(1, Record{Name: "a.b", VersionCode: 1})
	m.SetErr(down)

	if _, err := m.PackagesForUID(context.Background(), 1); err != down {
		t.Fatalf("expected forced error, got: %v", err)
	}

	m.SetErr(nil)
	if _, err := m.PackagesForUID(context.Background(), 1); err != nil {
		t.Fatalf("PackagesForUID after clearing: %v", err)
	}
}

func TestMemory_ContextCanceled(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.PackagesForUID(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

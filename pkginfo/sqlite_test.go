package pkginfo

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPackageRegistry(t *testing.T) {
	s := newTestStore(t)

	rec := Record{
		Name:         "com.example.app",
		VersionCode:  3,
		SigningCerts: [][]byte{[]byte("cert-one"), []byte("cert-two")},
	}
	if err := s.AddPackage(10001, rec); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}

	got, err := s.PackagesForUID(context.Background(), 10001)
	if err != nil {
		t.Fatalf("PackagesForUID: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d packages", len(got))
	}
	if got[0].Name != "com.example.app" || got[0].VersionCode != 3 {
		t.Errorf("got package %+v", got[0])
	}
	if len(got[0].SigningCerts) != 2 {
		t.Errorf("got %d signing certs", len(got[0].SigningCerts))
	}

	// Unknown UID: empty result, no error
	got, err = s.PackagesForUID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("PackagesForUID unknown: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no packages for unknown uid, got %d", len(got))
	}
}

func TestAddPackage_Duplicate(t *testing.T) {
	s := newTestStore(t)

	rec := Record{Name: "a.b", VersionCode: 1}
	if err := s.AddPackage(1, rec); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	if err := s.AddPackage(1, rec); err != ErrPackageDuplicate {
		t.Fatalf("expected ErrPackageDuplicate, got: %v", err)
	}

	// Same name under another UID is a different package
	if err := s.AddPackage(2, rec); err != nil {
		t.Fatalf("AddPackage other uid: %v", err)
	}
}

func TestAddPackage_SharedCertDeduplicated(t *testing.T) {
	s := newTestStore(t)

	cert := []byte("shared-cert")
	if err := s.AddPackage(1, Record{
		Name: "a.b", VersionCode: 1,
		SigningCerts: [][]byte{cert, cert},
	}); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}

	got, err := s.PackagesForUID(context.Background(), 1)
	if err != nil {
		t.Fatalf("PackagesForUID: %v", err)
	}
	if len(got[0].SigningCerts) != 1 {
		t.Fatalf("expected 1 cert after dedup, got %d", len(got[0].SigningCerts))
	}
}

func TestRemovePackage(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddPackage(1, Record{
		Name: "a.b", VersionCode: 1,
		SigningCerts: [][]byte{[]byte("cert")},
	}); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}

	deleted, err := s.RemovePackage(1, "a.b")
	if err != nil {
		t.Fatalf("RemovePackage: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}

	got, err := s.PackagesForUID(context.Background(), 1)
	if err != nil {
		t.Fatalf("PackagesForUID: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("package still present: %+v", got)
	}

	// Certificates must be gone with the package
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM signing_certs`).Scan(&n); err != nil {
		t.Fatalf("count signing_certs: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected cascade delete of certs, %d left", n)
	}

	// Nonexistent
	deleted, err = s.RemovePackage(1, "nonexistent")
	if err != nil {
		t.Fatalf("RemovePackage nonexistent: %v", err)
	}
	if deleted {
		t.Fatal("expected deleted=false")
	}
}

func TestListUIDs(t *testing.T) {
	s := newTestStore(t)

	uids, err := s.ListUIDs()
	if err != nil {
		t.Fatalf("ListUIDs: %v", err)
	}
	if len(uids) != 0 {
		t.Fatalf("expected 0 uids, got %d", len(uids))
	}

	s.AddPackage(10001, Record{Name: "a.b", VersionCode: 1})
	s.AddPackage(10001, Record{Name: "a.c", VersionCode: 2})
	s.AddPackage(10002, Record{Name: "b.b", VersionCode: 1})

	uids, err = s.ListUIDs()
	if err != nil {
		t.Fatalf("ListUIDs: %v", err)
	}
	if len(uids) != 2 || uids[0] != 10001 || uids[1] != 10002 {
		t.Fatalf("uids = %v", uids)
	}
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.AddPackage(1, Record{Name: "a.b", VersionCode: 7}); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("NewStore reopen: %v", err)
	}
	defer s.Close()

	got, err := s.PackagesForUID(context.Background(), 1)
	if err != nil {
		t.Fatalf("PackagesForUID: %v", err)
	}
	if len(got) != 1 || got[0].VersionCode != 7 {
		t.Fatalf("got %+v after reopen", got)
	}
}

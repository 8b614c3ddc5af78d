package attestext

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/aspect-build/attestid/appid"
)

// tlv assembles a short-form TLV for hand-building test records.
func tlv(tag byte, parts ...[]byte) []byte {
	var body []byte
	for _, p := range parts {
		body = append(body, p...)
	}
	if len(body) > 127 {
		panic("tlv: short-form only")
	}
	return append([]byte{tag, byte(len(body))}, body...)
}

// applicationIDEntry wraps appIDDER the way keymaster does: context
// tag 709 (high-tag-number form BF 85 45) around an OCTET STRING.
func applicationIDEntry(appIDDER []byte) []byte {
	octet := tlv(0x04, appIDDER)
	return append([]byte{0xBF, 0x85, 0x45, byte(len(octet))}, octet...)
}

// buildRecord assembles a minimal attestation record with the given
// authorization lists in field positions seven and eight.
func buildRecord(swEnforced, teeEnforced []byte) []byte {
	return tlv(0x30,
		[]byte{0x02, 0x01, 0x64}, // attestationVersion 100
		[]byte{0x0A, 0x01, 0x01}, // attestationSecurityLevel TEE
		[]byte{0x02, 0x01, 0x64}, // keymasterVersion 100
		[]byte{0x0A, 0x01, 0x01}, // keymasterSecurityLevel TEE
		tlv(0x04, []byte("challenge")),
		tlv(0x04), // uniqueId empty
		swEnforced,
		teeEnforced,
	)
}

func encodedAppID(t *testing.T) []byte {
	t.Helper()
	enc, err := appid.Marshal(&appid.AttestationApplicationID{
		Packages:         []appid.PackageInfo{{Name: "com.example.app", Version: 3}},
		SignatureDigests: [][]byte{bytes.Repeat([]byte{0x01}, 32)},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return enc
}

func TestFromRecord_SoftwareEnforced(t *testing.T) {
	want := encodedAppID(t)

	// A decoy entry under another tag must be skipped.
	decoy := []byte{0xA1, 0x05, 0x31, 0x03, 0x02, 0x01, 0x02}
	record := buildRecord(
		tlv(0x30, decoy, applicationIDEntry(want)),
		tlv(0x30),
	)

	got, err := FromRecord(record)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("FromRecord = % x, want % x", got, want)
	}

	if _, err := appid.Unmarshal(got); err != nil {
		t.Fatalf("Unmarshal extracted id: %v", err)
	}
}

func TestFromRecord_TeeEnforced(t *testing.T) {
	want := encodedAppID(t)
	record := buildRecord(tlv(0x30), tlv(0x30, applicationIDEntry(want)))

	got, err := FromRecord(record)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("FromRecord = % x, want % x", got, want)
	}
}

func TestFromRecord_Missing(t *testing.T) {
	record := buildRecord(tlv(0x30), tlv(0x30))
	if _, err := FromRecord(record); !errors.Is(err, ErrNoApplicationID) {
		t.Fatalf("FromRecord = %v, want ErrNoApplicationID", err)
	}
}

func TestFromRecord_Truncated(t *testing.T) {
	record := buildRecord(tlv(0x30, applicationIDEntry(encodedAppID(t))), tlv(0x30))
	if _, err := FromRecord(record[:len(record)-5]); err == nil {
		t.Fatal("expected error for truncated record")
	}
	if _, err := FromRecord([]byte{0x02, 0x01, 0x00}); err == nil {
		t.Fatal("expected error for non-sequence record")
	}
}

func newTestCertificate(t *testing.T, exts []pkix.Extension) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(1),
		Subject:         pkix.Name{CommonName: "attestation test"},
		NotBefore:       time.Now(),
		NotAfter:        time.Now().Add(time.Hour),
		ExtraExtensions: exts,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	return cert
}

func TestFromCertificate(t *testing.T) {
	want := encodedAppID(t)
	record := buildRecord(tlv(0x30, applicationIDEntry(want)), tlv(0x30))

	cert := newTestCertificate(t, []pkix.Extension{{Id: OIDKeyAttestation, Value: record}})

	got, err := FromCertificate(cert)
	if err != nil {
		t.Fatalf("FromCertificate: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("FromCertificate = % x, want % x", got, want)
	}
}

func TestFromCertificate_NoExtension(t *testing.T) {
	cert := newTestCertificate(t, nil)
	if _, err := FromCertificate(cert); !errors.Is(err, ErrNoExtension) {
		t.Fatalf("FromCertificate = %v, want ErrNoExtension", err)
	}
}

package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"testing"
	"time"
)

// writeKeyPair generates a throwaway self-signed pair for host in dir.
func writeKeyPair(t *testing.T, r *Registry, host string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: host},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	certPath, keyPath := r.Paths(host)
	certOut := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, certOut, 0644); err != nil {
		t.Fatalf("writing cert: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshalling key: %v", err)
	}
	keyOut := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyPath, keyOut, 0600); err != nil {
		t.Fatalf("writing key: %v", err)
	}
}

func TestCertificateAbsent(t *testing.T) {
	r := NewRegistry(t.TempDir())
	cert, err := r.Certificate("nohost.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert != nil {
		t.Error("expected nil certificate when no files exist")
	}
}

func TestCertificateNeedsBothFiles(t *testing.T) {
	r := NewRegistry(t.TempDir())
	certPath, _ := r.Paths("half.example")
	if err := os.WriteFile(certPath, []byte("not a cert"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	cert, err := r.Certificate("half.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert != nil {
		t.Error("expected nil certificate when the key file is missing")
	}
}

func TestCertificateLoadsPair(t *testing.T) {
	r := NewRegistry(t.TempDir())
	writeKeyPair(t, r, "host.example")

	cert, err := r.Certificate("host.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert == nil {
		t.Fatal("expected a certificate when both files exist")
	}
}

func TestCertificateCorruptPair(t *testing.T) {
	r := NewRegistry(t.TempDir())
	certPath, keyPath := r.Paths("bad.example")
	os.WriteFile(certPath, []byte("garbage"), 0644)
	os.WriteFile(keyPath, []byte("garbage"), 0600)

	if _, err := r.Certificate("bad.example"); err == nil {
		t.Error("expected an error for unparsable certificate files")
	}
}

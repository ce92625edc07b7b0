package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeCA stores a freshly generated CA under dir and returns the paths.
func writeCA(t *testing.T, dir string) (string, string, *Issuer) {
	t.Helper()

	ca, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	keyPEM, err := ca.KeyPEM()
	if err != nil {
		t.Fatalf("KeyPEM: %v", err)
	}
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")
	if err := WritePair(certPath, keyPath, ca.CertPEM(), keyPEM); err != nil {
		t.Fatalf("WritePair: %v", err)
	}
	return certPath, keyPath, ca
}

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert
}

func TestGenerateCA(t *testing.T) {
	ca, err := GenerateCA("SyslogKeeper CA")
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	if !ca.Cert.IsCA || !ca.Cert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid set")
	}
	if ca.Cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Errorf("CA KeyUsage = %v; want CertSign", ca.Cert.KeyUsage)
	}
	if d := ca.Cert.NotAfter.Sub(ca.Cert.NotBefore); d < 9*365*24*time.Hour {
		t.Errorf("CA validity too short: %v", d)
	}
}

func TestLoadIssuer_RoundTrip(t *testing.T) {
	certPath, keyPath, want := writeCA(t, t.TempDir())

	got, err := LoadIssuer(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadIssuer: %v", err)
	}
	if got.Cert.Subject.CommonName != want.Cert.Subject.CommonName {
		t.Errorf("CommonName = %q; want %q", got.Cert.Subject.CommonName, want.Cert.Subject.CommonName)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %v; want 0600", perm)
	}
}

func TestLoadIssuer_RSAKey(t *testing.T) {
	dir := t.TempDir()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "RSA CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	if err := WritePair(certPath, keyPath, certPEM, keyPEM); err != nil {
		t.Fatal(err)
	}

	ca, err := LoadIssuer(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadIssuer: %v", err)
	}
	if _, _, err := ca.IssueOperatorCertificate("bob"); err != nil {
		t.Errorf("issue with RSA CA: %v", err)
	}
}

func TestLoadIssuer_Errors(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath, ca := writeCA(t, dir)

	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not pem"), 0o600); err != nil {
		t.Fatal(err)
	}
	leafCert, leafKey, err := ca.IssueOperatorCertificate("leaf")
	if err != nil {
		t.Fatal(err)
	}
	leafCertPath, leafKeyPath := filepath.Join(dir, "leaf.crt"), filepath.Join(dir, "leaf.key")
	if err := WritePair(leafCertPath, leafKeyPath, leafCert, leafKey); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name       string
		cert, key  string
		wantSubstr string
	}{
		{"missing cert", "/no/such/file.pem", keyPath, "read ca cert"},
		{"missing key", certPath, "/no/such/key.pem", "read ca key"},
		{"bad cert PEM", garbage, keyPath, "invalid CA cert PEM"},
		{"bad key PEM", certPath, garbage, "invalid CA key PEM"},
		{"not a CA", leafCertPath, leafKeyPath, "not a CA"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadIssuer(tc.cert, tc.key)
			if err == nil || !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("got %v; want error containing %q", err, tc.wantSubstr)
			}
		})
	}
}

func TestIssueOperatorCertificate(t *testing.T) {
	ca, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := ca.IssueOperatorCertificate("alice")
	if err != nil {
		t.Fatalf("IssueOperatorCertificate: %v", err)
	}
	cert := parseCert(t, certPEM)
	if cert.Subject.CommonName != "alice" {
		t.Errorf("CommonName = %q; want alice", cert.Subject.CommonName)
	}
	if err := cert.CheckSignatureFrom(ca.Cert); err != nil {
		t.Errorf("signature check failed: %v", err)
	}
	if len(cert.ExtKeyUsage) != 1 || cert.ExtKeyUsage[0] != x509.ExtKeyUsageClientAuth {
		t.Errorf("ExtKeyUsage = %v; want client auth", cert.ExtKeyUsage)
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		t.Fatalf("key PEM invalid")
	}
	if _, err := x509.ParseECPrivateKey(block.Bytes); err != nil {
		t.Errorf("parse private key failed: %v", err)
	}

	if _, _, err := ca.IssueOperatorCertificate(""); err == nil {
		t.Error("expected error for empty operator name")
	}
}

func TestIssueServerCertificate(t *testing.T) {
	ca, err := GenerateCA("Test CA")
	if err != nil {
		t.Fatal(err)
	}

	certPEM, _, err := ca.IssueServerCertificate([]string{"localhost", "127.0.0.1"})
	if err != nil {
		t.Fatalf("IssueServerCertificate: %v", err)
	}
	cert := parseCert(t, certPEM)

	pool := x509.NewCertPool()
	pool.AddCert(ca.Cert)
	for _, host := range []string{"localhost", "127.0.0.1"} {
		if _, err := cert.Verify(x509.VerifyOptions{DNSName: host, Roots: pool}); err != nil {
			t.Errorf("verify for %s: %v", host, err)
		}
	}

	if _, _, err := ca.IssueServerCertificate(nil); err == nil {
		t.Error("expected error for empty host list")
	}
}

package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/SyslogKeeper/internal/certgen"
)

func TestRun_WritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	if err := run([]string{"--dir", dir, "--operator", "alice", "--hosts", "syslog.example.net,10.0.0.1"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key", "client.crt", "client.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(out.String(), `"alice"`) {
		t.Errorf("unexpected output %q", out.String())
	}

	ca, err := certgen.LoadIssuer(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadIssuer: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "client.crt"))
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(data)
	client, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if client.Subject.CommonName != "alice" {
		t.Errorf("client CN = %q; want alice", client.Subject.CommonName)
	}
	if err := client.CheckSignatureFrom(ca.Cert); err != nil {
		t.Errorf("client not signed by CA: %v", err)
	}

	data, err = os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil {
		t.Fatal(err)
	}
	block, _ = pem.Decode(data)
	server, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(server.DNSNames) != 1 || server.DNSNames[0] != "syslog.example.net" {
		t.Errorf("server DNSNames = %v", server.DNSNames)
	}
	if len(server.IPAddresses) != 1 || server.IPAddresses[0].String() != "10.0.0.1" {
		t.Errorf("server IPAddresses = %v", server.IPAddresses)
	}
}

func TestRun_BadFlag(t *testing.T) {
	if err := run([]string{"--no-such-flag"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

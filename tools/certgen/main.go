// Package main generates the certificate authority, the admin API server
// certificate and an initial operator client certificate.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/atinyakov/SyslogKeeper/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.StringP("dir", "d", "certs", "output directory")
	hosts := fs.StringSlice("hosts", []string{"localhost", "127.0.0.1"}, "server certificate DNS names and IPs")
	operator := fs.StringP("operator", "o", "admin", "common name of the initial operator certificate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ca, err := certgen.GenerateCA("SyslogKeeper CA")
	if err != nil {
		return err
	}
	caKey, err := ca.KeyPEM()
	if err != nil {
		return err
	}
	if err := certgen.WritePair(filepath.Join(*dir, "ca.crt"), filepath.Join(*dir, "ca.key"), ca.CertPEM(), caKey); err != nil {
		return err
	}

	serverCert, serverKey, err := ca.IssueServerCertificate(*hosts)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(filepath.Join(*dir, "server.crt"), filepath.Join(*dir, "server.key"), serverCert, serverKey); err != nil {
		return err
	}

	clientCert, clientKey, err := ca.IssueOperatorCertificate(*operator)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(filepath.Join(*dir, "client.crt"), filepath.Join(*dir, "client.key"), clientCert, clientKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "certificates for operator %q written to %s\n", *operator, *dir)
	return nil
}

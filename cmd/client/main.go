// Package main is the operator command line for the syslog keeper admin API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/atinyakov/SyslogKeeper/internal/client"
	"github.com/atinyakov/SyslogKeeper/internal/models"
)

var (
	version   string
	buildDate string
)

const usage = `Usage: client [flags] <command> [args]

Commands:
  listeners                              list syslog listeners
  listener-add <address> <port>          add and start a listener
  listener-remove <id>                   stop and delete a listener
  logs [--source ip] [--limit n]         show received messages, newest first
  user-add <name>                        create an operator account
  user-password <name>                   change an operator password
  user-secret <name>                     change an operator secret password
  user-show-secret <name>                print an operator secret password
  aaa-add <address> <port> <timeout>     register a TACACS+ server
  aaa-password <address>                 change a TACACS+ shared key
  aaa-show-password <address>            print a TACACS+ shared key

Flags:
`

type clientFactory func(baseURL, certFile, keyFile, caFile string) (*client.Client, error)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, client.New); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, newClient clientFactory) error {
	var (
		baseURL  string
		certFile string
		keyFile  string
		caFile   string
		source   string
		limit    int
		email    string
		rights   string
		certDir  string
		showVer  bool
	)

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&baseURL, "url", "https://localhost:8080", "server base URL")
	fs.StringVar(&certFile, "cert", "client.crt", "path to client cert")
	fs.StringVar(&keyFile, "key", "client.key", "path to client key")
	fs.StringVar(&caFile, "ca", "certs/ca.crt", "path to CA cert")
	fs.StringVar(&source, "source", "", "logs: only messages from this sender IP")
	fs.IntVar(&limit, "limit", 0, "logs: maximum number of messages")
	fs.StringVar(&email, "email", "", "user-add: e-mail address")
	fs.StringVar(&rights, "access-rights", "", "user-add: access rights")
	fs.StringVar(&certDir, "cert-dir", ".", "user-add: where to save an issued certificate")
	fs.BoolVarP(&showVer, "version", "v", false, "show build version and date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		fmt.Fprintf(stdout, "SyslogKeeper Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	c, err := newClient(baseURL, certFile, keyFile, caFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, params := rest[0], rest[1:]
	switch cmd {
	case "listeners":
		statuses, err := c.Listeners(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tADDRESS\tACTIVE\tBOUND")
		for _, st := range statuses {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", st.ID, st.HostPort(), st.Active, st.BoundAddress)
		}
		return w.Flush()

	case "listener-add":
		if err := wantArgs(cmd, params, "<address> <port>", 2); err != nil {
			return err
		}
		port, err := strconv.ParseUint(params[1], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid port %q", params[1])
		}
		st, err := c.AddListener(ctx, params[0], uint16(port))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "listener %s bound on %s\n", st.ID, st.BoundAddress)

	case "listener-remove":
		if err := wantArgs(cmd, params, "<id>", 1); err != nil {
			return err
		}
		if err := c.RemoveListener(ctx, params[0]); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "listener removed")

	case "logs":
		entries, err := c.Logs(ctx, source, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "%s %s %s\n", e.CreatedAt.Format(time.RFC3339), e.Source, e.Content)
		}

	case "user-add":
		if err := wantArgs(cmd, params, "<name>", 1); err != nil {
			return err
		}
		password, err := client.PromptPassword(stdin, stdout, "Password")
		if err != nil {
			return err
		}
		fields := map[string]string{
			models.UserFieldName:     params[0],
			models.UserFieldPassword: password,
		}
		if email != "" {
			fields[models.UserFieldEmail] = email
		}
		if rights != "" {
			fields[models.UserFieldAccessRights] = rights
		}
		created, err := c.CreateUser(ctx, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "user %s created\n", created.User.Name)
		if created.Cert != "" {
			certPath := filepath.Join(certDir, created.User.Name+".crt")
			keyPath := filepath.Join(certDir, created.User.Name+".key")
			if err := created.Save(certPath, keyPath); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "certificate saved to %s\n", certPath)
		}

	case "user-password", "user-secret":
		if err := wantArgs(cmd, params, "<name>", 1); err != nil {
			return err
		}
		field, label := models.UserFieldPassword, "Password"
		if cmd == "user-secret" {
			field, label = models.UserFieldSecretPassword, "Secret password"
		}
		secret, err := client.PromptPassword(stdin, stdout, label)
		if err != nil {
			return err
		}
		if _, err := c.UpdateUser(ctx, params[0], map[string]string{field: secret}); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "user updated")

	case "user-show-secret":
		if err := wantArgs(cmd, params, "<name>", 1); err != nil {
			return err
		}
		secret, err := c.UserSecret(ctx, params[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, secret)

	case "aaa-add":
		if err := wantArgs(cmd, params, "<address> <port> <timeout>", 3); err != nil {
			return err
		}
		key, err := client.PromptPassword(stdin, stdout, "Shared key")
		if err != nil {
			return err
		}
		s, err := c.CreateAAAServer(ctx, map[string]string{
			models.AAAFieldAddress:  params[0],
			models.AAAFieldPort:     params[1],
			models.AAAFieldTimeout:  params[2],
			models.AAAFieldPassword: key,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "AAA server %s registered\n", s.Address)

	case "aaa-password":
		if err := wantArgs(cmd, params, "<address>", 1); err != nil {
			return err
		}
		key, err := client.PromptPassword(stdin, stdout, "Shared key")
		if err != nil {
			return err
		}
		if _, err := c.UpdateAAAServer(ctx, params[0], map[string]string{models.AAAFieldPassword: key}); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "AAA server updated")

	case "aaa-show-password":
		if err := wantArgs(cmd, params, "<address>", 1); err != nil {
			return err
		}
		key, err := c.AAAPassword(ctx, params[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, key)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func wantArgs(cmd string, params []string, synopsis string, n int) error {
	if len(params) != n {
		return fmt.Errorf("usage: client %s %s", cmd, synopsis)
	}
	return nil
}

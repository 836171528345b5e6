// Command vault is the zero-knowledge vault client. Secrets are encrypted
// locally with a key derived from the master password; the server only
// stores ciphertext.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/and161185/zkvault/internal/client/api"
	"github.com/and161185/zkvault/internal/client/clipboard"
	"github.com/and161185/zkvault/internal/client/session"
	"github.com/and161185/zkvault/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "zkvault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "zkvault")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.db") }

func usage() {
	fmt.Fprintf(os.Stderr, `vault CLI
Usage:
  vault [-server URL] [-store path] <cmd> [args]

Commands:
  version
  signup  -email <email>                        (prompts for account password)
  login   -email <email>
  logout
  add     -title T [-username U] [-url U] [-notes N] [-gen] [-length N]
  list
  show    -id <uuid>
  edit    -id <uuid> [-title T] [-username U] [-url U] [-notes N] [-password | -gen]
  rm      -id <uuid>
  gen     [-length N] [-no-upper] [-no-digits] [-no-symbols] [-lookalikes] [-copy]
  copy    -id <uuid> [-field password|username] [-after 15s]
`)
}

func main() {
	server := flag.String("server", envOr("VAULT_SERVER", "http://localhost:8080"), "server base URL")
	storePath := flag.String("store", sessionPath(), "local session store (bbolt)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(*storePath), 0o700); err != nil {
		fail(err)
	}
	store, err := session.Open(*storePath)
	if err != nil {
		fail(err)
	}
	defer store.Close()

	a := &app{
		api:          api.NewClient(*server),
		store:        store,
		out:          os.Stdout,
		readPassword: termPassword,
		clip:         clipboard.OSC52{Out: os.Stderr},
	}
	if err := a.dispatch(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		store.Close()
		fail(err)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fail(err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		fmt.Fprintln(os.Stderr, "error: not logged in (run: vault login -email ...)")
	case errors.Is(err, errs.ErrDecryption):
		fmt.Fprintln(os.Stderr, "error: decryption failed, check your master password")
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}

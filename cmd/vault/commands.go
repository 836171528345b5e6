package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zkvault/internal/client/api"
	"github.com/and161185/zkvault/internal/client/clipboard"
	"github.com/and161185/zkvault/internal/client/passgen"
	"github.com/and161185/zkvault/internal/client/session"
	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// app carries the CLI's collaborators so commands can run against fakes.
type app struct {
	api          *api.Client
	store        *session.Store
	out          io.Writer
	readPassword func(prompt string) (string, error)
	clip         clipboard.Writer
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintf(a.out, "vault %s (%s)\n", version, buildDate)
		return nil
	case "signup":
		return a.authenticate(ctx, cmd, args, a.api.Signup)
	case "login":
		return a.authenticate(ctx, cmd, args, a.api.Login)
	case "logout":
		return a.logout(ctx)
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx)
	case "show":
		return a.show(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "rm":
		return a.remove(ctx, args)
	case "gen":
		return a.gen(ctx, args)
	case "copy":
		return a.copy(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errs.ErrValidation, cmd)
	}
}

type authFunc func(ctx context.Context, email, password string) (model.AuthResult, error)

func (a *app) authenticate(ctx context.Context, name string, args []string, call authFunc) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: need -email", errs.ErrValidation)
	}
	pw, err := a.readPassword("Account password: ")
	if err != nil {
		return err
	}
	res, err := call(ctx, *email, pw)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, session.FromResult(*email, res)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok, session valid until %s\n", res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.store.Delete(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

// unlock loads the stored session and derives the key. Callers must Close it.
func (a *app) unlock(ctx context.Context) (*session.Session, error) {
	return a.unlockWith(ctx, clipboard.NewClearer(a.clip))
}

func (a *app) unlockWith(ctx context.Context, c *clipboard.Clearer) (*session.Session, error) {
	auth, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	master, err := a.readPassword("Master password: ")
	if err != nil {
		return nil, err
	}
	s := session.New(auth, c)
	if err := s.Unlock(master); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "entry title")
	username := fs.String("username", "", "login name")
	url := fs.String("url", "", "site URL")
	notes := fs.String("notes", "", "free-form notes")
	gen := fs.Bool("gen", false, "generate the password")
	length := fs.Int("length", passgen.DefaultLength, "generated password length")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("%w: need -title", errs.ErrValidation)
	}

	s, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := a.checkMaster(ctx, s); err != nil {
		return err
	}

	pw, err := a.entryPassword(*gen, *length)
	if err != nil {
		return err
	}
	ct, err := s.Seal(model.Entry{Title: *title, Username: *username, Password: pw, URL: *url, Notes: *notes})
	if err != nil {
		return err
	}
	id, err := a.api.CreateItem(ctx, s.Token, ct)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func (a *app) entryPassword(gen bool, length int) (string, error) {
	if gen {
		o := passgen.DefaultOptions()
		o.Length = length
		return passgen.Generate(o)
	}
	return a.readPassword("Entry password: ")
}

type decrypted struct {
	item  model.VaultItem
	entry model.Entry
	err   error
}

func (a *app) fetch(ctx context.Context, s *session.Session) ([]decrypted, error) {
	items, err := a.api.ListItems(ctx, s.Token)
	if err != nil {
		return nil, err
	}
	out := make([]decrypted, 0, len(items))
	for _, it := range items {
		e, err := s.Open(it.Ciphertext)
		out = append(out, decrypted{item: it, entry: e, err: err})
	}
	return out, nil
}

// checkMaster refuses a key that opens none of the existing items, so a
// mistyped master password cannot store an entry the real one can't read.
func (a *app) checkMaster(ctx context.Context, s *session.Session) error {
	all, err := a.fetch(ctx, s)
	if err != nil {
		return err
	}
	for _, d := range all {
		if d.err == nil {
			return nil
		}
	}
	if len(all) > 0 {
		return fmt.Errorf("%w: wrong master password", errs.ErrDecryption)
	}
	return nil
}

func (a *app) find(ctx context.Context, s *session.Session, id string) (decrypted, error) {
	want, err := uuid.FromString(id)
	if err != nil {
		return decrypted{}, fmt.Errorf("%w: bad -id", errs.ErrValidation)
	}
	all, err := a.fetch(ctx, s)
	if err != nil {
		return decrypted{}, err
	}
	for _, d := range all {
		if d.item.ID == want {
			return d, d.err
		}
	}
	return decrypted{}, errs.ErrNotFound
}

func (a *app) list(ctx context.Context) error {
	s, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	all, err := a.fetch(ctx, s)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tURL\tUPDATED")
	failed := 0
	for _, d := range all {
		if d.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t(cannot decrypt)\t\t\t%s\n", d.item.ID, d.item.UpdatedAt.Local().Format(time.DateTime))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.item.ID, d.entry.Title, d.entry.Username, d.entry.URL,
			d.item.UpdatedAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 && failed == len(all) {
		return errs.ErrDecryption
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := a.find(ctx, s, *id)
	if err != nil {
		return err
	}
	e := d.entry
	fmt.Fprintf(a.out, "Title:    %s\nUsername: %s\nPassword: %s\n", e.Title, e.Username, e.Password)
	if e.URL != "" {
		fmt.Fprintf(a.out, "URL:      %s\n", e.URL)
	}
	if e.Notes != "" {
		fmt.Fprintf(a.out, "Notes:    %s\n", e.Notes)
	}
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.String("id", "", "item id")
	title := fs.String("title", "", "entry title")
	username := fs.String("username", "", "login name")
	url := fs.String("url", "", "site URL")
	notes := fs.String("notes", "", "free-form notes")
	newPw := fs.Bool("password", false, "prompt for a new password")
	gen := fs.Bool("gen", false, "generate a new password")
	length := fs.Int("length", passgen.DefaultLength, "generated password length")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := a.find(ctx, s, *id)
	if err != nil {
		return err
	}
	e := d.entry
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			e.Title = *title
		case "username":
			e.Username = *username
		case "url":
			e.URL = *url
		case "notes":
			e.Notes = *notes
		}
	})
	if *newPw || *gen {
		if e.Password, err = a.entryPassword(*gen, *length); err != nil {
			return err
		}
	}

	ct, err := s.Seal(e)
	if err != nil {
		return err
	}
	if err := a.api.UpdateItem(ctx, s.Token, d.item.ID, ct); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "updated")
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	id := fs.String("id", "", "item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	itemID, err := uuid.FromString(*id)
	if err != nil {
		return fmt.Errorf("%w: bad -id", errs.ErrValidation)
	}
	auth, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := a.api.DeleteItem(ctx, auth.Token, itemID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "deleted")
	return nil
}

func (a *app) gen(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	length := fs.Int("length", passgen.DefaultLength, "password length")
	noUpper := fs.Bool("no-upper", false, "exclude uppercase letters")
	noDigits := fs.Bool("no-digits", false, "exclude digits")
	noSymbols := fs.Bool("no-symbols", false, "exclude symbols")
	lookAlikes := fs.Bool("lookalikes", false, "allow look-alike characters (O0Il1)")
	toClipboard := fs.Bool("copy", false, "copy to clipboard instead of printing")
	after := fs.Duration("after", clipboard.DefaultClearAfter, "clear clipboard after")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := passgen.Generate(passgen.Options{
		Length:       *length,
		Upper:        !*noUpper,
		Digits:       !*noDigits,
		Symbols:      !*noSymbols,
		NoLookAlikes: !*lookAlikes,
	})
	if err != nil {
		return err
	}
	if !*toClipboard {
		fmt.Fprintln(a.out, pw)
		return nil
	}
	return a.copyAndWait(ctx, clipboard.NewClearer(a.clip), pw, *after)
}

func (a *app) copy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	id := fs.String("id", "", "item id")
	field := fs.String("field", "password", "field to copy: password or username")
	after := fs.Duration("after", clipboard.DefaultClearAfter, "clear clipboard after")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := clipboard.NewClearer(a.clip)
	s, err := a.unlockWith(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := a.find(ctx, s, *id)
	if err != nil {
		return err
	}
	var text string
	switch strings.ToLower(*field) {
	case "password":
		text = d.entry.Password
	case "username":
		text = d.entry.Username
	default:
		return fmt.Errorf("%w: unknown -field %q", errs.ErrValidation, *field)
	}

	if err := s.Copy(ctx, text, *after); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "copied %s, clearing in %s\n", *field, *after)
	c.Wait()
	return nil
}

func (a *app) copyAndWait(ctx context.Context, c *clipboard.Clearer, text string, after time.Duration) error {
	if err := c.CopyAndClear(ctx, text, after); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "copied, clearing in %s\n", after)
	c.Wait()
	return nil
}

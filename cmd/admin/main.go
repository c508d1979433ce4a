// Command admin manages journal posts against a running API.
//
//	admin login -email you@example.com      prints a token for JOURNAL_TOKEN
//	admin list [-tab all|published|drafts] [-category name]
//	admin stats
//	admin categories
//	admin toggle <id>
//	admin delete [-yes] <id>
//	admin new -title T [-content C] [-excerpt E] [-cover URL] [-category K] [-publish]
//	admin edit <id> [-title T] ... [-publish=true|false]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jeremyjsx/journal/internal/admin"
	"github.com/jeremyjsx/journal/internal/auth"
	"github.com/jeremyjsx/journal/internal/config"
	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/poststore"
)

var errUsage = errors.New("usage: admin <login|list|stats|categories|toggle|delete|new|edit> [flags]")

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg := config.LoadClient()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg.APIURL, &http.Client{Timeout: 30 * time.Second}, os.Stdin, os.Stdout)
	if err := a.run(ctx, cfg.Token, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
}

type app struct {
	session *auth.Session
	store   *poststore.Client
	in      *bufio.Reader
	out     io.Writer
}

func newApp(apiURL string, httpClient *http.Client, in io.Reader, out io.Writer) *app {
	session := auth.NewSession(auth.NewClient(apiURL, httpClient))
	return &app{
		session: session,
		store:   poststore.NewClient(apiURL, httpClient, session.Token),
		in:      bufio.NewReader(in),
		out:     out,
	}
}

func (a *app) run(ctx context.Context, token string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	if cmd == "login" {
		return a.login(ctx, args)
	}

	if _, err := a.session.Restore(ctx, token); err != nil {
		if errors.Is(err, auth.ErrNotSignedIn) {
			return errors.New("JOURNAL_TOKEN is not set; run admin login first")
		}
		return fmt.Errorf("restore session: %w", err)
	}

	switch cmd {
	case "list":
		return a.list(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "categories":
		return a.categories(ctx)
	case "toggle", "publish":
		return a.toggle(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "new":
		return a.edit(ctx, "", args)
	case "edit":
		if len(args) == 0 {
			return errors.New("edit: post id required")
		}
		return a.edit(ctx, args[0], args[1:])
	}
	return errUsage
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		fmt.Fprint(a.out, "Password: ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	u, err := a.session.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	if !u.IsAdmin() {
		fmt.Fprintln(a.out, "warning: this account is not an admin")
	}
	fmt.Fprintln(a.out, a.session.Token())
	return nil
}

// loadList returns a loaded controller; callers close it.
func (a *app) loadList(ctx context.Context) (*admin.PostList, error) {
	list := admin.NewPostList(a.store, a.session)
	if err := list.Load(ctx); err != nil {
		list.Close()
		return nil, err
	}
	return list, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	tabName := fs.String("tab", "all", "all, published or drafts")
	category := fs.String("category", "", "only posts in this category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tab, err := admin.ParseTab(*tabName)
	if err != nil {
		return err
	}

	list, err := a.loadList(ctx)
	if err != nil {
		return err
	}
	defer list.Close()

	rows := list.View(tab)
	if *category != "" {
		rows = filterCategory(list.ByCategory(*category), tab)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tUPDATED\tTITLE")
	for _, p := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Status(), p.Category, p.UpdatedAt.Format(time.DateTime), p.Title)
	}
	return w.Flush()
}

func filterCategory(rows []posts.Post, tab admin.Tab) []posts.Post {
	if tab == admin.TabAll {
		return rows
	}
	out := rows[:0]
	for _, p := range rows {
		if p.Published == (tab == admin.TabPublished) {
			out = append(out, p)
		}
	}
	return out
}

func (a *app) stats(ctx context.Context) error {
	list, err := a.loadList(ctx)
	if err != nil {
		return err
	}
	defer list.Close()

	s := list.Stats()
	fmt.Fprintf(a.out, "total: %d\npublished: %d\ndrafts: %d\nrecent: %d\n", s.Total, s.Published, s.Drafts, s.Recent)
	return nil
}

func (a *app) categories(ctx context.Context) error {
	list, err := a.loadList(ctx)
	if err != nil {
		return err
	}
	defer list.Close()

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tPOSTS\tPRESET")
	for _, c := range list.Categories() {
		fmt.Fprintf(w, "%s\t%d\t%t\n", c.Name, c.Count, posts.IsPresetCategory(c.Name))
	}
	return w.Flush()
}

func (a *app) toggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("toggle: exactly one post id required")
	}
	list, err := a.loadList(ctx)
	if err != nil {
		return err
	}
	defer list.Close()

	p, err := list.TogglePublish(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", p.ID, p.Status())
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("delete: exactly one post id required")
	}

	list, err := a.loadList(ctx)
	if err != nil {
		return err
	}
	defer list.Close()

	confirm := func(p posts.Post) bool {
		if *yes {
			return true
		}
		fmt.Fprintf(a.out, "Delete %q? [y/N] ", p.Title)
		line, _ := a.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
	err = list.Delete(ctx, fs.Arg(0), confirm)
	if errors.Is(err, admin.ErrDeleteCancelled) {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "deleted", fs.Arg(0))
	return nil
}

// edit opens a new session when id is empty. Only flags that were given
// change the draft.
func (a *app) edit(ctx context.Context, id string, args []string) error {
	name := "new"
	if id != "" {
		name = "edit"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post body (HTML)")
	excerpt := fs.String("excerpt", "", "short summary")
	cover := fs.String("cover", "", "cover image URL or data URL")
	category := fs.String("category", "", "category name")
	publish := fs.Bool("publish", false, "publish the post")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		ed  *admin.Editor
		err error
	)
	if id == "" {
		ed = admin.NewEditor(a.store, a.session)
	} else if ed, err = admin.OpenEditor(ctx, a.store, a.session, id); err != nil {
		return err
	}

	published := ed.Draft().Published
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			ed.SetTitle(*title)
		case "content":
			ed.SetContent(*content)
		case "excerpt":
			ed.SetExcerpt(*excerpt)
		case "cover":
			ed.SetCoverImage(*cover)
		case "category":
			ed.SetCategory(*category)
		case "publish":
			published = *publish
		}
	})

	p, err := ed.Save(ctx, published)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s (%s)\n", p.ID, p.Status())
	return nil
}

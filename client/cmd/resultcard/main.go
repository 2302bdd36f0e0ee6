// Command resultcard is the command-line client for resultcard-server.
//
//	resultcard [-server URL] [-v] users list
//	resultcard users create -name NAME -email EMAIL -age AGE
//	resultcard users update -id ID [-name NAME] [-email EMAIL] [-age AGE]
//	resultcard users delete -id ID
//	resultcard calc -f sheet.yaml [-pdf result_card.pdf]
//	resultcard results list
//
// The server URL defaults to $RESULTCARD_SERVER, then http://localhost:3000.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/resultcard/resultcard/client/internal/apiclient"
	"github.com/resultcard/resultcard/client/internal/sheet"
	"github.com/resultcard/resultcard/pkg/gpa"
)

const defaultServer = "http://localhost:3000"

// errUsage marks errors already explained by a usage message.
var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("resultcard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("RESULTCARD_SERVER", defaultServer), "resultcard server base URL")
	verbose := fs.Bool("v", false, "log every request to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: resultcard [-server URL] [-v] <users|calc|results> ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	c := &cli{api: apiclient.New(*server), out: stdout, errOut: stderr}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	var err error
	switch cmd := rest[0]; {
	case cmd == "users" && len(rest) > 1:
		err = c.users(ctx, rest[1], rest[2:])
	case cmd == "results" && len(rest) > 1 && rest[1] == "list":
		err = c.listResults(ctx)
	case cmd == "calc":
		err = c.calc(ctx, rest[1:])
	default:
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, apiclient.ErrNotFound):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	default:
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) || isNetwork(err) {
			fmt.Fprintf(stderr, "error: operation failed: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
}

type cli struct {
	api    *apiclient.Client
	out    io.Writer
	errOut io.Writer
}

// --- users ------------------------------------------------------------------

func (c *cli) users(ctx context.Context, sub string, args []string) error {
	switch sub {
	case "list":
		return c.listUsers(ctx)
	case "create":
		return c.createUser(ctx, args)
	case "update":
		return c.updateUser(ctx, args)
	case "delete":
		return c.deleteUser(ctx, args)
	default:
		fmt.Fprintf(c.errOut, "unknown users command %q: want list|create|update|delete\n", sub)
		return errUsage
	}
}

func (c *cli) listUsers(ctx context.Context) error {
	users, err := c.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tAGE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Email, u.Age)
	}
	return tw.Flush()
}

func (c *cli) createUser(ctx context.Context, args []string) error {
	fs := c.flagSet("users create")
	name := fs.String("name", "", "user name (required)")
	email := fs.String("email", "", "email address (required)")
	age := fs.Int("age", -1, "age in years (required)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *name == "" || *email == "" || *age < 0 {
		fmt.Fprintln(c.errOut, "users create: -name, -email and a non-negative -age are required")
		return errUsage
	}

	u, err := c.api.CreateUser(ctx, apiclient.NewUser{Name: *name, Email: *email, Age: *age})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created user %s\n", u.ID)
	return nil
}

func (c *cli) updateUser(ctx context.Context, args []string) error {
	fs := c.flagSet("users update")
	id := fs.String("id", "", "user id (required)")
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email address")
	age := fs.Int("age", 0, "new age")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		fmt.Fprintln(c.errOut, "users update: -id is required")
		return errUsage
	}

	// Only flags given on the command line are sent.
	var p apiclient.UserPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			p.Name = name
		case "email":
			p.Email = email
		case "age":
			p.Age = age
		}
	})
	if p.Name == nil && p.Email == nil && p.Age == nil {
		fmt.Fprintln(c.errOut, "users update: nothing to change; pass -name, -email or -age")
		return errUsage
	}

	u, err := c.api.UpdateUser(ctx, *id, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated user %s: %s <%s>, %d\n", u.ID, u.Name, u.Email, u.Age)
	return nil
}

func (c *cli) deleteUser(ctx context.Context, args []string) error {
	fs := c.flagSet("users delete")
	id := fs.String("id", "", "user id (required)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		fmt.Fprintln(c.errOut, "users delete: -id is required")
		return errUsage
	}

	msg, err := c.api.DeleteUser(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

// --- results ----------------------------------------------------------------

func (c *cli) listResults(ctx context.Context) error {
	results, err := c.api.ListResults(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTUDENT\tSEMESTER\tSUBJECTS\tSGPA")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.StudentName, r.Semester, r.TotalSubjects, r.CGPA)
	}
	return tw.Flush()
}

// calc validates and computes a sheet locally, then stores it on the server.
// Input errors are reported before any request is made.
func (c *cli) calc(ctx context.Context, args []string) error {
	fs := c.flagSet("calc")
	file := fs.String("f", "", "result sheet YAML file (required)")
	pdfPath := fs.String("pdf", "", "also download the result card PDF to this path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" {
		fmt.Fprintln(c.errOut, "calc: -f is required")
		return errUsage
	}

	s, err := sheet.Load(*file)
	if err != nil {
		return err
	}
	sum, err := s.Compute()
	if err != nil {
		return fmt.Errorf("invalid sheet: %w", err)
	}
	fmt.Fprintf(c.out, "SGPA: %.2f (%g credit hours)\n", sum.Average, sum.TotalCredits)

	res, err := c.api.CreateResult(ctx, apiclient.NewResult{
		StudentName:    s.StudentName,
		UniversityName: s.UniversityName,
		DepartmentName: s.DepartmentName,
		Semester:       s.Semester,
		Subjects:       s.Subjects,
		SGPA:           gpa.Number(sum.Average),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved result %s\n", res.ID)

	if *pdfPath == "" {
		return nil
	}
	f, err := os.Create(*pdfPath)
	if err != nil {
		return err
	}
	if _, err := c.api.DownloadPDF(ctx, res.ID, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", *pdfPath)
	return nil
}

// --- helpers ----------------------------------------------------------------

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// isNetwork reports whether err came from the transport rather than the
// server's answer.
func isNetwork(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr)
}

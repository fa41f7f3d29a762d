package empdeskcli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phillip-england/empdesk/internal/apiclient"
	"github.com/phillip-england/empdesk/internal/clientapp"
	"github.com/phillip-england/empdesk/internal/controller"
	"github.com/phillip-england/empdesk/internal/envutil"
)

var ErrUsage = errors.New("usage")

type env struct {
	in  io.Reader
	out io.Writer
}

func Execute(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return execute(ctx, args, env{in: os.Stdin, out: os.Stdout})
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: empdesk setup [--api-base-url URL] [--client-addr ADDR] [--env-file .env] [--force]")
	fmt.Fprintln(w, "       empdesk run")
	fmt.Fprintln(w, "       empdesk list | report")
	fmt.Fprintln(w, "       empdesk add --name NAME --department DEPT --joining-date DATE")
	fmt.Fprintln(w, "       empdesk delete [--yes] <id>")
	fmt.Fprintln(w, "       empdesk attend <id>")
	fmt.Fprintln(w, "       empdesk attendance <id>")
	fmt.Fprintln(w, "       empdesk import <file.xls|file.xlsx>")
	fmt.Fprintln(w, "       empdesk export <file.xlsx>")
}

func execute(ctx context.Context, args []string, e env) error {
	if len(args) < 1 {
		return usageError()
	}
	if args[0] == "setup" {
		return runSetup(args[1:], e)
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	switch args[0] {
	case "run":
		return runClient(ctx)
	case "list":
		return runList(ctx, e)
	case "report":
		return runReport(ctx, e)
	case "add":
		return runAdd(ctx, args[1:], e)
	case "delete":
		return runDelete(ctx, args[1:], e)
	case "attend":
		return runAttend(ctx, args[1:], e)
	case "attendance":
		return runAttendance(ctx, args[1:], e)
	case "import":
		return runImport(ctx, args[1:], e)
	case "export":
		return runExport(ctx, args[1:], e)
	case "help", "-h", "--help":
		PrintUsage(e.out)
		return nil
	default:
		return usageError()
	}
}

func usageError() error {
	return fmt.Errorf("%w: empdesk <setup|run|list|report|add|delete|attend|attendance|import|export> [...]", ErrUsage)
}

func runSetup(args []string, e env) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(e.out)
	apiBaseURL := fs.String("api-base-url", "http://localhost:8000", "employee backend base url")
	clientAddr := fs.String("client-addr", ":3000", "web client listen address")
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	values := map[string]string{
		"API_BASE_URL": *apiBaseURL,
		"API_TIMEOUT":  "8s",
		"CLIENT_ADDR":  *clientAddr,
	}
	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "wrote %s\n", *envPath)
	return nil
}

func runClient(ctx context.Context) error {
	cfg := clientapp.DefaultConfigFromEnv()
	if err := clientapp.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newController() *controller.Controller {
	cfg := clientapp.DefaultConfigFromEnv()
	return controller.New(apiclient.New(cfg.APIBaseURL, cfg.APITimeout), controller.Options{Now: cfg.Clock()})
}

func singleID(name string, args []string) (apiclient.ID, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: empdesk %s <id>", ErrUsage, name)
	}
	return apiclient.ID(args[0]), nil
}

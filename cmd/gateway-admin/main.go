package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/clinova/platform/config"
	"github.com/clinova/platform/internal/bootstrap"
	"github.com/clinova/platform/internal/data"
	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/domain/routes"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const migrationTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must signal command failure to shell scripts
	}
}

func commands() map[string]command {
	cmds := []command{
		{name: "migrate", description: "apply pending database migrations", run: runMigrate},
		{name: "profile", description: "print a profile row by caller ID", run: runProfile},
		{name: "role", description: "print the canonical role for a raw role string", run: runRole},
		{name: "routes", description: "print the route permission table", run: runRoutes},
	}
	out := make(map[string]command, len(cmds))
	for _, c := range cmds {
		out[c.name] = c
	}
	return out
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: gateway-admin <command> [args]")
	fmt.Fprintln(os.Stderr)
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, cmds[name].description)
	}
	w.Flush()
}

func runMigrate(ctx *commandContext, _ []string) error {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: ctx.Config.Postgres,
		Logger:   ctx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx.Ctx, migrationTimeout)
	defer cancel()
	return bootstrap.RunMigrations(migrateCtx, db, ctx.Logger)
}

func runProfile(ctx *commandContext, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gateway-admin profile <caller-id>")
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: ctx.Config.Postgres,
		Logger:   ctx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()

	profile, err := data.NewProfileRepo(db).GetByID(ctx.Ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}

func runRole(_ *commandContext, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gateway-admin role <raw-role>")
	}
	canonical := identity.Normalize(args[0])
	fmt.Printf("%s\t(tier %s)\n", canonical, identity.TierFor(canonical))
	return nil
}

func runRoutes(_ *commandContext, _ []string) error {
	table, err := routes.DefaultTable()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tALLOWED ROLES\tREDIRECT")
	for _, rule := range table.Rules {
		redirect := rule.RedirectTarget
		if redirect == "" {
			redirect = routes.UnauthorizedPath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rule.Pattern, joinRoles(rule.AllowedRoles), redirect)
	}
	return w.Flush()
}

func joinRoles(roles []identity.CanonicalRole) string {
	out := ""
	for i, role := range roles {
		if i > 0 {
			out += ","
		}
		out += string(role)
	}
	return out
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shogunhq/shogun/internal/adapter/postgres"
	"github.com/shogunhq/shogun/internal/config"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	case "migrate-status":
		return runAdminMigrateStatus(args[1:])
	case "rollback":
		return runAdminRollback(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: shogun admin <command> [options]

Commands:
  create-user      Add a user to the identity directory
  list-users       List all users
  migrate          Apply pending shared-schema migrations
  migrate-status   Print the current migration version
  rollback         Roll back the last migration(s)
  help             Show this help message

Examples:
  shogun admin create-user --email founder@acme.test --first-name Ada --last-name Obi
  shogun admin list-users
  shogun admin migrate
  shogun admin rollback --steps 1
`)
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func loadIdentityService() (*service.IdentityService, func(), error) {
	cfg, err := loadAdminConfig()
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	svc := service.NewIdentityService(postgres.NewStore(pool))
	return svc, pool.Close, nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	firstName := fs.String("first-name", "", "first name (required)")
	lastName := fs.String("last-name", "", "last name (required)")
	staff := fs.Bool("staff", false, "mark the user as staff")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	svc, cleanup, err := loadIdentityService()
	if err != nil {
		return err
	}
	defer cleanup()

	u, err := svc.Create(context.Background(), user.CreateRequest{
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
		Staff:     *staff,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, cleanup, err := loadIdentityService()
	if err != nil {
		return err
	}
	defer cleanup()

	users, err := svc.List(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tACTIVE\tSTAFF")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n",
			users[i].ID, users[i].Email, users[i].FullName(), users[i].Active, users[i].Staff)
	}
	return w.Flush()
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	if err := postgres.RunMigrations(context.Background(), cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Migrations applied.")
	return nil
}

func runAdminMigrateStatus(args []string) error {
	fs := flag.NewFlagSet("migrate-status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	version, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	fmt.Printf("Current migration version: %d\n", version)
	return nil
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return fmt.Errorf("--steps must be >= 1")
	}
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	if err := postgres.RollbackMigrations(context.Background(), cfg.Postgres.DSN, *steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s).\n", *steps)
	return nil
}

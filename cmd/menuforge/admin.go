package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/user"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "bootstrap":
		return runAdminBootstrap(args[1:])
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-admin":
		return runAdminCreateAdmin(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: menuforge admin <command> [options]

Commands:
  bootstrap       Create the platform SUPER_ADMIN
  create-tenant   Create a tenant with its first ADMIN
  create-admin    Add an ADMIN to an existing tenant
  list-users      List users, optionally for one tenant
  help            Show this help message

Examples:
  MENUFORGE_ADMIN_PASSWORD=... menuforge admin bootstrap --email ops@example.com
  menuforge admin create-tenant --name "Acme Diner" --admin-email owner@acme.test
  menuforge admin create-admin --tenant <id> --email manager@acme.test
  menuforge admin list-users --tenant <id>
`)
}

func runAdminBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	email := fs.String("email", "", "super admin email (default MENUFORGE_ADMIN_EMAIL)")
	password := fs.String("password", "", "password (default MENUFORGE_ADMIN_PASSWORD, prompted on a terminal)") //nolint:gosec // CLI flag
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{migrate: true})
	if err != nil {
		return err
	}
	defer a.Close()

	addr := *email
	if addr == "" {
		addr = a.cfg.Auth.AdminEmail
	}
	if addr == "" {
		return fmt.Errorf("--email or MENUFORGE_ADMIN_EMAIL is required")
	}
	pass := *password
	if pass == "" {
		pass = a.cfg.Auth.AdminPassword
	}
	if pass == "" {
		if pass, err = readNewPassword(); err != nil {
			return err
		}
	}

	u, err := a.prov.BootstrapSuperAdmin(ctx, addr, pass, *name)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Super admin created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant name (required)")
	plan := fs.String("plan", "", "subscription plan (default from config)")
	adminEmail := fs.String("admin-email", "", "first admin email (required)")
	adminName := fs.String("admin-name", "", "first admin display name")
	password := fs.String("password", "", "first admin password (prompted on a terminal)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *adminEmail == "" {
		return fmt.Errorf("--admin-email is required")
	}

	pass := *password
	if pass == "" {
		var err error
		if pass, err = readNewPassword(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{migrate: true})
	if err != nil {
		return err
	}
	defer a.Close()

	displayName := *adminName
	if displayName == "" {
		displayName = *adminEmail
	}
	res, err := a.prov.CreateTenant(ctx,
		tenant.CreateRequest{Name: *name, Plan: *plan},
		user.CreateRequest{Email: *adminEmail, Name: displayName, Password: pass},
	)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, admin=%s)\n", *name, res.TenantID, res.ActorID)
	return nil
}

func runAdminCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	tenantID := fs.String("tenant", "", "tenant id (required)")
	email := fs.String("email", "", "admin email (required)")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (prompted on a terminal)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenantID == "" || *email == "" {
		return fmt.Errorf("--tenant and --email are required")
	}

	pass := *password
	if pass == "" {
		var err error
		if pass, err = readNewPassword(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	displayName := *name
	if displayName == "" {
		displayName = *email
	}
	u, err := a.prov.CreateTenantAdmin(ctx, *tenantID, user.CreateRequest{Email: *email, Name: displayName, Password: pass})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Admin created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	tenantID := fs.String("tenant", "", "tenant id (empty lists every user)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.prov.ListUsers(ctx, *tenantID)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tCREATED")
	for i := range users {
		u := &users[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%s\n",
			u.ID, u.Email, u.Name, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// readNewPassword prompts twice without echo. It refuses when stdin is not
// a terminal so that scripted runs never block.
func readNewPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		return "", fmt.Errorf("password required: pass --password or run on a terminal")
	}
	pass, err := promptPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

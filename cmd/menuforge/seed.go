package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Strob0t/MenuForge/internal/domain/provision"
	"github.com/Strob0t/MenuForge/internal/seed"
)

// runSeed loads the icon catalog and provisions each description. Every
// description runs in its own transaction; one failing does not undo others.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	demo := fs.Bool("demo", false, "provision the built-in demo tenant")
	icons := fs.Bool("icons", true, "load the built-in icon catalog first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var descriptions []*provision.Description
	if *demo {
		d, err := seed.Demo()
		if err != nil {
			return fmt.Errorf("demo description: %w", err)
		}
		descriptions = append(descriptions, d)
	}
	for _, path := range fs.Args() {
		d, err := provision.LoadFromFile(path)
		if err != nil {
			return err
		}
		descriptions = append(descriptions, d)
	}
	if !*icons && len(descriptions) == 0 {
		return fmt.Errorf("nothing to seed: pass --demo or description files")
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{migrate: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if *icons {
		catalog, err := seed.Icons()
		if err != nil {
			return fmt.Errorf("icon catalog: %w", err)
		}
		n, err := a.prov.EnsureIcons(ctx, catalog)
		if err != nil {
			return fmt.Errorf("load icons: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Icon catalog: %d icons\n", n)
	}
	if len(descriptions) == 0 {
		return nil
	}

	results, err := a.prov.ProvisionAll(ctx, descriptions)
	printResults(descriptions, results)
	return err
}

func printResults(descriptions []*provision.Description, results []*provision.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TENANT\tTENANT ID\tUSERS\tMENUS\tITEMS\tPRICES\tQR\tAUDIT\tWARNINGS")
	for i, r := range results {
		if r == nil {
			_, _ = fmt.Fprintf(w, "%s\t-\tfailed\t\t\t\t\t\t\n", descriptions[i].Tenant.Name)
			continue
		}
		c := r.Counts
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			descriptions[i].Tenant.Name, r.TenantID,
			c.Users, c.Menus, c.Items, c.Prices, c.QRCodes, c.AuditLogs, len(r.Warnings))
	}
	_ = w.Flush()

	for i, r := range results {
		if r == nil {
			continue
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", descriptions[i].Tenant.Name, warn)
		}
	}
}

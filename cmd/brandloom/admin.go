package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brandloom/brandloom/internal/adapter/postgres"
	"github.com/brandloom/brandloom/internal/config"
	"github.com/brandloom/brandloom/internal/middleware"
	"github.com/brandloom/brandloom/internal/service"
)

// runAdmin dispatches admin subcommands (queue, audit, purge).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "queue":
		return runAdminQueue(args[1:])
	case "audit":
		return runAdminAudit(args[1:])
	case "purge":
		return runAdminPurge(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: brandloom admin <command> [options]

Commands:
  queue    List a brand's pending review queue with dispositions
  audit    Show a brand's decision history
  purge    Reject every item queued for a brand
  help     Show this help message

Examples:
  brandloom admin queue --brand acme-cola
  brandloom admin audit --brand acme-cola --tenant 7f3e...
  brandloom admin purge --brand acme-cola --yes
`)
}

type adminDeps struct {
	cfg       *config.Config
	store     *postgres.Store
	queues    *service.QueueService
	approvals *service.ApprovalService
}

func loadAdminDeps() (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	deps := &adminDeps{
		cfg:       cfg,
		store:     store,
		queues:    service.NewQueueService(store, nil, nil, nil, nil, cfg.Review.PassThreshold),
		approvals: service.NewApprovalService(store, nil, nil, nil, nil, cfg.Review.PassThreshold),
	}

	cleanup := func() {
		pool.Close()
	}
	return deps, cleanup, nil
}

// adminContext returns a context scoped to the given tenant, falling back
// to the single-tenant default.
func adminContext(tenant string) context.Context {
	if tenant == "" {
		tenant = middleware.DefaultTenantID
	}
	return middleware.WithTenantID(context.Background(), tenant)
}

func runAdminQueue(args []string) error {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	brand := fs.String("brand", "", "brand ID (required)")
	tenant := fs.String("tenant", "", "tenant ID (defaults to the single-tenant ID)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *brand == "" {
		return fmt.Errorf("--brand is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := deps.queues.ListQueue(adminContext(*tenant), *brand)
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tAGENT\tDISPOSITION\tCREATED_AT")
	for i := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entries[i].ID, entries[i].AgentKind, entries[i].Disposition,
			entries[i].CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runAdminAudit(args []string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	brand := fs.String("brand", "", "brand ID (required)")
	tenant := fs.String("tenant", "", "tenant ID (defaults to the single-tenant ID)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *brand == "" {
		return fmt.Errorf("--brand is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	decisions, err := deps.store.ListByBrand(adminContext(*tenant), *brand)
	if err != nil {
		return fmt.Errorf("audit trail: %w", err)
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ITEM_ID\tOUTCOME\tDISPOSITION\tREVIEWER\tDECIDED_AT")
	for i := range decisions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			decisions[i].ItemID, decisions[i].Outcome, decisions[i].Disposition,
			decisions[i].ReviewerID, decisions[i].DecidedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// purgeReviewerID marks decisions produced by the purge command in the
// audit trail.
const purgeReviewerID = "admin:purge"

func runAdminPurge(args []string) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	brand := fs.String("brand", "", "brand ID (required)")
	tenant := fs.String("tenant", "", "tenant ID (defaults to the single-tenant ID)")
	yes := fs.Bool("yes", false, "confirm rejecting every queued item")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *brand == "" {
		return fmt.Errorf("--brand is required")
	}
	if !*yes {
		return fmt.Errorf("purge rejects every queued item for %s; re-run with --yes to confirm", *brand)
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := adminContext(*tenant)
	entries, err := deps.queues.ListQueue(ctx, *brand)
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}

	// Rejecting through the approval service keeps the audit trail and
	// decision events consistent with reviewer-initiated rejections.
	rejected := 0
	for i := range entries {
		if _, err := deps.approvals.Reject(ctx, entries[i].ID, purgeReviewerID, "purged via admin CLI"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: reject %s: %v\n", entries[i].ID, err)
			continue
		}
		rejected++
	}

	fmt.Fprintf(os.Stderr, "Rejected %d of %d queued items for %s.\n", rejected, len(entries), *brand)
	return nil
}

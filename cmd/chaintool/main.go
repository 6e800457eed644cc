package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fincore-erp/fincore/internal/core/domain"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/fincore-erp/fincore/internal/repositories/database/pgsql"
	"github.com/fincore-erp/fincore/pkg/config"
	"github.com/fincore-erp/fincore/pkg/database"
)

// chaintool inspects and repairs the tamper-evidence chains from the
// command line, for use in fiscal audits and cron checks.
//
// Exit codes: 0 chain valid / operation done, 1 chain invalid, 2 error.

const usage = `Usage:
  chaintool verify   --tenant <companyID> [--type INVOICE|CREDIT_NOTE]
  chaintool backfill --tenant <companyID> --type INVOICE|CREDIT_NOTE [--dry-run] [--force]

verify checks the journal chain of the tenant, or the fiscal document
chain when --type is given. backfill links unchained documents in
chronological order; it refuses to extend a chain that fails
verification unless --force is given.
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	tenant := flags.String("tenant", "", "company ID of the chain scope")
	docType := flags.String("type", "", "document type (INVOICE or CREDIT_NOTE)")
	dryRun := flags.Bool("dry-run", false, "compute backfill assignments without persisting")
	force := flags.Bool("force", false, "backfill even when the existing chain fails verification")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if *tenant == "" {
		fmt.Fprintln(os.Stderr, "chaintool: --tenant is required")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(2)
	}

	ctx := context.Background()
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(2)
	}
	defer dbPool.Close()

	hasher := services.NewChainHasher()
	repos := pgsql.NewRepositoryProvider(dbPool, hasher)
	chainSvc := services.NewChainService(repos.EntryRepo, repos.DocumentRepo, hasher)

	switch command {
	case "verify":
		os.Exit(runVerify(ctx, chainSvc, *tenant, *docType))
	case "backfill":
		os.Exit(runBackfill(ctx, chainSvc, *tenant, *docType, *dryRun, *force))
	default:
		fmt.Fprintf(os.Stderr, "chaintool: unknown command %q\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runVerify(ctx context.Context, chainSvc portssvc.ChainSvcFacade, tenant string, docType string) int {
	var result domain.ChainVerification
	var err error

	if docType == "" {
		result, err = chainSvc.VerifyJournalChain(ctx, tenant)
	} else {
		result, err = chainSvc.VerifyDocumentChain(ctx, tenant, domain.DocumentType(docType))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chaintool: verification failed to run: %v\n", err)
		return 2
	}

	if result.Valid {
		fmt.Printf("chain valid, %d records checked\n", result.Checked)
		return 0
	}

	fmt.Printf("chain INVALID at position %d (%s): %s\n", result.FailedAt, result.Reference, result.Reason)
	if result.Detail != "" {
		fmt.Println(result.Detail)
	}
	return 1
}

func runBackfill(ctx context.Context, chainSvc portssvc.ChainSvcFacade, tenant string, docType string, dryRun bool, force bool) int {
	if docType == "" {
		fmt.Fprintln(os.Stderr, "chaintool: backfill requires --type")
		return 2
	}

	// Extending a chain whose existing links are already broken buries the
	// corruption behind fresh valid links.
	if !dryRun && !force {
		verification, err := chainSvc.VerifyDocumentChain(ctx, tenant, domain.DocumentType(docType))
		if err != nil {
			fmt.Fprintf(os.Stderr, "chaintool: pre-backfill verification failed to run: %v\n", err)
			return 2
		}
		if !verification.Valid {
			fmt.Fprintf(os.Stderr, "chaintool: existing chain is INVALID at position %d (%s): %s; use --force to backfill anyway\n",
				verification.FailedAt, verification.Reference, verification.Reason)
			return 1
		}
	}

	result, err := chainSvc.BackfillDocumentChain(ctx, tenant, domain.DocumentType(docType), dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chaintool: backfill failed: %v\n", err)
		return 2
	}

	mode := "linked"
	if result.DryRun {
		mode = "would link"
	}
	fmt.Printf("%s %d documents for tenant %s (%s)\n", mode, result.Processed, tenant, docType)
	for _, p := range result.Previews {
		fmt.Printf("  seq %d  %s  %s\n", p.ChainSequence, p.DocumentNumber, p.Hash)
	}
	return 0
}

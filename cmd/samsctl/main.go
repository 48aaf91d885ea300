// Command samsctl runs the import/purge/penalty-recalc operations that
// back cmd/api's admin endpoints, for operators who need to drive them
// from a shell or a cron entry instead of over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/config"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/importpurge"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/ports"
	"github.com/sandyland/sams-core/internal/service"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/sandyland/sams-core/internal/store/pgstore"
)

// Exit codes: 0 success (including a purge dry-run), 1 usage, configuration
// or any other failure, 2 the operation was rejected by a safety check
// (client-id mismatch, or a conflicting/concurrent import or purge).
const (
	exitOK        = 0
	exitUsage     = 1
	exitRejected  = 2
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		os.Exit(exitUsage)
	}

	docStore, closeStore := openStore(cfg)
	defer closeStore()

	var code int
	switch os.Args[1] {
	case "import":
		code = runImport(cfg, docStore, os.Args[2:])
	case "purge":
		code = runPurge(docStore, os.Args[2:])
	case "recalc-penalties":
		code = runRecalc(cfg, docStore, os.Args[2:])
	default:
		usage()
		code = exitUsage
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: samsctl <import|purge|recalc-penalties> [flags]")
}

func openStore(cfg *config.Config) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		return memstore.New(), func() {}
	}
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	return pgstore.New(pool), pool.Close
}

func runImport(cfg *config.Config, s store.Store, args []string) int {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	tenantID := fs.String("tenant", "", "tenant id (required)")
	importID := fs.String("import-id", "", "import bundle id under the file store (required)")
	userID := fs.String("user", "samsctl", "user id recorded on the audit entry")
	fs.Parse(args)

	if *tenantID == "" || *importID == "" {
		fmt.Fprintln(os.Stderr, "import requires --tenant and --import-id")
		return exitUsage
	}

	files, err := ports.NewS3ImportFileStore(context.Background(), cfg.S3)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize import bundle store")
		return exitUsage
	}

	bundle, err := importpurge.LoadBundle(context.Background(), files, *tenantID, *importID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load import bundle")
		return exitUsage
	}

	importer := importpurge.NewImporter(s, audit.New(s), jobslot.NewRegistry())
	meta, err := importer.Run(context.Background(), *tenantID, bundle, *userID)
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		if errors.Is(err, domain.ErrClientIDMismatch) || isConflict(err) {
			return exitRejected
		}
		return exitUsage
	}
	for _, step := range meta.Steps {
		log.Info().Str("step", step.Name).Str("status", string(step.Status)).
			Int("processed", step.Processed).Int("succeeded", step.Succeeded).Int("failed", step.Failed).
			Msg("import step")
	}
	return exitOK
}

func runPurge(s store.Store, args []string) int {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	tenantID := fs.String("tenant", "", "tenant id (required)")
	execute := fs.Bool("execute", false, "actually delete; default is dry-run")
	userID := fs.String("user", "samsctl", "user id recorded on the audit entry")
	var exclude stringList
	fs.Var(&exclude, "exclude", "top-level collection to skip (repeatable)")
	fs.Parse(args)

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "purge requires --tenant")
		return exitUsage
	}

	purger := importpurge.NewPurger(s, audit.New(s), jobslot.NewRegistry())
	report, err := purger.Purge(context.Background(), *tenantID, exclude, *execute, *userID)
	if err != nil {
		log.Error().Err(err).Msg("purge failed")
		if isConflict(err) {
			return exitRejected
		}
		return exitUsage
	}
	log.Info().
		Int("examined", report.DocsExamined).
		Int("deleted", report.DocsDeleted).
		Int("ghosts", report.GhostsFound).
		Bool("dryRun", report.DryRun).
		Msg("purge complete")
	return exitOK
}

func runRecalc(cfg *config.Config, s store.Store, args []string) int {
	fs := flag.NewFlagSet("recalc-penalties", flag.ExitOnError)
	tenantID := fs.String("tenant", "", "tenant id (required)")
	fs.Parse(args)

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "recalc-penalties requires --tenant")
		return exitUsage
	}

	tenantDoc, err := s.Get(context.Background(), "clients/"+*tenantID)
	if err != nil {
		log.Error().Err(err).Msg("failed to read tenant")
		return exitUsage
	}
	var tenant domain.Tenant
	if err := store.FromDoc(tenantDoc, &tenant); err != nil {
		log.Error().Err(err).Msg("failed to decode tenant")
		return exitUsage
	}

	loc := kernel.TenantZone(cfg.TenantTimezoneOffsetMinutes)
	recalc := service.NewPenaltyRecalculator(s)
	tally, err := recalc.RecalcTenant(context.Background(), *tenantID, tenant.Water, time.Now().In(loc))
	if err != nil {
		log.Error().Err(err).Msg("penalty recalculation failed")
		return exitUsage
	}
	log.Info().Interface("tally", tally).Msg("penalty recalculation complete")
	return exitOK
}

func isConflict(err error) bool {
	return apperr.KindOf(err) == apperr.Conflict || apperr.KindOf(err) == apperr.SafetyCheckFailed
}

// stringList accumulates repeated -exclude flags into a []string.
type stringList []string

func (l *stringList) String() string { return fmt.Sprint([]string(*l)) }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

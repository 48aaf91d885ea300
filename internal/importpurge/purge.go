package importpurge

import (
	"context"
	"sort"
	"strings"

	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/websocket"
)

// progressEvery is how often, in documents examined, Purge emits a
// progress event.
const progressEvery = 25

// PurgeReport tallies one purge run.
type PurgeReport struct {
	DocsExamined int
	DocsDeleted  int
	GhostsFound  int
	DryRun       bool
}

// Purger implements §4.L's recursive tenant purge.
type Purger struct {
	store     store.Store
	audit     *audit.Log
	jobs      *jobslot.Registry
	publisher websocket.EventPublisher
}

// NewPurger wires a Purger.
func NewPurger(s store.Store, auditLog *audit.Log, jobs *jobslot.Registry) *Purger {
	return &Purger{store: s, audit: auditLog, jobs: jobs, publisher: &websocket.NoOpPublisher{}}
}

// SetEventPublisher wires a WebSocket publisher for real-time progress.
func (p *Purger) SetEventPublisher(pub websocket.EventPublisher) {
	p.publisher = pub
}

// Purge recursively deletes every document under tenantID's tree, skipping
// any top-level collection named in exclude. It runs in dry-run mode
// unless execute is true, per §4.L: a --execute/--fix flag is required to
// mutate. Documents implied by a deeper path but absent from the store
// themselves are reported as ghosts; their descendants are still deleted
// (or counted, in dry-run) since there is nothing else to do with an
// orphaned subtree.
func (p *Purger) Purge(ctx context.Context, tenantID string, exclude []string, execute bool, userID string) (PurgeReport, error) {
	if !p.jobs.TryAcquire(tenantID, "purge") {
		return PurgeReport{}, apperr.New(apperr.Conflict, "an import or purge is already running for this tenant")
	}
	defer p.jobs.Release(tenantID, "purge")

	excludeSet := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excludeSet[e] = true
	}

	root := tenantRootPath(tenantID)
	descendants, err := p.store.ListDescendants(ctx, root)
	if err != nil {
		return PurgeReport{}, apperr.Wrap(apperr.StoreTimeout, err, "list tenant tree")
	}

	realDocs := make(map[string]bool, len(descendants))
	for _, path := range descendants {
		realDocs[path] = true
	}

	allPaths := impliedDocPaths(descendants, root, excludeSet)
	// Deepest first, so a child is deleted before any ghost ancestor
	// is merely reported.
	sort.Slice(allPaths, func(i, j int) bool {
		return strings.Count(allPaths[i], "/") > strings.Count(allPaths[j], "/")
	})

	var report PurgeReport
	report.DryRun = !execute
	for _, path := range allPaths {
		report.DocsExamined++
		if !realDocs[path] {
			report.GhostsFound++
		} else {
			if execute {
				if err := p.store.Delete(ctx, path); err != nil {
					return report, apperr.Wrap(apperr.StoreTimeout, err, "delete document")
				}
				report.DocsDeleted++
			}
		}
		if report.DocsExamined%progressEvery == 0 {
			p.publisher.Publish(tenantID, websocket.PurgeProgress(map[string]interface{}{
				"examined": report.DocsExamined, "deleted": report.DocsDeleted, "ghosts": report.GhostsFound, "dryRun": report.DryRun,
			}))
		}
	}

	if execute {
		if err := p.store.Delete(ctx, root); err != nil {
			return report, apperr.Wrap(apperr.StoreTimeout, err, "delete tenant root")
		}
	}

	if err := p.audit.RecordFatal(ctx, audit.Entry{
		TenantID: tenantID, Module: "purge", Action: "complete",
		ParentPath: root, UserID: userID,
		Metadata: map[string]interface{}{
			"examined": report.DocsExamined, "deleted": report.DocsDeleted,
			"ghosts": report.GhostsFound, "dryRun": report.DryRun,
		},
	}); err != nil {
		return report, err
	}
	p.publisher.Publish(tenantID, websocket.PurgeComplete(map[string]interface{}{
		"examined": report.DocsExamined, "deleted": report.DocsDeleted, "ghosts": report.GhostsFound, "dryRun": report.DryRun,
	}))
	return report, nil
}

// impliedDocPaths expands every real descendant path into the full set of
// document paths it implies: every even-length path segment prefix below
// root is itself a document path, whether or not it has its own stored
// fields. Filters out any path whose first segment under root is excluded.
func impliedDocPaths(descendants []string, root string, exclude map[string]bool) []string {
	rootSegs := segmentsOf(root)
	seen := make(map[string]bool)
	var out []string

	for _, path := range descendants {
		segs := segmentsOf(path)
		if len(segs) <= len(rootSegs) {
			continue
		}
		firstUnderRoot := segs[len(rootSegs)]
		if exclude[firstUnderRoot] {
			continue
		}
		// Document paths are collection/doc pairs: every prefix ending on
		// an even offset past root names one.
		for end := len(rootSegs) + 2; end <= len(segs); end += 2 {
			candidate := strings.Join(segs[:end], "/")
			if !seen[candidate] {
				seen[candidate] = true
				out = append(out, candidate)
			}
		}
	}
	return out
}

func segmentsOf(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

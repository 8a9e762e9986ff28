package workspace

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/JulieCB/tvb-root/internal/logging"
)

// Issue kinds reported by Check.
const (
	IssueIntegrity        = "index_integrity"
	IssueMissingContainer = "missing_container"
	IssueUnreadable       = "unreadable_container"
	IssueShapeMismatch    = "shape_mismatch"
	IssueOrphanContainer  = "orphan_container"
	IssueStaleStaging     = "stale_staging"
)

// Issue is one inconsistency between the index and the containers.
type Issue struct {
	Kind   string `json:"kind"`
	GID    string `json:"gid,omitempty"`
	Path   string `json:"path,omitempty"`
	Detail string `json:"detail"`
}

// Check compares every index row with its container and looks for files
// no row refers to.
func (w *Workspace) Check(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	if err := w.Store.ValidateIntegrity(ctx); err != nil {
		issues = append(issues, Issue{Kind: IssueIntegrity, Detail: err.Error()})
	}

	rows, err := w.Store.ListTimeSeries(ctx, "")
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]bool, len(rows))
	for _, row := range rows {
		indexed[row.GID] = true
		if !w.Storage.Exists(row.GID) {
			issues = append(issues, Issue{
				Kind: IssueMissingContainer, GID: row.GID, Path: w.Storage.Path(row.GID),
				Detail: "index row has no container file",
			})
			continue
		}
		shape, err := w.containerShape(row.GID)
		if err != nil {
			issues = append(issues, Issue{Kind: IssueUnreadable, GID: row.GID, Path: w.Storage.Path(row.GID), Detail: err.Error()})
			continue
		}
		if want := row.Shape(); !slices.Equal(shape, want) {
			issues = append(issues, Issue{
				Kind: IssueShapeMismatch, GID: row.GID, Path: w.Storage.Path(row.GID),
				Detail: fmt.Sprintf("container data has shape %v, index says %v", shape, want),
			})
		}
	}

	gids, err := w.Storage.List()
	if err != nil {
		return nil, err
	}
	for _, gid := range gids {
		if !indexed[gid] {
			issues = append(issues, Issue{
				Kind: IssueOrphanContainer, GID: gid, Path: w.Storage.Path(gid),
				Detail: "container file has no index row",
			})
		}
	}

	stale, err := w.Storage.Stale()
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		issues = append(issues, Issue{Kind: IssueStaleStaging, Path: path, Detail: "left behind by an interrupted import"})
	}

	return issues, nil
}

// Repair deletes orphan containers and stale staging files. Other issues
// need a human and are returned unchanged.
func (w *Workspace) Repair(issues []Issue) (remaining []Issue, err error) {
	for _, is := range issues {
		switch is.Kind {
		case IssueOrphanContainer:
			if rmErr := w.Storage.Remove(is.GID); rmErr != nil {
				return nil, fmt.Errorf("removing orphan container %s: %w", is.GID, rmErr)
			}
			w.Logger.Info("removed orphan container", logging.GID(is.GID))
		case IssueStaleStaging:
			if rmErr := os.Remove(is.Path); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, fmt.Errorf("removing staging file: %w", rmErr)
			}
			w.Logger.Info("removed stale staging file", logging.File(is.Path))
		default:
			remaining = append(remaining, is)
		}
	}
	return remaining, nil
}

func (w *Workspace) containerShape(gid string) ([]int, error) {
	c, err := w.Storage.Open(gid)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Shape()
}

package history

import (
	"context"
	"fmt"
	"time"
)

// RetentionPolicy controls build cleanup.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
}

// PruneBuilds deletes build records falling outside the retention policy,
// together with the timeline of sessions that no longer have any build. A
// zero policy keeps everything.
func (s *Store) PruneBuilds(ctx context.Context, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT build_id, session_id, created_at FROM builds ORDER BY created_at DESC, build_id DESC`)
	if err != nil {
		return PruneResult{}, fmt.Errorf("list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type buildRow struct {
		id        string
		sessionID string
		createdAt time.Time
		parseErr  error
	}
	var builds []buildRow
	for rows.Next() {
		var id, sessionID, createdAt string
		if err := rows.Scan(&id, &sessionID, &createdAt); err != nil {
			return PruneResult{}, fmt.Errorf("scan build: %w", err)
		}
		parsed, parseErr := time.Parse(time.RFC3339, createdAt)
		builds = append(builds, buildRow{id: id, sessionID: sessionID, createdAt: parsed, parseErr: parseErr})
	}
	if err := rows.Err(); err != nil {
		return PruneResult{}, fmt.Errorf("iterate builds: %w", err)
	}

	res := PruneResult{Considered: len(builds)}
	for idx, row := range builds {
		keep := false
		if policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 {
			if row.parseErr != nil {
				keep = true
			} else if row.createdAt.After(cutoff) {
				keep = true
			}
		}
		if keep {
			res.Kept++
			continue
		}
		if dryRun {
			res.Deleted++
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM builds WHERE build_id=?`, row.id); err != nil {
			return res, fmt.Errorf("delete build %s: %w", row.id, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM session_events WHERE session_id=? AND NOT EXISTS (SELECT 1 FROM builds WHERE session_id=?)`,
			row.sessionID, row.sessionID); err != nil {
			return res, fmt.Errorf("delete session events %s: %w", row.sessionID, err)
		}
		res.Deleted++
	}
	return res, nil
}

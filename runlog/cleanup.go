package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RetentionConfig specifies run retention in days. Zero disables cleanup.
type RetentionConfig struct {
	RunsDays       int
	RunVacuumAfter bool
}

// Cleanup deletes runs older than the retention threshold; their documents
// cascade through the foreign key. Table and column names are fixed in code,
// never taken from input.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	if cfg.RunsDays > 0 {
		cutoff := time.Now().Unix() - int64(cfg.RunsDays)*86400
		if _, err := db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff); err != nil {
			return fmt.Errorf("runlog: cleanup runs: %w", err)
		}
	}

	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("runlog: vacuum: %w", err)
		}
	}
	return nil
}

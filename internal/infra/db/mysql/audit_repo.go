package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save inserts one audit row. IDs are unique per analysis so there is nothing to update.
// Provider-supplied strings are cut to their column width so strict mode accepts the row.
func (r *AuditRepository) Save(ctx context.Context, e *proposal.AuditEntry) error {
	const q = `
INSERT INTO proposal_analysis_audit
  (id, proposal_type, title_digest, outcome, reason_code, provider, model, risk_level, duration_ms, raw_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?);
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(e.ID),
		truncate(stringOrDash(e.ProposalType), proposalTypeWidth),
		e.TitleDigest,
		string(e.Outcome),
		nullString(e.ReasonCode),
		truncate(stringOrDash(e.Provider), providerWidth),
		truncate(stringOrDash(e.Model), modelWidth),
		truncate(stringOrDash(e.RiskLevel), riskLevelWidth),
		e.DurationMS,
		nullString(e.RawURL),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Latest returns the most recent entries, newest first.
func (r *AuditRepository) Latest(ctx context.Context, limit int) ([]*proposal.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, proposal_type, title_digest, outcome, reason_code, provider, model, risk_level, duration_ms, raw_url, created_at
FROM proposal_analysis_audit
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []*proposal.AuditEntry
	for rows.Next() {
		var (
			e              proposal.AuditEntry
			id, outcome    string
			reason, rawURL sql.NullString
		)
		if err := rows.Scan(&id, &e.ProposalType, &e.TitleDigest, &outcome, &reason,
			&e.Provider, &e.Model, &e.RiskLevel, &e.DurationMS, &rawURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = proposal.AnalysisID(id)
		e.Outcome = proposal.Outcome(outcome)
		e.ReasonCode = reason.String
		e.RawURL = rawURL.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

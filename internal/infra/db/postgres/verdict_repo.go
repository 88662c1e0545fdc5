package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	domain "clipscan/internal/domain/analysis"
	"clipscan/internal/domain/codes"
)

// Connect opens a Postgres pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// VerdictRepository is the Postgres variant of the verdict sink.
type VerdictRepository struct {
	db *sql.DB
}

func NewVerdictRepository(db *sql.DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

func (r *VerdictRepository) Save(ctx context.Context, v *domain.Verdict) error {
	const q = `
INSERT INTO video_verdicts
(id, channel_id, video_id, processed_at, duration_ms, action, confidence,
 detections_total, detections_json, events_json, findings_json, report_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 action=EXCLUDED.action, confidence=EXCLUDED.confidence,
 detections_total=EXCLUDED.detections_total,
 detections_json=EXCLUDED.detections_json, events_json=EXCLUDED.events_json,
 findings_json=EXCLUDED.findings_json, report_url=EXCLUDED.report_url;
`
	processed := v.ProcessedAt
	if processed.IsZero() {
		processed = time.Now()
	}
	detections, err := json.Marshal(v.Detections)
	if err != nil {
		return err
	}
	events, err := json.Marshal(v.Events)
	if err != nil {
		return err
	}
	findings, err := json.Marshal(v.Findings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		v.ID, v.ChannelID, v.VideoID, processed, v.DurationMS, string(v.Action), v.Confidence,
		len(v.Detections), detections, events, findings, v.ReportURL,
	)
	return err
}

func (r *VerdictRepository) Get(ctx context.Context, channel string, id string) (*domain.Verdict, error) {
	const q = `
SELECT id, channel_id, video_id, processed_at, duration_ms, action, confidence,
       detections_json, events_json, findings_json, report_url
FROM video_verdicts
WHERE channel_id=$1 AND id=$2 LIMIT 1;
`
	return scanVerdict(r.db.QueryRowContext(ctx, q, channel, id))
}

func (r *VerdictRepository) Latest(ctx context.Context, channel string, limit int) ([]*domain.Verdict, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, channel_id, video_id, processed_at, duration_ms, action, confidence,
       detections_json, events_json, findings_json, report_url
FROM video_verdicts
WHERE channel_id=$1 ORDER BY processed_at DESC LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, channel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Verdict
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VerdictRepository) Summary(ctx context.Context, channel string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(CASE WHEN action='investigate' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(CASE WHEN action='monitor' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(CASE WHEN action='ignore' THEN 1 ELSE 0 END),0)
FROM video_verdicts
WHERE channel_id=$1 AND processed_at >= $2;
`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, channel, cut).Scan(&s.Total, &s.Investigate, &s.Monitor, &s.Ignore); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerdict(row rowScanner) (*domain.Verdict, error) {
	var v domain.Verdict
	var action string
	var detections, events, findings []byte
	if err := row.Scan(
		&v.ID, &v.ChannelID, &v.VideoID, &v.ProcessedAt, &v.DurationMS, &action, &v.Confidence,
		&detections, &events, &findings, &v.ReportURL,
	); err != nil {
		return nil, err
	}
	v.Action = domain.Action(action)
	if len(detections) > 0 {
		if err := json.Unmarshal(detections, &v.Detections); err != nil {
			return nil, err
		}
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &v.Events); err != nil {
			return nil, err
		}
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &v.Findings); err != nil {
			return nil, err
		}
	}
	if v.Detections == nil {
		v.Detections = []codes.Detection{}
	}
	return &v, nil
}

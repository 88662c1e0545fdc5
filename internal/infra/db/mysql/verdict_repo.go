package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "clipscan/internal/domain/analysis"
	"clipscan/internal/domain/codes"
)

type VerdictRepository struct {
	db *sql.DB
}

func NewVerdictRepository(db *sql.DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

// Save insert/update verdict record
func (r *VerdictRepository) Save(ctx context.Context, v *domain.Verdict) error {
	const q = `
INSERT INTO video_verdicts
(id, channel_id, video_id, processed_at, duration_ms, action, confidence,
 detections_total, detections_json, events_json, findings_json, report_url)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 action=VALUES(action), confidence=VALUES(confidence),
 detections_total=VALUES(detections_total),
 detections_json=VALUES(detections_json), events_json=VALUES(events_json),
 findings_json=VALUES(findings_json), report_url=VALUES(report_url);
`
	channel := stringOrDash(v.ChannelID)
	action := stringOrDash(string(v.Action))
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
		v.ID, channel, v.VideoID, processed, v.DurationMS, action, v.Confidence,
		len(v.Detections), detections, events, findings, v.ReportURL,
	)
	return err
}

// Get by ID + channel
func (r *VerdictRepository) Get(ctx context.Context, channel string, id string) (*domain.Verdict, error) {
	const q = `
SELECT id, channel_id, video_id, processed_at, duration_ms, action, confidence,
       detections_json, events_json, findings_json, report_url
FROM video_verdicts
WHERE channel_id=? AND id=? LIMIT 1;
`
	return scanVerdict(r.db.QueryRowContext(ctx, q, channel, id))
}

// Latest verdicts per channel
func (r *VerdictRepository) Latest(ctx context.Context, channel string, limit int) ([]*domain.Verdict, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, channel_id, video_id, processed_at, duration_ms, action, confidence,
       detections_json, events_json, findings_json, report_url
FROM video_verdicts
WHERE channel_id=? ORDER BY processed_at DESC LIMIT ?;
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

// Summary tallies actions for verdicts since N days
func (r *VerdictRepository) Summary(ctx context.Context, channel string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(action='investigate'),0) AS investigate,
       COALESCE(SUM(action='monitor'),0)     AS monitor,
       COALESCE(SUM(action='ignore'),0)      AS ignored
FROM video_verdicts
WHERE channel_id=? AND processed_at >= ?;
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

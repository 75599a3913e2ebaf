package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/costing-forecast/internal/costing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// timeLayout is fixed width so generated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SaveReport writes a snapshot and its statement records in one transaction
// and returns the report identifier. A snapshot without an ID gets a new one.
func (s *Store) SaveReport(ctx context.Context, snapshot Snapshot) (string, error) {
	if len(snapshot.NonFinite) > 0 {
		return "", fmt.Errorf("%w: %s", ErrNonFiniteAmount, strings.Join(snapshot.NonFinite, ", "))
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.GeneratedAt.IsZero() {
		snapshot.GeneratedAt = time.Now().UTC()
	}
	generatedAt := snapshot.GeneratedAt.UTC().Format(timeLayout)

	params := []byte("{}")
	if snapshot.Params != nil {
		var err error
		params, err = json.Marshal(snapshot.Params)
		if err != nil {
			return "", fmt.Errorf("encode parameters: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO reports (id, name, generated_at, params) VALUES (?, ?, ?, ?)`),
		snapshot.ID, snapshot.Name, generatedAt, string(params),
	); err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	records := []struct {
		table   string
		columns []string
		values  Values
	}{
		{tableTraditional, traditionalColumns, snapshot.Traditional},
		{tableVariable, variableColumns, snapshot.Variable},
		{tableBreakEven, breakEvenColumns, snapshot.BreakEven},
	}
	for _, rec := range records {
		if rec.values == nil {
			s.logger.Debug("skipping statement record without values",
				zap.String("op", "store.SaveReport"),
				zap.String("report", snapshot.ID),
				zap.String("table", rec.table),
			)
			continue
		}
		if err := s.insertRecord(ctx, tx, rec.table, rec.columns, snapshot.ID, generatedAt, rec.values); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report: %w", err)
	}
	return snapshot.ID, nil
}

func (s *Store) insertRecord(ctx context.Context, tx *sql.Tx, table string, columns []string, id, generatedAt string, values Values) error {
	args := make([]any, 0, len(columns)+2)
	args = append(args, id, generatedAt)
	for _, column := range columns {
		// Missing lines are stored as zero so every column is filled.
		args = append(args, values[column].String())
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (report_id, generated_at, %s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)

	if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return fmt.Errorf("insert %s record: %w", table, err)
	}
	return nil
}

// ListReports returns every stored report, newest first.
func (s *Store) ListReports(ctx context.Context) ([]ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.generated_at, t.report_id IS NOT NULL
		FROM reports r
		LEFT JOIN traditional_statements t ON t.report_id = r.id
		ORDER BY r.generated_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []ReportSummary{}
	for rows.Next() {
		var (
			summary     ReportSummary
			generatedAt string
		)
		if err := rows.Scan(&summary.ID, &summary.Name, &generatedAt, &summary.HasTraditional); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if summary.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
			return nil, fmt.Errorf("parse report %s timestamp: %w", summary.ID, err)
		}
		reports = append(reports, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// GetReport loads one report and its statement records.
func (s *Store) GetReport(ctx context.Context, id string) (*Snapshot, error) {
	var (
		snapshot    = Snapshot{ID: id}
		generatedAt string
		params      string
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT name, generated_at, params FROM reports WHERE id = ?`), id,
	).Scan(&snapshot.Name, &generatedAt, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", id, err)
	}
	if snapshot.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
		return nil, fmt.Errorf("parse report %s timestamp: %w", id, err)
	}

	var decoded costing.OperatingParameters
	if err := json.Unmarshal([]byte(params), &decoded); err != nil {
		return nil, fmt.Errorf("decode report %s parameters: %w", id, err)
	}
	snapshot.Params = &decoded

	if snapshot.Traditional, err = s.readRecord(ctx, tableTraditional, traditionalColumns, id); err != nil {
		return nil, err
	}
	if snapshot.Variable, err = s.readRecord(ctx, tableVariable, variableColumns, id); err != nil {
		return nil, err
	}
	if snapshot.BreakEven, err = s.readRecord(ctx, tableBreakEven, breakEvenColumns, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// readRecord returns nil values when the report has no row in table.
func (s *Store) readRecord(ctx context.Context, table string, columns []string, id string) (Values, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE report_id = ?", strings.Join(columns, ", "), table)

	amounts := make([]decimal.Decimal, len(columns))
	dest := make([]any, len(columns))
	for i := range amounts {
		dest[i] = &amounts[i]
	}

	err := s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s record for %s: %w", table, id, err)
	}

	values := make(Values, len(columns))
	for i, column := range columns {
		values[column] = amounts[i]
	}
	return values, nil
}

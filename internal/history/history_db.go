package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/reqflow/internal/migrations"
	"github.com/studiowebux/reqflow/internal/types"
)

// MemoryDB opens a database that lives only as long as the Manager
const MemoryDB = ":memory:"

// Manager stores request records in SQLite. It satisfies
// template.Repository.
type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	if dbPath != MemoryDB {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// Add stores a record. Records are immutable; adding the same id twice fails.
func (m *Manager) Add(ctx context.Context, record *types.RequestRecord) error {
	req := record.Request
	if req == nil {
		return fmt.Errorf("record %s has no request", record.ID)
	}

	headersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	var (
		statusCode      sql.NullInt64
		responseHeaders sql.NullString
		responseBody    sql.NullString
		errorMsg        sql.NullString
	)
	if record.Response != nil {
		data, err := json.Marshal(record.Response.Headers)
		if err != nil {
			return fmt.Errorf("failed to marshal response headers: %w", err)
		}
		statusCode = sql.NullInt64{Int64: int64(record.Response.StatusCode), Valid: true}
		responseHeaders = sql.NullString{String: string(data), Valid: true}
		responseBody = sql.NullString{String: record.Response.Body, Valid: true}
	}
	if record.Err != nil {
		errorMsg = sql.NullString{String: record.Err.Error(), Valid: true}
	}

	var body sql.NullString
	if req.Body != nil {
		body = sql.NullString{String: *req.Body, Valid: true}
	}

	query := `
		INSERT INTO requests (
			id, recipe_id, method, url, request_headers, request_body,
			status_code, response_headers, response_body, error,
			start_time, end_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = m.db.ExecContext(ctx, query,
		record.ID.String(),
		string(req.RecipeID),
		req.Method,
		req.URL,
		string(headersJSON),
		body,
		statusCode,
		responseHeaders,
		responseBody,
		errorMsg,
		record.StartTime.UnixNano(),
		record.EndTime.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save request record: %w", err)
	}

	return nil
}

// GetLast returns the most recent record for a recipe, or nil if there is none
func (m *Manager) GetLast(ctx context.Context, recipeID types.RecipeID) (*types.RequestRecord, error) {
	records, err := m.Load(ctx, recipeID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Load returns up to limit records for a recipe, newest first. A limit of
// zero or less returns every record.
func (m *Manager) Load(ctx context.Context, recipeID types.RecipeID, limit int) ([]*types.RequestRecord, error) {
	query := `
		SELECT id, recipe_id, method, url, request_headers, request_body,
		       status_code, response_headers, response_body, error,
		       start_time, end_time
		FROM requests
		WHERE recipe_id = ?
		ORDER BY start_time DESC, rowid DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := m.db.QueryContext(ctx, query, string(recipeID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*types.RequestRecord, error) {
	var records []*types.RequestRecord

	for rows.Next() {
		var (
			id              string
			recipeID        string
			method          string
			url             string
			headersJSON     string
			body            sql.NullString
			statusCode      sql.NullInt64
			responseHeaders sql.NullString
			responseBody    sql.NullString
			errorMsg        sql.NullString
			startNanos      int64
			endNanos        int64
		)

		err := rows.Scan(
			&id,
			&recipeID,
			&method,
			&url,
			&headersJSON,
			&body,
			&statusCode,
			&responseHeaders,
			&responseBody,
			&errorMsg,
			&startNanos,
			&endNanos,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request record: %w", err)
		}

		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q: %w", id, err)
		}

		var headers http.Header
		if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
			return nil, fmt.Errorf("invalid request headers for record %s: %w", id, err)
		}

		var reqBody *string
		if body.Valid {
			reqBody = &body.String
		}

		outcome := types.Outcome{
			StartTime: time.Unix(0, startNanos),
			EndTime:   time.Unix(0, endNanos),
		}
		if errorMsg.Valid {
			outcome.Err = errors.New(errorMsg.String)
		} else if statusCode.Valid {
			var respHeaders http.Header
			if err := json.Unmarshal([]byte(responseHeaders.String), &respHeaders); err != nil {
				return nil, fmt.Errorf("invalid response headers for record %s: %w", id, err)
			}
			outcome.Response = &types.Response{
				StatusCode: int(statusCode.Int64),
				Headers:    respHeaders,
				Body:       responseBody.String,
			}
		}

		req := types.NewRequest(types.RecipeID(recipeID), method, url, headers, reqBody)
		req.ID = parsedID
		req.Result().Fill(outcome)
		record, _ := req.Record()

		records = append(records, record)
	}

	return records, rows.Err()
}

// Count returns the number of stored records
func (m *Manager) Count(ctx context.Context) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}

// Clear deletes every record
func (m *Manager) Clear(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM requests")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

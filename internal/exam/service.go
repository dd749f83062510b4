package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mcqstudio/internal/mcq"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExamNotFound = errors.New("exam not found")
)

// Service stores working exam documents: the pasted source text, the
// current row model (locks and key marks included) and the output
// settings. The engine itself is stateless; this is the only state the
// backend keeps.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Record struct {
	ID         string           `json:"id"`
	OwnerID    int64            `json:"owner_id"`
	Title      string           `json:"title"`
	SourceText string           `json:"source_text"`
	Rows       []mcq.Row        `json:"rows"`
	Settings   mcq.OutputConfig `json:"settings"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Questions int       `json:"questions"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SaveInput struct {
	OwnerID    int64
	Title      string
	SourceText string
	Rows       []mcq.Row
	Settings   mcq.OutputConfig
}

type UpdateInput struct {
	ID string
	SaveInput
}

func (s *Service) Create(ctx context.Context, in SaveInput) (*Record, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	rowsJSON, settingsJSON, err := encodeDocument(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exams (id, owner_id, title, source_text, rows_json, settings_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, in.OwnerID, title, in.SourceText, rowsJSON, settingsJSON, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert exam: %w", err)
	}

	return &Record{
		ID:         id,
		OwnerID:    in.OwnerID,
		Title:      title,
		SourceText: in.SourceText,
		Rows:       in.Rows,
		Settings:   in.Settings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string, ownerID int64) (*Record, error) {
	var (
		rec                     Record
		rowsJSON, settingsJSON  string
		createdUnix, updateUnix int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, source_text, rows_json, settings_json, created_at, updated_at
		FROM exams
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.SourceText, &rowsJSON, &settingsJSON, &createdUnix, &updateUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query exam: %w", err)
	}

	if err := json.Unmarshal([]byte(rowsJSON), &rec.Rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &rec.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	rec.CreatedAt = time.Unix(createdUnix, 0)
	rec.UpdatedAt = time.Unix(updateUnix, 0)
	return &rec, nil
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, rows_json, updated_at
		FROM exams
		WHERE owner_id = $1
		ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			item        Summary
			rowsJSON    string
			updatedUnix int64
		)
		if err := rows.Scan(&item.ID, &item.Title, &rowsJSON, &updatedUnix); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		item.Questions = countQuestions(rowsJSON)
		item.UpdatedAt = time.Unix(updatedUnix, 0)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (*Record, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	rowsJSON, settingsJSON, err := encodeDocument(in.SaveInput)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE exams
		SET title = $1, source_text = $2, rows_json = $3, settings_json = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7`,
		title, in.SourceText, rowsJSON, settingsJSON, now.Unix(), in.ID, in.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrExamNotFound
	}

	return s.Get(ctx, in.ID, in.OwnerID)
}

func (s *Service) Delete(ctx context.Context, id string, ownerID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExamNotFound
	}
	return nil
}

func encodeDocument(in SaveInput) (rowsJSON, settingsJSON string, err error) {
	rows := in.Rows
	if rows == nil {
		rows = []mcq.Row{}
	}
	rb, err := json.Marshal(rows)
	if err != nil {
		return "", "", fmt.Errorf("encode rows: %w", err)
	}
	sb, err := json.Marshal(in.Settings)
	if err != nil {
		return "", "", fmt.Errorf("encode settings: %w", err)
	}
	return string(rb), string(sb), nil
}

func countQuestions(rowsJSON string) int {
	var rows []mcq.Row
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return 0
	}
	n := 0
	for _, r := range rows {
		if r.Kind == mcq.KindQuestion {
			n++
		}
	}
	return n
}

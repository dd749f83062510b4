package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mcqstudio/internal/auth"
	"mcqstudio/internal/mcq"

	"github.com/go-chi/chi/v5"
)

type mockExamService struct {
	createFn      func(ctx context.Context, in SaveInput) (*Record, error)
	getFn         func(ctx context.Context, id string, ownerID int64) (*Record, error)
	listFn        func(ctx context.Context, ownerID int64) ([]Summary, error)
	updateFn      func(ctx context.Context, in UpdateInput) (*Record, error)
	deleteFn      func(ctx context.Context, id string, ownerID int64) error
	exportExcelFn func(ctx context.Context, id string, ownerID int64) ([]byte, error)
}

func (m *mockExamService) Create(ctx context.Context, in SaveInput) (*Record, error) {
	if m.createFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFn(ctx, in)
}

func (m *mockExamService) Get(ctx context.Context, id string, ownerID int64) (*Record, error) {
	if m.getFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getFn(ctx, id, ownerID)
}

func (m *mockExamService) List(ctx context.Context, ownerID int64) ([]Summary, error) {
	if m.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFn(ctx, ownerID)
}

func (m *mockExamService) Update(ctx context.Context, in UpdateInput) (*Record, error) {
	if m.updateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateFn(ctx, in)
}

func (m *mockExamService) Delete(ctx context.Context, id string, ownerID int64) error {
	if m.deleteFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteFn(ctx, id, ownerID)
}

func (m *mockExamService) ExportExcel(ctx context.Context, id string, ownerID int64) ([]byte, error) {
	if m.exportExcelFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.exportExcelFn(ctx, id, ownerID)
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target string, body interface{}, user *auth.User) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	return w, env
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestParseHandler(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}

	w, env := doJSON(t, h.Parse, http.MethodPost, "/api/v1/mcq/parse",
		parseRequest{Text: "1. Q1? A. a1 B. a2\n2. Q2? A. a1 B. a2"}, nil)
	if w.Code != http.StatusOK || !env.OK {
		t.Fatalf("status = %d, ok = %v", w.Code, env.OK)
	}

	var data rowsRequest
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(data.Rows) != 10 {
		t.Fatalf("row count = %d, want 10", len(data.Rows))
	}
	if data.Rows[2].Kind != mcq.KindQuestion || data.Rows[2].Label != "1" {
		t.Errorf("row 2 = %+v, want question 1", data.Rows[2])
	}
}

func TestParseHandler_BadBody(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mcq/parse", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.Parse(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestValidateHandler(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	rows := mcq.Parse("1. Q? A. x B. y")

	w, env := doJSON(t, h.Validate, http.MethodPost, "/api/v1/mcq/validate", rowsRequest{Rows: rows}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var data validateResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !data.Valid {
		t.Errorf("valid = false for a well-formed document")
	}
	if len(data.UnkeyedQuestions) != 1 || data.UnkeyedQuestions[0] != 1 {
		t.Errorf("unkeyed questions = %v, want [1]", data.UnkeyedQuestions)
	}
}

func TestShuffleHandler_BadMode(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	w, env := doJSON(t, h.Shuffle, http.MethodPost, "/api/v1/mcq/shuffle",
		shuffleRequest{Rows: mcq.Parse("1. Q? A. x B. y"), Mode: "letters"}, nil)
	if w.Code != http.StatusBadRequest || env.OK {
		t.Fatalf("status = %d, ok = %v, want 400", w.Code, env.OK)
	}
}

func TestShuffleHandler_Answers(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	rows := mcq.Parse("1. Q? *A. x B. y C. z")

	w, env := doJSON(t, h.Shuffle, http.MethodPost, "/api/v1/mcq/shuffle",
		shuffleRequest{Rows: rows, Mode: "answers"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var data rowsRequest
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Rows) != len(rows) {
		t.Fatalf("row count changed: %d -> %d", len(rows), len(data.Rows))
	}
	keyed := 0
	for _, r := range data.Rows {
		if r.Kind == mcq.KindAnswer && r.IsCorrectKey {
			keyed++
		}
	}
	if keyed != 1 {
		t.Errorf("keyed answers = %d, want 1", keyed)
	}
}

func TestOutputHandler(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	rows := mcq.Parse("1. Q? *A. x B. y")

	w, env := doJSON(t, h.Output, http.MethodPost, "/api/v1/mcq/output",
		outputRequest{Rows: rows, Config: mcq.OutputConfig{StartNumber: 5}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var data outputResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := "5) Q?"; !bytes.Contains([]byte(data.Text), []byte(want)) {
		t.Errorf("text %q does not contain %q", data.Text, want)
	}
	if len(data.AnswerKey) != 1 || data.AnswerKey[0] != "5. A" {
		t.Errorf("answer key = %v, want [5. A]", data.AnswerKey)
	}
}

func TestGetExam_NotFound(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		getFn: func(ctx context.Context, id string, ownerID int64) (*Record, error) {
			return nil, ErrExamNotFound
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/missing", nil)
	req = withURLParam(req, "id", "missing")
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 1}))
	w := httptest.NewRecorder()
	h.GetExam(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateExam(t *testing.T) {
	var gotOwner int64
	h := &Handler{svc: &mockExamService{
		createFn: func(ctx context.Context, in SaveInput) (*Record, error) {
			gotOwner = in.OwnerID
			return &Record{ID: "abc", OwnerID: in.OwnerID, Title: in.Title}, nil
		},
	}}

	w, env := doJSON(t, h.CreateExam, http.MethodPost, "/api/v1/exams",
		saveExamRequest{Title: "Midterm", SourceText: "1. Q? A. x B. y"}, &auth.User{ID: 42})
	if w.Code != http.StatusCreated || !env.OK {
		t.Fatalf("status = %d, ok = %v", w.Code, env.OK)
	}
	if gotOwner != 42 {
		t.Errorf("owner id = %d, want 42", gotOwner)
	}
}

func TestCreateExam_Unauthorized(t *testing.T) {
	h := &Handler{svc: &mockExamService{}}
	w, _ := doJSON(t, h.CreateExam, http.MethodPost, "/api/v1/exams",
		saveExamRequest{Title: "Midterm"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestExportExcel_ContentType(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		exportExcelFn: func(ctx context.Context, id string, ownerID int64) ([]byte, error) {
			return []byte("PK\x03\x04"), nil
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/abc/export.xlsx", nil)
	req = withURLParam(req, "id", "abc")
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 1}))
	w := httptest.NewRecorder()
	h.ExportExcel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
}

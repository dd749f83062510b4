package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mcqstudio/internal/app/apiresp"
	"mcqstudio/internal/auth"
	"mcqstudio/internal/mcq"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc examService
}

type examService interface {
	Create(ctx context.Context, in SaveInput) (*Record, error)
	Get(ctx context.Context, id string, ownerID int64) (*Record, error)
	List(ctx context.Context, ownerID int64) ([]Summary, error)
	Update(ctx context.Context, in UpdateInput) (*Record, error)
	Delete(ctx context.Context, id string, ownerID int64) error
	ExportExcel(ctx context.Context, id string, ownerID int64) ([]byte, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type parseRequest struct {
	Text string `json:"text"`
}

type rowsRequest struct {
	Rows []mcq.Row `json:"rows"`
}

type shuffleRequest struct {
	Rows []mcq.Row `json:"rows"`
	Mode string    `json:"mode"`
}

type applyKeyRequest struct {
	Rows []mcq.Row        `json:"rows"`
	Key  map[int][]string `json:"key"`
}

type outputRequest struct {
	Rows   []mcq.Row        `json:"rows"`
	Config mcq.OutputConfig `json:"config"`
}

type validateResponse struct {
	Valid            bool      `json:"valid"`
	FirstErrorRowID  *int      `json:"first_error_row_id,omitempty"`
	Rows             []mcq.Row `json:"rows"`
	UnkeyedQuestions []int     `json:"unkeyed_questions"`
}

type outputResponse struct {
	Text      string            `json:"text"`
	AnswerKey []string          `json:"answer_key"`
	Bubbles   []mcq.BubbleTuple `json:"bubbles"`
}

type saveExamRequest struct {
	Title      string           `json:"title"`
	SourceText string           `json:"source_text"`
	Rows       []mcq.Row        `json:"rows"`
	Settings   mcq.OutputConfig `json:"settings"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Parse turns pasted exam text into a row model. Content problems never
// fail the request; they surface as error rows.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	rows := mcq.Parse(req.Text)
	if rows == nil {
		rows = []mcq.Row{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: rowsRequest{Rows: rows}})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req rowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	res := mcq.Validate(req.Rows)
	unkeyed := mcq.FindQuestionsWithoutKeys(req.Rows)
	if unkeyed == nil {
		unkeyed = []int{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: validateResponse{
		Valid:            res.Valid,
		FirstErrorRowID:  res.FirstErrorRowID,
		Rows:             res.Rows,
		UnkeyedQuestions: unkeyed,
	}})
}

func (h *Handler) Shuffle(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	var rows []mcq.Row
	switch req.Mode {
	case "sections":
		rows = mcq.ShuffleSections(req.Rows, nil)
	case "questions":
		rows = mcq.ShuffleQuestions(req.Rows, nil)
	case "answers":
		rows = mcq.ShuffleAnswers(req.Rows, nil)
	default:
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "mode must be one of sections, questions, answers"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: rowsRequest{Rows: rows}})
}

func (h *Handler) ParseAnswerKey(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]interface{}{
		"key": mcq.ParseAnswerKey(req.Text),
	}})
}

func (h *Handler) ApplyAnswerKey(w http.ResponseWriter, r *http.Request) {
	var req applyKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: rowsRequest{
		Rows: mcq.ApplyAnswerKey(req.Rows, req.Key),
	}})
}

func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	var req outputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	start := req.Config.StartNumber
	if start <= 0 {
		start = 1
		req.Config.StartNumber = 1
	}
	answerKey := mcq.GenerateAnswerKey(req.Rows, start)
	if answerKey == nil {
		answerKey = []string{}
	}
	bubbles := mcq.BubbleTuples(req.Rows, start)
	if bubbles == nil {
		bubbles = []mcq.BubbleTuple{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: outputResponse{
		Text:      mcq.GenerateOutput(req.Rows, req.Config),
		AnswerKey: answerKey,
		Bubbles:   bubbles,
	}})
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	var req saveExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	rec, err := h.svc.Create(r.Context(), SaveInput{
		OwnerID:    user.ID,
		Title:      req.Title,
		SourceText: req.SourceText,
		Rows:       req.Rows,
		Settings:   req.Settings,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: rec})
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	items, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: rec})
}

func (h *Handler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	var req saveExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	rec, err := h.svc.Update(r.Context(), UpdateInput{
		ID: chi.URLParam(r, "id"),
		SaveInput: SaveInput{
			OwnerID:    user.ID,
			Title:      req.Title,
			SourceText: req.SourceText,
			Rows:       req.Rows,
			Settings:   req.Settings,
		},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: rec})
}

func (h *Handler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	id := chi.URLParam(r, "id")
	data, err := h.svc.ExportExcel(r.Context(), id, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="answer-key-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}

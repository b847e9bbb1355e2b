package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	model "github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
	diagnosisService "github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
)

const testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk"

type stageCompleter struct{}

func (stageCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	switch {
	case req.ImageURL != "":
		return "", errors.New("vision endpoint offline")
	case strings.Contains(req.Prompt, "问诊结果"):
		return `{"finalScore":80,"summary":"良好","recommendations":{"lifestyle":["早睡"]},"productRecommendations":[{"category":"调理茶饮","keywords":["清热"]}],"riskLevel":"low"}`, nil
	default:
		return `{"questions":[{"id":1,"question":"睡眠如何？","type":"single_choice","options":["好","差"]}]}`, nil
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func setupRouter(t *testing.T, completer ai.Completer) (*chi.Mux, *diagnosisService.Service) {
	t.Helper()
	store := session.NewMemoryStore()
	var client *ai.Client
	if completer != nil {
		client = ai.NewClient(completer, time.Second, nil)
	}
	matcher := recommend.NewMatcher(product.NewMemoryStore(product.Seed()), nil)
	svc := diagnosisService.NewService(store, client, matcher, diagnosisService.Config{}, nil)
	t.Cleanup(func() {
		svc.Close()
		_ = store.Close()
	})

	handler := New(svc, 1<<20, nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, _ := json.Marshal(v)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var env envelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	return resp, env
}

func analyze(t *testing.T, r http.Handler) string {
	t.Helper()
	resp, env := do(t, r, http.MethodPost, "/analyze", map[string]string{"imageData": testImage})
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var data struct {
		SessionID string `json:"sessionId"`
		Source    string `json:"source"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode analyze data: %v", err)
	}
	if data.SessionID == "" {
		t.Fatal("expected a session id")
	}
	return data.SessionID
}

func TestAnalyzeFallsBackWithoutModel(t *testing.T) {
	r, _ := setupRouter(t, nil)

	resp, env := do(t, r, http.MethodPost, "/analyze", map[string]string{"imageData": testImage})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !env.Success {
		t.Fatal("expected success envelope")
	}
	var data struct {
		Source   string               `json:"source"`
		Analysis model.TongueAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Source != string(model.SourceFallback) {
		t.Fatalf("expected fallback source, got %q", data.Source)
	}
	if data.Analysis.Score < 50 || data.Analysis.Score > 98 {
		t.Fatalf("score out of range: %v", data.Analysis.Score)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	r, _ := setupRouter(t, nil)

	resp, env := do(t, r, http.MethodPost, "/analyze", "{not json")
	if resp.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400 envelope, got %d", resp.Code)
	}

	resp, env = do(t, r, http.MethodPost, "/analyze", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if env.Error != "Bad Request" || env.Message == "" {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
}

func TestAnalyzeRejectsOversizedBody(t *testing.T) {
	r, _ := setupRouter(t, nil)

	big := map[string]string{"imageData": strings.Repeat("a", 2<<20)}
	resp, _ := do(t, r, http.MethodPost, "/analyze", big)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestGenerateQuestionsUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, stageCompleter{})

	resp, env := do(t, r, http.MethodPost, "/generate-questions", map[string]string{"sessionId": "missing"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if env.Message != "session not found" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestGenerateQuestionsWithoutModelIsUnavailable(t *testing.T) {
	r, _ := setupRouter(t, nil)
	id := analyze(t, r)

	resp, env := do(t, r, http.MethodPost, "/generate-questions", map[string]string{"sessionId": id})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if env.Message != "service temporarily unavailable" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestSubmitAnswersBeforeQuestionsConflicts(t *testing.T) {
	r, _ := setupRouter(t, stageCompleter{})
	id := analyze(t, r)

	body := map[string]any{
		"sessionId": id,
		"answers":   []map[string]any{{"questionId": 1, "answer": "好"}},
	}
	resp, _ := do(t, r, http.MethodPost, "/submit-answers", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestFullFlowAndRecord(t *testing.T) {
	r, _ := setupRouter(t, stageCompleter{})
	id := analyze(t, r)

	resp, env := do(t, r, http.MethodPost, "/generate-questions", map[string]string{"sessionId": id})
	if resp.Code != http.StatusOK {
		t.Fatalf("questions: expected 200, got %d", resp.Code)
	}
	var questions struct {
		Questions model.QuestionSet `json:"questions"`
	}
	if err := json.Unmarshal(env.Data, &questions); err != nil || len(questions.Questions.Questions) != 1 {
		t.Fatalf("unexpected questions payload: %s", env.Data)
	}

	body := map[string]any{
		"sessionId": id,
		"answers":   []map[string]any{{"questionId": 1, "answer": "差", "answerIndex": 1}},
	}
	resp, env = do(t, r, http.MethodPost, "/submit-answers", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("answers: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var submitted diagnosisService.SubmitResult
	if err := json.Unmarshal(env.Data, &submitted); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if submitted.Report.FinalScore != 80 {
		t.Fatalf("expected final score 80, got %v", submitted.Report.FinalScore)
	}
	if len(submitted.RecommendedProducts) == 0 {
		t.Fatal("expected recommended products")
	}

	resp, _ = do(t, r, http.MethodPost, "/submit-answers", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("resubmit: expected 409, got %d", resp.Code)
	}

	resp, env = do(t, r, http.MethodGet, "/record/"+id, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("record: expected 200, got %d", resp.Code)
	}
	var record map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if _, ok := record["imageFingerprint"]; ok {
		t.Fatal("record must not expose the image payload")
	}
	if got := string(record["imageBytes"]); got != strconv.Itoa(len(testImage)) {
		t.Fatalf("expected imageBytes %d, got %s", len(testImage), got)
	}
	if string(record["status"]) != `"completed"` {
		t.Fatalf("expected completed status, got %s", record["status"])
	}
}

func TestGetRecordUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, nil)

	resp, env := do(t, r, http.MethodGet, "/record/unknown", nil)
	if resp.Code != http.StatusNotFound || env.Success {
		t.Fatalf("expected 404 envelope, got %d", resp.Code)
	}
}

func TestEventsStreamEndsForCompletedSession(t *testing.T) {
	r, svc := setupRouter(t, stageCompleter{})
	id := analyze(t, r)
	ctx := context.Background()
	if _, err := svc.GenerateQuestions(ctx, id); err != nil {
		t.Fatalf("generate questions: %v", err)
	}
	if _, err := svc.SubmitAnswers(ctx, id, []model.Answer{{QuestionID: 1, Answer: "好"}}); err != nil {
		t.Fatalf("submit answers: %v", err)
	}

	resp, _ := do(t, r, http.MethodGet, "/record/"+id+"/events", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := resp.Body.String()
	if !strings.HasPrefix(body, "event: status\ndata: ") || !strings.Contains(body, `"status":"completed"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, nil)

	resp, _ := do(t, r, http.MethodGet, "/record/missing/events", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestWebSocketPushesTransitions(t *testing.T) {
	r, svc := setupRouter(t, stageCompleter{})
	id := analyze(t, r)

	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/record/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev diagnosisService.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read current status: %v", err)
	}
	if ev.Status != model.StatusAnalyzed {
		t.Fatalf("expected analyzed, got %s", ev.Status)
	}

	if _, err := svc.GenerateQuestions(context.Background(), id); err != nil {
		t.Fatalf("generate questions: %v", err)
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read transition: %v", err)
	}
	if ev.Status != model.StatusQuestioning || ev.SessionID != id {
		t.Fatalf("unexpected event %+v", ev)
	}
}

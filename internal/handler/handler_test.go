package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worawit/triamsob/internal/analysis"
	"github.com/worawit/triamsob/internal/catalog"
	"github.com/worawit/triamsob/internal/examgen"
	"github.com/worawit/triamsob/internal/i18n"
	"github.com/worawit/triamsob/internal/keygate"
	"github.com/worawit/triamsob/internal/llm"
	"github.com/worawit/triamsob/internal/session"
	"github.com/worawit/triamsob/internal/store"
)

// fiveQuestions is a canned model payload with known answers
// (indices 1, 0, 2, 3, 1).
const fiveQuestions = `[
	{"text":"1+1?","options":["1","2","3","4"],"correctIndex":1,"explanation":"หนึ่งบวกหนึ่งเท่ากับสอง","topic":"arithmetic"},
	{"text":"2+2?","options":["4","5","6","7"],"correctIndex":0,"explanation":"สองบวกสองเท่ากับสี่","topic":"arithmetic"},
	{"text":"3*3?","options":["6","8","9","12"],"correctIndex":2,"explanation":"สามคูณสามเท่ากับเก้า","topic":"multiplication"},
	{"text":"10/2?","options":["2","3","4","5"],"correctIndex":3,"explanation":"สิบหารสองเท่ากับห้า","topic":"division"},
	{"text":"7-4?","options":["2","3","4","5"],"correctIndex":1,"explanation":"เจ็ดลบสี่เท่ากับสาม","topic":"arithmetic"}
]`

const analysisPayload = `{"summary":"ทำได้ดี","strengths":["arithmetic"],"weaknesses":["division"],"readingAdvice":"ทบทวนการหาร"}`

type env struct {
	handler *Handler
	router  chi.Router
	store   *store.Store
	gate    *keygate.Gate
	mock    *llm.MockProvider
}

func newEnv(t *testing.T, responses ...llm.MockResponse) *env {
	t.Helper()

	require.NoError(t, i18n.Init("th"))

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.Load()
	require.NoError(t, err)

	mock := llm.NewMockProvider(responses...)
	gate := keygate.New("test-key", nil)
	h := New(st, gate,
		examgen.New(mock, examgen.DefaultConfig()),
		analysis.New(mock),
		cat, Config{})

	r := chi.NewRouter()
	r.Use(i18n.Middleware("th"))
	h.Routes(r)

	return &env{handler: h, router: r, store: st, gate: gate, mock: mock}
}

func (e *env) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/login", map[string]string{"name": "Nok", "email": "nok@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "triamsob_session" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestLoginAndMe(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]*store.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Nok", body["user"].Name)
	require.Equal(t, "nok@example.com", body["user"].Email)
	require.NotEmpty(t, body["user"].Avatar)
}

func TestMe_NoCookieIsUnauthorized(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeError(t, rec).Kind)
}

func TestLogout_DeletesAccountAndSessions(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Content: json.RawMessage(fiveQuestions)})
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{Grade: "M3", Language: "Thai", Count: 5}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]*session.ExamSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = e.do(t, http.MethodPost, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Cookie no longer resolves to a user.
	rec = e.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The exam session went with the account.
	es, err := e.store.GetExamSession(created["session"].ID)
	require.NoError(t, err)
	require.Nil(t, es)
}

func TestCatalog(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodGet, "/api/catalog", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var cat catalog.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))
	require.NotEmpty(t, cat.Schools)
	require.NotEmpty(t, cat.Subjects)
}

func TestExamFlow(t *testing.T) {
	e := newEnv(t,
		llm.MockResponse{Content: json.RawMessage(fiveQuestions)},
		llm.MockResponse{Content: json.RawMessage(analysisPayload)},
	)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Files: []examgen.ReferenceFile{{
			Name:     "notes.png",
			Data:     "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake image bytes")),
			MIMEType: "image/png",
		}},
		Grade: "M1", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, e.mock.Calls, 1)
	require.Len(t, e.mock.Calls[0].Files, 1)
	require.Equal(t, []byte("fake image bytes"), e.mock.Calls[0].Files[0].Data)

	var created map[string]*session.ExamSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	es := created["session"]
	require.Len(t, es.Questions, 5)
	require.Equal(t, []session.FileRef{{Name: "notes.png", MIMEType: "image/png"}}, es.Files)
	require.Len(t, es.Answers, 5)
	for _, a := range es.Answers {
		require.Nil(t, a)
	}
	require.False(t, es.Completed)

	rec = e.do(t, http.MethodGet, "/api/exams/"+es.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Three of five correct: questions 0, 1, 2 right, 3 and 4 wrong.
	one, zero, two := 1, 0, 2
	rec = e.do(t, http.MethodPost, "/api/exams/"+es.ID+"/submit",
		submitRequest{Answers: []*int{&one, &zero, &two, &zero, nil}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var score session.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	require.Equal(t, 3, score.CorrectCount)
	require.Equal(t, 60, score.ScorePercent)

	// Second submit is rejected.
	rec = e.do(t, http.MethodPost, "/api/exams/"+es.ID+"/submit",
		submitRequest{Answers: []*int{&one, &zero, &two, &zero, nil}}, cookie)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "conflict", decodeError(t, rec).Kind)

	rec = e.do(t, http.MethodPost, "/api/exams/"+es.ID+"/analysis", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]*analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "ทำได้ดี", result["analysis"].Summary)
	require.Equal(t, []string{"division"}, result["analysis"].Weaknesses)

	rec = e.do(t, http.MethodDelete, "/api/exams/"+es.ID, nil, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/exams/"+es.ID, nil, cookie)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeError(t, rec).Kind)
}

func TestCreateExam_UnknownGrade(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M9", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", decodeError(t, rec).Kind)
	require.Zero(t, e.mock.CallCount())
}

func TestCreateExam_UndecodableFileIsBadRequest(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Content: json.RawMessage(fiveQuestions)})
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Files: []examgen.ReferenceFile{{
			Name:     "notes.png",
			Data:     "not base64 at all!!!",
			MIMEType: "image/png",
		}},
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", decodeError(t, rec).Kind)
}

func TestCreateExam_NoProviderIsCredentialMissing(t *testing.T) {
	e := newEnv(t)
	e.handler.generator = nil
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "credential_missing", decodeError(t, rec).Kind)
}

func TestCreateExam_BusyUserGetsConflict(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Content: json.RawMessage(fiveQuestions)})
	cookie := e.login(t)

	rec := e.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]*store.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.True(t, e.handler.acquire(body["user"].ID))
	defer e.handler.release(body["user"].ID)

	rec = e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "conflict", decodeError(t, rec).Kind)
	require.Zero(t, e.mock.CallCount())
}

func TestCreateExam_TransientFailure(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Err: &llm.ErrRateLimit{}})
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "transient", decodeError(t, rec).Kind)
}

func TestCreateExam_RejectedCredentialFlipsGate(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Err: &llm.ErrCredentialRejected{StatusCode: 403, Detail: "key revoked"}})
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "credential_rejected", decodeError(t, rec).Kind)

	state, detail := e.gate.State()
	require.Equal(t, keygate.StateError, state)
	require.Equal(t, "key revoked", detail)

	// The obstruction must survive the UI's next status poll.
	rec = e.do(t, http.MethodGet, "/api/credential/status", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var status credentialStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, string(keygate.StateError), status.State)
	require.Equal(t, "key revoked", status.Detail)
}

func TestGetExam_OtherUsersSessionIsNotFound(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Content: json.RawMessage(fiveQuestions)})
	owner := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]*session.ExamSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	other := e.login(t)
	rec = e.do(t, http.MethodGet, "/api/exams/"+created["session"].ID, nil, other)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysis_RequiresCompletedSession(t *testing.T) {
	e := newEnv(t, llm.MockResponse{Content: json.RawMessage(fiveQuestions)})
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/exams", createExamRequest{
		Grade: "M3", Language: "Thai", Count: 5,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]*session.ExamSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = e.do(t, http.MethodPost, "/api/exams/"+created["session"].ID+"/analysis", nil, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCredentialStatus(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodGet, "/api/credential/status", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var status credentialStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, string(keygate.StateAvailable), status.State)
}

func TestCredentialConnect_NoBridgeIsConflict(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/api/credential/connect", nil, cookie)
	require.Equal(t, http.StatusConflict, rec.Code)
}

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiFadel/dynamic-form-allocation/internal/adapters/callback"
	"github.com/iiFadel/dynamic-form-allocation/internal/adapters/store"
	"github.com/iiFadel/dynamic-form-allocation/internal/alias"
	"github.com/iiFadel/dynamic-form-allocation/internal/app"
	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
	"github.com/iiFadel/dynamic-form-allocation/internal/metrics"
	"github.com/iiFadel/dynamic-form-allocation/internal/token"
)

const testBaseURL = "http://forms.test"

// callbackRecorder is an httptest endpoint that captures delivered
// payloads and answers with a configurable status.
type callbackRecorder struct {
	mu       sync.Mutex
	status   int
	payloads []domain.CallbackPayload
	server   *httptest.Server
}

func newCallbackRecorder() *callbackRecorder {
	rec := &callbackRecorder{status: http.StatusOK}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload domain.CallbackPayload
		_ = json.Unmarshal(body, &payload)

		rec.mu.Lock()
		rec.payloads = append(rec.payloads, payload)
		status := rec.status
		rec.mu.Unlock()

		w.WriteHeader(status)
	}))
	return rec
}

func (r *callbackRecorder) setStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *callbackRecorder) received() []domain.CallbackPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CallbackPayload(nil), r.payloads...)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *callbackRecorder, *token.Codec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	recorder := newCallbackRecorder()
	t.Cleanup(recorder.server.Close)

	codec := token.NewCodec("test-secret")
	registry := alias.NewRegistry(store.NewMemoryStore(), codec)
	relay := callback.NewHTTPRelay(2*time.Second, log)
	m := metrics.New()
	service := app.NewFormService(registry, codec, relay, m, log)
	handler := NewFormHandler(service, testBaseURL, log)

	return SetupRouter(handler, m.Handler()), recorder, codec
}

func createFormRequest(callbackURL string) CreateFormRequest {
	return CreateFormRequest{
		Title:       "Office cleaning",
		Description: "Pick a worker for each service.",
		CallbackURL: callbackURL,
		Workers: []OptionPayload{
			{ID: "w1", Name: "Amal"},
			{ID: "w2", Name: "Sami"},
			{ID: "w3", Name: "Noor"},
		},
		Services: []OptionPayload{
			{ID: "s1", Name: "Windows"},
			{ID: "s2", Name: "Floors"},
		},
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createForm(t *testing.T, router *gin.Engine, callbackURL string) (aliasRef, formID string) {
	t.Helper()
	w := postJSON(t, router, "/api/forms", createFormRequest(callbackURL))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		FormURL string `json:"formUrl"`
		FormID  string `json:"formId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.FormID)
	require.True(t, strings.HasPrefix(resp.FormURL, testBaseURL+"/form/"))

	return strings.TrimPrefix(resp.FormURL, testBaseURL+"/form/"), resp.FormID
}

func TestCreateForm(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, formID := createForm(t, router, recorder.server.URL)
	assert.Len(t, aliasRef, 8)
	assert.NotEmpty(t, formID)
}

func TestCreateForm_ValidationIssues(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	req := createFormRequest(recorder.server.URL)
	req.Title = ""
	req.Services = nil

	w := postJSON(t, router, "/api/forms", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string              `json:"message"`
		Issues  []domain.FieldIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)

	paths := make([]string, len(resp.Issues))
	for i, issue := range resp.Issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, "title")
	assert.Contains(t, paths, "services")
}

func TestCreateForm_MalformedBody(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req, err := http.NewRequest(http.MethodPost, "/api/forms", strings.NewReader("{not json"))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderForm(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, _ := createForm(t, router, recorder.server.URL)

	req, err := http.NewRequest(http.MethodGet, "/form/"+aliasRef, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	// Two service blocks, each offering all three workers.
	assert.Equal(t, 2, strings.Count(body, `class="service"`))
	assert.Equal(t, 6, strings.Count(body, `type="radio"`))
	assert.Contains(t, body, "Office cleaning")
	assert.Contains(t, body, "Windows")
	assert.Contains(t, body, "Floors")
	assert.Contains(t, body, "Amal")
}

func TestRenderForm_SanitizesDescription(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	req := createFormRequest(recorder.server.URL)
	req.Description = `<b>bold</b><script>alert("x")</script>`
	w := postJSON(t, router, "/api/forms", req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		FormURL string `json:"formUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	aliasRef := strings.TrimPrefix(resp.FormURL, testBaseURL+"/form/")

	getReq, err := http.NewRequest(http.MethodGet, "/form/"+aliasRef, nil)
	require.NoError(t, err)
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)

	body := getW.Body.String()
	assert.Contains(t, body, "<b>bold</b>")
	assert.NotContains(t, body, "<script>")
}

func TestRenderForm_InvalidLink(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req, err := http.NewRequest(http.MethodGet, "/form/notarealalias", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not valid")
}

func TestSubmitForm(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, formID := createForm(t, router, recorder.server.URL)

	w := postJSON(t, router, "/api/submit/"+aliasRef, SubmitFormRequest{
		Assignments: []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "s2", WorkerID: "w3"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	received := recorder.received()
	require.Len(t, received, 1)
	payload := received[0]

	assert.Equal(t, formID, payload.FormID)
	assert.Equal(t, "Office cleaning", payload.FormTitle)
	assert.Nil(t, payload.Notes)
	require.Len(t, payload.Assignments, 2)
	assert.Equal(t, "Windows", payload.Assignments[0].Service.Name)
	assert.Equal(t, "Amal", payload.Assignments[0].Worker.Name)
	assert.Equal(t, "Floors", payload.Assignments[1].Service.Name)
	assert.Equal(t, "Noor", payload.Assignments[1].Worker.Name)

	_, err := time.Parse(time.RFC3339, payload.SubmittedAt)
	assert.NoError(t, err)
}

func TestSubmitForm_WithRawToken(t *testing.T) {
	router, recorder, codec := setupTestRouter(t)

	def := domain.NewFormDefinition(
		"Office cleaning",
		"desc",
		recorder.server.URL,
		[]domain.WorkerOption{{ID: "w1", Name: "Amal"}},
		[]domain.ServiceOption{{ID: "s1", Name: "Windows"}},
	)
	tok, err := codec.Encode(def)
	require.NoError(t, err)

	// The full token works where the alias would go, without any registry
	// entry: stateless resolution via the signature alone.
	w := postJSON(t, router, "/api/submit/"+tok, SubmitFormRequest{
		Assignments: []domain.Assignment{{ServiceID: "s1", WorkerID: "w1"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, recorder.received(), 1)
	assert.Equal(t, def.FormID, recorder.received()[0].FormID)
}

func TestSubmitForm_UnknownAlias(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	w := postJSON(t, router, "/api/submit/notarealalias", SubmitFormRequest{
		Assignments: []domain.Assignment{{ServiceID: "s1", WorkerID: "w1"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, recorder.received())
}

func TestSubmitForm_AssignmentMismatches(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, _ := createForm(t, router, recorder.server.URL)

	tests := []struct {
		name        string
		assignments []domain.Assignment
	}{
		{"count mismatch", []domain.Assignment{{ServiceID: "s1", WorkerID: "w1"}}},
		{"duplicate service", []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "s1", WorkerID: "w2"},
		}},
		{"unknown worker", []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "s2", WorkerID: "ghost"},
		}},
		{"unknown service", []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "ghost", WorkerID: "w2"},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/submit/"+aliasRef, SubmitFormRequest{Assignments: tc.assignments})
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}

	// No callback was attempted for any rejected submission.
	assert.Empty(t, recorder.received())
}

func TestSubmitForm_DeliveryFailure(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, _ := createForm(t, router, recorder.server.URL)
	recorder.setStatus(http.StatusInternalServerError)

	w := postJSON(t, router, "/api/submit/"+aliasRef, SubmitFormRequest{
		Assignments: []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "s2", WorkerID: "w2"},
		},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "callback")
}

func TestHealthz(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, recorder, _ := setupTestRouter(t)

	aliasRef, _ := createForm(t, router, recorder.server.URL)
	postJSON(t, router, "/api/submit/"+aliasRef, SubmitFormRequest{
		Assignments: []domain.Assignment{
			{ServiceID: "s1", WorkerID: "w1"},
			{ServiceID: "s2", WorkerID: "w2"},
		},
	})

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "form_allocation_forms_created_total 1")
	assert.Contains(t, body, `form_allocation_submissions_total{outcome="delivered"} 1`)
}

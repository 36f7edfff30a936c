package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"taskmanager/backend/handlers"
	"taskmanager/backend/metrics"
	"taskmanager/backend/models"
	"taskmanager/backend/repositories/repotest"
	"taskmanager/backend/response"
	"taskmanager/backend/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeBlobs struct {
	names []string
}

func (b *fakeBlobs) Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	b.names = append(b.names, objectName)
	return "https://blobs.example/" + objectName, nil
}

type testServer struct {
	handler http.Handler
	tasks   *repotest.TaskStore
	users   *repotest.UserStore
	blobs   *fakeBlobs
	tokens  *services.JWTService
	admin   models.User
	alice   models.User
	bob     models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		admin: models.User{ID: primitive.NewObjectID(), Name: "Ada Admin", Email: "ada@example.com", Role: models.RoleAdmin},
		alice: models.User{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com", Role: models.RoleMember},
		bob:   models.User{ID: primitive.NewObjectID(), Name: "Bob", Email: "bob@example.com", Role: models.RoleMember},
		blobs: &fakeBlobs{},
	}
	s.users = repotest.NewUserStore(s.admin, s.alice, s.bob)
	s.tasks = repotest.NewTaskStore()
	s.tokens = services.NewJWTService("router-secret", time.Hour)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	resp := &response.Responder{}
	auth := services.NewAuthService(s.users, s.tokens, "invite", services.WithHashCost(bcrypt.MinCost))
	uploads := services.NewUploadService(s.blobs, gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "test"}), 1024, m)

	s.handler = NewRouter(Handlers{
		Auth:    handlers.NewAuthHandler(auth, uploads, 1024, resp),
		Tasks:   handlers.NewTaskHandler(services.NewTaskService(s.tasks, s.users, m), services.NewDashboardService(s.tasks), resp),
		Users:   handlers.NewUserHandler(services.NewUserService(s.users, s.tasks), resp),
		Reports: handlers.NewReportHandler(services.NewReportService(s.tasks, s.users), resp),
	}, Options{
		Authenticator:  auth,
		Responder:      resp,
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
		ClientURL:      "http://localhost:5173",
	})
	return s
}

func (s *testServer) token(t *testing.T, u models.User) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec).Message)
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized, no Token", decode(t, rec).Message)

	rec = s.do(t, http.MethodGet, "/api/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token failed", decode(t, rec).Message)
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, s.alice)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodDelete, "/api/tasks/" + primitive.NewObjectID().Hex()},
		{http.MethodDelete, "/api/users/" + s.bob.ID.Hex()},
		{http.MethodGet, "/api/reports/export/tasks"},
		{http.MethodGet, "/api/reports/export/users"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, member, map[string]string{})
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Access denied, admin only", decode(t, rec).Message)
		})
	}
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Mia Member", "email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Mia Member", "email": "mia@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decode(t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "mia@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.AuthResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.Equal(t, models.RoleMember, result.Role)

	rec = s.do(t, http.MethodGet, "/api/auth/profile", result.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.UserView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &profile))
	assert.Equal(t, "mia@example.com", profile.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRouter_RegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Mia", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, mustCountUsers(t, s), "nothing is stored for a rejected registration")
}

func mustCountUsers(t *testing.T, s *testServer) int {
	t.Helper()
	users, err := s.users.FindUsers(context.Background(), "")
	require.NoError(t, err)
	return len(users) - 3
}

func TestRouter_TaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)
	alice := s.token(t, s.alice)
	bob := s.token(t, s.bob)

	rec := s.do(t, http.MethodPost, "/api/tasks", admin, map[string]any{
		"title":         "Write docs",
		"dueDate":       "2030-04-01T00:00:00Z",
		"assignedTo":    []string{s.alice.ID.Hex()},
		"todoChecklist": []map[string]any{{"text": "outline"}, {"text": "draft"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.TaskView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, models.StatusPending, created.Status)
	require.Len(t, created.AssignedTo, 1)
	assert.Equal(t, "Alice", created.AssignedTo[0].Name)
	path := "/api/tasks/" + created.ID.Hex()

	rec = s.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "unassigned members cannot see the task")

	rec = s.do(t, http.MethodPut, path+"/todo", alice, map[string]any{
		"todoChecklist": []map[string]any{{"text": "outline", "completed": true}, {"text": "draft"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.TaskView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	rec = s.do(t, http.MethodPut, path+"/status", alice, map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, 100, updated.Progress)

	rec = s.do(t, http.MethodPut, path, admin, map[string]any{"assignedTo": "not-an-array"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "assignedTo must be an array of user IDs", decode(t, rec).Message)

	rec = s.do(t, http.MethodGet, "/api/tasks?status=Completed", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.TaskList
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, 2, list.Tasks[0].CompletedTodoCount)
	assert.Equal(t, models.StatusSummary{All: 1, CompletedTasks: 1}, list.StatusSummary)

	rec = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.tasks.Len())

	rec = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DashboardPathsAreNotTaskIDs(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	for _, path := range []string{"/api/tasks/dashboard-data", "/api/tasks/user-dashboard-data"} {
		rec := s.do(t, http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var data models.DashboardData
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.Equal(t, int64(0), data.Charts.TaskDistribution["All"])
	}
}

func TestRouter_MalformedTaskIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/tasks/xyz", s.token(t, s.admin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode(t, rec).Message)
}

func TestRouter_Users(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	rec := s.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []models.MemberWithCounts
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &members))
	assert.Len(t, members, 2)

	rec = s.do(t, http.MethodGet, "/api/users/"+s.bob.ID.Hex(), s.token(t, s.alice), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/users/"+s.bob.ID.Hex(), admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+s.bob.ID.Hex(), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ExportReports(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	for path, filename := range map[string]string{
		"/api/reports/export/tasks": "tasks_report.xlsx",
		"/api/reports/export/users": "users_report.xlsx",
	} {
		rec := s.do(t, http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), filename)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
	}
}

func imageRequest(t *testing.T, token, filename, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter_UploadImage(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.alice)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, imageRequest(t, token, "avatar.png", "image/png", "pngdata"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, s.blobs.names, 1)
	assert.Equal(t, "https://blobs.example/"+s.blobs.names[0], data["imageUrl"])

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, imageRequest(t, token, "notes.txt", "text/plain", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.blobs.names, 1)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `taskmanager_http_requests_total{code="200",method="GET",route="/health"} 1`), rec.Body.String())
}

func (s *testServer) seedTask(t *testing.T, task models.Task) string {
	t.Helper()
	require.NoError(t, s.tasks.InsertTask(context.Background(), &task))
	return "/api/tasks/" + task.ID.Hex()
}

func TestRouter_UpdateTaskEmptyDueDateKeepsCurrent(t *testing.T) {
	s := newTestServer(t)
	due := time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC)
	path := s.seedTask(t, models.Task{Title: "Old title", Status: models.StatusPending, DueDate: due})

	rec := s.do(t, http.MethodPut, path, s.token(t, s.admin), json.RawMessage(`{"title":"New title","dueDate":""}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view models.TaskView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, "New title", view.Title)
	assert.True(t, due.Equal(view.DueDate))

	rec = s.do(t, http.MethodPut, path, s.token(t, s.admin), json.RawMessage(`{"title":"Other title","dueDate":"soon"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UpdateStatusEmptyBodyKeepsStatus(t *testing.T) {
	s := newTestServer(t)
	path := s.seedTask(t, models.Task{
		Title:      "In flight",
		Status:     models.StatusInProgress,
		Progress:   50,
		AssignedTo: []primitive.ObjectID{s.alice.ID},
	})

	rec := s.do(t, http.MethodPut, path+"/status", s.token(t, s.alice), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view models.TaskView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, models.StatusInProgress, view.Status)
	assert.Equal(t, 50, view.Progress)

	rec = s.do(t, http.MethodPut, path+"/status", s.token(t, s.alice), json.RawMessage(`{"status":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

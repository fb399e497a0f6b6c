package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"NotesWebService/config"
	"NotesWebService/models"
	"NotesWebService/repository"
	"NotesWebService/statistics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory TaskStore.
type memStore struct {
	mu      sync.Mutex
	nextId  int
	tasks   map[int]models.Task
	listErr error
}

func newMemStore() *memStore {
	return &memStore{nextId: 1, tasks: make(map[int]models.Task)}
}

func (s *memStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.Id = s.nextId
	s.nextId++
	s.tasks[task.Id] = *task
	return nil
}

func (s *memStore) GetTask(ctx context.Context, id int) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, repository.ErrTaskNotFound)
	}
	return &task, nil
}

func (s *memStore) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var tasks []models.Task
	for _, task := range s.tasks {
		if filter.AccountId != "" && task.AccountId != filter.AccountId {
			continue
		}
		if filter.Search != "" && !strings.Contains(task.Title, filter.Search) && !strings.Contains(task.Description, filter.Search) {
			continue
		}
		if filter.Status == models.FilterActive && task.Completed || filter.Status == models.FilterCompleted && !task.Completed {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Id > tasks[j].Id })
	if filter.Limit > 0 {
		if filter.Offset >= len(tasks) {
			return nil, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(tasks) {
			end = len(tasks)
		}
		tasks = tasks[filter.Offset:end]
	}
	return tasks, nil
}

func (s *memStore) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.Id]; !ok {
		return repository.ErrTaskNotFound
	}
	s.tasks[task.Id] = *task
	return nil
}

func (s *memStore) DeleteTask(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memStore) ClearCompletedTasks(ctx context.Context, accountId string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, task := range s.tasks {
		if task.AccountId == accountId && task.Completed {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) add(accountId, title string, completed bool) int {
	task := models.Task{Title: title, AccountId: accountId, Completed: completed}
	s.CreateTask(context.Background(), &task)
	return task.Id
}

func (s *memStore) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

type recordingPublisher struct {
	mu      sync.Mutex
	results map[string]statistics.Result
}

func (p *recordingPublisher) Publish(account string, result statistics.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[account] = result
}

func (p *recordingPublisher) get(account string) (statistics.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.results[account]
	return r, ok
}

type fixture struct {
	h            *TaskHandler
	store        *memStore
	publisher    *recordingPublisher
	endPoints    *prometheus.CounterVec
	errors       *prometheus.CounterVec
	user1, user2 string
	admin        string
}

var testAccounts = []config.Account{
	{Username: "user1", Password: "09876", Role: models.RoleUser, AccountId: "user1"},
	{Username: "user2", Password: "secret", Role: models.RoleUser, AccountId: "user2"},
	{Username: "linda", Password: "123456", Role: models.RoleAdmin, AccountId: "linda"},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	auth := NewAuthenticator("test-secret", testAccounts)
	f := &fixture{
		store:     newMemStore(),
		publisher: &recordingPublisher{results: make(map[string]statistics.Result)},
		endPoints: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "calls"}, []string{"endpoint"}),
		errors:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "errors"}, []string{"endpoint"}),
	}
	f.h = NewTaskHandler(f.store, auth, f.publisher, log)
	tokens := make([]string, len(testAccounts))
	for i, account := range testAccounts {
		token, err := auth.CreateToken(account)
		if err != nil {
			t.Fatalf("Error creating token: %v", err)
		}
		tokens[i] = token
	}
	f.user1, f.user2, f.admin = tokens[0], tokens[1], tokens[2]
	t.Cleanup(f.h.Wait)
	return f
}

type handlerFunc func(http.ResponseWriter, *http.Request, *prometheus.CounterVec, *prometheus.CounterVec)

func (f *fixture) do(handler handlerFunc, method, target, token string, body interface{}, pathValues ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	handler(rec, req, f.endPoints, f.errors)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Error decoding response body: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status code %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestLoginHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.h.LoginHandler, http.MethodPost, "/task/login", "", map[string]string{"username": "linda", "password": "123456"})
	expectStatus(t, rec, http.StatusOK)
	var body map[string]string
	decode(t, rec, &body)
	if !strings.HasPrefix(body["token"], "Bearer ") {
		t.Fatalf("Expected bearer token, got %q", body["token"])
	}
	id, err := f.h.auth.VerifyToken(body["token"])
	if err != nil {
		t.Fatalf("Error verifying token: %v", err)
	}
	if id.Role != models.RoleAdmin || id.AccountId != "linda" || id.Username != "linda" {
		t.Errorf("Unexpected identity %+v", id)
	}

	rec = f.do(f.h.LoginHandler, http.MethodPost, "/task/login", "", map[string]string{"username": "linda", "password": "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = f.do(f.h.LoginHandler, http.MethodPost, "/task/login", "", map[string]string{"username": "linda"})
	expectStatus(t, rec, http.StatusBadRequest)

	if v := testutil.ToFloat64(f.errors.WithLabelValues("/task/login")); v != 2 {
		t.Errorf("Expected 2 login errors, got %v", v)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)

	expectStatus(t, f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics", f.user1, nil), http.StatusOK)
	expectStatus(t, f.do(f.h.LogoutHandler, http.MethodPost, "/task/logout", f.user1, nil), http.StatusOK)
	expectStatus(t, f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics", f.user1, nil), http.StatusUnauthorized)
	expectStatus(t, f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics", f.user2, nil), http.StatusOK)
}

func TestUnauthorized(t *testing.T) {
	f := newFixture(t)
	forged, err := NewAuthenticator("other-secret", testAccounts).CreateToken(testAccounts[0])
	if err != nil {
		t.Fatalf("Error creating token: %v", err)
	}
	for _, token := range []string{"", "Bearer garbage", forged} {
		rec := f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", token, map[string]string{"title": "Task"})
		expectStatus(t, rec, http.StatusUnauthorized)
	}
	if len(f.store.tasks) != 0 {
		t.Errorf("Expected no task to be stored, got %d", len(f.store.tasks))
	}
}

func TestCreateTaskHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", f.user1, map[string]interface{}{
		"id":          42,
		"title":       "  <b>Task 1</b> ",
		"description": "Description of Task 1",
		"accountId":   "user2",
	})
	expectStatus(t, rec, http.StatusCreated)
	var task models.Task
	decode(t, rec, &task)
	if task.Id != 1 {
		t.Errorf("Expected id 1, got %d", task.Id)
	}
	if task.AccountId != "user1" {
		t.Errorf("Expected task to belong to user1, got %s", task.AccountId)
	}
	if task.Title != "&lt;b&gt;Task 1&lt;/b&gt;" {
		t.Errorf("Expected escaped title, got %q", task.Title)
	}

	f.h.Wait()
	if got, ok := f.publisher.get("user1"); !ok || got.ActivePercent != 100 || got.CompletedPercent != 0 {
		t.Errorf("Expected published 100/0 for user1, got %+v (published %v)", got, ok)
	}
}

func TestCreateTaskHandlerLengthIgnoresEscaping(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", f.user1, map[string]string{"title": strings.Repeat("&", 30)})
	expectStatus(t, rec, http.StatusCreated)
	var task models.Task
	decode(t, rec, &task)
	if task.Title != strings.Repeat("&amp;", 30) {
		t.Errorf("Expected escaped title, got %q", task.Title)
	}

	rec = f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", f.user1, map[string]string{"title": strings.Repeat("<", 100)})
	expectStatus(t, rec, http.StatusCreated)
	expectStatus(t, f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", f.user1, map[string]string{"title": strings.Repeat("<", 101)}), http.StatusBadRequest)

	// Updating another field keeps the stored escaped title valid.
	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"id": task.Id, "description": "more"}), http.StatusOK)
	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"id": task.Id, "title": strings.Repeat("\"", 100)}), http.StatusOK)
}

func TestCreateTaskHandlerInvalid(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body interface{}
	}{
		{"blank title", map[string]string{"title": "   ", "description": "desc"}},
		{"missing title", map[string]string{"description": "desc"}},
		{"not json", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, f.do(f.h.CreateTaskHandler, http.MethodPost, "/task/create", f.user1, tt.body), http.StatusBadRequest)
		})
	}
}

func TestGetTaskHandler(t *testing.T) {
	f := newFixture(t)
	id := f.store.add("user1", "Task 1", false)
	path := fmt.Sprintf("/task/getid/%d", id)

	rec := f.do(f.h.GetTaskHandler, http.MethodGet, path, f.user1, nil, "id", fmt.Sprint(id))
	expectStatus(t, rec, http.StatusOK)
	var task models.Task
	decode(t, rec, &task)
	if task.Title != "Task 1" {
		t.Errorf("Expected Task 1, got %q", task.Title)
	}

	expectStatus(t, f.do(f.h.GetTaskHandler, http.MethodGet, path, f.user2, nil, "id", fmt.Sprint(id)), http.StatusForbidden)
	expectStatus(t, f.do(f.h.GetTaskHandler, http.MethodGet, path, f.admin, nil, "id", fmt.Sprint(id)), http.StatusOK)
	expectStatus(t, f.do(f.h.GetTaskHandler, http.MethodGet, "/task/getid/99", f.user1, nil, "id", "99"), http.StatusNotFound)
	expectStatus(t, f.do(f.h.GetTaskHandler, http.MethodGet, "/task/getid/abc", f.user1, nil, "id", "abc"), http.StatusBadRequest)

	if v := testutil.ToFloat64(f.endPoints.WithLabelValues("/task/getid")); v != 5 {
		t.Errorf("Expected 5 calls of /task/getid, got %v", v)
	}
	if v := testutil.ToFloat64(f.errors.WithLabelValues("/task/getid")); v != 3 {
		t.Errorf("Expected 3 errors of /task/getid, got %v", v)
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		pagesize, page string
		limit, offset  int
		wantErr        bool
	}{
		{"", "", 0, 0, false},
		{"10", "1", 10, 0, false},
		{"10", "3", 10, 20, false},
		{"1000", "2", 1000, 1000, false},
		{"1001", "1", 0, 0, true},
		{"4611686018427387904", "5", 0, 0, true},
		{"1000", "9223372036854775807", 0, 0, true},
		{"10", "0", 0, 0, true},
	}
	for _, tt := range tests {
		limit, offset, err := pagination(tt.pagesize, tt.page)
		if (err != nil) != tt.wantErr {
			t.Errorf("pagesize=%s page=%s: expected error %v, got %v", tt.pagesize, tt.page, tt.wantErr, err)
			continue
		}
		if limit != tt.limit || offset != tt.offset {
			t.Errorf("pagesize=%s page=%s: expected %d/%d, got %d/%d", tt.pagesize, tt.page, tt.limit, tt.offset, limit, offset)
		}
	}
}

func TestGetAllTasksHandler(t *testing.T) {
	f := newFixture(t)
	f.store.add("user1", "Buy milk", false)
	f.store.add("user1", "Call mom", true)
	f.store.add("user1", "Buy bread", true)
	f.store.add("user2", "Other", false)

	list := func(token, query string) []models.Task {
		t.Helper()
		rec := f.do(f.h.GetAllTasksHandler, http.MethodGet, "/task/getAll"+query, token, nil)
		expectStatus(t, rec, http.StatusOK)
		var tasks []models.Task
		decode(t, rec, &tasks)
		return tasks
	}

	if got := list(f.user1, ""); len(got) != 3 {
		t.Errorf("Expected 3 tasks for user1, got %d", len(got))
	}
	if got := list(f.user1, "?filter=completed"); len(got) != 2 {
		t.Errorf("Expected 2 completed tasks, got %d", len(got))
	}
	if got := list(f.user1, "?filter=active&search=milk"); len(got) != 1 || got[0].Title != "Buy milk" {
		t.Errorf("Expected Buy milk, got %+v", got)
	}
	if got := list(f.user1, "?pagesize=2&page=2"); len(got) != 1 || got[0].Title != "Buy milk" {
		t.Errorf("Expected the oldest task on page 2, got %+v", got)
	}
	if got := list(f.user1, "?account=user2"); len(got) != 3 {
		t.Errorf("Expected account parameter to be ignored for users, got %d tasks", len(got))
	}
	if got := list(f.admin, ""); len(got) != 4 {
		t.Errorf("Expected admin to see 4 tasks, got %d", len(got))
	}
	if got := list(f.admin, "?account=user2"); len(got) != 1 {
		t.Errorf("Expected admin to see 1 task of user2, got %d", len(got))
	}
	if got := list(f.user2, "?search=nothing"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty list, got %+v", got)
	}

	for _, query := range []string{
		"?filter=archived",
		"?pagesize=5",
		"?pagesize=0&page=1",
		"?pagesize=5&page=x",
		"?pagesize=1001&page=1",
		"?pagesize=4611686018427387904&page=5",
		"?pagesize=1000&page=9223372036854775807",
	} {
		expectStatus(t, f.do(f.h.GetAllTasksHandler, http.MethodGet, "/task/getAll"+query, f.user1, nil), http.StatusBadRequest)
	}
}

func TestUpdateTaskHandler(t *testing.T) {
	f := newFixture(t)
	id := f.store.add("user1", "Task 1", true)

	rec := f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{
		"id":          id,
		"title":       "Task 1 & more",
		"description": "updated",
	})
	expectStatus(t, rec, http.StatusOK)
	var task models.Task
	decode(t, rec, &task)
	if task.Title != "Task 1 &amp; more" || task.Description != "updated" || !task.Completed {
		t.Errorf("Unexpected task %+v", task)
	}

	// A second update must not escape the stored title again.
	rec = f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"id": id, "completed": false})
	expectStatus(t, rec, http.StatusOK)
	stored, _ := f.store.GetTask(context.Background(), id)
	if stored.Title != "Task 1 &amp; more" || stored.Completed {
		t.Errorf("Unexpected stored task %+v", stored)
	}

	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user2, map[string]interface{}{"id": id, "title": "x"}), http.StatusForbidden)
	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"id": id, "title": " "}), http.StatusBadRequest)
	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"title": "no id"}), http.StatusBadRequest)
	expectStatus(t, f.do(f.h.UpdateTaskHandler, http.MethodPost, "/task/update", f.user1, map[string]interface{}{"id": 99, "title": "x"}), http.StatusNotFound)
}

func TestCompleteAndActivateTaskHandler(t *testing.T) {
	f := newFixture(t)
	id := f.store.add("user1", "Task 1", false)
	f.store.add("user1", "Task 2", false)

	rec := f.do(f.h.CompleteTaskHandler, http.MethodPost, "/task/complete", f.user1, map[string]int{"id": id})
	expectStatus(t, rec, http.StatusOK)
	var task models.Task
	decode(t, rec, &task)
	if !task.Completed {
		t.Error("Expected task to be completed")
	}
	f.h.Wait()
	if got, _ := f.publisher.get("user1"); got.ActivePercent != 50 || got.CompletedPercent != 50 {
		t.Errorf("Expected published 50/50, got %+v", got)
	}

	rec = f.do(f.h.ActivateTaskHandler, http.MethodPost, "/task/activate", f.user1, map[string]int{"id": id})
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &task)
	if task.Completed {
		t.Error("Expected task to be active")
	}
	f.h.Wait()
	if got, _ := f.publisher.get("user1"); got.ActivePercent != 100 {
		t.Errorf("Expected published 100/0, got %+v", got)
	}

	expectStatus(t, f.do(f.h.CompleteTaskHandler, http.MethodPost, "/task/complete", f.admin, map[string]int{"id": id}), http.StatusForbidden)
	expectStatus(t, f.do(f.h.CompleteTaskHandler, http.MethodPost, "/task/complete", f.user1, map[string]int{"id": 0}), http.StatusBadRequest)
}

func TestDeleteTaskHandler(t *testing.T) {
	f := newFixture(t)
	own := f.store.add("user1", "Task 1", false)
	other := f.store.add("user2", "Task 2", false)

	expectStatus(t, f.do(f.h.DeleteTaskHandler, http.MethodPost, "/task/delete", f.user1, map[string]int{"id": other}), http.StatusForbidden)

	rec := f.do(f.h.DeleteTaskHandler, http.MethodPost, "/task/delete", f.user1, map[string]int{"id": own})
	expectStatus(t, rec, http.StatusOK)
	var body map[string]string
	decode(t, rec, &body)
	if body["message"] != fmt.Sprintf("Successfully Deleted task with id=%d", own) {
		t.Errorf("Unexpected message %q", body["message"])
	}

	expectStatus(t, f.do(f.h.DeleteTaskHandler, http.MethodPost, "/task/delete", f.admin, map[string]int{"id": other}), http.StatusOK)
	expectStatus(t, f.do(f.h.DeleteTaskHandler, http.MethodPost, "/task/delete", f.admin, map[string]int{"id": other}), http.StatusNotFound)
	expectStatus(t, f.do(f.h.DeleteTaskHandler, http.MethodPost, "/task/delete", f.admin, map[string]int{}), http.StatusBadRequest)

	f.h.Wait()
	if got, ok := f.publisher.get("user2"); !ok || got != (statistics.Result{}) {
		t.Errorf("Expected published 0/0 for emptied account, got %+v", got)
	}
}

func TestClearCompletedHandler(t *testing.T) {
	f := newFixture(t)
	f.store.add("user1", "Task 1", true)
	f.store.add("user1", "Task 2", true)
	f.store.add("user1", "Task 3", false)
	f.store.add("user2", "Task 4", true)

	rec := f.do(f.h.ClearCompletedHandler, http.MethodPost, "/task/clearCompleted", f.user1, nil)
	expectStatus(t, rec, http.StatusOK)
	var body struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, rec, &body)
	if body.Deleted != 2 {
		t.Errorf("Expected 2 deleted tasks, got %d", body.Deleted)
	}
	f.h.Wait()
	if len(f.store.tasks) != 2 {
		t.Errorf("Expected 2 remaining tasks, got %d", len(f.store.tasks))
	}
}

func TestStatisticsHandler(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.store.add("user1", "done", true)
	}
	for i := 0; i < 2; i++ {
		f.store.add("user1", "todo", false)
	}
	f.store.add("user2", "todo", false)

	stats := func(token, query string) statistics.Result {
		t.Helper()
		rec := f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics"+query, token, nil)
		expectStatus(t, rec, http.StatusOK)
		var result statistics.Result
		decode(t, rec, &result)
		return result
	}

	if got := stats(f.user1, ""); got.ActivePercent != 40 || got.CompletedPercent != 60 {
		t.Errorf("Expected 40/60, got %+v", got)
	}
	if got := stats(f.user2, ""); got.ActivePercent != 100 || got.CompletedPercent != 0 {
		t.Errorf("Expected 100/0, got %+v", got)
	}
	if got := stats(f.admin, ""); got != (statistics.Result{}) {
		t.Errorf("Expected 0/0 for an account without tasks, got %+v", got)
	}
	if got := stats(f.admin, "?account=user1"); got.ActivePercent != 40 {
		t.Errorf("Expected admin to read 40/60 of user1, got %+v", got)
	}
	expectStatus(t, f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics?account=user1", f.user2, nil), http.StatusForbidden)
}

func TestStatisticsHandlerMasksLoadError(t *testing.T) {
	f := newFixture(t)
	f.store.add("user1", "done", true)
	f.store.setListErr(errors.New("connection refused"))

	rec := f.do(f.h.StatisticsHandler, http.MethodGet, "/task/statistics", f.user1, nil)
	expectStatus(t, rec, http.StatusOK)
	var result statistics.Result
	decode(t, rec, &result)
	if result != (statistics.Result{}) {
		t.Errorf("Expected 0/0 on load error, got %+v", result)
	}
	if v := testutil.ToFloat64(f.errors.WithLabelValues("/task/statistics")); v != 1 {
		t.Errorf("Expected error counter 1, got %v", v)
	}

	f.h.refreshStats("user1")
	f.h.Wait()
	if got, ok := f.publisher.get("user1"); !ok || got != (statistics.Result{}) {
		t.Errorf("Expected published 0/0 on load error, got %+v", got)
	}
}

package guard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/gateway"
	"github.com/licomnaklavy/edu-platform/internal/nav"
	"github.com/licomnaklavy/edu-platform/internal/session"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (m *memoryBackend) key(collection, id string) string { return collection + "/" + id }

func (m *memoryBackend) Save(collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(collection, id)] = raw
	return nil
}

func (m *memoryBackend) Load(collection, id string, data any) error {
	m.mu.Lock()
	raw, ok := m.data[m.key(collection, id)]
	m.mu.Unlock()
	if !ok {
		return session.ErrBackendNotFound
	}
	return json.Unmarshal(raw, data)
}

func (m *memoryBackend) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(collection, id)
	if _, ok := m.data[key]; !ok {
		return session.ErrBackendNotFound
	}
	delete(m.data, key)
	return nil
}

func testUser() *domain.User {
	return &domain.User{ID: 1, Email: "student@example.com", Name: "Student"}
}

func newGuard(t *testing.T, baseURL string) (*Guard, *session.Store, *nav.Recorder) {
	t.Helper()
	sessions := session.NewStore(newMemoryBackend())
	recorder := &nav.Recorder{}
	api := gateway.New(gateway.Config{
		BaseURL:   baseURL,
		Sessions:  sessions,
		Navigator: recorder,
	})
	return New(sessions, api, nil), sessions, recorder
}

func TestCheckProtectedWithoutSession(t *testing.T) {
	g, _, _ := newGuard(t, "http://127.0.0.1:0")

	out := g.CheckProtected(t.Context())

	if out.State != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", out.State)
	}
	if out.Intent.Action != ActionRedirect || out.Intent.Target != nav.PageLogin {
		t.Errorf("intent = %+v, want redirect to login", out.Intent)
	}
	if out.Err != nil {
		t.Errorf("unexpected error: %v", out.Err)
	}
}

func TestCheckProtectedVerifiesIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.User{ID: 1, Email: "student@example.com", Name: "Renamed"})
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	out := g.CheckProtected(t.Context())

	if out.State != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated (err=%v)", out.State, out.Err)
	}
	if out.Intent.Action != ActionRender {
		t.Errorf("intent = %+v, want render", out.Intent)
	}
	if out.User == nil || out.User.Name != "Renamed" {
		t.Errorf("user = %+v, want backend identity", out.User)
	}

	cached, ok := sessions.ReadUser()
	if !ok || cached.Name != "Renamed" {
		t.Errorf("cached user = %+v, want refreshed snapshot", cached)
	}
}

func TestCheckProtectedExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Could not validate credentials"}`)
	}))
	defer srv.Close()

	g, sessions, recorder := newGuard(t, srv.URL)
	if err := sessions.WriteSession("stale", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	out := g.CheckProtected(t.Context())

	if out.State != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", out.State)
	}
	if out.Intent.Target != nav.PageLogin {
		t.Errorf("intent target = %v, want login", out.Intent.Target)
	}
	if !errors.Is(out.Err, gateway.ErrAuthRequired) {
		t.Errorf("err = %v, want ErrAuthRequired", out.Err)
	}
	if sessions.IsValid() {
		t.Error("session still valid after failed verification")
	}
	if got := recorder.Targets(); len(got) != 1 || got[0] != nav.PageLogin {
		t.Errorf("navigations = %v, want exactly one login redirect", got)
	}
}

func TestCheckEntryWithSession(t *testing.T) {
	g, sessions, _ := newGuard(t, "http://127.0.0.1:0")
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	out := g.CheckEntry(t.Context())
	if out.State != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", out.State)
	}
	if out.Intent.Action != ActionRedirect || out.Intent.Target != nav.PageMyCourses {
		t.Errorf("intent = %+v, want redirect to my courses", out.Intent)
	}
}

func TestCheckEntryWithoutSession(t *testing.T) {
	g, _, _ := newGuard(t, "http://127.0.0.1:0")

	out := g.CheckEntry(t.Context())
	if out.State != StateUnauthenticated || out.Intent.Action != ActionRender {
		t.Errorf("outcome = %+v, want unauthenticated render", out)
	}
}

func TestResolveLanding(t *testing.T) {
	g, sessions, _ := newGuard(t, "http://127.0.0.1:0")

	if out := g.ResolveLanding(); out.Intent.Target != nav.PageLogin {
		t.Errorf("landing without session = %v, want login", out.Intent.Target)
	}

	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	if out := g.ResolveLanding(); out.Intent.Target != nav.PageMyCourses {
		t.Errorf("landing with session = %v, want my courses", out.Intent.Target)
	}
}

func TestSubmitLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(gateway.AuthResponse{
			AccessToken: "fresh-token",
			TokenType:   "bearer",
			User:        *testUser(),
		})
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)

	out := g.SubmitLogin(t.Context(), "student@example.com", "secret123")

	if out.State != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated (err=%v)", out.State, out.Err)
	}
	if out.Intent.Target != nav.PageMyCourses {
		t.Errorf("intent target = %v, want my courses", out.Intent.Target)
	}
	if !sessions.IsValid() {
		t.Error("session not valid after successful login")
	}
	if out.User == nil || out.User.Email != "student@example.com" {
		t.Errorf("user = %+v", out.User)
	}
}

func TestSubmitLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Incorrect email or password"}`)
	}))
	defer srv.Close()

	g, sessions, recorder := newGuard(t, srv.URL)

	out := g.SubmitLogin(t.Context(), "student@example.com", "wrong")

	if out.State != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", out.State)
	}
	if out.Intent.Action != ActionRender {
		t.Errorf("intent = %+v, want render (stay on form)", out.Intent)
	}
	if !errors.Is(out.Err, gateway.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", out.Err)
	}
	if sessions.IsValid() {
		t.Error("session must stay invalid after rejected login")
	}
	if got := recorder.Targets(); len(got) != 0 {
		t.Errorf("navigations = %v, want none", got)
	}
}

func TestSubmitLatchBlocksConcurrentSubmission(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode(gateway.AuthResponse{AccessToken: "t", User: *testUser()})
	}))
	defer srv.Close()

	g, _, _ := newGuard(t, srv.URL)

	first := make(chan Outcome, 1)
	go func() {
		first <- g.SubmitLogin(t.Context(), "student@example.com", "secret123")
	}()

	// Once the server saw the request, the first submission holds the latch.
	<-started
	second := g.SubmitLogin(t.Context(), "student@example.com", "secret123")
	if !errors.Is(second.Err, ErrSubmitInFlight) {
		t.Fatalf("err = %v, want ErrSubmitInFlight", second.Err)
	}
	if second.State != StateAuthenticating {
		t.Errorf("blocked submission state = %v, want authenticating", second.State)
	}

	close(release)
	if out := <-first; out.State != StateAuthenticated {
		t.Errorf("first submission state = %v, err = %v", out.State, out.Err)
	}

	// Latch is released once the first submission settles.
	if out := g.SubmitLogin(t.Context(), "student@example.com", "secret123"); errors.Is(out.Err, ErrSubmitInFlight) {
		t.Error("latch not released after submission settled")
	}
}

func TestSubmitRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(gateway.AuthResponse{AccessToken: "t", User: *testUser()})
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)

	out := g.SubmitRegister(t.Context(), "student@example.com", "secret123", "Student")
	if out.State != StateAuthenticated {
		t.Fatalf("state = %v, err = %v", out.State, out.Err)
	}
	if !sessions.IsValid() {
		t.Error("session not valid after registration")
	}
}

func TestLogout(t *testing.T) {
	g, sessions, _ := newGuard(t, "http://127.0.0.1:0")
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	out := g.Logout()

	if out.State != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", out.State)
	}
	if out.Intent.Target != nav.PageLogin {
		t.Errorf("intent target = %v, want login", out.Intent.Target)
	}
	if sessions.IsValid() {
		t.Error("session still valid after logout")
	}
}

func TestEnrollRejectsAlreadyEnrolledLocally(t *testing.T) {
	var enrollCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/courses":
			json.NewEncoder(w).Encode([]domain.Course{
				{ID: 42, Name: "Go Fundamentals", IsEnrolled: true},
			})
		case r.Method == http.MethodPost:
			enrollCalls++
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	err := g.EnrollCourse(t.Context(), 42)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled", err)
	}
	if enrollCalls != 0 {
		t.Errorf("enroll requests = %d, want 0", enrollCalls)
	}
}

func TestEnrollUnknownCourse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]domain.Course{{ID: 1, Name: "Go Fundamentals"}})
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	if err := g.EnrollCourse(t.Context(), 999); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestEnrollSuccess(t *testing.T) {
	var enrolledPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]domain.Course{{ID: 7, Name: "Databases"}})
		case http.MethodPost:
			enrolledPath = r.URL.Path
			fmt.Fprint(w, `{"message": "Successfully enrolled in course"}`)
		}
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	if err := g.EnrollCourse(t.Context(), 7); err != nil {
		t.Fatalf("EnrollCourse: %v", err)
	}
	if enrolledPath != "/users/me/courses/7" {
		t.Errorf("enroll path = %q", enrolledPath)
	}
}

func TestCourseActionLatch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]domain.Course{
				{ID: 7, Name: "Databases"},
				{ID: 8, Name: "Networking"},
			})
			return
		}
		if r.URL.Path == "/users/me/courses/7" {
			close(started)
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- g.EnrollCourse(t.Context(), 7) }()

	// Once the enroll request is on the wire, the latch for course 7 is held.
	<-started
	if err := g.EnrollCourse(t.Context(), 7); !errors.Is(err, ErrActionInFlight) {
		t.Errorf("err = %v, want ErrActionInFlight", err)
	}

	// A different course is not blocked by the latch on course 7.
	if err := g.EnrollCourse(t.Context(), 8); errors.Is(err, ErrActionInFlight) {
		t.Error("latch for one course blocked another course")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first enroll: %v", err)
	}
}

func TestLeaveCourseNotEnrolled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail": "Course not found or not enrolled"}`)
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	err := g.LeaveCourse(t.Context(), 3)
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want RequestError", err)
	}
	if reqErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", reqErr.Status)
	}
	if !strings.Contains(reqErr.Message, "not enrolled") {
		t.Errorf("message = %q", reqErr.Message)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	g, sessions, _ := newGuard(t, "http://127.0.0.1:0")
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	tests := []struct {
		name                   string
		current, next, confirm string
		wantErr                error
	}{
		{"missing current", "", "newpass1", "newpass1", ErrPasswordFieldsRequired},
		{"missing new", "oldpass1", "", "", ErrPasswordFieldsRequired},
		{"mismatch", "oldpass1", "newpass1", "newpass2", ErrPasswordMismatch},
		{"too short", "oldpass1", "abc", "abc", ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ChangePassword(t.Context(), tt.current, tt.next, tt.confirm)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChangePasswordSendsNewPassword(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/users/me" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(testUser())
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	if err := g.ChangePassword(t.Context(), "oldpass1", "newpass1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if body["password"] != "newpass1" {
		t.Errorf("password field = %q, want new password", body["password"])
	}
	if body["email"] != "student@example.com" {
		t.Errorf("email field = %q, want cached email", body["email"])
	}
}

func TestSaveProfileKeepsPassword(t *testing.T) {
	var rawBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		rawBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		json.NewEncoder(w).Encode(domain.User{ID: 1, Email: "new@example.com", Name: "New Name"})
	}))
	defer srv.Close()

	g, sessions, _ := newGuard(t, srv.URL)
	if err := sessions.WriteSession("token-1", testUser()); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	user, err := g.SaveProfile(t.Context(), "new@example.com", "New Name")
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("user = %+v", user)
	}
	if !strings.Contains(string(rawBody), `"password":""`) {
		t.Errorf("body = %s, want explicit empty password", rawBody)
	}

	cached, ok := sessions.ReadUser()
	if !ok || cached.Email != "new@example.com" {
		t.Errorf("cached user = %+v, want refreshed", cached)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/notify"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// brokenStore fails every call with a cause that must never reach clients.
type brokenStore struct{}

var errDiskOnFire = errors.New("disk on fire at /var/lib/secret")

func (brokenStore) Create(context.Context, contact.Draft) (contact.Record, error) {
	return contact.Record{}, &store.Error{Op: "create", Err: errDiskOnFire}
}

func (brokenStore) List(context.Context) ([]contact.Record, error) {
	return nil, &store.Error{Op: "list", Err: errDiskOnFire}
}

func (brokenStore) Close() error { return nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []contact.Record
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, rec contact.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, rec)
	return n.err
}

type fixture struct {
	engine   *gin.Engine
	store    store.Store
	notifier *recordingNotifier
}

func newFixture(t *testing.T, s store.Store, resume Resume) fixture {
	t.Helper()
	n := &recordingNotifier{}
	e := New(Deps{
		Store:    s,
		Notifier: n,
		Log:      logs.GetLoggerFromLevel(slog.LevelDebug),
		Resume:   resume,
	})
	return fixture{engine: e, store: s, notifier: n}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []contact.Violation `json:"errors"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const validBody = `{"name":"Jordan Lee","email":"jordan@example.com","message":"I would like to discuss an opportunity."}`

func Test_Submit_Contact_Stores_And_Confirms(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	rec := f.do(http.MethodPost, "/api/contact", validBody)
	req.Equal(http.StatusOK, rec.Code)
	body := decode[envelope](t, rec)
	req.True(body.Success)
	req.Equal("Message sent successfully!", body.Message)
	req.Empty(body.Errors)

	list := f.do(http.MethodGet, "/api/contacts", "")
	req.Equal(http.StatusOK, list.Code)
	records := decode[[]contact.Record](t, list)
	req.Len(records, 1)
	req.Positive(records[0].ID)
	req.Equal("Jordan Lee", records[0].Name)
	req.Equal("jordan@example.com", records[0].Email)
	req.Equal("I would like to discuss an opportunity.", records[0].Message)
	req.False(records[0].CreatedAt.IsZero())

	req.Len(f.notifier.sent, 1)
	req.Equal(records[0].ID, f.notifier.sent[0].ID)
}

func Test_Submit_Contact_Rejects_Invalid_Form(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	rec := f.do(http.MethodPost, "/api/contact", `{"name":"Jo","email":"bad","message":"short"}`)
	req.Equal(http.StatusBadRequest, rec.Code)
	body := decode[envelope](t, rec)
	req.False(body.Success)
	req.Equal("Invalid form data", body.Message)
	req.Len(body.Errors, 2)
	req.Equal([]string{"email"}, body.Errors[0].Path)
	req.Equal([]string{"message"}, body.Errors[1].Path)

	records, err := f.store.List(context.Background())
	req.NoError(err)
	req.Empty(records)
	req.Empty(f.notifier.sent)
}

func Test_Submit_Contact_Rejects_Non_Object_Body(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	for _, body := range []string{`["Jordan"]`, `not json`, ``} {
		rec := f.do(http.MethodPost, "/api/contact", body)
		req.Equal(http.StatusBadRequest, rec.Code, "body %q", body)
		env := decode[envelope](t, rec)
		req.Equal("Invalid form data", env.Message)
		req.Len(env.Errors, 1)
		req.Empty(env.Errors[0].Path)
	}
}

func Test_Submit_Contact_Hides_Storage_Failure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, brokenStore{}, Resume{})

	rec := f.do(http.MethodPost, "/api/contact", validBody)
	req.Equal(http.StatusInternalServerError, rec.Code)
	req.JSONEq(`{"success":false,"message":"Failed to send message"}`, rec.Body.String())
	req.NotContains(rec.Body.String(), "disk on fire")
	req.Empty(f.notifier.sent)
}

func Test_Submit_Contact_Succeeds_When_Notification_Fails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})
	f.notifier.err = errors.New("smtp down")

	rec := f.do(http.MethodPost, "/api/contact", validBody)
	req.Equal(http.StatusOK, rec.Code)
	records, err := f.store.List(context.Background())
	req.NoError(err)
	req.Len(records, 1)
}

func Test_List_Contacts_Empty_Is_Array(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	rec := f.do(http.MethodGet, "/api/contacts", "")
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`[]`, rec.Body.String())
}

func Test_List_Contacts_Hides_Storage_Failure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, brokenStore{}, Resume{})

	rec := f.do(http.MethodGet, "/api/contacts", "")
	req.Equal(http.StatusInternalServerError, rec.Code)
	req.JSONEq(`{"success":false,"message":"Failed to retrieve contacts"}`, rec.Body.String())
}

func Test_Download_Resume(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "resume.pdf")
	content := "%PDF-1.4\n%portfolio test document\n"
	req.NoError(os.WriteFile(path, []byte(content), 0o600))
	f := newFixture(t, store.NewMemoryStore(), Resume{Path: path, Filename: "Jordan_Lee_Resume.pdf"})

	rec := f.do(http.MethodGet, "/api/resume", "")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/pdf", rec.Header().Get("Content-Type"))
	req.Contains(rec.Header().Get("Content-Disposition"), "attachment")
	req.Contains(rec.Header().Get("Content-Disposition"), "Jordan_Lee_Resume.pdf")
	req.Equal(content, rec.Body.String())
}

func Test_Download_Resume_Missing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{Path: filepath.Join(t.TempDir(), "absent.pdf")})

	rec := f.do(http.MethodGet, "/api/resume", "")
	req.Equal(http.StatusNotFound, rec.Code)
	req.JSONEq(`{"success":false,"message":"Resume not found"}`, rec.Body.String())

	f = newFixture(t, store.NewMemoryStore(), Resume{Path: t.TempDir()})
	rec = f.do(http.MethodGet, "/api/resume", "")
	req.Equal(http.StatusNotFound, rec.Code)
}

func Test_Request_Id_Is_Propagated_Or_Generated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	rec := f.do(http.MethodGet, "/healthz", "")
	req.Equal(http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	req.NoError(err)

	id := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("X-Request-ID", id)
	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, r)
	req.Equal(id, rec.Header().Get("X-Request-ID"))
}

func Test_Unknown_Route_Is_Json_404(t *testing.T) {
	f := newFixture(t, store.NewMemoryStore(), Resume{})
	rec := f.do(http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"success":false,"message":"Not found"}`, rec.Body.String())
}

func Test_Ip_Hasher_Is_Stable_Per_Process(t *testing.T) {
	req := require.New(t)
	h := newIPHasher()
	req.Equal(h.hash("203.0.113.9"), h.hash("203.0.113.9"))
	req.NotEqual(h.hash("203.0.113.9"), h.hash("203.0.113.10"))
	req.Len(h.hash("203.0.113.9"), 16)
	req.NotEqual(h.hash("203.0.113.9"), newIPHasher().hash("203.0.113.9"))
}

func Test_Submit_Contact_Rejects_Oversized_Body(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	huge := `{"name":"Jordan Lee","email":"jordan@example.com","message":"` + strings.Repeat("a", 200<<10) + `"}`
	rec := f.do(http.MethodPost, "/api/contact", huge)
	req.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	body := decode[envelope](t, rec)
	req.False(body.Success)
	req.Equal("Request body too large", body.Message)

	records, err := f.store.List(context.Background())
	req.NoError(err)
	req.Empty(records)
	req.Empty(f.notifier.sent)
}

func Test_Submit_Contact_Accepts_Body_Under_Limit(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, store.NewMemoryStore(), Resume{})

	long := `{"name":"Jordan Lee","email":"jordan@example.com","message":"` + strings.Repeat("a", 90<<10) + `"}`
	rec := f.do(http.MethodPost, "/api/contact", long)
	req.Equal(http.StatusOK, rec.Code)
}

// strictStore refuses every draft the way a store refuses one that fails
// contact.Draft.Check.
type strictStore struct{ store.Store }

func (strictStore) Create(context.Context, contact.Draft) (contact.Record, error) {
	return contact.Record{}, contact.Draft{Email: "nope"}.Check()
}

func Test_Submit_Contact_Store_Refusal_Is_Bad_Request(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, strictStore{store.NewMemoryStore()}, Resume{})

	rec := f.do(http.MethodPost, "/api/contact", validBody)
	req.Equal(http.StatusBadRequest, rec.Code)
	body := decode[envelope](t, rec)
	req.False(body.Success)
	req.Equal("Invalid form data", body.Message)
	req.NotEmpty(body.Errors)
	req.Empty(f.notifier.sent)
}

type stalledNotifier struct {
	release chan struct{}
}

func (n stalledNotifier) Notify(ctx context.Context, _ contact.Record) error {
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func Test_Submit_Contact_Does_Not_Wait_For_Slow_Notification(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	slow := stalledNotifier{release: make(chan struct{})}
	async := notify.NewAsync(slow, time.Minute, log)
	e := New(Deps{Store: store.NewMemoryStore(), Notifier: async, Log: log})

	start := time.Now()
	r := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	req.Equal(http.StatusOK, rec.Code)
	req.Less(time.Since(start), time.Second)

	close(slow.release)
	req.NoError(async.Wait(context.Background()))
}

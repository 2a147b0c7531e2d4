package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/plan"
	"github.com/claude/trainsync/internal/storage"
	"github.com/claude/trainsync/internal/store"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) GetJSON(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, v)
}

func (m *memKV) PutJSON(_ context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAnchor(t *testing.T) plan.Anchor {
	t.Helper()
	a, err := plan.NewAnchor("2026-03-02", 8, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestMapActivity(t *testing.T) {
	anchor := testAnchor(t)
	kcal := 512.4
	tests := []struct {
		name        string
		activity    Activity
		wantType    models.SessionType
		wantSubType string
		wantWeek    int
	}{
		{"run", Activity{ID: 1, SportType: "Run", StartDate: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)}, models.TypeCardio, "running", 2},
		{"legacy type field", Activity{ID: 2, Type: "Ride", StartDate: time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)}, models.TypeCardio, "cycling", 1},
		{"swim", Activity{ID: 3, SportType: "Swim", StartDate: time.Date(2026, 4, 20, 6, 0, 0, 0, time.UTC)}, models.TypeSwimming, "", 8},
		{"weights before plan", Activity{ID: 4, SportType: "WeightTraining", StartDate: time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)}, models.TypeStrength, "weights", 1},
		{"unmapped defaults to cardio", Activity{ID: 5, SportType: "Kitesurf", StartDate: time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC)}, models.TypeCardio, "", 1},
		{"far after plan clamps", Activity{ID: 6, SportType: "Yoga", Calories: &kcal, StartDate: time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)}, models.TypeYoga, "", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MapActivity(tt.activity, anchor)
			if s.Type != tt.wantType || s.SubType != tt.wantSubType {
				t.Errorf("type = %s/%s, want %s/%s", s.Type, s.SubType, tt.wantType, tt.wantSubType)
			}
			if s.Week != tt.wantWeek {
				t.Errorf("week = %d, want %d", s.Week, tt.wantWeek)
			}
			if s.ID != fmt.Sprintf("strava-%d", tt.activity.ID) || !s.Completed || s.Source != models.SourceStrava {
				t.Errorf("session = %+v", s)
			}
		})
	}
}

func TestMapActivityUnits(t *testing.T) {
	kcal := 612.6
	a := Activity{
		ID:         42,
		Name:       "Morning Run",
		SportType:  "Run",
		Distance:   10012,
		MovingTime: 3130,
		Calories:   &kcal,
		StartDate:  time.Date(2026, 3, 8, 7, 0, 0, 0, time.UTC),
	}
	s := MapActivity(a, testAnchor(t))
	if s.Duration != 52 {
		t.Errorf("duration = %d, want 52", s.Duration)
	}
	if s.Distance == nil || *s.Distance != 10.01 {
		t.Errorf("distance = %v, want 10.01", s.Distance)
	}
	if s.Calories == nil || *s.Calories != 613 {
		t.Errorf("calories = %v, want 613", s.Calories)
	}
	if s.Day != 7 {
		t.Errorf("day = %d, want 7 (Sunday)", s.Day)
	}
	if noDist := MapActivity(Activity{ID: 1, SportType: "Yoga"}, testAnchor(t)); noDist.Distance != nil {
		t.Error("zero distance should stay unset")
	}
}

type staticSource struct{ client *http.Client }

func (s staticSource) HTTPClient(context.Context) (*http.Client, error) { return s.client, nil }

func TestClientListActivities(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":9,"name":"Lunch Swim","sport_type":"Swim","distance":1500,"moving_time":1800,"start_date":"2026-03-04T12:00:00Z"}]`)
	}))
	defer srv.Close()

	c := NewClient(staticSource{srv.Client()}, srv.URL)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	acts, err := c.ListActivities(context.Background(), since, 2, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].ID != 9 || acts[0].Distance != 1500 {
		t.Errorf("activities = %+v", acts)
	}
	if gotQuery.Get("after") != fmt.Sprint(since.Unix()) || gotQuery.Get("page") != "2" || gotQuery.Get("per_page") != "30" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestClientListActivitiesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Rate Limit Exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(staticSource{srv.Client()}, srv.URL)
	if _, err := c.ListActivities(context.Background(), time.Time{}, 1, 30); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v, want 429 error", err)
	}
}

// fakeLister serves pages from a fixed activity list.
type fakeLister struct {
	activities []Activity
	calls      int
	err        error
}

func (f *fakeLister) ListActivities(_ context.Context, _ time.Time, page, perPage int) ([]Activity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	start := (page - 1) * perPage
	if start >= len(f.activities) {
		return nil, nil
	}
	end := min(start+perPage, len(f.activities))
	return f.activities[start:end], nil
}

func activities(n int) []Activity {
	out := make([]Activity, n)
	for i := range out {
		out[i] = Activity{
			ID:         int64(100 + i),
			SportType:  "Run",
			MovingTime: 1800,
			StartDate:  time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func newImportFixture(t *testing.T, lister ActivityLister) (*Importer, *store.Store, *storage.Local) {
	t.Helper()
	local, err := storage.OpenLocal(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { local.Close() })

	now := time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC)
	st := store.New(local, discardLogger(), store.WithClock(func() time.Time { return now }))
	if _, err := st.Load(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	im := NewImporter(lister, st, local, local, testAnchor(t), ImporterConfig{PerPage: 2, MaxPages: 10}, discardLogger())
	return im, st, local
}

func TestImporterPaginatesAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{activities: activities(5)}
	im, st, local := newImportFixture(t, lister)

	res, err := im.Run(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Received != 5 || res.Added != 5 || lister.calls != 3 {
		t.Errorf("result = %+v after %d calls", res, lister.calls)
	}
	if !res.Since.Equal(testAnchor(t).Start) {
		t.Errorf("first run since = %v, want plan start", res.Since)
	}

	last, err := im.LastImport(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !last.Equal(lister.activities[4].StartDate) {
		t.Errorf("last import = %v", last)
	}

	res, err = im.Run(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Added != 0 || len(st.Sessions()) != 5 {
		t.Errorf("second run added %d, store has %d", res.Added, len(st.Sessions()))
	}

	logs, err := local.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].Status != "success" {
		t.Errorf("import logs = %+v", logs)
	}
}

func TestImporterStopsAtMaxPages(t *testing.T) {
	lister := &fakeLister{activities: activities(30)}
	im, _, _ := newImportFixture(t, lister)
	im.cfg.MaxPages = 3

	res, err := im.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if lister.calls != 3 || res.Received != 6 {
		t.Errorf("calls = %d received = %d", lister.calls, res.Received)
	}
}

func TestImporterDryRun(t *testing.T) {
	ctx := context.Background()
	im, st, local := newImportFixture(t, &fakeLister{activities: activities(3)})

	res, err := im.Run(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sessions) != 3 || res.Added != 0 {
		t.Errorf("dry run result = %+v", res)
	}
	if len(st.Sessions()) != 0 {
		t.Error("dry run changed the store")
	}
	if last, _ := im.LastImport(ctx); !last.IsZero() {
		t.Error("dry run recorded last import")
	}
	if logs, _ := local.QueryImportLogs(ctx, 10); len(logs) != 0 {
		t.Error("dry run wrote an import log")
	}
}

func TestImporterRecordsFailure(t *testing.T) {
	ctx := context.Background()
	im, st, local := newImportFixture(t, &fakeLister{err: errors.New("token refresh failed")})

	if _, err := im.Run(ctx, false); err == nil {
		t.Fatal("expected error")
	}
	if len(st.Sessions()) != 0 {
		t.Error("store changed on failure")
	}
	logs, _ := local.QueryImportLogs(ctx, 10)
	if len(logs) != 1 || logs[0].Status != "error" || logs[0].ErrorMessage == nil {
		t.Errorf("logs = %+v", logs)
	}
}

func tokenServer(t *testing.T, access string, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") != "cid" {
			http.Error(w, "missing client id", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"r-1","token_type":"Bearer","expires_in":21600}`, access)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthExchange(t *testing.T) {
	ctx := context.Background()
	hits := 0
	srv := tokenServer(t, "a-1", &hits)
	kv := newMemKV()
	auth := NewAuth(AuthConfig{
		ClientID: "cid", ClientSecret: "secret", RedirectURL: "http://localhost/callback",
		Endpoint: oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}, kv, discardLogger())

	if auth.Connected(ctx) {
		t.Fatal("connected before exchange")
	}
	if _, err := auth.HTTPClient(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HTTPClient err = %v, want ErrNotConnected", err)
	}

	raw, err := auth.AuthCodeURL()
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(raw)
	state := u.Query().Get("state")
	if state == "" || u.Query().Get("client_id") != "cid" {
		t.Fatalf("auth url = %s", raw)
	}

	if err := auth.Exchange(ctx, "forged", "code"); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("forged state err = %v", err)
	}
	// The failed attempt consumed the state.
	if err := auth.Exchange(ctx, state, "code"); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("reused state err = %v", err)
	}

	raw, _ = auth.AuthCodeURL()
	u, _ = url.Parse(raw)
	if err := auth.Exchange(ctx, u.Query().Get("state"), "code"); err != nil {
		t.Fatal(err)
	}
	if !auth.Connected(ctx) || hits != 1 {
		t.Errorf("connected = %v, token hits = %d", auth.Connected(ctx), hits)
	}
}

func TestAuthRefreshPersistsToken(t *testing.T) {
	ctx := context.Background()
	hits := 0
	tokens := tokenServer(t, "a-2", &hits)

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer api.Close()

	kv := newMemKV()
	expired := &oauth2.Token{AccessToken: "a-1", RefreshToken: "r-1", TokenType: "Bearer", Expiry: time.Now().Add(-time.Hour)}
	if err := kv.PutJSON(ctx, keyToken, expired); err != nil {
		t.Fatal(err)
	}
	auth := NewAuth(AuthConfig{
		ClientID: "cid", ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{TokenURL: tokens.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}, kv, discardLogger())

	c := NewClient(auth, api.URL)
	if _, err := c.ListActivities(ctx, time.Time{}, 1, 10); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer a-2" || hits != 1 {
		t.Errorf("authorization = %q after %d refreshes", gotAuth, hits)
	}

	var stored oauth2.Token
	if _, err := kv.GetJSON(ctx, keyToken, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.AccessToken != "a-2" {
		t.Errorf("persisted access token = %q, want a-2", stored.AccessToken)
	}
}

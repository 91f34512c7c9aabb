package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Mess1Ass/AidoruSite/internal/api"
	"github.com/Mess1Ass/AidoruSite/internal/config"
	"github.com/Mess1Ass/AidoruSite/internal/schedule"
)

// newTestHandler wires a Server to an engine backed by a canned schedule
// backend serving one March event.
func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule/month/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("month") != "2026-03" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{
			"_id": "e1",
			"title": "定期公演",
			"date": "2026-03-07",
			"location": "星梦剧场",
			"city": "上海",
			"groups": ["Team SII"],
			"timetable": [{"group": "Team SII", "start_time": "19:00", "end_time": "21:00", "bonus_time": "特典会-握手"}]
		}]`))
	}))
	t.Cleanup(backend.Close)

	eng := schedule.NewEngine(api.NewClient(backend.URL, 5*time.Second))
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewServer(cfg, eng).Handler()
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMonthEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	t.Run("rejects malformed month", func(t *testing.T) {
		for _, q := range []string{"", "2026-3", "202603", "march"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?month="+q, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("month=%q status = %d, want 400", q, rec.Code)
			}
		}
	})

	t.Run("serves events", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?month=2026-03", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Errorf("content type = %q", ct)
		}

		var resp struct {
			Month  string `json:"month"`
			Events []struct {
				ID        string `json:"id"`
				Title     string `json:"title"`
				Timetable []struct {
					BonusLabel      string   `json:"bonus_time"`
					BonusCategories []string `json:"bonus_categories"`
				} `json:"timetable"`
			} `json:"events"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Month != "2026-03" || len(resp.Events) != 1 {
			t.Fatalf("resp = %+v", resp)
		}
		ev := resp.Events[0]
		if ev.ID != "e1" || ev.Title != "定期公演" {
			t.Errorf("event = %+v", ev)
		}
		if len(ev.Timetable) != 1 || ev.Timetable[0].BonusLabel != "特典会-握手" {
			t.Fatalf("timetable = %+v", ev.Timetable)
		}
		if got := ev.Timetable[0].BonusCategories; len(got) != 2 || got[0] != "特典会" {
			t.Errorf("bonus categories = %v", got)
		}
	})

	t.Run("empty month yields an empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?month=2026-05", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"events":[]`) {
			t.Errorf("events not an empty array: %s", rec.Body.String())
		}
	})
}

func TestFeedEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed.ics?month=2026-03", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "UID:e1@aidorusite") {
		t.Errorf("feed body:\n%s", body)
	}
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "ed", Password: "s3cret"}
	h := newTestHandler(t, cfg)

	t.Run("health stays open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("health status = %d", rec.Code)
		}
	})

	t.Run("missing credentials rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?month=2026-03", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("challenge header missing")
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/month?month=2026-03", nil)
		req.SetBasicAuth("ed", "wrong")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid credentials pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/month?month=2026-03", nil)
		req.SetBasicAuth("ed", "s3cret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("blank credentials disable auth", func(t *testing.T) {
		open := config.DefaultConfig()
		open.BasicAuth = &config.BasicAuthConfig{}
		hOpen := newTestHandler(t, open)

		rec := httptest.NewRecorder()
		hOpen.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month?month=2026-03", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
		}
	})
}

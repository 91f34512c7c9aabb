// Package web is the read-only companion API: it exposes the synced
// schedule state over HTTP for local tooling and calendar subscriptions.
// The sync engine stays the only writer of the month cache; handlers here
// only read through it.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mess1Ass/AidoruSite/internal/config"
	"github.com/Mess1Ass/AidoruSite/internal/ics"
	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
	"github.com/Mess1Ass/AidoruSite/internal/model"
	"github.com/Mess1Ass/AidoruSite/internal/schedule"
)

// Server serves /health, /api/month and /feed.ics.
type Server struct {
	cfg *config.Config
	eng *schedule.Engine
	mux *http.ServeMux
}

func NewServer(cfg *config.Config, eng *schedule.Engine) *Server {
	s := &Server{
		cfg: cfg,
		eng: eng,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/feed.ics", s.handleFeed)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Blank username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="AidoruCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// monthResponse is the JSON response shape for /api/month.
type monthResponse struct {
	Month  string     `json:"month"`
	Events []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly view of one schedule event.
type eventDTO struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Date      string         `json:"date"`
	Location  string         `json:"location"`
	City      string         `json:"city,omitempty"`
	Groups    []string       `json:"groups"`
	Imgs      []imageDTO     `json:"imgs"`
	Timetable []timetableDTO `json:"timetable"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

type imageDTO struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

type timetableDTO struct {
	Group           string   `json:"group"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	BonusLabel      string   `json:"bonus_time"`
	BonusCategories []string `json:"bonus_categories"`
}

// handleMonth serves the event list for one month through the engine, so a
// cached month answers without a backend call.
//
// GET /api/month?month=YYYY-MM
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("month")
	if !schedule.ValidMonthKey(key) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	year, month := splitMonthKey(key)

	events, err := s.eng.FetchMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := monthResponse{Month: key, Events: make([]eventDTO, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, toEventDTO(ev))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFeed serves the month as text/calendar.
//
// GET /feed.ics?month=YYYY-MM
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("month")
	if !schedule.ValidMonthKey(key) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	year, month := splitMonthKey(key)

	events, err := s.eng.FetchMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.MonthFeed(key, events)))
}

func toEventDTO(ev model.ScheduleEvent) eventDTO {
	dto := eventDTO{
		ID:        ev.ID,
		Title:     ev.Title,
		Date:      ev.Date,
		Location:  ev.Location,
		City:      ev.City,
		Groups:    ev.Groups,
		Imgs:      make([]imageDTO, 0, len(ev.Images)),
		Timetable: make([]timetableDTO, 0, len(ev.Timetable)),
		UpdatedAt: ev.UpdatedAt,
	}
	for _, img := range ev.Images {
		dto.Imgs = append(dto.Imgs, imageDTO{
			Filename:    img.Filename,
			URL:         img.Ref,
			ContentType: img.ContentType,
		})
	}
	for _, slot := range ev.Timetable {
		dto.Timetable = append(dto.Timetable, timetableDTO{
			Group:           slot.Group,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			BonusLabel:      slot.BonusLabel,
			BonusCategories: slot.BonusCategories,
		})
	}
	return dto
}

// splitMonthKey assumes key already passed ValidMonthKey.
func splitMonthKey(key string) (year, month int) {
	parts := strings.SplitN(key, "-", 2)
	year, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	return year, month
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

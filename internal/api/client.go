// Package api is the HTTP client for the schedule backend. It owns the wire
// shapes and the shared response policy; mapping to the client event model
// lives in internal/schedule.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
)

const defaultTimeout = 15 * time.Second

// Client talks to the schedule backend.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// "https://ttapi.tool4me.cn".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Error is a transport failure: the backend answered with a non-2xx status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// EventRecord mirrors one schedule record on the wire.
type EventRecord struct {
	ID        string            `json:"id"`
	MongoID   string            `json:"_id"`
	Title     string            `json:"title"`
	Date      string            `json:"date"`
	Location  string            `json:"location"`
	City      string            `json:"city"`
	Groups    []string          `json:"groups"`
	Imgs      []ImageRecord     `json:"imgs"`
	Timetable []TimetableRecord `json:"timetable"`
	UpdatedAt string            `json:"updated_at"`
	CreatedAt string            `json:"created_at"`
}

// RecordID returns whichever identifier field the backend populated.
func (r EventRecord) RecordID() string {
	if r.MongoID != "" {
		return r.MongoID
	}
	return r.ID
}

// ImageRecord is one persisted image reference on the wire.
type ImageRecord struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// TimetableRecord is one timetable slot on the wire.
type TimetableRecord struct {
	Group     string `json:"group"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BonusTime string `json:"bonus_time"`
}

// ImageInfo is one entry of the images_info manifest sent with create/update
// so the server can reconcile which images to keep.
type ImageInfo struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	IsExisting  bool   `json:"isExisting"`
	ContentType string `json:"content_type"`
}

// FilePart is one staged upload carried as an "imgs" multipart file part.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is the multipart payload shared by create and update.
type Submission struct {
	City     string
	Location string
	Date     string
	Title    string
	Groups   []string
	Files    []FilePart
	Manifest []ImageInfo
}

// MonthSchedules fetches all schedule records for a YYYY-MM key.
func (c *Client) MonthSchedules(ctx context.Context, key string) ([]EventRecord, error) {
	body, err := c.get(ctx, "/schedule/month/?month="+url.QueryEscape(key))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []EventRecord{}, nil
	}

	var records []EventRecord
	if err := json.Unmarshal(body, &records); err != nil {
		// Unexpected payload shape: degrade to an empty list.
		appLog.Error("month payload not parseable, treating as empty", err, "month", key)
		return []EventRecord{}, nil
	}
	return records, nil
}

// CreateSchedule submits a new schedule and returns the authoritative record.
func (c *Client) CreateSchedule(ctx context.Context, sub *Submission) (*EventRecord, error) {
	return c.submit(ctx, http.MethodPost, "/schedule/create/", sub)
}

// UpdateSchedule submits changed fields for an existing schedule and returns
// the authoritative record.
func (c *Client) UpdateSchedule(ctx context.Context, id string, sub *Submission) (*EventRecord, error) {
	return c.submit(ctx, http.MethodPut, "/schedule/update/"+url.PathEscape(id)+"/", sub)
}

// DeleteSchedule removes a schedule. A 204-style empty success body is
// expected.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/schedule/delete/"+url.PathEscape(id)+"/", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// DeleteScheduleImage removes one persisted image from a schedule.
func (c *Client) DeleteScheduleImage(ctx context.Context, id, filename string) error {
	path := "/schedule/" + url.PathEscape(id) + "/imageDelete/" + url.PathEscape(filename) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) submit(ctx context.Context, method, path string, sub *Submission) (*EventRecord, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if respBody == nil {
		return nil, fmt.Errorf("backend returned no record for %s %s", method, path)
	}

	var record EventRecord
	if err := json.Unmarshal(respBody, &record); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &record, nil
}

// encodeSubmission builds the multipart body: plain fields, repeated
// "groups", one "imgs" file part per staged upload, and the images_info
// manifest covering every image.
func encodeSubmission(sub *Submission) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"city", sub.City},
		{"location", sub.Location},
		{"date", sub.Date},
		{"title", sub.Title},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, g := range sub.Groups {
		if err := w.WriteField("groups", g); err != nil {
			return nil, "", err
		}
	}

	for _, f := range sub.Files {
		part, err := createFilePart(w, "imgs", f.Filename, f.ContentType)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	manifest := sub.Manifest
	if manifest == nil {
		manifest = []ImageInfo{}
	}
	info, err := json.Marshal(manifest)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("images_info", string(info)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// createFilePart is CreateFormFile with a real content type instead of
// application/octet-stream.
func createFilePart(w *multipart.Writer, field, filename, contentType string) (io.Writer, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// do issues the request and applies the shared response policy:
//
//   - non-2xx: *Error carrying the message/detail field when present
//   - 2xx with a JSON body: the raw body
//   - 2xx empty or non-JSON (204 and friends): nil, which callers treat as
//     "no data" rather than an error
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Status:  resp.StatusCode,
			Message: extractMessage(body, resp.Status),
		}
	}

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return nil, nil
	}
	if len(body) == 0 {
		return nil, nil
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, nil
	}
	return body, nil
}

// extractMessage pulls a human-readable error out of a failure body,
// preferring "message", then "detail", then the HTTP status text.
func extractMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return fallback
}

// Package schedule implements the synchronization core: the month cache,
// the client-side store, and the engine that keeps both consistent with the
// backend across fetch, create, update and delete.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Mess1Ass/AidoruSite/internal/api"
	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
	"github.com/Mess1Ass/AidoruSite/internal/model"
	"github.com/Mess1Ass/AidoruSite/internal/normalize"
)

// ErrValidation marks a submission rejected before any request was issued.
var ErrValidation = errors.New("schedule: required fields missing")

// ErrNotFound is returned for mutations targeting an unknown event id.
var ErrNotFound = errors.New("schedule: event not found")

// Draft is the authored form state behind create and update. Date accepts
// any shape normalize.CanonicalDate understands. Images is the authored
// list maintained by the image asset manager, existing and staged entries
// in order.
type Draft struct {
	Title    string
	Date     any
	Location string
	City     string
	Groups   []string
	Images   []model.ImageAsset
}

// submissionFields is what must be present before a draft may leave the
// client.
type submissionFields struct {
	Title string `validate:"required"`
	Date  string `validate:"required,datetime=2006-01-02"`
}

// Engine orchestrates backend round-trips and keeps the store and the
// month cache consistent. Mutations never touch local state until the
// backend has confirmed them.
type Engine struct {
	client      *api.Client
	store       *Store
	validate    *validator.Validate
	defaultCity string
}

type Option func(*Engine)

// WithDefaultCity sets the city submitted when the draft leaves it blank.
func WithDefaultCity(city string) Option {
	return func(e *Engine) {
		if city != "" {
			e.defaultCity = city
		}
	}
}

func NewEngine(client *api.Client, opts ...Option) *Engine {
	e := &Engine{
		client:      client,
		store:       NewStore(),
		validate:    validator.New(),
		defaultCity: "上海",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the engine's state for read-only consumers.
func (e *Engine) Store() *Store {
	return e.store
}

// FetchMonth returns the events for one calendar month, serving from the
// month cache when possible. On a miss it fetches, maps every record into
// the client shape, and populates the cache. On failure prior state is left
// untouched.
func (e *Engine) FetchMonth(ctx context.Context, year, month int) ([]model.ScheduleEvent, error) {
	key := MonthKey(year, month)

	e.store.mu.Lock()
	if cached, ok := e.store.cache.Get(key); ok {
		e.store.events = cloneEvents(cached)
		e.store.mu.Unlock()
		return cached, nil
	}
	e.store.mu.Unlock()

	records, err := e.client.MonthSchedules(ctx, key)
	if err != nil {
		appLog.Error("month fetch failed", err, "month", key)
		return nil, err
	}

	events := make([]model.ScheduleEvent, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}

	e.store.mu.Lock()
	e.store.cache.Put(key, events)
	e.store.events = cloneEvents(events)
	e.store.mu.Unlock()

	appLog.Info("month fetched", "month", key, "event_count", len(events))
	return events, nil
}

// Refresh drops the cached entry for a month and fetches it again. Used by
// the periodic refresh loop; the evict-then-fetch pair preserves the
// explicit-eviction cache contract.
func (e *Engine) Refresh(ctx context.Context, year, month int) ([]model.ScheduleEvent, error) {
	key := MonthKey(year, month)
	e.store.mu.Lock()
	e.store.cache.Evict(key)
	e.store.mu.Unlock()
	return e.FetchMonth(ctx, year, month)
}

// Create submits a new event. On success the authoritative record is
// appended to the event list and the affected month's cache entry is
// evicted in the same step. On failure nothing local changes, so the caller
// keeps its draft and may retry.
func (e *Engine) Create(ctx context.Context, draft Draft) (model.ScheduleEvent, error) {
	sub, err := e.buildSubmission(draft)
	if err != nil {
		return model.ScheduleEvent{}, err
	}

	record, err := e.client.CreateSchedule(ctx, sub)
	if err != nil {
		appLog.Error("create failed", err, "title", draft.Title)
		return model.ScheduleEvent{}, err
	}

	ev := eventFromRecord(*record)
	e.store.mu.Lock()
	e.store.events = append(e.store.events, ev)
	e.store.cache.Evict(ev.MonthKey())
	e.store.mu.Unlock()

	appLog.Info("event created", "id", ev.ID, "date", ev.Date)
	return ev, nil
}

// Update submits changed fields for an existing event. On success the
// matching event is replaced in place and both the old and the new month's
// cache entries are evicted; they differ when the date moved.
func (e *Engine) Update(ctx context.Context, id string, draft Draft) (model.ScheduleEvent, error) {
	prev, ok := e.store.EventByID(id)
	if !ok {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	sub, err := e.buildSubmission(draft)
	if err != nil {
		return model.ScheduleEvent{}, err
	}

	record, err := e.client.UpdateSchedule(ctx, id, sub)
	if err != nil {
		appLog.Error("update failed", err, "id", id)
		return model.ScheduleEvent{}, err
	}

	ev := eventFromRecord(*record)
	e.store.mu.Lock()
	for i := range e.store.events {
		if e.store.events[i].ID == id {
			e.store.events[i] = ev
			break
		}
	}
	e.store.cache.Evict(prev.MonthKey())
	e.store.cache.Evict(ev.MonthKey())
	e.store.mu.Unlock()

	appLog.Info("event updated", "id", ev.ID, "date", ev.Date)
	return ev, nil
}

// Delete removes an event. The local list and cache change only after the
// backend confirmed the deletion.
func (e *Engine) Delete(ctx context.Context, id string) error {
	prev, ok := e.store.EventByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := e.client.DeleteSchedule(ctx, id); err != nil {
		appLog.Error("delete failed", err, "id", id)
		return err
	}

	e.store.mu.Lock()
	kept := e.store.events[:0]
	for _, ev := range e.store.events {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	e.store.events = kept
	e.store.cache.Evict(prev.MonthKey())
	e.store.mu.Unlock()

	appLog.Info("event deleted", "id", id, "month", prev.MonthKey())
	return nil
}

// DeleteImage removes one persisted image from an event. The round-trip
// must succeed before anything local changes; on failure the stored event
// keeps its image list so the UI and the server never diverge.
func (e *Engine) DeleteImage(ctx context.Context, eventID, filename string) error {
	if err := e.client.DeleteScheduleImage(ctx, eventID, filename); err != nil {
		appLog.Error("image delete failed", err, "id", eventID, "filename", filename)
		return err
	}

	e.store.mu.Lock()
	for i := range e.store.events {
		if e.store.events[i].ID != eventID {
			continue
		}
		imgs := e.store.events[i].Images
		kept := make([]model.ImageAsset, 0, len(imgs))
		for _, img := range imgs {
			if img.Filename != filename {
				kept = append(kept, img)
			}
		}
		e.store.events[i].Images = kept
		break
	}
	e.store.mu.Unlock()

	appLog.Info("image deleted", "id", eventID, "filename", filename)
	return nil
}

// buildSubmission validates the draft and assembles the multipart payload:
// normalized text fields, the filtered group list, file parts for staged
// uploads, and the images_info manifest covering every authored image.
func (e *Engine) buildSubmission(draft Draft) (*api.Submission, error) {
	date := normalize.CanonicalDate(draft.Date)

	fields := submissionFields{Title: strings.TrimSpace(draft.Title), Date: date}
	if err := e.validate.Struct(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	city := strings.TrimSpace(draft.City)
	if city == "" {
		city = e.defaultCity
	}

	sub := &api.Submission{
		City:     normalize.Punctuation(city),
		Location: normalize.Punctuation(draft.Location),
		Date:     date,
		Title:    normalize.Punctuation(draft.Title),
	}

	// Groups may legitimately be empty; blank names are filtered, not
	// rejected.
	for _, g := range draft.Groups {
		g = strings.TrimSpace(normalize.Punctuation(g))
		if g != "" {
			sub.Groups = append(sub.Groups, g)
		}
	}

	for _, img := range draft.Images {
		if !img.IsExisting && len(img.Payload) > 0 {
			sub.Files = append(sub.Files, api.FilePart{
				Filename:    img.Filename,
				ContentType: img.ContentType,
				Data:        img.Payload,
			})
		}
		sub.Manifest = append(sub.Manifest, api.ImageInfo{
			Filename:    img.Filename,
			URL:         img.Ref,
			IsExisting:  img.IsExisting,
			ContentType: img.ContentType,
		})
	}

	return sub, nil
}

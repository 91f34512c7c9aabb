// Package images maintains the authored image list while an event is being
// created or edited: persisted images must survive new selections, repeated
// selections must not duplicate staged files, and every transient preview
// handle is released exactly once.
package images

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
	"github.com/Mess1Ass/AidoruSite/internal/model"
)

const (
	handleScheme  = "mem://"
	previewMaxDim = 320

	// The original editor falls back to JPEG when the host gives no type.
	defaultContentType = "image/jpeg"
)

// StagedFile is the single typed ingestion boundary for host file
// selections. Whatever shape the host file-picker produces is normalized
// into this before it reaches the manager; nothing downstream inspects ad
// hoc shapes.
type StagedFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// RemoteDeleter performs the server round-trip that removes one persisted
// image. Satisfied by *schedule.Engine.
type RemoteDeleter interface {
	DeleteImage(ctx context.Context, eventID, filename string) error
}

// Manager owns the authored image list of the editor session and the
// handle table backing staged previews.
type Manager struct {
	assets  []model.ImageAsset
	handles map[string][]byte
}

func NewManager() *Manager {
	return &Manager{
		assets:  []model.ImageAsset{},
		handles: make(map[string][]byte),
	}
}

// Load begins an edit session from an event's persisted images, releasing
// anything staged by a previous session.
func (m *Manager) Load(assets []model.ImageAsset) {
	m.releaseStaged()
	m.assets = make([]model.ImageAsset, len(assets))
	copy(m.assets, assets)
}

// Assets returns a snapshot of the authored list, existing entries first in
// their original order, then staged entries in selection order.
func (m *Manager) Assets() []model.ImageAsset {
	out := make([]model.ImageAsset, len(m.assets))
	copy(out, m.assets)
	return out
}

// ActiveHandles returns how many transient handles are currently held.
func (m *Manager) ActiveHandles() int {
	return len(m.handles)
}

// Preview returns the downscaled preview bytes for a staged ref. The second
// return is false for released, unknown or undecodable entries.
func (m *Manager) Preview(ref string) ([]byte, bool) {
	data, ok := m.handles[ref]
	if !ok || data == nil {
		return nil, false
	}
	return data, true
}

// AddSelection folds a new host file selection into the authored list.
//
// With no existing images (pure create flow) the staged list is replaced
// wholesale; handles of the replaced entries are released. With existing
// images (edit flow) only files whose names are not already staged are
// appended, so a selection callback firing twice for the same files is
// idempotent. The result keeps relative order:
// existing ++ previously-staged ++ newly-staged.
func (m *Manager) AddSelection(files []StagedFile) {
	existing := make([]model.ImageAsset, 0, len(m.assets))
	staged := make([]model.ImageAsset, 0, len(m.assets))
	for _, a := range m.assets {
		if a.IsExisting {
			existing = append(existing, a)
		} else {
			staged = append(staged, a)
		}
	}

	if len(existing) == 0 {
		for _, a := range staged {
			m.release(a.Ref)
		}
		next := make([]model.ImageAsset, 0, len(files))
		for _, f := range files {
			next = append(next, m.stage(f))
		}
		m.assets = next
		return
	}

	stagedNames := make(map[string]bool, len(staged))
	for _, a := range staged {
		stagedNames[a.Filename] = true
	}

	merged := append(existing, staged...)
	for _, f := range files {
		if stagedNames[f.Name] {
			continue
		}
		merged = append(merged, m.stage(f))
	}
	m.assets = merged
}

// Remove drops the asset at index. A persisted image is removed from the
// server first; when that fails the local list stays unchanged. A staged
// image is dropped immediately and its handle released.
func (m *Manager) Remove(ctx context.Context, index int, eventID string, remote RemoteDeleter) error {
	if index < 0 || index >= len(m.assets) {
		return fmt.Errorf("images: index %d out of range", index)
	}

	target := m.assets[index]
	if target.IsExisting {
		if remote == nil {
			return fmt.Errorf("images: no remote deleter for persisted image %q", target.Filename)
		}
		if err := remote.DeleteImage(ctx, eventID, target.Filename); err != nil {
			// No local removal without confirmed server removal.
			return err
		}
	} else {
		m.release(target.Ref)
	}

	m.assets = append(m.assets[:index], m.assets[index+1:]...)
	return nil
}

// Reset discards the session: the authored list is cleared and every staged
// handle released. Called when the editor is closed or the view torn down.
func (m *Manager) Reset() {
	m.releaseStaged()
	m.assets = []model.ImageAsset{}
}

// stage converts one selected file into a staged ImageAsset with a fresh
// transient handle.
func (m *Manager) stage(f StagedFile) model.ImageAsset {
	ref := handleScheme + uuid.NewString()
	m.handles[ref] = buildPreview(f.Data)

	ct := f.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	return model.ImageAsset{
		Filename:    f.Name,
		Ref:         ref,
		ContentType: ct,
		Payload:     f.Data,
		IsExisting:  false,
	}
}

// release frees a handle. A second release of the same ref is a no-op, so
// every handle is released at most once across removal, reset and teardown.
func (m *Manager) release(ref string) {
	if _, ok := m.handles[ref]; !ok {
		appLog.Debug("image handle already released", "ref", ref)
		return
	}
	delete(m.handles, ref)
}

func (m *Manager) releaseStaged() {
	for _, a := range m.assets {
		if !a.IsExisting {
			m.release(a.Ref)
		}
	}
}

// buildPreview decodes the upload and produces a downscaled PNG for
// display. Undecodable payloads are tolerated: the handle still exists, it
// just has no preview.
func buildPreview(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		appLog.Debug("preview decode failed", "err", err)
		return nil
	}
	thumb := imaging.Fit(img, previewMaxDim, previewMaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil
	}
	return buf.Bytes()
}

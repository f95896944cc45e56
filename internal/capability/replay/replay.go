// Package replay implements invocation capture and deterministic
// re-issue. While a recording is active its handler observes every
// method invocation passing through the kernel; Replay re-issues the
// captured sequence against any mediated handle, so the full chain of
// that handle (access control, invariants, auditing) applies again.
package replay

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
	"github.com/intercede-dev/intercede/internal/dynscope"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// Call is one captured invocation.
type Call struct {
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// Recording is an ordered invocation sequence captured during one
// Record activation.
type Recording struct {
	ID        values.RecordingID `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Calls     []Call             `json:"calls"`
}

// Recorder captures invocations into named recordings and replays
// them. Capture is slot-gated: invocations outside Record are not
// observed.
type Recorder struct {
	slot  *dynscope.Slot[*Recording]
	clock func() time.Time

	mu         sync.Mutex
	recordings map[values.RecordingID]*Recording
	order      []values.RecordingID
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		slot:       dynscope.NewSlot[*Recording]("replay recorder"),
		clock:      time.Now,
		recordings: make(map[values.RecordingID]*Recording),
	}
}

// Attach registers the capture handler on the invoke chain of k. The
// handler observes and defers; invocations execute normally while
// being recorded.
func (r *Recorder) Attach(k *kernel.Kernel) {
	k.OnInvoke(r.capture)
}

// Record runs body with capture active and stores the resulting
// recording. The recording is stored even when body fails, so a
// partial sequence can still be inspected; the body's error is
// returned alongside the ID.
func (r *Recorder) Record(body func() error) (values.RecordingID, error) {
	rec := &Recording{
		ID:        values.NewRecordingID(),
		CreatedAt: r.clock(),
	}
	err := r.slot.Activate(rec, body)

	r.mu.Lock()
	r.recordings[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	r.mu.Unlock()

	return rec.ID, err
}

// Active reports whether a recording is currently in progress.
func (r *Recorder) Active() bool {
	return r.slot.Active()
}

// Replay re-issues the recorded invocations against h, in capture
// order, and returns each call's result. The first failing invocation
// aborts the replay.
func (r *Recorder) Replay(h *kernel.Handle, id values.RecordingID) ([]any, error) {
	rec, err := r.GetRecording(id)
	if err != nil {
		return nil, err
	}

	results := make([]any, 0, len(rec.Calls))
	for i, call := range rec.Calls {
		out, err := h.Invoke(call.Method, call.Args...)
		if err != nil {
			return results, fmt.Errorf("replay of %s stopped at call %d (%s): %w", id, i, call.Method, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// GetRecording returns a copy of the identified recording.
func (r *Recorder) GetRecording(id values.RecordingID) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordings[id]
	if !ok {
		return Recording{}, apperrors.NewNotFoundError("recording", id.String())
	}
	out := *rec
	out.Calls = append([]Call(nil), rec.Calls...)
	return out, nil
}

// RecordingIDs lists all stored recordings in creation order.
func (r *Recorder) RecordingIDs() []values.RecordingID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]values.RecordingID(nil), r.order...)
}

// Clear removes the identified recordings, or every recording when
// called with no arguments.
func (r *Recorder) Clear(ids ...values.RecordingID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(ids) == 0 {
		r.recordings = make(map[values.RecordingID]*Recording)
		r.order = nil
		return
	}
	for _, id := range ids {
		delete(r.recordings, id)
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.recordings[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

// recordingDoc is the serialized form of a recording. The ID travels
// as its string form so documents stay hand-editable.
type recordingDoc struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Calls     []Call    `yaml:"calls"`
}

// ExportYAML serializes every stored recording, in creation order, for
// offline inspection or transfer to another recorder.
func (r *Recorder) ExportYAML() ([]byte, error) {
	r.mu.Lock()
	docs := make([]recordingDoc, 0, len(r.order))
	for _, id := range r.order {
		rec := r.recordings[id]
		docs = append(docs, recordingDoc{
			ID:        rec.ID.String(),
			CreatedAt: rec.CreatedAt,
			Calls:     rec.Calls,
		})
	}
	r.mu.Unlock()

	data, err := yaml.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize recordings: %w", err)
	}
	return data, nil
}

// ImportYAML loads recordings previously produced by ExportYAML,
// keeping their identifiers. Existing recordings with the same ID are
// replaced.
func (r *Recorder) ImportYAML(data []byte) error {
	var docs []recordingDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("failed to parse recordings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range docs {
		id, err := values.ParseRecordingID(doc.ID)
		if err != nil {
			return err
		}
		if _, exists := r.recordings[id]; !exists {
			r.order = append(r.order, id)
		}
		r.recordings[id] = &Recording{
			ID:        id,
			CreatedAt: doc.CreatedAt,
			Calls:     doc.Calls,
		}
	}
	return nil
}

func (r *Recorder) capture(op *operation.Operation) operation.Decision {
	rec, ok := r.slot.CurrentOrZero()
	if !ok {
		return operation.Undecided()
	}
	rec.Calls = append(rec.Calls, Call{
		Method: op.Key,
		Args:   append([]any(nil), op.Args...),
	})
	return operation.Undecided()
}

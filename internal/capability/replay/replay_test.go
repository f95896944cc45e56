package replay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
	"github.com/intercede-dev/intercede/internal/kernel"
)

func denyAll(op *operation.Operation) operation.Decision {
	return operation.Deny("blocked")
}

type counter struct {
	total int
}

func newCounterHandle(t *testing.T, r *Recorder) (*kernel.Handle, *counter) {
	t.Helper()
	c := &counter{}
	target := map[string]any{
		"add":  func(n int) int { c.total += n; return c.total },
		"fail": func() (int, error) { return 0, errors.New("always fails") },
	}
	k, err := kernel.New(target)
	require.NoError(t, err)
	r.Attach(k)
	return k.Handle(), c
}

func Test_Recorder_RecordAndReplay(t *testing.T) {
	r := NewRecorder()
	h, c := newCounterHandle(t, r)

	id, err := r.Record(func() error {
		if _, err := h.Invoke("add", 10); err != nil {
			return err
		}
		_, err := h.Invoke("add", 5)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 15, c.total)

	rec, err := r.GetRecording(id)
	require.NoError(t, err)
	assert.Equal(t, []Call{{Method: "add", Args: []any{10}}, {Method: "add", Args: []any{5}}}, rec.Calls)

	results, err := r.Replay(h, id)
	require.NoError(t, err)
	assert.Equal(t, []any{25, 30}, results)
	assert.Equal(t, 30, c.total)
}

func Test_Recorder_OutsideRecordInvisible(t *testing.T) {
	r := NewRecorder()
	h, _ := newCounterHandle(t, r)

	_, err := h.Invoke("add", 1)
	require.NoError(t, err)

	id, err := r.Record(func() error { return nil })
	require.NoError(t, err)

	rec, err := r.GetRecording(id)
	require.NoError(t, err)
	assert.Empty(t, rec.Calls)
}

func Test_Recorder_PartialRecordingKept(t *testing.T) {
	r := NewRecorder()
	h, _ := newCounterHandle(t, r)

	boom := errors.New("boom")
	id, err := r.Record(func() error {
		if _, err := h.Invoke("add", 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := r.GetRecording(id)
	require.NoError(t, err)
	assert.Len(t, rec.Calls, 1)
}

func Test_Recorder_ReplayStopsOnFailure(t *testing.T) {
	r := NewRecorder()
	h, _ := newCounterHandle(t, r)

	id, err := r.Record(func() error {
		if _, err := h.Invoke("add", 1); err != nil {
			return err
		}
		_, err := h.Invoke("fail")
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)

	results, err := r.Replay(h, id)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func Test_Recorder_GetRecording_Unknown(t *testing.T) {
	r := NewRecorder()
	_, err := r.GetRecording(values.NewRecordingID())
	assert.Error(t, err)
}

func Test_Recorder_RecordingIDsAndClear(t *testing.T) {
	r := NewRecorder()
	h, _ := newCounterHandle(t, r)

	var ids []values.RecordingID
	for i := 0; i < 3; i++ {
		id, err := r.Record(func() error {
			_, err := h.Invoke("add", 1)
			return err
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, ids, r.RecordingIDs())

	r.Clear(ids[1])
	assert.Equal(t, []values.RecordingID{ids[0], ids[2]}, r.RecordingIDs())

	r.Clear()
	assert.Empty(t, r.RecordingIDs())
	_, err := r.GetRecording(ids[0])
	assert.Error(t, err)
}

func Test_Recorder_YAMLRoundTrip(t *testing.T) {
	r := NewRecorder()
	h, _ := newCounterHandle(t, r)

	id, err := r.Record(func() error {
		_, err := h.Invoke("add", 3)
		return err
	})
	require.NoError(t, err)

	data, err := r.ExportYAML()
	require.NoError(t, err)

	restored := NewRecorder()
	require.NoError(t, restored.ImportYAML(data))

	rec, err := restored.GetRecording(id)
	require.NoError(t, err)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "add", rec.Calls[0].Method)
	assert.Equal(t, []values.RecordingID{id}, restored.RecordingIDs())
}

func Test_Recorder_ImportYAML_Invalid(t *testing.T) {
	r := NewRecorder()
	assert.Error(t, r.ImportYAML([]byte("{{{")))
	assert.Error(t, r.ImportYAML([]byte("- id: not-a-uuid\n  calls: []\n")))
}

func Test_Recorder_ReplayAppliesHandleChain(t *testing.T) {
	r := NewRecorder()
	h, c := newCounterHandle(t, r)

	id, err := r.Record(func() error {
		_, err := h.Invoke("add", 2)
		return err
	})
	require.NoError(t, err)

	// Replay against a second handle whose chain blocks the call.
	blockedTarget := map[string]any{
		"add": func(n int) int { c.total += n; return c.total },
	}
	blocked, err := kernel.New(blockedTarget)
	require.NoError(t, err)
	blocked.OnInvoke(denyAll)

	_, err = r.Replay(blocked.Handle(), id)
	assert.Error(t, err)
	assert.Equal(t, 2, c.total)
}

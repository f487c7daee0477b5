package tracing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorder_FinalizeWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	rec.RecordIntent("workspace:delete", []string{"app:start"})
	rec.RecordHookPoint("workspace:delete", "shutdown", 2, 0)
	rec.RecordEvent("workspace:deleted")

	path, err := rec.Finalize()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, rec.RunID()+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var trace Trace
	require.NoError(t, json.Unmarshal(data, &trace))
	require.Equal(t, rec.RunID(), trace.RunID)
	require.Len(t, trace.Entries, 3)
	require.Equal(t, "intent", trace.Entries[0].Kind)
	require.Equal(t, "hookPoint", trace.Entries[1].Kind)
	require.Equal(t, "event", trace.Entries[2].Kind)
}

func TestRecorder_UniqueRunIDsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	a, err := NewRecorder(dir)
	require.NoError(t, err)
	b, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NotEqual(t, a.RunID(), b.RunID())
}

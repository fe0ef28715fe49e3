package csvlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateMakesImmediateParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox", "pt1.csv")

	w, err := Create(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append("1,2\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1,2\n", string(data))
}

func TestCreateFailsWhenGrandparentMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox", "sensors", "pt1.csv")

	_, err := Create(path)
	require.Error(t, err, "a missing grandparent directory must be a fatal error, not silently created")
}

func TestAppendIsConcurrencySafe(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "commands.csv"))
	require.NoError(t, err)
	defer w.Close()

	const n = 50
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			_ = w.Append("x\n")
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	data, err := os.ReadFile(filepath.Join(dir, "commands.csv"))
	require.NoError(t, err)
	require.Len(t, data, n*2)
}

func TestWriteSatisfiesIOWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "sent.csv"))
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

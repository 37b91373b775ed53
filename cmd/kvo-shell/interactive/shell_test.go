package interactive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return newShell(&out, io.Discard, Options{}), &out
}

// run executes lines and returns the output of the last one.
func run(t *testing.T, s *Shell, out *bytes.Buffer, lines ...string) string {
	t.Helper()
	for _, line := range lines {
		out.Reset()
		assert.False(t, s.Execute(context.Background(), line), "line %q exited", line)
	}
	return out.String()
}

func TestShellSubscribeLifecycle(t *testing.T) {
	s, out := newTestShell(t)

	run(t, s, out,
		"new ctrl Controller",
		"new player Player",
		"declare player volume int64 0",
	)

	got := run(t, s, out, "observe ctrl player volume new ctx1")
	assert.Contains(t, got, "register +1")

	got = run(t, s, out, "observe ctrl player volume new ctx1")
	assert.Contains(t, got, "register +0")
	assert.Contains(t, got, "1 live")

	got = run(t, s, out, "list")
	assert.Contains(t, got, "ctrl -> player.volume [new] ctx=ctx1")

	run(t, s, out, "set player volume 5")
	got = run(t, s, out, "objects")
	assert.Contains(t, got, "notifications=1")

	got = run(t, s, out, "unobserve ctrl player volume ctx1")
	assert.Contains(t, got, "unregister +1")

	got = run(t, s, out, "unobserve ctrl player volume ctx1")
	assert.Contains(t, got, "unregister +0")
	assert.NotContains(t, got, "WARNING")

	got = run(t, s, out, "list")
	assert.Contains(t, got, "No subscriptions.")
}

func TestShellInvalidateTearsDown(t *testing.T) {
	s, out := newTestShell(t)

	run(t, s, out,
		"new ctrl",
		"new player",
		"declare player title string",
		"observe ctrl player title",
		"observe ctrl player title new,old other",
	)

	got := run(t, s, out, "invalidate player")
	assert.Contains(t, got, "unregister +2")
	assert.Contains(t, got, "0 live")

	got = run(t, s, out, "stats")
	assert.Contains(t, got, "Teardowns:        2")
	assert.Contains(t, got, "violations=0")
}

func TestShellUnobserveAny(t *testing.T) {
	s, out := newTestShell(t)

	run(t, s, out,
		"new a",
		"new b",
		"declare b v int64 0",
		"observe a b v new x",
		"observe a b v new y",
	)
	got := run(t, s, out, "unobserve-any a b v")
	assert.Contains(t, got, "unregister +2")
}

func TestShellSetAndGet(t *testing.T) {
	s, out := newTestShell(t)

	run(t, s, out,
		"new car",
		"new engine",
		"declare car engine object",
		"declare engine rpm uint32 0",
		"set car engine @engine",
		"set car engine.rpm 900",
	)

	assert.Contains(t, run(t, s, out, "get car engine.rpm"), "car.engine.rpm = 900")
	assert.Contains(t, run(t, s, out, "get car engine"), "Object(")

	got := run(t, s, out, "set car engine.rpm -5")
	assert.Contains(t, got, "Error:")
}

func TestShellErrors(t *testing.T) {
	s, out := newTestShell(t)

	assert.Contains(t, run(t, s, out, "observe a b"), "Usage: observe")
	assert.Contains(t, run(t, s, out, "observe a b c"), "unknown object")
	assert.Contains(t, run(t, s, out, "bogus"), "Unknown command: bogus")
	assert.Contains(t, run(t, s, out, "new x", "new x"), "already in use")
	assert.Contains(t, run(t, s, out, "declare x k complex"), "unknown data type")
	assert.Empty(t, run(t, s, out, "# comment"))
}

func TestShellQuit(t *testing.T) {
	s, _ := newTestShell(t)
	assert.True(t, s.Execute(context.Background(), "quit"))
}

func TestShellRunScenario(t *testing.T) {
	s, out := newTestShell(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "sc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: SC-SHELL
name: from the shell
objects:
  - {name: o}
  - name: t
    attributes:
      - {key: v, type: int64, default: 0}
steps:
  - action: add_observer
    params: {observer: o, target: t, key_path: v}
    expect: {adds: 1}
`), 0o644))

	got := run(t, s, out, "run "+path)
	assert.Contains(t, got, "[PASS] SC-SHELL")
	assert.Contains(t, got, "Passed: 1")
}

func TestParseValue(t *testing.T) {
	assert.Nil(t, parseValue("nil"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, int64(-3), parseValue("-3"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, "42", parseValue(`"42"`))
	assert.Equal(t, "hello", parseValue("hello"))
}

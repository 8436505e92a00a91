//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

const scrollback = 1 << 20

// binPath is set by TestMain once the binary is built
var binPath = "courier_e2e"

const (
	KeyEnter     = "\r"
	KeyCtrlC     = "\x03"
	KeyDown      = "j"
	KeyUp        = "k"
	KeyQuit      = "q"
	KeyHelp      = "?"
	KeyTab       = "\t"
	KeyAddFiles  = "a"
	KeyUploadAll = "U"
	KeySearch    = "/"
	KeyPalette   = ":"
)

// Strips CSI, OSC, charset and keypad sequences plus carriage returns so
// assertions can match on the text a user would read.
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

// TUITestFramework drives the courier binary through a pseudo terminal and
// keeps the most recent output in a ring buffer.
type TUITestFramework struct {
	t         *testing.T
	pty       *os.File
	cmd       *exec.Cmd
	workspace string
	env       []string

	mu   sync.Mutex
	ring []byte
	pos  int
	wrap bool
}

func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t, ring: make([]byte, scrollback)}
}

// StartApp runs the TUI in a 120x40 terminal rooted at the workspace
func (tf *TUITestFramework) StartApp(args ...string) error {
	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Dir = tf.workspace
	tf.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+filepath.Join(tf.workspace, ".config"),
	)
	tf.cmd.Env = append(tf.cmd.Env, tf.env...)

	f, err := pty.StartWithSize(tf.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", binPath, err)
	}
	tf.pty = f
	go tf.capture(f)
	return nil
}

func (tf *TUITestFramework) capture(f *os.File) {
	chunk := make([]byte, 8192)
	for {
		n, err := f.Read(chunk)
		tf.mu.Lock()
		for _, b := range chunk[:n] {
			tf.ring[tf.pos] = b
			tf.pos = (tf.pos + 1) % scrollback
			if tf.pos == 0 {
				tf.wrap = true
			}
		}
		tf.mu.Unlock()
		if err != nil {
			return
		}
	}
}

func (tf *TUITestFramework) SendKeys(keys string) error {
	_, err := tf.pty.Write([]byte(keys))
	return err
}

func (tf *TUITestFramework) SendCtrlC() error { return tf.SendKeys(KeyCtrlC) }
func (tf *TUITestFramework) OpenHelp() error  { return tf.SendKeys(KeyHelp) }
func (tf *TUITestFramework) SwitchTab() error { return tf.SendKeys(KeyTab) }
func (tf *TUITestFramework) Enter() error     { return tf.SendKeys(KeyEnter) }
func (tf *TUITestFramework) Down() error      { return tf.SendKeys(KeyDown) }
func (tf *TUITestFramework) Up() error        { return tf.SendKeys(KeyUp) }
func (tf *TUITestFramework) Quit() error      { return tf.SendKeys(KeyQuit) }

// Type submits text to an open prompt
func (tf *TUITestFramework) Type(text string) error {
	if err := tf.SendKeys(text); err != nil {
		return err
	}
	return tf.Enter()
}

// Ready waits until the tab bar has been drawn
func (tf *TUITestFramework) Ready() bool {
	tf.t.Helper()
	return tf.OutputContainsPlain("2 Search", 5*time.Second)
}

func (tf *TUITestFramework) SeePlain(text string) bool {
	tf.t.Helper()
	return tf.OutputContainsPlain(text, 3*time.Second)
}

func (tf *TUITestFramework) OutputContainsPlain(text string, timeout time.Duration) bool {
	tf.t.Helper()
	return tf.WaitFor(func(s string) bool {
		return strings.Contains(ansiRe.ReplaceAllString(s, ""), text)
	}, timeout)
}

// WaitFor polls the raw output until pred holds or the timeout passes
func (tf *TUITestFramework) WaitFor(pred func(string) bool, timeout time.Duration) bool {
	tf.t.Helper()
	deadline := time.Now().Add(timeout)
	for !pred(tf.Snapshot()) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
	return true
}

func (tf *TUITestFramework) Snapshot() string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if !tf.wrap {
		return string(tf.ring[:tf.pos])
	}
	return string(tf.ring[tf.pos:]) + string(tf.ring[:tf.pos])
}

func (tf *TUITestFramework) SnapshotPlain() string {
	return ansiRe.ReplaceAllString(tf.Snapshot(), "")
}

// DumpTailOnFail writes the last n bytes of plain output next to the test
// temp files so a failing run can be inspected.
func (tf *TUITestFramework) DumpTailOnFail(t *testing.T, name string, n int) {
	t.Helper()
	s := tf.SnapshotPlain()
	if len(s) > n {
		s = s[len(s)-n:]
	}
	p := filepath.Join(t.TempDir(), name+".txt")
	_ = os.WriteFile(p, []byte(s), 0644)
	t.Logf("Saved tail to %s", p)
}

// Reset drops the exited process and its output so StartApp can run again
// in the same workspace.
func (tf *TUITestFramework) Reset() {
	if tf.pty != nil {
		_ = tf.pty.Close()
	}
	tf.pty, tf.cmd = nil, nil
	tf.mu.Lock()
	tf.pos, tf.wrap = 0, false
	tf.mu.Unlock()
}

// Cleanup hangs up the terminal and reaps the process
func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.cmd.Process.Wait()
		tf.cmd = nil
	}
}

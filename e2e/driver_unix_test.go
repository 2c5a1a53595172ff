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
	"syscall"
	"testing"
	"time"
	"unsafe"

	"github.com/creack/pty"
)

var binPath = "postexplorer_e2e"

const (
	KeyEnter   = "\r"
	KeyCtrlC   = "\x03"
	KeyDown    = "j"
	KeyQuit    = "q"
	KeySearch  = "/"
	KeyRefresh = "r"
	KeyClear   = "x"
	KeyHelp    = "?"
)

const maxOutput = 1 << 20

var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` + // CSI
		`(?:\x1b\][^\x07]*\x07)|` + // OSC
		`(?:\x1b[\(\)][A-Za-z])|` + // charset
		`(?:\x1b=|\x1b>)|` + // keypad mode
		`\r`,
)

// outputLog keeps the most recent terminal output. When it grows past
// maxOutput the oldest half is dropped and offset advances, so marks
// taken earlier stay comparable.
type outputLog struct {
	mu     sync.Mutex
	data   []byte
	offset int
}

func (o *outputLog) append(p []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data = append(o.data, p...)
	if len(o.data) > maxOutput {
		drop := len(o.data) - maxOutput/2
		o.data = append([]byte(nil), o.data[drop:]...)
		o.offset += drop
	}
}

// since returns plain text written after absolute position mark
func (o *outputLog) since(mark int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	start := mark - o.offset
	if start < 0 || start > len(o.data) {
		start = 0
	}
	return ansiRe.ReplaceAllString(string(o.data[start:]), "")
}

func (o *outputLog) end() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offset + len(o.data)
}

func (o *outputLog) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data, o.offset = nil, 0
}

// TUITestFramework runs postexplorer in a pseudo-terminal against a local posts server
type TUITestFramework struct {
	t         *testing.T
	pty       *os.File
	tty       *os.File
	cmd       *exec.Cmd
	workspace string
	server    *postsServer
	out       outputLog
}

func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t}
}

// CreateTestWorkspace creates an isolated HOME holding config, state and logs
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	dir, err := os.MkdirTemp("", "postexplorer-e2e-*")
	if err != nil {
		return "", err
	}
	tf.workspace = dir
	return dir, nil
}

// StatePath is where the saved search query lives for this workspace
func (tf *TUITestFramework) StatePath() string {
	return filepath.Join(tf.workspace, "state.toml")
}

func (tf *TUITestFramework) env() []string {
	return append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C.UTF-8",
		"LANG=C.UTF-8",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+filepath.Join(tf.workspace, ".config"),
		"POSTEXPLORER_ENDPOINT="+tf.server.URL(),
		"POSTEXPLORER_STORAGE=file",
		"POSTEXPLORER_STATE_FILE="+tf.StatePath(),
		"POSTEXPLORER_LOG_FILE="+filepath.Join(tf.workspace, "postexplorer.log"),
		"POSTEXPLORER_LOG_LEVEL=debug",
		"GEMINI_API_KEY=",
		"API_KEY=",
	)
}

// StartApp launches postexplorer with args in a 120x40 PTY
func (tf *TUITestFramework) StartApp(args ...string) error {
	if tf.workspace == "" || tf.server == nil {
		return fmt.Errorf("call CreateTestWorkspace and ServePosts first")
	}

	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Env = tf.env()

	ptyFile, tty, err := pty.Open()
	if err != nil {
		return fmt.Errorf("failed to open pty: %w", err)
	}
	tf.pty, tf.tty = ptyFile, tty
	tf.cmd.Stdin, tf.cmd.Stdout, tf.cmd.Stderr = tty, tty, tty

	ws := struct{ Row, Col, X, Y uint16 }{40, 120, 0, 0}
	syscall.Syscall(syscall.SYS_IOCTL, ptyFile.Fd(), uintptr(syscall.TIOCSWINSZ), uintptr(unsafe.Pointer(&ws)))

	if err := tf.cmd.Start(); err != nil {
		ptyFile.Close()
		tty.Close()
		return fmt.Errorf("failed to start command: %w", err)
	}

	go func(f *os.File) {
		buf := make([]byte, 8192)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				tf.out.append(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}(ptyFile)
	return nil
}

// SendKeys writes raw keystrokes to the terminal
func (tf *TUITestFramework) SendKeys(keys string) error {
	tf.t.Helper()
	_, err := tf.pty.Write([]byte(keys))
	return err
}

func (tf *TUITestFramework) SendCtrlC() error { return tf.SendKeys(KeyCtrlC) }
func (tf *TUITestFramework) Quit() error      { return tf.SendKeys(KeyQuit) }
func (tf *TUITestFramework) Enter() error     { return tf.SendKeys(KeyEnter) }
func (tf *TUITestFramework) Down() error      { return tf.SendKeys(KeyDown) }

// Search opens the search bar and types query one key at a time
func (tf *TUITestFramework) Search(query string) error {
	tf.t.Helper()
	if err := tf.SendKeys(KeySearch); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	for _, r := range query {
		if err := tf.SendKeys(string(r)); err != nil {
			return err
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

// Ready waits for the first frame of the explorer
func (tf *TUITestFramework) Ready() bool {
	return tf.seeWithin(0, "Post Explorer", 5*time.Second)
}

// SeePlain waits for text anywhere in the output
func (tf *TUITestFramework) SeePlain(text string) bool {
	return tf.seeWithin(0, text, 3*time.Second)
}

// Mark returns the current output position for SeePlainSince
func (tf *TUITestFramework) Mark() int {
	return tf.out.end()
}

// SeePlainSince waits for text in output written after mark
func (tf *TUITestFramework) SeePlainSince(mark int, text string) bool {
	return tf.seeWithin(mark, text, 3*time.Second)
}

func (tf *TUITestFramework) seeWithin(mark int, text string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if strings.Contains(tf.out.since(mark), text) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// WaitExit waits for the process to exit and reports whether it did
func (tf *TUITestFramework) WaitExit(timeout time.Duration) (bool, error) {
	tf.t.Helper()
	done := make(chan error, 1)
	go func() { done <- tf.cmd.Wait() }()
	select {
	case err := <-done:
		tf.cmd = nil
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// DumpTailOnFail saves the last n bytes of plain output for debugging
func (tf *TUITestFramework) DumpTailOnFail(t *testing.T, name string, n int) {
	s := tf.out.since(0)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	p := filepath.Join(t.TempDir(), name+".txt")
	_ = os.WriteFile(p, []byte(s), 0644)
	t.Logf("Saved tail to %s", p)
}

// Restart stops the app and starts it again with a fresh output log,
// keeping the workspace and the posts server
func (tf *TUITestFramework) Restart(args ...string) error {
	tf.stopApp()
	tf.out.reset()
	return tf.StartApp(args...)
}

func (tf *TUITestFramework) stopApp() {
	// closing the pty first delivers SIGHUP
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.tty != nil {
		_ = tf.tty.Close()
		tf.tty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.cmd.Process.Wait()
		tf.cmd = nil
	}
}

// Cleanup stops the app and the posts server and removes the workspace
func (tf *TUITestFramework) Cleanup() {
	tf.stopApp()
	if tf.server != nil {
		tf.server.Close()
		tf.server = nil
	}
	if tf.workspace != "" {
		_ = os.RemoveAll(tf.workspace)
		tf.workspace = ""
	}
}

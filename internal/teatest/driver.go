// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and every returned Cmd is run to completion
// before the next message, so a test sees the model after all follow-up
// work has landed. Cmds that block (timers, channel waits) are abandoned
// after the driver's timeout.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds how many follow-up Cmds one message may chain.
const MaxDrainDepth = 100

// DefaultCmdTimeout is how long a Cmd may run before it is treated as
// blocking and skipped. Catalog operations against in-memory SQLite finish
// well inside it; tea.Tick does not.
const DefaultCmdTimeout = 250 * time.Millisecond

// Driver is a synchronous test harness for any tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once tea.Quit has been returned.
	Quitting bool
	// Skipped counts Cmds abandoned after the timeout.
	Skipped int

	timeout time.Duration
	ignore  []func(tea.Msg) bool
}

// Option configures the Driver during construction.
type Option func(*Driver)

// New creates a Driver for the given model and applies options.
// Call DrainInit() after construction to process the model's Init() command.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model, timeout: DefaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithSize sends an initial WindowSizeMsg before any other processing.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.T.Helper()
		d.Model, _ = d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithCmdTimeout overrides DefaultCmdTimeout.
func WithCmdTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.timeout = timeout
	}
}

// Ignoring drops messages matching fn instead of feeding them to Update.
func Ignoring(fn func(tea.Msg) bool) Option {
	return func(d *Driver) {
		d.ignore = append(d.ignore, fn)
	}
}

// DrainInit executes the model's Init() command and drains all resulting messages.
func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send dispatches a message through Update and drains all resulting Cmds.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.drain(cmd, 0)
}

// Press sends a key by name: a single character, or one of the named keys
// bubbletea prints ("enter", "esc", "up", "shift+down", "ctrl+c", ...).
func (d *Driver) Press(name string) {
	d.T.Helper()
	d.Send(keyMsg(d.T, name))
}

// Type sends each rune of s as its own key press.
func (d *Driver) Type(s string) {
	d.T.Helper()
	for _, r := range s {
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// View returns the full rendered output of the model.
func (d *Driver) View() string {
	return d.Model.View()
}

var namedKeys = map[string]tea.KeyType{
	"enter":       tea.KeyEnter,
	"esc":         tea.KeyEsc,
	"tab":         tea.KeyTab,
	"backspace":   tea.KeyBackspace,
	" ":           tea.KeySpace,
	"space":       tea.KeySpace,
	"up":          tea.KeyUp,
	"down":        tea.KeyDown,
	"left":        tea.KeyLeft,
	"right":       tea.KeyRight,
	"shift+up":    tea.KeyShiftUp,
	"shift+down":  tea.KeyShiftDown,
	"shift+right": tea.KeyShiftRight,
	"shift+left":  tea.KeyShiftLeft,
	"ctrl+c":      tea.KeyCtrlC,
}

func keyMsg(t *testing.T, name string) tea.KeyMsg {
	t.Helper()
	if kt, ok := namedKeys[name]; ok {
		return tea.KeyMsg{Type: kt}
	}
	runes := []rune(name)
	if len(runes) != 1 {
		t.Fatalf("teatest: unknown key %q", name)
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: runes}
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest.Driver: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg, ok := d.exec(cmd)
	if !ok {
		d.Skipped++
		return
	}
	if msg == nil || d.ignored(msg) {
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		d.Model, _ = d.Model.Update(msg)
		return
	}

	var next tea.Cmd
	d.Model, next = d.Model.Update(msg)
	d.drain(next, depth+1)
}

// exec runs cmd, giving up after the driver's timeout.
func (d *Driver) exec(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() {
		ch <- cmd()
	}()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(d.timeout):
		return nil, false
	}
}

func (d *Driver) ignored(msg tea.Msg) bool {
	for _, fn := range d.ignore {
		if fn(msg) {
			return true
		}
	}
	return isCursorBlink(msg)
}

// isCursorBlink detects the unexported blink messages of bubbles/cursor.
func isCursorBlink(msg tea.Msg) bool {
	t := fmt.Sprintf("%T", msg)
	return strings.Contains(t, "Blink") || strings.Contains(t, "blink")
}

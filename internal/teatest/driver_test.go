package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type pingMsg struct{}

type counterModel struct {
	keys  []string
	pings int
	width int
}

func (m counterModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return pingMsg{} },
		tea.Tick(time.Hour, func(time.Time) tea.Msg { return pingMsg{} }),
	)
}

func (m counterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case pingMsg:
		m.pings++
	case tea.KeyMsg:
		m.keys = append(m.keys, msg.String())
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			return m, func() tea.Msg { return pingMsg{} }
		}
	}
	return m, nil
}

func (m counterModel) View() string { return "" }

func TestDriver_DrainsInitAndSkipsBlockingCmds(t *testing.T) {
	d := New(t, counterModel{}, WithSize(80, 24), WithCmdTimeout(20*time.Millisecond))
	d.DrainInit()

	m := d.Model.(counterModel)
	assert.Equal(t, 80, m.width)
	assert.Equal(t, 1, m.pings)
	assert.Equal(t, 1, d.Skipped)
}

func TestDriver_PressAndType(t *testing.T) {
	d := New(t, counterModel{})

	d.Press("enter")
	d.Press("shift+down")
	d.Press(" ")
	d.Type("ab")

	m := d.Model.(counterModel)
	assert.Equal(t, []string{"enter", "shift+down", " ", "a", "b"}, m.keys)
	assert.Equal(t, 1, m.pings)
}

func TestDriver_Quit(t *testing.T) {
	d := New(t, counterModel{})

	d.Press("q")
	assert.True(t, d.Quitting)
	d.Press("x")
	assert.Equal(t, []string{"q"}, d.Model.(counterModel).keys)
}

func TestDriver_Ignoring(t *testing.T) {
	d := New(t, counterModel{}, Ignoring(func(msg tea.Msg) bool {
		_, ok := msg.(pingMsg)
		return ok
	}))

	d.Press("enter")
	assert.Zero(t, d.Model.(counterModel).pings)
}

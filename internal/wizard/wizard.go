package wizard

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/lockplane/sqlrunner/internal/config"
)

// New creates a wizard that writes into dir and checks connections with
// connect.
func New(dir string, connect ConnectFunc) Model {
	return Model{
		state:   StateDatabaseType,
		dir:     dir,
		connect: connect,
	}
}

// Run starts the interactive wizard. It returns a nil Result when the user
// quits before any file is written.
func Run(ctx context.Context, in io.Reader, out io.Writer, dir string) (*Result, error) {
	p := tea.NewProgram(New(dir, TestConnection),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return nil, errors.Wrap(err, "init wizard failed")
	}

	m := final.(Model)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type connectionTestedMsg struct {
	err error
}

type filesWrittenMsg struct {
	result *Result
	err    error
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "up", "shift+tab":
			return m.move(-1), nil
		case "down", "tab":
			return m.move(1), nil
		case "q":
			if m.state != StateConnectionDetails {
				return m, tea.Quit
			}
		}
		return m.handleTextInput(msg)

	case connectionTestedMsg:
		m.testing = false
		m.testErr = msg.err
		m.retryChoice = retryConnection
		return m, nil

	case filesWrittenMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, nil
	}

	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		m.env = EnvironmentInput{Driver: driverOptions[m.driverIndex].Type}
		m.initializeInputs()
		m.state = StateConnectionDetails
		return m, nil

	case StateConnectionDetails:
		if err := m.collectInputValues(); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.inputErr = ""
		m.state = StateTestConnection
		m.testing = true
		m.testErr = nil
		return m, m.testConnection()

	case StateTestConnection:
		if m.testing {
			return m, nil
		}
		if m.testErr == nil {
			m.state = StateSummary
			return m, nil
		}
		switch m.retryChoice {
		case retryConnection:
			m.testing = true
			m.testErr = nil
			return m, m.testConnection()
		case editConnection:
			m.state = StateConnectionDetails
			m.testErr = nil
			return m, nil
		default:
			return m, tea.Quit
		}

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

// move shifts the selection or input focus of the current step by delta.
func (m Model) move(delta int) Model {
	switch m.state {
	case StateDatabaseType:
		m.driverIndex = clamp(m.driverIndex+delta, len(driverOptions))
	case StateConnectionDetails:
		if len(m.inputs) > 0 {
			m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.testErr != nil {
			m.retryChoice = clamp(m.retryChoice+delta, quitWizard+1)
		}
	}
	return m
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state != StateConnectionDetails || len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) initializeInputs() {
	m.fields = fieldsFor(m.env.Driver)
	m.inputs = make([]textinput.Model, len(m.fields))
	m.focus = 0

	for i, f := range m.fields {
		input := textinput.New()
		input.Placeholder = f.label
		input.SetValue(f.value)
		if f.secret {
			input.EchoMode = textinput.EchoPassword
			input.EchoCharacter = '*'
		}
		m.inputs[i] = input
	}
	m.updateInputFocus()
}

func (m *Model) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) collectInputValues() error {
	env := EnvironmentInput{Driver: m.env.Driver}
	for i, f := range m.fields {
		f.set(&env, strings.TrimSpace(m.inputs[i].Value()))
	}
	if err := env.Validate(); err != nil {
		return err
	}
	m.env = env
	return nil
}

func (m Model) testConnection() tea.Cmd {
	connect, cfg := m.connect, m.env.ConnectionConfig(m.dir)
	return func() tea.Msg {
		return connectionTestedMsg{err: connect(context.Background(), cfg)}
	}
}

func (m Model) createFiles() tea.Cmd {
	dir, env := m.dir, m.env
	return func() tea.Msg {
		result, err := GenerateFiles(dir, env)
		return filesWrittenMsg{result: result, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("sqlrunner init"))
	b.WriteString("\n\n")

	switch m.state {
	case StateDatabaseType:
		b.WriteString(labelStyle.Render("Which database do your scripts run against?"))
		b.WriteString("\n\n")
		for i, opt := range driverOptions {
			b.WriteString(renderOption(i == m.driverIndex, fmt.Sprintf("%s (%s)", opt.Label, opt.Hint)))
			b.WriteString("\n")
		}
		b.WriteString(statusBarStyle.Render("↑/↓: navigate  Enter: select  q: quit"))

	case StateConnectionDetails:
		for i, input := range m.inputs {
			label := m.fields[i].label + ":"
			if i == m.focus {
				b.WriteString(selectedStyle.Render("► " + label))
			} else {
				b.WriteString(labelStyle.Render("  " + label))
			}
			b.WriteString("\n  " + input.View() + "\n\n")
		}
		if m.inputErr != "" {
			b.WriteString(errorStyle.Render("✗ " + m.inputErr))
			b.WriteString("\n")
		}
		b.WriteString(statusBarStyle.Render("Tab/↑/↓: navigate  Enter: test connection  Esc: quit"))

	case StateTestConnection:
		switch {
		case m.testing:
			b.WriteString("Testing connection to " + string(m.env.Driver) + "...")
		case m.testErr == nil:
			b.WriteString(successStyle.Render("✓ Connection successful!"))
			b.WriteString(statusBarStyle.Render("Press Enter to continue"))
		default:
			b.WriteString(errorStyle.Render("✗ Connection failed: " + m.testErr.Error()))
			b.WriteString("\n\n")
			for i, choice := range []string{"Retry connection", "Edit connection details", "Quit wizard"} {
				b.WriteString(renderOption(i == m.retryChoice, choice))
				b.WriteString("\n")
			}
			b.WriteString(statusBarStyle.Render("↑/↓: navigate  Enter: select"))
		}

	case StateSummary:
		fmt.Fprintf(&b, "Environment %q (%s) will be written to:\n\n", m.env.Name, m.env.Driver)
		fmt.Fprintf(&b, "  • %s\n  • .env.%s\n  • .gitignore\n", config.FileName, m.env.Name)
		b.WriteString(statusBarStyle.Render("Press Enter to create files, q to quit"))

	case StateCreating:
		b.WriteString("Writing files...")

	case StateDone:
		b.WriteString(successStyle.Render("✓ Setup complete!"))
		b.WriteString("\n\n")
		if m.result != nil {
			fmt.Fprintf(&b, "  %s\n  %s\n", m.result.ConfigPath, m.result.EnvFile)
		}
		fmt.Fprintf(&b, "\nRun a script with: sqlrunner run --env %s script.sql\n", m.env.Name)
		b.WriteString(statusBarStyle.Render("Press Enter to exit"))

	case StateError:
		b.WriteString(errorStyle.Render("✗ Could not write files"))
		if m.err != nil {
			b.WriteString("\n\n" + m.err.Error())
		}
		b.WriteString(statusBarStyle.Render("Press Enter to exit"))
	}

	return borderStyle.Render(b.String())
}

package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	storyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // white

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	endingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// PlayerUI is the BubbleTea model that plays one story.
// https://github.com/charmbracelet/bubbletea
type PlayerUI struct {
	storyName  string
	content    string
	story      *ink.Story
	transcript ink.LineBuffer
	choices    []ink.Line
	selected   int
	finished   bool

	viewport viewport.Model
	ready    bool
	width    int
	height   int
	status   string
	err      error
}

func NewPlayerUI(storyName string, content string) PlayerUI {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	ui := PlayerUI{
		storyName: storyName,
		content:   content,
		viewport:  vp,
	}
	ui.start()
	return ui
}

// start parses a fresh story, so a restart forgets visited choices, and
// follows it to its first stop.
func (m *PlayerUI) start() {
	m.transcript = nil
	m.selected = 0
	m.status = ""
	m.err = nil

	story, err := ink.ReadStory(m.content)
	if err != nil {
		m.err = err
		return
	}
	m.story = story

	result, err := m.story.Start(&m.transcript)
	if err != nil {
		m.err = err
		return
	}
	m.finished = result.Finished
	m.choices = result.Choices
}

func (m PlayerUI) Init() tea.Cmd {
	return nil
}

func (m PlayerUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 4
		m.viewport.Height = m.height - 3
		m.ready = true
		m.writeContent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
				m.writeContent()
			}
			return m, nil
		case tea.KeyDown:
			if m.selected < len(m.choices)-1 {
				m.selected++
				m.writeContent()
			}
			return m, nil
		case tea.KeyEnter:
			return m.takeChoice(m.selected)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			m.start()
			m.writeContent()
			return m, nil
		case "c":
			m.copyTranscript()
			m.writeContent()
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			index := int(msg.String()[0] - '1')
			if index < len(m.choices) {
				return m.takeChoice(index)
			}
			return m, nil
		}
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

// takeChoice resumes the story with the given choice index.
func (m PlayerUI) takeChoice(index int) (tea.Model, tea.Cmd) {
	if m.finished || index >= len(m.choices) {
		return m, nil
	}

	result, err := m.story.ResumeWithChoice(index, &m.transcript)
	if err != nil {
		m.err = err
		m.writeContent()
		return m, nil
	}

	m.finished = result.Finished
	m.choices = result.Choices
	m.selected = 0
	m.status = ""
	m.writeContent()
	return m, nil
}

// copyTranscript puts the plain transcript text on the system clipboard.
func (m *PlayerUI) copyTranscript() {
	var text strings.Builder
	for _, line := range m.transcript {
		text.WriteString(line.Text)
	}

	if err := clipboard.WriteAll(text.String()); err != nil {
		m.status = "Could not copy transcript: " + err.Error()
		return
	}
	m.status = "Transcript copied to clipboard"
}

func (m *PlayerUI) writeContent() {
	wrapWidth := m.viewport.Width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.storyName) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", wrapWidth)) + "\n\n")

	for _, line := range m.transcript {
		content.WriteString(storyStyle.Render(wordwrap.String(strings.TrimRight(line.Text, "\n"), wrapWidth)))
		content.WriteString("\n")
		if len(line.Tags) > 0 {
			content.WriteString(tagStyle.Render("# "+strings.Join(line.Tags, " # ")) + "\n")
		}
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString(statusStyle.Render("Error: "+m.err.Error()) + "\n")
	} else if m.finished {
		content.WriteString(endingStyle.Render("~ The End ~") + "\n")
	} else {
		for i, choice := range m.choices {
			label := fmt.Sprintf("%d. %s", i+1, choice.Text)
			if i == m.selected {
				content.WriteString(selectedChoiceStyle.Render("▶ "+label) + "\n")
			} else {
				content.WriteString(choiceStyle.Render("  "+label) + "\n")
			}
		}
	}

	if m.status != "" {
		content.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m PlayerUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	help := "↑/↓ select  Enter choose  r restart  c copy  q quit"
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		separatorStyle.Render(strings.Repeat("─", m.viewport.Width)),
		promptStyle.Render(help),
	)
}

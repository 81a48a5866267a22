package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
)

type screen int

const (
	screenAuth screen = iota
	screenCharacter
	screenStory
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	storyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	dynamicBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")). // yellow
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	cfg    *ConsoleConfig
	api    *APIClient
	screen screen

	// Auth screen state
	usernameInput textinput.Model
	passwordInput textinput.Model
	authFocus     int
	signupMode    bool

	// Character screen state
	nameInput    textinput.Model
	raceIdx      int
	archetypeIdx int
	charFocus    int

	// Story screen state
	char           *CharacterView
	view           *GameView
	selectedChoice int
	viewport       viewport.Model
	ready          bool

	// Save modal state
	showSaveModal bool
	saveNameInput textinput.Model

	// Saves list modal state
	showSavesModal bool
	saves          []save.Summary
	selectedSave   int

	showQuitModal bool

	width        int
	height       int
	loading      bool
	progressTick int
	err          error
	status       string
}

type authResultMsg struct {
	signup bool
	err    error
}

type characterCreatedMsg struct {
	char *CharacterView
	err  error
}

type viewMsg struct {
	view *GameView
	err  error
}

type savesListMsg struct {
	saves []save.Summary
	err   error
}

type savedMsg struct {
	sg  *save.SaveGame
	err error
}

type saveDeletedMsg struct {
	err error
}

type progressTickMsg struct{}

func NewConsoleUI(cfg *ConsoleConfig, api *APIClient) ConsoleUI {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword

	name := textinput.New()
	name.Placeholder = "character name"
	name.CharLimit = 64

	saveName := textinput.New()
	saveName.Placeholder = "save name"
	saveName.CharLimit = 64

	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		cfg:           cfg,
		api:           api,
		screen:        screenAuth,
		usernameInput: username,
		passwordInput: password,
		nameInput:     name,
		saveNameInput: saveName,
		viewport:      vp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 4
		m.viewport.Height = m.height - 10
		if !m.ready {
			m.ready = true
		}
		if m.view != nil {
			m.writeStoryContent()
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			if m.view != nil {
				m.writeStoryContent()
			}
			return m, progressTick()
		}
		return m, nil

	case authResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.signup {
			// Account created; log straight in with the same credentials
			m.status = "Account created, logging in..."
			m.loading = true
			return m, tea.Batch(m.doLogin(), progressTick())
		}
		m.status = ""
		m.screen = screenCharacter
		m.nameInput.Focus()
		return m, textinput.Blink

	case characterCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.char = msg.char
		m.screen = screenStory
		m.loading = true
		return m, tea.Batch(m.fetchView(), progressTick())

	case viewMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.view
		m.selectedChoice = 0
		m.writeStoryContent()
		return m, nil

	case savesListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.saves = msg.saves
		m.selectedSave = 0
		m.showSavesModal = true
		return m, nil

	case savedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Saved as %q", msg.sg.Name)
		return m, nil

	case saveDeletedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		// Refresh the list in place
		m.loading = true
		return m, tea.Batch(m.fetchSaves(), progressTick())
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch m.screen {
	case screenAuth:
		return m.updateAuth(msg)
	case screenCharacter:
		return m.updateCharacter(msg)
	default:
		if m.showSaveModal {
			return m.updateSaveModal(msg)
		}
		if m.showSavesModal {
			return m.updateSavesModal(msg)
		}
		return m.updateStory(msg)
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "enter":
			return m, tea.Quit
		case "n", "esc":
			m.showQuitModal = false
		}
	}
	return m, nil
}

func (m ConsoleUI) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyTab, tea.KeyDown, tea.KeyUp:
			m.authFocus = (m.authFocus + 1) % 2
			if m.authFocus == 0 {
				m.usernameInput.Focus()
				m.passwordInput.Blur()
			} else {
				m.usernameInput.Blur()
				m.passwordInput.Focus()
			}
			return m, textinput.Blink
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.usernameInput.Value() == "" || m.passwordInput.Value() == "" {
				m.err = fmt.Errorf("username and password are required")
				return m, nil
			}
			m.loading = true
			if m.signupMode {
				return m, tea.Batch(m.doSignup(), progressTick())
			}
			return m, tea.Batch(m.doLogin(), progressTick())
		}

		if key.String() == "ctrl+s" {
			m.signupMode = !m.signupMode
			m.err = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.authFocus == 0 {
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m ConsoleUI) updateCharacter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyTab, tea.KeyDown:
			m.charFocus = (m.charFocus + 1) % 3
			if m.charFocus == 0 {
				m.nameInput.Focus()
			} else {
				m.nameInput.Blur()
			}
			return m, textinput.Blink
		case tea.KeyUp:
			m.charFocus = (m.charFocus + 2) % 3
			if m.charFocus == 0 {
				m.nameInput.Focus()
			} else {
				m.nameInput.Blur()
			}
			return m, textinput.Blink
		case tea.KeyLeft:
			switch m.charFocus {
			case 1:
				m.raceIdx = (m.raceIdx + len(character.Races) - 1) % len(character.Races)
			case 2:
				m.archetypeIdx = (m.archetypeIdx + len(character.Archetypes) - 1) % len(character.Archetypes)
			}
			return m, nil
		case tea.KeyRight:
			switch m.charFocus {
			case 1:
				m.raceIdx = (m.raceIdx + 1) % len(character.Races)
			case 2:
				m.archetypeIdx = (m.archetypeIdx + 1) % len(character.Archetypes)
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.nameInput.Value() == "" {
				m.err = fmt.Errorf("character name is required")
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.doCreateCharacter(), progressTick())
		}
	}

	var cmd tea.Cmd
	if m.charFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m ConsoleUI) updateStory(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.loading {
		if key.Type == tea.KeyCtrlC {
			m.showQuitModal = true
		}
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyUp:
		if m.view != nil && m.selectedChoice > 0 {
			m.selectedChoice--
			m.writeStoryContent()
		}
		return m, nil
	case tea.KeyDown:
		if m.view != nil && m.selectedChoice < len(m.view.Choices)-1 {
			m.selectedChoice++
			m.writeStoryContent()
		}
		return m, nil
	case tea.KeyEnter:
		if m.view == nil || len(m.view.Choices) == 0 {
			return m, nil
		}
		chosen := m.view.Choices[m.selectedChoice]
		m.loading = true
		m.status = ""
		if m.view.Mode == "dynamic" {
			// Picking a dynamic choice rolls again with it as context
			return m, tea.Batch(m.doRoll(chosen.ID), progressTick())
		}
		return m, tea.Batch(m.doChoose(chosen.ID), progressTick())
	}

	switch key.String() {
	case "d":
		// Roll the dice
		m.loading = true
		m.status = ""
		return m, tea.Batch(m.doRoll(""), progressTick())
	case "b":
		// Back to the static story
		if m.view != nil && m.view.Mode == "dynamic" {
			m.loading = true
			m.status = ""
			return m, tea.Batch(m.doReturn(), progressTick())
		}
		return m, nil
	case "s":
		if m.view != nil && m.view.Mode == "static" {
			m.showSaveModal = true
			m.saveNameInput.Reset()
			m.saveNameInput.Focus()
			return m, textinput.Blink
		}
		m.err = fmt.Errorf("cannot save in dynamic mode; press b to return to the story")
		return m, nil
	case "v":
		m.loading = true
		m.status = ""
		return m, tea.Batch(m.fetchSaves(), progressTick())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateSaveModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.showSaveModal = false
			return m, nil
		case tea.KeyEnter:
			name := strings.TrimSpace(m.saveNameInput.Value())
			if name == "" {
				return m, nil
			}
			m.showSaveModal = false
			m.loading = true
			return m, tea.Batch(m.doSave(name), progressTick())
		}
	}

	var cmd tea.Cmd
	m.saveNameInput, cmd = m.saveNameInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateSavesModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyEsc:
		m.showSavesModal = false
		return m, nil
	case tea.KeyUp:
		if m.selectedSave > 0 {
			m.selectedSave--
		}
		return m, nil
	case tea.KeyDown:
		if m.selectedSave < len(m.saves)-1 {
			m.selectedSave++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.saves) == 0 {
			m.showSavesModal = false
			return m, nil
		}
		chosen := m.saves[m.selectedSave]
		m.showSavesModal = false
		m.loading = true
		return m, tea.Batch(m.doLoad(chosen), progressTick())
	}

	if key.String() == "x" && len(m.saves) > 0 {
		chosen := m.saves[m.selectedSave]
		m.loading = true
		return m, tea.Batch(m.doDelete(chosen), progressTick())
	}

	return m, nil
}

// writeStoryContent renders the current view into the viewport.
func (m *ConsoleUI) writeStoryContent() {
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("STORYPATH") + "\n")
	if m.char != nil {
		content.WriteString(helpStyle.Render(fmt.Sprintf("%s  HP %d  AC %d", m.char.Description, m.char.Sheet.HP, m.char.Sheet.AC)) + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if m.view.Mode == "dynamic" {
		content.WriteString(dynamicBadgeStyle.Render("⚅ THE DICE HAVE SPOKEN") + "\n\n")
	}

	content.WriteString(storyStyle.Render(wordwrap.String(m.view.StoryText, width)) + "\n\n")

	if len(m.view.Choices) > 0 {
		content.WriteString(labelStyle.Render("What do you do?") + "\n\n")
		for i, c := range m.view.Choices {
			line := fmt.Sprintf("  %d. %s", i+1, c.Text)
			if i == m.selectedChoice {
				content.WriteString(selectedChoiceStyle.Render("▸"+line[1:]) + "\n")
			} else {
				content.WriteString(choiceStyle.Render(line) + "\n")
			}
		}
	} else if m.view.Mode == "dynamic" {
		content.WriteString(helpStyle.Render("No choices this time. Press b to return to the story.") + "\n")
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m *ConsoleUI) renderProgressBar() string {
	frames := []string{"⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}
	frame := frames[m.progressTick%len(frames)]
	return loadingStyle.Render(fmt.Sprintf("%s rolling...", frame))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.centerModal(modalStyle.Render(
			titleStyle.Render("Quit StoryPath?") + "\n\n" +
				"Unsaved progress will be lost.\n\n" +
				helpStyle.Render("y/enter: quit   n/esc: stay")))
	}

	switch m.screen {
	case screenAuth:
		return m.viewAuth()
	case screenCharacter:
		return m.viewCharacter()
	default:
		if m.showSaveModal {
			return m.centerModal(modalStyle.Render(
				titleStyle.Render("Save game") + "\n\n" +
					m.saveNameInput.View() + "\n\n" +
					helpStyle.Render("enter: save   esc: cancel")))
		}
		if m.showSavesModal {
			return m.centerModal(m.viewSavesModal())
		}
		return m.viewStory()
	}
}

func (m ConsoleUI) centerModal(modal string) string {
	if m.width == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m ConsoleUI) viewAuth() string {
	title := "Log in"
	action := "log in"
	if m.signupMode {
		title = "Sign up"
		action = "create account"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("STORYPATH") + "\n\n")
	b.WriteString(labelStyle.Render(title) + "\n\n")
	b.WriteString(m.usernameInput.View() + "\n")
	b.WriteString(m.passwordInput.View() + "\n\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}
	if m.loading {
		b.WriteString(loadingStyle.Render("working...") + "\n\n")
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("enter: %s   tab: next field   ctrl+s: toggle signup/login   esc: quit", action)))

	return m.centerModal(modalStyle.Render(b.String()))
}

func (m ConsoleUI) viewCharacter() string {
	cursor := func(focused bool) string {
		if focused {
			return selectedChoiceStyle.Render("▸ ")
		}
		return "  "
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("STORYPATH") + "\n\n")
	b.WriteString(labelStyle.Render("Create your character") + "\n\n")
	b.WriteString(cursor(m.charFocus == 0) + m.nameInput.View() + "\n")
	b.WriteString(fmt.Sprintf("%sRace:      ◂ %s ▸\n", cursor(m.charFocus == 1), title(character.Races[m.raceIdx])))
	b.WriteString(fmt.Sprintf("%sArchetype: ◂ %s ▸\n\n", cursor(m.charFocus == 2), title(character.Archetypes[m.archetypeIdx])))
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
	}
	if m.loading {
		b.WriteString(loadingStyle.Render("working...") + "\n\n")
	}
	b.WriteString(helpStyle.Render("enter: begin   tab: next field   left/right: change option   esc: quit"))

	return m.centerModal(modalStyle.Render(b.String()))
}

func (m ConsoleUI) viewSavesModal() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Saved games") + "\n\n")

	if len(m.saves) == 0 {
		b.WriteString("No saves yet.\n\n")
	} else {
		for i, s := range m.saves {
			line := fmt.Sprintf("%s — %s (%s)", s.Name, s.CharacterName, s.CreatedAt.Format("Jan 2 15:04"))
			if i == m.selectedSave {
				b.WriteString(selectedChoiceStyle.Render("▸ "+line) + "\n")
				if s.NodeSnippet != "" {
					b.WriteString(helpStyle.Render("    "+s.NodeSnippet) + "\n")
				}
			} else {
				b.WriteString(choiceStyle.Render("  "+line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter: load   x: delete   esc: close"))
	return modalStyle.Render(b.String())
}

func (m ConsoleUI) viewStory() string {
	if m.view == nil {
		return loadingStyle.Render("Loading story...")
	}

	var footer strings.Builder
	if m.err != nil {
		footer.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.status != "" {
		footer.WriteString(statusStyle.Render(m.status) + "\n")
	}
	footer.WriteString(helpStyle.Render("up/down: select   enter: choose   d: roll the dice   b: return to story   s: save   v: saves   esc: quit"))

	return fmt.Sprintf("%s\n%s", m.viewport.View(), footer.String())
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func progressTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func (m ConsoleUI) doSignup() tea.Cmd {
	username, password := m.usernameInput.Value(), m.passwordInput.Value()
	return func() tea.Msg {
		return authResultMsg{signup: true, err: m.api.Signup(username, password)}
	}
}

func (m ConsoleUI) doLogin() tea.Cmd {
	username, password := m.usernameInput.Value(), m.passwordInput.Value()
	return func() tea.Msg {
		return authResultMsg{signup: false, err: m.api.Login(username, password)}
	}
}

func (m ConsoleUI) doCreateCharacter() tea.Cmd {
	name := m.nameInput.Value()
	race := character.Races[m.raceIdx]
	archetype := character.Archetypes[m.archetypeIdx]
	return func() tea.Msg {
		char, err := m.api.CreateCharacter(name, race, archetype)
		return characterCreatedMsg{char: char, err: err}
	}
}

func (m ConsoleUI) fetchView() tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.GetView()
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) doChoose(choiceID string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.Choose(choiceID)
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) doRoll(choiceID string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.Roll(choiceID)
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) doReturn() tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.ReturnToStory()
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) doSave(name string) tea.Cmd {
	return func() tea.Msg {
		sg, err := m.api.SaveGame(name)
		return savedMsg{sg: sg, err: err}
	}
}

func (m ConsoleUI) fetchSaves() tea.Cmd {
	return func() tea.Msg {
		saves, err := m.api.ListSaves()
		return savesListMsg{saves: saves, err: err}
	}
}

func (m ConsoleUI) doLoad(s save.Summary) tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.LoadSave(s.ID)
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) doDelete(s save.Summary) tea.Cmd {
	return func() tea.Msg {
		return saveDeletedMsg{err: m.api.DeleteSave(s.ID)}
	}
}

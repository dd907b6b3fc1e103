package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/styles"
)

type entryKind int

const (
	entryQuestion entryKind = iota
	entryAnswer
	entryRecommendations
	entrySummary
	entryError
)

// entry is one block of the chat transcript.
type entry struct {
	kind          entryKind
	text          string
	items         []string
	sources       []string
	grounded      bool
	needsFollowup bool
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input     *input.ChatInput
	viewport  viewport.Model
	statusBar *status.Bar

	// transcript holds every exchange in display order.
	transcript []entry

	// lastQuestion is the target of a recommendation request.
	lastQuestion string

	// busy is set while a request is in flight; further requests are ignored.
	busy bool

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		input:     input.NewChatInput(s),
		viewport:  viewport.New(0, 0),
		statusBar: status.NewBar(s, km),
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("medivault"),
		a.input.Init(),
		a.loadStatus(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.busy = false
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.statusBar.Clear()
		a.append(entry{
			kind:          entryAnswer,
			text:          msg.Answer.Text,
			sources:       msg.Answer.Sources,
			grounded:      msg.Answer.Grounded,
			needsFollowup: msg.Answer.NeedsFollowup,
		})
		// The first question may have built the index.
		return a, a.loadStatus()

	case messages.RecommendationsReceived:
		a.busy = false
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.statusBar.Clear()
		a.append(entry{
			kind:    entryRecommendations,
			items:   msg.Recommendations.Items,
			sources: msg.Recommendations.Sources,
		})
		return a, nil

	case messages.SummaryReceived:
		a.busy = false
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.statusBar.Clear()
		a.append(entry{kind: entrySummary, text: msg.Summary.Text})
		return a, nil

	case messages.StatusLoaded:
		if msg.Err == nil && msg.Status != nil {
			a.statusBar.SetIndexCount(msg.Status.IndexCount)
		}
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.ScrollUp), keymap.Matches(k, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case keymap.Matches(k, a.keymap.Send):
		question := strings.TrimSpace(a.input.Value())
		if question == "" || a.busy {
			return a, nil
		}
		a.input.Reset()
		a.lastQuestion = question
		a.append(entry{kind: entryQuestion, text: question})
		a.start("Searching your records...")
		return a, a.ask(question)

	case keymap.Matches(k, a.keymap.Recommend):
		if a.busy {
			return a, nil
		}
		if a.lastQuestion == "" {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage("ask a question first")
			return a, nil
		}
		a.start("Preparing recommendations...")
		return a, a.recommend(a.lastQuestion)

	case keymap.Matches(k, a.keymap.Summarise):
		if a.busy {
			return a, nil
		}
		a.start("Summarising records...")
		return a, a.summarise()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) start(message string) {
	a.busy = true
	a.err = nil
	a.statusBar.SetState(status.StateThinking)
	a.statusBar.SetMessage(message)
}

func (a *App) fail(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
	a.append(entry{kind: entryError, text: err.Error()})
}

func (a *App) append(e entry) {
	a.transcript = append(a.transcript, e)
	a.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (a *App) refresh() {
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

func (a *App) ask(question string) tea.Cmd {
	ctx, svc := a.ctx, a.ports.Assistant
	return func() tea.Msg {
		answer, err := svc.Query(ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) recommend(question string) tea.Cmd {
	ctx, svc := a.ctx, a.ports.Assistant
	return func() tea.Msg {
		recs, err := svc.Recommend(ctx, question, true)
		return messages.RecommendationsReceived{Question: question, Recommendations: recs, Err: err}
	}
}

func (a *App) summarise() tea.Cmd {
	ctx, svc := a.ctx, a.ports.Assistant
	return func() tea.Msg {
		summary, err := svc.Summarise(ctx)
		return messages.SummaryReceived{Summary: summary, Err: err}
	}
}

func (a *App) loadStatus() tea.Cmd {
	ctx, svc := a.ctx, a.ports.Assistant
	return func() tea.Msg {
		st, err := svc.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

func (a *App) renderTranscript() string {
	if len(a.transcript) == 0 {
		return a.styles.Hint.Render("Ask a question about your medical records to get started.")
	}

	blocks := make([]string, 0, len(a.transcript))
	for _, e := range a.transcript {
		blocks = append(blocks, a.renderEntry(e))
	}

	wrap := lipgloss.NewStyle()
	if a.viewport.Width > 0 {
		wrap = wrap.Width(a.viewport.Width)
	}
	return wrap.Render(strings.Join(blocks, "\n\n"))
}

func (a *App) renderEntry(e entry) string {
	var b strings.Builder

	switch e.kind {
	case entryQuestion:
		b.WriteString(a.styles.Question.Render("You: "))
		b.WriteString(e.text)

	case entryAnswer:
		b.WriteString(a.styles.Badge(e.grounded))
		b.WriteString("\n")
		b.WriteString(a.styles.Answer.Render(e.text))
		if len(e.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(a.styles.Citation.Render("Sources: " + strings.Join(e.sources, ", ")))
		}
		if e.needsFollowup {
			b.WriteString("\n")
			b.WriteString(a.styles.Hint.Render("Press ctrl+r for recommendations."))
		}

	case entryRecommendations:
		b.WriteString(a.styles.Heading.Render("Recommendations"))
		for i, item := range e.items {
			fmt.Fprintf(&b, "\n%d. %s", i+1, item)
		}
		if len(e.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(a.styles.Citation.Render("Based on: " + strings.Join(e.sources, ", ")))
		}

	case entrySummary:
		b.WriteString(a.styles.Heading.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(a.styles.Answer.Render(e.text))

	case entryError:
		b.WriteString(a.styles.Alert.Render("Error: " + e.text))
	}

	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.header(),
		a.viewport.View(),
		a.input.View(),
		a.statusBar.View(),
	)
}

func (a *App) header() string {
	return a.styles.Header.Render("medivault") + " " + a.styles.Tagline.Render("medical records assistant")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// LastQuestion returns the most recent question asked.
func (a *App) LastQuestion() string {
	return a.lastQuestion
}

// Busy reports whether a request is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes every component to the terminal.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.SetWidth(width)
	a.statusBar.SetWidth(width)

	vpHeight := height - lipgloss.Height(a.header()) - lipgloss.Height(a.input.View()) - lipgloss.Height(a.statusBar.View())
	if vpHeight < 1 {
		vpHeight = 1
	}
	a.viewport.Width = width
	a.viewport.Height = vpHeight
	a.refresh()
}

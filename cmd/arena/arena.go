package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/programme-lv/arena/arena"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/clock"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/palette"
	"github.com/programme-lv/arena/submission"
)

// the countdown turns red below this
const hurryUp = 5 * time.Minute

type tickMsg time.Time

type submitDoneMsg struct {
	err error
}

type arenaModel struct {
	session   *arena.Session
	input     textinput.Model
	editing   bool
	mcqCursor int
	spinner   spinner.Model
	notice    string
}

func newArenaModel(s *arena.Session) arenaModel {
	ti := textinput.New()
	ti.Placeholder = "your answer"
	ti.CharLimit = 256
	ti.Width = 40
	ti.TextStyle = valueStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	a := arenaModel{session: s, input: ti, spinner: sp}
	a.syncCursor()
	return a
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a arenaModel) Init() tea.Cmd {
	return tea.Batch(tick(), a.spinner.Tick)
}

func (a arenaModel) submit(auto bool) tea.Cmd {
	s := a.session
	return func() tea.Msg {
		var err error
		if auto {
			err = s.AutoSubmit(s.Context())
		} else {
			err = s.Submit(s.Context())
		}
		return submitDoneMsg{err: err}
	}
}

func (a arenaModel) Update(msg tea.Msg) (arenaModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if a.session.OnTick(time.Time(msg)) {
			a.editing = false
			a.input.Blur()
			a.notice = "Time is up, submitting your answers."
			return a, tea.Batch(tick(), a.submit(true))
		}
		return a, tick()

	case submitDoneMsg:
		a.notice = ""
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.editing {
			return a.updateEditing(msg)
		}
		if a.session.State() == submission.StateConfirming {
			return a.updateConfirming(msg)
		}
		return a.updateBrowsing(msg)
	}
	return a, nil
}

func (a arenaModel) updateEditing(msg tea.KeyMsg) (arenaModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		p, _ := a.session.Current()
		a.editing = false
		a.input.Blur()
		if err := a.session.SetAnswer(p.ID, a.input.Value()); err != nil {
			a.notice = submission.UserMessage(err)
		}
		return a, nil
	case tea.KeyEsc:
		a.editing = false
		a.input.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a arenaModel) updateConfirming(msg tea.KeyMsg) (arenaModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return a, a.submit(false)
	case "n", "N", "esc":
		a.session.CancelSubmit()
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a arenaModel) updateBrowsing(msg tea.KeyMsg) (arenaModel, tea.Cmd) {
	s := a.session
	p, _ := s.Current()
	a.notice = ""

	switch key := msg.String(); key {
	case "q", "esc":
		return a, tea.Quit
	case "right", "n", "l", "tab":
		s.Next()
		a.syncCursor()
	case "left", "p", "h", "shift+tab":
		s.Previous()
		a.syncCursor()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if err := s.JumpTo(int(key[0]-'1')); err == nil {
			a.syncCursor()
		}
	case "up", "k":
		if p.InputType == contest.InputMcqSingle && a.mcqCursor > 0 {
			a.mcqCursor--
		}
	case "down", "j":
		if p.InputType == contest.InputMcqSingle && a.mcqCursor < len(p.Options)-1 {
			a.mcqCursor++
		}
	case "enter", "e", " ":
		if s.Locked() {
			a.notice = submission.UserMessage(submission.ErrAlreadySubmitted())
			return a, nil
		}
		if p.InputType == contest.InputMcqSingle {
			if len(p.Options) == 0 {
				return a, nil
			}
			if err := s.SetAnswer(p.ID, p.Options[a.mcqCursor].ID); err != nil {
				a.notice = submission.UserMessage(err)
			}
			return a, nil
		}
		prev, _ := s.Answer(p.ID)
		a.input.SetValue(prev.Value)
		a.input.CursorEnd()
		a.editing = true
		return a, a.input.Focus()
	case "x", "backspace", "delete":
		if err := s.ClearAnswer(p.ID); err != nil {
			a.notice = submission.UserMessage(err)
		}
	case "s":
		if err := s.RequestSubmit(); err != nil {
			a.notice = submission.UserMessage(err)
		}
	}
	return a, nil
}

// syncCursor points the option cursor at the stored choice, if any.
func (a *arenaModel) syncCursor() {
	p, _ := a.session.Current()
	a.mcqCursor = 0
	ans, ok := a.session.Answer(p.ID)
	if !ok {
		return
	}
	id, ok := ans.OptionID()
	if !ok {
		return
	}
	for i, o := range p.Options {
		if o.ID == id {
			a.mcqCursor = i
		}
	}
}

func (a arenaModel) View() string {
	s := a.session
	c := s.Contest()
	p, idx := s.Current()

	var b strings.Builder
	header := titleStyle.Render(c.Title)
	if s.Virtual() {
		header += mutedStyle.Render("  (virtual)")
	}
	b.WriteString("\n" + header + "   " + renderClock(s.Remaining()) + "\n\n")
	b.WriteString(renderPalette(s.Cells()) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d answered", s.AnsweredCount(), len(c.Problems))) + "\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n\n", accentStyle.Render(fmt.Sprintf("%d.", idx+1)), p.Title))
	if p.Statement != "" {
		b.WriteString(renderStatement(p.Statement) + "\n\n")
	}
	b.WriteString(a.answerView(p) + "\n\n")

	switch s.State() {
	case submission.StateConfirming:
		b.WriteString(fmt.Sprintf("Submit %s answers? You cannot change them afterwards. (y/n)\n",
			valueStyle.Render(fmt.Sprintf("%d", s.AnsweredCount()))))
	case submission.StateSubmitting:
		b.WriteString(a.spinner.View() + " Submitting...\n")
	case submission.StateSubmitted:
		b.WriteString(answeredStyle.Render("Your answers have been submitted.") + "\n")
	default:
		if msg := s.ErrorMessage(); msg != "" {
			b.WriteString(errStyle.Render("Submission failed: "+msg) + "\n")
			b.WriteString("Press s to try again.\n")
		}
	}
	if a.notice != "" {
		b.WriteString(mutedStyle.Render(a.notice) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(helpLine(p, a.editing, s.Locked())) + "\n")
	return b.String()
}

func (a arenaModel) answerView(p contest.Problem) string {
	ans, answered := a.session.Answer(p.ID)
	if p.InputType == contest.InputMcqSingle {
		chosen, _ := ans.OptionID()
		lines := make([]string, 0, len(p.Options))
		for i, o := range p.Options {
			cursor := "  "
			if i == a.mcqCursor && !a.session.Locked() {
				cursor = accentStyle.Render("> ")
			}
			mark := "( )"
			if o.ID == chosen {
				mark = valueStyle.Render("(x)")
			}
			lines = append(lines, fmt.Sprintf("%s%s %s", cursor, mark, o.Text))
		}
		return strings.Join(lines, "\n")
	}
	if a.editing {
		return "Answer: " + a.input.View()
	}
	if !answered {
		return "Answer: " + mutedStyle.Render("not answered")
	}
	return "Answer: " + valueStyle.Render(ans.Value)
}

func helpLine(p contest.Problem, editing, locked bool) string {
	switch {
	case editing:
		return "enter saves, esc cancels"
	case locked:
		return "n/p move between problems, q quits"
	case p.InputType == contest.InputMcqSingle:
		return "up/down choose, enter selects, x clears, n/p move, s submits, q quits"
	}
	return "enter edits, x clears, n/p move, 1-9 jump, s submits, q quits"
}

func renderClock(d time.Duration) string {
	text := clock.FormatFull(d)
	if d < hurryUp {
		return errStyle.Render(text)
	}
	return accentStyle.Render(text)
}

func renderPalette(cells []palette.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		label := fmt.Sprintf(" %d ", c.Index+1)
		style := lipgloss.NewStyle()
		if c.Status == palette.StatusAnswered {
			style = answeredStyle
		}
		if c.Active {
			style = style.Bold(true).Underline(true)
			label = "[" + strings.TrimSpace(label) + "]"
		}
		parts[i] = style.Render(label)
	}
	return strings.Join(parts, "")
}

func renderDetail(c contest.Contest, reason arena.DetailReason, who auth.Identity) string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(c.Title) + "\n\n")
	b.WriteString(fmt.Sprintf("Starts: %s\n", valueStyle.Render(c.StartTime.Local().Format("2006-01-02 15:04"))))
	b.WriteString(fmt.Sprintf("Ends:   %s\n", valueStyle.Render(c.EndTime.Local().Format("2006-01-02 15:04"))))
	b.WriteString(fmt.Sprintf("Problems: %s\n\n", valueStyle.Render(fmt.Sprintf("%d", len(c.Problems)))))

	switch reason {
	case arena.DetailSubmitted:
		line := "You have already submitted your answers for this contest."
		if part, ok := c.ParticipantFor(who.UserID); ok && part.SolvedCount > 0 {
			line += fmt.Sprintf(" Solved: %d.", part.SolvedCount)
		}
		b.WriteString(line + "\n")
	case arena.DetailNotStarted:
		b.WriteString("The contest has not started yet.\n")
	case arena.DetailEnded:
		b.WriteString("The contest has ended. Start a virtual attempt with -virtual.\n")
	}
	b.WriteString("\nPress q to quit.\n")
	return b.String()
}

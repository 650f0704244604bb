package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/programme-lv/arena/arena"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/contest"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/srvcerror"
)

type state int

const (
	stateLoading state = iota
	stateLogin
	stateArena
	stateEmpty
	stateDetail
	stateFailed
)

// authenticator is the part of arenaapi.Client the UI needs for sign in.
type authenticator interface {
	Identity() (auth.Identity, error)
	Login(ctx context.Context, username, password string) (auth.Identity, error)
}

type model struct {
	state   state
	ctx     context.Context
	authn   authenticator
	deps    arena.Deps
	params  arena.BootstrapParams
	spinner spinner.Model

	loginModel loginModel
	arenaModel arenaModel

	session *arena.Session
	detail  contest.Contest
	reason  arena.DetailReason
	errMsg  string
}

func initialModel(ctx context.Context, authn authenticator, deps arena.Deps, params arena.BootstrapParams) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))

	m := model{
		state:   stateLoading,
		ctx:     ctx,
		authn:   authn,
		deps:    deps,
		params:  params,
		spinner: s,
	}
	if id, err := authn.Identity(); err == nil {
		m.params.Identity = id
	} else {
		m.state = stateLogin
		m.loginModel = newLoginModel(ctx, authn, "")
	}
	return m
}

type bootstrapMsg struct {
	res arena.Result
}

func (m model) bootstrap() tea.Cmd {
	deps, params, ctx := m.deps, m.params, m.ctx
	return func() tea.Msg {
		res, _ := arena.Bootstrap(ctx, deps, params)
		return bootstrapMsg{res: res}
	}
}

func (m model) Init() tea.Cmd {
	if m.state == stateLogin {
		return m.loginModel.Init()
	}
	return tea.Batch(m.spinner.Tick, m.bootstrap())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateLoading:
		switch msg := msg.(type) {
		case bootstrapMsg:
			return m.route(msg.res)
		case tea.KeyMsg:
			if msg.String() == "q" {
				return m, tea.Quit
			}
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateLogin:
		if done, ok := msg.(loginDoneMsg); ok {
			return m.signedIn(done.identity)
		}
		var cmd tea.Cmd
		m.loginModel, cmd = m.loginModel.Update(msg)
		return m, cmd

	case stateArena:
		if done, ok := msg.(submitDoneMsg); ok && srvcerror.IsUnauthenticated(done.err) {
			m.arenaModel, _ = m.arenaModel.Update(msg)
			m.state = stateLogin
			m.loginModel = newLoginModel(m.ctx, m.authn, "Your session has expired. Sign in again to submit, your answers are kept.")
			return m, m.loginModel.Init()
		}
		var cmd tea.Cmd
		m.arenaModel, cmd = m.arenaModel.Update(msg)
		return m, cmd

	case stateEmpty, stateDetail, stateFailed:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q", "esc", "enter":
				return m, tea.Quit
			case "r":
				if m.state == stateFailed {
					m.state = stateLoading
					m.errMsg = ""
					return m, tea.Batch(m.spinner.Tick, m.bootstrap())
				}
			}
		}
	}
	return m, nil
}

// signedIn continues after a login. A session that lost its credentials
// mid-attempt resumes as is when the same user signs back in, keeping
// its answers and clock target; anyone else gets a fresh bootstrap.
func (m model) signedIn(id auth.Identity) (tea.Model, tea.Cmd) {
	if m.session != nil && id.UserID == m.params.Identity.UserID {
		m.params.Identity = id
		m.state = stateArena
		m.arenaModel.notice = "Signed in again. Press s to submit."
		return m, m.arenaModel.Init()
	}
	if m.session != nil {
		if err := m.session.Close(m.ctx); err != nil {
			logger.FromContext(m.ctx).Warn("failed to close session", "error", err)
		}
		m.session = nil
	}
	m.params.Identity = id
	m.state = stateLoading
	return m, tea.Batch(m.spinner.Tick, m.bootstrap())
}

func (m model) route(res arena.Result) (tea.Model, tea.Cmd) {
	switch res.Outcome {
	case arena.OutcomeReady:
		m.state = stateArena
		m.session = res.Session
		m.arenaModel = newArenaModel(res.Session)
		return m, m.arenaModel.Init()
	case arena.OutcomeLogin:
		m.state = stateLogin
		m.loginModel = newLoginModel(m.ctx, m.authn, "Your session has expired, please sign in again.")
		return m, m.loginModel.Init()
	case arena.OutcomeEmpty:
		m.state = stateEmpty
	case arena.OutcomeDetail:
		m.state = stateDetail
		m.detail = res.Contest
		m.reason = res.Reason
	default:
		m.state = stateFailed
		if res.Err != nil {
			m.errMsg = res.Err.Error()
		}
	}
	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateLoading:
		return fmt.Sprintf("\n %s Loading contest %s...\n", m.spinner.View(), valueStyle.Render(m.params.ContestID))
	case stateLogin:
		return m.loginModel.View()
	case stateArena:
		return m.arenaModel.View()
	case stateEmpty:
		s := "\nThis contest does not exist or has no problems yet.\n\n"
		s += "Press q to quit.\n"
		return s
	case stateDetail:
		return renderDetail(m.detail, m.reason, m.params.Identity)
	case stateFailed:
		s := "\nCould not load the contest: " + errStyle.Render(m.errMsg) + "\n\n"
		s += "Press r to retry or q to quit.\n"
		return s
	}
	return ""
}

package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/submission"
)

type loginModel struct {
	ctx      context.Context
	authn    authenticator
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	notice   string
	errMsg   string
}

type loginDoneMsg struct {
	identity auth.Identity
}

type loginFailedMsg struct {
	err error
}

func newLoginModel(ctx context.Context, authn authenticator, notice string) loginModel {
	u := textinput.New()
	u.Placeholder = "username"
	u.CharLimit = 64
	u.Width = 26
	u.Prompt = ""
	u.TextStyle = valueStyle
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.CharLimit = 128
	p.Width = 26
	p.Prompt = ""
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return loginModel{ctx: ctx, authn: authn, username: u, password: p, notice: notice}
}

func (l loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (l loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginFailedMsg:
		l.busy = false
		l.errMsg = submission.UserMessage(msg.err)
		return l, nil
	case tea.KeyMsg:
		if l.busy {
			return l, nil
		}
		switch msg.Type {
		case tea.KeyEsc:
			return l, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			l = l.toggleFocus()
			return l, textinput.Blink
		case tea.KeyEnter:
			if l.focus == 0 {
				l = l.toggleFocus()
				return l, textinput.Blink
			}
			username := strings.TrimSpace(l.username.Value())
			password := l.password.Value()
			if username == "" || password == "" {
				l.errMsg = "enter both username and password"
				return l, nil
			}
			l.busy = true
			l.errMsg = ""
			ctx, authn := l.ctx, l.authn
			return l, func() tea.Msg {
				id, err := authn.Login(ctx, username, password)
				if err != nil {
					return loginFailedMsg{err: err}
				}
				return loginDoneMsg{identity: id}
			}
		}
	}

	var cmd tea.Cmd
	if l.focus == 0 {
		l.username, cmd = l.username.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return l, cmd
}

func (l loginModel) toggleFocus() loginModel {
	if l.focus == 0 {
		l.focus = 1
		l.username.Blur()
		l.password.Focus()
	} else {
		l.focus = 0
		l.password.Blur()
		l.username.Focus()
	}
	return l
}

func (l loginModel) View() string {
	s := "\nSign in to the arena\n\n"
	if l.notice != "" {
		s += mutedStyle.Render(l.notice) + "\n\n"
	}
	s += "Username: " + l.username.View() + "\n"
	s += "Password: " + l.password.View() + "\n\n"
	switch {
	case l.busy:
		s += "Signing in...\n"
	case l.errMsg != "":
		s += errStyle.Render(l.errMsg) + "\n"
	}
	s += mutedStyle.Render("tab switches field, enter signs in, esc quits") + "\n"
	return s
}

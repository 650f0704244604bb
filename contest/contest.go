package contest

import (
	"fmt"
	"time"
)

type InputType string

const (
	InputMcqSingle  InputType = "mcq_single"
	InputNumeric    InputType = "numeric"
	InputManual     InputType = "manual"
	InputExpression InputType = "expression"
)

func (t InputType) Valid() bool {
	switch t {
	case InputMcqSingle, InputNumeric, InputManual, InputExpression:
		return true
	}
	return false
}

type Option struct {
	ID   string `json:"id" toml:"id"`
	Text string `json:"text" toml:"text"`
}

type Problem struct {
	ID         string    `json:"id" toml:"id"`
	Title      string    `json:"title" toml:"title"`
	Statement  string    `json:"statement" toml:"statement"` // markdown
	InputType  InputType `json:"inputType" toml:"input_type"`
	Options    []Option  `json:"options,omitempty" toml:"options"`
	Difficulty string    `json:"difficulty" toml:"difficulty"`
}

func (p Problem) HasOption(id string) bool {
	for _, o := range p.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Participant struct {
	User        User `json:"user"`
	IsSubmitted bool `json:"isSubmitted"`
	SolvedCount int  `json:"solvedCount"`
}

type Contest struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Problems     []Problem     `json:"problems"`
	Participants []Participant `json:"participants"`
}

func (c Contest) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// Validate checks what the arena relies on: a positive duration, unique
// problem ids and options only on single choice problems.
func (c Contest) Validate() error {
	if !c.EndTime.After(c.StartTime) {
		return fmt.Errorf("contest %s ends (%s) before it starts (%s)",
			c.ID, c.EndTime.Format(time.RFC3339), c.StartTime.Format(time.RFC3339))
	}
	seen := make(map[string]bool, len(c.Problems))
	for _, p := range c.Problems {
		if p.ID == "" {
			return fmt.Errorf("contest %s has a problem without id", c.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("contest %s lists problem %s twice", c.ID, p.ID)
		}
		seen[p.ID] = true
		if !p.InputType.Valid() {
			return fmt.Errorf("problem %s has unknown input type %q", p.ID, p.InputType)
		}
		if p.InputType == InputMcqSingle && len(p.Options) == 0 {
			return fmt.Errorf("problem %s is single choice but has no options", p.ID)
		}
	}
	return nil
}

func (c Contest) ProblemIDs() []string {
	ids := make([]string, len(c.Problems))
	for i, p := range c.Problems {
		ids[i] = p.ID
	}
	return ids
}

func (c Contest) ProblemByID(id string) (Problem, int, bool) {
	for i, p := range c.Problems {
		if p.ID == id {
			return p, i, true
		}
	}
	return Problem{}, -1, false
}

func (c Contest) ParticipantFor(userID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.User.ID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

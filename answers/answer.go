package answers

import (
	"fmt"

	"github.com/programme-lv/arena/contest"
)

// Kind tags an answer value so an option id is never read as a number.
type Kind string

const (
	KindMcq        Kind = "mcq"
	KindNumeric    Kind = "numeric"
	KindManual     Kind = "manual"
	KindExpression Kind = "expression"
)

type Answer struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

func KindFor(t contest.InputType) (Kind, error) {
	switch t {
	case contest.InputMcqSingle:
		return KindMcq, nil
	case contest.InputNumeric:
		return KindNumeric, nil
	case contest.InputManual:
		return KindManual, nil
	case contest.InputExpression:
		return KindExpression, nil
	}
	return "", fmt.Errorf("unknown input type %q", t)
}

// OptionID returns the selected option for single choice answers.
func (a Answer) OptionID() (string, bool) {
	if a.Kind != KindMcq {
		return "", false
	}
	return a.Value, true
}

// Text returns the raw text for free-form answers.
func (a Answer) Text() (string, bool) {
	if a.Kind == KindMcq || a.Kind == "" {
		return "", false
	}
	return a.Value, true
}

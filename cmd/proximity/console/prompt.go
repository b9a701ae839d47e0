package console

import (
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// YesOrNo asks a question defaulting to yes.
func YesOrNo(question string) (string, error) {
	return Prompt(question, Yes, No)
}

// Prompt reads one answer. With constraints, the first one is the default and any
// answer outside the set falls back to it.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) > 0 {
		options := append([]string{strings.ToUpper(constraints[0])}, constraints[1:]...)
		question = question + " [" + strings.Join(options, "/") + "]:"
	}
	rl, err := readline.New(question)
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	if len(constraints) == 0 {
		return response, nil
	}
	return Match(response, constraints...), nil
}

// Match normalizes a response against the allowed answers.
func Match(response string, constraints ...string) string {
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return c
		}
	}
	return constraints[0]
}

// Package prompt asks the operator for confirmation on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// Driver abstracts the terminal so commands can be tested without one.
type Driver interface {
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Info(ctx context.Context, msg string) error
}

// SurveyDriver prompts through survey.
type SurveyDriver struct {
	stdio *terminal.Stdio
	out   io.Writer
}

// NewSurveyDriver returns a driver bound to the process terminal, or to
// stdio when given.
func NewSurveyDriver(stdio *terminal.Stdio) *SurveyDriver {
	d := &SurveyDriver{stdio: stdio, out: os.Stdout}
	if stdio != nil && stdio.Out != nil {
		d.out = stdio.Out
	}
	return d
}

func (d *SurveyDriver) askOpts() []survey.AskOpt {
	if d.stdio == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithStdio(d.stdio.In, d.stdio.Out, d.stdio.Err)}
}

func (d *SurveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out, d.askOpts()...); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *SurveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// Static answers every confirmation with Answer. Used for non-interactive
// runs and tests.
type Static struct {
	Answer bool
	Out    io.Writer

	Asked []string
}

func (s *Static) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.Asked = append(s.Asked, cfg.Message)
	return s.Answer, nil
}

func (s *Static) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Out == nil {
		return nil
	}
	_, err := fmt.Fprintln(s.Out, msg)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

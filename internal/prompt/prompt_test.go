package prompt

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
)

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(terminal.InterruptErr); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	other := errors.New("boom")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestStaticDriver(t *testing.T) {
	var out bytes.Buffer
	driver := &Static{Answer: true, Out: &out}

	ok, err := driver.Confirm(context.Background(), ConfirmConfig{Message: "Render anyway?"})
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}
	if len(driver.Asked) != 1 || driver.Asked[0] != "Render anyway?" {
		t.Fatalf("Asked = %v", driver.Asked)
	}
	if err := driver.Info(context.Background(), "2 blocking violations"); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if out.String() != "2 blocking violations\n" {
		t.Fatalf("Info output = %q", out.String())
	}
}

func TestDriversHonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drivers := map[string]Driver{
		"survey": NewSurveyDriver(nil),
		"static": &Static{Answer: true},
	}
	for name, driver := range drivers {
		if _, err := driver.Confirm(ctx, ConfirmConfig{Message: "?"}); !errors.Is(err, context.Canceled) {
			t.Fatalf("%s Confirm: expected context.Canceled, got %v", name, err)
		}
		if err := driver.Info(ctx, "x"); !errors.Is(err, context.Canceled) {
			t.Fatalf("%s Info: expected context.Canceled, got %v", name, err)
		}
	}
}

func TestSurveyDriverInfoUsesStdio(t *testing.T) {
	var out bytes.Buffer
	driver := NewSurveyDriver(&terminal.Stdio{Out: nopFileWriter{&out}})
	if err := driver.Info(context.Background(), "hello"); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if out.String() != "hello\n" {
		t.Fatalf("output = %q", out.String())
	}
}

type nopFileWriter struct{ *bytes.Buffer }

func (nopFileWriter) Fd() uintptr { return 0 }

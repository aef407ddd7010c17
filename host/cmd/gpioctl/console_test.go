package main

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/host/profiles"
)

func newTestConsole(t *testing.T) (*console, *simBoard, *bytes.Buffer) {
	t.Helper()
	log := logrus.New()
	log.Out = io.Discard

	m, board, err := startSim(log)
	if err != nil {
		t.Fatalf("startSim failed: %v", err)
	}
	t.Cleanup(func() {
		m.Close()
		<-board.done
		core.SetGlobalTransport(nil)
		core.SetController(nil)
	})
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}

	store, err := profiles.OpenBBolt(filepath.Join(t.TempDir(), "p.db"), 0600, nil)
	if err != nil {
		t.Fatalf("OpenBBolt failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	out := &bytes.Buffer{}
	return &console{m: m, store: store, out: out, log: log}, board, out
}

func TestConsoleCommands(t *testing.T) {
	c, board, out := newTestConsole(t)

	lines := []string{
		"dir gpio5 input_output",
		"set 5 1",
		"pull 4 up",
		"intr gpio4 negedge on",
		"wake 4 low_level",
		"wake 4 off",
		"",
	}
	for _, line := range lines {
		if _, err := c.exec(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}

	out.Reset()
	if _, err := c.exec("get gpio5"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := out.String(); got != "gpio5 = 1\n" {
		t.Errorf("get printed %q", got)
	}

	if mode, _ := board.ctrl.PullMode(4); mode != core.PullUp {
		t.Errorf("pull = %v", mode)
	}
	state, _ := board.ctrl.State(4)
	if state.Intr != core.IntrLowLevel || state.IntrEnable == 0 || state.Wakeup {
		t.Errorf("GPIO4 state = %+v", state)
	}
}

func TestConsoleErrors(t *testing.T) {
	c, _, _ := newTestConsole(t)

	tests := []struct {
		line string
		want error
	}{
		{"dir 34 output", core.ErrInvalidArg},
		{"get 24", core.ErrInvalidArg},
		{"set 5", errUsage},
		{"apply", errUsage},
		{"intr 4", errUsage},
	}
	for _, tt := range tests {
		if _, err := c.exec(tt.line); !errors.Is(err, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.line, err, tt.want)
		}
	}

	for _, line := range []string{"frobnicate", "get led", "pull 4 sideways", `dir "5`, "apply missing"} {
		if _, err := c.exec(line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}

func TestConsoleProfiles(t *testing.T) {
	c, board, out := newTestConsole(t)

	c.store.PutProfile("leds", profiles.Profile{Pins: []uint32{2, 20}, Mode: []string{"output"}})
	c.store.PutDefaultProfile("leds")

	if _, err := c.exec("profiles"); err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if got := out.String(); got != "* leds\n" {
		t.Errorf("profiles printed %q", got)
	}

	if _, err := c.exec("apply leds"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if dir, _ := board.ctrl.Direction(2); dir != core.DirOutput {
		t.Errorf("GPIO2 direction = %v", dir)
	}
}

func TestConsoleSendAndRun(t *testing.T) {
	c, _, out := newTestConsole(t)

	if _, err := c.exec("send gpio_get_level 5"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "gpio_result op=5 code=0") {
		t.Errorf("send printed %q", out.String())
	}

	out.Reset()
	if err := c.run(strings.NewReader("help\nquit\nset 5 1\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Errorf("help not printed: %q", out.String())
	}
}

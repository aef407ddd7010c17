package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/host/mcu"
	"espgpio/host/profiles"
)

var errUsage = errors.New("usage")

// console runs typed commands against a connected board
type console struct {
	m     *mcu.MCU
	store profiles.Store
	out   io.Writer
	log   logrus.FieldLogger
}

const helpText = `commands:
  get <pin>                      sample a pin
  set <pin> <0|1>                drive a pin
  dir <pin> <disable|input|output|input_output>
  pull <pin> <floating|up|down|up_down>
  intr <pin> <type> [on|off]     types: disable posedge negedge anyedge low_level high_level
  wake <pin> <low_level|high_level|off>
  apply <profile>                configure from a stored profile
  profiles                       list stored profiles
  send <command> [args...]       raw command, prints the next response
  dict                           dictionary summary
  quit
pins are numbers or names such as gpio5`

func (c *console) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(c.out, "> ")
	for scanner.Scan() {
		quit, err := c.exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		fmt.Fprint(c.out, "> ")
	}
	return scanner.Err()
}

// exec runs one console line
func (c *console) exec(line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
		return false, nil
	case "dict":
		c.printDictionary()
		return false, nil
	case "profiles":
		return false, c.listProfiles()
	case "apply":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: apply <profile>", errUsage)
		}
		return false, c.apply(args[0])
	case "send":
		return false, c.send(args)
	}

	if len(args) == 0 {
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	pin, err := c.pin(args[0])
	if err != nil {
		return false, err
	}
	args = args[1:]

	switch cmd {
	case "get":
		level, err := c.m.GetLevel(pin)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "%s = %d\n", core.PinName(pin), level)
		return false, nil
	case "set":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: set <pin> <0|1>", errUsage)
		}
		level, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return false, fmt.Errorf("level %q: %w", args[0], err)
		}
		return false, c.m.SetLevel(pin, uint32(level))
	case "dir":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: dir <pin> <mode>", errUsage)
		}
		dir, ok := core.ParseDirection(args[0])
		if !ok {
			return false, fmt.Errorf("unknown direction %q", args[0])
		}
		return false, c.m.SetDirection(pin, dir)
	case "pull":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: pull <pin> <mode>", errUsage)
		}
		mode, ok := core.ParsePullMode(args[0])
		if !ok {
			return false, fmt.Errorf("unknown pull mode %q", args[0])
		}
		return false, c.m.SetPullMode(pin, mode)
	case "intr":
		if len(args) < 1 || len(args) > 2 {
			return false, fmt.Errorf("%w: intr <pin> <type> [on|off]", errUsage)
		}
		t, ok := core.ParseIntrType(args[0])
		if !ok {
			return false, fmt.Errorf("unknown interrupt type %q", args[0])
		}
		if err := c.m.SetInterruptType(pin, t); err != nil {
			return false, err
		}
		if len(args) == 2 {
			return false, c.m.SetInterruptEnabled(pin, args[1] == "on")
		}
		return false, nil
	case "wake":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: wake <pin> <type|off>", errUsage)
		}
		if args[0] == "off" {
			return false, c.m.DisableWakeup(pin)
		}
		t, ok := core.ParseIntrType(args[0])
		if !ok {
			return false, fmt.Errorf("unknown interrupt type %q", args[0])
		}
		return false, c.m.EnableWakeup(pin, t)
	}
	return false, fmt.Errorf("unknown command %q, try help", cmd)
}

// pin resolves a number or a dictionary pin name
func (c *console) pin(s string) (core.Pin, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return core.Pin(n), nil
	}
	if dict := c.m.Dictionary(); dict != nil {
		if p, ok := dict.Pin(s); ok {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pin %q", s)
}

func (c *console) apply(name string) error {
	if c.store == nil {
		return errors.New("no profile store, start with -db")
	}
	p, err := c.store.Profile(name)
	if err != nil {
		return err
	}
	return applyProfile(c.m, c.log, name, p)
}

func (c *console) listProfiles() error {
	if c.store == nil {
		return errors.New("no profile store, start with -db")
	}
	names, err := c.store.ListProfiles()
	if err != nil {
		return err
	}
	def, _ := c.store.DefaultProfile()
	for _, name := range names {
		marker := " "
		if name == def {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", marker, name)
	}
	return nil
}

func (c *console) send(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: send <command> [args...]", errUsage)
	}
	vals := make([]uint32, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return fmt.Errorf("argument %q: %w", a, err)
		}
		vals = append(vals, uint32(v))
	}
	if err := c.m.Send(args[0], vals...); err != nil {
		return err
	}
	resp, err := c.m.ReadResponse(time.Second)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, resp)
	return nil
}

func (c *console) printDictionary() {
	dict := c.m.Dictionary()
	if dict == nil {
		fmt.Fprintln(c.out, "no dictionary loaded")
		return
	}
	fmt.Fprintf(c.out, "version: %s\n", dict.Version)
	for k, v := range dict.Config {
		fmt.Fprintf(c.out, "  %s = %s\n", k, v)
	}
	fmt.Fprintf(c.out, "commands: %s\n", strings.Join(dict.CommandNames(), " "))
}

// applyProfile configures the board from p, logging skipped pads
func applyProfile(m *mcu.MCU, log logrus.FieldLogger, name string, p profiles.Profile) error {
	cfg, err := p.Config()
	if err != nil {
		return err
	}
	skipped, err := m.Configure(cfg)
	if err != nil {
		return fmt.Errorf("apply profile %q: %w", name, err)
	}
	entry := log.WithField("profile", name)
	if skipped != 0 {
		entry = entry.WithField("skipped", skipped.Pins())
	}
	entry.Info("profile applied")
	return nil
}

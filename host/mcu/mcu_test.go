package mcu

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/protocol"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// newTestMCU connects a client to a firmware command server over net.Pipe.
// The server runs the real command table against a simulated register file.
func newTestMCU(t *testing.T) (*MCU, *core.SimBus, *core.Controller) {
	t.Helper()
	core.InitCoreCommands()
	core.InitGPIOCommands()
	core.RegisterConstant("MCU", "esp32")

	bus := core.NewSimBus()
	ctrl, err := core.New(bus)
	if err != nil {
		t.Fatalf("core.New failed: %v", err)
	}
	core.SetController(ctrl)

	device, host := net.Pipe()
	srv := core.NewServer(device)
	srv.IdleDelay = 0
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	m := NewClient(host, WithLogger(quietLogger()), WithTimeout(2*time.Second))
	t.Cleanup(func() {
		m.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("firmware server did not stop")
		}
		core.SetGlobalTransport(nil)
		core.SetController(nil)
	})
	return m, bus, ctrl
}

func connect(t *testing.T) (*MCU, *core.SimBus, *core.Controller) {
	t.Helper()
	m, bus, ctrl := newTestMCU(t)
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	return m, bus, ctrl
}

func TestRetrieveDictionary(t *testing.T) {
	m, _, _ := connect(t)

	dict := m.Dictionary()
	if dict.Version != core.Version {
		t.Errorf("Version = %q, want %q", dict.Version, core.Version)
	}
	if dict.Config["MCU"] != "esp32" || dict.Config["GPIO_PIN_COUNT"] != "40" {
		t.Errorf("Config = %v", dict.Config)
	}
	if len(m.DictionaryRaw()) <= 40 {
		t.Errorf("dictionary of %d bytes fits one chunk; retrieval loop untested", len(m.DictionaryRaw()))
	}

	msg, ok := dict.Command("gpio_config")
	if !ok {
		t.Fatal("gpio_config missing")
	}
	if len(msg.Params) != 6 || msg.Params[0].Name != "mask_lo" || msg.Params[5].Kind != KindUint {
		t.Errorf("gpio_config params = %+v", msg.Params)
	}
	if resp, ok := dict.Response(0); !ok || resp.Name != "identify_response" || resp.Params[1].Kind != KindBuffer {
		t.Errorf("response 0 = %+v", resp)
	}

	if pin, ok := dict.Pin("gpio39"); !ok || pin != 39 {
		t.Errorf("Pin(gpio39) = %d, %v", pin, ok)
	}
	if _, ok := dict.Pin("gpio20"); ok {
		t.Error("absent GPIO20 listed in the pin enumeration")
	}
	if names := dict.CommandNames(); len(names) == 0 || names[0] != "identify" {
		t.Errorf("CommandNames = %v", names)
	}
}

func TestGPIOHelpers(t *testing.T) {
	m, bus, ctrl := connect(t)

	if err := m.SetDirection(5, core.DirInputOutput); err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if err := m.SetLevel(5, 1); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	if level, err := m.GetLevel(5); err != nil || level != 1 {
		t.Errorf("GetLevel(5) = %d, %v", level, err)
	}

	bus.DriveInput(35, true)
	if level, err := m.GetLevel(35); err != nil || level != 1 {
		t.Errorf("GetLevel(35) = %d, %v", level, err)
	}

	if err := m.SetPullMode(4, core.PullDown); err != nil {
		t.Fatalf("SetPullMode failed: %v", err)
	}
	if mode, _ := ctrl.PullMode(4); mode != core.PullDown {
		t.Errorf("PullMode(4) = %v", mode)
	}

	if err := m.SetInterruptType(4, core.IntrNegEdge); err != nil {
		t.Fatalf("SetInterruptType failed: %v", err)
	}
	if err := m.SetInterruptEnabled(4, true); err != nil {
		t.Fatalf("SetInterruptEnabled failed: %v", err)
	}
	state, err := ctrl.State(4)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.Intr != core.IntrNegEdge || state.IntrEnable == 0 {
		t.Errorf("state = %+v", state)
	}

	if err := m.EnableWakeup(4, core.IntrLowLevel); err != nil {
		t.Fatalf("EnableWakeup failed: %v", err)
	}
	if err := m.DisableWakeup(4); err != nil {
		t.Fatalf("DisableWakeup failed: %v", err)
	}
}

func TestGPIOErrors(t *testing.T) {
	m, _, _ := connect(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"output on input-only pin", func() error { return m.SetDirection(34, core.DirOutput) }},
		{"absent pin", func() error { _, err := m.GetLevel(20); return err }},
		{"pin out of range", func() error { return m.SetLevel(40, 1) }},
		{"edge wake-up", func() error { return m.EnableWakeup(4, core.IntrPosEdge) }},
		{"unknown pull mode", func() error { return m.SetPullMode(4, core.PullMode(9)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, core.ErrInvalidArg) {
				t.Errorf("got %v, want ErrInvalidArg", err)
			}
		})
	}
}

func TestConfigureRemote(t *testing.T) {
	m, _, ctrl := connect(t)

	skipped, err := m.Configure(core.Config{
		Pins:   core.MaskOf(12, 20, 36),
		Mode:   core.ModeInput,
		PullUp: true,
		Intr:   core.IntrAnyEdge,
	})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if skipped != core.MaskOf(20) {
		t.Errorf("skipped = %#x, want GPIO20", uint64(skipped))
	}
	for _, pin := range []core.Pin{12, 36} {
		state, err := ctrl.State(pin)
		if err != nil {
			t.Fatalf("State(%d) failed: %v", pin, err)
		}
		if state.Intr != core.IntrAnyEdge {
			t.Errorf("gpio%d state = %+v", pin, state)
		}
		if mode, _ := ctrl.PullMode(pin); mode != core.PullUp {
			t.Errorf("gpio%d pull = %v", pin, mode)
		}
	}

	_, err = m.Configure(core.Config{Pins: core.MaskOf(35), Mode: core.ModeOutput})
	if !errors.Is(err, core.ErrInvalidArg) {
		t.Errorf("output on GPIO35: got %v, want ErrInvalidArg", err)
	}
}

func TestNotInitializedRemote(t *testing.T) {
	m, _, _ := connect(t)
	core.SetController(nil)

	if err := m.SetLevel(5, 1); !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}

func TestSendErrors(t *testing.T) {
	m, _, _ := newTestMCU(t)

	if err := m.Send("gpio_set_level", 5, 1); !errors.Is(err, ErrNoDictionary) {
		t.Errorf("before dictionary: got %v", err)
	}
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	if err := m.Send("gpio_explode"); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("unknown command: got %v", err)
	}
	if err := m.Send("gpio_set_level", 5); err == nil {
		t.Error("expected an argument count error")
	}
	if _, err := m.Call("gpio_get_level", "no_such_response", 5); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("unknown response: got %v", err)
	}
}

func TestSendAndReadResponse(t *testing.T) {
	m, _, _ := connect(t)

	if err := m.Send("gpio_get_level", 5); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	resp, err := m.ReadResponse(time.Second)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if resp.Name != "gpio_result" || resp.Args["op"] != uint32(core.OpGetLevel) {
		t.Errorf("response = %s", resp)
	}
	if got := resp.String(); got != "gpio_result op=5 code=0 value=0" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseDictionary(t *testing.T) {
	doc := []byte(`{"version":"v","config":{"MCU":"esp32"},` +
		`"commands":{"echo a=%u b=%i":3},"responses":{"echoed a=%hu data=%.*s":2}}`)

	dict, err := ParseDictionary(doc)
	if err != nil {
		t.Fatalf("ParseDictionary failed: %v", err)
	}
	echo, ok := dict.Command("echo")
	if !ok || echo.ID != 3 || echo.Params[1].Kind != KindInt {
		t.Fatalf("echo = %+v", echo)
	}

	out := protocol.NewScratchOutput()
	if err := echo.Encode(out, []uint32{7, uint32(0xFFFFFFFF)}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	payload := out.Result()
	if a, _ := protocol.DecodeVLQUint(&payload); a != 7 {
		t.Errorf("a = %d", a)
	}
	if b, _ := protocol.DecodeVLQInt(&payload); b != -1 {
		t.Errorf("b = %d", b)
	}

	echoed, _ := dict.Lookup("echoed")
	out.Reset()
	protocol.EncodeVLQUint(out, 9)
	protocol.EncodeVLQBytes(out, []byte("hi"))
	resp, err := echoed.Decode(out.Result())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if resp.Args["a"] != 9 || string(resp.Buffers["data"]) != "hi" {
		t.Errorf("resp = %s", resp)
	}
}

func TestParseDictionaryErrors(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"commands":`,
		"bad parameter": `{"commands":{"cmd oops":1}}`,
		"bad type":      `{"commands":{"cmd a=%f":1}}`,
		"bad id":        `{"responses":{"resp a=%u":70000}}`,
		"empty format":  `{"commands":{"":1}}`,
	}
	for name, doc := range tests {
		if _, err := ParseDictionary([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

package main

import (
	"net"

	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/host/mcu"
)

// simBoard runs the firmware command server in process over a SimBus, so
// the console and HTTP API can be tried without a board
type simBoard struct {
	bus  *core.SimBus
	ctrl *core.Controller
	done chan error
}

func startSim(log logrus.FieldLogger, opts ...mcu.Option) (*mcu.MCU, *simBoard, error) {
	core.InitCoreCommands()
	core.InitGPIOCommands()
	core.RegisterConstant("MCU", "esp32-sim")

	bus := core.NewSimBus()
	ctrl, err := core.New(bus, core.WithDebugWriter(func(s string) {
		log.Warn(s)
	}))
	if err != nil {
		return nil, nil, err
	}
	core.SetController(ctrl)

	device, host := net.Pipe()
	srv := core.NewServer(device)
	board := &simBoard{bus: bus, ctrl: ctrl, done: make(chan error, 1)}
	go func() { board.done <- srv.Serve() }()

	return mcu.NewClient(host, opts...), board, nil
}

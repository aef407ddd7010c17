// Command gpioctl drives the pins of a board running the espgpio firmware
// from an interactive console and, optionally, over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/host/api"
	"espgpio/host/mcu"
	"espgpio/host/profiles"
	"espgpio/host/serial"
)

var (
	device       = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud         = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	timeout      = flag.Duration("timeout", mcu.DefaultTimeout, "Response timeout")
	dbPath       = flag.String("db", "", "Profile database (bbolt); empty disables profiles")
	profilesFile = flag.String("profiles", "", "JSON profile document imported into the database")
	applyName    = flag.String("apply", "", "Profile applied after connecting (default: the stored default)")
	httpAddr     = flag.String("http", "", "Serve the HTTP API on this address")
	sim          = flag.Bool("sim", false, "Use an in-process simulated board instead of -device")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	core.SetDebugWriter(func(s string) { log.Debug(s) })
	core.SetDebugEnabled(*verbose)

	if err := run(log); err != nil {
		log.WithError(err).Fatal("gpioctl failed")
	}
}

func run(log *logrus.Logger) error {
	var store profiles.Store
	if *dbPath != "" {
		db, err := profiles.OpenBBolt(*dbPath, 0600, nil)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	}
	if *profilesFile != "" {
		if store == nil {
			return errors.New("-profiles needs -db")
		}
		doc, err := profiles.LoadFile(*profilesFile)
		if err != nil {
			return err
		}
		if err := profiles.Import(store, doc); err != nil {
			return err
		}
		log.WithField("count", len(doc.Profiles)).Info("profiles imported")
	}

	if *applyName != "" && store == nil {
		return errors.New("-apply needs -db")
	}

	opts := []mcu.Option{mcu.WithLogger(log), mcu.WithTimeout(*timeout)}
	var m *mcu.MCU
	if *sim {
		client, _, err := startSim(log, opts...)
		if err != nil {
			return err
		}
		m = client
		log.Info("using simulated board")
	} else {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		client, err := mcu.Dial(cfg, opts...)
		if err != nil {
			return err
		}
		m = client
		log.WithField("device", *device).Info("connected")
		// Give a freshly reset board time to start its command loop
		time.Sleep(100 * time.Millisecond)
	}
	defer m.Close()

	if err := m.RetrieveDictionary(); err != nil {
		return err
	}

	if store != nil {
		name := *applyName
		if name == "" {
			def, err := store.DefaultProfile()
			if err != nil {
				return err
			}
			name = def
		}
		if name != "" {
			p, err := store.Profile(name)
			if err != nil {
				return err
			}
			if err := applyProfile(m, log, name, p); err != nil {
				return err
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	httpErrs := make(chan error, 1)
	if *httpAddr != "" {
		srv := &api.Server{Addr: *httpAddr, GPIO: m, Store: store, Logger: log}
		go func() { httpErrs <- srv.Run(ctx) }()
	}

	c := &console{m: m, store: store, out: os.Stdout, log: log}
	consoleErrs := make(chan error, 1)
	go func() { consoleErrs <- c.run(os.Stdin) }()

	select {
	case err := <-consoleErrs:
		return err
	case err := <-httpErrs:
		return err
	case <-ctx.Done():
		return nil
	}
}

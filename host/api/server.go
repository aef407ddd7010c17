// Package api serves a connected board's pins over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"espgpio/core"
	"espgpio/host/profiles"
)

// GPIO is the remote pin controller; *mcu.MCU implements it
type GPIO interface {
	Configure(cfg core.Config) (core.PinMask, error)
	SetDirection(pin core.Pin, dir core.Direction) error
	SetPullMode(pin core.Pin, mode core.PullMode) error
	SetLevel(pin core.Pin, level uint32) error
	GetLevel(pin core.Pin) (uint32, error)
	SetInterruptType(pin core.Pin, t core.IntrType) error
	SetInterruptEnabled(pin core.Pin, enable bool) error
	EnableWakeup(pin core.Pin, t core.IntrType) error
	DisableWakeup(pin core.Pin) error
}

type Server struct {
	Addr string

	GPIO   GPIO
	Store  profiles.Store
	Logger *logrus.Logger
}

// Handler returns the routes without listening
func (s *Server) Handler() http.Handler {
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}

	mux := httprouter.New()

	mux.HandlerFunc(http.MethodGet, "/pins/:pin", s.getPin)
	mux.HandlerFunc(http.MethodPut, "/pins/:pin/level", s.putLevel)
	mux.HandlerFunc(http.MethodPut, "/pins/:pin/direction", s.putDirection)
	mux.HandlerFunc(http.MethodPut, "/pins/:pin/pull", s.putPull)
	mux.HandlerFunc(http.MethodPut, "/pins/:pin/intr", s.putIntr)
	mux.HandlerFunc(http.MethodPut, "/pins/:pin/wakeup", s.putWakeup)

	mux.HandlerFunc(http.MethodPost, "/configure", s.configure)

	mux.HandlerFunc(http.MethodGet, "/profiles", s.listProfiles)
	mux.HandlerFunc(http.MethodGet, "/profiles/:name", s.getProfile)
	mux.HandlerFunc(http.MethodPut, "/profiles/:name", s.putProfile)
	mux.HandlerFunc(http.MethodDelete, "/profiles/:name", s.deleteProfile)
	mux.HandlerFunc(http.MethodPost, "/profiles/:name/apply", s.applyProfile)

	return mux
}

// Run serves until ctx is cancelled or the listener fails
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       time.Second * 15,
		ReadHeaderTimeout: time.Second * 15,
		IdleTimeout:       time.Second * 30,
		MaxHeaderBytes:    4096,
	}

	listenErrs := make(chan error, 1)
	go func() {
		s.Logger.WithField("addr", s.Addr).Info("serving http")
		listenErrs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-listenErrs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

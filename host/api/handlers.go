package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"espgpio/core"
	"espgpio/host/profiles"
)

var errNoStore = errors.New("no profile store configured")

type pinResponse struct {
	Pin   uint32 `json:"pin"`
	Name  string `json:"name"`
	Level uint32 `json:"level"`
}

type levelRequest struct {
	Level uint32 `json:"level"`
}

type directionRequest struct {
	Direction string `json:"direction"`
}

type pullRequest struct {
	Pull string `json:"pull"`
}

// triggerRequest is the body of both the interrupt and the wake-up routes
type triggerRequest struct {
	Type   string `json:"type"`
	Enable bool   `json:"enable"`
}

type configureResponse struct {
	Skipped []uint32 `json:"skipped"`
}

// pinParam accepts "5" as well as the dictionary name "gpio5"
func pinParam(req *http.Request) (core.Pin, error) {
	params := httprouter.ParamsFromContext(req.Context())
	raw := strings.TrimPrefix(params.ByName("pin"), "gpio")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("pin %q: %w", params.ByName("pin"), core.ErrInvalidArg)
	}
	return core.Pin(n), nil
}

func decode(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("unable to decode body: %w", err)
	}
	return nil
}

func (s *Server) getPin(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	level, err := s.GPIO.GetLevel(pin)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, pinResponse{Pin: uint32(pin), Name: core.PinName(pin), Level: level}, http.StatusOK)
}

func (s *Server) putLevel(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	var body levelRequest
	if err := decode(req, &body); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if err := s.GPIO.SetLevel(pin, body.Level); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) putDirection(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	var body directionRequest
	if err := decode(req, &body); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	dir, ok := core.ParseDirection(body.Direction)
	if !ok {
		respond(res, fmt.Errorf("unknown direction %q", body.Direction), http.StatusUnprocessableEntity)
		return
	}

	if err := s.GPIO.SetDirection(pin, dir); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) putPull(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	var body pullRequest
	if err := decode(req, &body); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	mode, ok := core.ParsePullMode(body.Pull)
	if !ok {
		respond(res, fmt.Errorf("unknown pull mode %q", body.Pull), http.StatusUnprocessableEntity)
		return
	}

	if err := s.GPIO.SetPullMode(pin, mode); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) putIntr(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	var body triggerRequest
	if err := decode(req, &body); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	t, ok := core.ParseIntrType(body.Type)
	if !ok {
		respond(res, fmt.Errorf("unknown interrupt type %q", body.Type), http.StatusUnprocessableEntity)
		return
	}

	if err := s.GPIO.SetInterruptType(pin, t); err != nil {
		s.fail(res, req, err)
		return
	}
	if err := s.GPIO.SetInterruptEnabled(pin, body.Enable); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) putWakeup(res http.ResponseWriter, req *http.Request) {
	pin, err := pinParam(req)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	var body triggerRequest
	if err := decode(req, &body); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if !body.Enable {
		err = s.GPIO.DisableWakeup(pin)
	} else if t, ok := core.ParseIntrType(body.Type); !ok {
		respond(res, fmt.Errorf("unknown interrupt type %q", body.Type), http.StatusUnprocessableEntity)
		return
	} else {
		err = s.GPIO.EnableWakeup(pin, t)
	}
	if err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

// apply configures the board from p and reports the skipped pads
func (s *Server) apply(res http.ResponseWriter, req *http.Request, p profiles.Profile) {
	cfg, err := p.Config()
	if err != nil {
		s.fail(res, req, err)
		return
	}

	skipped, err := s.GPIO.Configure(cfg)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	out := configureResponse{Skipped: make([]uint32, 0)}
	for _, pin := range skipped.Pins() {
		out.Skipped = append(out.Skipped, uint32(pin))
	}
	respond(res, out, http.StatusOK)
}

func (s *Server) configure(res http.ResponseWriter, req *http.Request) {
	var p profiles.Profile
	if err := decode(req, &p); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	s.apply(res, req, p)
}

func (s *Server) listProfiles(res http.ResponseWriter, req *http.Request) {
	if s.Store == nil {
		respond(res, errNoStore, http.StatusNotImplemented)
		return
	}

	names, err := s.Store.ListProfiles()
	if err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, names, http.StatusOK)
}

func (s *Server) getProfile(res http.ResponseWriter, req *http.Request) {
	if s.Store == nil {
		respond(res, errNoStore, http.StatusNotImplemented)
		return
	}
	name := httprouter.ParamsFromContext(req.Context()).ByName("name")

	p, err := s.Store.Profile(name)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, p, http.StatusOK)
}

func (s *Server) putProfile(res http.ResponseWriter, req *http.Request) {
	if s.Store == nil {
		respond(res, errNoStore, http.StatusNotImplemented)
		return
	}
	name := httprouter.ParamsFromContext(req.Context()).ByName("name")

	var p profiles.Profile
	if err := decode(req, &p); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if err := s.Store.PutProfile(name, p); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) deleteProfile(res http.ResponseWriter, req *http.Request) {
	if s.Store == nil {
		respond(res, errNoStore, http.StatusNotImplemented)
		return
	}
	name := httprouter.ParamsFromContext(req.Context()).ByName("name")

	if err := s.Store.DeleteProfile(name); err != nil {
		s.fail(res, req, err)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) applyProfile(res http.ResponseWriter, req *http.Request) {
	if s.Store == nil {
		respond(res, errNoStore, http.StatusNotImplemented)
		return
	}
	name := httprouter.ParamsFromContext(req.Context()).ByName("name")

	p, err := s.Store.Profile(name)
	if err != nil {
		s.fail(res, req, err)
		return
	}

	s.Logger.WithField("profile", name).Info("applying profile")
	s.apply(res, req, p)
}

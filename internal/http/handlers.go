package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-sharing/internal/dispatch"
	"github.com/example/ride-sharing/internal/models"
	"github.com/example/ride-sharing/internal/registry"
)

// Server exposes one registry over JSON. The registry is not safe for
// concurrent use, so every access to it, or to a driver or rider it returned,
// happens under mu.
type Server struct {
	mu     sync.Mutex
	reg    *registry.Registry
	ws     *dispatch.WSRegistry
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(reg *registry.Registry, ws *dispatch.WSRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if ws == nil {
		ws = dispatch.NewWSRegistry(logger)
	}
	s := &Server{reg: reg, ws: ws, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/drivers", s.handleAddDriver).Methods("POST")
	api.HandleFunc("/drivers/{id:[0-9]+}", s.handleGetDriver).Methods("GET")
	api.HandleFunc("/drivers/{id:[0-9]+}/rating", s.handleRateDriver).Methods("POST")
	api.HandleFunc("/riders", s.handleAddRider).Methods("POST")
	api.HandleFunc("/riders/{id:[0-9]+}", s.handleGetRider).Methods("GET")
	api.HandleFunc("/riders/{id:[0-9]+}/payment-method", s.handleSetPaymentMethod).Methods("PUT")
	api.HandleFunc("/rides", s.handleCreateRide).Methods("POST")
	api.HandleFunc("/rides", s.handleListRides).Methods("GET")
	api.HandleFunc("/rides/{id:[0-9]+}", s.handleGetRide).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/drivers/{id:[0-9]+}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type addDriverRequest struct {
	Name   string   `json:"name"`
	Rating *float64 `json:"rating"`
}

func (s *Server) handleAddDriver(w http.ResponseWriter, r *http.Request) {
	var req addDriverRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	rating := models.DefaultRating
	if req.Rating != nil {
		rating = *req.Rating
		if rating < models.MinRating || rating > models.MaxRating {
			writeErr(w, fmt.Errorf("%w: %.2f", models.ErrInvalidRating, rating))
			return
		}
	}

	s.mu.Lock()
	summary := s.reg.AddDriver(req.Name, rating).Summary()
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	d, ok := s.reg.FindDriver(id)
	var summary models.DriverSummary
	if ok {
		summary = d.Summary()
	}
	s.mu.Unlock()
	if !ok {
		writeErr(w, fmt.Errorf("%w: %d", models.ErrDriverNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type rateDriverRequest struct {
	Rating float64 `json:"rating"`
}

func (s *Server) handleRateDriver(w http.ResponseWriter, r *http.Request) {
	var req rateDriverRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	d, err := s.reg.RateDriver(pathID(r), req.Rating)
	var summary models.DriverSummary
	if err == nil {
		summary = d.Summary()
	}
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type addRiderRequest struct {
	Name          string `json:"name"`
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) handleAddRider(w http.ResponseWriter, r *http.Request) {
	var req addRiderRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	summary := s.reg.AddRider(req.Name, req.PaymentMethod).Summary()
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleGetRider(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	rd, ok := s.reg.FindRider(id)
	var summary models.RiderSummary
	if ok {
		summary = rd.Summary()
	}
	s.mu.Unlock()
	if !ok {
		writeErr(w, fmt.Errorf("%w: %d", models.ErrRiderNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) handleSetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	rd, err := s.reg.SetRiderPaymentMethod(pathID(r), req.PaymentMethod)
	var summary models.RiderSummary
	if err == nil {
		summary = rd.Summary()
	}
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type createRideRequest struct {
	Type     string  `json:"type"`
	Pickup   string  `json:"pickup"`
	Dropoff  string  `json:"dropoff"`
	Distance float64 `json:"distance"`
	DriverID int     `json:"driver_id"`
	RiderID  int     `json:"rider_id"`
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	ride, err := s.createRide(req)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride.Details())
}

// createRide resolves both ids before building the ride so an unknown id
// never spends a ride id. Callers hold s.mu.
func (s *Server) createRide(req createRideRequest) (models.Ride, error) {
	d, ok := s.reg.FindDriver(req.DriverID)
	if !ok {
		return models.Ride{}, fmt.Errorf("%w: %d", models.ErrDriverNotFound, req.DriverID)
	}
	rd, ok := s.reg.FindRider(req.RiderID)
	if !ok {
		return models.Ride{}, fmt.Errorf("%w: %d", models.ErrRiderNotFound, req.RiderID)
	}
	return s.reg.CreateRide(req.Type, req.Pickup, req.Dropoff, req.Distance, d, rd)
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	report := s.reg.RideReport()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	ride, ok := s.reg.FindRide(id)
	s.mu.Unlock()
	if !ok {
		writeErr(w, fmt.Errorf("%w: %d", models.ErrRideNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, ride.Details())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.reg.Stats()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	_, ok := s.reg.FindDriver(id)
	s.mu.Unlock()
	if !ok {
		writeErr(w, fmt.Errorf("%w: %d", models.ErrDriverNotFound, id))
		return
	}
	log := s.log(r).With("driver_id", id)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "error", err)
		return
	}
	s.ws.Add(id, conn)
	log.Info("driver connected")

	// drain until the client goes away
	go func() {
		defer func() {
			s.ws.Remove(id, conn)
			_ = conn.Close()
			log.Info("driver disconnected")
		}()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnknownRideType):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidRating):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrIncompleteRideAssignment):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

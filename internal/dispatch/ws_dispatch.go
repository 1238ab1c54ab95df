package dispatch

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-sharing/internal/models"
)

const (
	writeWait   = 10 * time.Second
	sendBacklog = 64
)

var (
	ErrNoSession     = errors.New("no ws session")
	ErrSessionClosed = errors.New("ws session closed")
	// ErrSlowConsumer means the driver stopped reading; its session is dropped.
	ErrSlowConsumer = errors.New("ws session backlog full")
)

// Assignment is pushed to a driver's socket when a ride is linked to it.
type Assignment struct {
	EventID  string             `json:"event_id"`
	DriverID int                `json:"driver_id"`
	RiderID  int                `json:"rider_id"`
	Ride     models.RideDetails `json:"ride"`
}

// WSSession is a connected driver socket. Writes happen on its own
// goroutine so queueing an assignment never waits on the network.
type WSSession struct {
	conn *websocket.Conn
	send chan Assignment
	done chan struct{}
	once sync.Once
}

func newWSSession(conn *websocket.Conn, backlog int) *WSSession {
	return &WSSession{
		conn: conn,
		send: make(chan Assignment, backlog),
		done: make(chan struct{}),
	}
}

func (s *WSSession) enqueue(a Assignment) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- a:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (s *WSSession) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// writePump drains the send queue until the session is closed or a write fails.
func (s *WSSession) writePump(onFail func(error)) {
	for {
		select {
		case <-s.done:
			return
		case a := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(a); err != nil {
				select {
				case <-s.done:
				default:
					onFail(err)
				}
				return
			}
		}
	}
}

// WSRegistry holds one session per driver id and forwards ride assignments.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[int]*WSSession
	backlog  int
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[int]*WSSession), backlog: sendBacklog, logger: logger}
}

// Add registers conn for driverID, replacing and closing any older session.
func (r *WSRegistry) Add(driverID int, conn *websocket.Conn) {
	s := newWSSession(conn, r.backlog)
	r.mu.Lock()
	old := r.sessions[driverID]
	r.sessions[driverID] = s
	r.mu.Unlock()
	if old != nil {
		old.close()
	}
	go s.writePump(func(err error) {
		r.logger.Warn("ws send error", "driver_id", driverID, "error", err)
		r.drop(driverID, s)
	})
}

// Remove drops the session only if it still belongs to conn.
func (r *WSRegistry) Remove(driverID int, conn *websocket.Conn) {
	r.mu.Lock()
	s, ok := r.sessions[driverID]
	if !ok || s.conn != conn {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, driverID)
	r.mu.Unlock()
	s.close()
}

func (r *WSRegistry) drop(driverID int, s *WSSession) {
	r.mu.Lock()
	if r.sessions[driverID] == s {
		delete(r.sessions, driverID)
	}
	r.mu.Unlock()
	s.close()
}

func (r *WSRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Offer queues a for the driver's writer without blocking. A driver whose
// queue is full is disconnected.
func (r *WSRegistry) Offer(driverID int, a Assignment) error {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	err := s.enqueue(a)
	if errors.Is(err, ErrSlowConsumer) {
		r.drop(driverID, s)
	}
	return err
}

// Observe forwards ride.created events to the assigned driver, if connected.
func (r *WSRegistry) Observe(e models.Event) {
	if e.Kind != models.EventRideCreated || e.Ride == nil {
		return
	}
	err := r.Offer(e.DriverID, Assignment{EventID: e.ID, DriverID: e.DriverID, RiderID: e.RiderID, Ride: *e.Ride})
	if err != nil && !errors.Is(err, ErrNoSession) {
		r.logger.Warn("ride assignment not delivered", "ride_id", e.Ride.ID, "driver_id", e.DriverID, "error", err)
	}
}

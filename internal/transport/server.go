package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"exchangecore/internal/apperr"
	"exchangecore/internal/coordinator"
	"exchangecore/internal/workerpool"
)

const (
	maxRecvSize     = 4 * 1024
	defaultWorkers  = 10
	connReadTimeout = 5 * time.Second
)

// clientMessage links a decoded wire message to the connection it arrived
// on.
type clientMessage struct {
	conn net.Conn
	msg  any
}

// Server accepts TCP connections, decodes NewOrder/CancelOrder frames off
// them, and drives a coordinator.Coordinator: a tomb-supervised accept
// loop hands connections to a worker pool, while a single session-handler
// goroutine serializes engine/ledger access through the coordinator.
type Server struct {
	addr   string
	coord  *coordinator.Coordinator
	pool   *workerpool.Pool
	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]net.Conn

	inbox chan clientMessage
}

// New constructs a Server listening on addr (host:port) and dispatching
// through coord.
func New(addr string, coord *coordinator.Coordinator) *Server {
	s := &Server{
		addr:     addr,
		coord:    coord,
		sessions: make(map[string]net.Conn),
		inbox:    make(chan clientMessage, defaultWorkers),
	}
	s.pool = workerpool.New(defaultWorkers, s.handleConnection)
	return s
}

// Run starts the listener and blocks until ctx is cancelled or a fatal
// error occurs.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", s.addr, err)
	}
	defer listener.Close()

	t.Go(func() error {
		s.pool.Run(t)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("addr", s.addr).Msg("transport server listening")

	for {
		select {
		case <-ctx.Done():
			return t.Wait()
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return t.Wait()
				default:
					log.Error().Err(err).Msg("accept failed")
					continue
				}
			}
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cm := <-s.inbox:
			if err := s.handleMessage(cm); err != nil {
				log.Error().Err(err).Str("remote", cm.conn.RemoteAddr().String()).Msg("error handling message")
				s.writeError(cm.conn, err)
			}
		}
	}
}

func (s *Server) handleMessage(cm clientMessage) error {
	switch m := cm.msg.(type) {
	case NewOrderMessage:
		order, err := m.Order()
		if err != nil {
			return err
		}
		result, err := s.coord.PlaceOrder(context.Background(), order)
		if err != nil {
			return err
		}
		return s.writeExecutionReport(cm.conn, result.Taker)
	case CancelOrderMessage:
		order, err := s.coord.CancelOrder(context.Background(), m.OrderID)
		if err != nil {
			return err
		}
		return s.writeExecutionReport(cm.conn, order)
	case MessageType:
		if m == Heartbeat {
			return nil
		}
		return ErrInvalidMessageType
	default:
		return ErrInvalidMessageType
	}
}

// handleConnection is a worker pool task: it reads exactly one frame off
// conn, decodes it, and forwards it to the session handler, then
// re-enqueues the connection for its next frame. It returns an error
// (fatal to the tomb) only when handed a task that is not a net.Conn; on
// pool shutdown it returns nil.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return apperr.New(apperr.KindInternal, "transport: unexpected task type")
	}

	if err := conn.SetReadDeadline(time.Now().Add(connReadTimeout)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		s.closeSession(conn)
		return nil
	}

	buf := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buf)
		if err != nil {
			s.closeSession(conn)
			return nil
		}

		msg, err := Decode(buf[:n])
		if err != nil {
			log.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("failed to decode frame")
			s.writeError(conn, err)
			s.pool.AddTask(conn)
			return nil
		}

		s.inbox <- clientMessage{conn: conn, msg: msg}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = conn
}

func (s *Server) closeSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, conn.RemoteAddr().String())
	conn.Close()
}

func (s *Server) writeExecutionReport(conn net.Conn, order interface{ String() string }) error {
	_, err := conn.Write([]byte(order.String() + "\n"))
	return err
}

func (s *Server) writeError(conn net.Conn, cause error) {
	if _, err := conn.Write([]byte(fmt.Sprintf("ERR %s\n", cause.Error()))); err != nil {
		log.Error().Err(err).Msg("failed to write error report")
	}
}

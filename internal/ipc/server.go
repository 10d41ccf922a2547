package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"uplink/internal/daemon"
	"uplink/internal/logging"
)

// Server exposes daemon queries via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Uplink", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.RunID = status.RunID
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockPath
	resp.HistoryDBPath = status.HistoryDBPath
	resp.TrackedObjects = append(resp.TrackedObjects, status.TrackedObjects...)
	return nil
}

func (s *service) Networks(_ NetworksRequest, resp *NetworksResponse) error {
	records, err := s.daemon.RecentNetworks(s.ctx)
	if err != nil {
		return err
	}
	resp.Networks = make([]Network, 0, len(records))
	for _, record := range records {
		resp.Networks = append(resp.Networks, Network{
			SSID:      record.SSID,
			Band:      string(record.Band()),
			Frequency: record.Frequency,
			Strength:  record.Strength,
			Hidden:    record.Hidden(),
			LastSeen:  record.LastSeen,
		})
	}
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	rows, err := s.daemon.RecentEvents(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Events = make([]Event, 0, len(rows))
	for _, row := range rows {
		resp.Events = append(resp.Events, Event{
			RunID:      row.RunID,
			Seq:        row.Seq,
			Object:     row.Object,
			Source:     row.Source,
			Kind:       row.Kind,
			State:      row.State,
			Error:      row.Error,
			ObservedAt: row.ObservedAt,
		})
	}
	return nil
}

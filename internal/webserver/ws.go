package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/psidex/malsim/internal/graphs/graphologyws"
	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/session"
)

// handleSession upgrades to a websocket and runs one session for its lifetime. The
// first message must be a session.Config, every later one a Command.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade err", "err", err)
		return
	}
	defer c.Close()

	ws := lib.NewThreadSafeWebSocket(c)
	provider := graphologyws.NewGraphologyWs(ws, s.logger, s.cfg.Dark)
	provider.OnMessage(func(msgType string) {
		s.metrics.RecordMessage("out", msgType)
	})

	_, msg, err := ws.ReadMessage()
	if err != nil {
		s.logger.Warn("ws cfg read err", "err", err)
		return
	}
	s.metrics.RecordMessage("in", "config")

	cfg, err := s.mergeConfig(s.cfg.Defaults, msg)
	if err != nil {
		s.logger.Info("rejected session config", "err", err)
		provider.NotifyError(err.Error())
		return
	}

	sess := session.New(cfg,
		session.WithLogger(s.logger),
		session.WithMetrics(s.metrics),
		session.WithProviders(provider),
	)
	defer sess.Close()

	if err := s.register(sess); err != nil {
		provider.NotifyError(err.Error())
		return
	}
	defer s.unregister(sess.ID())

	logger := s.logger.With("session", sess.ID())
	logger.Info("Session opened", "remote", r.RemoteAddr, "strain", cfg.Strain, "size", cfg.NetworkSize)
	provider.NotifyState(sess.State().String())

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read err", "err", err)
			}
			logger.Info("Session closed")
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			s.metrics.RecordMessage("in", "invalid")
			provider.NotifyError(fmt.Sprintf("invalid command: %v", err))
			continue
		}
		s.metrics.RecordMessage("in", cmd.Command)

		if err := s.dispatch(sess, provider, cmd); err != nil {
			logger.Debug("command rejected", "command", cmd.Command, "err", err)
			provider.NotifyError(err.Error())
		}
	}
}

func (s *Server) dispatch(sess *session.Session, provider *graphologyws.GraphologyWs, cmd Command) error {
	switch cmd.Command {
	case CommandStart:
		return sess.Start()
	case CommandPause:
		sess.Pause()
	case CommandReset:
		sess.Reset()
	case CommandConfigure:
		if len(cmd.Config) == 0 {
			return errors.New("configure: missing config")
		}
		cfg, err := s.mergeConfig(sess.Config(), cmd.Config)
		if err != nil {
			return err
		}
		if err := sess.Configure(cfg); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
	case CommandExport:
		provider.NotifyExport(sess.Snapshot().Series.CSV())
		s.metrics.RecordExport()
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	return nil
}

// mergeConfig decodes raw on top of base and validates the result.
func (s *Server) mergeConfig(base session.Config, raw []byte) (session.Config, error) {
	cfg := base
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return session.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return session.Config{}, err
	}
	return cfg, nil
}

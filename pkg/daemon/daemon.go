package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/config"
	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/events"
)

// Server owns the calculator engine and adapts HTTP requests to it.
type Server struct {
	conf   config.Config
	hub    *events.EventHub
	delays *delayer

	// mu serializes engine access: one action runs to completion before the
	// next one starts.
	mu     sync.Mutex
	engine *engine.Engine
	// displayGen counts published display states. A blink restore only
	// applies if no newer state was published since the blink.
	displayGen uint64
	// blinkText is the text of the last blink requested by the running
	// action. The blink is shown once the action's state is published.
	blinkText *string

	autoClear *Scheduler
}

// NewServer builds a server around a fresh engine configured from conf.
func NewServer(conf config.Config) *Server {
	s := &Server{
		conf:   conf,
		hub:    events.NewEventHub(),
		delays: newDelayer(),
	}
	s.engine = engine.New(engine.Options{
		MaxLength: conf.MaxLength(),
		Separator: conf.DecimalSeparator(),
		OnEffect:  s.onEffect,
	})
	s.autoClear = NewScheduler(s.autoClearTask, func(data any) {
		logrus.WithField("scheduledAt", data).Info("calculator cleared by schedule")
	}, func(data any) {
		logrus.Errorf("auto clear failed: %v", data)
	})
	return s
}

// Hub returns the event hub the widget subscribes to.
func (s *Server) Hub() *events.EventHub {
	return s.hub
}

// do runs fn with exclusive access to the engine and broadcasts the
// resulting state.
func (s *Server) do(fn func(e *engine.Engine) error) (engine.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blinkText = nil
	err := fn(s.engine)
	st := s.engine.State()

	// published under the lock so subscribers see states in engine order
	s.displayGen++
	s.delays.Cancel(blinkKey)
	s.hub.Publish(events.DisplayUpdate, st)

	if s.blinkText != nil && *s.blinkText == st.Display {
		s.blink(st.Display)
	}
	s.blinkText = nil
	return st, err
}

func (s *Server) state() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

func (s *Server) autoClearTask() error {
	s.do(func(e *engine.Engine) error {
		e.Clear()
		return nil
	})
	return nil
}

// applyConfig pushes reloaded settings into the running engine and
// scheduler.
func (s *Server) applyConfig() {
	s.do(func(e *engine.Engine) error {
		e.Reconfigure(s.conf.MaxLength(), s.conf.DecimalSeparator())
		return nil
	})

	if err := s.autoClear.Schedule(s.conf.AutoClearSchedule()); err != nil {
		logrus.Errorf("failed to apply auto clear schedule: %v", err)
	}
}

// Close stops background work and ends all event streams.
func (s *Server) Close() {
	s.autoClear.Stop()
	s.delays.Stop()
	s.hub.Close()
}

// Handler returns the HTTP API and the widget.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	s.registerWidget(router)

	router.GET("/state", s.getState)
	router.POST("/digit", s.appendDigit)
	router.POST("/invert", s.invertSign)
	router.POST("/delete", s.deleteLastCharacter)
	router.POST("/clear", s.clear)
	router.POST("/operation", s.selectOperation)
	router.POST("/equals", s.equals)
	router.POST("/press", s.press)
	router.GET("/events", s.streamEvents)
	router.GET("/config", s.getConfig)
	router.PUT("/decimal-separator", s.setDecimalSeparator)
	router.PUT("/auto-clear-schedule", s.setAutoClearSchedule)
	router.GET("/auto-clear-schedule", s.getAutoClearSchedule)
	router.POST("/auto-clear-schedule/skip", s.skipAutoClear)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	s := NewServer(conf)
	if err := s.autoClear.Schedule(conf.AutoClearSchedule()); err != nil {
		logrus.Errorf("ignoring auto clear schedule: %v", err)
	}
	s.autoClear.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := func() {
		err := conf.Load()
		if err != nil {
			logrus.Errorf("failed to reload config: %v", err)
			return
		}
		s.applyConfig()
		logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		defer signal.Stop(sigc)
		for {
			select {
			case <-sigc:
				reload()
			case <-ctx.Done():
				return
			}
		}
	}()

	// Reload when the file is edited
	go func() {
		if err := config.Watch(ctx, configPath, reload); err != nil {
			logrus.Warnf("config file changes will not be picked up: %v", err)
		}
	}()

	router := s.Handler()

	if err := removeStaleSocket(unixSocketPath); err != nil {
		return err
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", unixSocketPath)
		}
	}

	servers := []*http.Server{{Handler: router}}
	listeners := []net.Listener{l}

	if addr := conf.ListenAddress(); addr != "" {
		tl, err := net.Listen("tcp", addr)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to listen on %s", addr)
		}
		servers = append(servers, &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second})
		listeners = append(listeners, tl)
		logrus.Infof("calculator available at http://%s/", tl.Addr().String())
	}

	// Serve HTTP on unix socket and, if configured, TCP
	for i := range servers {
		srv, l := servers[i], listeners[i]
		go func() {
			logrus.Infof("http server listening on %s", l.Addr().String())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("http server on %s stopped: %v", l.Addr().String(), err)
				cancel()
			}
		}()
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case <-ctx.Done():
		logrus.Info("server failure: shutting down.")
	}

	// End event streams first, otherwise Shutdown waits for them.
	s.Close()

	logrus.Info("shutting down http servers")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("failed to shutdown http server: %v", err)
		}
	}

	logrus.Info("exiting")
	return nil
}

// removeStaleSocket deletes a socket file left behind by a previous run.
func removeStaleSocket(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat %s", path)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return pkgerrors.Errorf("%s exists and is not a socket", path)
	}
	logrus.Debugf("removing stale socket %s", path)
	return os.Remove(path)
}

package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/config"
	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/keymap"
	"github.com/charlie0129/calc/pkg/version"
)

// respond writes the engine state. A computation error is part of the state,
// not a failed request.
func respond(c *gin.Context, st engine.State, err error) {
	if err != nil {
		if !errors.Is(err, engine.ErrComputation) {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		logrus.WithError(err).Info("computation failed, waiting for clear")
	}
	c.IndentedJSON(http.StatusOK, st)
}

func (s *Server) getState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.state())
}

func (s *Server) appendDigit(c *gin.Context) {
	var d string
	if err := c.BindJSON(&d); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if !engine.IsInputSymbol(d) {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("symbol must be a digit or a decimal separator, got %q", d))
		return
	}

	st, err := s.do(func(e *engine.Engine) error {
		e.AppendDigit(d)
		return nil
	})
	respond(c, st, err)
}

func (s *Server) invertSign(c *gin.Context) {
	st, err := s.do(func(e *engine.Engine) error {
		e.InvertSign()
		return nil
	})
	respond(c, st, err)
}

func (s *Server) deleteLastCharacter(c *gin.Context) {
	st, err := s.do(func(e *engine.Engine) error {
		e.DeleteLastCharacter()
		return nil
	})
	respond(c, st, err)
}

func (s *Server) clear(c *gin.Context) {
	st, err := s.do(func(e *engine.Engine) error {
		e.Clear()
		return nil
	})
	logrus.Debug("calculator cleared")
	respond(c, st, err)
}

func (s *Server) selectOperation(c *gin.Context) {
	var o string
	if err := c.BindJSON(&o); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	op, err := engine.ParseOperation(o)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	st, err := s.do(func(e *engine.Engine) error {
		return e.SelectOperation(op)
	})
	respond(c, st, err)
}

func (s *Server) equals(c *gin.Context) {
	st, err := s.do(func(e *engine.Engine) error {
		return e.Equals()
	})
	respond(c, st, err)
}

// press accepts a key name ("Enter", "Backspace") or a sequence of
// single-character keys ("12+3=") and applies them in order.
func (s *Server) press(c *gin.Context) {
	var keys string
	if err := c.BindJSON(&keys); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	actions, err := keymap.Resolve(keys)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if len(actions) == 0 {
		abortWithError(c, http.StatusBadRequest, errors.New("no keys given"))
		return
	}

	st, err := s.do(func(e *engine.Engine) error {
		var last error
		for _, a := range actions {
			if err := keymap.Apply(e, a); err != nil {
				last = err
			}
		}
		return last
	})
	for _, k := range keymap.Split(keys) {
		s.flashKey(k)
	}
	respond(c, st, err)
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *Server) setDecimalSeparator(c *gin.Context) {
	var sep string
	if err := c.BindJSON(&sep); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if !engine.ValidSeparator(sep) {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("decimal separator must be \",\" or \".\", got %q", sep))
		return
	}

	s.conf.SetDecimalSeparator(sep)
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	s.applyConfig()

	logrus.Infof("set decimal separator to %q", sep)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("decimal separator set to %q", sep))
}

func (s *Server) setAutoClearSchedule(c *gin.Context) {
	var expr string
	if err := c.BindJSON(&expr); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	// Validate before persisting.
	if err := s.autoClear.Schedule(expr); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	s.conf.SetAutoClearSchedule(expr)
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if expr == "" {
		logrus.Info("auto clear disabled")
		c.IndentedJSON(http.StatusCreated, "auto clear disabled")
		return
	}

	next, _ := s.autoClear.Status()
	msg := fmt.Sprintf("auto clear scheduled with %q, next run at %s", expr, next.Format(time.DateTime))
	logrus.Info(msg)

	c.IndentedJSON(http.StatusCreated, msg)
}

// AutoClearStatus is returned by GET /auto-clear-schedule.
type AutoClearStatus struct {
	Schedule string `json:"schedule"`
	NextRun  string `json:"nextRun,omitempty"`
}

func (s *Server) getAutoClearSchedule(c *gin.Context) {
	st := AutoClearStatus{Schedule: s.conf.AutoClearSchedule()}
	if next, _ := s.autoClear.Status(); !next.IsZero() {
		st.NextRun = next.Format(time.RFC3339)
	}
	c.IndentedJSON(http.StatusOK, st)
}

func (s *Server) skipAutoClear(c *gin.Context) {
	if err := s.autoClear.Skip(); err != nil {
		abortWithError(c, http.StatusConflict, err)
		return
	}

	next, _ := s.autoClear.Status()
	msg := fmt.Sprintf("next auto clear skipped, next run at %s", next.Format(time.DateTime))
	logrus.Info(msg)

	c.IndentedJSON(http.StatusCreated, msg)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

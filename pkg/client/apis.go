package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/calc/pkg/config"
	"github.com/charlie0129/calc/pkg/engine"
)

func (c *Client) GetState() (*engine.State, error) {
	ret, err := c.Get("/state")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get calculator state")
	}
	return parseState(ret)
}

func (c *Client) AppendDigit(symbol string) (*engine.State, error) {
	return c.action("/digit", quote(symbol))
}

func (c *Client) InvertSign() (*engine.State, error) {
	return c.action("/invert", "")
}

func (c *Client) Delete() (*engine.State, error) {
	return c.action("/delete", "")
}

func (c *Client) Clear() (*engine.State, error) {
	return c.action("/clear", "")
}

func (c *Client) SelectOperation(op engine.Operation) (*engine.State, error) {
	return c.action("/operation", quote(string(op)))
}

func (c *Client) Equals() (*engine.State, error) {
	return c.action("/equals", "")
}

// Press sends a key name or a sequence of keys, e.g. "12+3=".
func (c *Client) Press(keys string) (*engine.State, error) {
	return c.action("/press", quote(keys))
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

func (c *Client) SetDecimalSeparator(sep string) (string, error) {
	ret, err := c.Put("/decimal-separator", quote(sep))
	return unquote(ret), err
}

// ===== Auto Clear APIs =====

type AutoClearStatus struct {
	Schedule string `json:"schedule"`
	NextRun  string `json:"nextRun,omitempty"`
}

// SetAutoClearSchedule sets the cron expression that clears the calculator.
// An empty expression disables it.
func (c *Client) SetAutoClearSchedule(expr string) (string, error) {
	ret, err := c.Put("/auto-clear-schedule", quote(expr))
	return unquote(ret), err
}

func (c *Client) SkipAutoClear() (string, error) {
	ret, err := c.Post("/auto-clear-schedule/skip", "")
	return unquote(ret), err
}

func (c *Client) GetAutoClearSchedule() (*AutoClearStatus, error) {
	ret, err := c.Get("/auto-clear-schedule")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get auto clear schedule")
	}

	var st AutoClearStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal auto clear schedule")
	}
	return &st, nil
}

func (c *Client) action(path, data string) (*engine.State, error) {
	ret, err := c.Post(path, data)
	if err != nil {
		return nil, err
	}
	return parseState(ret)
}

func parseState(ret string) (*engine.State, error) {
	var st engine.State
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calculator state")
	}
	return &st, nil
}

package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config interface {
	MaxLength() int
	DecimalSeparator() string
	BlinkDelay() time.Duration
	ListenAddress() string
	AllowNonRootAccess() bool
	AutoClearSchedule() string

	SetMaxLength(int)
	SetDecimalSeparator(string)
	SetBlinkDelay(time.Duration)
	SetListenAddress(string)
	SetAllowNonRootAccess(bool)
	SetAutoClearSchedule(string)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/utils/ptr"
)

const (
	// MaxDisplayLength bounds maxLength; longer displays cannot show a
	// float64 more precisely anyway.
	MaxDisplayLength = 24
	// MaxBlinkDelay bounds blinkDelayMs.
	MaxBlinkDelay = 2 * time.Second
)

var (
	defaultFileConfig = &RawFileConfig{
		MaxLength:          ptr.To(engine.DefaultMaxLength),
		DecimalSeparator:   ptr.To(engine.DefaultSeparator),
		BlinkDelayMs:       ptr.To(50),
		ListenAddress:      ptr.To("127.0.0.1:8410"),
		AllowNonRootAccess: ptr.To(false),
		// Auto clear is opt-in.
		AutoClearSchedule: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk representation. Unset fields take defaults.
type RawFileConfig struct {
	MaxLength          *int    `json:"maxLength,omitempty" toml:"maxLength,omitempty"`
	DecimalSeparator   *string `json:"decimalSeparator,omitempty" toml:"decimalSeparator,omitempty"`
	BlinkDelayMs       *int    `json:"blinkDelayMs,omitempty" toml:"blinkDelayMs,omitempty"`
	ListenAddress      *string `json:"listenAddress,omitempty" toml:"listenAddress,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty" toml:"allowNonRootAccess,omitempty"`
	AutoClearSchedule  *string `json:"autoClearSchedule,omitempty" toml:"autoClearSchedule,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		MaxLength:          ptr.To(c.MaxLength()),
		DecimalSeparator:   ptr.To(c.DecimalSeparator()),
		BlinkDelayMs:       ptr.To(int(c.BlinkDelay() / time.Millisecond)),
		ListenAddress:      ptr.To(c.ListenAddress()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
		AutoClearSchedule:  ptr.To(c.AutoClearSchedule()),
	}

	return rawConfig, nil
}

// Validate checks the fields that are set.
func (r *RawFileConfig) Validate() error {
	if r.MaxLength != nil && (*r.MaxLength < 1 || *r.MaxLength > MaxDisplayLength) {
		return pkgerrors.Errorf("maxLength must be between 1 and %d, got %d", MaxDisplayLength, *r.MaxLength)
	}
	if r.DecimalSeparator != nil && !engine.ValidSeparator(*r.DecimalSeparator) {
		return pkgerrors.Errorf("decimalSeparator must be \",\" or \".\", got %q", *r.DecimalSeparator)
	}
	if r.BlinkDelayMs != nil {
		if d := time.Duration(*r.BlinkDelayMs) * time.Millisecond; d < 0 || d > MaxBlinkDelay {
			return pkgerrors.Errorf("blinkDelayMs must be between 0 and %d, got %d", MaxBlinkDelay.Milliseconds(), *r.BlinkDelayMs)
		}
	}
	return nil
}

func valueOr[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

// Path returns the file backing the config.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) MaxLength() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.MaxLength, defaultFileConfig.MaxLength)
}

func (f *File) DecimalSeparator() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.DecimalSeparator, defaultFileConfig.DecimalSeparator)
}

func (f *File) BlinkDelay() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	ms := valueOr(f.c.BlinkDelayMs, defaultFileConfig.BlinkDelayMs)
	return time.Duration(ms) * time.Millisecond
}

func (f *File) ListenAddress() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.ListenAddress, defaultFileConfig.ListenAddress)
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) AutoClearSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return valueOr(f.c.AutoClearSchedule, defaultFileConfig.AutoClearSchedule)
}

func (f *File) SetMaxLength(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i < 1 || i > MaxDisplayLength {
		panic("max length out of range")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MaxLength = &i
}

func (f *File) SetDecimalSeparator(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	if !engine.ValidSeparator(s) {
		panic("decimal separator must be \",\" or \".\"")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DecimalSeparator = &s
}

func (f *File) SetBlinkDelay(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}

	if d < 0 || d > MaxBlinkDelay {
		panic("blink delay out of range")
	}

	ms := int(d / time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BlinkDelayMs = &ms
}

func (f *File) SetListenAddress(addr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ListenAddress = &addr
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetAutoClearSchedule(expr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AutoClearSchedule = &expr
}

func (f *File) isTOML() bool {
	return strings.EqualFold(filepath.Ext(f.filepath), ".toml")
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isTOML() {
		err = toml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	if f.isTOML() {
		err = toml.NewEncoder(fp).Encode(f.c)
	} else {
		enc := json.NewEncoder(fp)
		enc.SetIndent("", "  ")
		err = enc.Encode(f.c)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"maxLength":          f.MaxLength(),
		"decimalSeparator":   f.DecimalSeparator(),
		"blinkDelay":         f.BlinkDelay().String(),
		"listenAddress":      f.ListenAddress(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
		"autoClearSchedule":  f.AutoClearSchedule(),
	}
}

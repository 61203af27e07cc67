package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileDefaultsWhenMissing(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "calc.json"))
	require.NoError(t, err)

	assert.Equal(t, 15, f.MaxLength())
	assert.Equal(t, ",", f.DecimalSeparator())
	assert.Equal(t, 50*time.Millisecond, f.BlinkDelay())
	assert.Equal(t, "127.0.0.1:8410", f.ListenAddress())
	assert.False(t, f.AllowNonRootAccess())
	assert.Empty(t, f.AutoClearSchedule())
}

func TestNewFileEmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "calc.json")
	require.NoError(t, os.WriteFile(p, []byte("  \n"), 0644))

	f, err := NewFile(p)
	require.NoError(t, err)
	assert.Equal(t, 15, f.MaxLength())
}

func TestLoadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "calc.json")
	require.NoError(t, os.WriteFile(p, []byte(`{
		"maxLength": 12,
		"decimalSeparator": ".",
		"autoClearSchedule": "@every 30m"
	}`), 0644))

	f, err := NewFile(p)
	require.NoError(t, err)

	assert.Equal(t, 12, f.MaxLength())
	assert.Equal(t, ".", f.DecimalSeparator())
	assert.Equal(t, "@every 30m", f.AutoClearSchedule())
	// unset fields keep their defaults
	assert.Equal(t, 50*time.Millisecond, f.BlinkDelay())
}

func TestLoadTOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "calc.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
maxLength = 10
blinkDelayMs = 120
listenAddress = ":9000"
allowNonRootAccess = true
`), 0644))

	f, err := NewFile(p)
	require.NoError(t, err)

	assert.Equal(t, 10, f.MaxLength())
	assert.Equal(t, 120*time.Millisecond, f.BlinkDelay())
	assert.Equal(t, ":9000", f.ListenAddress())
	assert.True(t, f.AllowNonRootAccess())
	assert.Equal(t, ",", f.DecimalSeparator())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"separator":  `{"decimalSeparator": ";"}`,
		"max length": `{"maxLength": 0}`,
		"blink":      `{"blinkDelayMs": -5}`,
		"syntax":     `{"maxLength": `,
	} {
		p := filepath.Join(t.TempDir(), "calc.json")
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))

		_, err := NewFile(p)
		assert.Error(t, err, name)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"calc.json", "calc.toml"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			f, err := NewFile(p)
			require.NoError(t, err)

			f.SetMaxLength(9)
			f.SetDecimalSeparator(".")
			f.SetBlinkDelay(80 * time.Millisecond)
			f.SetAutoClearSchedule("0 0 * * *")
			f.SetAllowNonRootAccess(true)
			f.SetListenAddress("localhost:1234")
			require.NoError(t, f.Save())

			g, err := NewFile(p)
			require.NoError(t, err)
			assert.Equal(t, 9, g.MaxLength())
			assert.Equal(t, ".", g.DecimalSeparator())
			assert.Equal(t, 80*time.Millisecond, g.BlinkDelay())
			assert.Equal(t, "0 0 * * *", g.AutoClearSchedule())
			assert.True(t, g.AllowNonRootAccess())
			assert.Equal(t, "localhost:1234", g.ListenAddress())
		})
	}
}

func TestSettersPanicOnInvalidValues(t *testing.T) {
	f := NewFileFromConfig(nil, "")

	assert.Panics(t, func() { f.SetDecimalSeparator("'") })
	assert.Panics(t, func() { f.SetMaxLength(MaxDisplayLength + 1) })
	assert.Panics(t, func() { f.SetBlinkDelay(-time.Millisecond) })
}

func TestRawFileConfigFromConfig(t *testing.T) {
	f := NewFileFromConfig(nil, "")
	f.SetDecimalSeparator(".")

	raw, err := NewRawFileConfigFromConfig(f)
	require.NoError(t, err)
	require.NotNil(t, raw.DecimalSeparator)
	assert.Equal(t, ".", *raw.DecimalSeparator)
	require.NotNil(t, raw.BlinkDelayMs)
	assert.Equal(t, 50, *raw.BlinkDelayMs)

	_, err = NewRawFileConfigFromConfig(nil)
	assert.Error(t, err)
}

func TestLogrusFields(t *testing.T) {
	f := NewFileFromConfig(nil, "")
	fields := f.LogrusFields()
	assert.Equal(t, 15, fields["maxLength"])
	assert.Equal(t, "50ms", fields["blinkDelay"])
}

func TestWatch(t *testing.T) {
	p := filepath.Join(t.TempDir(), "calc.json")
	require.NoError(t, os.WriteFile(p, []byte(`{}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte(`{"maxLength": 8}`), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification")
	}

	cancel()
	assert.NoError(t, <-done)
}

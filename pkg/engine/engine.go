// Package engine implements the calculator's arithmetic and input state
// machine. It holds the running accumulator, the committed first operand,
// the pending operation and the display text, and keeps the text and the
// numeric value in sync through FormatValue and ParseDisplay.
//
// An Engine is not safe for concurrent use. Callers dispatch one user action
// at a time.
package engine

import (
	"math"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
)

// Options configures a new Engine. Zero values select the defaults.
type Options struct {
	MaxLength int
	Separator string
	OnEffect  EffectFunc
}

// Engine is the calculator state machine.
type Engine struct {
	maxLength int
	separator string
	onEffect  EffectFunc

	accumulator     float64
	firstOperand    float64
	hasFirstOperand bool
	operation       Operation
	display         string

	floatMode         bool
	waitingForOperand bool
	clearOnNextDigit  bool
	canDelete         bool
	errorState        bool
}

// State is a read-only snapshot of the engine used for rendering.
type State struct {
	Display           string    `json:"display"`
	Accumulator       float64   `json:"accumulator"`
	FirstOperand      *float64  `json:"firstOperand,omitempty"`
	Operation         Operation `json:"operation,omitempty"`
	FloatMode         bool      `json:"floatMode"`
	WaitingForOperand bool      `json:"waitingForOperand"`
	ClearOnNextDigit  bool      `json:"clearOnNextDigit"`
	CanDelete         bool      `json:"canDelete"`
	Error             bool      `json:"error"`
	Separator         string    `json:"separator"`
}

// New returns an engine in the zero state, displaying "0".
func New(opts Options) *Engine {
	e := &Engine{
		maxLength: opts.MaxLength,
		separator: opts.Separator,
		onEffect:  opts.OnEffect,
	}
	if e.maxLength < 1 {
		e.maxLength = DefaultMaxLength
	}
	if !ValidSeparator(e.separator) {
		e.separator = DefaultSeparator
	}
	e.reset()
	return e
}

// IsInputSymbol reports whether s is accepted by AppendDigit.
func IsInputSymbol(s string) bool {
	return isSeparator(s) || isDigit(s)
}

// AppendDigit appends a digit or the decimal separator to the current
// operand. Input that would overflow the display or add a second separator
// is ignored.
func (e *Engine) AppendDigit(symbol string) {
	if e.errorState || !IsInputSymbol(symbol) {
		return
	}

	sep := isSeparator(symbol)
	if sep {
		symbol = e.separator
	}

	// exponent notation is not editable, so typing starts a new operand
	if isExponent(e.display) {
		e.waitingForOperand = true
	}

	if e.waitingForOperand {
		e.display = ""
		if sep {
			e.display = "0"
		}
		e.waitingForOperand = false
	}

	if e.clearOnNextDigit {
		e.accumulator = 0
		e.firstOperand, e.hasFirstOperand = 0, false
		e.floatMode = false
		e.clearOnNextDigit = false
	}

	if textLen(e.display) >= e.maxLength {
		return
	}

	if sep {
		if e.floatMode {
			return
		}
		e.floatMode = true
	} else if e.display == "0" {
		e.display = ""
	}

	e.display += symbol
	e.syncAccumulator()
	e.canDelete = true

	e.emit(Effect{Kind: EffectFocusEquals})
}

// InvertSign negates the current value.
func (e *Engine) InvertSign() {
	if e.errorState {
		return
	}

	text, ok := FormatValue(-e.accumulator, e.maxLength, e.separator)
	if !ok {
		return
	}
	e.accumulator = -e.accumulator
	e.setDisplay(text)
}

// DeleteLastCharacter removes the last character of the display. It is
// disabled right after a computed result and while the display shows
// exponent notation.
func (e *Engine) DeleteLastCharacter() {
	if e.errorState || !e.canDelete || e.display == "" || isExponent(e.display) {
		return
	}

	last, size := utf8.DecodeLastRuneInString(e.display)
	if string(last) == e.separator {
		e.floatMode = false
	}

	text := e.display[:len(e.display)-size]
	if text == "-" {
		text = "0"
	}

	v, err := ParseDisplay(text)
	if err == nil {
		e.accumulator = v
	}
	if text == "" || err != nil {
		text, _ = FormatValue(e.accumulator, e.maxLength, e.separator)
	}
	e.setDisplay(text)
}

// Clear resets the engine to the zero state. It is the only way out of the
// error state.
func (e *Engine) Clear() {
	e.reset()
	e.emit(Effect{Kind: EffectReleaseOperation})
}

// SelectOperation records op as the pending operation. A previously pending
// operation is committed first, so 3 + 4 + computes 7 before the second
// addition is recorded.
func (e *Engine) SelectOperation(op Operation) error {
	if e.errorState || op.Symbol() == "" {
		return nil
	}

	if e.operation != OpNone && e.hasFirstOperand {
		if err := e.Equals(); err != nil {
			return err
		}
	}

	e.waitingForOperand = true
	e.clearOnNextDigit = false
	e.floatMode = false
	e.operation = op

	if !e.hasFirstOperand || e.firstOperand != e.accumulator {
		e.firstOperand, e.hasFirstOperand = e.accumulator, true
	}

	e.emit(Effect{Kind: EffectHighlightOperation, Operation: op})
	return nil
}

// Equals applies the pending operation to the first operand and the current
// value. An invalid result puts the engine into the error state and returns
// an error wrapping ErrComputation.
func (e *Engine) Equals() error {
	if e.errorState {
		return nil
	}

	result := e.accumulator
	if e.operation != OpNone && e.hasFirstOperand {
		result = e.operation.apply(e.firstOperand, e.accumulator)
	}
	if result == 0 {
		result = 0
	}

	text, ok := FormatValue(result, e.maxLength, e.separator)
	err := validate(e.operation, e.accumulator, result, ok)

	e.operation = OpNone
	e.canDelete = false
	e.waitingForOperand = true
	e.clearOnNextDigit = true

	if err != nil {
		e.errorState = true
		e.floatMode = false
		e.display = ErrorToken
		e.emit(Effect{Kind: EffectBlink, Text: e.display})
		return err
	}

	e.accumulator = result
	e.firstOperand, e.hasFirstOperand = result, true
	e.setDisplay(text)
	e.emit(Effect{Kind: EffectBlink, Text: e.display})
	return nil
}

// Reconfigure changes the display length and separator. The current display
// is converted to the new separator and re-rendered if it no longer fits.
func (e *Engine) Reconfigure(maxLength int, separator string) {
	if maxLength >= 1 {
		e.maxLength = maxLength
	}
	if ValidSeparator(separator) && separator != e.separator {
		if !e.errorState {
			e.display = strings.Replace(e.display, e.separator, separator, 1)
		}
		e.separator = separator
	}
	if !e.errorState && textLen(e.display) > e.maxLength {
		if text, ok := FormatValue(e.accumulator, e.maxLength, e.separator); ok {
			e.setDisplay(text)
		}
	}
}

// Display returns the text shown to the user.
func (e *Engine) Display() string {
	return e.display
}

// Value returns the numeric value of the current operand.
func (e *Engine) Value() float64 {
	return e.accumulator
}

// FirstOperand returns the committed operand, if any.
func (e *Engine) FirstOperand() (float64, bool) {
	return e.firstOperand, e.hasFirstOperand
}

// PendingOperation returns the operation waiting for its second operand.
func (e *Engine) PendingOperation() Operation {
	return e.operation
}

// InErrorState reports whether a computation failed since the last Clear.
func (e *Engine) InErrorState() bool {
	return e.errorState
}

// Separator returns the decimal separator used on the display.
func (e *Engine) Separator() string {
	return e.separator
}

// MaxLength returns the maximum display length.
func (e *Engine) MaxLength() int {
	return e.maxLength
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	s := State{
		Display:           e.display,
		Accumulator:       e.accumulator,
		Operation:         e.operation,
		FloatMode:         e.floatMode,
		WaitingForOperand: e.waitingForOperand,
		ClearOnNextDigit:  e.clearOnNextDigit,
		CanDelete:         e.canDelete,
		Error:             e.errorState,
		Separator:         e.separator,
	}
	if e.hasFirstOperand {
		first := e.firstOperand
		s.FirstOperand = &first
	}
	return s
}

func (e *Engine) reset() {
	e.accumulator = 0
	e.firstOperand, e.hasFirstOperand = 0, false
	e.operation = OpNone
	e.display = "0"
	e.floatMode = false
	e.waitingForOperand = true
	e.clearOnNextDigit = true
	e.canDelete = false
	e.errorState = false
}

// setDisplay replaces the display text and re-derives float mode from it.
func (e *Engine) setDisplay(text string) {
	e.display = text
	e.floatMode = strings.Contains(text, e.separator)
}

func (e *Engine) syncAccumulator() {
	if v, err := ParseDisplay(e.display); err == nil {
		e.accumulator = v
	}
}

func (e *Engine) emit(ef Effect) {
	if e.onEffect == nil {
		return
	}
	e.onEffect(ef)
}

func validate(op Operation, operand, result float64, fits bool) error {
	switch {
	case op == OpDivide && operand == 0:
		return pkgerrors.Wrap(ErrComputation, "division by zero")
	case math.IsNaN(result):
		return pkgerrors.Wrap(ErrComputation, "result is not a number")
	case math.IsInf(result, 0):
		return pkgerrors.Wrap(ErrComputation, "result is infinite")
	case math.Abs(result) > MaxSafeInteger:
		return pkgerrors.Wrapf(ErrComputation, "result %g exceeds the safe integer range", result)
	case !fits:
		return pkgerrors.Wrapf(ErrComputation, "result %g does not fit on the display", result)
	}
	return nil
}

func isExponent(text string) bool {
	return strings.ContainsAny(text, "eE")
}

func isSeparator(s string) bool {
	return s == "," || s == "."
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

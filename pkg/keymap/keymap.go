// Package keymap translates button labels and keyboard keys into calculator
// actions and dispatches them to an engine.
package keymap

import (
	"fmt"
	"strings"

	"github.com/charlie0129/calc/pkg/engine"
)

// Kind is the type of an action.
type Kind string

const (
	KindDigit     Kind = "digit"
	KindOperation Kind = "operation"
	KindEquals    Kind = "equals"
	KindDelete    Kind = "delete"
	KindClear     Kind = "clear"
	KindInvert    Kind = "invert"
)

// Action is a single user intent.
type Action struct {
	Kind      Kind             `json:"kind"`
	Symbol    string           `json:"symbol,omitempty"`
	Operation engine.Operation `json:"operation,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case KindDigit:
		return a.Symbol
	case KindOperation:
		return a.Operation.Symbol()
	default:
		return string(a.Kind)
	}
}

// Target receives dispatched actions. *engine.Engine implements it.
type Target interface {
	AppendDigit(symbol string)
	InvertSign()
	DeleteLastCharacter()
	Clear()
	SelectOperation(op engine.Operation) error
	Equals() error
}

var _ Target = &engine.Engine{}

// named keys are KeyboardEvent.key values and button labels that are not a
// single digit, separator or operation symbol.
var named = map[string]Action{
	"=":         {Kind: KindEquals},
	"Enter":     {Kind: KindEquals},
	"Backspace": {Kind: KindDelete},
	"Escape":    {Kind: KindClear},
	"Delete":    {Kind: KindClear},
	"c":         {Kind: KindClear},
	"C":         {Kind: KindClear},
	"±":         {Kind: KindInvert},
	"+/-":       {Kind: KindInvert},
	"_":         {Kind: KindInvert},
	"F9":        {Kind: KindInvert},
}

// Lookup resolves a key to an action.
func Lookup(key string) (Action, bool) {
	if engine.IsInputSymbol(key) {
		return Action{Kind: KindDigit, Symbol: key}, true
	}
	if a, ok := named[key]; ok {
		return a, true
	}
	if op, err := engine.ParseOperation(key); err == nil && len([]rune(key)) == 1 {
		return Action{Kind: KindOperation, Operation: op}, true
	}
	return Action{}, false
}

// Apply dispatches a to t. Only computation errors are returned.
func Apply(t Target, a Action) error {
	switch a.Kind {
	case KindDigit:
		t.AppendDigit(a.Symbol)
	case KindOperation:
		return t.SelectOperation(a.Operation)
	case KindEquals:
		return t.Equals()
	case KindDelete:
		t.DeleteLastCharacter()
	case KindClear:
		t.Clear()
	case KindInvert:
		t.InvertSign()
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// Split breaks input into keys. An input that is itself a known key is
// returned as is; otherwise every character is a key and whitespace is
// dropped, so "12+3,5=" becomes 1 2 + 3 , 5 =.
func Split(input string) []string {
	if _, ok := Lookup(input); ok {
		return []string{input}
	}

	keys := make([]string, 0, len(input))
	for _, r := range input {
		if r == ' ' || r == '\t' || r == '\n' {
			continue
		}
		keys = append(keys, string(r))
	}
	return keys
}

// Resolve maps every key of input to an action. It fails on the first
// unknown key without returning any actions.
func Resolve(input string) ([]Action, error) {
	keys := Split(strings.TrimSpace(input))
	actions := make([]Action, 0, len(keys))
	for _, k := range keys {
		a, ok := Lookup(k)
		if !ok {
			return nil, fmt.Errorf("unknown key %q", k)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

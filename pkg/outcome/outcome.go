// Package outcome defines the typed-failure discipline shared by every
// core component: schema/record access, query compilation, execution,
// the Nexus registry and the scroll logger all return a plain Go error
// built from one of the Kinds below, wrapped with github.com/cockroachdb/errors
// so every failure carries a stack trace back to where it was raised.
package outcome

import (
	stderrors "errors"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind identifies the category of a failure, independent of its message.
// Callers match on Kind via KindOf, never on error string content.
type Kind int

const (
	_ Kind = iota

	// Schema/record.
	KeyNotFound
	OutOfRange
	TypeMismatch
	NullValue
	SchemaMismatch

	// Query compilation.
	UnsupportedFeature
	ShapeMismatch
	EmptyBatch
	UnknownDialect

	// Execution.
	ConnectionClosed
	ProtocolError
	ServerError
	DecodeError
	EncodeError
	ColumnNotFound

	// Registry.
	NotRegistered
	ImmortalSlot
	ConstructionFailed

	// Logger/sink.
	IoError
	InvalidConfig
)

func (k Kind) String() string {
	switch k {
	case KeyNotFound:
		return "KeyNotFound"
	case OutOfRange:
		return "OutOfRange"
	case TypeMismatch:
		return "TypeMismatch"
	case NullValue:
		return "NullValue"
	case SchemaMismatch:
		return "SchemaMismatch"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	case ShapeMismatch:
		return "ShapeMismatch"
	case EmptyBatch:
		return "EmptyBatch"
	case UnknownDialect:
		return "UnknownDialect"
	case ConnectionClosed:
		return "ConnectionClosed"
	case ProtocolError:
		return "ProtocolError"
	case ServerError:
		return "ServerError"
	case DecodeError:
		return "DecodeError"
	case EncodeError:
		return "EncodeError"
	case ColumnNotFound:
		return "ColumnNotFound"
	case NotRegistered:
		return "NotRegistered"
	case ImmortalSlot:
		return "ImmortalSlot"
	case ConstructionFailed:
		return "ConstructionFailed"
	case IoError:
		return "IoError"
	case InvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// kindErr is the sentinel carrying a Kind; every failure wraps one of
// these via errors.Wrapf so errors.Is(err, outcome.KeyNotFound) works
// without string matching.
type kindErr struct {
	kind Kind
}

func (e *kindErr) Error() string { return e.kind.String() }

// sentinels, one per Kind, used as the base for errors.Is matching.
var sentinels = func() map[Kind]error {
	m := make(map[Kind]error)
	for _, k := range []Kind{
		KeyNotFound, OutOfRange, TypeMismatch, NullValue, SchemaMismatch,
		UnsupportedFeature, ShapeMismatch, EmptyBatch, UnknownDialect,
		ConnectionClosed, ProtocolError, ServerError, DecodeError, EncodeError, ColumnNotFound,
		NotRegistered, ImmortalSlot, ConstructionFailed, IoError, InvalidConfig,
	} {
		m[k] = &kindErr{kind: k}
	}
	return m
}()

// New builds an error of the given Kind with a formatted message,
// carrying a stack trace from the call site.
func New(kind Kind, format string, args ...any) error {
	base := sentinels[kind]
	msg := fmt.Sprintf(format, args...)
	return errors.WithStack(errors.Wrap(fmt.Errorf("%w: %s", base, msg), kind.String()))
}

// Wrap attaches a Kind to an existing error, preserving its chain so
// errors.Is/As still reach the original cause.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	base := sentinels[kind]
	msg := fmt.Sprintf(format, args...)
	return errors.WithStack(errors.Wrapf(fmt.Errorf("%w: %w", base, cause), "%s: %s", kind.String(), msg))
}

// Is reports whether err (or any error in its chain) is of the given Kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinels[kind])
}

// KindOf returns the first Kind found in err's chain, or false if none
// of the sentinels match (e.g. err came from a collaborator outside the
// core, such as a raw network failure).
func KindOf(err error) (Kind, bool) {
	var ke *kindErr
	if stderrors.As(err, &ke) {
		return ke.kind, true
	}
	return 0, false
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	// KindStructuralViolation marks a blank, null or malformed field found at load time.
	KindStructuralViolation ErrorKind = iota + 1
	// KindActiveStoreNotFound marks an activeStore naming no configured store.
	KindActiveStoreNotFound
	// KindDuplicateStoreName marks two stores sharing a name.
	KindDuplicateStoreName
	// KindUnknownStoreType marks a store whose type tag has no registered decoder.
	KindUnknownStoreType
	// KindDecodeFailure marks a settings key that is missing or fails its parse rule.
	KindDecodeFailure
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrStructuralViolation = errors.New("structural violation")
	ErrActiveStoreNotFound = errors.New("active store not found")
	ErrDuplicateStoreName  = errors.New("duplicate store name")
	ErrUnknownStoreType    = errors.New("unknown store type")
	ErrDecodeFailure       = errors.New("store settings decode failure")
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructuralViolation:
		return "StructuralViolation"
	case KindActiveStoreNotFound:
		return "ActiveStoreNotFound"
	case KindDuplicateStoreName:
		return "DuplicateStoreName"
	case KindUnknownStoreType:
		return "UnknownStoreType"
	case KindDecodeFailure:
		return "DecodeFailure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindStructuralViolation:
		return ErrStructuralViolation
	case KindActiveStoreNotFound:
		return ErrActiveStoreNotFound
	case KindDuplicateStoreName:
		return ErrDuplicateStoreName
	case KindUnknownStoreType:
		return ErrUnknownStoreType
	case KindDecodeFailure:
		return ErrDecodeFailure
	default:
		return nil
	}
}

// Violation is a single problem found while validating a configuration.
type Violation struct {
	// Field is the path of the offending field, e.g. "stores[1].name".
	Field   string
	Kind    ErrorKind
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError aggregates every violation found at load time.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invalid configuration (%d violations): %s", len(e.Violations), strings.Join(msgs, "; "))
}

// Is reports whether target is ErrStructuralViolation or the sentinel of any
// aggregated violation.
func (e *ValidationError) Is(target error) bool {
	if target == ErrStructuralViolation {
		return true
	}
	for _, v := range e.Violations {
		if s := v.Kind.sentinel(); s != nil && s == target {
			return true
		}
	}
	return false
}

// HasField reports whether a violation was recorded for field.
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// ConfigurationError is a single, lazily detected configuration failure.
type ConfigurationError struct {
	Kind ErrorKind
	// Store is the name of the store involved, if any.
	Store string
	// Key is the offending settings key for DecodeFailure.
	Key string
	// Name is the unmatched store name or the unknown type tag.
	Name   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var msg string
	switch e.Kind {
	case KindActiveStoreNotFound:
		msg = fmt.Sprintf("active store is misconfigured: could not find store %q", e.Name)
	case KindUnknownStoreType:
		msg = fmt.Sprintf("store %q: unknown store type %q", e.Store, e.Name)
	case KindDecodeFailure:
		msg = fmt.Sprintf("store %q: invalid setting %q: %s", e.Store, e.Key, e.Reason)
	default:
		msg = e.Reason
	}
	if e.Err != nil && e.Kind != KindDecodeFailure {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the sentinel error of the kind.
func (e *ConfigurationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewDecodeFailure reports an invalid settings key of store.
func NewDecodeFailure(store, key, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Kind: KindDecodeFailure, Store: store, Key: key, Reason: reason, Err: err}
}

// NewUnknownStoreType reports a type tag with no registered decoder.
func NewUnknownStoreType(store, tag string) *ConfigurationError {
	return &ConfigurationError{Kind: KindUnknownStoreType, Store: store, Name: tag}
}

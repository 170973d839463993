package api

import (
	"bytes"
	"encoding/json"
)

type fieldState uint8

const (
	fieldUnset fieldState = iota
	fieldNull
	fieldSet
)

// Field is one changeset entry. The zero Field is unset and is left out of
// the encoded body; Null clears the value on the server; Set replaces it.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// Null returns a Field that encodes as an explicit JSON null.
func Null[T any]() Field[T] {
	return Field[T]{state: fieldNull}
}

// IsZero reports whether the field is unset. encoding/json consults it for
// omitzero.
func (f Field[T]) IsZero() bool {
	return f.state == fieldUnset
}

// IsNull reports whether the field is an explicit null.
func (f Field[T]) IsNull() bool {
	return f.state == fieldNull
}

// Get returns the value and whether the field is set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldSet {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

// StreamChangeset is a partial update of a stream's metadata. Only fields
// that are not unset reach the wire.
type StreamChangeset struct {
	Live        Field[bool]              `json:"live,omitzero"`
	Title       Field[string]            `json:"title,omitzero"`
	TermType    Field[string]            `json:"term_type,omitzero"`
	TermVersion Field[string]            `json:"term_version,omitzero"`
	Shell       Field[string]            `json:"shell,omitzero"`
	Env         Field[map[string]string] `json:"env,omitzero"`
}

// Empty reports whether no field is part of the update.
func (c StreamChangeset) Empty() bool {
	return c.Live.IsZero() &&
		c.Title.IsZero() &&
		c.TermType.IsZero() &&
		c.TermVersion.IsZero() &&
		c.Shell.IsZero() &&
		c.Env.IsZero()
}

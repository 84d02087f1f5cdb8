// Package engine decodes JSON into generic values from a token stream,
// with duplicate-key, depth and size enforcement applied on the way.
package engine

import (
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberMode selects how JSON numbers are represented in decoded values.
type NumberMode int

const (
	// NumberJSONNumber keeps the literal text as a json.Number.
	NumberJSONNumber NumberMode = iota
	// NumberFloat64 converts every number to float64.
	NumberFloat64
)

// Decode builds a value from the token source: objects become
// map[string]any and arrays []any. The source must hold exactly one value.
func Decode(src TokenSource, mode NumberMode) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(src, tok, mode)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err != io.EOF {
		if err == nil {
			return nil, &SyntaxError{Offset: src.Location(), Msg: "trailing data after top-level value"}
		}
		return nil, err
	}
	return v, nil
}

// SyntaxError reports malformed input.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Offset < 0 {
		return e.Msg
	}
	return e.Msg + " at offset " + strconv.FormatInt(e.Offset, 10)
}

func decodeValue(src TokenSource, tok Token, mode NumberMode) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src, mode)
	case KindBeginArray:
		return decodeArray(src, mode)
	case KindString:
		return tok.String, nil
	case KindNumber:
		if mode == NumberFloat64 {
			return strconv.ParseFloat(tok.Number, 64)
		}
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func decodeObject(src TokenSource, mode NumberMode) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		v, err := decodeValue(src, vt, mode)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func decodeArray(src TokenSource, mode NumberMode) (any, error) {
	arr := []any{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok, mode)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeInt
	FieldTypeUint
	FieldTypeError
	FieldTypeBlob
)

// ZField is one key/value pair accumulated by an EntryZ builder chain.
type ZField struct {
	Type FieldType
	Key  string

	String  string
	Integer uint64
	Error   error
	Boolean bool
	Blob    []byte
}

func (f *ZField) Value() any {
	switch f.Type {
	case FieldTypeBool:
		return f.Boolean
	case FieldTypeString:
		return f.String
	case FieldTypeUint:
		return f.Integer
	case FieldTypeInt:
		return int64(f.Integer)
	case FieldTypeHex8:
		return fmt.Sprintf("%02x", uint8(f.Integer))
	case FieldTypeHex16:
		return fmt.Sprintf("%04x", uint16(f.Integer))
	case FieldTypeHex32:
		return fmt.Sprintf("%08x", uint32(f.Integer))
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeBlob:
		return hex.Dump(f.Blob)
	}
	return ""
}

// Fields is the plain key/value bag accepted by the printf-family Entry API.
type Fields map[string]any

func fieldsToString(fs Fields) string {
	s := ""
	for k, v := range fs {
		if s != "" {
			s += " "
		}
		s += k + "=" + toString(v)
	}
	return s
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}

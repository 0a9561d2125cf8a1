package log

import "gopkg.in/Sirupsen/logrus.v0"

const maxZFields = 8

// EntryZ is a chainable log builder. Every method has a nil-receiver
// fast path so that `mod.DebugZ(...)` on a disabled module returns nil and
// the whole chain (String, Hex16, ..., End) costs nothing beyond the nil
// checks: no field is ever boxed or allocated for a message that will not
// be emitted.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

func newEntryZ() *EntryZ {
	return &EntryZ{}
}

func (e *EntryZ) push(f ZField) *EntryZ {
	if e == nil {
		return nil
	}
	if e.zfidx < len(e.zfbuf) {
		e.zfbuf[e.zfidx] = f
		e.zfidx++
	}
	return e
}

func (e *EntryZ) String(key, val string) *EntryZ {
	return e.push(ZField{Type: FieldTypeString, Key: key, String: val})
}

func (e *EntryZ) Bool(key string, val bool) *EntryZ {
	return e.push(ZField{Type: FieldTypeBool, Key: key, Boolean: val})
}

func (e *EntryZ) Hex8(key string, val uint8) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(val)})
}

func (e *EntryZ) Hex16(key string, val uint16) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(val)})
}

func (e *EntryZ) Hex32(key string, val uint32) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex32, Key: key, Integer: uint64(val)})
}

func (e *EntryZ) Uint(key string, val uint64) *EntryZ {
	return e.push(ZField{Type: FieldTypeUint, Key: key, Integer: val})
}

func (e *EntryZ) Int(key string, val int64) *EntryZ {
	return e.push(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(val)})
}

func (e *EntryZ) Err(err error) *EntryZ {
	return e.push(ZField{Type: FieldTypeError, Key: "err", Error: err})
}

// End flushes the accumulated fields to the logging backend. It is a no-op
// on a nil receiver (disabled module/level).
func (e *EntryZ) End() {
	if e == nil {
		return
	}
	final := logrus.StandardLogger().WithField("_mod", modNames[e.mod])
	fields := make(logrus.Fields, e.zfidx)
	for i := 0; i < e.zfidx; i++ {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}
	final = final.WithFields(fields)

	switch e.lvl {
	case DebugLevel:
		final.Debug(e.msg)
	case InfoLevel:
		final.Info(e.msg)
	case WarnLevel:
		final.Warn(e.msg)
	case ErrorLevel:
		final.Error(e.msg)
	case FatalLevel:
		final.Fatal(e.msg)
	default:
		final.Print(e.msg)
	}
}

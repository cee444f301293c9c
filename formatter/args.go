package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// dumper renders values with no direct text form: structs, maps, slices, pointers
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// AppendArgs appends args to dst separated by single spaces
func AppendArgs(dst []byte, args ...any) []byte {
	for i, arg := range args {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = AppendValue(dst, arg)
	}
	return dst
}

// Message returns the space-joined text of args
func Message(args ...any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	return string(AppendArgs(make([]byte, 0, 64), args...))
}

// AppendValue appends the text form of a single value.
// Types without a direct conversion are dumped with go-spew.
func AppendValue(dst []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(dst, val...)
	case []byte:
		return append(dst, val...)
	case int:
		return strconv.AppendInt(dst, int64(val), 10)
	case int8:
		return strconv.AppendInt(dst, int64(val), 10)
	case int16:
		return strconv.AppendInt(dst, int64(val), 10)
	case int32:
		return strconv.AppendInt(dst, int64(val), 10)
	case int64:
		return strconv.AppendInt(dst, val, 10)
	case uint:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint8:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint16:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(dst, val, 10)
	case float32:
		return strconv.AppendFloat(dst, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(dst, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(dst, val)
	case nil:
		return append(dst, "nil"...)
	case time.Time:
		return val.AppendFormat(dst, time.RFC3339Nano)
	case time.Duration:
		return append(dst, val.String()...)
	case error:
		return append(dst, val.Error()...)
	case fmt.Stringer:
		return append(dst, val.String()...)
	default:
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		// Fdump terminates with a newline
		return append(dst, bytes.TrimSpace(b.Bytes())...)
	}
}

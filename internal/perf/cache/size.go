package cache

// Sizer lets cached values report their own memory estimate in bytes.
type Sizer interface {
	Size() int64
}

// defaultEntrySize is the estimate for values with no better information.
const defaultEntrySize = 64

// SizeOf estimates the memory held by v.
func SizeOf(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case Sizer:
		return t.Size()
	case string:
		return int64(len(t))
	case []byte:
		return int64(len(t))
	case []string:
		var n int64
		for _, s := range t {
			n += int64(len(s)) + 16
		}
		return n
	default:
		return defaultEntrySize
	}
}

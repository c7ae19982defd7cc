package ops

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/razeghi71/dqflow/table"
)

// keyIndex assigns dense ids to distinct keys in first-seen order. Keys are
// bucketed by hash and compared with table.Equal, so 1 and 1.0 are the same
// key.
type keyIndex struct {
	buckets map[uint64][]int
	keys    [][]table.Value
}

func newKeyIndex() *keyIndex {
	return &keyIndex{buckets: make(map[uint64][]int)}
}

// insert returns the id of key, adding it when it is new.
func (ix *keyIndex) insert(key []table.Value) (id int, added bool) {
	h := hashKey(key)
	for _, id := range ix.buckets[h] {
		if keysEqual(ix.keys[id], key) {
			return id, false
		}
	}
	id = len(ix.keys)
	ix.keys = append(ix.keys, key)
	ix.buckets[h] = append(ix.buckets[h], id)
	return id, true
}

func (ix *keyIndex) len() int {
	return len(ix.keys)
}

func keyOf(values []table.Value, indices []int) []table.Value {
	key := make([]table.Value, len(indices))
	for i, idx := range indices {
		key[i] = values[idx]
	}
	return key
}

func keysEqual(a, b []table.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !table.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func hasNull(key []table.Value) bool {
	for _, v := range key {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// hashKey hashes a canonical encoding of the key. Ints and floats share an
// encoding so values that compare equal hash equal.
func hashKey(key []table.Value) uint64 {
	d := xxhash.New()
	var buf []byte
	for _, v := range key {
		buf = appendValue(buf[:0], v)
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

func appendValue(buf []byte, v table.Value) []byte {
	switch v.Type {
	case table.TypeInt, table.TypeFloat:
		f, _ := v.AsFloat()
		if f == 0 {
			f = 0 // -0
		}
		buf = append(buf, 'n')
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	case table.TypeString:
		buf = append(buf, 's')
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(v.Str)))
		return append(buf, v.Str...)
	case table.TypeBool:
		if v.Bool {
			return append(buf, 't')
		}
		return append(buf, 'f')
	case table.TypeTime:
		buf = append(buf, 'd')
		return binary.LittleEndian.AppendUint64(buf, uint64(v.Time.UnixNano()))
	case table.TypeList:
		buf = append(buf, 'l')
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(v.List)))
		for _, e := range v.List {
			buf = appendValue(buf, e)
		}
		return buf
	default:
		return append(buf, 'z')
	}
}

package codec

import (
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/wippyai/opendax/types"
)

var (
	bigZero = new(big.Int)
	bigOne  = big.NewInt(1)
)

// bounds holds the representable range of each integer kind.
var bounds = func() map[types.Kind][2]*big.Int {
	signed := func(bits uint) [2]*big.Int {
		hi := new(big.Int).Lsh(bigOne, bits-1)
		lo := new(big.Int).Neg(hi)
		return [2]*big.Int{lo, hi.Sub(hi, bigOne)}
	}
	unsigned := func(bits uint) [2]*big.Int {
		hi := new(big.Int).Lsh(bigOne, bits)
		return [2]*big.Int{bigZero, hi.Sub(hi, bigOne)}
	}
	return map[types.Kind][2]*big.Int{
		types.KindU8:  unsigned(8),
		types.KindS8:  signed(8),
		types.KindU16: unsigned(16),
		types.KindS16: signed(16),
		types.KindU32: unsigned(32),
		types.KindS32: signed(32),
		types.KindU64: unsigned(64),
		types.KindS64: signed(64),
	}
}()

// typeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

func coerceInteger(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return big.NewInt(int64(v)), true
	case uint16:
		return big.NewInt(int64(v)), true
	case uint32:
		return big.NewInt(int64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case bool:
		if v {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case float32:
		return integralFloat(float64(v))
	case float64:
		return integralFloat(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	return nil, false
}

func integralFloat(f float64) (*big.Int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, false
	}
	i, _ := big.NewFloat(f).Int(nil)
	return i, true
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case *big.Int:
		if v == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	case bool:
		return 0, false
	}
	if i, ok := coerceInteger(value); ok {
		f, _ := new(big.Float).SetInt(i).Float64()
		return f, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return rv.Float(), true
	}
	return 0, false
}

// coerceBool applies the OpenDAX truthiness rules: numbers are true when
// non-zero and every string except "0" is true.
func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		return v != "0", true
	}
	if i, ok := coerceInteger(value); ok {
		return i.Sign() != 0, true
	}
	if f, ok := coerceFloat(value); ok {
		return f != 0, true
	}
	return false, false
}

// sequence returns the elements of a slice or array value. Strings and
// mappings are not sequences.
func sequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil, string, Record:
		return nil, false
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mapping returns the named fields of a map or Record. Maps are returned in
// key order.
func mapping(value any) ([]Field, bool) {
	switch v := value.(type) {
	case Record:
		return v, true
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Field, len(keys))
		for i, k := range keys {
			out[i] = Field{Name: k, Value: v[k]}
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make([]Field, len(keys))
	for i, k := range keys {
		out[i] = Field{Name: k.String(), Value: rv.MapIndex(k).Interface()}
	}
	return out, true
}

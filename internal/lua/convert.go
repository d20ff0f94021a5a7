package lua

import (
	"strconv"
	"strings"

	rt "github.com/arnodel/golua/runtime"
	"github.com/tidwall/gjson"
)

// floatFields are payload fields typed as floats. encoding/json writes a
// whole float64 such as 1.0 as "1", so the raw text cannot tell them apart.
var floatFields = map[string]bool{
	"level":       true,
	"screenScale": true,
}

// jsonToLua converts a JSON payload into a Lua value. Objects become
// string-keyed tables, arrays become 1-based sequences, and integral
// numbers become Lua integers unless their field is a float field.
func jsonToLua(payload []byte) rt.Value {
	return resultToLua(gjson.ParseBytes(payload))
}

func resultToLua(r gjson.Result) rt.Value {
	switch r.Type {
	case gjson.True:
		return rt.BoolValue(true)
	case gjson.False:
		return rt.BoolValue(false)
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return rt.IntValue(i)
			}
		}
		return rt.FloatValue(r.Num)
	case gjson.String:
		return rt.StringValue(r.Str)
	case gjson.JSON:
		tbl := rt.NewTable()
		if r.IsArray() {
			i := int64(1)
			r.ForEach(func(_, v gjson.Result) bool {
				tbl.Set(rt.IntValue(i), resultToLua(v))
				i++
				return true
			})
		} else {
			r.ForEach(func(k, v gjson.Result) bool {
				val := resultToLua(v)
				if v.Type == gjson.Number && floatFields[k.String()] {
					val = rt.FloatValue(v.Num)
				}
				tbl.Set(rt.StringValue(k.String()), val)
				return true
			})
		}
		return rt.TableValue(tbl)
	default:
		return rt.NilValue
	}
}

// luaToGo converts a scalar or sequence Lua value into its Go form for
// dispatch arguments. Non-sequence tables and functions become nil.
func luaToGo(v rt.Value) any {
	if v == rt.NilValue {
		return nil
	}
	if b, ok := v.TryBool(); ok {
		return b
	}
	if i, ok := v.TryInt(); ok {
		return i
	}
	if f, ok := v.TryFloat(); ok {
		return f
	}
	if s, ok := v.TryString(); ok {
		return s
	}
	if tbl, ok := v.TryTable(); ok {
		return sequenceToGo(tbl)
	}
	return nil
}

// sequenceToGo reads t[1], t[2], ... up to the first nil.
func sequenceToGo(t *rt.Table) []any {
	var out []any
	for i := int64(1); ; i++ {
		v := t.Get(rt.IntValue(i))
		if v == rt.NilValue {
			return out
		}
		out = append(out, luaToGo(v))
	}
}

package luahook

import lua "github.com/yuin/gopher-lua"

// ToGoValue converts a Lua value returned from a script call into a plain
// Go value: bool, int64/float64, string, []any, map[string]any, or nil.
func ToGoValue(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable) any {
	maxN := t.Len()
	if maxN > 0 {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = ToGoValue(t.RawGetInt(i))
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = ToGoValue(v)
	})
	return m
}

// ToLuaValue converts a Go value into the equivalent Lua value for pushing
// onto a Script's stack as a call argument.
func ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		return sliceToTable(val)
	case map[string]any:
		return mapToTable(val)
	default:
		return lua.LNil
	}
}

func sliceToTable(vals []any) *lua.LTable {
	t := &lua.LTable{}
	for i, v := range vals {
		t.RawSetInt(i+1, ToLuaValue(v))
	}
	return t
}

func mapToTable(vals map[string]any) *lua.LTable {
	t := &lua.LTable{}
	for k, v := range vals {
		t.RawSetString(k, ToLuaValue(v))
	}
	return t
}

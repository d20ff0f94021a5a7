package lua

import (
	"reflect"
	"testing"

	rt "github.com/arnodel/golua/runtime"
)

func TestJSONToLua(t *testing.T) {
	v := jsonToLua([]byte(`{
		"model": "Pixel 7",
		"sdkVersion": 34,
		"screenScale": 2.625,
		"isPhysicalDevice": true,
		"tags": ["a", "b"],
		"missing": null
	}`))

	tbl, ok := v.TryTable()
	if !ok {
		t.Fatalf("jsonToLua() returned %v, want table", v)
	}

	if got, _ := tbl.Get(rt.StringValue("model")).TryString(); got != "Pixel 7" {
		t.Errorf("model = %q, want Pixel 7", got)
	}
	if got, ok := tbl.Get(rt.StringValue("sdkVersion")).TryInt(); !ok || got != 34 {
		t.Errorf("sdkVersion = %d (int %v), want 34", got, ok)
	}
	if got, ok := tbl.Get(rt.StringValue("screenScale")).TryFloat(); !ok || got != 2.625 {
		t.Errorf("screenScale = %v (float %v), want 2.625", got, ok)
	}
	if got, _ := tbl.Get(rt.StringValue("isPhysicalDevice")).TryBool(); !got {
		t.Error("isPhysicalDevice = false, want true")
	}
	if got := tbl.Get(rt.StringValue("missing")); got != rt.NilValue {
		t.Errorf("missing = %v, want nil", got)
	}

	tags, ok := tbl.Get(rt.StringValue("tags")).TryTable()
	if !ok {
		t.Fatal("tags is not a table")
	}
	if got := sequenceToGo(tags); !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("tags = %#v, want [a b]", got)
	}
}

func TestJSONToLuaNumberTypes(t *testing.T) {
	tests := []struct {
		payload string
		key     string
		want    rt.ValueType
	}{
		{`{"level":1,"isCharging":true}`, "level", rt.FloatType},
		{`{"level":-1,"isCharging":false}`, "level", rt.FloatType},
		{`{"level":0.5}`, "level", rt.FloatType},
		{`{"screenScale":2}`, "screenScale", rt.FloatType},
		{`{"screenWidth":1080}`, "screenWidth", rt.IntType},
		{`{"totalMemory":7680}`, "totalMemory", rt.IntType},
		{`{"other":1.0}`, "other", rt.FloatType},
		{`{"other":1e3}`, "other", rt.FloatType},
	}
	for _, tt := range tests {
		tbl, ok := jsonToLua([]byte(tt.payload)).TryTable()
		if !ok {
			t.Fatalf("jsonToLua(%s) is not a table", tt.payload)
		}
		if got := tbl.Get(rt.StringValue(tt.key)).Type(); got != tt.want {
			t.Errorf("jsonToLua(%s)[%s] type = %v, want %v", tt.payload, tt.key, got, tt.want)
		}
	}
}

func TestLuaToGo(t *testing.T) {
	nested := rt.NewTable()
	nested.Set(rt.IntValue(1), rt.StringValue("x"))

	seq := rt.NewTable()
	seq.Set(rt.IntValue(1), rt.IntValue(7))
	seq.Set(rt.IntValue(2), rt.TableValue(nested))
	seq.Set(rt.IntValue(4), rt.StringValue("after gap"))

	tests := []struct {
		name string
		in   rt.Value
		want any
	}{
		{name: "nil", in: rt.NilValue, want: nil},
		{name: "bool", in: rt.BoolValue(true), want: true},
		{name: "int", in: rt.IntValue(-3), want: int64(-3)},
		{name: "float", in: rt.FloatValue(0.5), want: 0.5},
		{name: "string", in: rt.StringValue("wifi"), want: "wifi"},
		{name: "sequence stops at first nil", in: rt.TableValue(seq), want: []any{int64(7), []any{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := luaToGo(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("luaToGo() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

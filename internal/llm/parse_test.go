package llm

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantArray bool
		want      string
		wantErr   bool
	}{
		{"plain array", `[{"idx":1}]`, true, `[{"idx":1}]`, false},
		{"fenced", "```json\n[{\"idx\":1}]\n```", true, `[{"idx":1}]`, false},
		{"fenced no lang", "```\n{\"a\":1}\n```", false, `{"a":1}`, false},
		{"prose around array", "Here you go:\n[{\"idx\":2}]\nThanks", true, `[{"idx":2}]`, false},
		{"prose around object", "Sure! {\"overall\":\"x\"} done", false, `{"overall":"x"}`, false},
		{"object preferred for object", "note [1] then {\"a\":[1]}", false, `{"a":[1]}`, false},
		{"empty", "   ", true, "", true},
		{"garbage", "no json here", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw, tt.wantArray)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeArray_RejectsObject(t *testing.T) {
	var out []labelAnswer
	if err := decodeArray(`{"idx":1}`, &out); err == nil {
		t.Error("expected error for object payload")
	}
}

func TestFlexNumber(t *testing.T) {
	var v struct {
		A flexNumber `json:"a"`
		B flexNumber `json:"b"`
		C flexNumber `json:"c"`
		D flexNumber `json:"d"`
		E flexNumber `json:"e"`
	}
	if err := decodeObject(`{"a":72,"b":"64","c":"55%","d":"high","e":null}`, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.A.Value != 72 || v.B.Value != 64 || v.C.Value != 55 {
		t.Errorf("unexpected values: %+v", v)
	}
	if v.D.Set || v.E.Set {
		t.Error("unparsable and null values must stay unset")
	}
	if v.D.or(50) != 50 {
		t.Errorf("fallback = %v", v.D.or(50))
	}
}

func TestFlexInts(t *testing.T) {
	var v struct {
		A flexInts `json:"a"`
		B flexInts `json:"b"`
		C flexInts `json:"c"`
	}
	if err := decodeObject(`{"a":[1,"2",3.0],"b":4,"c":"x"}`, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual([]int(v.A), []int{1, 2, 3}) {
		t.Errorf("A = %v", v.A)
	}
	if !reflect.DeepEqual([]int(v.B), []int{4}) {
		t.Errorf("B = %v", v.B)
	}
	if len(v.C) != 0 {
		t.Errorf("C = %v", v.C)
	}
}

func TestPercentAndClip(t *testing.T) {
	if percent(-5) != 0 || percent(150) != 1 || percent(40) != 0.4 {
		t.Error("percent must clamp to [0,100] and scale")
	}
	if clip("  سلام دنیا  ", 4) != "سلام" {
		t.Errorf("clip = %q", clip("  سلام دنیا  ", 4))
	}
}

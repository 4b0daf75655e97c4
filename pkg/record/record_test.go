package record

import (
	"errors"
	"testing"
)

func mustDecode(t *testing.T, s string) Record {
	t.Helper()
	r, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", s, err)
	}
	return r
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "object", input: `{"ID":1}`},
		{name: "array", input: `[1,2]`, wantErr: ErrNotObject},
		{name: "string", input: `"x"`, wantErr: ErrNotObject},
		{name: "garbage", input: `{"ID":`},
		{name: "trailing text", input: `{"ID":1,"Name":"Fire"} garbage`, wantErr: ErrTrailingData},
		{name: "two objects", input: `{"ID":2}{"ID":3}`, wantErr: ErrTrailingData},
		{name: "trailing whitespace", input: "{\"ID\":4}  \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			switch {
			case tt.name == "garbage":
				if err == nil {
					t.Error("Decode() error = nil, want syntax error")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Errorf("Decode() error = %v", err)
				}
			}
		})
	}
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID int64
		wantOK bool
	}{
		{name: "integer", input: `{"ID":42}`, wantID: 42, wantOK: true},
		{name: "zero", input: `{"ID":0}`, wantID: 0, wantOK: true},
		{name: "large", input: `{"ID":9007199254740993}`, wantID: 9007199254740993, wantOK: true},
		{name: "float", input: `{"ID":1.5}`, wantOK: false},
		{name: "float integral", input: `{"ID":1.0}`, wantOK: false},
		{name: "string", input: `{"ID":"1"}`, wantOK: false},
		{name: "null", input: `{"ID":null}`, wantOK: false},
		{name: "missing", input: `{"Name":"x"}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := mustDecode(t, tt.input).ID()
			if ok != tt.wantOK {
				t.Fatalf("ID() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("ID() = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestRecord_String(t *testing.T) {
	r := mustDecode(t, `{"A":"  padded  ","B":"   ","C":3}`)

	if s, ok := r.String("A"); !ok || s != "padded" {
		t.Errorf("String(A) = %q, %v; want padded, true", s, ok)
	}
	if _, ok := r.String("B"); ok {
		t.Error("String(B) ok = true for blank value")
	}
	if _, ok := r.String("C"); ok {
		t.Error("String(C) ok = true for number")
	}
	if _, ok := r.String("D"); ok {
		t.Error("String(D) ok = true for missing field")
	}
}

package models

import (
	"encoding/json"
	"testing"
)

func TestTranslationUnmarshalObject(t *testing.T) {
	var dua Dua
	data := []byte(`{"id":"d1","title":"Morning","translation":{"english":"en","amharic":"am","oromo":"or"}}`)
	if err := json.Unmarshal(data, &dua); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if dua.Translation.English != "en" || dua.Translation.Amharic != "am" || dua.Translation.Oromo != "or" {
		t.Fatalf("unexpected translation: %+v", dua.Translation)
	}
}

func TestTranslationUnmarshalDoubleEncoded(t *testing.T) {
	var dua Dua
	data := []byte(`{"id":"d1","translation":"{\"english\":\"en\",\"amharic\":\"am\",\"oromo\":\"or\"}"}`)
	if err := json.Unmarshal(data, &dua); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if dua.Translation.English != "en" {
		t.Fatalf("expected english 'en', got %q", dua.Translation.English)
	}
}

func TestTranslationUnmarshalGarbage(t *testing.T) {
	var dua Dua
	data := []byte(`{"id":"d1","translation":"not json"}`)
	if err := json.Unmarshal(data, &dua); err != nil {
		t.Fatalf("garbage translation must not fail the decode: %v", err)
	}
	if dua.Translation != (Translation{}) {
		t.Fatalf("expected empty triple, got %+v", dua.Translation)
	}
}

func TestParseTranslation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Translation
	}{
		{"structured", `{"english":"en","amharic":"am","oromo":"or"}`, Translation{"en", "am", "or"}},
		{"not json", "not json", Translation{}},
		{"empty", "", Translation{}},
		{"number", "42", Translation{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseTranslation(tc.raw); got != tc.want {
				t.Fatalf("ParseTranslation(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

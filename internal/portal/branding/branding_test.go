package branding

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const valid = `{"primary":"#112233","secondary":"#abc","accent":"#FFAA00","background":"#ffffff","text":"#000"}`

func TestDecode_Valid(t *testing.T) {
	got, err := Decode(json.RawMessage(valid))
	require.NoError(t, err)

	want := ColorScheme{
		Primary:    "#112233",
		Secondary:  "#abc",
		Accent:     "#FFAA00",
		Background: "#ffffff",
		Text:       "#000",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantFields []string
	}{
		{name: "empty", raw: ""},
		{name: "not an object", raw: `"red"`},
		{name: "null", raw: `null`, wantFields: []string{"primary", "secondary", "accent", "background", "text"}},
		{name: "malformed", raw: `{"primary":`},
		{name: "unknown field", raw: `{"primary":"#fff","secondary":"#fff","accent":"#fff","background":"#fff","text":"#fff","glow":"#fff"}`},
		{name: "trailing data", raw: valid + `{}`},
		{name: "missing field", raw: `{"primary":"#fff","secondary":"#fff","accent":"#fff","background":"#fff"}`, wantFields: []string{"text"}},
		{name: "not hex", raw: `{"primary":"red","secondary":"#fff","accent":"#ggg","background":"#fff","text":"#fff"}`, wantFields: []string{"primary", "accent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(json.RawMessage(tt.raw))
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Equal(t, tt.wantFields, de.Fields)
		})
	}
}

func TestEncode(t *testing.T) {
	cs := ColorScheme{Primary: "#111", Secondary: "#222", Accent: "#333", Background: "#444", Text: "#555"}
	raw, err := cs.Encode()
	require.NoError(t, err)

	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, cs, back)

	_, err = ColorScheme{}.Encode()
	assert.ErrorIs(t, err, common.ErrorValidation)
}

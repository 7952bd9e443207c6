package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRecord_DecodeMissingFields(t *testing.T) {
	var rec SourceRecord
	require.NoError(t, json.Unmarshal([]byte(`{"Hospital Name": "Sri Hospital"}`), &rec))

	assert.Equal(t, "Sri Hospital", rec.Name)
	assert.Empty(t, rec.Address)
	assert.Empty(t, rec.City)
	assert.Empty(t, rec.Pincode)
}

func TestSourceRecord_Usable(t *testing.T) {
	tests := []struct {
		name   string
		usable bool
	}{
		{"Sri Hospital", true},
		{"", false},
		{"   ", false},
		{"nan", false},
		{"Hospital Name", false},
		{"HOSPITAL NAME", false},
		{"Sr No", false},
		{"Name", false},
	}
	for _, tt := range tests {
		rec := SourceRecord{Name: tt.name}
		assert.Equal(t, tt.usable, rec.Usable(), "name=%q", tt.name)
	}
}

func TestSourceRecord_ID(t *testing.T) {
	a := SourceRecord{Name: "Sri Hospital", City: "Pune", Pincode: "411001"}
	b := SourceRecord{Name: "SRI. HOSPITAL", City: "Pune", Pincode: "411001"}
	assert.Equal(t, a.ID(), b.ID())
}

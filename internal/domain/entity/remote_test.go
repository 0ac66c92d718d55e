package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceAttribute(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want AttributeValue
	}{
		{"true string", "true", BoolValue(true)},
		{"false string any case", "FALSE", BoolValue(false)},
		{"integer string", "42", IntValue(42)},
		{"negative integer string", "-7", IntValue(-7)},
		{"decimal string stays text", "1.5", StringValue("1.5")},
		{"plain string", "hello", StringValue("hello")},
		{"empty string", "", StringValue("")},
		{"bool", true, BoolValue(true)},
		{"whole float", float64(12), IntValue(12)},
		{"fractional float", 2.25, StringValue("2.25")},
		{"json number", json.Number("99"), IntValue(99)},
		{"null", nil, StringValue("")},
		{"object", map[string]any{"a": "b"}, StringValue(`{"a":"b"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceAttribute(tt.raw))
		})
	}
}

func TestAttributeValue_MarshalJSON(t *testing.T) {
	encoded, err := json.Marshal(map[string]AttributeValue{
		"a": StringValue("x"),
		"b": BoolValue(true),
		"c": IntValue(3),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":true,"c":3}`, string(encoded))
}

func TestCustomer_Clone(t *testing.T) {
	original := &Customer{
		ExternalID:        "ext-1",
		Email:             "a@x.com",
		PendingAttributes: map[string]any{"plan": "pro"},
	}

	clone := original.Clone()
	clone.Email = "b@x.com"
	clone.PendingAttributes["plan"] = "free"

	assert.Equal(t, "a@x.com", original.Email)
	assert.Equal(t, "pro", original.PendingAttributes["plan"])
	assert.Nil(t, (*Customer)(nil).Clone())
}

package entity

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

type AttributeKind int

const (
	AttributeString AttributeKind = iota
	AttributeBool
	AttributeInt
)

// AttributeValue is a remote attribute after coercion. The remote stores
// everything loosely typed, so "true" comes back as a bool and "42" as an int.
type AttributeValue struct {
	Kind AttributeKind
	Str  string
	Bool bool
	Int  int64
}

func StringValue(s string) AttributeValue { return AttributeValue{Kind: AttributeString, Str: s} }
func BoolValue(b bool) AttributeValue     { return AttributeValue{Kind: AttributeBool, Bool: b} }
func IntValue(i int64) AttributeValue     { return AttributeValue{Kind: AttributeInt, Int: i} }

// CoerceAttribute converts a decoded JSON value into an AttributeValue.
// Boolean strings become Bool, integral strings and numbers become Int,
// null becomes the empty string and anything else keeps its text form.
func CoerceAttribute(raw any) AttributeValue {
	switch v := raw.(type) {
	case nil:
		return StringValue("")
	case bool:
		return BoolValue(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return IntValue(int64(v))
		}
		return StringValue(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return IntValue(i)
		}
		return StringValue(v.String())
	case string:
		return coerceString(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return StringValue("")
		}
		return StringValue(string(encoded))
	}
}

func coerceString(s string) AttributeValue {
	switch strings.ToLower(s) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	return StringValue(s)
}

func (v AttributeValue) Interface() any {
	switch v.Kind {
	case AttributeBool:
		return v.Bool
	case AttributeInt:
		return v.Int
	default:
		return v.Str
	}
}

func (v AttributeValue) String() string {
	switch v.Kind {
	case AttributeBool:
		return strconv.FormatBool(v.Bool)
	case AttributeInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Device is a push token registered against a remote customer.
type Device struct {
	ID       string     `json:"id"`
	Platform string     `json:"platform"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

// RemoteCustomer is the remote profile of a customer.
type RemoteCustomer struct {
	ID         string
	Attributes map[string]AttributeValue
	Devices    []Device
}

// Activity is one entry of a customer's remote activity feed.
type Activity struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	CustomerID string         `json:"customer_id"`
	Timestamp  int64          `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// ActivityPage is one page of activities. Next is empty on the last page.
type ActivityPage struct {
	Activities []Activity `json:"activities"`
	Next       string     `json:"next,omitempty"`
}

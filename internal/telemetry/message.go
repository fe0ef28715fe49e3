// Package telemetry implements the outgoing side of the dashboard link:
// the tagged Message envelope of spec §6 and the at-most-one-subscriber
// DashChannel of spec §4.2.
//
// The wire encoding itself is explicitly out of core scope (spec §1 treats
// it as "a serializer for the fixed message schema") — encoding/json and
// its struct tags are all that's needed, the same way the corpus's own
// RPC types (teacher: internal/rpc/types.go) lean on encoding/json for
// their wire structs even in a codebase that otherwise reaches for a YAML
// library elsewhere.
package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/dmagro/slonk-controller/internal/config"
)

// MessageType is the discriminant carried in every outgoing message's
// "type" field.
type MessageType string

const (
	TypeReady       MessageType = "Ready"
	TypeConfig      MessageType = "Config"
	TypeSensorValue MessageType = "SensorValue"
	TypeDriverValue MessageType = "DriverValue"
	TypeDisplay     MessageType = "Display"
	TypeError       MessageType = "Error"
)

// WireTime is the {secs_since_epoch, nanos_since_epoch} pair spec §6 wants
// for a SensorReading's timestamp.
type WireTime struct {
	SecsSinceEpoch  int64 `json:"secs_since_epoch"`
	NanosSinceEpoch int64 `json:"nanos_since_epoch"`
}

// SensorReading is one entry of a SensorValue message's readings array.
type SensorReading struct {
	SensorID uint8    `json:"sensor_id"`
	Reading  uint16   `json:"reading"`
	Time     WireTime `json:"time"`
}

// ErrorCauseType is the discriminant of an Error message's nested cause.
type ErrorCauseType string

const (
	CauseMalformed  ErrorCauseType = "Malformed"
	CauseSensorFail ErrorCauseType = "SensorFail"
	CausePermission ErrorCauseType = "Permission"
)

// ErrorCause is the tagged union of root causes an Error message can carry.
// GroupID and SensorID are legitimately 0 for the first group/sensor, so
// this type marshals itself explicitly rather than relying on omitempty
// (which would silently drop a real, meaningful zero).
type ErrorCause struct {
	Type            ErrorCauseType
	OriginalMessage string
	GroupID         uint8
	SensorID        uint8
}

// MarshalJSON emits only the fields documented for this cause's Type.
func (c ErrorCause) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case CauseMalformed:
		return json.Marshal(struct {
			Type            ErrorCauseType `json:"type"`
			OriginalMessage string         `json:"original_message"`
		}{c.Type, c.OriginalMessage})
	case CauseSensorFail:
		return json.Marshal(struct {
			Type     ErrorCauseType `json:"type"`
			GroupID  uint8          `json:"group_id"`
			SensorID uint8          `json:"sensor_id"`
		}{c.Type, c.GroupID, c.SensorID})
	case CausePermission:
		return json.Marshal(struct {
			Type ErrorCauseType `json:"type"`
		}{c.Type})
	default:
		return nil, fmt.Errorf("telemetry: unknown error cause %q", c.Type)
	}
}

// Message is the tagged union of everything the controller can send to a
// connected dashboard. Exactly one of the payload fields is meaningful for
// a given Type; Message marshals itself explicitly so each variant's wire
// shape carries only its own documented fields (notably, group_id is a
// legitimate 0 and must not be dropped by a generic omitempty).
type Message struct {
	Type MessageType

	Config *config.Config

	GroupID  uint8
	Readings []SensorReading

	Values []bool

	DisplayMessage string

	Cause      *ErrorCause
	Diagnostic string
}

// MarshalJSON emits only the fields documented for this message's Type.
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case TypeReady:
		return json.Marshal(struct {
			Type MessageType `json:"type"`
		}{m.Type})
	case TypeConfig:
		return json.Marshal(struct {
			Type   MessageType    `json:"type"`
			Config *config.Config `json:"config"`
		}{m.Type, m.Config})
	case TypeSensorValue:
		return json.Marshal(struct {
			Type     MessageType     `json:"type"`
			GroupID  uint8           `json:"group_id"`
			Readings []SensorReading `json:"readings"`
		}{m.Type, m.GroupID, m.Readings})
	case TypeDriverValue:
		return json.Marshal(struct {
			Type   MessageType `json:"type"`
			Values []bool      `json:"values"`
		}{m.Type, m.Values})
	case TypeDisplay:
		return json.Marshal(struct {
			Type    MessageType `json:"type"`
			Message string      `json:"message"`
		}{m.Type, m.DisplayMessage})
	case TypeError:
		return json.Marshal(struct {
			Type       MessageType `json:"type"`
			Cause      *ErrorCause `json:"cause"`
			Diagnostic string      `json:"diagnostic"`
		}{m.Type, m.Cause, m.Diagnostic})
	default:
		return nil, fmt.Errorf("telemetry: unknown message type %q", m.Type)
	}
}

// Ready builds a Ready message.
func Ready() Message { return Message{Type: TypeReady} }

// ConfigMsg builds a Config message carrying the full configuration.
func ConfigMsg(cfg *config.Config) Message {
	return Message{Type: TypeConfig, Config: cfg}
}

// SensorValue builds a SensorValue message for one group.
func SensorValue(groupID uint8, readings []SensorReading) Message {
	return Message{Type: TypeSensorValue, GroupID: groupID, Readings: readings}
}

// DriverValue builds a DriverValue message.
func DriverValue(values []bool) Message {
	return Message{Type: TypeDriverValue, Values: values}
}

// Display builds a Display message.
func Display(text string) Message {
	return Message{Type: TypeDisplay, DisplayMessage: text}
}

// ErrMalformed builds an Error{Malformed} message.
func ErrMalformed(original, diagnostic string) Message {
	return Message{
		Type:       TypeError,
		Cause:      &ErrorCause{Type: CauseMalformed, OriginalMessage: original},
		Diagnostic: diagnostic,
	}
}

// ErrSensorFail builds an Error{SensorFail} message.
func ErrSensorFail(groupID, sensorID uint8, diagnostic string) Message {
	return Message{
		Type:       TypeError,
		Cause:      &ErrorCause{Type: CauseSensorFail, GroupID: groupID, SensorID: sensorID},
		Diagnostic: diagnostic,
	}
}

// ErrPermission builds an Error{Permission} message.
func ErrPermission(diagnostic string) Message {
	return Message{
		Type:       TypeError,
		Cause:      &ErrorCause{Type: CausePermission},
		Diagnostic: diagnostic,
	}
}

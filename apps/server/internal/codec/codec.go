package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server envelope types.
const (
	TypeJoined   = "joined"
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// Envelope wraps every server message.
type Envelope struct {
	TableID    string `json:"tableId"`
	ServerSeq  uint64 `json:"serverSeq"`
	ServerTsMs int64  `json:"serverTsMs"`
	Type       string `json:"type"`
	Payload    any    `json:"payload,omitempty"`
}

// WrapServerEnvelope creates an Envelope with common fields.
func WrapServerEnvelope(tableID string, serverSeq uint64, typ string, payload any) Envelope {
	return Envelope{
		TableID:    tableID,
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
		Type:       typ,
		Payload:    payload,
	}
}

type JoinedPayload struct {
	UserID string `json:"userId"`
	Seat   string `json:"seat"`
	VsBot  bool   `json:"vsBot"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Encode renders env as a JSON text frame or, with binary set, a protobuf Struct frame.
func Encode(env Envelope, binary bool) ([]byte, error) {
	if !binary {
		return json.Marshal(env)
	}
	return EncodeProto(env)
}

// EncodeProto marshals env as a google.protobuf.Struct of the same shape as its JSON.
func EncodeProto(env Envelope) ([]byte, error) {
	st, err := toStruct(env)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// DecodeEnvelope reads a frame written by Encode. The payload is left as raw JSON.
func DecodeEnvelope(data []byte, binary bool) (Envelope, json.RawMessage, error) {
	raw := data
	if binary {
		var err error
		if raw, err = structBytesToJSON(data); err != nil {
			return Envelope{}, nil, err
		}
	}
	var wire struct {
		Envelope
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}
	return wire.Envelope, wire.Payload, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func structBytesToJSON(data []byte) ([]byte, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode protobuf struct: %w", err)
	}
	return json.Marshal(st.AsMap())
}

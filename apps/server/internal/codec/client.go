package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cribbage-lite/card"
	"cribbage-lite/cribbage"

	"google.golang.org/protobuf/proto"
)

// MessageType tags a client message.
type MessageType string

const (
	MsgJoin     MessageType = "join"
	MsgDiscard  MessageType = "discard"
	MsgPlay     MessageType = "play"
	MsgGo       MessageType = "go"
	MsgNextHand MessageType = "nextHand"
	MsgNextGame MessageType = "nextGame"
	MsgNewMatch MessageType = "newMatch"
)

var ErrBadRequest = errors.New("bad request")

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const maxNameLen = 32

// ClientMessage is a validated client message. Card ids are canonical.
type ClientMessage struct {
	Type    MessageType
	TableID string
	Name    string
	VsBot   bool
	Cards   []string
}

type wireClientMessage struct {
	Type    MessageType `json:"type"`
	TableID string      `json:"tableId,omitempty"`
	Name    string      `json:"name,omitempty"`
	VsBot   bool        `json:"vsBot,omitempty"`
	Cards   []string    `json:"cards,omitempty"`
	Card    string      `json:"card,omitempty"`
}

// DecodeClient parses a text (JSON) or binary (protobuf Struct) frame.
func DecodeClient(data []byte, binary bool) (ClientMessage, error) {
	raw := data
	if binary {
		var err error
		if raw, err = structBytesToJSON(data); err != nil {
			return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	var w wireClientMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return w.validate()
}

func (w wireClientMessage) validate() (ClientMessage, error) {
	msg := ClientMessage{Type: w.Type, TableID: strings.TrimSpace(w.TableID)}
	if msg.TableID != "" && !tableIDPattern.MatchString(msg.TableID) {
		return ClientMessage{}, fmt.Errorf("%w: invalid tableId", ErrBadRequest)
	}

	switch w.Type {
	case MsgJoin:
		if msg.TableID == "" {
			return ClientMessage{}, fmt.Errorf("%w: join needs a tableId", ErrBadRequest)
		}
		msg.Name = strings.TrimSpace(w.Name)
		if len(msg.Name) > maxNameLen {
			msg.Name = msg.Name[:maxNameLen]
		}
		msg.VsBot = w.VsBot
	case MsgDiscard:
		if len(w.Cards) != cribbage.DiscardSize {
			return ClientMessage{}, fmt.Errorf("%w: discard needs %d cards", ErrBadRequest, cribbage.DiscardSize)
		}
		ids, err := canonical(w.Cards)
		if err != nil {
			return ClientMessage{}, err
		}
		if ids[0] == ids[1] {
			return ClientMessage{}, fmt.Errorf("%w: duplicate card %s", ErrBadRequest, ids[0])
		}
		msg.Cards = ids
	case MsgPlay:
		ids, err := canonical([]string{w.Card})
		if err != nil {
			return ClientMessage{}, err
		}
		msg.Cards = ids
	case MsgGo, MsgNextHand, MsgNextGame, MsgNewMatch:
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown message type %q", ErrBadRequest, w.Type)
	}
	return msg, nil
}

func canonical(ids []string) ([]string, error) {
	cards, err := card.ParseList(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return card.IDs(cards), nil
}

// EncodeClient is the client side of DecodeClient, for tests and tooling.
func EncodeClient(msg ClientMessage, binary bool) ([]byte, error) {
	w := wireClientMessage{
		Type:    msg.Type,
		TableID: msg.TableID,
		Name:    msg.Name,
		VsBot:   msg.VsBot,
	}
	switch msg.Type {
	case MsgDiscard:
		w.Cards = msg.Cards
	case MsgPlay:
		if len(msg.Cards) > 0 {
			w.Card = msg.Cards[0]
		}
	}
	if !binary {
		return json.Marshal(w)
	}
	st, err := toStruct(w)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

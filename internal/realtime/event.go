package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/marcus/giftwell/internal/models"
)

// ErrInvalidEvent is returned by Decode for frames that fail validation.
var ErrInvalidEvent = errors.New("invalid realtime event")

// Event is a validated realtime event. Payload holds a pointer to the model
// type implied by the topic's resource (*models.Gift for "gift:7"), or the
// raw JSON for unknown resources, or nil when the server sent none.
type Event struct {
	Topic    string
	Kind     Kind
	EntityID string
	Payload  any
}

// PayloadAs returns the event payload as *T when it has that type.
func PayloadAs[T any](e Event) (*T, bool) {
	p, ok := e.Payload.(*T)
	return p, ok && p != nil
}

// envelope is the wire format.
type envelope struct {
	Topic string `json:"topic"`
	Event Kind   `json:"event"`
	Data  struct {
		EntityID json.RawMessage `json:"entity_id"`
		Payload  json.RawMessage `json:"payload"`
	} `json:"data"`
}

// payloadDecoders maps each resource to the model its payloads decode into.
var payloadDecoders = map[Resource]func([]byte) (any, error){
	ResourcePersons:      decodeInto[models.Person],
	ResourceGifts:        decodeInto[models.Gift],
	ResourceLists:        decodeInto[models.List],
	ResourceListItems:    decodeInto[models.ListItem],
	ResourceOccasions:    decodeInto[models.Occasion],
	ResourceGroups:       decodeInto[models.Group],
	ResourceFieldOptions: decodeInto[models.FieldOption],
	ResourceBudgets:      decodeInto[models.PersonBudget],
	ResourceComments:     decodeInto[models.Comment],
	ResourceActivity:     decodeInto[models.Activity],
}

func decodeInto[T any](data []byte) (any, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode parses and validates a realtime frame.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if env.Topic == "" {
		return Event{}, fmt.Errorf("%w: missing topic", ErrInvalidEvent)
	}
	if !env.Event.Valid() {
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, env.Event)
	}

	id, err := entityID(env.Data.EntityID)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Topic: env.Topic, Kind: env.Event, EntityID: id}

	payload := bytes.TrimSpace(env.Data.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return ev, nil
	}

	res, ok := TopicResource(env.Topic)
	decode := payloadDecoders[res]
	if !ok || decode == nil {
		ev.Payload = json.RawMessage(payload)
		return ev, nil
	}
	p, err := decode(payload)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s payload: %v", ErrInvalidEvent, res, err)
	}
	ev.Payload = p
	return ev, nil
}

// entityID accepts a JSON string or number.
func entityID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: missing entity_id", ErrInvalidEvent)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty entity_id", ErrInvalidEvent)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("%w: bad entity_id %s", ErrInvalidEvent, raw)
}

// Encode renders an event in wire form. Used by the static provider and tests.
func Encode(e Event) ([]byte, error) {
	out := map[string]any{
		"topic": e.Topic,
		"event": e.Kind,
		"data": map[string]any{
			"entity_id": e.EntityID,
			"payload":   e.Payload,
		},
	}
	return json.Marshal(out)
}

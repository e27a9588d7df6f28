package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedFrame is returned for frames that are not a tagged event object.
var ErrMalformedFrame = errors.New("malformed frame")

var constructors = map[string]func() ServerEvent{
	EvMarketCreated.String():  func() ServerEvent { return &MarketCreated{} },
	EvMarketSettled.String():  func() ServerEvent { return &MarketSettled{} },
	EvOrderCreated.String():   func() ServerEvent { return &OrderCreated{} },
	EvOrderCancelled.String(): func() ServerEvent { return &OrderCancelled{} },
	EvOut.String():            func() ServerEvent { return &Out{} },
	EvPaymentCreated.String(): func() ServerEvent { return &PaymentCreated{} },
	EvOwnership.String():      func() ServerEvent { return &Ownership{} },
	EvOwnershipGiven.String(): func() ServerEvent { return &OwnershipGiven{} },
	EvRequestFailed.String():  func() ServerEvent { return &RequestFailed{} },
	EvUsers.String():          func() ServerEvent { return &Users{} },
	EvUserCreated.String():    func() ServerEvent { return &UserCreated{} },
	EvActingAs.String():       func() ServerEvent { return &ActingAs{} },
	EvMarkets.String():        func() ServerEvent { return &Markets{} },
}

// Decode parses one inbound frame of the form {"<kind>": {...}}.
// Frames whose keys are all unrecognized decode to *Unknown.
func Decode(data []byte) (ServerEvent, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(envelope) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedFrame)
	}

	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		newEvent, ok := constructors[k]
		if !ok {
			continue
		}
		ev := newEvent()
		if err := json.Unmarshal(envelope[k], ev); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, k, err)
		}
		return ev, nil
	}

	return &Unknown{Name: keys[0]}, nil
}

// Encode serializes a server event back into its tagged frame.
func Encode(ev ServerEvent) ([]byte, error) {
	if u, ok := ev.(*Unknown); ok {
		return json.Marshal(map[string]struct{}{u.Name: {}})
	}
	return json.Marshal(map[string]ServerEvent{ev.GetType().String(): ev})
}

// EncodeRequest serializes an outbound request.
func EncodeRequest(req ClientRequest) ([]byte, error) {
	if req.Kind() == "" {
		return nil, errors.New("empty client request")
	}
	return json.Marshal(req)
}

package packetbus

import (
	"encoding/json"
	"fmt"
)

// Version is the fixed protocol version carried by every packet.
const Version = 1

// Packet is the message envelope. A packet is either a request
// (IsResponse=false; Success/Result/ErrorMessage unset) or a response
// (IsResponse=true; payload and reply target unset). Packets are built by
// the constructors, never mutated after construction, and discarded after
// delivery.
type Packet struct {
	Version int
	Verb    Verb
	Address Address

	// Payload is the request body; arbitrary for requests, absent on
	// responses.
	Payload map[string]any

	// Response-only fields, valid iff IsResponse is true.
	IsResponse   bool
	Success      bool
	Result       any
	ErrorMessage string

	// reply is a single-use, in-process-only delivery capability. It is
	// never serialized; a packet decoded from the wire has none.
	reply *replyTarget
}

// NewRequest builds a request packet. Requests built this way cannot be
// answered; Coordinator.SendRequest attaches the reply target.
func NewRequest(verb Verb, addr Address, payload map[string]any) *Packet {
	return &Packet{
		Version: Version,
		Verb:    verb,
		Address: addr,
		Payload: payload,
	}
}

func newResponse(req *Packet, result any, success bool, errorMessage string) *Packet {
	return &Packet{
		Version:      Version,
		Verb:         req.Verb,
		Address:      req.Address,
		IsResponse:   true,
		Success:      success,
		Result:       result,
		ErrorMessage: errorMessage,
	}
}

// withReply returns a copy of the request carrying the given reply target.
func withReply(req *Packet, rt *replyTarget) *Packet {
	cp := *req
	cp.reply = rt
	return &cp
}

// ExpectsReply reports whether the packet carries a live reply target.
func (p *Packet) ExpectsReply() bool {
	return p.reply != nil
}

// wirePacket is the flat wire record packets serialize to when they cross
// the routing boundary. The reply target is an in-process capability and is
// never part of this record.
type wirePacket struct {
	Version      int             `json:"version"`
	VerbSet      string          `json:"verbSet"`
	VerbName     string          `json:"verbName"`
	Address      string          `json:"address"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	IsResponse   bool            `json:"isResponse"`
	Success      bool            `json:"success"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// EncodePacket serializes a packet into its flat wire record.
func EncodePacket(p *Packet) ([]byte, error) {
	w := wirePacket{
		Version:      p.Version,
		VerbSet:      p.Verb.VerbSet(),
		VerbName:     p.Verb.VerbName(),
		Address:      p.Address.String(),
		IsResponse:   p.IsResponse,
		Success:      p.Success,
		ErrorMessage: p.ErrorMessage,
	}
	if p.Payload != nil {
		b, err := json.Marshal(p.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		w.Payload = b
	}
	if p.Result != nil {
		b, err := json.Marshal(p.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		w.Result = b
	}
	return json.Marshal(w)
}

// DecodePacket parses a wire record back into a Packet. The verb reference
// is resolved against the caller-supplied candidate list; no match fails
// with *UnknownVerbError. Fields invalid for the packet's kind (payload on
// a response, outcome on a request) are dropped.
func DecodePacket(data []byte, verbs []Verb) (*Packet, error) {
	var w wirePacket
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse wire packet: %w", err)
	}

	verb, err := ResolveVerb(w.VerbSet, w.VerbName, verbs)
	if err != nil {
		return nil, err
	}

	addr, err := ParseAddress(w.Address)
	if err != nil {
		return nil, err
	}

	p := &Packet{
		Version: w.Version,
		Verb:    verb,
		Address: addr,
	}
	if w.IsResponse {
		p.IsResponse = true
		p.Success = w.Success
		p.ErrorMessage = w.ErrorMessage
		if len(w.Result) > 0 {
			if err := json.Unmarshal(w.Result, &p.Result); err != nil {
				return nil, fmt.Errorf("parse result: %w", err)
			}
		}
	} else if len(w.Payload) > 0 {
		if err := json.Unmarshal(w.Payload, &p.Payload); err != nil {
			return nil, fmt.Errorf("parse payload: %w", err)
		}
	}
	return p, nil
}

package internal

import (
	"encoding/json"
	"fmt"
)

// Invocation is a method call or a method response, serialized as the
// three-element array defined in RFC 8620 section 3.2.
type Invocation struct {
	Name   string
	Args   json.RawMessage
	CallID string
}

// NewInvocation creates an invocation for the named method, serializing args
// to JSON.
func NewInvocation(name string, args interface{}, callID string) (Invocation, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Invocation{}, fmt.Errorf("jmap: failed to encode %q arguments: %v", name, err)
	}
	return Invocation{Name: name, Args: raw, CallID: callID}, nil
}

// DecodeArgs unmarshals the invocation arguments into v.
func (inv *Invocation) DecodeArgs(v interface{}) error {
	if err := json.Unmarshal(inv.Args, v); err != nil {
		return fmt.Errorf("jmap: failed to decode %q arguments: %v", inv.Name, err)
	}
	return nil
}

func (inv Invocation) MarshalJSON() ([]byte, error) {
	args := inv.Args
	if args == nil {
		args = json.RawMessage("{}")
	}
	return json.Marshal([3]interface{}{inv.Name, args, inv.CallID})
}

func (inv *Invocation) UnmarshalJSON(b []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return err
	}
	if len(elems) != 3 {
		return fmt.Errorf("jmap: invocation has %v elements, expected 3", len(elems))
	}
	if err := json.Unmarshal(elems[0], &inv.Name); err != nil {
		return err
	}
	inv.Args = elems[1]
	return json.Unmarshal(elems[2], &inv.CallID)
}

// Request is the top-level request object defined in RFC 8620 section 3.3.
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []Invocation `json:"methodCalls"`
}

// Response is the top-level response object defined in RFC 8620 section 3.4.
type Response struct {
	MethodResponses []Invocation `json:"methodResponses"`
	SessionState    string       `json:"sessionState"`
}

// errorMethodName is the name a method response carries when the call failed,
// see RFC 8620 section 3.6.2.
const errorMethodName = "error"

// Get returns the method response matching the given call ID. If the server
// answered the call with a method-level error, the error is decoded and
// returned as a *MethodError.
func (resp *Response) Get(callID string) (*Invocation, error) {
	for i := range resp.MethodResponses {
		inv := &resp.MethodResponses[i]
		if inv.CallID != callID {
			continue
		}
		if inv.Name == errorMethodName {
			var methodErr MethodError
			if err := inv.DecodeArgs(&methodErr); err != nil {
				return nil, err
			}
			return nil, &methodErr
		}
		return inv, nil
	}
	return nil, fmt.Errorf("jmap: missing method response for call %q", callID)
}

// MethodError is a method-level error, see RFC 8620 section 3.6.2. Type is
// the server's machine-readable error type token, e.g. "invalidArguments".
type MethodError struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (err *MethodError) Error() string {
	if err.Description != "" {
		return fmt.Sprintf("jmap: method error %q: %v", err.Type, err.Description)
	}
	return fmt.Sprintf("jmap: method error %q", err.Type)
}

// ResultReference points into a previous method call's result, see RFC 8620
// section 3.7. It lets a batched call consume another call's output without a
// separate round trip.
type ResultReference struct {
	ResultOf string `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// ProblemDetails is a request-level error, see RFC 8620 section 3.6.1. It
// follows the RFC 7807 problem details format.
type ProblemDetails struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (err *ProblemDetails) Error() string {
	if err.Detail != "" {
		return fmt.Sprintf("jmap: %v: %v", err.Type, err.Detail)
	}
	return fmt.Sprintf("jmap: %v", err.Type)
}

package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Request is a decoded request envelope. Numbers in Fields are json.Number.
type Request struct {
	Action string
	Fields map[string]any
}

// Decode parses one request envelope.
func Decode(data []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Request{}, domain.ErrInvalidEnvelope
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Request{}, domain.ErrInvalidEnvelope.WithDetails("trailing data after object")
	}

	raw, ok := fields[FieldAction]
	if !ok || raw == nil {
		return Request{}, domain.ErrMissingField.WithDetails(FieldAction)
	}
	action, ok := raw.(string)
	if !ok {
		return Request{}, domain.ErrInvalidFieldType.WithDetailsf("%s must be a string", FieldAction)
	}

	return Request{
		Action: strings.ToUpper(strings.TrimSpace(action)),
		Fields: fields,
	}, nil
}

// Response is a response envelope.
type Response struct {
	Status        string        `json:"status"`
	Message       string        `json:"message"`
	Code          string        `json:"code,omitempty"`
	AccountNumber int64         `json:"accountNumber,omitempty"`
	Account       *domain.View  `json:"account,omitempty"`
	Accounts      []domain.View `json:"accounts,omitempty"`
	Count         *int          `json:"count,omitempty"`
	Balance       json.Number   `json:"balance,omitempty"`
	Interest      json.Number   `json:"interest,omitempty"`
	Path          string        `json:"path,omitempty"`

	// Terminal asks the transport to close the connection after writing.
	Terminal bool `json:"-"`

	// listing forces "accounts" to be written even when empty.
	listing bool
}

// MarshalJSON writes "accounts" as [] rather than omitting it for listings.
func (r Response) MarshalJSON() ([]byte, error) {
	type wire Response
	if !r.listing {
		return json.Marshal(wire(r))
	}

	accounts := r.Accounts
	if accounts == nil {
		accounts = []domain.View{}
	}
	return json.Marshal(struct {
		wire
		Accounts []domain.View `json:"accounts"`
	}{wire(r), accounts})
}

// OK reports whether the response is a success.
func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

func success(message string) Response {
	return Response{Status: StatusSuccess, Message: message}
}

func listing(message string, views []domain.View) Response {
	n := len(views)
	return Response{
		Status:   StatusSuccess,
		Message:  message,
		Accounts: views,
		Count:    &n,
		listing:  true,
	}
}

// Failure renders err as a failed envelope. Errors other than DomainError
// are reported as internal errors without their text.
func Failure(err error) Response {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternal
	}
	return Response{
		Status:  StatusFailed,
		Message: de.Describe(),
		Code:    de.Code,
	}
}

package shopify

import (
	"errors"
	"fmt"
	"strings"

	"shopify-catalog-sync/internal/adapters/shopify/dto"
)

// TransportError is a failed exchange: the request never produced a
// readable GraphQL envelope.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("shopify request failed: %v", e.Err)
	case strings.TrimSpace(e.Body) == "":
		return fmt.Sprintf("shopify request failed: %s", e.Status)
	default:
		return fmt.Sprintf("shopify request failed: %s: %s", e.Status, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newHTTPStatusError(statusCode int, status string, body []byte) error {
	return &TransportError{
		StatusCode: statusCode,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}
}

// ProtocolError carries the top-level GraphQL errors list of an otherwise
// successful response.
type ProtocolError struct {
	Errors []dto.GraphQLError
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("shopify graphql errors: %s", formatGraphQLErrors(e.Errors))
}

// Throttled reports whether the platform rejected the call for cost.
func (e *ProtocolError) Throttled() bool {
	for _, ge := range e.Errors {
		if strings.Contains(strings.ToLower(ge.Message), "throttled") {
			return true
		}
		if code, ok := ge.Extensions["code"].(string); ok && strings.EqualFold(code, "THROTTLED") {
			return true
		}
	}
	return false
}

type UserErrorDetail struct {
	Field   string
	Message string
}

// UserErrorsError is returned when a mutation answers with userErrors.
type UserErrorsError struct {
	Action string
	Errors []UserErrorDetail
}

func (e *UserErrorsError) Error() string {
	if e == nil {
		return "shopify user errors"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		field := strings.TrimSpace(err.Field)
		message := strings.TrimSpace(err.Message)
		if field == "" {
			parts = append(parts, message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, message))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("shopify %s failed with user errors", e.Action)
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}

// IsFailure reports whether err is a transport or protocol failure, the
// outcomes that carry no usable payload.
func IsFailure(err error) bool {
	var transport *TransportError
	var protocol *ProtocolError
	return errors.As(err, &transport) || errors.As(err, &protocol)
}

// IsUserError reports whether err carries mutation userErrors.
func IsUserError(err error) bool {
	var userErrs *UserErrorsError
	return errors.As(err, &userErrs)
}

func userErrorsToError(action string, errs []dto.ShopifyUserError) error {
	if len(errs) == 0 {
		return nil
	}
	details := make([]UserErrorDetail, 0, len(errs))
	for _, e := range errs {
		message := strings.TrimSpace(e.Message)
		if message == "" {
			continue
		}
		details = append(details, UserErrorDetail{Field: strings.Join(e.Field, "."), Message: message})
	}
	if len(details) == 0 {
		details = []UserErrorDetail{{Message: "user errors returned"}}
	}
	return &UserErrorsError{Action: action, Errors: details}
}

func formatGraphQLErrors(errs []dto.GraphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}

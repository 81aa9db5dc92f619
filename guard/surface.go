// guard/surface.go
package guard

import "context"

// Entry is one name/value pair of the outgoing form data, in form order.
type Entry struct {
	Name  string
	Value string
}

// Surface is the form as the guard sees it. A browser binding implements it
// over the DOM; tests use an in-memory version.
//
// Missing elements are not errors: Value returns "" and the display methods
// do nothing, mirroring a page that simply lacks the node.
type Surface interface {
	// Action returns the form's declared action URL.
	Action() string

	// Value and SetValue read and write a text control by id.
	Value(id string) string
	SetValue(id, value string)

	// Checked reports whether the checkbox with the given id is checked.
	Checked(id string) bool

	// Honeypot returns the honeypot value and whether the field exists.
	Honeypot() (value string, present bool)
	// InjectHoneypot adds a hidden, non-focusable honeypot input.
	InjectHoneypot()

	// Entries returns the current form data in document order.
	Entries() []Entry

	// ShowError writes msg into the error node with the given id and makes
	// it visible. ClearErrors empties and hides every error node.
	ShowError(id, msg string)
	ClearErrors()

	// ShowRateLimit and HideRateLimit drive the rate-limit message node.
	ShowRateLimit(msg string)
	HideRateLimit()

	// DisableSubmit and EnableSubmit toggle the submit control and set its
	// label.
	DisableSubmit(label string)
	EnableSubmit(label string)

	// Alert shows a blocking message to the user.
	Alert(msg string)

	// Navigate sends the browser to url.
	Navigate(url string)
}

// Sender issues the outbound request. It returns an error when the request
// fails or the response is not a success.
type Sender interface {
	Send(ctx context.Context, action string, entries []Entry) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, action string, entries []Entry) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, action string, entries []Entry) error {
	return f(ctx, action, entries)
}

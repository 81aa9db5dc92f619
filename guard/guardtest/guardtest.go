// Package guardtest provides in-memory implementations of guard.Surface and
// guard.Sender for tests.
package guardtest

import (
	"context"
	"sync"

	"github.com/dalemusser/formguard/guard"
)

// Form is an in-memory guard.Surface. Zero value is an empty form with no
// action; use NewForm for a populated one.
type Form struct {
	mu sync.Mutex

	ActionURL string
	Values    map[string]string
	Checks    map[string]bool
	// Order lists field names in document order for Entries. Fields not in
	// Order are not submitted.
	Order []string

	HoneyPresent bool
	HoneyValue   string
	Injected     int

	Errors         map[string]string
	Cleared        int
	RateLimitMsg   string
	RateLimitShown bool

	SubmitDisabled bool
	SubmitLabel    string

	Alerts      []string
	NavigatedTo string
}

// NewForm returns a form posting to action with the contact fields filled
// with values that pass validation.
func NewForm(action string) *Form {
	return &Form{
		ActionURL: action,
		Values: map[string]string{
			guard.FieldName:    "Jean Dupont",
			guard.FieldEmail:   "jean@example.com",
			guard.FieldSubject: "Hello",
			guard.FieldMessage: "Bonjour, je voudrais un devis.",
			guard.FieldCaptcha: "false",
			guard.FieldNext:    "https://example.com/merci.html",
			guard.FieldSubj:    "Nouveau message <site>",
		},
		Checks: map[string]bool{guard.FieldPrivacy: true},
		Order: []string{
			guard.FieldName, guard.FieldEmail, guard.FieldSubject, guard.FieldMessage,
			guard.FieldCaptcha, guard.FieldNext, guard.FieldSubj,
		},
		Errors:      map[string]string{},
		SubmitLabel: guard.DefaultConfig().SubmitLabel,
	}
}

func (f *Form) Action() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActionURL
}

func (f *Form) Value(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Values[id]
}

func (f *Form) SetValue(id, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Values == nil {
		f.Values = map[string]string{}
	}
	f.Values[id] = value
}

func (f *Form) Checked(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Checks[id]
}

func (f *Form) Honeypot() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HoneyValue, f.HoneyPresent
}

func (f *Form) InjectHoneypot() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HoneyPresent = true
	f.Injected++
}

// Entries returns the fields in Order, followed by the honeypot when present,
// as a browser appends the injected input at the end of the form.
func (f *Form) Entries() []guard.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]guard.Entry, 0, len(f.Order)+1)
	for _, name := range f.Order {
		out = append(out, guard.Entry{Name: name, Value: f.Values[name]})
	}
	if f.HoneyPresent {
		out = append(out, guard.Entry{Name: guard.FieldHoney, Value: f.HoneyValue})
	}
	return out
}

func (f *Form) ShowError(id, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	f.Errors[id] = msg
}

func (f *Form) ClearErrors() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors = map[string]string{}
	f.RateLimitShown = false
	f.Cleared++
}

func (f *Form) ShowRateLimit(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RateLimitMsg = msg
	f.RateLimitShown = true
}

func (f *Form) HideRateLimit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RateLimitShown = false
}

func (f *Form) DisableSubmit(label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmitDisabled = true
	f.SubmitLabel = label
}

func (f *Form) EnableSubmit(label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmitDisabled = false
	f.SubmitLabel = label
}

func (f *Form) Alert(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Alerts = append(f.Alerts, msg)
}

func (f *Form) Navigate(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NavigatedTo = url
}

// ErrorFor returns the message shown for a field, or "".
func (f *Form) ErrorFor(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Errors[field+guard.ErrorSuffix]
}

// Call is one recorded Sender invocation.
type Call struct {
	Action  string
	Entries []guard.Entry
}

// Sender records calls and returns Err (nil means success).
type Sender struct {
	mu    sync.Mutex
	Err   error
	Calls []Call
}

func (s *Sender) Send(_ context.Context, action string, entries []guard.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]guard.Entry, len(entries))
	copy(cp, entries)
	s.Calls = append(s.Calls, Call{Action: action, Entries: cp})
	return s.Err
}

// Count returns the number of Send calls so far.
func (s *Sender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

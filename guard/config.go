// guard/config.go
package guard

import "time"

// Field identifiers of the contact form.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
	FieldPrivacy = "privacy"
)

// textFields are composed to NFC before a submission is validated.
var textFields = []string{FieldName, FieldEmail, FieldSubject, FieldMessage}

// Reserved relay control fields. They are forwarded untouched.
const (
	FieldHoney   = "_honey"
	FieldCaptcha = "_captcha"
	FieldNext    = "_next"
	FieldSubj    = "_subject"
)

// ErrorSuffix is appended to a field id to find its error node
// ("name" -> "nameError").
const ErrorSuffix = "Error"

// RateLimitNode is the id of the optional rate-limit message node.
const RateLimitNode = "rateLimitMessage"

// ErrorClass marks every error node of the form.
const ErrorClass = "form-error"

// MaxNameLength caps Config.NameMaxLength. The name pattern is a counted
// repetition and RE2 rejects counts above 1000.
const MaxNameLength = 1000

// Config holds the guard's limits and user-facing constants.
type Config struct {
	// RelayHost must appear in the form action for the guard to activate.
	RelayHost string

	// Window is the minimum time between two accepted submissions.
	Window time.Duration

	NameMinLength    int
	NameMaxLength    int
	SubjectMaxLength int
	MessageMaxLength int

	// ConfirmationPage is where the browser goes after a successful send.
	ConfirmationPage string

	// SubmitLabel is restored on the submit control after a failure;
	// SendingLabel is shown while the request is in flight.
	SubmitLabel  string
	SendingLabel string

	// Reserved lists the fields exempt from sanitization.
	Reserved []string

	// BlurFields lists the fields sanitized in place when they lose focus.
	BlurFields []string

	Messages Messages
}

// DefaultConfig returns the configuration used by the contact page.
func DefaultConfig() Config {
	return Config{
		RelayHost:        "formsubmit.co",
		Window:           60 * time.Second,
		NameMinLength:    2,
		NameMaxLength:    50,
		SubjectMaxLength: 100,
		MessageMaxLength: 2000,
		ConfirmationPage: "merci.html",
		SubmitLabel:      "Envoyer le message",
		SendingLabel:     "Envoi en cours...",
		Reserved:         []string{FieldHoney, FieldCaptcha, FieldNext, FieldSubj},
		BlurFields:       []string{FieldName, FieldSubject, FieldMessage},
		Messages:         DefaultMessages(),
	}
}

// IsReserved reports whether name is a relay control field.
func (c Config) IsReserved(name string) bool {
	for _, r := range c.Reserved {
		if r == name {
			return true
		}
	}
	return false
}

func (c Config) sanitizesOnBlur(id string) bool {
	for _, f := range c.BlurFields {
		if f == id {
			return true
		}
	}
	return false
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RelayHost == "" {
		c.RelayHost = d.RelayHost
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.NameMinLength <= 0 {
		c.NameMinLength = d.NameMinLength
	}
	if c.NameMaxLength <= 0 {
		c.NameMaxLength = d.NameMaxLength
	}
	if c.NameMaxLength > MaxNameLength {
		c.NameMaxLength = MaxNameLength
	}
	if c.NameMinLength > c.NameMaxLength {
		c.NameMinLength = c.NameMaxLength
	}
	if c.SubjectMaxLength <= 0 {
		c.SubjectMaxLength = d.SubjectMaxLength
	}
	if c.MessageMaxLength <= 0 {
		c.MessageMaxLength = d.MessageMaxLength
	}
	if c.ConfirmationPage == "" {
		c.ConfirmationPage = d.ConfirmationPage
	}
	if c.SubmitLabel == "" {
		c.SubmitLabel = d.SubmitLabel
	}
	if c.SendingLabel == "" {
		c.SendingLabel = d.SendingLabel
	}
	if c.Reserved == nil {
		c.Reserved = d.Reserved
	}
	if c.BlurFields == nil {
		c.BlurFields = d.BlurFields
	}
	c.Messages = c.Messages.withDefaults()
	return c
}

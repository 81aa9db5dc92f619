// guard/validate.go
package guard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// jsSpace is the white-space set of JavaScript's \s and String.prototype.trim.
const jsSpace = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var emailPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		`@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
)

// namePattern accepts Latin letters (including the Latin-1 accented range),
// white space, apostrophes and hyphens.
func namePattern(min, max int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^[a-zA-Z\x{00C0}-\x{00FF}%s'-]{%d,%d}$`, jsSpace, min, max))
}

// FieldError is one failed constraint.
type FieldError struct {
	Field   string
	Key     string
	Message string
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool
	Bot    bool
	Errors []FieldError
}

// Validator checks the contact form fields.
type Validator struct {
	cfg    Config
	name   *regexp.Regexp
	logger *zap.Logger
}

// NewValidator builds a validator from cfg.
func NewValidator(cfg Config, logger *zap.Logger) *Validator {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:    cfg,
		name:   namePattern(cfg.NameMinLength, cfg.NameMaxLength),
		logger: logger,
	}
}

// Validate clears previous errors, checks every field without stopping at
// the first failure and shows an error for each one. A filled honeypot makes
// the whole pass fail as bot traffic, whatever the other fields hold.
func (v *Validator) Validate(s Surface) Result {
	s.ClearErrors()
	s.HideRateLimit()

	res := Result{Valid: true}
	fail := func(field, key string, params map[string]int) {
		msg := v.cfg.Messages.Get(key, params)
		res.Valid = false
		res.Errors = append(res.Errors, FieldError{Field: field, Key: key, Message: msg})
		s.ShowError(field+ErrorSuffix, msg)
	}

	name := readField(s, FieldName)
	switch {
	case name == "":
		fail(FieldName, MsgNameRequired, nil)
	case !v.name.MatchString(name):
		fail(FieldName, MsgNameInvalid, nil)
	}

	email := readField(s, FieldEmail)
	switch {
	case email == "":
		fail(FieldEmail, MsgEmailRequired, nil)
	case !emailPattern.MatchString(email):
		fail(FieldEmail, MsgEmailInvalid, nil)
	}

	subject := readField(s, FieldSubject)
	switch {
	case subject == "":
		fail(FieldSubject, MsgSubjectRequired, nil)
	case JSLength(subject) > v.cfg.SubjectMaxLength:
		fail(FieldSubject, MsgSubjectTooLong, map[string]int{"max": v.cfg.SubjectMaxLength})
	}

	message := readField(s, FieldMessage)
	switch {
	case message == "":
		fail(FieldMessage, MsgMessageRequired, nil)
	case JSLength(message) > v.cfg.MessageMaxLength:
		fail(FieldMessage, MsgMessageTooLong, map[string]int{"max": v.cfg.MessageMaxLength})
	}

	if !s.Checked(FieldPrivacy) {
		fail(FieldPrivacy, MsgPrivacyRequired, nil)
	}

	if honey, ok := s.Honeypot(); ok && honey != "" {
		v.logger.Info("bot detected", zap.Int("honeypot_len", len(honey)))
		res.Valid = false
		res.Bot = true
	}

	return res
}

// ValidName reports whether name passes the name constraint on its own.
func (v *Validator) ValidName(name string) bool {
	name = TrimJS(name)
	return name != "" && v.name.MatchString(name)
}

// ValidEmail reports whether email has an acceptable shape.
func ValidEmail(email string) bool {
	email = TrimJS(email)
	return email != "" && emailPattern.MatchString(email)
}

// readField returns the trimmed value. Lengths and patterns are checked on
// the same text the surface submits.
func readField(s Surface, id string) string {
	return TrimJS(s.Value(id))
}

// TrimJS trims leading and trailing white space the way JavaScript's
// String.prototype.trim does.
func TrimJS(s string) string {
	return strings.TrimFunc(s, isJSSpace)
}

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// JSLength returns the length of s in UTF-16 code units, which is what a
// browser reports as value.length.
func JSLength(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 && r <= utf8.MaxRune {
			n += 2
			continue
		}
		n++
	}
	return n
}

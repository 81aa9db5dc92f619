// guard/messages.go
package guard

import (
	"strconv"
	"strings"
)

// Message keys.
const (
	MsgNameRequired    = "name_required"
	MsgNameInvalid     = "name_invalid"
	MsgEmailRequired   = "email_required"
	MsgEmailInvalid    = "email_invalid"
	MsgSubjectRequired = "subject_required"
	MsgSubjectTooLong  = "subject_too_long"
	MsgMessageRequired = "message_required"
	MsgMessageTooLong  = "message_too_long"
	MsgPrivacyRequired = "privacy_required"
	MsgRateLimited     = "rate_limited"
	MsgSendFailed      = "send_failed"
)

// Messages maps message keys to user-facing text. Text may contain the
// placeholders {max} and {seconds}.
type Messages map[string]string

var defaultFrenchMessages = Messages{
	MsgNameRequired:    "Le nom est requis.",
	MsgNameInvalid:     "Le nom contient des caractères non autorisés.",
	MsgEmailRequired:   "L'email est requis.",
	MsgEmailInvalid:    "Format d'email invalide.",
	MsgSubjectRequired: "Le sujet est requis.",
	MsgSubjectTooLong:  "Le sujet ne peut pas dépasser {max} caractères.",
	MsgMessageRequired: "Le message est requis.",
	MsgMessageTooLong:  "Le message ne peut pas dépasser {max} caractères.",
	MsgPrivacyRequired: "Vous devez accepter la politique de confidentialité.",
	MsgRateLimited:     "Veuillez patienter {seconds} secondes avant d'envoyer un autre message.",
	MsgSendFailed:      "Une erreur est survenue. Veuillez réessayer.",
}

// DefaultMessages returns a copy of the French messages shown by the
// contact page.
func DefaultMessages() Messages {
	m := make(Messages, len(defaultFrenchMessages))
	for k, v := range defaultFrenchMessages {
		m[k] = v
	}
	return m
}

// Get returns the message for key with placeholders filled in. Unknown keys
// fall back to the default French text, then to the key itself.
func (m Messages) Get(key string, params map[string]int) string {
	msg, ok := m[key]
	if !ok {
		if msg, ok = defaultFrenchMessages[key]; !ok {
			return key
		}
	}
	for name, v := range params {
		msg = strings.ReplaceAll(msg, "{"+name+"}", strconv.Itoa(v))
	}
	return msg
}

func (m Messages) withDefaults() Messages {
	out := DefaultMessages()
	for k, v := range m {
		out[k] = v
	}
	return out
}

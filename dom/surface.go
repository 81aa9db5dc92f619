//go:build js && wasm

// Package dom binds the form guard to a live browser document through
// syscall/js. It is only built for js/wasm.
package dom

import (
	"syscall/js"

	"github.com/dalemusser/formguard/guard"
)

// Surface implements guard.Surface over one <form> element.
type Surface struct {
	doc  js.Value
	form js.Value
}

var _ guard.Surface = (*Surface)(nil)

// NewSurface wraps form. doc is the owning document.
func NewSurface(doc, form js.Value) *Surface {
	return &Surface{doc: doc, form: form}
}

func present(v js.Value) bool {
	return !v.IsNull() && !v.IsUndefined()
}

func (s *Surface) byID(id string) js.Value {
	return s.doc.Call("getElementById", id)
}

// Action returns the resolved action URL of the form.
func (s *Surface) Action() string {
	if a := s.form.Get("action"); a.Type() == js.TypeString {
		return a.String()
	}
	// A control named "action" shadows the property.
	return s.form.Call("getAttribute", "action").String()
}

func (s *Surface) Value(id string) string {
	el := s.byID(id)
	if !present(el) {
		return ""
	}
	return el.Get("value").String()
}

func (s *Surface) SetValue(id, value string) {
	if el := s.byID(id); present(el) {
		el.Set("value", value)
	}
}

func (s *Surface) Checked(id string) bool {
	el := s.byID(id)
	return present(el) && el.Get("checked").Truthy()
}

func (s *Surface) honeypot() js.Value {
	return s.form.Call("querySelector", `input[name="`+guard.FieldHoney+`"]`)
}

func (s *Surface) Honeypot() (string, bool) {
	el := s.honeypot()
	if !present(el) {
		return "", false
	}
	return el.Get("value").String(), true
}

// InjectHoneypot appends a text input placed off screen, out of the tab
// order and without autocomplete, so people never fill it.
func (s *Surface) InjectHoneypot() {
	in := s.doc.Call("createElement", "input")
	in.Set("type", "text")
	in.Set("name", guard.FieldHoney)
	style := in.Get("style")
	style.Set("position", "absolute")
	style.Set("left", "-9999px")
	in.Set("tabIndex", -1)
	in.Set("autocomplete", "off")
	s.form.Call("appendChild", in)
}

// Entries reads the form through FormData, in document order.
func (s *Surface) Entries() []guard.Entry {
	fd := js.Global().Get("FormData").New(s.form)
	var out []guard.Entry
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		// forEach passes (value, key).
		if len(args) < 2 {
			return nil
		}
		v := args[0]
		val := ""
		if v.Type() == js.TypeString {
			val = v.String()
		} else if present(v) {
			val = v.Get("name").String()
		}
		out = append(out, guard.Entry{Name: args[1].String(), Value: val})
		return nil
	})
	defer cb.Release()
	fd.Call("forEach", cb)
	return out
}

func (s *Surface) ShowError(id, msg string) {
	el := s.byID(id)
	if !present(el) {
		return
	}
	el.Set("textContent", msg)
	el.Get("style").Set("display", "block")
}

func (s *Surface) ClearErrors() {
	nodes := s.doc.Call("querySelectorAll", "."+guard.ErrorClass)
	for i := 0; i < nodes.Length(); i++ {
		el := nodes.Index(i)
		el.Get("style").Set("display", "none")
		el.Set("textContent", "")
	}
	s.HideRateLimit()
}

func (s *Surface) ShowRateLimit(msg string) {
	el := s.byID(guard.RateLimitNode)
	if !present(el) {
		return
	}
	el.Set("textContent", msg)
	el.Get("style").Set("display", "block")
}

func (s *Surface) HideRateLimit() {
	if el := s.byID(guard.RateLimitNode); present(el) {
		el.Get("style").Set("display", "none")
	}
}

func (s *Surface) submitButton() js.Value {
	return s.form.Call("querySelector", `button[type="submit"]`)
}

func (s *Surface) DisableSubmit(label string) {
	if btn := s.submitButton(); present(btn) {
		btn.Set("disabled", true)
		btn.Set("textContent", label)
	}
}

func (s *Surface) EnableSubmit(label string) {
	if btn := s.submitButton(); present(btn) {
		btn.Set("disabled", false)
		btn.Set("textContent", label)
	}
}

func (s *Surface) Alert(msg string) {
	js.Global().Call("alert", msg)
}

func (s *Surface) Navigate(url string) {
	js.Global().Get("location").Set("href", url)
}

package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/formguard/guard"
	"github.com/google/go-cmp/cmp"
)

var sample = []guard.Entry{
	{Name: "name", Value: "Jean Dupont"},
	{Name: "message", Value: "a &amp; b"},
	{Name: "_next", Value: "https://example.com/merci.html?x=1&y=2"},
	{Name: "tag", Value: "un"},
	{Name: "tag", Value: "deux"},
}

func TestSend_URLEncoded(t *testing.T) {
	var gotBody, gotType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(WithURLEncoded()).Send(context.Background(), srv.URL+"/contact@example.com", sample); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q", gotMethod)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotType)
	}
	want := "name=Jean+Dupont&message=a+%26amp%3B+b&_next=https%3A%2F%2Fexample.com%2Fmerci.html%3Fx%3D1%26y%3D2&tag=un&tag=deux"
	if gotBody != want {
		t.Errorf("body = %q\nwant   %q", gotBody, want)
	}
}

func TestSend_Multipart(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
	}{
		{"default", New()},
		{"explicit", New(WithMultipart())},
		{"last option wins", New(WithURLEncoded(), WithMultipart())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := postMultipart(t, tt.client)
			if diff := cmp.Diff(sample, got); diff != "" {
				t.Errorf("parts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func postMultipart(t *testing.T, client *Client) []guard.Entry {
	t.Helper()
	var got []guard.Entry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		mr, err := r.MultipartReader()
		if err != nil {
			t.Errorf("MultipartReader: %v", err)
			return
		}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("NextPart: %v", err)
				return
			}
			b, _ := io.ReadAll(p)
			got = append(got, guard.Entry{Name: p.FormName(), Value: string(b)})
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := client.Send(context.Background(), srv.URL, sample); err != nil {
		t.Fatalf("Send: %v", err)
	}
	return got
}

func TestSend_Statuses(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusCreated, false},
		{http.StatusNoContent, false},
		{http.StatusMovedPermanently, true},
		{http.StatusBadRequest, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tt.status >= 300 && tt.status < 400 {
				w.Header().Set("Location", "/elsewhere")
			}
			w.WriteHeader(tt.status)
		}))

		client := New(WithHTTPClient(&http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		}))
		err := client.Send(context.Background(), srv.URL, sample)
		srv.Close()

		if (err != nil) != tt.wantErr {
			t.Errorf("status %d: err = %v, wantErr %v", tt.status, err, tt.wantErr)
			continue
		}
		if err == nil {
			continue
		}
		var se *StatusError
		if !errors.As(err, &se) {
			t.Errorf("status %d: error %T is not *StatusError", tt.status, err)
			continue
		}
		if se.StatusCode != tt.status {
			t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
		}
	}
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New().Send(context.Background(), url, sample)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("transport error reported as status error: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "relay: post ") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := New(WithTimeout(50*time.Millisecond)).Send(context.Background(), srv.URL, sample)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSend_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Send(ctx, srv.URL, sample); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSend_InvalidAction(t *testing.T) {
	if err := New().Send(context.Background(), "  ", sample); err == nil {
		t.Error("expected error for empty action")
	}
}

func TestSend_ExtraHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Accept")
	}))
	defer srv.Close()

	if err := New(WithHeader("Accept", "application/json")).Send(context.Background(), srv.URL, nil); err != nil {
		t.Fatal(err)
	}
	if got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
}

func TestClient_ImplementsGuardSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var s guard.Sender = New()
	err := s.Send(context.Background(), srv.URL, sample)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("err = %v", err)
	}
}

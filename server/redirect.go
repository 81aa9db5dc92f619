// server/redirect.go
package server

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// httpRedirectHandler sends every request to the same host and path over
// HTTPS. Hosts and request targets that could inject headers get 400.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func hasControlChars(s string) bool {
	for _, c := range s {
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost accepts host, host:port and bracketed IPv6 forms.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		n, perr := strconv.Atoi(port)
		if perr != nil || n <= 0 || n > 65535 {
			return false
		}
		hostPart = h
		if strings.Contains(hostPart, ":") {
			// SplitHostPort strips the brackets of an IPv6 literal.
			hostPart = "[" + hostPart + "]"
		}
	}
	if hostPart == "" || hasControlChars(hostPart) || strings.ContainsAny(hostPart, " /\\@") {
		return false
	}

	if strings.HasPrefix(hostPart, "[") {
		if !strings.HasSuffix(hostPart, "]") || len(hostPart) < 3 {
			return false
		}
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		return net.ParseIP(ip) != nil
	}
	return true
}

// permissionError marks a key file readable by group or others. Callers
// treat it as a warning outside prod.
type permissionError struct {
	path string
	mode os.FileMode
}

func (e *permissionError) Error() string {
	return fmt.Sprintf("TLS key file %s has overly permissive permissions %o (recommended: 0600)", e.path, e.mode)
}

// validateTLSFiles checks that both files exist and are regular files, and
// that the key is not group or world accessible.
func validateTLSFiles(certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return fmt.Errorf("manual TLS selected but cert_file / key_file not provided")
	}
	if _, err := statFile("certificate", certFile); err != nil {
		return err
	}
	keyInfo, err := statFile("key", keyFile)
	if err != nil {
		return err
	}
	if runtime.GOOS != "windows" && keyInfo.Mode().Perm()&0o077 != 0 {
		return &permissionError{path: keyFile, mode: keyInfo.Mode().Perm()}
	}
	return nil
}

func statFile(kind, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS %s file does not exist: %s", kind, path)
		}
		return nil, fmt.Errorf("cannot access TLS %s file %s: %w", kind, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("TLS %s path is a directory, not a file: %s", kind, path)
	}
	return info, nil
}

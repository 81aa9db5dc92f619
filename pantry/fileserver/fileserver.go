// pantry/fileserver/fileserver.go

// Package fileserver serves a directory of build artifacts, preferring
// pre-compressed .br or .gz siblings when the client accepts them. The site
// uses it for the wasm bundle, which is too large to compress per request.
package fileserver

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// Options configures Handler.
type Options struct {
	// CacheControl is set on every successful response when non-empty.
	CacheControl string

	// DisablePrecompressed skips the .br/.gz lookup.
	DisablePrecompressed bool

	// OnServe, when set, is called after a file is chosen with its name and
	// the content encoding used ("br", "gzip" or "identity").
	OnServe func(name, encoding string)
}

var variants = []struct {
	ext      string
	encoding string
}{
	{".br", "br"},
	{".gz", "gzip"},
}

// Handler serves files from fsys under urlPrefix. A request for
// "/wasm/formguard.wasm" with "Accept-Encoding: br" is answered with
// formguard.wasm.br and "Content-Encoding: br" when that file exists.
//
//	r.Handle("/wasm/*", fileserver.Handler("/wasm", os.DirFS("dist"), fileserver.Options{}))
func Handler(urlPrefix string, fsys fs.FS, opts Options) http.Handler {
	hfs := http.FS(fsys)
	plain := http.FileServer(hfs)

	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if !opts.DisablePrecompressed {
			w.Header().Add("Vary", "Accept-Encoding")
			for _, v := range variants {
				if !AcceptsEncoding(r, v.encoding) {
					continue
				}
				if serveVariant(w, r, hfs, name, v.ext, v.encoding, opts) {
					return
				}
			}
		}

		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}
		if opts.OnServe != nil && Exists(fsys, name) {
			opts.OnServe(name, "identity")
		}
		plain.ServeHTTP(w, r)
	}))
}

func serveVariant(w http.ResponseWriter, r *http.Request, hfs http.FileSystem, name, ext, encoding string, opts Options) bool {
	f, err := hfs.Open("/" + name + ext)
	if err != nil {
		return false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}

	h := w.Header()
	h.Set("Content-Encoding", encoding)
	h.Set("Content-Type", ContentType(name))
	if opts.CacheControl != "" {
		h.Set("Cache-Control", opts.CacheControl)
	}
	if opts.OnServe != nil {
		opts.OnServe(name, encoding)
	}
	http.ServeContent(w, r, name, fi.ModTime(), f)
	return true
}

// Exists reports whether name is a regular file in fsys.
func Exists(fsys fs.FS, name string) bool {
	fi, err := fs.Stat(fsys, name)
	return err == nil && !fi.IsDir()
}

// AcceptsEncoding reports whether the Accept-Encoding header lists encoding
// with a non-zero quality.
func AcceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(enc), encoding) {
			continue
		}
		q := strings.TrimSpace(params)
		if v, ok := strings.CutPrefix(q, "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// ContentType returns the MIME type for name, ignoring any .br/.gz suffix.
func ContentType(name string) string {
	base := name
	for strings.HasSuffix(base, ".br") || strings.HasSuffix(base, ".gz") {
		base = strings.TrimSuffix(strings.TrimSuffix(base, ".br"), ".gz")
	}
	ext := strings.ToLower(path.Ext(base))
	switch ext {
	case ".wasm":
		return "application/wasm"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

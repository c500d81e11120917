package intercept

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RequestInfo carries the details of the inbound request a call serves.
// It is attached to breaker-rejection records.
type RequestInfo struct {
	URL      string
	Method   string
	ClientIP string
	Params   map[string]string
	Headers  map[string]string
}

type requestKey struct{}

// WithRequestInfo returns a context carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey{}, info)
}

// RequestInfoFromContext returns the request details attached to ctx.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestKey{}).(RequestInfo)
	return info, ok
}

// RequestInfoFrom extracts details from r. Headers whose name contains
// "authorization" or "cookie" are dropped.
func RequestInfoFrom(r *http.Request) RequestInfo {
	info := RequestInfo{
		URL:      requestURL(r),
		Method:   r.Method,
		ClientIP: clientIP(r.RemoteAddr),
		Headers:  FilterHeaders(r.Header),
	}
	if q := r.URL.Query(); len(q) > 0 {
		info.Params = make(map[string]string, len(q))
		for k, v := range q {
			info.Params[k] = strings.Join(v, ", ")
		}
	}
	return info
}

// FilterHeaders flattens h, dropping credential-bearing headers.
func FilterHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie") {
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// Middleware attaches RequestInfo for every request to its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestInfo(r.Context(), RequestInfoFrom(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	u := *r.URL
	u.RawQuery = ""
	u.Fragment = ""
	if !u.IsAbs() {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
		u.Host = r.Host
	}
	return u.String()
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

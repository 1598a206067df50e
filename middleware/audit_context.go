package middleware

import (
	"net"
	"net/http"

	goOnboard "github.com/MrEthical07/goOnboard"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AuditContext stamps the chi request ID and the client IP onto the request
// context. Mount it after chi's RequestID and RealIP middleware.
func AuditContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := chimw.GetReqID(ctx); id != "" {
			ctx = goOnboard.WithRequestID(ctx, id)
		}
		if ip := clientIP(r.RemoteAddr); ip != "" {
			ctx = goOnboard.WithClientIP(ctx, ip)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

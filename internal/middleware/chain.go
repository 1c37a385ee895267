package middleware

import "net/http"

// Chain wraps h so the middleware run in the order given:
//
//	handler := Chain(router,
//	    Config(cfg),       // runs first
//	    SecurityHeaders,   // sees the config set above
//	    AuthMiddleware(...),
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

package i18n

import "net/http"

// Middleware puts a request-scoped localizer in the context. The
// Accept-Language header wins over the configured default.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLang
			if al := r.Header.Get("Accept-Language"); al != "" {
				lang = al
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package middlewarectx содержит HTTP middleware административного REST API:
// проверку общего секрета и ограничение частоты запросов.
//
// APIKeyMiddleware сравнивает секрет из заголовка X-API-Key (или параметра
// запроса api_key) с настроенным значением. При несовпадении возвращается
// единообразный HTTP 401 без уточнения причины.
package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
)

// APIKeyHeader — заголовок с общим секретом REST API.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware возвращает HTTP middleware, который пропускает запрос
// только при совпадении общего секрета. Проверка выполняется до любых
// побочных эффектов обработчика.
func APIKeyMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.APIKeyMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				got = r.URL.Query().Get("api_key")
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				log.Error("invalid api key")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid api key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/prefs/internal/setting"
	"github.com/kalambet/prefs/internal/store"
)

const maxValueBodySize = 1 << 20 // 1MB

// Deps holds the handler's collaborators.
type Deps struct {
	Store  store.Store
	Codec  setting.Codec // JSON when nil
	Token  string
	Logger *slog.Logger // slog.Default() when nil
}

// SettingResponse is the body of GET /settings/{key}.
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// NewHandler serves the settings in deps.Store over HTTP. Values are
// exchanged as JSON and persisted with deps.Codec.
func NewHandler(deps Deps) http.Handler {
	if deps.Codec == nil {
		deps.Codec = setting.JSON
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Get("/settings", handleListSettings(deps))
		r.Get("/settings/{key}", handleGetSetting(deps))
		r.Put("/settings/{key}", handlePutSetting(deps))
		r.Delete("/settings/{key}", handleDeleteSetting(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleListSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := deps.Store.Keys()
		if err != nil {
			deps.Logger.Error("listing settings", "error", err)
			httpError(w, http.StatusInternalServerError, "store_error", "listing settings: %v", err)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
	}
}

// bindSetting resolves the {key} URL parameter into a setting over the
// store. The value type is an Optional so that null maps to removal.
func bindSetting(deps Deps, w http.ResponseWriter, r *http.Request) (*setting.Setting[setting.Optional[any]], bool) {
	// chi matches on RawPath when the request carries one (e.g. an escaped
	// slash) and on the already decoded Path otherwise.
	key := chi.URLParam(r, "key")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(key)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid key: %v", err)
			return nil, false
		}
		key = unescaped
	}
	s, err := setting.New(key, setting.None[any](), deps.Store,
		setting.WithCodec(deps.Codec),
		setting.WithLogger(deps.Logger),
	)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return nil, false
	}
	return s, true
}

func handleGetSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := bindSetting(deps, w, r)
		if !ok {
			return
		}
		if !s.IsSet() {
			httpError(w, http.StatusNotFound, "not_found", "setting %q not found", s.Key())
			return
		}
		// Undecodable entries come back as the default, i.e. null.
		v, _ := s.Get().Get()
		writeJSON(w, http.StatusOK, SettingResponse{Key: s.Key(), Value: v})
	}
}

func handlePutSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := bindSetting(deps, w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxValueBodySize)
		defer r.Body.Close()

		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body too large")
				return
			}
			if errors.Is(err, io.EOF) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "request body is required")
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		raw, ok := body["value"]
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "value is required (use null to remove)")
			return
		}

		var v setting.Optional[any]
		if err := json.Unmarshal(raw, &v); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid value: %v", err)
			return
		}

		if err := s.Save(v); err != nil {
			deps.Logger.Error("saving setting", "key", s.Key(), "error", err)
			httpError(w, http.StatusInternalServerError, "store_error", "saving %s: %v", s.Key(), err)
			return
		}

		status := "updated"
		if v.IsNone() {
			status = "removed"
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": s.Key(), "status": status})
	}
}

func handleDeleteSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := bindSetting(deps, w, r)
		if !ok {
			return
		}
		if err := s.Save(setting.None[any]()); err != nil {
			deps.Logger.Error("removing setting", "key", s.Key(), "error", err)
			httpError(w, http.StatusInternalServerError, "store_error", "removing %s: %v", s.Key(), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": s.Key(), "status": "removed"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/lang"
	"censorship/pkg/models"
	"censorship/pkg/storage"
)

const maxBodyBytes = 1 << 20

type API struct {
	ServiceName string

	r      *mux.Router
	censor *censor.Censor
	db     storage.Storage
	kw     *kafka.Writer
}

func New(name string, c *censor.Censor, db storage.Storage, kafkaWriter *kafka.Writer) *API {
	api := API{
		ServiceName: name,
		r:           mux.NewRouter(),
		censor:      c,
		db:          db,
		kw:          kafkaWriter,
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	api.r.HandleFunc("/check", api.checkTextHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/comments/check", api.checkCommentHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/languages", api.languagesHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/languages/{language}/words", api.addWordsHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/cache", api.clearCacheHandler).Methods(http.MethodDelete)
}

func (api *API) checkTextHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req CheckRequest
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[checkTextHandler][%s] failed to decode request body: %v", sID, err)
		return
	}

	var text string
	if req.Text != nil {
		text = *req.Text
	}

	res, err := api.censor.Check(r.Context(), req.Language, text)
	if err != nil {
		api.writeError(w, "checkTextHandler", sID, err)
		return
	}

	writeJSON(w, http.StatusOK, res, "checkTextHandler", sID)
	log.Debugf("[checkTextHandler][%s] %d profanities found", sID, res.ProfanitiesCount())
}

// checkCommentHandler answers 200 for a clean comment and 422 with the
// check result for a profane one.
func (api *API) checkCommentHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var comment models.Comment
	if err := decode(w, r, &comment); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[checkCommentHandler][%s] failed to decode request body: %v", sID, err)
		return
	}

	res, err := api.censor.Check(r.Context(), comment.Language, comment.Text)
	if err != nil {
		api.writeError(w, "checkCommentHandler", sID, err)
		return
	}

	if res.HasProfanity() {
		writeJSON(w, http.StatusUnprocessableEntity, res, "checkCommentHandler", sID)
		log.Infof("[checkCommentHandler][%s] comment %v rejected: %v", sID, comment.ID, res.UniqueProfanitiesFound())
		return
	}

	w.WriteHeader(http.StatusOK)
	log.Debugf("[checkCommentHandler][%s] comment %v accepted", sID, comment.ID)
}

func (api *API) languagesHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	langs, err := api.db.Languages(r.Context())
	if err != nil {
		api.writeError(w, "languagesHandler", sID, err)
		return
	}

	def := api.censor.DefaultLanguage()
	if def == "" && len(langs) > 0 {
		def = langs[0]
	}

	writeJSON(w, http.StatusOK, LanguagesResponse{Languages: langs, Default: def}, "languagesHandler", sID)
}

// addWordsHandler stores new words and drops the compiled checker of the
// language so the next check sees them.
func (api *API) addWordsHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	language := mux.Vars(r)["language"]

	var req AddWordsRequest
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[addWordsHandler][%s] failed to decode request body: %v", sID, err)
		return
	}

	if err := api.db.AddWords(r.Context(), language, req.Kind, req.Words); err != nil {
		api.writeError(w, "addWordsHandler", sID, err)
		return
	}
	api.censor.Invalidate(language)

	w.WriteHeader(http.StatusNoContent)
	log.Infof("[addWordsHandler][%s] %d %s words added to %s", sID, len(req.Words), req.Kind, language)
}

func (api *API) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	if err := api.censor.Clear(r.Context()); err != nil {
		api.writeError(w, "clearCacheHandler", sID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	log.Infof("[clearCacheHandler][%s] pattern cache cleared", sID)
}

func (api *API) writeError(w http.ResponseWriter, handler, sID string, err error) {
	switch {
	case errors.Is(err, lang.ErrUnsupportedLanguage):
		http.Error(w, "Unsupported language", http.StatusBadRequest)
		log.Debugf("[%s][%s] %v", handler, sID, err)
	case errors.Is(err, storage.ErrInvalidWordKind),
		errors.Is(err, storage.ErrInvalidWord),
		errors.Is(err, storage.ErrNoWords):
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Debugf("[%s][%s] %v", handler, sID, err)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[%s][%s] %v", handler, sID, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any, handler, sID string) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[%s][%s] failed to encode response data: %v", handler, sID, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}

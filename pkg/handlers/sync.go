package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/middleware"
	"github.com/seqcat-bio/seqcat-engine/pkg/repositories"
	"github.com/seqcat-bio/seqcat-engine/pkg/services"
)

// SyncHandler exposes portal synchronization over HTTP.
type SyncHandler struct {
	sync    services.PortalSyncService
	studies repositories.StudyRepository
	logger  *zap.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(sync services.PortalSyncService, studies repositories.StudyRepository, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, studies: studies, logger: logger}
}

// RegisterRoutes registers the sync handler's routes on the given mux.
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/studies/{accession}", h.GetStudy)
	mux.HandleFunc("POST /api/studies/{accession}/sync", h.SyncStudy)
	mux.HandleFunc("POST /api/studies/{accession}/sync/read-runs", h.SyncReadRuns)
	mux.HandleFunc("POST /api/studies/{accession}/sync/assemblies", h.SyncAssemblies)
}

// GetStudy handles GET /api/studies/{accession}.
// The accession may be the catalogue accession or any archive accession
// in the study's set.
func (h *SyncHandler) GetStudy(w http.ResponseWriter, r *http.Request) {
	acc := r.PathValue("accession")

	study, err := h.studies.GetByAccession(r.Context(), acc)
	if err != nil {
		h.writeError(w, acc, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, study); err != nil {
		h.logger.Error("Failed to encode study response", zap.Error(err))
	}
}

// SyncStudy handles POST /api/studies/{accession}/sync.
func (h *SyncHandler) SyncStudy(w http.ResponseWriter, r *http.Request) {
	acc := r.PathValue("accession")
	logger := h.syncLogger(r, acc)

	study, err := h.sync.FetchStudy(r.Context(), acc)
	if err != nil {
		logger.Warn("Study sync failed", zap.Error(err))
		h.writeError(w, acc, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, study); err != nil {
		logger.Error("Failed to encode study response", zap.Error(err))
	}
}

// SyncReadRuns handles POST /api/studies/{accession}/sync/read-runs.
// An optional library_strategy query parameter narrows the sync.
func (h *SyncHandler) SyncReadRuns(w http.ResponseWriter, r *http.Request) {
	acc := r.PathValue("accession")
	logger := h.syncLogger(r, acc)

	filter := services.ReadRunFilter{
		LibraryStrategy: r.URL.Query().Get("library_strategy"),
	}
	report, err := h.sync.FetchStudyReadRuns(r.Context(), acc, filter)
	if err != nil {
		logger.Warn("Read run sync failed", zap.Error(err))
		h.writeError(w, acc, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		logger.Error("Failed to encode sync report", zap.Error(err))
	}
}

// SyncAssemblies handles POST /api/studies/{accession}/sync/assemblies.
func (h *SyncHandler) SyncAssemblies(w http.ResponseWriter, r *http.Request) {
	acc := r.PathValue("accession")
	logger := h.syncLogger(r, acc)

	report, err := h.sync.FetchStudyAssemblies(r.Context(), acc)
	if err != nil {
		logger.Warn("Assembly sync failed", zap.Error(err))
		h.writeError(w, acc, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		logger.Error("Failed to encode sync report", zap.Error(err))
	}
}

// syncLogger tags every log line of one sync invocation with an id so
// interleaved syncs can be told apart. The request id from the logging
// middleware is reused when present, tying portal activity back to the
// HTTP request that triggered it.
func (h *SyncHandler) syncLogger(r *http.Request, acc string) *zap.Logger {
	id := middleware.RequestID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	return h.logger.With(
		zap.String("sync_id", id),
		zap.String("accession", acc))
}

func (h *SyncHandler) writeError(w http.ResponseWriter, acc string, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "study "+acc+" not found")
		return
	}
	if status, _ := StatusForError(err); status == http.StatusInternalServerError {
		h.logger.Error("Unhandled sync error", zap.Error(err))
	}
	_ = WriteError(w, err)
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kpauljoseph/md2anki/internal/export"
	"github.com/kpauljoseph/md2anki/pkg/models"
)

// handleExport accepts a generation payload and responds with the .apkg
// archive as a download. The archive is buffered in full before any byte is
// sent so a failed build never produces a partial response; clients see only
// success or a generic failure.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var gen models.Generation
	if err := json.NewDecoder(r.Body).Decode(&gen); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	var buf bytes.Buffer
	if err := s.builder.Export(gen, nil, &buf); err != nil {
		s.log.Info("Error creating Anki package: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody("package creation failed"))
		return
	}

	filename := export.Filename(gen.DeckName)
	s.log.Debug("Serving package %s (%d bytes)", filename, buf.Len())

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Info("Error writing response: %v", err)
	}
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

type reorderColumnsRequest struct {
	ColumnIDsInOrder []uuid.UUID `json:"columnIdsInOrder"`
}

func (h *Handler) listColumns(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	columns, err := h.Service.ListColumns(ctx, boardID, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, columns)
}

func (h *Handler) createColumn(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	col, err := h.Service.CreateColumn(ctx, boardID, userID, req.Name)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, col)
}

func (h *Handler) reorderColumns(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	var req reorderColumnsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.ReorderColumns(ctx, boardID, userID, req.ColumnIDsInOrder); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renameColumn(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.RenameColumn(ctx, columnID, userID, req.Name); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteColumn(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}

	if err := h.Service.DeleteColumn(ctx, columnID, userID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

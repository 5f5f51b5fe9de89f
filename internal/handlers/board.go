package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) listBoards(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()

	boards, err := h.Service.ListBoards(ctx, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, boards)
}

func (h *Handler) createBoard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	board, err := h.Service.CreateBoard(ctx, userID, req.Name)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/kanban/boards/"+board.ID.String())
	sendJSON(w, http.StatusOK, board)
}

func (h *Handler) getBoard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	board, err := h.Service.GetBoard(ctx, boardID, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, board)
}

func (h *Handler) renameBoard(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Service.RenameBoard(ctx, boardID, userID, req.Name); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBoard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	if err := h.Service.DeleteBoard(ctx, boardID, userID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- members ---

type addMemberRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type memberRoleRequest struct {
	Role models.Role `json:"role"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	members, err := h.Service.ListMembers(ctx, boardID, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, members)
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.Service.AddMember(ctx, boardID, userID, req.Email, req.Role)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, member)
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, target, ok := memberPath(w, r)
	if !ok {
		return
	}
	var req memberRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.UpdateMemberRole(ctx, boardID, userID, target, req.Role); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	boardID, target, ok := memberPath(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(ctx, boardID, userID, target); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func memberPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	target, ok := pathID(w, r, "userId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return boardID, target, true
}

package handlers

import (
	"net/http"

	"github.com/chepyr/go-kanban/internal/kanban"
	"github.com/google/uuid"
)

type createCardRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type reorderCardsRequest struct {
	ColumnID       uuid.UUID   `json:"columnId"`
	CardIDsInOrder []uuid.UUID `json:"cardIdsInOrder"`
}

type moveCardRequest struct {
	CardID       uuid.UUID `json:"cardId"`
	FromColumnID uuid.UUID `json:"fromColumnId"`
	ToColumnID   uuid.UUID `json:"toColumnId"`
	ToIndex      int       `json:"toIndex"`
}

type updateCardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) listCards(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}

	cards, err := h.Service.ListCards(ctx, columnID, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, cards)
}

func (h *Handler) createCard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	columnID, ok := pathID(w, r, "columnId")
	if !ok {
		return
	}
	var req createCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.Service.CreateCard(ctx, columnID, userID, req.Title, req.Description)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, card)
}

func (h *Handler) reorderCards(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	var req reorderCardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ColumnID == uuid.Nil {
		sendError(w, "columnId is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.ReorderCards(ctx, req.ColumnID, userID, req.CardIDsInOrder); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveCard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	var req moveCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CardID == uuid.Nil || req.FromColumnID == uuid.Nil || req.ToColumnID == uuid.Nil {
		sendError(w, "cardId, fromColumnId and toColumnId are required", http.StatusBadRequest)
		return
	}

	err := h.Service.MoveCard(ctx, userID, kanban.MoveRequest{
		CardID:       req.CardID,
		FromColumnID: req.FromColumnID,
		ToColumnID:   req.ToColumnID,
		ToIndex:      req.ToIndex,
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateCard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	var req updateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upd := kanban.CardUpdate{Title: req.Title, Description: req.Description}
	if _, err := h.Service.UpdateCard(ctx, cardID, userID, upd); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ctx, cancel, ok := caller(w, r)
	if !ok {
		return
	}
	defer cancel()
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}

	if err := h.Service.DeleteCard(ctx, cardID, userID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

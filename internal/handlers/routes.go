package handlers

import "net/http"

const apiPrefix = "/api/kanban"

// Routes returns the service's HTTP handler. Everything under /api/kanban
// requires a bearer token; /healthz does not.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(method, path string, fn http.HandlerFunc) {
		mux.HandleFunc(method+" "+apiPrefix+path, h.AuthMiddleware(fn))
	}

	handle("GET", "/boards", h.listBoards)
	handle("POST", "/boards", h.createBoard)
	handle("GET", "/boards/{boardId}", h.getBoard)
	handle("PUT", "/boards/{boardId}/rename", h.renameBoard)
	handle("DELETE", "/boards/{boardId}", h.deleteBoard)

	handle("GET", "/boards/{boardId}/members", h.listMembers)
	handle("POST", "/boards/{boardId}/members", h.addMember)
	handle("PUT", "/boards/{boardId}/members/{userId}", h.updateMember)
	handle("DELETE", "/boards/{boardId}/members/{userId}", h.removeMember)

	handle("GET", "/boards/{boardId}/columns", h.listColumns)
	handle("POST", "/boards/{boardId}/columns", h.createColumn)
	handle("POST", "/boards/{boardId}/columns/reorder", h.reorderColumns)
	handle("PUT", "/columns/{columnId}", h.renameColumn)
	handle("DELETE", "/columns/{columnId}", h.deleteColumn)

	handle("GET", "/columns/{columnId}/cards", h.listCards)
	handle("POST", "/columns/{columnId}/cards", h.createCard)
	handle("POST", "/cards/reorder", h.reorderCards)
	handle("POST", "/cards/move", h.moveCard)
	handle("PUT", "/cards/{cardId}", h.updateCard)
	handle("DELETE", "/cards/{cardId}", h.deleteCard)

	mux.HandleFunc("GET "+apiPrefix+"/ws", h.StreamAuthMiddleware(h.HandleWebSocket))
	mux.HandleFunc("GET /healthz", h.Healthz)

	return LoggingMiddleware(mux)
}

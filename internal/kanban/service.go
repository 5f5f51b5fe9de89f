// Package kanban implements board, column and card mutations. Every
// operation authorizes the caller through the board's membership rows and
// keeps sibling orders dense through the position package, inside a single
// transaction.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/internal/db"
	"github.com/chepyr/go-kanban/internal/events"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/chepyr/go-kanban/internal/position"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	store  *db.Store
	events events.Publisher
	log    *log.Entry
}

// NewService returns a service over store. Committed changes are sent to pub;
// a nil pub discards them.
func NewService(store *db.Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{
		store:  store,
		events: pub,
		log:    log.WithField("component", "kanban"),
	}
}

// mutate runs fn in a transaction and publishes the events it returns once
// the transaction has committed.
func (s *Service) mutate(ctx context.Context, op string, fn func(tx *db.Store) ([]events.Event, error)) error {
	var pending []events.Event
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		evs, err := fn(tx)
		if err != nil {
			return err
		}
		pending = evs
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("op", op).Debug("committed")
	for _, ev := range pending {
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.WithError(err).WithFields(log.Fields{
				"type":     ev.Type,
				"board_id": ev.BoardID,
			}).Warn("publish board event")
		}
	}
	return nil
}

// storeErr turns a repository miss into the domain's not-found error.
func storeErr(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return notFoundError(what)
	}
	return err
}

// hide reports a board-level not-found as the absence of the entity the
// caller asked for.
func hide(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return notFoundError(what)
	}
	return err
}

// --- boards ---

// ListBoards returns the boards caller is a member of, with caller's role.
func (s *Service) ListBoards(ctx context.Context, caller uuid.UUID) ([]models.BoardSummary, error) {
	boards, err := s.store.Boards.ListForUser(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *Service) GetBoard(ctx context.Context, boardID, caller uuid.UUID) (*models.BoardSummary, error) {
	var out *models.BoardSummary
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		role, err := requireMember(ctx, tx.Members, boardID, caller)
		if err != nil {
			return err
		}
		board, err := tx.Boards.GetByID(ctx, boardID)
		if err != nil {
			return storeErr(err, "board")
		}
		out = &models.BoardSummary{Board: *board, Role: role}
		return nil
	})
	return out, err
}

// CreateBoard creates a board owned by owner together with the owner's
// membership and the default columns.
func (s *Service) CreateBoard(ctx context.Context, owner uuid.UUID, name string) (*models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	board := &models.Board{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
	}
	err := s.mutate(ctx, "create board", func(tx *db.Store) ([]events.Event, error) {
		if err := tx.Boards.Create(ctx, board); err != nil {
			return nil, fmt.Errorf("insert board: %w", err)
		}
		ownership := models.Membership{BoardID: board.ID, UserID: owner, Role: models.RoleOwner}
		if err := tx.Members.Add(ctx, ownership); err != nil {
			return nil, fmt.Errorf("insert owner membership: %w", err)
		}
		for i, colName := range models.DefaultColumns {
			col := &models.Column{ID: uuid.New(), BoardID: board.ID, Name: colName, Order: i}
			if err := tx.Columns.Create(ctx, col); err != nil {
				return nil, fmt.Errorf("insert column %q: %w", colName, err)
			}
		}
		return []events.Event{events.New(events.BoardCreated, board.ID, board.OwnerID, board)}, nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// RenameBoard is owner only. A blank name leaves the board unchanged.
func (s *Service) RenameBoard(ctx context.Context, boardID, caller uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, "rename board", func(tx *db.Store) ([]events.Event, error) {
		if _, err := requireOwner(ctx, tx.Members, boardID, caller); err != nil {
			return nil, err
		}
		if _, err := tx.Boards.GetByID(ctx, boardID); err != nil {
			return nil, storeErr(err, "board")
		}
		if name == "" {
			return nil, nil
		}
		if err := tx.Boards.Rename(ctx, boardID, name); err != nil {
			return nil, storeErr(err, "board")
		}
		return []events.Event{events.New(events.BoardRenamed, boardID, caller, map[string]string{"name": name})}, nil
	})
}

// DeleteBoard is owner only and removes every column, card and membership
// of the board.
func (s *Service) DeleteBoard(ctx context.Context, boardID, caller uuid.UUID) error {
	return s.mutate(ctx, "delete board", func(tx *db.Store) ([]events.Event, error) {
		if _, err := requireOwner(ctx, tx.Members, boardID, caller); err != nil {
			return nil, err
		}
		if err := tx.Boards.Lock(ctx, boardID); err != nil {
			return nil, storeErr(err, "board")
		}
		if err := tx.Boards.Delete(ctx, boardID); err != nil {
			return nil, storeErr(err, "board")
		}
		return []events.Event{events.New(events.BoardDeleted, boardID, caller, nil)}, nil
	})
}

// --- columns ---

func (s *Service) ListColumns(ctx context.Context, boardID, caller uuid.UUID) ([]models.Column, error) {
	var columns []models.Column
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		if _, err := requireMember(ctx, tx.Members, boardID, caller); err != nil {
			return err
		}
		var err error
		columns, err = tx.Columns.ListByBoard(ctx, boardID)
		return err
	})
	return columns, err
}

func (s *Service) CreateColumn(ctx context.Context, boardID, caller uuid.UUID, name string) (*models.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	col := &models.Column{ID: uuid.New(), BoardID: boardID, Name: name}
	err := s.mutate(ctx, "create column", func(tx *db.Store) ([]events.Event, error) {
		if _, err := requireEditor(ctx, tx.Members, boardID, caller); err != nil {
			return nil, err
		}
		order, err := position.Append(ctx, tx.Columns.Group(), boardID)
		if err != nil {
			return nil, storeErr(err, "board")
		}
		col.Order = order
		if err := tx.Columns.Create(ctx, col); err != nil {
			return nil, fmt.Errorf("insert column: %w", err)
		}
		return []events.Event{events.New(events.ColumnCreated, boardID, caller, col)}, nil
	})
	if err != nil {
		return nil, err
	}
	return col, nil
}

// RenameColumn changes a column's name. A blank name is a no-op.
func (s *Service) RenameColumn(ctx context.Context, columnID, caller uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, "rename column", func(tx *db.Store) ([]events.Event, error) {
		col, err := editableColumn(ctx, tx, columnID, caller)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, nil
		}
		if err := tx.Columns.Rename(ctx, columnID, name); err != nil {
			return nil, storeErr(err, "column")
		}
		col.Name = name
		return []events.Event{events.New(events.ColumnRenamed, col.BoardID, caller, col)}, nil
	})
}

// DeleteColumn removes the column with its cards and closes the gap it
// leaves among the board's columns.
func (s *Service) DeleteColumn(ctx context.Context, columnID, caller uuid.UUID) error {
	return s.mutate(ctx, "delete column", func(tx *db.Store) ([]events.Event, error) {
		col, err := editableColumn(ctx, tx, columnID, caller)
		if err != nil {
			return nil, err
		}
		if err := tx.Boards.Lock(ctx, col.BoardID); err != nil {
			return nil, storeErr(err, "column")
		}
		if err := tx.Columns.Delete(ctx, columnID); err != nil {
			return nil, storeErr(err, "column")
		}
		if err := position.CompactGroup(ctx, tx.Columns.Group(), col.BoardID); err != nil {
			return nil, err
		}
		return []events.Event{events.New(events.ColumnDeleted, col.BoardID, caller, map[string]uuid.UUID{"id": columnID})}, nil
	})
}

// ReorderColumns puts the board's columns in the order of ids. Columns not
// listed keep their relative order after the listed ones.
func (s *Service) ReorderColumns(ctx context.Context, boardID, caller uuid.UUID, ids []uuid.UUID) error {
	return s.mutate(ctx, "reorder columns", func(tx *db.Store) ([]events.Event, error) {
		if _, err := requireEditor(ctx, tx.Members, boardID, caller); err != nil {
			return nil, err
		}
		if err := position.ReorderGroup(ctx, tx.Columns.Group(), boardID, ids); err != nil {
			return nil, storeErr(err, "board")
		}
		columns, err := tx.Columns.ListByBoard(ctx, boardID)
		if err != nil {
			return nil, err
		}
		return []events.Event{events.New(events.ColumnsReordered, boardID, caller, columns)}, nil
	})
}

// editableColumn loads a column and checks that caller may edit its board.
func editableColumn(ctx context.Context, tx *db.Store, columnID, caller uuid.UUID) (*models.Column, error) {
	col, err := tx.Columns.GetByID(ctx, columnID)
	if err != nil {
		return nil, storeErr(err, "column")
	}
	if _, err := requireEditor(ctx, tx.Members, col.BoardID, caller); err != nil {
		return nil, hide(err, "column")
	}
	return col, nil
}

// --- cards ---

// ListCards returns a column's cards in order. A missing column and a column
// on a board caller is not a member of look the same.
func (s *Service) ListCards(ctx context.Context, columnID, caller uuid.UUID) ([]models.Card, error) {
	var cards []models.Card
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		col, err := tx.Columns.GetByID(ctx, columnID)
		if err != nil {
			return storeErr(err, "column")
		}
		if _, err := requireMember(ctx, tx.Members, col.BoardID, caller); err != nil {
			return hide(err, "column")
		}
		cards, err = tx.Cards.ListByColumn(ctx, columnID)
		return err
	})
	return cards, err
}

// CreateCard appends a card to a column. A blank title becomes "Untitled"
// and a blank description is stored as null.
func (s *Service) CreateCard(ctx context.Context, columnID, caller uuid.UUID, title string, description *string) (*models.Card, error) {
	card := &models.Card{
		ID:          uuid.New(),
		ColumnID:    columnID,
		Title:       cardTitle(title),
		Description: normalizeDescription(description),
	}
	err := s.mutate(ctx, "create card", func(tx *db.Store) ([]events.Event, error) {
		col, err := editableColumn(ctx, tx, columnID, caller)
		if err != nil {
			return nil, err
		}
		order, err := position.Append(ctx, tx.Cards.Group(), columnID)
		if err != nil {
			return nil, storeErr(err, "column")
		}
		card.Order = order
		if err := tx.Cards.Create(ctx, card); err != nil {
			return nil, fmt.Errorf("insert card: %w", err)
		}
		return []events.Event{events.New(events.CardCreated, col.BoardID, caller, card)}, nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// ReorderCards puts a column's cards in the order of ids. Cards not listed
// keep their relative order after the listed ones.
func (s *Service) ReorderCards(ctx context.Context, columnID, caller uuid.UUID, ids []uuid.UUID) error {
	return s.mutate(ctx, "reorder cards", func(tx *db.Store) ([]events.Event, error) {
		col, err := editableColumn(ctx, tx, columnID, caller)
		if err != nil {
			return nil, err
		}
		if err := position.ReorderGroup(ctx, tx.Cards.Group(), columnID, ids); err != nil {
			return nil, storeErr(err, "column")
		}
		cards, err := tx.Cards.ListByColumn(ctx, columnID)
		if err != nil {
			return nil, err
		}
		return []events.Event{events.New(events.CardsReordered, col.BoardID, caller, map[string]any{
			"columnId": columnID,
			"cards":    cards,
		})}, nil
	})
}

// MoveRequest names a card, the column the client believes holds it, and
// where it should go.
type MoveRequest struct {
	CardID       uuid.UUID
	FromColumnID uuid.UUID
	ToColumnID   uuid.UUID
	ToIndex      int
}

// MoveCard relocates a card within a column or across columns, possibly of
// different boards. A stale FromColumnID fails with ErrInvalidState and
// changes nothing. Edit rights are checked on the source and the target board
// separately.
func (s *Service) MoveCard(ctx context.Context, caller uuid.UUID, req MoveRequest) error {
	return s.mutate(ctx, "move card", func(tx *db.Store) ([]events.Event, error) {
		card, err := tx.Cards.GetByID(ctx, req.CardID)
		if err != nil {
			return nil, storeErr(err, "card")
		}
		source, err := tx.Columns.GetByID(ctx, card.ColumnID)
		if err != nil {
			return nil, storeErr(err, "card")
		}
		if _, err := requireMember(ctx, tx.Members, source.BoardID, caller); err != nil {
			return nil, hide(err, "card")
		}
		if card.ColumnID != req.FromColumnID {
			return nil, invalidStateError("card is not in column %s", req.FromColumnID)
		}
		if _, err := requireEditor(ctx, tx.Members, source.BoardID, caller); err != nil {
			return nil, err
		}

		target := source
		if req.ToColumnID != source.ID {
			target, err = tx.Columns.GetByID(ctx, req.ToColumnID)
			if err != nil {
				return nil, storeErr(err, "target column")
			}
		}
		if _, err := requireEditor(ctx, tx.Members, target.BoardID, caller); err != nil {
			return nil, err
		}

		err = position.Move(ctx, tx.Cards.Group(), card.ID, source.ID, target.ID, req.ToIndex)
		if errors.Is(err, position.ErrNotInGroup) {
			return nil, invalidStateError("card is not in column %s", req.FromColumnID)
		}
		if err != nil {
			return nil, fmt.Errorf("move card: %w", err)
		}

		moved, err := tx.Cards.GetByID(ctx, card.ID)
		if err != nil {
			return nil, err
		}
		data := map[string]any{
			"card":         moved,
			"fromColumnId": source.ID,
			"toColumnId":   target.ID,
		}
		evs := []events.Event{events.New(events.CardMoved, source.BoardID, caller, data)}
		if target.BoardID != source.BoardID {
			evs = append(evs, events.New(events.CardMoved, target.BoardID, caller, data))
		}
		return evs, nil
	})
}

// CardUpdate holds the optional fields of UpdateCard. A nil or blank Title
// keeps the title; a nil Description keeps the description and a blank one
// clears it.
type CardUpdate struct {
	Title       *string
	Description *string
}

func (s *Service) UpdateCard(ctx context.Context, cardID, caller uuid.UUID, upd CardUpdate) (*models.Card, error) {
	var card *models.Card
	err := s.mutate(ctx, "update card", func(tx *db.Store) ([]events.Event, error) {
		var (
			col *models.Column
			err error
		)
		card, col, err = editableCard(ctx, tx, cardID, caller)
		if err != nil {
			return nil, err
		}
		if upd.Title != nil {
			if title := strings.TrimSpace(*upd.Title); title != "" {
				card.Title = title
			}
		}
		if upd.Description != nil {
			card.Description = normalizeDescription(upd.Description)
		}
		if err := tx.Cards.Update(ctx, card); err != nil {
			return nil, storeErr(err, "card")
		}
		return []events.Event{events.New(events.CardUpdated, col.BoardID, caller, card)}, nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard removes a card and closes the gap in its column.
func (s *Service) DeleteCard(ctx context.Context, cardID, caller uuid.UUID) error {
	return s.mutate(ctx, "delete card", func(tx *db.Store) ([]events.Event, error) {
		card, col, err := editableCard(ctx, tx, cardID, caller)
		if err != nil {
			return nil, err
		}
		// the column lock comes before any card row lock, the same order
		// moves and reorders take
		if err := tx.Columns.Lock(ctx, col.ID); err != nil {
			return nil, storeErr(err, "card")
		}
		current, err := tx.Cards.GetByID(ctx, card.ID)
		if err != nil {
			return nil, storeErr(err, "card")
		}
		if current.ColumnID != col.ID {
			return nil, invalidStateError("card was moved out of column %s", col.ID)
		}
		if err := tx.Cards.Delete(ctx, card.ID, col.ID); err != nil {
			return nil, storeErr(err, "card")
		}
		if err := position.CompactGroup(ctx, tx.Cards.Group(), col.ID); err != nil {
			return nil, err
		}
		return []events.Event{events.New(events.CardDeleted, col.BoardID, caller, map[string]uuid.UUID{
			"id":       card.ID,
			"columnId": col.ID,
		})}, nil
	})
}

// editableCard loads a card and its column and checks that caller may edit
// the column's board. Non-members get not-found.
func editableCard(ctx context.Context, tx *db.Store, cardID, caller uuid.UUID) (*models.Card, *models.Column, error) {
	card, err := tx.Cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, nil, storeErr(err, "card")
	}
	col, err := tx.Columns.GetByID(ctx, card.ColumnID)
	if err != nil {
		return nil, nil, storeErr(err, "card")
	}
	if _, err := requireEditor(ctx, tx.Members, col.BoardID, caller); err != nil {
		return nil, nil, hide(err, "card")
	}
	return card, col, nil
}

func cardTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return models.UntitledCard
}

func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	d := strings.TrimSpace(*desc)
	if d == "" {
		return nil
	}
	return &d
}

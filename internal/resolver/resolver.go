// Package resolver turns human-readable board, list, card and member names
// into Trello ids, one remote listing per level.
package resolver

import (
	"context"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
	"github.com/chxlky/trello-agent/internal/nameindex"
	"go.uber.org/zap"
)

// Directory is the read side of the Trello API.
type Directory interface {
	ListBoards(ctx context.Context) ([]models.Board, error)
	ListLists(ctx context.Context, boardID string) ([]models.List, error)
	ListCards(ctx context.Context, listID string) ([]models.Card, error)
	ListMembers(ctx context.Context, boardID string) ([]models.Member, error)
}

type Level string

const (
	LevelBoard  Level = errs.EntityBoard
	LevelList   Level = errs.EntityList
	LevelCard   Level = errs.EntityCard
	LevelMember Level = errs.EntityMember
)

// Step is one (level, name) pair of a resolution path.
type Step struct {
	Level Level
	Name  string
}

type Options struct {
	// Cache holds the board listing. Nil means an in-memory cache that never
	// expires.
	Cache BoardCache
	// RefreshOnMiss re-fetches the board listing once when a cached listing
	// does not contain the requested name.
	RefreshOnMiss bool
	Logger        *zap.Logger
}

type Resolver struct {
	dir           Directory
	cache         BoardCache
	refreshOnMiss bool
	logger        *zap.Logger
}

func New(dir Directory, opts Options) *Resolver {
	cache := opts.Cache
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Resolver{
		dir:           dir,
		cache:         cache,
		refreshOnMiss: opts.RefreshOnMiss,
		logger:        logger,
	}
}

// Boards returns the board listing, from cache when possible.
func (r *Resolver) Boards(ctx context.Context) ([]models.Board, error) {
	boards, _, err := r.boards(ctx)
	return boards, err
}

func (r *Resolver) boards(ctx context.Context) ([]models.Board, bool, error) {
	if boards, ok := r.cache.Load(ctx); ok {
		return boards, true, nil
	}
	boards, err := r.Refresh(ctx)
	return boards, false, err
}

// Refresh fetches the board listing and replaces the cached copy.
func (r *Resolver) Refresh(ctx context.Context) ([]models.Board, error) {
	boards, err := r.dir.ListBoards(ctx)
	if err != nil {
		return nil, errs.Remote("list-boards", errs.EntityBoard, "", err)
	}
	r.cache.Store(ctx, boards)
	r.logger.Debug("Board listing refreshed", zap.Int("boards", len(boards)))
	return boards, nil
}

// Invalidate drops the cached board listing.
func (r *Resolver) Invalidate(ctx context.Context) {
	r.cache.Invalidate(ctx)
}

func (r *Resolver) ResolveBoard(ctx context.Context, name string) (string, error) {
	boards, cached, err := r.boards(ctx)
	if err != nil {
		e, _ := errs.From(err)
		e.Term = name
		return "", e
	}

	if id, ok := r.boardIndex(boards).Lookup(name); ok {
		return id, nil
	}

	if cached && r.refreshOnMiss {
		r.logger.Debug("Board missing from cached listing, refreshing", zap.String("board", name))
		boards, err := r.Refresh(ctx)
		if err != nil {
			e, _ := errs.From(err)
			e.Term = name
			return "", e
		}
		if id, ok := r.boardIndex(boards).Lookup(name); ok {
			return id, nil
		}
	}

	return "", errs.NotFound(errs.EntityBoard, name)
}

func (r *Resolver) boardIndex(boards []models.Board) nameindex.Index {
	key := func(b models.Board) (string, string) { return b.Name, b.ID }
	r.warnCollisions(errs.EntityBoard, nameindex.Collisions(boards, key))
	return nameindex.Build(boards, key)
}

// Lists fetches the lists of a board and indexes them by name.
func (r *Resolver) Lists(ctx context.Context, boardID string) (nameindex.Index, error) {
	lists, err := r.dir.ListLists(ctx, boardID)
	if err != nil {
		return nil, errs.Remote("list-lists", errs.EntityList, "", err)
	}
	key := func(l models.List) (string, string) { return l.Name, l.ID }
	r.warnCollisions(errs.EntityList, nameindex.Collisions(lists, key))
	return nameindex.Build(lists, key), nil
}

func (r *Resolver) ResolveList(ctx context.Context, boardID, name string) (string, error) {
	idx, err := r.Lists(ctx, boardID)
	if err != nil {
		e, _ := errs.From(err)
		e.Term = name
		return "", e
	}
	return Lookup(idx, errs.EntityList, name)
}

// Cards returns the cards of a list in listing order.
func (r *Resolver) Cards(ctx context.Context, listID string) ([]models.Card, error) {
	cards, err := r.dir.ListCards(ctx, listID)
	if err != nil {
		return nil, errs.Remote("list-cards", errs.EntityCard, "", err)
	}
	return cards, nil
}

func (r *Resolver) ResolveCard(ctx context.Context, listID, name string) (string, error) {
	cards, err := r.Cards(ctx, listID)
	if err != nil {
		e, _ := errs.From(err)
		e.Term = name
		return "", e
	}
	key := func(c models.Card) (string, string) { return c.Name, c.ID }
	r.warnCollisions(errs.EntityCard, nameindex.Collisions(cards, key))
	return Lookup(nameindex.Build(cards, key), errs.EntityCard, name)
}

// ResolveMember matches query against the board members' full, first and
// last names. More than one match is an Ambiguous error listing the
// candidates.
func (r *Resolver) ResolveMember(ctx context.Context, boardID, query string) (nameindex.MemberEntry, error) {
	members, err := r.dir.ListMembers(ctx, boardID)
	if err != nil {
		return nameindex.MemberEntry{}, errs.Remote("list-members", errs.EntityMember, query, err)
	}

	idx := nameindex.BuildMembers(members, func(m models.Member) (string, string) {
		if m.FullName == "" {
			return m.Username, m.ID
		}
		return m.FullName, m.ID
	})

	matches := idx.Match(query)
	switch len(matches) {
	case 0:
		return nameindex.MemberEntry{}, errs.NotFound(errs.EntityMember, query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.FullName)
		}
		return nameindex.MemberEntry{}, errs.Ambiguous(errs.EntityMember, query, names)
	}
}

// Resolve walks path left to right, scoping each level to the id resolved
// before it. The first failing level aborts the walk.
func (r *Resolver) Resolve(ctx context.Context, path []Step) ([]string, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(path))
	var boardID string
	for i, step := range path {
		var (
			id  string
			err error
		)
		switch step.Level {
		case LevelBoard:
			id, err = r.ResolveBoard(ctx, step.Name)
			boardID = id
		case LevelList:
			id, err = r.ResolveList(ctx, ids[i-1], step.Name)
		case LevelCard:
			id, err = r.ResolveCard(ctx, ids[i-1], step.Name)
		case LevelMember:
			var m nameindex.MemberEntry
			m, err = r.ResolveMember(ctx, boardID, step.Name)
			id = m.ID
		}
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validatePath(path []Step) error {
	if len(path) == 0 {
		return errs.Validation("empty resolution path")
	}
	for i, step := range path {
		var want Level
		switch step.Level {
		case LevelBoard:
			if i != 0 {
				return errs.Validation("board must be the first level, found at position %d", i)
			}
			continue
		case LevelList, LevelMember:
			want = LevelBoard
		case LevelCard:
			want = LevelList
		default:
			return errs.Validation("unknown level %q", step.Level)
		}
		if i == 0 || path[i-1].Level != want {
			return errs.Validation("%s must follow %s", step.Level, want)
		}
	}
	return nil
}

// Lookup resolves name in an already built index.
func Lookup(idx nameindex.Index, entity, name string) (string, error) {
	if id, ok := idx.Lookup(name); ok {
		return id, nil
	}
	return "", errs.NotFound(entity, name)
}

func (r *Resolver) warnCollisions(entity string, names []string) {
	if len(names) == 0 {
		return
	}
	r.logger.Warn("Duplicate names in listing, last entry wins",
		zap.String("entity", entity),
		zap.Strings("names", names),
	)
}

package repository

import (
	"context"
	"errors"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/model"
	"gorm.io/gorm"
)

type deckRepository struct {
	db *gorm.DB
}

func NewDeckRepository(db *gorm.DB) DeckStore {
	return &deckRepository{db: db}
}

func (r *deckRepository) GetDeck(ctx context.Context, user model.UserContext, id string) (*model.Deck, error) {
	var deck model.Deck
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.UserID).First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("get deck", "deck %s not found", id)
	}
	if err != nil {
		return nil, apperror.Storage("get deck", err)
	}
	return &deck, nil
}

func (r *deckRepository) GetChildren(ctx context.Context, user model.UserContext, parentID string) ([]model.Deck, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", user.UserID)
	if parentID == "" {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", parentID)
	}
	var decks []model.Deck
	if err := query.Order("position ASC, created_at ASC").Find(&decks).Error; err != nil {
		return nil, apperror.Storage("get children", err)
	}
	return decks, nil
}

func (r *deckRepository) GetQuestions(ctx context.Context, user model.UserContext, deckID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Where("deck_id = ? AND user_id = ?", deckID, user.UserID).
		Order("position ASC, created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, apperror.Storage("get questions", err)
	}
	return questions, nil
}

func (r *deckRepository) ListDecks(ctx context.Context, user model.UserContext) ([]model.Deck, error) {
	var decks []model.Deck
	if err := r.db.WithContext(ctx).Where("user_id = ?", user.UserID).Order("position ASC, created_at ASC").Find(&decks).Error; err != nil {
		return nil, apperror.Storage("list decks", err)
	}
	return decks, nil
}

func (r *deckRepository) ListQuestions(ctx context.Context, user model.UserContext) ([]model.Question, error) {
	var questions []model.Question
	if err := r.db.WithContext(ctx).Where("user_id = ?", user.UserID).Order("position ASC, created_at ASC").Find(&questions).Error; err != nil {
		return nil, apperror.Storage("list questions", err)
	}
	return questions, nil
}

// UpsertDeck inserts a new deck or updates one the user owns.
func (r *deckRepository) UpsertDeck(ctx context.Context, user model.UserContext, deck *model.Deck) error {
	const op = "upsert deck"
	deck.UserID = user.UserID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := ownerOf(tx, &model.Deck{}, deck.ID)
		if err != nil {
			return apperror.Storage(op, err)
		}
		switch owner {
		case "":
			return translate(op, tx.Create(deck).Error)
		case user.UserID:
			return translate(op, tx.Save(deck).Error)
		default:
			return apperror.NotFound(op, "deck %s not found", deck.ID)
		}
	})
}

// ownerOf returns the user owning row id in table, or "" if there is none.
func ownerOf(tx *gorm.DB, table any, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	var owners []string
	if err := tx.Model(table).Where("id = ?", id).Pluck("user_id", &owners).Error; err != nil {
		return "", err
	}
	if len(owners) == 0 {
		return "", nil
	}
	return owners[0], nil
}

// DeleteDeck soft-deletes the deck, every descendant and all of their questions.
func (r *deckRepository) DeleteDeck(ctx context.Context, user model.UserContext, id string) error {
	const op = "delete deck"
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root model.Deck
		if err := tx.Where("id = ? AND user_id = ?", id, user.UserID).First(&root).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(op, "deck %s not found", id)
			}
			return apperror.Storage(op, err)
		}

		ids := []string{id}
		visited := map[string]bool{id: true}
		for frontier := []string{id}; len(frontier) > 0; {
			var children []string
			if err := tx.Model(&model.Deck{}).
				Where("user_id = ? AND parent_id IN ?", user.UserID, frontier).
				Pluck("id", &children).Error; err != nil {
				return apperror.Storage(op, err)
			}
			frontier = frontier[:0:0]
			for _, c := range children {
				if !visited[c] {
					visited[c] = true
					ids = append(ids, c)
					frontier = append(frontier, c)
				}
			}
		}

		for _, part := range chunk(ids, 500) {
			if err := tx.Where("user_id = ? AND deck_id IN ?", user.UserID, part).Delete(&model.Question{}).Error; err != nil {
				return apperror.Storage(op, err)
			}
			if err := tx.Where("user_id = ? AND id IN ?", user.UserID, part).Delete(&model.Deck{}).Error; err != nil {
				return apperror.Storage(op, err)
			}
		}
		return nil
	})
}

// SaveTree inserts an imported deck tree in one transaction.
func (r *deckRepository) SaveTree(ctx context.Context, user model.UserContext, decks []model.Deck, questions []model.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range decks {
			decks[i].UserID = user.UserID
		}
		for i := range questions {
			questions[i].UserID = user.UserID
		}
		if len(decks) > 0 {
			if err := tx.CreateInBatches(decks, 100).Error; err != nil {
				return apperror.Storage("save tree", err)
			}
		}
		if len(questions) > 0 {
			if err := tx.CreateInBatches(questions, 100).Error; err != nil {
				return apperror.Storage("save tree", err)
			}
		}
		return nil
	})
}

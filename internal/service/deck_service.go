package service

import (
	"context"
	"strings"

	"github.com/lshigami/studydeck/internal/apperror"
	"github.com/lshigami/studydeck/internal/decktree"
	"github.com/lshigami/studydeck/internal/dto"
	"github.com/lshigami/studydeck/internal/model"
	"github.com/lshigami/studydeck/internal/repository"
	"github.com/lshigami/studydeck/internal/scoring"
	"github.com/lshigami/studydeck/internal/textdeck"
	"github.com/lshigami/studydeck/internal/transfer"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

type DeckService interface {
	ListDecks(ctx context.Context, user model.UserContext, parentID string) ([]dto.DeckResponse, error)
	GetDeck(ctx context.Context, user model.UserContext, id string) (*dto.DeckResponse, error)
	CreateDeck(ctx context.Context, user model.UserContext, req dto.CreateDeckRequest) (*dto.DeckResponse, error)
	UpdateDeck(ctx context.Context, user model.UserContext, id string, req dto.UpdateDeckRequest) (*dto.DeckResponse, error)
	MoveDeck(ctx context.Context, user model.UserContext, id string, req dto.MoveDeckRequest) (*dto.DeckResponse, error)
	DeleteDeck(ctx context.Context, user model.UserContext, id string) error
	Overview(ctx context.Context, user model.UserContext, id string, sortBy string, desc bool) (*dto.DeckOverviewResponse, error)
	Breadcrumb(ctx context.Context, user model.UserContext, id string) ([]dto.BreadcrumbItem, error)
	Export(ctx context.Context, user model.UserContext, id string) (*transfer.Document, error)
	ImportJSON(ctx context.Context, user model.UserContext, data []byte, parentID string) (*dto.ImportResponse, error)
	ImportText(ctx context.Context, user model.UserContext, req dto.ImportTextRequest) (*dto.ImportResponse, error)
	PreviewText(text string) textdeck.Preview
	PracticeTests(ctx context.Context, user model.UserContext) ([]dto.DeckResponse, error)
}

type deckService struct {
	decks     repository.DeckStore
	questions repository.QuestionStore
	scoring   scoring.Model
}

func NewDeckService(decks repository.DeckStore, questions repository.QuestionStore, scorer scoring.Model) DeckService {
	return &deckService{decks: decks, questions: questions, scoring: scorer}
}

func (s *deckService) ListDecks(ctx context.Context, user model.UserContext, parentID string) ([]dto.DeckResponse, error) {
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, ok := tree.Deck(parentID); !ok {
			return nil, apperror.NotFound("list decks", "deck %s not found", parentID)
		}
	}
	decks := tree.SubdecksOf(parentID)
	out := make([]dto.DeckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, toDeckResponse(tree, d))
	}
	return out, nil
}

func (s *deckService) GetDeck(ctx context.Context, user model.UserContext, id string) (*dto.DeckResponse, error) {
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	deck, ok := tree.Deck(id)
	if !ok {
		return nil, apperror.NotFound("get deck", "deck %s not found", id)
	}
	resp := toDeckResponse(tree, deck)
	return &resp, nil
}

func (s *deckService) CreateDeck(ctx context.Context, user model.UserContext, req dto.CreateDeckRequest) (*dto.DeckResponse, error) {
	const op = "create deck"
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation(op, "title is required")
	}

	parentID := ""
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	siblings, err := s.siblings(ctx, user, parentID, op)
	if err != nil {
		return nil, err
	}

	deck := model.Deck{
		ID:                       model.NewID(),
		Title:                    title,
		Description:              req.Description,
		AvailableForPracticeTest: req.AvailableForPracticeTest,
		IsPastPaper:              req.IsPastPaper,
		Position:                 len(siblings),
	}
	deck.SetParent(parentID)
	if err := s.decks.UpsertDeck(ctx, user, &deck); err != nil {
		log.Error().Err(err).Str("userID", user.UserID).Msg("Failed to create deck")
		return nil, err
	}
	log.Info().Str("deckID", deck.ID).Str("userID", user.UserID).Str("parentID", parentID).Msg("Deck created")

	resp := toDeckResponse(nil, deck)
	return &resp, nil
}

// siblings lists the children of parentID, failing when a non-empty parent does not exist.
func (s *deckService) siblings(ctx context.Context, user model.UserContext, parentID, op string) ([]model.Deck, error) {
	if parentID != "" {
		if _, err := s.decks.GetDeck(ctx, user, parentID); err != nil {
			if apperror.KindOf(err) == apperror.KindNotFound {
				return nil, apperror.NotFound(op, "parent deck %s not found", parentID)
			}
			return nil, err
		}
	}
	return s.decks.GetChildren(ctx, user, parentID)
}

func (s *deckService) UpdateDeck(ctx context.Context, user model.UserContext, id string, req dto.UpdateDeckRequest) (*dto.DeckResponse, error) {
	const op = "update deck"
	deck, err := s.decks.GetDeck(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.Validation(op, "title cannot be empty")
		}
		deck.Title = title
	}
	if req.Description != nil {
		deck.Description = req.Description
		if *req.Description == "" {
			deck.Description = nil
		}
	}
	if req.AvailableForPracticeTest != nil {
		deck.AvailableForPracticeTest = *req.AvailableForPracticeTest
	}
	if req.IsPastPaper != nil {
		deck.IsPastPaper = *req.IsPastPaper
	}
	if err := s.decks.UpsertDeck(ctx, user, deck); err != nil {
		return nil, err
	}
	return s.GetDeck(ctx, user, id)
}

// MoveDeck reparents a deck. The cycle check runs against a fresh snapshot
// before anything is written.
func (s *deckService) MoveDeck(ctx context.Context, user model.UserContext, id string, req dto.MoveDeckRequest) (*dto.DeckResponse, error) {
	const op = "move deck"
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	deck, ok := tree.Deck(id)
	if !ok {
		return nil, apperror.NotFound(op, "deck %s not found", id)
	}

	parentID := ""
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	if parentID != "" {
		if _, ok := tree.Deck(parentID); !ok {
			return nil, apperror.NotFound(op, "parent deck %s not found", parentID)
		}
		if tree.WouldCreateCycle(id, parentID) {
			return nil, apperror.Policy(op, "cannot move deck %q into itself or one of its subdecks", deck.Title)
		}
	}
	if deck.ParentKey() == parentID {
		resp := toDeckResponse(tree, deck)
		return &resp, nil
	}

	deck.SetParent(parentID)
	deck.Position = len(tree.SubdecksOf(parentID))
	if err := s.decks.UpsertDeck(ctx, user, &deck); err != nil {
		return nil, err
	}
	log.Info().Str("deckID", id).Str("parentID", parentID).Msg("Deck moved")
	return s.GetDeck(ctx, user, id)
}

func (s *deckService) DeleteDeck(ctx context.Context, user model.UserContext, id string) error {
	if err := s.decks.DeleteDeck(ctx, user, id); err != nil {
		return err
	}
	log.Info().Str("deckID", id).Str("userID", user.UserID).Msg("Deck deleted with its subdecks and questions")
	return nil
}

// Overview computes metrics for the deck subtree and, in parallel, for each
// direct subdeck.
func (s *deckService) Overview(ctx context.Context, user model.UserContext, id string, sortBy string, desc bool) (*dto.DeckOverviewResponse, error) {
	const op = "deck overview"
	key, err := scoring.ParseSortKey(sortBy)
	if err != nil {
		return nil, apperror.Validation(op, "%v", err)
	}
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	deck, ok := tree.Deck(id)
	if !ok {
		return nil, apperror.NotFound(op, "deck %s not found", id)
	}

	all := tree.AllQuestionsOf(id)
	attempts, err := s.questions.GetAttempts(ctx, user, questionIDs(all))
	if err != nil {
		return nil, err
	}

	items := iter.Map(tree.SubdecksOf(id), func(d *model.Deck) scoring.DeckMetrics {
		qs := tree.AllQuestionsOf(d.ID)
		return scoring.DeckMetrics{Deck: *d, Metrics: s.scoring.Metrics(qs, attempts), TotalQuestions: len(qs)}
	})
	scoring.SortDecks(items, key, desc)

	resp := &dto.DeckOverviewResponse{
		Deck:     toDeckResponse(tree, deck),
		Metrics:  s.scoring.Metrics(all, attempts),
		Subdecks: make([]dto.SubdeckOverview, 0, len(items)),
		SortBy:   string(key),
		Desc:     desc,
	}
	for _, it := range items {
		resp.Subdecks = append(resp.Subdecks, dto.SubdeckOverview{
			Deck:               toDeckResponse(tree, it.Deck),
			Metrics:            it.Metrics,
			TotalQuestionCount: it.TotalQuestions,
		})
	}
	return resp, nil
}

func (s *deckService) Breadcrumb(ctx context.Context, user model.UserContext, id string) ([]dto.BreadcrumbItem, error) {
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	chain := tree.Breadcrumb(id)
	if len(chain) == 0 {
		return nil, apperror.NotFound("breadcrumb", "deck %s not found", id)
	}
	out := make([]dto.BreadcrumbItem, len(chain))
	for i, d := range chain {
		out[i] = dto.BreadcrumbItem{ID: d.ID, Title: d.Title}
	}
	return out, nil
}

func (s *deckService) Export(ctx context.Context, user model.UserContext, id string) (*transfer.Document, error) {
	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	return transfer.Export(tree, id)
}

func (s *deckService) ImportJSON(ctx context.Context, user model.UserContext, data []byte, parentID string) (*dto.ImportResponse, error) {
	doc, err := transfer.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.importDocument(ctx, user, doc, parentID)
}

func (s *deckService) ImportText(ctx context.Context, user model.UserContext, req dto.ImportTextRequest) (*dto.ImportResponse, error) {
	res, err := textdeck.Parse(req.Text)
	if err != nil {
		return nil, err
	}
	parentID := ""
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	return s.importDocument(ctx, user, res.Document(), parentID)
}

// importDocument stores doc under parentID with every id regenerated, so the
// same file can be imported any number of times.
func (s *deckService) importDocument(ctx context.Context, user model.UserContext, doc *transfer.Document, parentID string) (*dto.ImportResponse, error) {
	const op = "import deck"
	siblings, err := s.siblings(ctx, user, parentID, op)
	if err != nil {
		return nil, err
	}

	remapped := doc.Remap(parentID, model.NewID)
	remapped.Deck.Position = len(siblings)
	decks := remapped.Decks()
	if err := s.decks.SaveTree(ctx, user, decks, remapped.Questions); err != nil {
		log.Error().Err(err).Str("userID", user.UserID).Msg("Failed to save imported deck")
		return nil, err
	}
	log.Info().Str("deckID", remapped.Deck.ID).Int("subdecks", len(remapped.Subdecks)).
		Int("questions", len(remapped.Questions)).Msg("Deck imported")

	tree, err := loadTree(ctx, s.decks, user)
	if err != nil {
		return nil, err
	}
	return &dto.ImportResponse{
		Deck:              toDeckResponse(tree, decks[0]),
		SubdecksImported:  len(remapped.Subdecks),
		QuestionsImported: len(remapped.Questions),
	}, nil
}

func (s *deckService) PreviewText(text string) textdeck.Preview {
	return textdeck.PreviewText(text)
}

// PracticeTests lists every deck offered for practice tests, at any depth.
func (s *deckService) PracticeTests(ctx context.Context, user model.UserContext) ([]dto.DeckResponse, error) {
	decks, err := s.decks.ListDecks(ctx, user)
	if err != nil {
		return nil, err
	}
	questions, err := s.decks.ListQuestions(ctx, user)
	if err != nil {
		return nil, err
	}
	tree := decktree.New(decks, questions)
	out := []dto.DeckResponse{}
	for _, d := range decks {
		if d.AvailableForPracticeTest {
			out = append(out, toDeckResponse(tree, d))
		}
	}
	return out, nil
}

package controller

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/studydeck/internal/dto"
)

// ListDecksHandler godoc
// @Summary List decks
// @Description Lists top-level decks, or the direct subdecks of parent_id.
// @Tags Decks
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param parent_id query string false "Parent deck ID"
// @Success 200 {array} dto.DeckResponse
// @Failure 404 {object} dto.ErrorResponse "Parent deck not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /decks [get]
func (ctrl *Controller) ListDecksHandler(c *gin.Context) {
	decks, err := ctrl.deckSvc.ListDecks(c.Request.Context(), currentUser(c), c.Query("parent_id"))
	if err != nil {
		respondError(c, "Failed to list decks", err)
		return
	}
	c.JSON(http.StatusOK, decks)
}

// CreateDeckHandler godoc
// @Summary Create a deck
// @Tags Decks
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck body dto.CreateDeckRequest true "Deck data"
// @Success 201 {object} dto.DeckResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Parent deck not found"
// @Router /decks [post]
func (ctrl *Controller) CreateDeckHandler(c *gin.Context) {
	var req dto.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	deck, err := ctrl.deckSvc.CreateDeck(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, "Failed to create deck", err)
		return
	}
	c.JSON(http.StatusCreated, deck)
}

// GetDeckHandler godoc
// @Summary Get a deck
// @Tags Decks
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Success 200 {object} dto.DeckResponse
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id} [get]
func (ctrl *Controller) GetDeckHandler(c *gin.Context) {
	deck, err := ctrl.deckSvc.GetDeck(c.Request.Context(), currentUser(c), c.Param("deck_id"))
	if err != nil {
		respondError(c, "Failed to get deck", err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

// UpdateDeckHandler godoc
// @Summary Update deck fields
// @Tags Decks
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Param deck body dto.UpdateDeckRequest true "Fields to change"
// @Success 200 {object} dto.DeckResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id} [put]
func (ctrl *Controller) UpdateDeckHandler(c *gin.Context) {
	var req dto.UpdateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	deck, err := ctrl.deckSvc.UpdateDeck(c.Request.Context(), currentUser(c), c.Param("deck_id"), req)
	if err != nil {
		respondError(c, "Failed to update deck", err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

// DeleteDeckHandler godoc
// @Summary Delete a deck
// @Description Deletes the deck, all of its subdecks and every question they contain.
// @Tags Decks
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id} [delete]
func (ctrl *Controller) DeleteDeckHandler(c *gin.Context) {
	if err := ctrl.deckSvc.DeleteDeck(c.Request.Context(), currentUser(c), c.Param("deck_id")); err != nil {
		respondError(c, "Failed to delete deck", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveDeckHandler godoc
// @Summary Move a deck under another parent
// @Tags Decks
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Param move body dto.MoveDeckRequest true "New parent, null for top level"
// @Success 200 {object} dto.DeckResponse
// @Failure 409 {object} dto.ErrorResponse "Move would create a cycle"
// @Failure 404 {object} dto.ErrorResponse "Deck or parent not found"
// @Router /decks/{deck_id}/move [post]
func (ctrl *Controller) MoveDeckHandler(c *gin.Context) {
	var req dto.MoveDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	deck, err := ctrl.deckSvc.MoveDeck(c.Request.Context(), currentUser(c), c.Param("deck_id"), req)
	if err != nil {
		respondError(c, "Failed to move deck", err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

// DeckOverviewHandler godoc
// @Summary Deck metrics with per-subdeck breakdown
// @Tags Decks
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Param sort query string false "name, score, accuracy, completion or mastery" default(score)
// @Param desc query bool false "Sort descending"
// @Success 200 {object} dto.DeckOverviewResponse
// @Failure 400 {object} dto.ErrorResponse "Unknown sort key"
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id}/overview [get]
func (ctrl *Controller) DeckOverviewHandler(c *gin.Context) {
	desc := false
	if v := c.Query("desc"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid desc parameter"})
			return
		}
		desc = parsed
	}
	overview, err := ctrl.deckSvc.Overview(c.Request.Context(), currentUser(c), c.Param("deck_id"), c.Query("sort"), desc)
	if err != nil {
		respondError(c, "Failed to compute deck overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// BreadcrumbHandler godoc
// @Summary Path from the top-level deck down to this deck
// @Tags Decks
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Success 200 {array} dto.BreadcrumbItem
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id}/breadcrumb [get]
func (ctrl *Controller) BreadcrumbHandler(c *gin.Context) {
	crumbs, err := ctrl.deckSvc.Breadcrumb(c.Request.Context(), currentUser(c), c.Param("deck_id"))
	if err != nil {
		respondError(c, "Failed to build breadcrumb", err)
		return
	}
	c.JSON(http.StatusOK, crumbs)
}

// ExportDeckHandler godoc
// @Summary Export a deck with its subdecks and questions
// @Tags Import/Export
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck_id path string true "Deck ID"
// @Success 200 {object} transfer.Document
// @Failure 404 {object} dto.ErrorResponse "Deck not found"
// @Router /decks/{deck_id}/export [get]
func (ctrl *Controller) ExportDeckHandler(c *gin.Context) {
	doc, err := ctrl.deckSvc.Export(c.Request.Context(), currentUser(c), c.Param("deck_id"))
	if err != nil {
		respondError(c, "Failed to export deck", err)
		return
	}
	data, err := doc.Marshal()
	if err != nil {
		respondError(c, "Failed to export deck", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Deck.Title+".json"))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ImportDeckHandler godoc
// @Summary Import a deck exported as JSON
// @Description Every id is regenerated. The imported deck is placed under parent_id, or at the top level.
// @Tags Import/Export
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param parent_id query string false "Parent deck ID"
// @Param document body transfer.Document true "Exported deck"
// @Success 201 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid document"
// @Failure 404 {object} dto.ErrorResponse "Parent deck not found"
// @Router /decks/import [post]
func (ctrl *Controller) ImportDeckHandler(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		bindError(c, err)
		return
	}
	resp, err := ctrl.deckSvc.ImportJSON(c.Request.Context(), currentUser(c), data, c.Query("parent_id"))
	if err != nil {
		respondError(c, "Failed to import deck", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ImportTextHandler godoc
// @Summary Create a deck from the plain-text format
// @Tags Import/Export
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck body dto.ImportTextRequest true "Deck text"
// @Success 201 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse "Parse error"
// @Router /decks/import/text [post]
func (ctrl *Controller) ImportTextHandler(c *gin.Context) {
	var req dto.ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := ctrl.deckSvc.ImportText(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, "Failed to import deck text", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PreviewTextHandler godoc
// @Summary Parse deck text without saving it
// @Description Always answers 200; parse problems are reported in the body.
// @Tags Import/Export
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param deck body dto.ImportTextRequest true "Deck text"
// @Success 200 {object} textdeck.Preview
// @Router /decks/import/text/preview [post]
func (ctrl *Controller) PreviewTextHandler(c *gin.Context) {
	var req dto.ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.deckSvc.PreviewText(req.Text))
}

// PracticeTestsHandler godoc
// @Summary Decks available for practice tests
// @Tags Decks
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {array} dto.DeckResponse
// @Router /practice-tests [get]
func (ctrl *Controller) PracticeTestsHandler(c *gin.Context) {
	decks, err := ctrl.deckSvc.PracticeTests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, "Failed to list practice tests", err)
		return
	}
	c.JSON(http.StatusOK, decks)
}

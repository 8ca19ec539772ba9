package api

import (
	"errors"
	"net/http"
	"strconv"

	"diner/internal/catalog"
	"diner/internal/database"
	"diner/internal/models"
	"diner/internal/order"
	"diner/internal/render"
	"diner/internal/session"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"menu": s.ctrl.Menu()})
}

func (s *Server) handleStartSession(c *gin.Context) {
	id, view, err := s.ctrl.Start(c.Request.Context())
	if err != nil {
		s.respondError(c, err, view)
		return
	}

	token, err := s.tokens.Issue(id)
	if err != nil {
		s.ctrl.End(c.Request.Context(), id)
		s.respondError(c, err, render.PageView{})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "view": view})
}

func (s *Server) handleEndSession(c *gin.Context) {
	id := sessionID(c)
	s.ctrl.End(c.Request.Context(), id)
	s.hub.CloseSession(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	view, err := s.ctrl.View(c.Request.Context(), sessionID(c))
	s.respond(c, view, err)
}

func (s *Server) handleAddItem(c *gin.Context) {
	view, err := s.ctrl.Add(c.Request.Context(), sessionID(c), c.Param("id"))
	s.respond(c, view, err)
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	view, err := s.ctrl.Remove(c.Request.Context(), sessionID(c), c.Param("id"))
	s.respond(c, view, err)
}

func (s *Server) handleComplete(c *gin.Context) {
	view, err := s.ctrl.Complete(c.Request.Context(), sessionID(c))
	s.respond(c, view, err)
}

func (s *Server) handleCancel(c *gin.Context) {
	view, err := s.ctrl.Cancel(c.Request.Context(), sessionID(c))
	s.respond(c, view, err)
}

func (s *Server) handlePay(c *gin.Context) {
	var details order.PaymentDetails
	if err := c.ShouldBind(&details); err != nil {
		view, viewErr := s.ctrl.View(c.Request.Context(), sessionID(c))
		if viewErr != nil {
			s.respondError(c, viewErr, view)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": order.ErrPaymentDetails.Error(), "view": view})
		return
	}

	view, err := s.ctrl.Pay(c.Request.Context(), sessionID(c), details)
	s.respond(c, view, err)
}

func (s *Server) respond(c *gin.Context, view render.PageView, err error) {
	if err != nil {
		s.respondError(c, err, view)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view})
}

func (s *Server) respondError(c *gin.Context, err error, view render.PageView) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	if view.Menu == nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "view": view})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		return http.StatusGone
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidItemID), errors.Is(err, order.ErrPaymentDetails):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotInOrder):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, order.ErrEmptyOrder):
		return http.StatusConflict
	case errors.Is(err, order.ErrPaymentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ReceiptsHandler serves the recorded receipts on the internal metrics server
func ReceiptsHandler(store *database.ReceiptStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ref := c.Query("reference"); ref != "" {
			receipt, err := store.Find(ref)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, receiptJSON(*receipt))
			return
		}

		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		receipts, err := store.Recent(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(receipts))
		for _, r := range receipts {
			out = append(out, receiptJSON(r))
		}
		c.JSON(http.StatusOK, gin.H{"receipts": out})
	}
}

func receiptJSON(r models.Receipt) gin.H {
	lines := make([]gin.H, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, gin.H{
			"position": l.Position,
			"id":       l.ItemID,
			"name":     l.Name,
			"price":    models.Money(l.PriceCents).String(),
		})
	}
	return gin.H{
		"reference":    r.Reference,
		"customer":     r.Customer,
		"card_last4":   r.CardLast4,
		"total":        r.Total().String(),
		"submitted_at": r.SubmittedAt,
		"lines":        lines,
	}
}

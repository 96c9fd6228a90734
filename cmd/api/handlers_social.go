package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/chat"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/notification"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/realtime"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/review"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/storage"
)

// reviewList is a page of reviews plus the product's rating summary.
type reviewList struct {
	httpx.List[review.Review]
	Summary review.Summary `json:"summary"`
}

// listReviewsHandler godoc
//
//	@Summary	Reviews of a product, newest first
//	@Tags		reviews
//	@Produce	json
//	@Param		id		path		string	true	"Product id"
//	@Param		page	query		int		false	"Page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	reviewList
//	@Router		/products/{id}/reviews [get]
func listReviewsHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		out, sum, err := svc.ListForProduct(c.Request.Context(), auth.Viewer(c), c.Param("id"), page.Limit, page.Offset())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, reviewList{List: httpx.NewList(out, page, sum.Count), Summary: sum})
	}
}

// createReviewHandler godoc
//
//	@Summary		Review a purchased product
//	@Description	Requires a delivered order of the caller that contains the product.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		review.CreateReviewRequest	true	"Review"
//	@Success		201		{object}	review.Review
//	@Failure		409		{object}	errorResponse
//	@Failure		422		{object}	errorResponse
//	@Router			/reviews [post]
func createReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in review.CreateReviewRequest
		if !bindJSON(c, &in) {
			return
		}
		rv, err := svc.Create(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

// replyReviewHandler godoc
//
//	@Summary	Reply to a review of own product
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"Review id"
//	@Param		body	body		review.ReplyRequest	true	"Reply"
//	@Success	200		{object}	review.Review
//	@Router		/reviews/{id}/reply [post]
func replyReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in review.ReplyRequest
		if !bindJSON(c, &in) {
			return
		}
		rv, err := svc.Reply(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in.Reply)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, rv)
	}
}

// deleteReviewHandler godoc
//
//	@Summary	Delete a review
//	@Tags		reviews
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Review id"
//	@Success	204
//	@Router		/reviews/{id} [delete]
func deleteReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// openConversationHandler godoc
//
//	@Summary	Open or resume a conversation with a shop
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		chat.OpenConversationRequest	true	"Shop and optional product"
//	@Success	200		{object}	chat.Conversation
//	@Router		/chat/conversations [post]
func openConversationHandler(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in chat.OpenConversationRequest
		if !bindJSON(c, &in) {
			return
		}
		conv, err := svc.Open(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}

// listConversationsHandler godoc
//
//	@Summary	Conversations the caller takes part in
//	@Tags		chat
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	httpx.List[chat.Conversation]
//	@Router		/chat/conversations [get]
func listConversationsHandler(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		out, total, err := svc.ListConversations(c.Request.Context(), auth.MustPrincipal(c), page.Limit, page.Offset())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// listMessagesHandler godoc
//
//	@Summary	Messages of a conversation, oldest first
//	@Tags		chat
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Conversation id"
//	@Success	200	{object}	httpx.List[chat.Message]
//	@Failure	403	{object}	errorResponse
//	@Router		/chat/conversations/{id}/messages [get]
func listMessagesHandler(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		out, total, err := svc.Messages(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), page.Limit, page.Offset())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// sendMessageHandler godoc
//
//	@Summary	Send a message
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string					true	"Conversation id"
//	@Param		body	body		chat.SendMessageRequest	true	"Message"
//	@Success	201		{object}	chat.Message
//	@Failure	403		{object}	errorResponse
//	@Router		/chat/conversations/{id}/messages [post]
func sendMessageHandler(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in chat.SendMessageRequest
		if !bindJSON(c, &in) {
			return
		}
		m, err := svc.Send(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in.Body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

// listNotificationsHandler godoc
//
//	@Summary	Own notifications, newest first
//	@Tags		notifications
//	@Produce	json
//	@Security	BearerAuth
//	@Param		unread	query		bool	false	"Only unread"
//	@Success	200		{object}	httpx.List[notification.Notification]
//	@Router		/notifications [get]
func listNotificationsHandler(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		q := notification.Query{UnreadOnly: c.Query("unread") == "true", Limit: page.Limit, Offset: page.Offset()}
		out, total, err := svc.List(c.Request.Context(), auth.MustPrincipal(c), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// unreadCountHandler godoc
//
//	@Summary	Number of unread notifications
//	@Tags		notifications
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	map[string]int
//	@Router		/notifications/unread-count [get]
func unreadCountHandler(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.UnreadCount(c.Request.Context(), auth.MustPrincipal(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

// markReadHandler godoc
//
//	@Summary	Mark a notification read
//	@Tags		notifications
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Notification id"
//	@Success	204
//	@Failure	404	{object}	errorResponse
//	@Router		/notifications/{id}/read [post]
func markReadHandler(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.MarkRead(c.Request.Context(), auth.MustPrincipal(c), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// markAllReadHandler godoc
//
//	@Summary	Mark every notification read
//	@Tags		notifications
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	map[string]int
//	@Router		/notifications/read-all [post]
func markAllReadHandler(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.MarkAllRead(c.Request.Context(), auth.MustPrincipal(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}

// uploadHandler godoc
//
//	@Summary	Upload an image
//	@Tags		uploads
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"Image"
//	@Success	201		{object}	storage.UploadResult
//	@Failure	400		{object}	errorResponse
//	@Router		/uploads [post]
func uploadHandler(u *storage.Uploader, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Leave room for the multipart envelope around the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+64<<10)
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				_ = c.Error(apperr.BadRequest("file too large"))
				return
			}
			_ = c.Error(apperr.BadRequest("file is required"))
			return
		}
		if fh.Size > maxBytes {
			_ = c.Error(apperr.BadRequest("file too large"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			_ = c.Error(apperr.BadRequest("could not read upload"))
			return
		}
		defer f.Close()

		res, err := u.Upload(c.Request.Context(), auth.MustPrincipal(c).UserID, f)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// wsHandler godoc
//
//	@Summary		Realtime channel
//	@Description	Upgrades to a websocket that receives chat messages and notifications. Browsers pass the access token as ?token=.
//	@Tags			realtime
//	@Security		BearerAuth
//	@Router			/ws [get]
func wsHandler(h *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.Serve(c.Writer, c.Request, auth.MustPrincipal(c).UserID)
	}
}

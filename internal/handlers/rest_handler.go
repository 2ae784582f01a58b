package handlers

import (
	"errors"
	"net/http"

	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/msgs"
	"marketChat/internal/services"
	"marketChat/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RestHandler struct {
	chatService         *services.ChatService
	notificationService *services.NotificationService
	log                 *zap.SugaredLogger
}

func NewRestHandler(
	chatService *services.ChatService,
	notificationService *services.NotificationService,
	log *zap.SugaredLogger,
) *RestHandler {
	return &RestHandler{
		chatService:         chatService,
		notificationService: notificationService,
		log:                 log,
	}
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (rh *RestHandler) abortWithError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		rh.log.Errorw("Request failed", "path", ctx.FullPath(), "error", err)
	}
	ctx.AbortWithStatusJSON(status, models.Response{
		Success: false,
		Message: msgs.MsgOperationFailed,
		Errors:  errs.Messages(err),
	})
}

// callerID returns the authenticated user id, aborting with 401 when absent.
func (rh *RestHandler) callerID(ctx *gin.Context) (string, bool) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID == "" {
		rh.log.Warnw("User id not found in request context", "path", ctx.FullPath())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Message: msgs.MsgYouMustLoginFirst,
			Errors:  errs.Messages(errs.ErrUnauthorized),
		})
		return "", false
	}
	return userID, true
}

// CreateConversation godoc
// @Summary      Find or create a conversation
// @Description  Returns the conversation between the caller and receiver_id, creating it on first contact
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.CreateConversationRequestBody  true  "Receiver"
// @Success      200   {object}  models.Response{data=models.ConversationResponse}
// @Failure      400   {object}  models.Response
// @Failure      401   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /conversations [post]
func (rh *RestHandler) CreateConversation(ctx *gin.Context) {
	initiatorID, ok := rh.callerID(ctx)
	if !ok {
		return
	}

	var body models.CreateConversationRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		rh.abortWithError(ctx, errs.Validation(errs.ErrInvalidRequestBody))
		return
	}

	conversation, err := rh.chatService.FindOrCreateConversation(ctx.Request.Context(), initiatorID, body.ReceiverID)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgConversationReady,
		Data:    conversation.ToConversationResponse(),
	})
}

// GetUserConversations godoc
// @Summary      List the caller's conversations
// @Description  Most recently active first
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page, starting at 1"
// @Param        size  query     int  false  "Page size, at most 100"
// @Success      200   {object}  models.Response{data=views.ConversationList}
// @Failure      401   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /conversations [get]
func (rh *RestHandler) GetUserConversations(ctx *gin.Context) {
	userID, ok := rh.callerID(ctx)
	if !ok {
		return
	}
	page, size := utils.ParsePage(ctx.Query("page"), ctx.Query("size"))

	conversations, err := rh.chatService.ListUserConversations(ctx.Request.Context(), userID, page, size)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    conversations,
	})
}

// GetConversation godoc
// @Summary      Get a conversation
// @Description  Conversation view with its most recent messages
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  models.Response{data=views.ConversationView}
// @Failure      403  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Router       /conversations/{id} [get]
func (rh *RestHandler) GetConversation(ctx *gin.Context) {
	userID, ok := rh.callerID(ctx)
	if !ok {
		return
	}

	conversation, err := rh.chatService.GetConversation(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    conversation,
	})
}

// GetMessagesByConversationID godoc
// @Summary      List messages of a conversation
// @Description  Page 1 holds the newest messages; each page is ordered oldest first
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true   "Conversation ID"
// @Param        page  query     int     false  "Page, starting at 1"
// @Param        size  query     int     false  "Page size, at most 100"
// @Success      200   {object}  models.Response{data=views.MessageList}
// @Failure      403   {object}  models.Response
// @Failure      404   {object}  models.Response
// @Router       /conversations/{id}/messages [get]
func (rh *RestHandler) GetMessagesByConversationID(ctx *gin.Context) {
	userID, ok := rh.callerID(ctx)
	if !ok {
		return
	}
	page, size := utils.ParsePage(ctx.Query("page"), ctx.Query("size"))

	messages, err := rh.chatService.ListMessages(ctx.Request.Context(), ctx.Param("id"), userID, page, size)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    messages,
	})
}

// SaveMessage godoc
// @Summary      Send a message
// @Description  Stores the message and notifies the other member
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.MessageRequest  true  "Message"
// @Success      200   {object}  models.Response{data=models.MessageResponse}
// @Failure      400   {object}  models.Response
// @Failure      403   {object}  models.Response
// @Failure      404   {object}  models.Response
// @Router       /messages [post]
func (rh *RestHandler) SaveMessage(ctx *gin.Context) {
	senderID, ok := rh.callerID(ctx)
	if !ok {
		return
	}

	var messageRequest models.MessageRequest
	if err := ctx.ShouldBindJSON(&messageRequest); err != nil {
		rh.abortWithError(ctx, errs.Validation(errs.ErrInvalidRequest))
		return
	}

	message, err := rh.chatService.SendMessage(ctx.Request.Context(), messageRequest.ConversationID, senderID, messageRequest.Content)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgMessageSent,
		Data:    message.ToMessageResponse(),
	})
}

// GetMessage godoc
// @Summary      Get a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  models.Response{data=models.MessageResponse}
// @Failure      404  {object}  models.Response
// @Router       /messages/{id} [get]
func (rh *RestHandler) GetMessage(ctx *gin.Context) {
	userID, ok := rh.callerID(ctx)
	if !ok {
		return
	}

	message, err := rh.chatService.GetMessage(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    message.ToMessageResponse(),
	})
}

// GetNotifications godoc
// @Summary      List the caller's notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page, starting at 1"
// @Param        size  query     int  false  "Page size, at most 100"
// @Success      200   {object}  models.Response{data=models.NotificationListResponse}
// @Failure      500   {object}  models.Response
// @Router       /notifications [get]
func (rh *RestHandler) GetNotifications(ctx *gin.Context) {
	userID, ok := rh.callerID(ctx)
	if !ok {
		return
	}
	page, size := utils.ParsePage(ctx.Query("page"), ctx.Query("size"))

	notifications, err := rh.notificationService.List(ctx.Request.Context(), userID, page, size)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    notifications,
	})
}

// MarkNotificationsRead godoc
// @Summary      Mark notifications as read
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.MarkNotificationsReadRequest  true  "Notification IDs"
// @Success      200   {object}  models.Response
// @Failure      400   {object}  models.Response
// @Router       /notifications/read [patch]
func (rh *RestHandler) MarkNotificationsRead(ctx *gin.Context) {
	if _, ok := rh.callerID(ctx); !ok {
		return
	}

	var body models.MarkNotificationsReadRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		rh.abortWithError(ctx, errs.Validation(errs.ErrInvalidRequestBody))
		return
	}

	if err := rh.notificationService.MarkRead(ctx.Request.Context(), body.IDs); err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgNotificationsMarkedRead,
	})
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  models.Response
// @Router       /healthz [get]
func (rh *RestHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
	})
}

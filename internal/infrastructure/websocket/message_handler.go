package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/go-playground/validator/v10"

	"groupchat/internal/domain/service"
	"groupchat/internal/usecase"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

// Inbound message types.
const (
	TypePing          = "ping"
	TypeLogin         = "login"
	TypeLogout        = "logout"
	TypeSelectChannel = "select_channel"
	TypeToggleFormat  = "toggle_format"
	TypeSendMessage   = "send_message"
	TypeSendMedia     = "send_media"
	TypeTyping        = "typing"
	TypeCreateGroup   = "create_group"
	TypeJoinGroup     = "join_group"
	TypeConfirmJoin   = "confirm_join"
	TypeSearchGIFs    = "search_gifs"
)

// Outbound-only types; the rest come from the usecase event names.
const (
	TypePong    = "pong"
	TypeSent    = "sent"
	TypeCreated = "group_created"
)

const handleTimeout = 15 * time.Second

// WSMessage is the outbound envelope.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// InboundMessage is the client envelope. Data is decoded per type.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type toggleFormatData struct {
	Format string `json:"format" validate:"required,oneof=bold italic underline"`
}

type sendMessageData struct {
	Text string `json:"text"`
}

type sendMediaData struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

type groupData struct {
	GroupID string `json:"group_id" validate:"required"`
}

type searchData struct {
	Query string `json:"query" validate:"required,max=100"`
}

// MessageHandler routes client frames to a session.
type MessageHandler struct {
	validate *validator.Validate
}

func NewMessageHandler() *MessageHandler {
	return &MessageHandler{validate: validator.New()}
}

// HandleClientMessage decodes one frame and applies it to session. Failures
// are reported to the client as error events.
func (h *MessageHandler) HandleClientMessage(ctx context.Context, client *Client, session *usecase.Session, raw []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		client.Emit(usecase.EventError, usecase.ErrorEvent(errors.BadRequest("Invalid message format", err)))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := h.route(ctx, client, session, msg); err != nil {
		h.report(client, session, msg.Type, err)
	}
}

func (h *MessageHandler) route(ctx context.Context, client *Client, session *usecase.Session, msg InboundMessage) error {
	switch msg.Type {
	case TypePing:
		client.Emit(TypePong, map[string]string{"status": "alive"})
		return nil

	case TypeLogin:
		var in usecase.LoginInput
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		identity, err := session.Login(ctx, in)
		if err != nil {
			return err
		}
		client.SetUserID(identity.UID)
		return nil

	case TypeLogout:
		client.SetUserID("")
		return session.Logout(ctx)

	case TypeSelectChannel:
		var in usecase.SelectInput
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		return session.SelectChannel(ctx, in)

	case TypeToggleFormat:
		var in toggleFormatData
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		_, err := session.ToggleFormat(in.Format)
		return err

	case TypeSendMessage:
		var in sendMessageData
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		sent, err := session.SendMessage(ctx, in.Text)
		if err != nil {
			return err
		}
		client.Emit(TypeSent, sent)
		return nil

	case TypeSendMedia:
		var in sendMediaData
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		sent, err := session.SendMedia(ctx, in.ImageURL)
		if err != nil {
			return err
		}
		client.Emit(TypeSent, sent)
		return nil

	case TypeTyping:
		return session.Typing(ctx)

	case TypeCreateGroup:
		var in usecase.CreateGroupInput
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		group, err := session.CreateGroup(ctx, in)
		if err != nil {
			return err
		}
		client.Emit(TypeCreated, group)
		return nil

	case TypeJoinGroup:
		var in groupData
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		_, err := session.JoinGroup(ctx, in.GroupID)
		return err

	case TypeConfirmJoin:
		var in usecase.ConfirmJoinInput
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		_, err := session.ConfirmJoin(ctx, in)
		return err

	case TypeSearchGIFs:
		var in searchData
		if err := h.decode(msg.Data, &in); err != nil {
			return err
		}
		_, err := session.SearchGIFs(ctx, in.Query)
		return err

	default:
		return errors.BadRequest("Unknown message type: "+msg.Type, nil)
	}
}

func (h *MessageHandler) decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.BadRequest("Invalid message data", err)
	}
	if err := h.validate.Struct(out); err != nil {
		return errors.BadRequest(validationMessage(err), err)
	}
	return nil
}

func (h *MessageHandler) report(client *Client, session *usecase.Session, msgType string, err error) {
	var rej *service.Rejection
	if stderrors.As(err, &rej) {
		return
	}
	logger.Debug("WebSocket: %s from session %s failed: %v", msgType, session.ID(), err)
	client.Emit(usecase.EventError, usecase.ErrorEvent(err))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid message data"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "url":
		return fe.Field() + " must be a valid URL"
	case "min", "max":
		return fe.Field() + " has an invalid length"
	}
	return fe.Field() + " is invalid"
}

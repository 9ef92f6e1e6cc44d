package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/proto"
	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/service/chat"
)

// WSHandler upgrades HTTP connections and bridges them to the realtime hub.
// Identity comes from the connect headers and is bound for the whole session;
// connections that declare none stay open but receive nothing and may not send.
type WSHandler struct {
	hub       *realtime.Hub
	lifecycle *realtime.Lifecycle
	chat      *chat.Service
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *realtime.Hub, lifecycle *realtime.Lifecycle, chatSvc *chat.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, lifecycle: lifecycle, chat: chatSvc, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	sess := realtime.NewSession()
	h.lifecycle.HandleConnect(ctx, sess, r.Header.Get(realtime.IdentityHeader))

	userID, _ := sess.UserID()
	client := realtime.NewClient(uuid.NewString(), userID)
	if userID > 0 {
		h.hub.Register(client, realtime.UserTopics(userID)...)
	}
	defer func() {
		h.hub.Unregister(client)
		// request context may already be gone when the peer vanished
		h.lifecycle.HandleDisconnect(context.Background(), sess)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *realtime.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if protoErr := h.handleInbound(ctx, sess, inbound); protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
		}
	}
}

func (h *WSHandler) handleInbound(ctx context.Context, sess *realtime.Session, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeChatSend:
		userID, ok := sess.UserID()
		if !ok {
			return &proto.Error{Code: "unauthorized", Msg: "identity required"}
		}

		var data proto.ChatSendData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: "bad_request", Msg: "invalid chat.send payload"}
		}

		if _, err := h.chat.Send(ctx, userID, data.ReceiverID, data.Content); err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				return &proto.Error{Code: "bad_request", Msg: "message content is empty"}
			}
			h.log.Error().Err(err).Int64("sender_id", userID).Msg("ws chat send failed")
			return &proto.Error{Code: "internal", Msg: "failed to send message"}
		}
		return nil
	default:
		return &proto.Error{Code: "bad_request", Msg: "unknown message type"}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *realtime.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out := proto.Outbound{
				Type:  proto.OutboundTypeEvent,
				Topic: event.Topic,
				Data:  event.Data,
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

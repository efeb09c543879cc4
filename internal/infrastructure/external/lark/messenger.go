package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"go.uber.org/zap"
)

const (
	receiveByEmail = "email"
	msgTypeText    = "text"
)

// sendFunc delivers one message body to a receiver of the given id type
type sendFunc func(ctx context.Context, receiveIDType string, body *larkIm.CreateMessageReqBody) (*larkIm.CreateMessageResp, error)

// Messenger implements port.ChatMessenger, addressing users by email
type Messenger struct {
	send   sendFunc
	logger *zap.Logger
}

// NewMessenger creates a messenger on top of the SDK client
func NewMessenger(sdk *SDKClient, logger *zap.Logger) *Messenger {
	create := sdk.GetClient().Im.Message.Create
	return &Messenger{
		send: func(ctx context.Context, receiveIDType string, body *larkIm.CreateMessageReqBody) (*larkIm.CreateMessageResp, error) {
			req := larkIm.NewCreateMessageReqBuilder().
				ReceiveIdType(receiveIDType).
				Body(body).
				Build()
			return create(ctx, req)
		},
		logger: logger,
	}
}

// textBody builds a plain text message addressed to email
func textBody(email, text string) (*larkIm.CreateMessageReqBody, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return larkIm.NewCreateMessageReqBodyBuilder().
		ReceiveId(email).
		MsgType(msgTypeText).
		Content(string(content)).
		Build(), nil
}

// SendText sends a plain text message to the Lark account registered with email
func (m *Messenger) SendText(ctx context.Context, email, text string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	body, err := textBody(email, text)
	if err != nil {
		return err
	}

	resp, err := m.send(ctx, receiveByEmail, body)
	if err != nil {
		m.logger.Error("Failed to send Lark message", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("Lark API returned failure",
			zap.String("email", email),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Lark message sent", zap.String("email", email), zap.String("message_id", messageID))
	return nil
}

var _ port.ChatMessenger = (*Messenger)(nil)

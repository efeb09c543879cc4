package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	receiveIDType string
	body          *larkIm.CreateMessageReqBody
}

func stubMessenger(resp *larkIm.CreateMessageResp, err error, sent *[]sentMessage) *Messenger {
	return &Messenger{
		send: func(_ context.Context, receiveIDType string, body *larkIm.CreateMessageReqBody) (*larkIm.CreateMessageResp, error) {
			*sent = append(*sent, sentMessage{receiveIDType: receiveIDType, body: body})
			return resp, err
		},
		logger: zap.NewNop(),
	}
}

func TestMessenger_SendText(t *testing.T) {
	id := "om_123"
	var sent []sentMessage
	m := stubMessenger(&larkIm.CreateMessageResp{Data: &larkIm.CreateMessageRespData{MessageId: &id}}, nil, &sent)

	require.NoError(t, m.SendText(context.Background(), "an@example.com", "Expense claim paid\n\"#12\""))
	require.Len(t, sent, 1)

	assert.Equal(t, "email", sent[0].receiveIDType)
	body := sent[0].body
	require.NotNil(t, body)
	require.NotNil(t, body.ReceiveId)
	require.NotNil(t, body.MsgType)
	require.NotNil(t, body.Content)
	assert.Equal(t, "an@example.com", *body.ReceiveId)
	assert.Equal(t, "text", *body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, "Expense claim paid\n\"#12\"", content["text"])
}

func TestTextBody(t *testing.T) {
	body, err := textBody("an@example.com", "a <b> & \"c\"")
	require.NoError(t, err)

	assert.Equal(t, "an@example.com", *body.ReceiveId)
	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, "a <b> & \"c\"", content["text"])
}

func TestMessenger_APIFailure(t *testing.T) {
	var sent []sentMessage
	resp := &larkIm.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230001, Msg: "user not found"}}
	m := stubMessenger(resp, nil, &sent)

	err := m.SendText(context.Background(), "ghost@example.com", "hi")
	assert.ErrorContains(t, err, "230001")
	assert.Len(t, sent, 1)
}

func TestMessenger_TransportFailure(t *testing.T) {
	var sent []sentMessage
	m := stubMessenger(nil, errors.New("timeout"), &sent)

	assert.ErrorContains(t, m.SendText(context.Background(), "an@example.com", "hi"), "timeout")
}

func TestMessenger_ValidatesInput(t *testing.T) {
	var sent []sentMessage
	m := stubMessenger(nil, nil, &sent)

	assert.Error(t, m.SendText(context.Background(), "", "hi"))
	assert.Error(t, m.SendText(context.Background(), "an@example.com", ""))
	assert.Empty(t, sent)
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{AppID: "cli_x"}.Enabled())
	assert.True(t, Config{AppID: "cli_x", AppSecret: "s"}.Enabled())
}

package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

func TestSendGridDispatcher_Send(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var payload map[string]interface{}
	httpmock.RegisterResponder(http.MethodPost, sendGridURL,
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusAccepted, ""), nil
		})

	d := NewSendGridDispatcher("SG.test", "cho@example.ph", "City Health Office")
	err := d.Send(context.Background(), "encoder@example.ph", Message{
		Subject: "Pending report reminder",
		Text:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	assert.Equal(t, "Pending report reminder", payload["subject"])
	content := payload["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "text/plain", content[0].(map[string]interface{})["type"])
	assert.Equal(t, "text/html", content[1].(map[string]interface{})["type"])
}

func TestSendGridDispatcher_RejectedStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, sendGridURL,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"errors":[{"message":"invalid email"}]}`))

	d := NewSendGridDispatcher("SG.test", "cho@example.ph", "City Health Office")
	err := d.Send(context.Background(), "not-an-address", Message{Subject: "s", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendGridDispatcher_TextOnly(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var contentLen int
	httpmock.RegisterResponder(http.MethodPost, sendGridURL,
		func(req *http.Request) (*http.Response, error) {
			var payload struct {
				Content []json.RawMessage `json:"content"`
			}
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				return nil, err
			}
			contentLen = len(payload.Content)
			return httpmock.NewStringResponse(http.StatusAccepted, ""), nil
		})

	d := NewSendGridDispatcher("SG.test", "cho@example.ph", "")
	require.NoError(t, d.Send(context.Background(), "a@example.ph", Message{Subject: "s", Text: "t"}))
	assert.Equal(t, 1, contentLen)
}

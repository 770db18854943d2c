package webhook

import (
	"strings"

	"github.com/spigell/pawmatch/internal/fulfillment"
)

// inbound accepts both the flat request and the Dialogflow CX WebhookRequest.
type inbound struct {
	Tag               string         `json:"tag"`
	SessionParameters map[string]any `json:"session_parameters"`
	ConversationID    string         `json:"conversation_id"`
	CurrentPage       string         `json:"current_page"`
	RawText           string         `json:"raw_text"`

	FulfillmentInfo *struct {
		Tag string `json:"tag"`
	} `json:"fulfillmentInfo"`
	SessionInfo *struct {
		Session    string         `json:"session"`
		Parameters map[string]any `json:"parameters"`
	} `json:"sessionInfo"`
	PageInfo *struct {
		CurrentPage string `json:"currentPage"`
		DisplayName string `json:"displayName"`
	} `json:"pageInfo"`
	Text string `json:"text"`
}

func (in inbound) isCX() bool {
	return in.FulfillmentInfo != nil || in.SessionInfo != nil
}

func (in inbound) request() fulfillment.Request {
	if !in.isCX() {
		return fulfillment.Request{
			Tag:               in.Tag,
			SessionParameters: in.SessionParameters,
			ConversationID:    in.ConversationID,
			CurrentPage:       in.CurrentPage,
			RawText:           in.RawText,
		}
	}

	req := fulfillment.Request{RawText: in.Text}
	if in.FulfillmentInfo != nil {
		req.Tag = in.FulfillmentInfo.Tag
	}
	if in.SessionInfo != nil {
		req.ConversationID = sessionID(in.SessionInfo.Session)
		req.SessionParameters = in.SessionInfo.Parameters
	}
	if in.PageInfo != nil {
		req.CurrentPage = in.PageInfo.DisplayName
		if req.CurrentPage == "" {
			req.CurrentPage = in.PageInfo.CurrentPage
		}
	}
	return req
}

// sessionID extracts the trailing id from projects/.../sessions/<id>.
func sessionID(session string) string {
	session = strings.TrimRight(strings.TrimSpace(session), "/")
	if i := strings.LastIndex(session, "/sessions/"); i >= 0 {
		return session[i+len("/sessions/"):]
	}
	return session
}

type cxText struct {
	Text []string `json:"text"`
}

type cxMessage struct {
	Text cxText `json:"text"`
}

type cxResponse struct {
	FulfillmentResponse struct {
		Messages []cxMessage `json:"messages"`
	} `json:"fulfillmentResponse"`
	SessionInfo struct {
		Parameters map[string]any `json:"parameters,omitempty"`
	} `json:"sessionInfo"`
	Payload map[string]any `json:"payload,omitempty"`
}

func cxResponseFrom(resp *fulfillment.Response) cxResponse {
	var out cxResponse
	for _, msg := range resp.Messages {
		if text := msg.Render(); text != "" {
			out.FulfillmentResponse.Messages = append(out.FulfillmentResponse.Messages, cxMessage{Text: cxText{Text: []string{text}}})
		}
	}
	out.SessionInfo.Parameters = resp.SessionParametersPatch
	out.Payload = map[string]any{
		"status":   string(resp.Status),
		"messages": resp.Messages,
	}
	return out
}

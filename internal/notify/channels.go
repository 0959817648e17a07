package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DingTalkChannel posts to a DingTalk group robot webhook.
type DingTalkChannel struct {
	WebhookURL string
	AtMobiles  []string
	AtAll      bool

	client *http.Client
}

func (c *DingTalkChannel) Name() string { return "dingtalk" }

func (c *DingTalkChannel) Send(ctx context.Context, title, content string) Result {
	if c.WebhookURL == "" {
		return errResult("webhook URL is not set")
	}

	payload := map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": title + "\n" + content},
		"at": map[string]any{
			"atMobiles": c.AtMobiles,
			"isAtAll":   c.AtAll,
		},
	}

	return postJSON(ctx, c.httpClient(), c.WebhookURL, payload)
}

func (c *DingTalkChannel) httpClient() *http.Client {
	if c.client == nil {
		c.client = newChannelClient()
	}

	return c.client
}

// WeChatChannel posts to a WeChat Work group robot webhook.
type WeChatChannel struct {
	WebhookURL string

	client *http.Client
}

func (c *WeChatChannel) Name() string { return "wechat" }

func (c *WeChatChannel) Send(ctx context.Context, title, content string) Result {
	if c.WebhookURL == "" {
		return errResult("webhook URL is not set")
	}

	payload := map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": title + "\n" + content},
	}

	return postJSON(ctx, c.httpClient(), c.WebhookURL, payload)
}

func (c *WeChatChannel) httpClient() *http.Client {
	if c.client == nil {
		c.client = newChannelClient()
	}

	return c.client
}

// BarkChannel pushes through a Bark server.
type BarkChannel struct {
	ServerURL      string
	InterruptLevel string
	Sound          string

	client *http.Client
}

func (c *BarkChannel) Name() string { return "bark" }

func (c *BarkChannel) Send(ctx context.Context, title, content string) Result {
	if c.ServerURL == "" {
		return errResult("server URL is not set")
	}

	payload := map[string]string{
		"title": title,
		"body":  content,
	}
	if c.InterruptLevel != "" {
		payload["level"] = c.InterruptLevel
	}

	if c.Sound != "" {
		payload["sound"] = c.Sound
	}

	return postJSON(ctx, c.httpClient(), c.ServerURL, payload)
}

func (c *BarkChannel) httpClient() *http.Client {
	if c.client == nil {
		c.client = newChannelClient()
	}

	return c.client
}

// NtfyChannel publishes to an ntfy topic. Metadata rides in headers, the
// content is the request body.
type NtfyChannel struct {
	ServerURL string
	Tags      string
	ActionURL string
	Email     string

	client *http.Client
}

func (c *NtfyChannel) Name() string { return "ntfy" }

func (c *NtfyChannel) Send(ctx context.Context, title, content string) Result {
	if c.ServerURL == "" {
		return errResult("server URL is not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ServerURL, strings.NewReader(content))
	if err != nil {
		return errResult("failed to build request: %v", err)
	}

	req.Header.Set("Title", title)

	if c.Tags != "" {
		req.Header.Set("Tags", c.Tags)
	}

	if c.ActionURL != "" {
		req.Header.Set("Actions", "view, Open, "+c.ActionURL)
	}

	if c.Email != "" {
		req.Header.Set("Email", c.Email)
	}

	return doRequest(c.httpClient(), req)
}

func (c *NtfyChannel) httpClient() *http.Client {
	if c.client == nil {
		c.client = newChannelClient()
	}

	return c.client
}

// TelegramChannel sends through the Bot API, optionally via a proxy.
type TelegramChannel struct {
	ChatID string
	Token  string
	Proxy  string

	client *http.Client
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(ctx context.Context, title, content string) Result {
	if c.Token == "" || c.ChatID == "" {
		return errResult("token or chat id is not set")
	}

	client, err := c.httpClient()
	if err != nil {
		return errResult("invalid proxy: %v", err)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.Token)
	payload := map[string]string{
		"chat_id": c.ChatID,
		"text":    title + "\n" + content,
	}

	return postJSON(ctx, client, endpoint, payload)
}

func (c *TelegramChannel) httpClient() (*http.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	client := newChannelClient()

	if c.Proxy != "" {
		proxyURL, err := url.Parse(c.Proxy)
		if err != nil {
			return nil, err
		}

		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		client.Transport = transport
	}

	c.client = client

	return client, nil
}

// ServerChanChannel pushes through ServerChan (sc3/turbo send keys).
type ServerChanChannel struct {
	SendKey string
	Channel int
	Tags    string

	// BaseURL overrides the ServerChan API host, used in tests.
	BaseURL string

	client *http.Client
}

func (c *ServerChanChannel) Name() string { return "serverchan" }

func (c *ServerChanChannel) Send(ctx context.Context, title, content string) Result {
	if c.SendKey == "" {
		return errResult("send key is not set")
	}

	base := c.BaseURL
	if base == "" {
		base = "https://sctapi.ftqq.com"
	}

	endpoint := fmt.Sprintf("%s/%s.send", base, c.SendKey)
	payload := map[string]any{
		"title": title,
		"desp":  content,
		"tags":  c.Tags,
	}

	if c.Channel != 0 {
		payload["channel"] = c.Channel
	}

	return postJSON(ctx, c.httpClient(), endpoint, payload)
}

func (c *ServerChanChannel) httpClient() *http.Client {
	if c.client == nil {
		c.client = newChannelClient()
	}

	return c.client
}

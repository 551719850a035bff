package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"shopify-catalog-sync/internal/config"
	"strings"
	"time"
)

const (
	levelInfo    = "INFO"
	levelError   = "ERROR"
	levelWarning = "WARNING"
	levelSuccess = "SUCCESS"

	iconInfo    = "ℹ️"
	iconError   = "❌"
	iconWarning = "⚠️"
	iconSuccess = "✅"

	telegramBaseURL = "https://api.telegram.org"
)

type telegramRequest struct {
	ChatId string `json:"chat_id"`
	Text   string `json:"text"`
}

// Telegram posts notifications to a bot chat.
type Telegram struct {
	creds      config.TelegramBotConfig
	baseURL    string
	httpClient *http.Client
}

// NewTelegram returns nil when credentials are incomplete, so callers can
// pass the result straight to NewLogger.
func NewTelegram(creds config.TelegramBotConfig, httpClient *http.Client) *Telegram {
	if strings.TrimSpace(creds.ChatId) == "" || strings.TrimSpace(creds.Token) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{creds: creds, baseURL: telegramBaseURL, httpClient: httpClient}
}

func (t *Telegram) Send(level, value string) error {
	if t == nil {
		return nil
	}
	return t.sendRequest(formatMessage(level, value))
}

func formatMessage(level, value string) string {
	icon := iconInfo
	switch level {
	case levelError:
		icon = iconError
	case levelWarning:
		icon = iconWarning
	case levelSuccess:
		icon = iconSuccess
	}
	return fmt.Sprintf("%s %s: %s", icon, level, normalize(value))
}

func (t *Telegram) sendRequest(value string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.baseURL, "/"), t.creds.Token)

	bodyBytes, err := json.Marshal(telegramRequest{
		ChatId: t.creds.ChatId,
		Text:   value,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

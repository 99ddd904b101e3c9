// Package notify turns events into chat messages and delivers them through
// the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/5TUM8L3/quakealert/internal/httpclient"
	"github.com/5TUM8L3/quakealert/internal/quake"
)

// Result classifies one Notify call.
type Result int

const (
	Skipped Result = iota // incomplete event, nothing sent
	Sent
	Failed
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome carries the result and, for Failed, the cause.
type Outcome struct {
	Result Result
	Err    error
}

// StatusError is returned for non-2xx webhook responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("telegram http %d: %s", e.Code, e.Body)
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type Options struct {
	APIURL  string
	Token   string
	ChatID  string
	Timeout time.Duration
	DryRun  bool
}

// Telegram posts alerts to one chat.
type Telegram struct {
	endpoint string
	chatID   string
	dryRun   bool
	http     *http.Client
	logger   *zap.Logger
}

func NewTelegram(opts Options, logger *zap.Logger) *Telegram {
	return &Telegram{
		endpoint: strings.TrimRight(opts.APIURL, "/") + "/bot" + opts.Token + "/sendMessage",
		chatID:   opts.ChatID,
		dryRun:   opts.DryRun,
		http:     httpclient.New(opts.Timeout),
		logger:   logger.Named("telegram"),
	}
}

// Notify formats ev and sends it. Incomplete events are skipped before any
// network call.
func (t *Telegram) Notify(ctx context.Context, ev quake.Event) Outcome {
	msg, ok := Format(ev)
	if !ok {
		t.logger.Debug("event incomplete, skipped", zap.String("id", ev.ID))
		return Outcome{Result: Skipped}
	}
	if err := t.Send(ctx, msg); err != nil {
		t.logger.Warn("notification failed", zap.String("id", ev.ID), zap.Error(err))
		return Outcome{Result: Failed, Err: err}
	}
	t.logger.Info("notification sent", zap.String("id", ev.ID))
	return Outcome{Result: Sent}
}

// Send posts text as-is. There is no retry.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.dryRun {
		t.logger.Info("dry-run message", zap.String("text", text))
		return nil
	}
	b, err := json.Marshal(sendMessage{
		ChatID:                t.chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := t.http.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Package notify delivers the end-of-run summary to an HTTP webhook and/or a
// local shell command. Delivery problems are reported to the caller but are
// never supposed to fail a run; a flaky chat integration must not turn a
// green build red.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoqa/market-test-harness/config"
	"github.com/cryptoqa/market-test-harness/reports"
)

type Notifier struct {
	webhookURL string
	command    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFromConfig builds a Notifier from the notify.* section of the effective
// configuration. Both channels are optional.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		webhookURL: cfg.GetString("notify.webhook_url", ""),
		command:    cfg.GetString("notify.command", ""),
		httpClient: &http.Client{Timeout: cfg.GetDuration("notify.timeout", 10*time.Second)},
		logger:     logger.Named("notify"),
	}
}

// Enabled reports whether any delivery channel is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != "" || n.command != ""
}

// Send delivers the summary to every configured channel. The first delivery
// error is returned after all channels have been attempted.
func (n *Notifier) Send(ctx context.Context, summary reports.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	var firstErr error
	if n.webhookURL != "" {
		if err := n.sendWebhook(ctx, payload); err != nil {
			n.logger.Warn("webhook notification failed", zap.Error(err))
			firstErr = err
		}
	}
	if n.command != "" {
		if err := n.runCommand(ctx, payload); err != nil {
			n.logger.Warn("command notification failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *Notifier) sendWebhook(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	n.logger.Info("sent webhook notification", zap.String("url", n.webhookURL))
	return nil
}

// runCommand pipes the summary JSON into the configured shell command.
func (n *Notifier) runCommand(ctx context.Context, payload []byte) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", n.command)
	cmd.Stdin = bytes.NewReader(payload)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w (output: %s)", err, bytes.TrimSpace(out))
	}
	n.logger.Info("ran notification command", zap.String("command", n.command))
	return nil
}

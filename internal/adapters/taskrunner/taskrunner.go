// Package taskrunner executes queued tasks: SMTP delivery for email tasks and
// outbound HTTP calls for webhook tasks.
package taskrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

const (
	// maxResponseBodyBytes bounds webhook response logging.
	maxResponseBodyBytes = 4 * 1024
	// minSendInterval is the SMTP throttle: consecutive sends are spaced at
	// least this far apart.
	minSendInterval = time.Second
)

// CatchAllOptions redirects outbound mail in test environments: when the
// matcher matches the text body, every recipient is replaced.
type CatchAllOptions struct {
	Recipient   string
	TextMatcher *regexp.Regexp
}

// SMTPOptions configures the mail transport.
type SMTPOptions struct {
	// Address is the relay endpoint as host:port.
	Address  string
	Username string
	Password string
	CatchAll *CatchAllOptions
}

// RunnerOptions configures the task runner adapter.
type RunnerOptions struct {
	// SMTP is required to deliver email tasks; without it they fail.
	SMTP       *SMTPOptions
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Runner delivers tasks pulled from the queue.
type Runner struct {
	mailer   *gomail.Client
	from     string
	catchAll *CatchAllOptions
	http     *http.Client
	logger   *slog.Logger

	// throttle serializes SMTP sends and enforces the send interval.
	throttle sync.Mutex
	lastSend time.Time
}

// NewRunner constructs a task runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	r := &Runner{
		http:   httpClient,
		logger: logger,
	}

	if opts.SMTP != nil {
		mailer, err := newMailClient(*opts.SMTP)
		if err != nil {
			return nil, fmt.Errorf("configure mail transport: %w", err)
		}
		r.mailer = mailer
		r.from = opts.SMTP.Username
		r.catchAll = opts.SMTP.CatchAll
	}

	return r, nil
}

func newMailClient(opts SMTPOptions) (*gomail.Client, error) {
	host, portStr, err := net.SplitHostPort(opts.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp address %q: %w", opts.Address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", portStr, err)
	}

	clientOpts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}
	return gomail.NewClient(host, clientOpts...)
}

// ExecuteTask delivers a single task.
func (r *Runner) ExecuteTask(ctx context.Context, task model.Task) error {
	switch task.Type.Kind {
	case model.TaskKindEmail:
		if task.Type.Email == nil {
			return apperrors.Internal("email task payload is not set")
		}
		return r.executeEmail(ctx, task, *task.Type.Email)
	case model.TaskKindHTTP:
		if task.Type.HTTP == nil {
			return apperrors.Internal("http task payload is not set")
		}
		return r.executeHTTP(ctx, task, *task.Type.HTTP)
	default:
		return apperrors.Internalf("unknown task kind %q", task.Type.Kind)
	}
}

func (r *Runner) executeEmail(ctx context.Context, task model.Task, payload model.EmailTaskType) error {
	if r.mailer == nil {
		return errors.New("smtp transport is not configured")
	}

	content, err := renderEmailContent(payload.Content)
	if err != nil {
		return fmt.Errorf("render email content: %w", err)
	}

	recipients, err := r.resolveRecipients(ctx, payload.To, content.Text)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(r.from); err != nil {
		return fmt.Errorf("set sender %q: %w", r.from, err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(content.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, content.Text)
	if content.HTML != nil {
		msg.AddAlternativeString(gomail.TypeTextHTML, *content.HTML)
	}

	r.waitForSendSlot()
	if err := r.mailer.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	r.logger.InfoContext(ctx, "email task delivered",
		"task_id", task.ID, "recipients", len(recipients), "subject", content.Subject)
	return nil
}

// waitForSendSlot spaces SMTP sends at least minSendInterval apart.
func (r *Runner) waitForSendSlot() {
	r.throttle.Lock()
	defer r.throttle.Unlock()

	if wait := minSendInterval - time.Since(r.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	r.lastSend = time.Now()
}

// resolveRecipients validates the address list and applies the catch-all
// redirect when its body matcher fires.
func (r *Runner) resolveRecipients(ctx context.Context, to []string, textBody string) ([]string, error) {
	if len(to) == 0 {
		return nil, errors.New("email task has no recipients")
	}
	for _, address := range to {
		if _, err := mail.ParseAddress(address); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", address, err)
		}
	}

	if r.catchAll != nil && r.catchAll.TextMatcher != nil && r.catchAll.TextMatcher.MatchString(textBody) {
		r.logger.InfoContext(ctx, "redirecting email to catch-all recipient",
			"recipient", r.catchAll.Recipient, "original_recipients", len(to))
		return []string{r.catchAll.Recipient}, nil
	}
	return to, nil
}

func (r *Runner) executeHTTP(ctx context.Context, task model.Task, payload model.HTTPTaskType) error {
	method := http.MethodPost
	if payload.Method != nil {
		method = strings.ToUpper(*payload.Method)
	}

	var body io.Reader
	if len(payload.Body) > 0 {
		body = bytes.NewReader(payload.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, payload.URL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for name, value := range payload.Headers {
		req.Header.Set(name, value)
	}
	if req.Header.Get("Content-Type") == "" && len(payload.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	respBody, truncated, readErr := readResponseBody(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}

	r.logger.InfoContext(ctx, "http task delivered",
		"task_id", task.ID, "url", payload.URL, "status", resp.StatusCode,
		"response", respBody, "response_truncated", truncated)
	return nil
}

func readResponseBody(body io.Reader) (string, bool, error) {
	if body == nil {
		return "", false, nil
	}
	limited := io.LimitReader(body, maxResponseBodyBytes+1)
	data, readErr := io.ReadAll(limited)
	truncated := len(data) > maxResponseBodyBytes
	if truncated {
		data = data[:maxResponseBodyBytes]
		if _, drainErr := io.Copy(io.Discard, body); drainErr != nil && readErr == nil {
			readErr = drainErr
		}
	}
	return string(data), truncated, readErr
}

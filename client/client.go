package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UserHeader carries the backend user id on every authenticated call.
const UserHeader = "X-User-ID"

// Client talks to the remote backend. Every response is a
// {success, message, data} envelope; success=false is a failure even on 200.
type Client struct {
	baseURL string
	http    *http.Client
	limiter <-chan time.Time
	tracer  trace.Tracer
	logger  *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit paces requests to perMin per minute; 0 disables pacing.
func WithRateLimit(perMin int) Option {
	return func(c *Client) {
		if perMin <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = time.Tick(time.Minute / time.Duration(perMin))
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tracer:  otel.Tracer("shop-console/client"),
		logger:  config.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	token       string
	anonymous   bool
	body        io.Reader
	contentType string
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.limiter:
		return nil
	}
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if !r.anonymous && strings.TrimSpace(r.token) == "" {
		return newValidationError(r.op, models.NewValidationError("user not authenticated"))
	}

	ctx, span := c.tracer.Start(ctx, "client."+r.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.method),
		attribute.String("http.path", r.path),
	)

	err := c.roundTrip(ctx, r, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	if err := c.wait(ctx); err != nil {
		return newTransportError(r.op, "request cancelled", err)
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint = endpoint + "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return newTransportError(r.op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set(UserHeader, r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newTransportError(r.op, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(r.op, "read response", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(env.Message)
		if decodeErr != nil || message == "" {
			message = strings.TrimSpace(string(body))
		}
		if len(message) > 200 {
			message = message[:200]
		}
		return &Error{Kind: KindHTTP, Op: r.op, Status: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return newTransportError(r.op, "invalid response", decodeErr)
	}
	if !env.Success {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = "request was not successful"
		}
		return &Error{Kind: KindDomain, Op: r.op, Status: resp.StatusCode, Message: message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newTransportError(r.op, "invalid response data", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, token, path string, query url.Values, out any) error {
	return c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query, token: token}, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, token, path string, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, request{op: op, method: method, path: path, token: token, body: body, contentType: contentType}, out)
}

// Upload is one file part of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) sendMultipart(ctx context.Context, op, token, path string, fields map[string]string, files map[string]Upload, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("%s: write field %s: %w", op, k, err)
		}
	}
	for field, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("%s: create part %s: %w", op, field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("%s: write part %s: %w", op, field, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: close multipart: %w", op, err)
	}
	return c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		token:       token,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, out)
}

// checkInput runs Validate on inputs that define it, before any request is made.
func checkInput(op string, input any) error {
	v, ok := input.(interface{ Validate() error })
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return newValidationError(op, ve)
	}
	return err
}

// Package mantis is a minimal MantisConnect SOAP client covering the calls
// the support bot makes.
package mantis

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	soapEnvNS    = "http://schemas.xmlsoap.org/soap/envelope/"
	mantisNS     = "http://futureware.biz/mantisconnect"
	maxBodyBytes = 4 << 20
)

// ErrUnexpectedResponse is returned when the tracker answers with something
// that is neither a result nor a fault.
var ErrUnexpectedResponse = errors.New("mantis: unexpected response")

// Config holds the endpoint and credentials sent with every call.
type Config struct {
	Endpoint string
	Username string
	Password string
	Timeout  time.Duration
}

// Client calls MantisConnect operations over SOAP 1.1.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for cfg.Endpoint.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mantis endpoint is required")
	}
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SoapNS  string   `xml:"xmlns:soapenv,attr"`
	ManNS   string   `xml:"xmlns:man,attr"`
	Body    struct {
		Content any
	} `xml:"soapenv:Body"`
}

type responseEnvelope struct {
	Body struct {
		Fault   *Fault `xml:"Fault"`
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type issueAddRequest struct {
	XMLName  xml.Name  `xml:"man:mc_issue_add"`
	Username string    `xml:"username"`
	Password string    `xml:"password"`
	Issue    IssueData `xml:"issue"`
}

type issueGetRequest struct {
	XMLName  xml.Name `xml:"man:mc_issue_get"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
	IssueID  int64    `xml:"issue_id"`
}

type issueNoteAddRequest struct {
	XMLName  xml.Name `xml:"man:mc_issue_note_add"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
	IssueID  int64    `xml:"issue_id"`
	Note     NoteData `xml:"note"`
}

type projectsRequest struct {
	XMLName  xml.Name `xml:"man:mc_projects_get_user_accessible"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
}

type scalarResponse struct {
	Return string `xml:"return"`
}

type issueResponse struct {
	Return *IssueData `xml:"return"`
}

type projectsResponse struct {
	Return struct {
		Items []ProjectData `xml:"item"`
	} `xml:"return"`
}

// IssueAdd creates an issue and returns its id.
func (c *Client) IssueAdd(ctx context.Context, issue IssueData) (string, error) {
	var resp scalarResponse
	err := c.call(ctx, "mc_issue_add", &issueAddRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		Issue:    issue,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Return), nil
}

// IssueGet fetches an issue by id.
func (c *Client) IssueGet(ctx context.Context, issueID int64) (*IssueData, error) {
	var resp issueResponse
	err := c.call(ctx, "mc_issue_get", &issueGetRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		IssueID:  issueID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Return == nil {
		return nil, fmt.Errorf("%w: mc_issue_get returned no issue", ErrUnexpectedResponse)
	}
	return resp.Return, nil
}

// IssueNoteAdd appends a note to an issue and returns the note id.
func (c *Client) IssueNoteAdd(ctx context.Context, issueID int64, text string) (int64, error) {
	var resp scalarResponse
	err := c.call(ctx, "mc_issue_note_add", &issueNoteAddRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		IssueID:  issueID,
		Note:     NoteData{Text: text},
	}, &resp)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(resp.Return), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: note id %q", ErrUnexpectedResponse, resp.Return)
	}
	return id, nil
}

// ProjectsGetUserAccessible lists the projects the account can see.
func (c *Client) ProjectsGetUserAccessible(ctx context.Context) ([]ProjectData, error) {
	var resp projectsResponse
	err := c.call(ctx, "mc_projects_get_user_accessible", &projectsRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Return.Items, nil
}

func (c *Client) call(ctx context.Context, op string, req, out any) error {
	env := envelope{SoapNS: soapEnvNS, ManNS: mantisNS}
	env.Body.Content = req

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &buf)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", mantisNS+"/"+op)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	c.logger.Debug("mantis call",
		"op", op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	var renv responseEnvelope
	if err := xml.Unmarshal(body, &renv); err != nil {
		return fmt.Errorf("%w: %s: http %d: %v", ErrUnexpectedResponse, op, resp.StatusCode, err)
	}
	if renv.Body.Fault != nil {
		return fmt.Errorf("%s: %w", op, renv.Body.Fault)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: http %d", ErrUnexpectedResponse, op, resp.StatusCode)
	}
	if err := xml.Unmarshal(renv.Body.Content, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

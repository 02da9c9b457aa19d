// Package mcpclient adapts the low-level internal/transport Session into
// the typed set of layout-application operations the document-generation
// pipeline actually calls, and applies the retry policy for transient
// transport errors (spec.md §4.2).
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docgen/internal/transport"
	"docgen/pkg/logging"
)

// Exponential backoff configuration for transient transport errors,
// grounded on the MCP service's connection-retry policy.
const (
	InitialBackoff    = 250 * time.Millisecond
	MaxBackoff        = 5 * time.Second
	BackoffMultiplier = 2.0
	MaxAttempts       = 4
)

// Client is a typed façade over a transport.Session for one layout
// application instance.
type Client struct {
	session     *transport.Session
	application string
	defaultWait time.Duration
}

// New wraps an already-registered Session.
func New(session *transport.Session, application string, defaultWait time.Duration) *Client {
	if defaultWait <= 0 {
		defaultWait = 60 * time.Second
	}
	return &Client{session: session, application: application, defaultWait: defaultWait}
}

// ExecuteScript runs an arbitrary ExtendScript/UXP payload inside the host
// application and returns its raw JSON result.
func (c *Client) ExecuteScript(ctx context.Context, script string, args map[string]any) (json.RawMessage, error) {
	reply, err := c.call(ctx, "executeScript", map[string]any{"script": script, "args": args})
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

// ExportPDFResult is the structured result of an exportPDF command.
type ExportPDFResult struct {
	Path      string `json:"path"`
	PageCount int    `json:"pageCount"`
}

// ExportPDF asks the host application to export the active document using
// the named preset, returning the produced file's path and page count.
func (c *Client) ExportPDF(ctx context.Context, preset string, outputPath string) (ExportPDFResult, error) {
	reply, err := c.call(ctx, "exportPDF", map[string]any{"preset": preset, "outputPath": outputPath})
	if err != nil {
		return ExportPDFResult{}, err
	}
	var result ExportPDFResult
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		return ExportPDFResult{}, fmt.Errorf("mcpclient: malformed exportPDF result: %w", err)
	}
	return result, nil
}

// DocumentInfo is the structured result of a readDocumentInfo command.
type DocumentInfo struct {
	PageCount int      `json:"pageCount"`
	Fonts     []string `json:"fonts"`
	LinkPaths []string `json:"linkPaths"`
}

// ReadDocumentInfo fetches metadata about the currently open document.
func (c *Client) ReadDocumentInfo(ctx context.Context) (DocumentInfo, error) {
	reply, err := c.call(ctx, "readDocumentInfo", nil)
	if err != nil {
		return DocumentInfo{}, err
	}
	var info DocumentInfo
	if err := json.Unmarshal(reply.Result, &info); err != nil {
		return DocumentInfo{}, fmt.Errorf("mcpclient: malformed readDocumentInfo result: %w", err)
	}
	return info, nil
}

// PlaceImage places an image frame at the given page/coordinates.
func (c *Client) PlaceImage(ctx context.Context, page int, imagePath string, x, y, w, h float64) error {
	_, err := c.call(ctx, "placeImage", map[string]any{
		"page": page, "imagePath": imagePath,
		"x": x, "y": y, "width": w, "height": h,
	})
	return err
}

// Health pings the host application without mutating document state.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.call(ctx, "health", nil)
	return err
}

// call applies the retry policy around a single Session.Send, retrying
// only transient transport failures. Application-level errors
// (*transport.ApplicationError) are never retried: the remote application
// processed the command and rejected it, and retrying would just repeat
// the rejection (spec.md §4.2).
func (c *Client) call(ctx context.Context, command string, params map[string]any) (*transport.Reply, error) {
	backoff := InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		env := transport.Envelope{Application: c.application, Command: command, Params: params}
		reply, err := c.session.Send(ctx, env, c.defaultWait)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		var appErr *transport.ApplicationError
		if errors.As(err, &appErr) {
			return nil, err
		}
		if !isTransient(err) {
			return nil, err
		}
		if attempt == MaxAttempts {
			break
		}

		logging.Warn("MCPClient", "transient error calling %q (attempt %d/%d): %v; retrying in %s",
			command, attempt, MaxAttempts, err, backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > MaxBackoff {
			backoff = MaxBackoff
		}
	}

	return nil, fmt.Errorf("mcpclient: %q failed after %d attempts: %w", command, MaxAttempts, lastErr)
}

// isTransient reports whether err is a transport-layer failure worth
// retrying, as opposed to a permanent rejection (closed session, bad
// registration) that retrying cannot fix.
func isTransient(err error) bool {
	if errors.Is(err, transport.ErrTimeout) || errors.Is(err, transport.ErrDisconnected) {
		return true
	}
	if errors.Is(err, transport.ErrClosed) || errors.Is(err, transport.ErrRegistrationRejected) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "i/o timeout", "eof", "broken pipe"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

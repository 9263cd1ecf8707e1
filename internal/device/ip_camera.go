package device

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/logging"
)

// recordFailureBudget is the number of consecutive read failures tolerated
// during Record before aborting, per spec.md §4.1 / §9's resolved open
// question.
const recordFailureBudget = 5

const recordFailureBackoff = 100 * time.Millisecond

// IPCamera drives an RTSP/HTTP-CGI IP camera: no persistent connection is
// held between calls (spec.md §4.1 — "open is a no-op; connections are
// per-request").
type IPCamera struct {
	desc       Descriptor
	httpClient *http.Client
	app        config.ApplicationConfig
	logger     *logging.Logger

	sourceFactory RTSPSourceFactory
	writerFactory VideoWriterFactory
}

// NewIPCamera builds an IPCamera adapter. httpClient is shared across
// devices for connection reuse, the same pooling discipline the teacher's
// mediamtx client.go applies.
func NewIPCamera(desc Descriptor, httpClient *http.Client, app config.ApplicationConfig) *IPCamera {
	return &IPCamera{
		desc:       desc,
		httpClient: httpClient,
		app:        app,
		logger:     logging.GetLogger("device-ip"),
		sourceFactory: func() RTSPSource {
			return NewFFmpegRTSPSource(0, 0)
		},
		writerFactory: NewFFmpegVideoWriter,
	}
}

// Open is a no-op for IP cameras; see the adapter's doc comment.
func (c *IPCamera) Open(ctx context.Context) error { return nil }

// Close is a no-op for IP cameras; there is no persistent handle to
// release.
func (c *IPCamera) Close(ctx context.Context) error { return nil }

func (c *IPCamera) Describe() Descriptor { return c.desc }

func (c *IPCamera) password() (string, error) {
	envVar := PasswordEnvVar(c.desc.IP.Name)
	pw, ok := os.LookupEnv(envVar)
	if !ok {
		return "", NewCredentialError(c.desc.IP.Name, "resolve_password", fmt.Errorf("environment variable %s not set", envVar))
	}
	return pw, nil
}

func (c *IPCamera) httpPort() int {
	if c.desc.IP.HTTPPort != 0 {
		return c.desc.IP.HTTPPort
	}
	return 80
}

func (c *IPCamera) rtspPort() int {
	if c.desc.IP.RTSPPort != 0 {
		return c.desc.IP.RTSPPort
	}
	return 554
}

func (c *IPCamera) snapshotURL() string {
	return fmt.Sprintf("http://%s:%d/cgi-bin/snapshot.cgi?channel=1", c.desc.IP.IP, c.httpPort())
}

func (c *IPCamera) timeURL() string {
	path := c.app.CGITimePath
	if path == "" {
		path = "/cgi-bin/global.cgi?action=getCurrentTime"
	}
	return fmt.Sprintf("http://%s:%d%s", c.desc.IP.IP, c.httpPort(), path)
}

func (c *IPCamera) rtspURL(password string) string {
	return fmt.Sprintf("rtsp://%s:%s@%s:%d%s", c.desc.IP.Username, password, c.desc.IP.IP, c.rtspPort(), c.desc.IP.RTSPPath)
}

// Snapshot issues one Basic-first, Digest-on-401-fallback GET against the
// device's CGI snapshot endpoint.
func (c *IPCamera) Snapshot(ctx context.Context) (frame.Frame, error) {
	name := c.desc.IP.Name
	password, err := c.password()
	if err != nil {
		return nil, err
	}

	body, status, err := doAuthenticatedGet(c.httpClient, c.snapshotURL(), c.desc.IP.Username, password)
	if err != nil {
		return nil, NewTransportError(name, "snapshot", err)
	}
	if status < 200 || status >= 300 {
		return nil, NewTransportError(name, "snapshot", fmt.Errorf("unexpected status %d", status))
	}
	if len(body) == 0 {
		return nil, NewTransportError(name, "snapshot", fmt.Errorf("empty response body"))
	}

	imageFormat := c.desc.IP.ImageHint
	if imageFormat == "" {
		imageFormat = c.app.ImageFormat
	}

	return frame.IPImage{Name: name, Bytes: body, DeclaredFormat: imageFormat}, nil
}

// QueryTime issues the same auth-escalation GET against the device's CGI
// time endpoint and tolerant-parses the result.
func (c *IPCamera) QueryTime(ctx context.Context) (time.Time, error) {
	name := c.desc.IP.Name
	password, err := c.password()
	if err != nil {
		return time.Time{}, err
	}

	body, status, err := doAuthenticatedGet(c.httpClient, c.timeURL(), c.desc.IP.Username, password)
	if err != nil {
		return time.Time{}, NewTransportError(name, "query_time", err)
	}
	if status < 200 || status >= 300 {
		return time.Time{}, NewTransportError(name, "query_time", fmt.Errorf("unexpected status %d", status))
	}

	t, err := ParseDeviceTime(string(body))
	if err != nil {
		return time.Time{}, NewDecodeError(name, "query_time", err)
	}
	return t, nil
}

// Record streams frames off the device's RTSP endpoint into w, encoded
// with the codec/container configured at the application level.
func (c *IPCamera) Record(ctx context.Context, w io.Writer, duration time.Duration) (RecordResult, error) {
	name := c.desc.IP.Name
	password, err := c.password()
	if err != nil {
		return RecordResult{}, err
	}

	fourcc, warning := FourccFor(c.app.VideoCodec, c.app.VideoFormat)
	if warning != "" {
		c.logger.WithFields(logging.Fields{"device": name}).Warn(warning)
	}

	src := c.sourceFactory()
	if err := src.Open(ctx, c.rtspURL(password)); err != nil {
		return RecordResult{}, NewTransportError(name, "record_open", err)
	}
	defer src.Close()

	fps := c.app.VideoFPS
	if reported := src.FPS(); reported > 0 {
		fps = int(reported)
	}
	if fps <= 0 {
		fps = c.app.VideoFPS
	}

	result := RecordResult{FPS: fps, Fourcc: fourcc, Warning: warning}

	if duration <= 0 {
		return result, nil
	}

	deadline := time.Now().Add(duration)
	var writer VideoWriter
	consecutiveFailures := 0

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			break
		}

		rgb, width, height, err := src.ReadFrame(ctx)
		if err != nil {
			consecutiveFailures++
			if consecutiveFailures >= recordFailureBudget {
				if writer != nil {
					writer.Close()
				}
				return result, NewTransportError(name, "record_read", fmt.Errorf("%d consecutive read failures: %w", consecutiveFailures, err))
			}
			time.Sleep(recordFailureBackoff)
			continue
		}
		consecutiveFailures = 0

		if len(rgb) == 0 {
			continue
		}

		if writer == nil {
			result.Width, result.Height = width, height
			writer, err = c.writerFactory(w, width, height, fps, fourcc)
			if err != nil {
				return result, NewNativeSDKError(name, "record_writer_open", err)
			}
		}

		if err := writer.WriteFrame(rgb); err != nil {
			consecutiveFailures++
			if consecutiveFailures >= recordFailureBudget {
				writer.Close()
				return result, NewNativeSDKError(name, "record_write", fmt.Errorf("%d consecutive write failures: %w", consecutiveFailures, err))
			}
			time.Sleep(recordFailureBackoff)
			continue
		}
		result.FramesWritten++
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			return result, NewNativeSDKError(name, "record_writer_close", err)
		}
	}
	if result.FramesWritten == 0 {
		result.Warning = "zero frames written"
	}
	return result, nil
}

package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIPCamera(t *testing.T, srv *httptest.Server) *IPCamera {
	t.Helper()
	desc := Descriptor{Kind: KindIP, IP: &config.IPCameraConfig{
		Name: "cam-a", IP: "127.0.0.1", Username: "admin", RTSPPath: "/stream1",
	}}
	app := config.ApplicationConfig{ImageFormat: "jpg", VideoCodec: "h264", VideoFormat: "mp4", VideoFPS: 10, CGITimePath: "/time"}
	cam := NewIPCamera(desc, srv.Client(), app)
	// Point requests at the test server instead of the configured IP.
	cam.desc.IP.IP = extractHost(srv.URL)
	cam.desc.IP.HTTPPort = extractPort(srv.URL)
	return cam
}

func extractHost(url string) string {
	// http://127.0.0.1:PORT
	var host string
	fmt.Sscanf(url, "http://%s", &host)
	for i, c := range host {
		if c == ':' {
			return host[:i]
		}
	}
	return host
}

func extractPort(url string) int {
	var host string
	var port int
	fmt.Sscanf(url, "http://%s", &host)
	for i, c := range host {
		if c == ':' {
			fmt.Sscanf(host[i+1:], "%d", &port)
			return port
		}
	}
	return 80
}

func TestIPCamera_Snapshot_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(bytes.Repeat([]byte{0xFF}, 12345))
	}))
	defer srv.Close()

	t.Setenv("CAM_A_PASSWORD", "secret")
	cam := newTestIPCamera(t, srv)

	f, err := cam.Snapshot(context.Background())
	require.NoError(t, err)

	img, ok := f.(frame.IPImage)
	require.True(t, ok)
	assert.Equal(t, "cam-a", img.Name)
	assert.Len(t, img.Bytes, 12345)
	assert.Equal(t, "jpg", img.DeclaredFormat)
}

func TestIPCamera_Snapshot_MissingCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cam := newTestIPCamera(t, srv)
	_, err := cam.Snapshot(context.Background())
	require.Error(t, err)
	var credErr *CredentialError
	assert.ErrorAs(t, err, &credErr)
}

func TestIPCamera_Snapshot_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("CAM_A_PASSWORD", "secret")
	cam := newTestIPCamera(t, srv)

	_, err := cam.Snapshot(context.Background())
	require.Error(t, err)
	var transErr *TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestIPCamera_Snapshot_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("CAM_A_PASSWORD", "secret")
	cam := newTestIPCamera(t, srv)

	_, err := cam.Snapshot(context.Background())
	require.Error(t, err)
	var transErr *TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestIPCamera_QueryTime_ParsesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `"2024-01-02 03:04:05"`)
	}))
	defer srv.Close()

	t.Setenv("CAM_A_PASSWORD", "secret")
	cam := newTestIPCamera(t, srv)

	when, err := cam.QueryTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2024, when.Year())
}

func TestIPCamera_QueryTime_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "garbage")
	}))
	defer srv.Close()

	t.Setenv("CAM_A_PASSWORD", "secret")
	cam := newTestIPCamera(t, srv)

	_, err := cam.QueryTime(context.Background())
	require.Error(t, err)
	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

// fakeRTSPSource is a deterministic stand-in for an ffmpeg-backed source.
type fakeRTSPSource struct {
	frames      [][]byte
	idx         int
	failAfter   int
	alwaysFail  bool
	width       int
	height      int
}

func (f *fakeRTSPSource) Open(ctx context.Context, url string) error { return nil }
func (f *fakeRTSPSource) FPS() float64                               { return 0 }
func (f *fakeRTSPSource) Close() error                               { return nil }
func (f *fakeRTSPSource) ReadFrame(ctx context.Context) ([]byte, int, int, error) {
	if f.alwaysFail {
		return nil, 0, 0, errors.New("simulated read failure")
	}
	if f.failAfter > 0 && f.idx >= f.failAfter {
		return nil, 0, 0, errors.New("simulated transient failure")
	}
	if f.idx >= len(f.frames) {
		return nil, 0, 0, errors.New("no more frames")
	}
	frame := f.frames[f.idx]
	f.idx++
	return frame, f.width, f.height, nil
}

type fakeVideoWriter struct {
	written [][]byte
	failAt  int
	closed  bool
}

func (w *fakeVideoWriter) WriteFrame(rgb []byte) error {
	if w.failAt > 0 && len(w.written) >= w.failAt {
		return errors.New("simulated write failure")
	}
	w.written = append(w.written, rgb)
	return nil
}
func (w *fakeVideoWriter) Close() error { w.closed = true; return nil }

func TestIPCamera_Record_WritesFramesUntilDeadline(t *testing.T) {
	t.Setenv("CAM_A_PASSWORD", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	cam := newTestIPCamera(t, srv)

	frames := make([][]byte, 0, 1000)
	for i := 0; i < 1000; i++ {
		frames = append(frames, bytes.Repeat([]byte{1}, 3))
	}
	src := &fakeRTSPSource{frames: frames, width: 1, height: 1}
	writer := &fakeVideoWriter{}

	cam.sourceFactory = func() RTSPSource { return src }
	cam.writerFactory = func(w io.Writer, width, height, fps int, fourcc string) (VideoWriter, error) {
		return writer, nil
	}

	var buf bytes.Buffer
	result, err := cam.Record(context.Background(), &buf, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Greater(t, result.FramesWritten, 0)
	assert.True(t, writer.closed)
}

func TestIPCamera_Record_AbortsAfterFailureBudget(t *testing.T) {
	t.Setenv("CAM_A_PASSWORD", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	cam := newTestIPCamera(t, srv)

	src := &fakeRTSPSource{alwaysFail: true}
	cam.sourceFactory = func() RTSPSource { return src }
	cam.writerFactory = func(w io.Writer, width, height, fps int, fourcc string) (VideoWriter, error) {
		return &fakeVideoWriter{}, nil
	}

	var buf bytes.Buffer
	_, err := cam.Record(context.Background(), &buf, time.Second)
	require.Error(t, err)
	var transErr *TransportError
	assert.ErrorAs(t, err, &transErr)
}

func TestIPCamera_Record_ZeroDurationWritesNothing(t *testing.T) {
	t.Setenv("CAM_A_PASSWORD", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	cam := newTestIPCamera(t, srv)

	cam.sourceFactory = func() RTSPSource { return &fakeRTSPSource{} }

	var buf bytes.Buffer
	result, err := cam.Record(context.Background(), &buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FramesWritten)
}

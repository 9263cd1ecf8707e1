package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/logging"
	"golang.org/x/time/rate"
)

// ErrVizDisabled is returned by NewVizSink when the caller's
// configuration turns the sink off; the caller treats this as "run
// without visualization", not as a failure.
var ErrVizDisabled = errors.New("sink: visualization sink disabled")

const defaultVizAddress = ":9871"
const defaultFlushTimeout = 2 * time.Second
const defaultClientBuffer = 256

// VizSink is the optional, best-effort live visualization feed: a small
// websocket event server (gorilla/websocket, a teacher dependency) that
// browsers or a companion viewer can connect to. Frames are pushed as
// JSON events; a client that falls behind has frames dropped for it
// rather than slowing down acquisition, the same non-blocking-fan-out
// guarantee spec.md requires of every sink.
type VizSink struct {
	cfg      config.VizConfig
	logger   *logging.Logger
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*vizClient]struct{}
	limiter *rate.Limiter
	dropped int64
}

type vizClient struct {
	conn *websocket.Conn
	out  chan []byte
}

// NewVizSink starts the event server if cfg.Enabled, or returns
// ErrVizDisabled. A listen failure is a real error — the caller degrades
// gracefully by logging a warning and continuing without the sink, per
// spec.md §4.4.
func NewVizSink(cfg config.VizConfig) (*VizSink, error) {
	if !cfg.Enabled {
		return nil, ErrVizDisabled
	}

	addr := cfg.Address
	if addr == "" {
		addr = defaultVizAddress
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sink: viz sink listen on %s: %w", addr, err)
	}

	s := &VizSink{
		cfg:      cfg,
		logger:   logging.GetLogger("sink-viz"),
		clients:  make(map[*vizClient]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	if cfg.DropAtLatencyMs > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.DropAtLatencyMs)*time.Millisecond), 1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleWS)
	s.server = &http.Server{Handler: mux}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("viz sink server exited unexpectedly")
		}
	}()

	return s, nil
}

// Stop satisfies internal/common.Stoppable: the coordinator's caller
// shuts the viz sink down during process teardown.
func (s *VizSink) Stop(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		close(c.out)
		c.conn.Close()
		delete(s.clients, c)
	}
	s.mu.Unlock()
	return s.server.Shutdown(ctx)
}

func (s *VizSink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("viz client upgrade failed")
		return
	}

	bufSize := defaultClientBuffer
	if s.cfg.MemoryLimitMB > 0 {
		bufSize = s.cfg.MemoryLimitMB * 4
	}
	client := &vizClient{conn: conn, out: make(chan []byte, bufSize)}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.writePump(client)
}

func (s *VizSink) writePump(c *vizClient) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
	}()
	for msg := range c.out {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// log broadcasts one event to every connected client, dropping it for
// clients whose outbound buffer is full instead of blocking the caller.
func (s *VizSink) log(evt vizEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.WithError(err).Warn("failed to marshal viz event")
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		atomic.AddInt64(&s.dropped, 1)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.out <- data:
		default:
			atomic.AddInt64(&s.dropped, 1)
		}
	}
}

// logFrame translates a captured frame into the appropriate viz event
// kind, per spec.md §4.4's entity-path convention: an IP camera's
// already-encoded bytes go out as "encoded_image", a depth capture's
// planes go out as "image" (color) and "depth_image" (depth) under
// separate entity paths so a viewer can toggle them independently.
func (s *VizSink) logFrame(f frame.Frame) {
	switch v := f.(type) {
	case frame.IPImage:
		s.log(vizEvent{
			Kind:     "encoded_image",
			Path:     fmt.Sprintf("device/%s/image", v.Name),
			Encoded:  v.Bytes,
			MimeHint: v.DeclaredFormat,
		})

	case frame.DepthCapture:
		if v.Color != nil {
			s.log(vizEvent{
				Kind:   "image",
				Path:   fmt.Sprintf("device/%s/rgb_image", v.Name),
				RGB8:   v.Color.RGB8,
				Width:  v.Color.Width,
				Height: v.Color.Height,
			})
		}
		if v.Depth != nil {
			s.log(vizEvent{
				Kind:          "depth_image",
				Path:          fmt.Sprintf("device/%s/depth_image", v.Name),
				DepthZ16:      v.Depth.Z16,
				Width:         v.Depth.Width,
				Height:        v.Depth.Height,
				MetersPerUnit: v.Depth.UnitsPerStep,
			})
		}
	}
}

// SetTimeCursor advances the viz timeline, used while replaying a
// recorded video artifact frame-by-frame.
func (s *VizSink) SetTimeCursor(seconds float64) {
	s.log(vizEvent{Kind: "time_cursor", TimeSeconds: seconds})
}

// FlushBlocking waits for every client's outbound buffer to drain, up to
// the configured flush timeout, satisfying spec.md §4.4's "a blocking
// flush is issued at batch end".
func (s *VizSink) FlushBlocking(ctx context.Context) error {
	timeout := s.cfg.FlushTimeout
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if s.allQueuesEmpty() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

func (s *VizSink) allQueuesEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if len(c.out) > 0 {
			return false
		}
	}
	return true
}

// replayVideoArtifact re-opens a just-recorded video file and streams
// each decoded frame as an image event keyed by a monotonically
// increasing frame index plus a wall-clock time cursor, per spec.md
// §4.4. It reuses the same RTSPSource abstraction the record path uses
// for live streams — ffmpeg treats a local file path identically to an
// RTSP URL as an input — so replay never shells to ffmpeg directly
// either.
func (s *VizSink) replayVideoArtifact(ctx context.Context, deviceName, path string, width, height, fps int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sink: cannot replay %s artifact without known frame geometry", deviceName)
	}

	src := device.NewFFmpegRTSPSource(width, height)
	if err := src.Open(ctx, path); err != nil {
		return err
	}
	defer src.Close()

	step := 1.0
	if fps > 0 {
		step = 1.0 / float64(fps)
	}

	cursor := 0.0
	frameIndex := 0
	for {
		rgb, w, h, err := src.ReadFrame(ctx)
		if err != nil {
			break
		}
		s.SetTimeCursor(cursor)
		s.log(vizEvent{
			Kind:  "image",
			Path:  fmt.Sprintf("device/%s/video/%d", deviceName, frameIndex),
			RGB8:  rgb,
			Width: w, Height: h,
		})
		frameIndex++
		cursor += step
	}
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/router"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

// Frame types exchanged on /ws.
const (
	frameStep     = "story.step"
	frameMetric   = "story.metric"
	frameViewMode = "story.view_mode"
	frameCity     = "story.city"
	frameYear     = "story.year"
	framePlayback = "story.playback"
	frameResume   = "story.resume"

	frameCommand = "story.command"
	frameAck     = "story.ack"
	frameError   = "story.error"
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
}

type stepPayload struct {
	Step string `json:"step"`
	Act  int    `json:"act,omitempty"`
}

type metricPayload struct {
	Metric string `json:"metric"`
}

type viewModePayload struct {
	Mode string `json:"mode"`
}

type cityPayload struct {
	City string `json:"city"`
}

type yearPayload struct {
	Year int `json:"year"`
}

type resumePayload struct {
	Act int `json:"act"`
}

type ackEnvelope struct {
	Result ackResult `json:"result"`
}

type ackResult struct {
	Status   string `json:"status"`
	Step     string `json:"step,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
	Playing  *bool  `json:"playing,omitempty"`
	LastAct  int    `json:"last_act,omitempty"`
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// Emit implements surface.Sink by forwarding every command as a
// story.command frame.
func (p *wsPeer) Emit(cmd surface.Command) {
	if err := p.writeFrame(wsFrame{Type: frameCommand, Payload: mustJSON(cmd)}); err != nil {
		log.Printf("story: write command %s/%s: %v", cmd.Surface, cmd.Op, err)
	}
}

// storySession is one browser connection: a loop and the router it owns.
type storySession struct {
	peer   *wsPeer
	loop   *eventloop.Loop
	router *router.Router
	ctx    context.Context
}

// call runs fn on the session loop and waits for it.
func (s *storySession) call(fn func()) error {
	return s.loop.Call(s.ctx, fn)
}

func handleWSConn(conn *websocket.Conn, deps handlerDeps) {
	defer func() {
		_ = conn.Close()
	}()

	parent := context.Background()
	locale := deps.bundle.Match("")
	if request := conn.Request(); request != nil {
		parent = request.Context()
		locale = deps.bundle.Match(request.Header.Get("Accept-Language"))
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	peer := newWSPeer(json.NewEncoder(conn))
	loop := eventloop.New()
	go func() {
		_ = loop.Run(ctx)
	}()

	rt := router.New(router.Config{
		Runtime: loop,
		Sink:    peer,
		Data:    deps.data,
		Catalog: deps.catalog,
		Metrics: deps.metrics,
		Printer: deps.bundle.Printer(locale),
	})
	session := &storySession{peer: peer, loop: loop, router: rt, ctx: ctx}
	deps.metrics.SessionOpened()
	defer deps.metrics.SessionClosed()
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer closeCancel()
		_ = loop.Call(closeCtx, rt.Close)
		loop.Close()
	}()

	if err := session.call(func() { rt.Start(ctx) }); err != nil {
		log.Printf("story: start session: %v", err)
		return
	}

	decoder := json.NewDecoder(conn)
	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		// Steps are exempt. Surplus control frames get a retryable error
		// and the session stays open.
		if frame.Type != frameStep {
			now := time.Now()
			if now.Sub(windowStart) >= time.Second {
				windowStart = now
				framesInWindow = 0
			}
			framesInWindow++
			if framesInWindow > maxFramesPerSecond {
				_ = writeWSError(peer, frame.RequestID, apperrors.CodeRateLimited.FrameCode(), "rate limit exceeded")
				continue
			}
		}

		var err error
		switch frame.Type {
		case frameStep:
			err = handleStepFrame(session, frame)
		case frameMetric:
			err = handleMetricFrame(session, frame)
		case frameViewMode:
			err = handleViewModeFrame(session, frame)
		case frameCity:
			err = handleCityFrame(session, frame)
		case frameYear:
			err = handleYearFrame(session, frame)
		case framePlayback:
			err = handlePlaybackFrame(session, frame)
		case frameResume:
			err = handleResumeFrame(session, frame)
		default:
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
		if errors.Is(err, eventloop.ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
	}
}

// decodePayload unmarshals a frame payload, answering malformed input with
// an error frame. It reports whether decoding succeeded.
func decodePayload(peer *wsPeer, frame wsFrame, target any, message string) bool {
	if len(frame.Payload) == 0 {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", message)
		return false
	}
	if err := json.Unmarshal(frame.Payload, target); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", message)
		return false
	}
	return true
}

func handleStepFrame(session *storySession, frame wsFrame) error {
	var payload stepPayload
	if !decodePayload(session.peer, frame, &payload, "invalid step payload") {
		return nil
	}
	step := strings.TrimSpace(payload.Step)
	if step == "" && payload.Act == 0 {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "step is required")
		return nil
	}

	// Unmapped and repeated steps are acknowledged with accepted=false.
	var (
		accepted bool
		current  string
		lastAct  int
	)
	if err := session.call(func() {
		accepted = session.router.OnViewportEntry(session.ctx, step, payload.Act)
		current = session.router.Current()
		lastAct = session.router.LastAct()
	}); err != nil {
		return err
	}
	return writeAck(session.peer, frame.RequestID, ackResult{Status: "ok", Step: current, Accepted: &accepted, LastAct: lastAct})
}

func handleMetricFrame(session *storySession, frame wsFrame) error {
	var payload metricPayload
	if !decodePayload(session.peer, frame, &payload, "invalid metric payload") {
		return nil
	}
	return runControl(session, frame, func() error {
		return session.router.SetMetric(domain.Metric(strings.TrimSpace(payload.Metric)))
	})
}

func handleViewModeFrame(session *storySession, frame wsFrame) error {
	var payload viewModePayload
	if !decodePayload(session.peer, frame, &payload, "invalid view mode payload") {
		return nil
	}
	return runControl(session, frame, func() error {
		return session.router.SetViewMode(domain.ViewMode(strings.TrimSpace(payload.Mode)))
	})
}

func handleCityFrame(session *storySession, frame wsFrame) error {
	var payload cityPayload
	if !decodePayload(session.peer, frame, &payload, "invalid city payload") {
		return nil
	}
	city := strings.ToLower(strings.TrimSpace(payload.City))
	if city == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "city is required")
		return nil
	}
	return runControl(session, frame, func() error {
		return session.router.SwitchCity(session.ctx, city)
	})
}

func handleYearFrame(session *storySession, frame wsFrame) error {
	var payload yearPayload
	if !decodePayload(session.peer, frame, &payload, "invalid year payload") {
		return nil
	}
	if payload.Year <= 0 {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "year is required")
		return nil
	}
	return runControl(session, frame, func() error {
		session.router.ScrubToYear(payload.Year)
		return nil
	})
}

func handlePlaybackFrame(session *storySession, frame wsFrame) error {
	var playing bool
	if err := session.call(func() {
		playing = session.router.TogglePlayback()
	}); err != nil {
		return err
	}
	return writeAck(session.peer, frame.RequestID, ackResult{Status: "ok", Playing: &playing})
}

func handleResumeFrame(session *storySession, frame wsFrame) error {
	var payload resumePayload
	if !decodePayload(session.peer, frame, &payload, "invalid resume payload") {
		return nil
	}
	return runControl(session, frame, func() error {
		return session.router.Resume(payload.Act)
	})
}

// runControl runs a router control on the loop and answers with an ack or
// the control's error.
func runControl(session *storySession, frame wsFrame, control func() error) error {
	var controlErr error
	if err := session.call(func() {
		controlErr = control()
	}); err != nil {
		return err
	}
	if controlErr != nil {
		return writeAppError(session.peer, frame.RequestID, controlErr)
	}
	return writeAck(session.peer, frame.RequestID, ackResult{Status: "ok"})
}

func writeAck(peer *wsPeer, requestID string, result ackResult) error {
	return peer.writeFrame(wsFrame{
		Type:      frameAck,
		RequestID: requestID,
		Payload:   mustJSON(ackEnvelope{Result: result}),
	})
}

// writeAppError maps a domain error to its frame code. Unknown errors are
// logged and reported without their internal message.
func writeAppError(peer *wsPeer, requestID string, err error) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		log.Printf("story: control failed: %v", err)
		return writeWSError(peer, requestID, apperrors.CodeUnknown.FrameCode(), "internal error")
	}
	return peer.writeFrame(wsFrame{
		Type:      frameError,
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:    domainErr.Code.FrameCode(),
				Message: domainErr.Message,
				Details: domainErr.Metadata,
			},
		}),
	})
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type:      frameError,
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:      code,
				Message:   message,
				Retryable: code == apperrors.CodeRateLimited.FrameCode(),
			},
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}

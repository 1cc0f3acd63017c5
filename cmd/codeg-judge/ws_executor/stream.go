package wsexecutor

import (
	"net/http"
	"time"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/judger"
	"github.com/codeg/judge/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 64 << 20
)

// Judger runs a submission synchronously and reports its progress
type Judger interface {
	Judge(s *types.Submission, progress judger.ProgressFunc) (*types.SubmissionResult, error)
}

var _ Judger = &judger.Judger{}

// Handle serves the submission stream
type Handle struct {
	judger      Judger
	timeLimit   time.Duration
	memoryLimit envexec.Size
	logger      *zap.Logger
}

// New creates the websocket handle, the limits apply when the submission does
// not set them
func New(j Judger, timeLimit time.Duration, memoryLimit envexec.Size, logger *zap.Logger) *Handle {
	return &Handle{
		judger:      j,
		timeLimit:   timeLimit,
		memoryLimit: memoryLimit,
		logger:      logger,
	}
}

// Register registers the stream handle
func (h *Handle) Register(r *gin.Engine) {
	r.GET("/submission/stream", h.handleStream)
}

// handleStream reads one submission, then sends a progress event for every
// state transition and recorded test case, and finally the result
func (h *Handle) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader has replied
		c.Error(err)
		return
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))

	var req model.SubmissionRequest
	readErr := conn.ReadJSON(&req)

	s := newStream(conn)
	go s.readLoop()
	go s.sendLoop()
	defer func() { <-s.done }()

	if readErr != nil {
		h.logger.Debug("ws read", zap.Error(readErr))
		s.send(model.StreamEvent{Type: model.EventError, Error: readErr.Error()})
		return
	}

	sub := model.ConvertSubmission(&req, h.timeLimit, h.memoryLimit)
	s.send(model.StreamEvent{Type: model.EventProgress, State: types.StateReceived})
	r, err := h.judger.Judge(sub, func(p types.Progress) {
		e := model.StreamEvent{Type: model.EventProgress, State: p.State}
		if p.Case != nil {
			cr := model.ConvertCase(p.Case)
			e.Case = &cr
		}
		s.send(e)
	})
	if err != nil {
		h.logger.Debug("ws submission rejected", zap.Error(err))
		s.send(model.StreamEvent{Type: model.EventError, Error: err.Error()})
		return
	}
	h.logger.Info("ws submission judged", zap.String("submission", r.ID), zap.Stringer("verdict", r.Verdict))
	s.send(model.StreamEvent{Type: model.EventResult, Result: model.ConvertResult(r)})
}

type stream struct {
	conn   *websocket.Conn
	sendCh chan model.StreamEvent
	gone   chan struct{} // closed when the peer stops reading
	done   chan struct{} // closed when the send loop exits
}

func newStream(conn *websocket.Conn) *stream {
	return &stream{
		conn:   conn,
		sendCh: make(chan model.StreamEvent, 16),
		gone:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// readLoop only handles control messages, a submission stream carries a
// single request
func (s *stream) readLoop() {
	defer close(s.gone)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *stream) sendLoop() {
	defer close(s.done)
	defer s.conn.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.gone:
			return

		case e := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(e); err != nil {
				return
			}
			if e.Type != model.EventProgress {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues the event, dropped once the connection is gone
func (s *stream) send(e model.StreamEvent) {
	select {
	case s.sendCh <- e:
	case <-s.done:
	}
}

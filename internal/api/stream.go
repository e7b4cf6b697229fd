package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
)

const (
	streamBuffer     = 16
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamMessage is one websocket push. Type is "frame", "assessment",
// or "object"; only the matching payload fields are populated.
type streamMessage struct {
	Type         string               `json:"type"`
	SimTime      float64              `json:"simTime"`
	Positions    []positionPayload    `json:"positions,omitempty"`
	Conjunctions []conjunctionPayload `json:"conjunctions,omitempty"`
	Clusters     *clustersPayload     `json:"clusters,omitempty"`
	Object       *objectPayload       `json:"object,omitempty"`
}

// handleStream upgrades the connection and forwards catalog events as
// JSON messages until the client disconnects. Slow clients skip
// frames rather than stalling the publisher.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLog := logging.LoggerFromContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		reqLog.Warn(ctx, "stream upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	s.collector.IncStreamClients()
	defer s.collector.DecStreamClients()

	msgs := make(chan streamMessage, streamBuffer)
	unsubscribe := s.engine.Catalog().Subscribe(func(ev catalog.Event) {
		msg, ok := streamMessageFor(ev)
		if !ok {
			return
		}
		select {
		case msgs <- msg:
		default:
		}
	})
	defer unsubscribe()

	// Reader pump: its only job is noticing the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	reqLog.Info(ctx, "stream connected", logging.String("remote", r.RemoteAddr))
	defer reqLog.Info(ctx, "stream disconnected", logging.String("remote", r.RemoteAddr))

	pings := time.NewTicker(streamPingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg := <-msgs:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				reqLog.Debug(ctx, "stream write failed", logging.Err(err))
				return
			}
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func streamMessageFor(ev catalog.Event) (streamMessage, bool) {
	switch ev.Type {
	case catalog.EventFrameUpdated:
		msg := streamMessage{
			Type:      "frame",
			SimTime:   ev.Frame.SimTime,
			Positions: make([]positionPayload, 0, len(ev.Frame.Positions)),
		}
		for _, p := range ev.Frame.Positions {
			msg.Positions = append(msg.Positions, toPositionPayload(p))
		}
		return msg, true

	case catalog.EventAssessmentUpdated:
		clusters := toClustersPayload(ev.Assessment.SimTime, ev.Assessment.Clusters)
		msg := streamMessage{
			Type:         "assessment",
			SimTime:      ev.Assessment.SimTime,
			Conjunctions: make([]conjunctionPayload, 0, len(ev.Assessment.Conjunctions)),
			Clusters:     &clusters,
		}
		for _, c := range ev.Assessment.Conjunctions {
			msg.Conjunctions = append(msg.Conjunctions, toConjunctionPayload(c))
		}
		return msg, true

	case catalog.EventObjectAdded:
		obj := toObjectPayload(ev.Object)
		return streamMessage{Type: "object", Object: &obj}, true

	default:
		return streamMessage{}, false
	}
}

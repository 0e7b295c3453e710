// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/inertial_pdr/internal/config"
	"github.com/relabs-tech/inertial_pdr/internal/gps"
	"github.com/relabs-tech/inertial_pdr/internal/pdr"
	"github.com/relabs-tech/inertial_pdr/internal/sensor"
	"github.com/relabs-tech/inertial_pdr/internal/step"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // phones on the LAN load the page from another origin
	},
}

// wsMessage is sent to the browser: a snapshot on every snapshot interval.
type wsMessage struct {
	Type     string        `json:"type"` // "snapshot"
	Snapshot *pdr.Snapshot `json:"snapshot,omitempty"`
}

// gpsMessage is the payload on the GPS topic.
type gpsMessage struct {
	Fix      gps.Fix       `json:"fix"`
	Relative *gps.Relative `json:"relative,omitempty"`
}

// webServer holds what the HTTP handlers read.
type webServer struct {
	session  *pdr.Session
	feed     *sensor.Feed
	interval time.Duration

	mu      sync.RWMutex
	lastGPS *gpsMessage
}

// RunWeb serves the browser page, ingests the phone's sensor events over a
// websocket into a PDR session and streams snapshots back.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()

	var client mqtt.Client
	if cfg.MQTTBroker != "" {
		c, err := connectMQTT("web", cfg.MQTTBroker, cfg.MQTTClientIDWeb)
		if err != nil {
			log.Printf("web: %v, serving without MQTT", err)
		} else {
			client = c
			defer client.Disconnect(250)
		}
	}

	feed := sensor.NewFeed("browser", 512, cfg.AccelIncludesGravity)
	pub := newSnapshotPublisher(client, cfg.TopicSnapshot, cfg.SnapshotInterval())
	session, err := pdr.NewSession(pdr.SessionConfig{
		Tracker: TrackerOptions(cfg),
		Sources: []sensor.Source{feed},
		Frames:  pdr.IntervalFrames(cfg.FrameInterval()),
		OnStep: func(ev step.Event) {
			if client != nil {
				publishJSON(client, cfg.TopicStep, false, ev)
			}
		},
		OnFrame: pub.frame,
	})
	if err != nil {
		return err
	}

	srv := &webServer{session: session, feed: feed, interval: cfg.SnapshotInterval()}
	if client != nil {
		err := subscribe("web", client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
			var m gpsMessage
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("web: gps unmarshal error: %v", err)
				return
			}
			srv.mu.Lock()
			srv.lastGPS = &m
			srv.mu.Unlock()
		})
		if err != nil {
			log.Printf("web: %v", err)
		}
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: srv.routes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("web: server listening on %s (session %s)", httpServer.Addr, session.ID())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *webServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/pdr", s.handleSnapshot)
	mux.HandleFunc("/api/pdr/card.png", s.handleCard)
	mux.HandleFunc("/api/gps", s.handleGPS)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func (s *webServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.session.Snapshot()); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *webServer) handleCard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := writeCard(&buf, s.session.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("web: card write error: %v", err)
	}
}

func (s *webServer) handleGPS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	m := s.lastGPS
	s.mu.RUnlock()

	if m == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// handleWS reads sensor envelopes from the page and writes snapshots back.
// Reads stay on this goroutine and writes on one other, as the websocket
// connection allows.
func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("web: sensor page connected from %s", r.RemoteAddr)

	done := make(chan struct{})
	defer close(done)
	go s.writeSnapshots(conn, done)

	dropped := 0
	for {
		var e sensor.Envelope
		if err := conn.ReadJSON(&e); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket read error: %v", err)
			}
			break
		}
		if !s.feed.Push(e) {
			dropped++
			if dropped%100 == 1 {
				log.Printf("web: session backlog full, dropped %d events", dropped)
			}
		}
	}
	log.Printf("web: sensor page %s disconnected", r.RemoteAddr)
}

func (s *webServer) writeSnapshots(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := s.session.Snapshot()
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// Package sse implements a Server-Sent Events broker for scan progress and
// entry creation.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/daybook/internal/models"
)

// Event types emitted by the broker.
const (
	EventFileDiscovered = "file.discovered"
	EventScanProgress   = "scan.progress"
	EventScanCompleted  = "scan.completed"
	EventEntryCreated   = "entry.created"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type scanEventReq struct {
	scanID string
	file   *models.FileEntry
	err    error
	done   bool
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal loop owns the clients and per-scan counters. Public
// methods talk to it through channels.
type Broker struct {
	progressMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	scanEventCh   chan scanEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits scan.progress at most once per
// progressThrottle for each running scan.
func NewBroker(progressThrottle time.Duration) *Broker {
	if progressThrottle <= 0 {
		progressThrottle = time.Second
	}

	b := &Broker{
		progressMin:   progressThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		scanEventCh:   make(chan scanEventReq, 1024),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

type scanState struct {
	discovered   int
	lastProgress time.Time
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	scans := make(map[string]*scanState)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.scanEventCh:
			st, ok := scans[req.scanID]
			if !ok {
				st = &scanState{}
				scans[req.scanID] = st
			}

			if req.done {
				data := map[string]any{"scan_id": req.scanID, "files": st.discovered}
				if req.err != nil {
					data["error"] = req.err.Error()
				}
				broadcast(Event{Type: EventScanCompleted, Data: data})
				delete(scans, req.scanID)
				continue
			}

			st.discovered++
			broadcast(Event{Type: EventFileDiscovered, Data: map[string]any{"scan_id": req.scanID, "file": req.file}})

			now := time.Now()
			if now.Sub(st.lastProgress) >= b.progressMin {
				st.lastProgress = now
				broadcast(Event{Type: EventScanProgress, Data: map[string]any{"scan_id": req.scanID, "discovered": st.discovered}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDiscovered reports one file found by scan scanID.
func (b *Broker) PublishDiscovered(scanID string, f models.FileEntry) {
	b.sendScan(scanEventReq{scanID: scanID, file: &f})
}

// PublishScanCompleted closes out scan scanID with its file count.
func (b *Broker) PublishScanCompleted(scanID string, err error) {
	b.sendScan(scanEventReq{scanID: scanID, err: err, done: true})
}

// PublishEntryCreated announces a document created on first access.
func (b *Broker) PublishEntryCreated(path, scope string) {
	b.Publish(Event{Type: EventEntryCreated, Data: map[string]string{"path": path, "scope": scope}})
}

func (b *Broker) sendScan(req scanEventReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.scanEventCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

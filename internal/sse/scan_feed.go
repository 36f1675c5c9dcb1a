package sse

import (
	"context"
	"sync"

	"ms-gatepass/internal/scan"
)

// ScanFeed manages SSE connections and broadcasts live scan results to
// coordinator dashboards, keyed by event. Delivery is best-effort; the audit
// trail in the store is the source of truth.
type ScanFeed struct {
	eventClients map[string][]chan scan.ScanResult
	mu           sync.RWMutex
}

func NewScanFeed() *ScanFeed {
	return &ScanFeed{
		eventClients: make(map[string][]chan scan.ScanResult),
	}
}

// Subscribe adds a client to an event's scan feed. The returned channel is
// closed when ctx is done.
func (f *ScanFeed) Subscribe(ctx context.Context, eventID string) chan scan.ScanResult {
	clientChan := make(chan scan.ScanResult, 10)

	f.mu.Lock()
	f.eventClients[eventID] = append(f.eventClients[eventID], clientChan)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(eventID, clientChan)
	}()

	return clientChan
}

// Publish broadcasts a scan result to all subscribers of the event. Sends
// happen under the read lock: remove closes channels under the write lock,
// so no send can race a close.
func (f *ScanFeed) Publish(eventID string, result scan.ScanResult) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, clientChan := range f.eventClients[eventID] {
		// Non-blocking send so a slow dashboard cannot stall the gate.
		select {
		case clientChan <- result:
		default:
		}
	}
}

func (f *ScanFeed) remove(eventID string, clientChan chan scan.ScanResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	clients := f.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			f.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(f.eventClients[eventID]) == 0 {
		delete(f.eventClients, eventID)
	}
}

// ClientCount returns the number of subscribers for an event.
func (f *ScanFeed) ClientCount(eventID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.eventClients[eventID])
}

package taskmate

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-router"
)

// RFC 6455 text frame opcode
const wsTextMessage = 1

// TaskEvent is the JSON payload pushed to connected clients
type TaskEvent struct {
	Type string `json:"type"`
	Task *Task  `json:"task"`
}

const (
	TaskEventCreated       = "task.created"
	TaskEventUpdated       = "task.updated"
	TaskEventStatusChanged = "task.status_changed"
)

// WebSocketNotifier fans task events out to the assignee's open sockets.
// Delivery is best effort: a write failure drops the client, never the event.
type WebSocketNotifier struct {
	mu      sync.RWMutex
	clients map[string]map[router.WSClient]struct{}
	logger  Logger
}

func NewWebSocketNotifier() *WebSocketNotifier {
	return &WebSocketNotifier{
		clients: make(map[string]map[router.WSClient]struct{}),
		logger:  defLogger{},
	}
}

func (n *WebSocketNotifier) WithLogger(logger Logger) *WebSocketNotifier {
	n.logger = logger
	return n
}

// Subscribe registers a client under the authenticated subject
func (n *WebSocketNotifier) Subscribe(subject string, client router.WSClient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.clients[subject] == nil {
		n.clients[subject] = make(map[router.WSClient]struct{})
	}
	n.clients[subject][client] = struct{}{}
}

// Unsubscribe removes a client; safe to call for unknown clients
func (n *WebSocketNotifier) Unsubscribe(subject string, client router.WSClient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if set, ok := n.clients[subject]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(n.clients, subject)
		}
	}
}

func (n *WebSocketNotifier) TaskCreated(ctx context.Context, task *Task) error {
	return n.broadcast(task, TaskEventCreated)
}

func (n *WebSocketNotifier) TaskUpdated(ctx context.Context, task *Task) error {
	return n.broadcast(task, TaskEventUpdated)
}

func (n *WebSocketNotifier) TaskStatusChanged(ctx context.Context, task *Task) error {
	return n.broadcast(task, TaskEventStatusChanged)
}

func (n *WebSocketNotifier) broadcast(task *Task, eventType string) error {
	if task == nil || task.AssignedTo == nil {
		return nil
	}

	data, err := json.Marshal(TaskEvent{Type: eventType, Task: task})
	if err != nil {
		return err
	}

	subject := task.AssignedTo.Email

	n.mu.RLock()
	set := n.clients[subject]
	targets := make([]router.WSClient, 0, len(set))
	for client := range set {
		targets = append(targets, client)
	}
	n.mu.RUnlock()

	for _, client := range targets {
		if err := client.Conn().WriteMessage(wsTextMessage, data); err != nil {
			n.logger.Warn("dropping websocket client %s: %v", client.ID(), err)
			n.Unsubscribe(subject, client)
		}
	}

	return nil
}

var _ Notifier = (*WebSocketNotifier)(nil)

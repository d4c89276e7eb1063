package server

import (
	"context"
	"path"
)

// Notifier tells connected browsers that assets changed.
type Notifier interface {
	// Reload asks every client to reload the page.
	Reload(ctx context.Context)
	// Stream pushes changed files. Stylesheets are swapped in place; any
	// other path triggers one full reload.
	Stream(ctx context.Context, paths ...string)
}

// NopNotifier drops every notification. Build-only runs use it.
type NopNotifier struct{}

func (NopNotifier) Reload(context.Context)            {}
func (NopNotifier) Stream(context.Context, ...string) {}

// HubNotifier broadcasts notifications through a Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier for hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Reload(context.Context) {
	n.hub.Broadcast(Message{Type: MessageReload})
}

func (n *HubNotifier) Stream(ctx context.Context, paths ...string) {
	reload := false
	for _, p := range paths {
		if path.Ext(p) == ".css" {
			n.hub.Broadcast(Message{Type: MessageCSS, Path: p})
			continue
		}
		reload = true
	}

	if reload {
		n.Reload(ctx)
	}
}

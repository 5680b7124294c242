package sse

import (
	"context"

	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

// StylesheetNotifier returns a stylesheet.Notifier that broadcasts every
// regeneration as a stylesheet.changed event. url is the public address of
// the generated file and may be empty.
func (m *Manager) StylesheetNotifier(url string) stylesheet.Notifier {
	return stylesheet.NotifierFunc(func(_ context.Context, r stylesheet.Result) {
		m.Emit(NewStylesheetChangedEvent(StylesheetEventData{
			WrittenAt:  r.WrittenAt,
			Generation: r.Generation,
			Hash:       r.Hash,
			URL:        url,
			Size:       r.Size,
			Changed:    r.Changed,
		}))
	})
}

package retroterm

import (
	"sync"

	"github.com/moodclient/retroterm/screen"
	"github.com/moodclient/retroterm/transfer"
)

// EventHook is a type for function pointers that are registered to receive events
type EventHook[T any] func(session *Session, data T)

// EventPublisher is a type used to register and fire arbitrary events
type EventPublisher[U any] struct {
	lock sync.Mutex

	registeredHooks []EventHook[U]
}

// NewPublisher creates a new EventPublisher for a particular EventHook. A slice of
// hooks can be passed in- in which case the hooks will be registered to receive events
// from the publisher.  Otherwise, nil can be passed in.
func NewPublisher[U any, T ~func(session *Session, data U)](hooks []T) *EventPublisher[U] {
	var convertedHooks []EventHook[U]

	for _, hook := range hooks {
		convertedHooks = append(convertedHooks, EventHook[U](hook))
	}

	return &EventPublisher[U]{
		registeredHooks: convertedHooks,
	}
}

// Register registers a single EventHook to receive events from this publisher.
func (e *EventPublisher[U]) Register(hook EventHook[U]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.registeredHooks = append(e.registeredHooks, hook)
}

// Fire calls the event for all EventHook instances registered to this publisher with
// the provided parameters
func (e *EventPublisher[U]) Fire(session *Session, eventData U) {
	e.lock.Lock()
	defer e.lock.Unlock()

	for _, hook := range e.registeredHooks {
		hook(session, eventData)
	}
}

// ErrorHandler is an event hook type that receives errors
type ErrorHandler func(s *Session, err error)

// ScreenHandler is an event hook type called after inbound bytes have
// mutated the screen
type ScreenHandler func(s *Session, scr *screen.Screen)

// ResponseHandler is an event hook type that receives bytes the active
// emulator transmitted back to the remote (DA, DSR, answerback, ...)
type ResponseHandler func(s *Session, response []byte)

// TransferHandler is an event hook type that receives progress snapshots
// from a running file transfer
type TransferHandler func(s *Session, stats transfer.Statistics)

// BellHandler is an event hook type called when the emulator rings the bell
type BellHandler func(s *Session, bell struct{})

// TitleHandler is an event hook type that receives xterm window titles
type TitleHandler func(s *Session, title string)

// MusicHandler is an event hook type that receives completed ANSI music
// sequences.  Playback is the consumer's concern.
type MusicHandler func(s *Session, notes []byte)

// EventHooks is used to pass in a set of pre-registered event hooks to a Session
// when calling NewSession.  See Config for more info.
type EventHooks struct {
	EncounteredError []ErrorHandler
	ScreenUpdated    []ScreenHandler
	EmulatorResponse []ResponseHandler
	TransferStatus   []TransferHandler

	Bell          []BellHandler
	WindowTitle   []TitleHandler
	MusicSequence []MusicHandler
}

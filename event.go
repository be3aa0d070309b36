package retroterm

import (
	"context"

	"github.com/moodclient/retroterm/transfer"
)

type eventType byte

const (
	eventUnknown eventType = iota
	eventError
	eventScreenUpdated
	eventEmulatorResponse
	eventTransferStatus
	eventBell
	eventWindowTitle
	eventMusic
)

type eventsTransport struct {
	eventType eventType
	err       error
	response  []byte
	stats     transfer.Statistics
	title     string
	notes     []byte
}

type sessionEventPump struct {
	events chan eventsTransport

	// halted is closed when the event loop shuts down, unblocking any
	// producer mid-send and turning later submissions into no-ops.
	halted chan struct{}
}

func newEventPump() *sessionEventPump {
	return &sessionEventPump{
		events: make(chan eventsTransport, 100),
		halted: make(chan struct{}),
	}
}

func (p *sessionEventPump) submit(ev eventsTransport) {
	select {
	case p.events <- ev:
	case <-p.halted:
	}
}

func (p *sessionEventPump) processEvent(session *Session, event eventsTransport) {
	switch event.eventType {
	case eventError:
		session.encounteredError(event.err)
	case eventScreenUpdated:
		session.screenUpdated()
	case eventEmulatorResponse:
		session.emulatorResponded(event.response)
	case eventTransferStatus:
		session.transferProgressed(event.stats)
	case eventBell:
		session.bellRang()
	case eventWindowTitle:
		session.titleChanged(event.title)
	case eventMusic:
		session.musicReceived(event.notes)
	default:
		panic("invalid event")
	}
}

// loopCleanup delivers events that were queued before shutdown.  The
// events channel is never closed: producers that outlive the loop are
// released through halted instead.
func (p *sessionEventPump) loopCleanup(session *Session) {
	close(p.halted)

	for {
		select {
		case ev := <-p.events:
			p.processEvent(session, ev)
		default:
			return
		}
	}
}

func (p *sessionEventPump) SessionLoop(ctx context.Context, session *Session) {
	defer p.loopCleanup(session)

	for {
		select {
		case ev := <-p.events:
			p.processEvent(session, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (p *sessionEventPump) EncounteredError(err error) {
	p.submit(eventsTransport{
		eventType: eventError,
		err:       err,
	})
}

func (p *sessionEventPump) ScreenUpdated() {
	p.submit(eventsTransport{
		eventType: eventScreenUpdated,
	})
}

func (p *sessionEventPump) EmulatorResponse(response []byte) {
	p.submit(eventsTransport{
		eventType: eventEmulatorResponse,
		response:  response,
	})
}

func (p *sessionEventPump) TransferStatus(stats transfer.Statistics) {
	p.submit(eventsTransport{
		eventType: eventTransferStatus,
		stats:     stats,
	})
}

func (p *sessionEventPump) Bell() {
	p.submit(eventsTransport{
		eventType: eventBell,
	})
}

func (p *sessionEventPump) WindowTitle(title string) {
	p.submit(eventsTransport{
		eventType: eventWindowTitle,
		title:     title,
	})
}

func (p *sessionEventPump) Music(notes []byte) {
	p.submit(eventsTransport{
		eventType: eventMusic,
		notes:     notes,
	})
}

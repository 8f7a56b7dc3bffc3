package server

import (
	"net"
	"runtime/debug"

	"github.com/google/uuid"

	"chatrelay/internal/protocol"
	"chatrelay/internal/queue"
	"chatrelay/internal/room"
)

const (
	roleSender   = "sender"
	roleReceiver = "receiver"
)

// Reply notes sent to clients.
const (
	noteLoggedIn       = "logged in"
	noteLoginFailed    = "failed to login"
	noteMustLogin      = "Must login first"
	noteNoUsername     = "username required"
	noteJoining        = "joining room"
	noteJoined         = "successfully joined room"
	noteJoinFailed     = "failed to join room"
	noteMustJoinFirst  = "Need to join room first"
	noteNoRoomName     = "room name required"
	noteBroadcasting   = "broadcasting message"
	noteLeaving        = "leaving the room"
	noteQuitting       = "quitting"
	noteNotInRoom      = "You must join a room first"
	noteInvalidCommand = "invalid message"
	noteTooLong        = "message too long for delivery"
	noteStreamError    = "There is an error"
	noteInvalidMessage = "The message is invalid."
)

// worker runs one connection from login to teardown.
type worker struct {
	id   string
	srv  *Server
	conn *protocol.Conn
	user *room.User // nil until login succeeds
}

// serveConn owns nc for its whole life. Whatever path the worker exits by,
// the deferred teardown removes the user from its room and closes the
// connection exactly once.
func (s *Server) serveConn(nc net.Conn) {
	w := &worker{
		id:   uuid.NewString(),
		srv:  s,
		conn: protocol.NewConn(nc),
	}
	w.conn.SetWriteTimeout(s.cfg.WriteTimeout)

	if !s.track(w) {
		w.conn.Close()
		return
	}
	defer w.teardown()
	defer func() {
		if r := recover(); r != nil {
			w.logf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	w.logf("connected from %s", nc.RemoteAddr())
	w.run()
}

func (w *worker) run() {
	login, ok := w.login()
	if !ok {
		return
	}

	w.user = room.NewUserWithQueue(login.Payload, queue.NewWithWait(w.srv.cfg.PollInterval))

	switch login.Tag {
	case protocol.TagSLogin:
		w.srv.identify(w.id, w.user.Username, roleSender)
		w.logf("sender %q logged in", w.user.Username)
		w.chatWithSender()
	case protocol.TagRLogin:
		w.srv.identify(w.id, w.user.Username, roleReceiver)
		w.logf("receiver %q logged in", w.user.Username)
		w.chatWithReceiver()
	}
}

func (w *worker) teardown() {
	if w.user != nil {
		w.srv.rooms.Leave(w.user)
	}
	w.conn.Close()
	w.srv.untrack(w.id)
	w.logf("disconnected")
}

// login performs the handshake. On success the ok reply has been sent.
func (w *worker) login() (protocol.Message, bool) {
	var msg protocol.Message
	if !w.conn.Receive(&msg) {
		w.replyErr(noteLoginFailed)
		return msg, false
	}
	if msg.Tag != protocol.TagSLogin && msg.Tag != protocol.TagRLogin {
		w.replyErr(noteMustLogin)
		return msg, false
	}
	if msg.Payload == "" {
		w.replyErr(noteNoUsername)
		return msg, false
	}
	return msg, w.replyOK(noteLoggedIn)
}

// ---------------------------------------------------------------------------
// Sender
// ---------------------------------------------------------------------------

// chatWithSender runs the sender state machine. The state is whether the
// user is in a room.
func (w *worker) chatWithSender() {
	var msg protocol.Message
	for {
		if !w.conn.Receive(&msg) {
			w.replyErr(receiveFailureNote(w.conn.LastResult()))
			return
		}

		var keep bool
		switch {
		case msg.Tag == protocol.TagQuit:
			w.srv.rooms.Leave(w.user)
			w.replyOK(noteQuitting)
			return
		case msg.Tag == protocol.TagErr:
			w.replyErr(msg.Payload)
			return
		case w.user.InRoom():
			keep = w.handleInRoom(msg)
		default:
			keep = w.handleNoRoom(msg)
		}
		if !keep {
			return
		}
	}
}

func (w *worker) handleNoRoom(msg protocol.Message) bool {
	if msg.Tag == protocol.TagJoin {
		return w.join(msg.Payload)
	}
	return w.replyErr(noteNotInRoom)
}

func (w *worker) handleInRoom(msg protocol.Message) bool {
	switch msg.Tag {
	case protocol.TagJoin:
		return w.join(msg.Payload)
	case protocol.TagSendAll:
		r := w.srv.rooms.FindOrCreate(w.user.Room())
		delivery := protocol.New(protocol.TagDelivery, protocol.DeliveryPayload(r.Name(), w.user.Username, msg.Payload))
		if !delivery.Fits() {
			return w.replyErr(noteTooLong)
		}
		n := r.Broadcast(w.user.Username, msg.Payload)
		w.logf("%q broadcast to %d member(s) of %q", w.user.Username, n, r.Name())
		return w.replyOK(noteBroadcasting)
	case protocol.TagLeave:
		w.logf("%q left room %q", w.user.Username, w.user.Room())
		w.srv.rooms.Leave(w.user)
		return w.replyOK(noteLeaving)
	default:
		return w.replyErr(noteInvalidCommand)
	}
}

// join moves the sender into roomName. A failed ok reply ends the session and
// teardown rolls the membership back.
func (w *worker) join(roomName string) bool {
	if roomName == "" {
		return w.replyErr(noteNoRoomName)
	}
	w.srv.rooms.Join(w.user, roomName)
	w.logf("%q joined room %q", w.user.Username, roomName)
	return w.replyOK(noteJoining)
}

// ---------------------------------------------------------------------------
// Receiver
// ---------------------------------------------------------------------------

// chatWithReceiver expects a join and then forwards the user's queue to the
// socket until a send fails or the server shuts down. It never reads from
// the receiver again.
func (w *worker) chatWithReceiver() {
	var msg protocol.Message
	if !w.conn.Receive(&msg) {
		w.replyErr(noteJoinFailed)
		return
	}
	if msg.Tag != protocol.TagJoin {
		w.replyErr(noteMustJoinFirst)
		return
	}
	if msg.Payload == "" {
		w.replyErr(noteNoRoomName)
		return
	}

	w.srv.rooms.Join(w.user, msg.Payload)
	w.logf("%q receiving from room %q", w.user.Username, msg.Payload)
	if !w.replyOK(noteJoined) {
		return
	}
	w.deliver()
}

func (w *worker) deliver() {
	for {
		m, ok := w.user.Queue.Dequeue()
		if !ok {
			if w.srv.closing() {
				return
			}
			continue
		}
		if !w.conn.Send(m) {
			w.logf("delivery to %q failed: %s", w.user.Username, w.conn.LastResult())
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (w *worker) replyOK(note string) bool {
	return w.conn.Send(protocol.New(protocol.TagOK, note))
}

func (w *worker) replyErr(note string) bool {
	return w.conn.Send(protocol.New(protocol.TagErr, note))
}

func receiveFailureNote(r protocol.Result) string {
	if r == protocol.InvalidMessage {
		return noteInvalidMessage
	}
	return noteStreamError
}

func (w *worker) logf(format string, args ...any) {
	w.srv.log.Printf("[worker %s] "+format, append([]any{w.id[:8]}, args...)...)
}

package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sketchwall-server-go/internal/domain/delegate"
	"sketchwall-server-go/internal/domain/drawing"
	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/platform/logging"
)

type fakeConn struct {
	id      string
	mu      sync.Mutex
	frames  [][]byte
	inbound chan []byte
	closed  bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, inbound: make(chan []byte, 16)}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) ReadMessage(stop <-chan struct{}) (int, []byte, error) {
	select {
	case data, ok := <-f.inbound:
		if !ok {
			return 0, nil, errors.New("closed")
		}
		return 1, data, nil
	case <-stop:
		return 0, nil, errors.New("stopped")
	}
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) GetID() string  { return f.id }
func (f *fakeConn) IsClosed() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.closed }

func (f *fakeConn) messages(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("bad frame %q: %v", frame, err)
		}
		out = append(out, env)
	}
	return out
}

func (f *fakeConn) typesSent(t *testing.T) []string {
	msgs := f.messages(t)
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.Type
	}
	return types
}

type fakeModerator struct {
	mu        sync.Mutex
	submitted []DrawingPayload
	removed   []string
	pardoned  []string
	state     []events.ConsoleEntry
}

func (m *fakeModerator) Submit(payload string, hint interface{}) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, DrawingPayload{ImagePayload: payload, DisplayHint: hint})
	return "generated-id"
}

func (m *fakeModerator) Remove(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id+"|"+reason)
}

func (m *fakeModerator) Pardon(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pardoned = append(m.pardoned, id)
}

func (m *fakeModerator) ConsoleState() []events.ConsoleEntry { return m.state }

type fakeDelegates struct {
	mu       sync.Mutex
	attached []delegate.Sender
	detached []delegate.Sender
	online   bool
	resolved []uint64
}

func (d *fakeDelegates) Attach(s delegate.Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = append(d.attached, s)
	d.online = true
}

func (d *fakeDelegates) Detach(s delegate.Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detached = append(d.detached, s)
	d.online = false
}

func (d *fakeDelegates) Online() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

func (d *fakeDelegates) Resolve(id uint64, _ []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolved = append(d.resolved, id)
}

type fakeDrawings struct {
	list []drawing.Drawing
}

func (f *fakeDrawings) List() []drawing.Drawing { return f.list }

type hubFixture struct {
	hub       *Hub
	moderator *fakeModerator
	delegates *fakeDelegates
	drawings  *fakeDrawings
}

func newHubFixture() *hubFixture {
	moderator := &fakeModerator{}
	delegates := &fakeDelegates{}
	drawings := &fakeDrawings{}
	h := New(moderator, delegates, drawings, logging.NewDiscard())
	return &hubFixture{hub: h, moderator: moderator, delegates: delegates, drawings: drawings}
}

func (f *hubFixture) newClient(id string) (*Client, *fakeConn) {
	conn := newFakeConn(id)
	c := NewClient(conn, f.hub, f.moderator, f.delegates, logging.NewDiscard())
	return c, conn
}

func TestRegisterDisplayReplaysLiveState(t *testing.T) {
	f := newHubFixture()
	f.drawings.list = []drawing.Drawing{
		{ID: "a", Payload: "p-a"},
		{ID: "b", Payload: "p-b", Flagged: true, Reason: "bad"},
	}

	c, conn := f.newClient("display-1")
	if !f.hub.Register(c, RoleDisplay) {
		t.Fatal("Register failed")
	}

	want := []string{MsgNewDrawing, MsgNewDrawing, MsgFlagDrawing}
	got := conn.typesSent(t)
	if len(got) != len(want) {
		t.Fatalf("replay messages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("replay order = %v, want %v", got, want)
		}
	}

	// The flag replay references the flagged drawing only.
	msgs := conn.messages(t)
	var flag FlagDrawingPayload
	if err := json.Unmarshal(msgs[2].Data, &flag); err != nil {
		t.Fatal(err)
	}
	if flag.DrawingID != "b" {
		t.Fatalf("flag replay targets %q, want b", flag.DrawingID)
	}
}

func TestRegisterConsoleSendsSnapshotAndDelegateStatus(t *testing.T) {
	f := newHubFixture()
	f.moderator.state = []events.ConsoleEntry{{ID: "a", Flagged: true, Reason: "bad"}}

	c, conn := f.newClient("console-1")
	f.hub.Register(c, RoleConsole)

	got := conn.typesSent(t)
	if len(got) != 2 || got[0] != MsgModerationState || got[1] != MsgDelegateOffline {
		t.Fatalf("console replay = %v", got)
	}

	f.delegates.online = true
	c2, conn2 := f.newClient("console-2")
	f.hub.Register(c2, RoleConsole)
	got2 := conn2.typesSent(t)
	if got2[1] != MsgDelegateOnline {
		t.Fatalf("second console should see delegate online, got %v", got2)
	}
}

func TestRegisterDelegateAttachesCoordinator(t *testing.T) {
	f := newHubFixture()
	c, _ := f.newClient("delegate-1")
	f.hub.Register(c, RoleDelegate)

	if len(f.delegates.attached) != 1 || f.delegates.attached[0] != c {
		t.Fatal("delegate client was not attached to the coordinator")
	}

	f.hub.Unregister(c)
	if len(f.delegates.detached) != 1 {
		t.Fatal("delegate client was not detached on unregister")
	}
}

func TestRegisterUnknownRoleRejected(t *testing.T) {
	f := newHubFixture()
	c, _ := f.newClient("weird")
	if f.hub.Register(c, Role("operator")) {
		t.Fatal("unknown role must be rejected")
	}
}

func TestPublishReachesOnlyTargetGroup(t *testing.T) {
	f := newHubFixture()
	display, displayConn := f.newClient("display-1")
	console, consoleConn := f.newClient("console-1")
	f.hub.Register(display, RoleDisplay)
	f.hub.Register(console, RoleConsole)

	f.hub.Publish(GroupDisplay, MsgFlagDrawing, FlagDrawingPayload{DrawingID: "x"})

	if got := displayConn.typesSent(t); got[len(got)-1] != MsgFlagDrawing {
		t.Fatalf("display did not receive flag: %v", got)
	}
	for _, typ := range consoleConn.typesSent(t) {
		if typ == MsgFlagDrawing {
			t.Fatal("console received a display-group message")
		}
	}
}

func TestBusEventsFanOut(t *testing.T) {
	f := newHubFixture()
	bus := events.New()
	if err := f.hub.BindBus(bus); err != nil {
		t.Fatalf("BindBus: %v", err)
	}

	display, displayConn := f.newClient("display-1")
	console, consoleConn := f.newClient("console-1")
	f.hub.Register(display, RoleDisplay)
	f.hub.Register(console, RoleConsole)

	bus.Publish(events.TopicDrawingAccepted, events.DrawingAccepted{ID: "d1", Payload: "img"})
	bus.Publish(events.TopicDrawingFlagged, events.DrawingFlagged{ID: "d1", Reasons: []string{"r"}})
	bus.Publish(events.TopicDrawingRemoved, events.DrawingRemoved{ID: "d1", Reason: "gone"})
	bus.Publish(events.TopicDelegateOnline)

	displayTypes := displayConn.typesSent(t)
	wantDisplay := []string{MsgNewDrawing, MsgFlagDrawing, MsgRemoveDrawing}
	if len(displayTypes) != len(wantDisplay) {
		t.Fatalf("display messages = %v, want %v", displayTypes, wantDisplay)
	}
	for i := range wantDisplay {
		if displayTypes[i] != wantDisplay[i] {
			t.Fatalf("display order = %v, want %v", displayTypes, wantDisplay)
		}
	}

	// remove-drawing to displays carries the bare id.
	msgs := displayConn.messages(t)
	var removedID string
	if err := json.Unmarshal(msgs[2].Data, &removedID); err != nil || removedID != "d1" {
		t.Fatalf("remove payload = %s (err %v)", msgs[2].Data, err)
	}

	consoleTypes := consoleConn.typesSent(t)
	// Console joined with snapshot + status, then flagged, removed, online.
	tail := consoleTypes[len(consoleTypes)-3:]
	if tail[0] != MsgDrawingFlagged || tail[1] != MsgDrawingRemoved || tail[2] != MsgDelegateOnline {
		t.Fatalf("console tail = %v", tail)
	}
}

func TestDispatchDrawingSubmits(t *testing.T) {
	f := newHubFixture()
	c, _ := f.newClient("input-1")

	frame, _ := Encode(MsgDrawing, DrawingPayload{ImagePayload: "img", DisplayHint: 2.5})
	c.dispatch(frame)

	if len(f.moderator.submitted) != 1 || f.moderator.submitted[0].ImagePayload != "img" {
		t.Fatalf("submitted = %+v", f.moderator.submitted)
	}
}

func TestDispatchAdminActionsRequireConsoleRole(t *testing.T) {
	f := newHubFixture()

	display, _ := f.newClient("display-1")
	f.hub.Register(display, RoleDisplay)
	remove, _ := Encode(MsgRemoveDrawing, "d1")
	display.dispatch(remove)
	if len(f.moderator.removed) != 0 {
		t.Fatal("display must not be able to remove drawings")
	}

	console, _ := f.newClient("console-1")
	f.hub.Register(console, RoleConsole)
	console.dispatch(remove)
	if len(f.moderator.removed) != 1 || f.moderator.removed[0] != "d1|removed by moderator" {
		t.Fatalf("removed = %v", f.moderator.removed)
	}

	pardon, _ := Encode(MsgPardonDrawing, "d2")
	console.dispatch(pardon)
	if len(f.moderator.pardoned) != 1 || f.moderator.pardoned[0] != "d2" {
		t.Fatalf("pardoned = %v", f.moderator.pardoned)
	}
}

func TestDispatchScanResponseRequiresDelegateRole(t *testing.T) {
	f := newHubFixture()

	stranger, _ := f.newClient("display-1")
	f.hub.Register(stranger, RoleDisplay)
	frame, _ := Encode(MsgScanResponse, ScanResponsePayload{CorrelationID: 7, Reasons: []string{"r"}})
	stranger.dispatch(frame)
	if len(f.delegates.resolved) != 0 {
		t.Fatal("non-delegate scan-response must be ignored")
	}

	del, _ := f.newClient("delegate-1")
	f.hub.Register(del, RoleDelegate)
	del.dispatch(frame)
	if len(f.delegates.resolved) != 1 || f.delegates.resolved[0] != 7 {
		t.Fatalf("resolved = %v", f.delegates.resolved)
	}
}

func TestDispatchMalformedFrameIgnored(t *testing.T) {
	f := newHubFixture()
	c, _ := f.newClient("input-1")

	c.dispatch([]byte("{not json"))
	c.dispatch([]byte(`{"type":"drawing","data":42}`))

	if len(f.moderator.submitted) != 0 {
		t.Fatal("malformed frames must not reach the pipeline")
	}
}

func TestClientSendScanFramesRequest(t *testing.T) {
	f := newHubFixture()
	c, conn := f.newClient("delegate-1")

	if err := c.SendScan(42, "img-bytes"); err != nil {
		t.Fatalf("SendScan: %v", err)
	}

	msgs := conn.messages(t)
	if len(msgs) != 1 || msgs[0].Type != MsgScanRequest {
		t.Fatalf("frames = %+v", msgs)
	}
	var p ScanRequestPayload
	if err := json.Unmarshal(msgs[0].Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.CorrelationID != 42 || p.ImagePayload != "img-bytes" {
		t.Fatalf("scan payload = %+v", p)
	}
}

func TestClientHandleStopsOnClose(t *testing.T) {
	f := newHubFixture()
	c, _ := f.newClient("input-1")

	done := make(chan struct{})
	go func() {
		c.Handle()
		close(done)
	}()

	c.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handle did not stop after Close")
	}
}

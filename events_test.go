package tollzone

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const testEventsXML = `<?xml version="1.0" encoding="utf-8"?>
<events version="1.0">
	<event time="21600.0" type="actend" person="p1" link="l1" actType="home"  />
	<event time="21900.0" type="personMoney" person="p1" amount="-0.25" purpose="toll" transactionPartner="roadpricing"  />
	<event time="22000.5" type="personMoney" person="p2" amount="-1.5" purpose="car parking cost"  />
	<event time="23000.0" type="personMoney" person="p3" amount="-2.0" purpose="pt fare"  />
	<event time="30000.0" type="personMoney" person="p2" amount="-0.5" purpose="toll"  />
	<event time="40000.0" type="personMoney" person="p1" amount="-3.75" purpose="bike parking cost"  />
</events>
`

type recordingHandler struct {
	events []PersonMoneyEvent
	resets []int
}

func (handler *recordingHandler) HandlePersonMoneyEvent(event PersonMoneyEvent) {
	handler.events = append(handler.events, event)
}

func (handler *recordingHandler) Reset(iteration int) {
	handler.resets = append(handler.resets, iteration)
}

func writeTestEvents(t *testing.T, dir, name, content string) string {
	fname := filepath.Join(dir, name)
	file, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if strings.HasSuffix(name, ".gz") {
		gz := gzip.NewWriter(file)
		if _, err := gz.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
		return fname
	}
	if _, err := file.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestReadEvents(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"output_events.xml", "output_events.xml.gz"} {
		fname := writeTestEvents(t, dir, name, testEventsXML)
		mgr := NewEventsManager()
		handler := &recordingHandler{}
		mgr.AddHandler(handler)
		n, err := ReadEvents(context.Background(), fname, mgr)
		if err != nil {
			t.Fatal(err)
		}
		if n != 5 || mgr.Processed() != 5 {
			t.Errorf("File '%s': number of money events must be 5, but got %d (processed %d)", name, n, mgr.Processed())
		}
		first := handler.events[0]
		correct := PersonMoneyEvent{Time: 21900, PersonID: "p1", Amount: -0.25, Purpose: "toll", TransactionPartner: "roadpricing"}
		if first != correct {
			t.Errorf("First event must be %+v, but got %+v", correct, first)
		}
	}
}

func TestReadEventsMalformed(t *testing.T) {
	tests := []string{
		`<events><event time="abc" type="personMoney" person="p1" amount="-1" purpose="toll"/></events>`,
		`<events><event time="1" type="personMoney" person="p1" amount="" purpose="toll"/></events>`,
		`<events><event time="1" type="personMoney" amount="-1" purpose="toll"/></events>`,
		`<events><event time="1" type="personMoney"`,
	}
	for i, test := range tests {
		_, err := DecodeEvents(context.Background(), strings.NewReader(test), NewEventsManager())
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("Case %d: error must be ErrMalformedInput, but got %v", i, err)
		}
	}
	_, err := ReadEvents(context.Background(), filepath.Join(t.TempDir(), "absent.xml"), NewEventsManager())
	if !errors.Is(err, ErrIO) {
		t.Errorf("Missing file must give ErrIO, but got %v", err)
	}
}

func TestReadEventsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	handler := &recordingHandler{}
	mgr := NewEventsManager()
	mgr.AddHandler(handler)
	_, err := DecodeEvents(ctx, strings.NewReader(testEventsXML), mgr)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Error must be context.Canceled, but got %v", err)
	}
	if len(handler.events) != 0 {
		t.Errorf("No events must be dispatched after cancellation, but got %d", len(handler.events))
	}
}

type failingListener struct {
	startupErr error
	shutdowns  []ShutdownEvent
}

func (listener *failingListener) NotifyStartup(event StartupEvent) error {
	return listener.startupErr
}

func (listener *failingListener) NotifyShutdown(event ShutdownEvent) error {
	listener.shutdowns = append(listener.shutdowns, event)
	return nil
}

func TestControllerReplay(t *testing.T) {
	dir := t.TempDir()
	fname := writeTestEvents(t, dir, "events.xml", testEventsXML)
	controller := NewController(dir)
	handler := &recordingHandler{}
	listener := &failingListener{}
	controller.AddEventHandler(handler)
	controller.AddStartupListener(listener)
	controller.AddShutdownListener(listener)
	if err := controller.Replay(context.Background(), fname, 3); err != nil {
		t.Fatal(err)
	}
	if len(handler.resets) != 1 || handler.resets[0] != 3 {
		t.Errorf("Handler must be reset once with iteration 3, but got %v", handler.resets)
	}
	if len(handler.events) != 5 {
		t.Errorf("Number of handled events must be 5, but got %d", len(handler.events))
	}
	if len(listener.shutdowns) != 1 || listener.shutdowns[0].Unexpected || listener.shutdowns[0].Iteration != 3 {
		t.Errorf("Shutdown must be called once normally for iteration 3, but got %+v", listener.shutdowns)
	}
}

func TestControllerReplayFailures(t *testing.T) {
	dir := t.TempDir()
	controller := NewController(dir)
	listener := &failingListener{startupErr: ioError(errors.New("disk full"), "can't start")}
	handler := &recordingHandler{}
	controller.AddEventHandler(handler)
	controller.AddStartupListener(listener)
	controller.AddShutdownListener(listener)
	fname := writeTestEvents(t, dir, "events.xml", testEventsXML)
	err := controller.Replay(context.Background(), fname, 0)
	if !errors.Is(err, ErrIO) {
		t.Errorf("Startup failure must be returned, but got %v", err)
	}
	if len(handler.events) != 0 {
		t.Errorf("Events must not be replayed after startup failure")
	}
	if len(listener.shutdowns) != 1 || !listener.shutdowns[0].Unexpected {
		t.Errorf("Shutdown must be called once as unexpected, but got %+v", listener.shutdowns)
	}

	controller = NewController(dir)
	listener = &failingListener{}
	controller.AddShutdownListener(listener)
	err = controller.Replay(context.Background(), filepath.Join(dir, "absent.xml"), 0)
	if !errors.Is(err, ErrIO) {
		t.Errorf("Missing events file must give ErrIO, but got %v", err)
	}
	if len(listener.shutdowns) != 1 || !listener.shutdowns[0].Unexpected {
		t.Errorf("Shutdown must be called once as unexpected, but got %+v", listener.shutdowns)
	}
}

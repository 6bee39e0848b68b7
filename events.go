package tollzone

// PersonMoneyEvent is a payment of agent produced by the simulation (tolls, parking costs, fares).
// Negative amount means the agent pays
type PersonMoneyEvent struct {
	Time               float64
	PersonID           string
	Amount             float64
	Purpose            string
	TransactionPartner string
}

// PersonMoneyEventHandler consumes money events
type PersonMoneyEventHandler interface {
	HandlePersonMoneyEvent(event PersonMoneyEvent)
	// Reset is called before every iteration
	Reset(iteration int)
}

// EventsManager dispatches events to registered handlers in registration order
type EventsManager struct {
	handlers  []PersonMoneyEventHandler
	processed int
}

// NewEventsManager creates manager without handlers
func NewEventsManager() *EventsManager {
	return &EventsManager{}
}

// AddHandler registers handler
func (mgr *EventsManager) AddHandler(handler PersonMoneyEventHandler) {
	mgr.handlers = append(mgr.handlers, handler)
}

// ProcessEvent passes event to every handler
func (mgr *EventsManager) ProcessEvent(event PersonMoneyEvent) {
	mgr.processed++
	for _, handler := range mgr.handlers {
		handler.HandlePersonMoneyEvent(event)
	}
}

// ResetHandlers notifies every handler about new iteration
func (mgr *EventsManager) ResetHandlers(iteration int) {
	for _, handler := range mgr.handlers {
		handler.Reset(iteration)
	}
}

// Processed returns number of events dispatched so far
func (mgr *EventsManager) Processed() int {
	return mgr.processed
}

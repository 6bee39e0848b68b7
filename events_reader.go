package tollzone

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

const personMoneyEventType = "personMoney"

// ReadEvents streams events file of the simulation framework (.xml or .xml.gz) and passes every
// 'personMoney' event to manager. Other event types are skipped. Returns number of dispatched events
func ReadEvents(ctx context.Context, fname string, mgr *EventsManager) (int, error) {
	rc, err := openMaybeGzip(fname)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	n, err := DecodeEvents(ctx, rc, mgr)
	if err != nil {
		return n, errors.Wrapf(err, "events '%s'", fname)
	}
	return n, nil
}

// DecodeEvents reads events XML from reader. Context is checked between events
func DecodeEvents(ctx context.Context, r io.Reader, mgr *EventsManager) (int, error) {
	decoder := xml.NewDecoder(r)
	eventIdx := 0
	dispatched := 0
	for {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dispatched, malformedError(err, "can't parse events XML after event #%d", eventIdx)
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "event" {
			continue
		}
		eventIdx++
		if eventType, _ := xmlAttr(se, "type"); eventType != personMoneyEventType {
			continue
		}
		event, err := parsePersonMoneyEvent(se)
		if err != nil {
			return dispatched, errors.Wrapf(err, "event #%d", eventIdx)
		}
		mgr.ProcessEvent(event)
		dispatched++
	}
	return dispatched, nil
}

func parsePersonMoneyEvent(se xml.StartElement) (PersonMoneyEvent, error) {
	event := PersonMoneyEvent{}
	timeText, _ := xmlAttr(se, "time")
	t, err := strconv.ParseFloat(timeText, 64)
	if err != nil {
		return event, malformedError(err, "bad 'time'")
	}
	amountText, _ := xmlAttr(se, "amount")
	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil {
		return event, malformedError(err, "bad 'amount'")
	}
	person, ok := xmlAttr(se, "person")
	if !ok || person == "" {
		return event, malformedError(nil, "no 'person'")
	}
	event.Time = t
	event.Amount = amount
	event.PersonID = person
	event.Purpose, _ = xmlAttr(se, "purpose")
	event.TransactionPartner, _ = xmlAttr(se, "transactionPartner")
	return event, nil
}

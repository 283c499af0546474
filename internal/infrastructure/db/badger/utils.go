package badgerdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tombolabs/tombola/internal/core/domain"
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
					logger.Errorf("%s", err)
				}
			}
		}()
	}

	return db, nil
}

const (
	eventTypeRoundOpened          = "round_opened"
	eventTypeContributionRecorded = "contribution_recorded"
	eventTypeDrawingStarted       = "drawing_started"
	eventTypeWinnerDrawn          = "winner_drawn"
	eventTypeRoundCancelled       = "round_cancelled"
	eventTypePrizeClaimed         = "prize_claimed"
	eventTypeRefundsWithdrawn     = "refunds_withdrawn"
)

type eventEnvelope struct {
	Type    string
	Payload json.RawMessage
}

func serializeEvents(events []domain.RoundEvent) ([][]byte, error) {
	rawEvents := make([][]byte, 0, len(events))
	for _, event := range events {
		buf, err := serializeEvent(event)
		if err != nil {
			return nil, err
		}
		rawEvents = append(rawEvents, buf)
	}
	return rawEvents, nil
}

func deserializeEvents(rawEvents [][]byte) ([]domain.RoundEvent, error) {
	events := make([]domain.RoundEvent, 0, len(rawEvents))
	for _, buf := range rawEvents {
		event, err := deserializeEvent(buf)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func serializeEvent(event domain.RoundEvent) ([]byte, error) {
	var eventType string
	switch event.(type) {
	case domain.RoundOpened:
		eventType = eventTypeRoundOpened
	case domain.ContributionRecorded:
		eventType = eventTypeContributionRecorded
	case domain.DrawingStarted:
		eventType = eventTypeDrawingStarted
	case domain.WinnerDrawn:
		eventType = eventTypeWinnerDrawn
	case domain.RoundCancelled:
		eventType = eventTypeRoundCancelled
	case domain.PrizeClaimed:
		eventType = eventTypePrizeClaimed
	case domain.RefundsWithdrawn:
		eventType = eventTypeRefundsWithdrawn
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventEnvelope{Type: eventType, Payload: payload})
}

func deserializeEvent(buf []byte) (domain.RoundEvent, error) {
	envelope := eventEnvelope{}
	if err := json.Unmarshal(buf, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Type {
	case eventTypeRoundOpened:
		event := domain.RoundOpened{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypeContributionRecorded:
		event := domain.ContributionRecorded{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypeDrawingStarted:
		event := domain.DrawingStarted{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypeWinnerDrawn:
		event := domain.WinnerDrawn{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypeRoundCancelled:
		event := domain.RoundCancelled{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypePrizeClaimed:
		event := domain.PrizeClaimed{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	case eventTypeRefundsWithdrawn:
		event := domain.RefundsWithdrawn{}
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

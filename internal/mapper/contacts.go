package mapper

import (
	"github.com/google/uuid"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/jscontact"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// ContactMapper converts vCards and JSContact cards in one dialect. It
// holds no per-record state and may be shared between goroutines.
type ContactMapper struct {
	dialect jscontact.Dialect
	opts    Options
}

// NewContactMapper returns a mapper for dialect.
func NewContactMapper(dialect jscontact.Dialect, opts Options) *ContactMapper {
	return &ContactMapper{dialect: dialect, opts: opts.withDefaults()}
}

// Dialect returns the mapper's dialect.
func (m *ContactMapper) Dialect() jscontact.Dialect {
	return m.dialect
}

// MapToJSON converts every input into a Card, in input order. The first
// input that is not a vCard aborts the batch.
func (m *ContactMapper) MapToJSON(inputs []LegacyInput) ([]Record[*models.Card], error) {
	out := make([]Record[*models.Card], 0, len(inputs))
	for _, in := range inputs {
		vc, err := legacy.ParseVCard(in.Data)
		if err != nil {
			return nil, parseFailure(in.ID, err)
		}

		a := jscontact.NewAdapter(m.dialect, m.opts.Logger.WithFields(logging.Record(in.ID)))
		a.Bind(vc)
		card := models.NewCard()
		for _, rule := range a.Rules() {
			rule.Get(a, card)
		}
		out = append(out, Record[*models.Card]{ID: in.ID, Data: card})
	}
	return out, nil
}

// MapFromJSON converts every card into vCard text. Each request gets its own
// Result, in input order; a card that cannot be expressed fails alone.
func (m *ContactMapper) MapFromJSON(requests []CreateRequest[*models.Card]) []Result {
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		results = append(results, m.mapOne(req))
	}
	return results
}

func (m *ContactMapper) mapOne(req CreateRequest[*models.Card]) Result {
	logger := m.opts.Logger.WithFields(logging.Record(req.ID))
	if req.Data == nil {
		return failed(logger, req.ID, errMissingRecord)
	}

	card := *req.Data
	if !values.HasText(card.UID) {
		card.UID = "urn:uuid:" + uuid.NewString()
		logger.Debug("Synthesized uid", logging.String("uid", card.UID))
	}
	if !values.HasText(card.ProdID) {
		card.ProdID = m.opts.ProdID
	}

	a := jscontact.NewAdapter(m.dialect, logger)
	for _, rule := range a.Rules() {
		if err := rule.Set(a, &card); err != nil {
			return failed(logger, req.ID, err)
		}
	}

	text, err := legacy.SerializeVCard(a.VCard())
	if err != nil {
		return failed(logger, req.ID, err)
	}
	return Result{ID: req.ID, Data: text}
}

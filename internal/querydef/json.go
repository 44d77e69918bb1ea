package querydef

import (
	"encoding/json"
	"fmt"
)

// The Criterion union is serialized with a "kind" discriminator so a
// saved definition round-trips to a structurally identical value.

type criterionEnvelope struct {
	Kind    DataKind        `json:"kind"`
	Payload json.RawMessage `json:"criterion"`
}

func encodeCriterion(c Criterion) (json.RawMessage, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode criterion: %w", err)
	}
	return json.Marshal(criterionEnvelope{Kind: c.criterionKind(), Payload: payload})
}

func decodeCriterion(raw json.RawMessage) (Criterion, error) {
	var envelope criterionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode criterion envelope: %w", err)
	}

	switch envelope.Kind {
	case KindString:
		var c StringCriterion
		if err := json.Unmarshal(envelope.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode string criterion: %w", err)
		}
		return c, nil
	case KindNumeric:
		var c NumericCriterion
		if err := json.Unmarshal(envelope.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode numeric criterion: %w", err)
		}
		return c, nil
	case KindDate:
		var c DateCriterion
		if err := json.Unmarshal(envelope.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode date criterion: %w", err)
		}
		return c, nil
	case KindSet:
		var c SetCriterion
		if err := json.Unmarshal(envelope.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode set criterion: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown criterion kind %q", envelope.Kind)
	}
}

type definitionJSON struct {
	Name     string            `json:"name,omitempty"`
	From     TableRef          `json:"from"`
	Joins    []JoinSpec        `json:"joins,omitempty"`
	Display  []FieldRef        `json:"display"`
	Criteria []json.RawMessage `json:"criteria,omitempty"`
}

func (d QueryDefinition) MarshalJSON() ([]byte, error) {
	out := definitionJSON{
		Name:    d.Name,
		From:    d.From,
		Joins:   d.Joins,
		Display: d.Display,
	}
	for _, criterion := range d.Criteria {
		raw, err := encodeCriterion(criterion)
		if err != nil {
			return nil, err
		}
		out.Criteria = append(out.Criteria, raw)
	}
	return json.Marshal(out)
}

func (d *QueryDefinition) UnmarshalJSON(data []byte) error {
	var in definitionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode query definition: %w", err)
	}

	decoded := QueryDefinition{
		Name:    in.Name,
		From:    in.From,
		Joins:   in.Joins,
		Display: in.Display,
	}
	for _, raw := range in.Criteria {
		criterion, err := decodeCriterion(raw)
		if err != nil {
			return err
		}
		decoded.Criteria = append(decoded.Criteria, criterion)
	}

	*d = decoded
	return nil
}

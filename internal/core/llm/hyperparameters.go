package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

// HyperparameterValue is a tagged optional: absent, a fixed positive number,
// or the provider-chosen "auto".
type HyperparameterValue struct {
	set   bool
	auto  bool
	num   float64
	isInt bool
}

// Auto returns the provider-chosen value.
func Auto() HyperparameterValue {
	return HyperparameterValue{set: true, auto: true}
}

// Int returns a fixed integer value.
func Int(v int) HyperparameterValue {
	return HyperparameterValue{set: true, num: float64(v), isInt: true}
}

// Float returns a fixed floating-point value.
func Float(v float64) HyperparameterValue {
	return HyperparameterValue{set: true, num: v}
}

// IsSet reports whether the value should be sent to the provider at all.
func (v HyperparameterValue) IsSet() bool {
	return v.set
}

// Payload returns the wire value: "auto", an integer, or a float.
func (v HyperparameterValue) Payload() any {
	switch {
	case !v.set:
		return nil
	case v.auto:
		return "auto"
	case v.isInt:
		return int(v.num)
	default:
		return v.num
	}
}

// MarshalJSON renders absent as null so reports show exactly what was sent.
func (v HyperparameterValue) MarshalJSON() ([]byte, error) {
	payload := v.Payload()
	if payload == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling hyperparameter: %w", err)
	}

	return data, nil
}

// Hyperparameters is the optional fine-tuning configuration. Unset fields are
// omitted from the provider request so its defaults apply.
type Hyperparameters struct {
	Epochs                 HyperparameterValue `json:"n_epochs"`
	BatchSize              HyperparameterValue `json:"batch_size"`
	LearningRateMultiplier HyperparameterValue `json:"learning_rate_multiplier"`
}

// Empty reports whether no hyperparameter was set.
func (h Hyperparameters) Empty() bool {
	return !h.Epochs.IsSet() && !h.BatchSize.IsSet() && !h.LearningRateMultiplier.IsSet()
}

// ParseIntOrAuto parses a flag value: "" is absent, "auto" is provider-chosen,
// anything else must be a positive integer.
func ParseIntOrAuto(value, field string) (HyperparameterValue, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return HyperparameterValue{}, nil
	}

	if strings.EqualFold(text, "auto") {
		return Auto(), nil
	}

	parsed, err := strconv.Atoi(text)
	if err != nil || parsed <= 0 {
		return HyperparameterValue{}, fmt.Errorf("%w: %s must be a positive integer or 'auto'", errors.ErrInvalidArgument, field)
	}

	return Int(parsed), nil
}

// ParseFloatOrAuto is ParseIntOrAuto for positive floating-point values.
func ParseFloatOrAuto(value, field string) (HyperparameterValue, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return HyperparameterValue{}, nil
	}

	if strings.EqualFold(text, "auto") {
		return Auto(), nil
	}

	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil || parsed <= 0 {
		return HyperparameterValue{}, fmt.Errorf("%w: %s must be a positive number or 'auto'", errors.ErrInvalidArgument, field)
	}

	return Float(parsed), nil
}

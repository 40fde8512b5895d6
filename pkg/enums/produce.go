package enums

import (
	"fmt"
	"strings"
)

// Produce is a label the classification oracle may return.
type Produce string

const (
	ProduceCarrot     Produce = "Carrot"
	ProduceTomato     Produce = "Tomato"
	ProducePumpkin    Produce = "Pumpkin"
	ProduceCorn       Produce = "Corn"
	ProduceRedChili   Produce = "Red_Chili"
	ProduceBellPepper Produce = "Bell_Pepper"
	ProduceCucumber   Produce = "Cucumber"
	// ProduceUnknown is the terminal fallback label; its price is 0 by convention.
	ProduceUnknown Produce = "Unknown"
)

var knownProduce = []Produce{
	ProduceCarrot,
	ProduceTomato,
	ProducePumpkin,
	ProduceCorn,
	ProduceRedChili,
	ProduceBellPepper,
	ProduceCucumber,
}

// KnownProduce returns the real classes in display order, excluding the fallback.
func KnownProduce() []Produce {
	out := make([]Produce, len(knownProduce))
	copy(out, knownProduce)
	return out
}

// String implements fmt.Stringer.
func (p Produce) String() string {
	return string(p)
}

// IsValid reports whether the value is a known class or the fallback.
func (p Produce) IsValid() bool {
	if p == ProduceUnknown {
		return true
	}
	for _, candidate := range knownProduce {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProduce converts raw input into a Produce, matching case-insensitively.
func ParseProduce(value string) (Produce, error) {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, string(ProduceUnknown)) {
		return ProduceUnknown, nil
	}
	for _, candidate := range knownProduce {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid produce %q", value)
}

// NormalizeProduce maps anything outside the closed set onto the fallback label.
func NormalizeProduce(value string) Produce {
	parsed, err := ParseProduce(value)
	if err != nil {
		return ProduceUnknown
	}
	return parsed
}

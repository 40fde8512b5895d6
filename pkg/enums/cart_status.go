package enums

import "fmt"

// CartStatus is where a till cart sits between the first scan and checkout.
// A cart that is checking out is frozen until the sale commits or fails.
type CartStatus string

const (
	CartStatusEmpty        CartStatus = "empty"
	CartStatusAccumulating CartStatus = "accumulating"
	CartStatusCheckingOut  CartStatus = "checking_out"
)

func (c CartStatus) String() string {
	return string(c)
}

// Mutable reports whether items may be added, removed or discarded.
func (c CartStatus) Mutable() bool {
	return c != CartStatusCheckingOut
}

func ParseCartStatus(value string) (CartStatus, error) {
	switch status := CartStatus(value); status {
	case CartStatusEmpty, CartStatusAccumulating, CartStatusCheckingOut:
		return status, nil
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}

func (c *CartStatus) UnmarshalText(text []byte) error {
	status, err := ParseCartStatus(string(text))
	if err != nil {
		return err
	}
	*c = status
	return nil
}

package provider

import "fmt"

// Provider identifies an external delivery platform whose webhooks the
// gateway accepts. Each provider has its own authentication scheme, payload
// shape, and acknowledgment vocabulary.
type Provider string

const (
	Careem    Provider = "careem"
	Deliveroo Provider = "deliveroo"
	Talabat   Provider = "talabat"
	Jahez     Provider = "jahez"
)

// All returns every supported provider in route-registration order.
func All() []Provider {
	return []Provider{Careem, Deliveroo, Talabat, Jahez}
}

// Parse maps a route segment to a Provider.
func Parse(s string) (Provider, error) {
	switch Provider(s) {
	case Careem, Deliveroo, Talabat, Jahez:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

func (p Provider) String() string {
	return string(p)
}

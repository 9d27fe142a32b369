package property

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultNamespace seeds listing IDs when no namespace is configured.
var DefaultNamespace = uuid.NameSpaceDNS

// ListingID derives the dedup key from the raw, un-normalized sale date and
// address strings. The same inputs always yield the same ID.
func ListingID(namespace uuid.UUID, rawSaleDate, rawAddress string) string {
	return uuid.NewSHA1(namespace, []byte(rawSaleDate+"_"+rawAddress)).String()
}

// ParseNamespace parses a UUID namespace, falling back to DefaultNamespace for "".
func ParseNamespace(s string) (uuid.UUID, error) {
	if s == "" {
		return DefaultNamespace, nil
	}
	ns, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse namespace %q: %w", s, err)
	}
	return ns, nil
}

package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "villageinsure/pkg/domain-errors"
)

// Typed identifiers. Each aggregate gets its own type so a ClaimID can never be
// passed where a PolicyID is expected.
type (
	PolicyID       uuid.UUID
	SubscriptionID uuid.UUID
	ClaimID        uuid.UUID
	ProposalID     uuid.UUID
	PaymentID      uuid.UUID
	InvestmentID   uuid.UUID
)

// Address is a wallet address supplied by the identity provider. It is an
// opaque lookup key; the only rules are the ones in ParseAddress.
type Address string

const maxAddressLength = 128

// ParseAddress validates a wallet address at a trust boundary.
//
// Errors: CodeInvalidInput for empty, oversized, non-UTF8 input or input that
// contains whitespace or control characters.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(s) > maxAddressLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be valid UTF-8")
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || !unicode.IsPrint(r)
	}) >= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address contains invalid characters")
	}
	return Address(s), nil
}

func (a Address) String() string { return string(a) }
func (a Address) IsNil() bool    { return a == "" }

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

func unmarshalUUID(text []byte, kind string) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return parseUUID(string(text), kind)
}

func ParsePolicyID(s string) (PolicyID, error) {
	u, err := parseUUID(s, "policy")
	return PolicyID(u), err
}

func (i PolicyID) String() string { return uuid.UUID(i).String() }
func (i PolicyID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i PolicyID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *PolicyID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "policy")
	*i = PolicyID(u)
	return err
}

func ParseSubscriptionID(s string) (SubscriptionID, error) {
	u, err := parseUUID(s, "subscription")
	return SubscriptionID(u), err
}

func (i SubscriptionID) String() string { return uuid.UUID(i).String() }
func (i SubscriptionID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i SubscriptionID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *SubscriptionID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "subscription")
	*i = SubscriptionID(u)
	return err
}

func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s, "claim")
	return ClaimID(u), err
}

func (i ClaimID) String() string { return uuid.UUID(i).String() }
func (i ClaimID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i ClaimID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *ClaimID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "claim")
	*i = ClaimID(u)
	return err
}

func ParseProposalID(s string) (ProposalID, error) {
	u, err := parseUUID(s, "proposal")
	return ProposalID(u), err
}

func (i ProposalID) String() string { return uuid.UUID(i).String() }
func (i ProposalID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i ProposalID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *ProposalID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "proposal")
	*i = ProposalID(u)
	return err
}

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID(s, "payment")
	return PaymentID(u), err
}

func (i PaymentID) String() string { return uuid.UUID(i).String() }
func (i PaymentID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i PaymentID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *PaymentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "payment")
	*i = PaymentID(u)
	return err
}

func ParseInvestmentID(s string) (InvestmentID, error) {
	u, err := parseUUID(s, "investment")
	return InvestmentID(u), err
}

func (i InvestmentID) String() string { return uuid.UUID(i).String() }
func (i InvestmentID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i InvestmentID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *InvestmentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text, "investment")
	*i = InvestmentID(u)
	return err
}

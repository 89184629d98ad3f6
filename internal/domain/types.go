package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// Account is an opaque account identifier (owner, admin, recipient)
type Account string

// String returns the account as a string
func (a Account) String() string {
	return string(a)
}

// IsZero reports whether the account is empty
func (a Account) IsZero() bool {
	return a == ""
}

// NormalizeAccount trims an account identifier and converts hex addresses to their EIP-55
// checksum form. Other identifiers are kept as they are.
func NormalizeAccount(account string) Account {
	account = strings.TrimSpace(account)
	if strings.HasPrefix(account, "0x") && common.IsHexAddress(account) {
		return Account(common.HexToAddress(account).Hex())
	}
	return Account(account)
}

// TokenID identifies a token. Ids are assigned at mint time from FirstTokenID and never reused.
type TokenID uint64

// String returns the decimal form of the id
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTokenID parses a decimal token id
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q: %w", s, err)
	}
	return TokenID(v), nil
}

// Amount is a signed quantity of the settlement asset
type Amount int64

// Timestamp is the externally supplied time reference (a logical clock or block height)
type Timestamp uint64

// Tier is the access level of a token. Only Tier1, Tier2 and Tier3 exist.
type Tier uint8

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
)

// Tiers lists every tier in ascending order
var Tiers = [TierCount]Tier{Tier1, Tier2, Tier3}

// ParseTier converts a raw tier number into a Tier, failing with ErrInvalidTier when out of range
func ParseTier(n uint64) (Tier, error) {
	switch n {
	case 1:
		return Tier1, nil
	case 2:
		return Tier2, nil
	case 3:
		return Tier3, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidTier, n)
	}
}

// Index returns the zero based position of the tier, usable as an array index
func (t Tier) Index() int {
	switch t {
	case Tier1:
		return 0
	case Tier2:
		return 1
	case Tier3:
		return 2
	default:
		panic(fmt.Sprintf("tier %d out of range", uint8(t)))
	}
}

// Valid reports whether t is one of the defined tiers
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier3
}

// Expiry is an optional point in time after which a token's expiry has lapsed.
// The zero value means no expiry is set.
type Expiry struct {
	at  Timestamp
	set bool
}

// NoExpiry is the unset expiry
var NoExpiry = Expiry{}

// ExpiresAt returns an expiry set to t
func ExpiresAt(t Timestamp) Expiry {
	return Expiry{at: t, set: true}
}

// Get returns the expiry time and whether it is set
func (e Expiry) Get() (Timestamp, bool) {
	return e.at, e.set
}

// IsSet reports whether an expiry is present
func (e Expiry) IsSet() bool {
	return e.set
}

// After reports whether the expiry is set and strictly later than t
func (e Expiry) After(t Timestamp) bool {
	return e.set && e.at > t
}

func (e Expiry) String() string {
	if !e.set {
		return "none"
	}
	return strconv.FormatUint(uint64(e.at), 10)
}

// MarshalJSON encodes an unset expiry as null
func (e Expiry) MarshalJSON() ([]byte, error) {
	if !e.set {
		return []byte("null"), nil
	}
	return json.Marshal(uint64(e.at))
}

// UnmarshalJSON decodes null as an unset expiry
func (e *Expiry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = NoExpiry
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid expiry: %w", err)
	}
	*e = ExpiresAt(Timestamp(v))
	return nil
}

// TokenInfo is the tier info stored per token
type TokenInfo struct {
	Tier     Tier   `json:"tier"`
	Expiry   Expiry `json:"expiry"`
	Metadata string `json:"metadata"`
}

// MetadataFits reports whether metadata is within MaxMetadataLength characters
func MetadataFits(metadata string) bool {
	return utf8.RuneCountInString(metadata) <= MaxMetadataLength
}

// HistoryAction names the operation recorded in a history entry
type HistoryAction string

const (
	HistoryActionMint           HistoryAction = "mint"
	HistoryActionAdminMint      HistoryAction = "admin-mint"
	HistoryActionUpgrade        HistoryAction = "upgrade"
	HistoryActionTransfer       HistoryAction = "transfer"
	HistoryActionMetadataUpdate HistoryAction = "metadata-update"
	HistoryActionExpiryExtend   HistoryAction = "expiry-extend"
)

// EventType represents the type of lifecycle event emitted after a committed operation
type EventType string

const (
	EventTypeMint           EventType = "mint"
	EventTypeAdminMint      EventType = "admin_mint"
	EventTypeUpgrade        EventType = "upgrade"
	EventTypeBurn           EventType = "burn"
	EventTypeTransfer       EventType = "transfer"
	EventTypeMetadataUpdate EventType = "metadata_update"
	EventTypeExpiryExtend   EventType = "expiry_extend"
	EventTypeConfigUpdate   EventType = "config_update"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventTypeMint, EventTypeAdminMint, EventTypeUpgrade, EventTypeBurn, EventTypeTransfer,
		EventTypeMetadataUpdate, EventTypeExpiryExtend, EventTypeConfigUpdate:
		return true
	default:
		return false
	}
}

// LifecycleEvent is published after an operation commits.
// Setting names the changed configuration field of a config_update event.
type LifecycleEvent struct {
	ID        string     `json:"id"`
	Type      EventType  `json:"type"`
	TokenID   *TokenID   `json:"token_id,omitempty"`
	Actor     Account    `json:"actor"`
	Recipient *Account   `json:"recipient,omitempty"`
	Tier      *Tier      `json:"tier,omitempty"`
	Amount    *Amount    `json:"amount,omitempty"`
	Expiry    *Timestamp `json:"expiry,omitempty"`
	Setting   string     `json:"setting,omitempty"`
	Timestamp Timestamp  `json:"timestamp"`
}

// Package domain holds the primitive value types shared by every ledger module.
// Construct them with the Parse* functions at trust boundaries; direct casts skip
// validation.
package domain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "fundledger/pkg/domain-errors"
)

// CampaignID is the sequential, zero-based identifier of a campaign.
type CampaignID uint64

func (id CampaignID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ReceiptID is the sequential, zero-based identifier of a donor receipt.
type ReceiptID uint64

func (id ReceiptID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseCampaignID parses a decimal campaign identifier.
func ParseCampaignID(s string) (CampaignID, error) {
	n, err := parseSequential(s)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid campaign id")
	}
	return CampaignID(n), nil
}

// ParseReceiptID parses a decimal receipt identifier.
func ParseReceiptID(s string) (ReceiptID, error) {
	n, err := parseSequential(s)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid receipt id")
	}
	return ReceiptID(n), nil
}

func parseSequential(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || !isDigits(s) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseUint(s, 10, 64)
}

// Address is a 20-byte account address (contributors, owners, tokens).
// The zero value is the zero address and is never a valid participant.
type Address struct {
	common.Address
}

// ZeroAddress is the all-zero address.
var ZeroAddress = Address{}

// ParseAddress validates a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	return Address{common.HexToAddress(s)}, nil
}

// MustAddress parses s and panics on failure. Intended for constants and tests.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

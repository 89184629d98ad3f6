package domain

const (
	// MaxMetadataLength is the maximum number of characters a token metadata string may hold
	MaxMetadataLength = 256

	// MaxHistoryEntries is the number of audit entries retained per token
	MaxHistoryEntries = 10

	// TierCount is the number of defined tiers
	TierCount = 3

	// FirstTokenID is the id assigned to the first minted token
	FirstTokenID TokenID = 1
)

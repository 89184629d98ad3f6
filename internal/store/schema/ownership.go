package schema

// TokenOwner represents the token_owners table - the token to owner direction of the ownership index
type TokenOwner struct {
	// TokenID is the owned token
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	// Owner is the account holding the token
	Owner string `gorm:"column:owner;not null;type:text;index"`
}

// TableName specifies the table name for the TokenOwner model
func (TokenOwner) TableName() string {
	return "token_owners"
}

// OwnerToken represents the owner_tokens table - the owner to token direction of the ownership index.
// It is stored separately because an admin mint can rebind an owner without clearing the older token's owner.
type OwnerToken struct {
	// Owner is the account
	Owner string `gorm:"column:owner;primaryKey;type:text"`
	// TokenID is the token the account is bound to
	TokenID uint64 `gorm:"column:token_id;not null"`
}

// TableName specifies the table name for the OwnerToken model
func (OwnerToken) TableName() string {
	return "owner_tokens"
}

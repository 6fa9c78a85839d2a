package store

// Declare database key prefix for objects
const (
	PrefixBalance = "balance:"

	PrefixMintRecord = "mint:"

	PrefixMinter = "minter:"

	PrefixStateMeta      = "state_meta:"
	StateMetaKeyAdmin    = "admin"
	StateMetaKeyPaused   = "paused"
	StateMetaKeySupply   = "total_supply"
	StateMetaKeyCounter  = "mint_counter"
	StateMetaKeyTokenURI = "token_uri"
	StateMetaKeyDigest   = "digest"
)

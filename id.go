package txledger

import "github.com/xraph/txledger/id"

// ID identifies a pipeline run or a snapshot export.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

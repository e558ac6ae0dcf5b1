package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "docpile_"

const (
	TABLE_DOCUMENT     = TableName("document")
	TABLE_CHUNK        = TableName("chunk")
	TABLE_ACCESS_TOKEN = TableName("access_token")
)

package config

import (
	"strings"

	"github.com/iancoleman/strcase"
)

type NamingConvention interface {
	// ToCQLTable returns the table name used to store the documents of a collection
	ToCQLTable(collection string) string

	// ToCQLIndex returns the name of the index created for column on the collection table
	ToCQLIndex(collection string, column string) string
}

type defaultNaming struct {
}

func NewDefaultNaming() NamingConvention {
	return &defaultNaming{}
}

func (n *defaultNaming) ToCQLTable(collection string) string {
	return strcase.ToSnake(collection)
}

func (n *defaultNaming) ToCQLIndex(collection string, column string) string {
	return n.ToCQLTable(collection) + "_" + strings.ToLower(column)
}

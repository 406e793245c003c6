package config

import (
	"fmt"
)

type SchemaOperations int

const (
	CollectionCreate SchemaOperations = 1 << iota
	CollectionDelete
)

func Ops(ops ...string) (SchemaOperations, error) {
	var o SchemaOperations
	err := o.Add(ops...)
	return o, err
}

func (o *SchemaOperations) Set(ops SchemaOperations)             { *o |= ops }
func (o *SchemaOperations) Clear(ops SchemaOperations)           { *o &= ^ops }
func (o SchemaOperations) IsSupported(ops SchemaOperations) bool { return o&ops != 0 }

func (o *SchemaOperations) Add(ops ...string) error {
	for _, op := range ops {
		switch op {
		case "CollectionCreate":
			o.Set(CollectionCreate)
		case "CollectionDelete":
			o.Set(CollectionDelete)
		default:
			return fmt.Errorf("invalid operation: %s", op)
		}
	}
	return nil
}

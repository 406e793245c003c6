package models

import "encoding/json"

// A find, findOne or countDocuments command
type FindCommand struct {
	Filter  map[string]interface{} `json:"filter"`
	Sort    json.RawMessage        `json:"sort"`
	Options map[string]interface{} `json:"options"`
}

type FindOptions struct {
	Limit     int    `mapstructure:"limit" validate:"gte=0"`
	Skip      int    `mapstructure:"skip" validate:"gte=0"`
	PageState string `mapstructure:"pageState"`
}

type InsertOneCommand struct {
	Document map[string]interface{} `json:"document" validate:"required"`
}

type InsertManyCommand struct {
	Documents []map[string]interface{} `json:"documents" validate:"required,min=1,dive,required"`
	Options   map[string]interface{}   `json:"options"`
}

type InsertManyOptions struct {
	// Ordered defaults to true
	Ordered *bool `mapstructure:"ordered"`
}

// A deleteOne or deleteMany command
type DeleteCommand struct {
	Filter map[string]interface{} `json:"filter"`
}

// A findOneAndReplace or replaceOne command
type ReplaceCommand struct {
	Filter      map[string]interface{} `json:"filter"`
	Sort        json.RawMessage        `json:"sort"`
	Replacement map[string]interface{} `json:"replacement" validate:"required"`
	Options     map[string]interface{} `json:"options"`
}

type ReplaceOptions struct {
	Upsert         bool   `mapstructure:"upsert"`
	ReturnDocument string `mapstructure:"returnDocument" validate:"omitempty,oneof=before after"`
}

// A createCollection or deleteCollection command
type CollectionCommand struct {
	Name string `json:"name" validate:"required,max=48"`
}

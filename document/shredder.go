package document

import (
	"sort"
	"strings"
	"time"

	e "github.com/datastax/cassandra-document-api/errors"
	"gopkg.in/inf.v0"
)

// WritableDocument is the flat column representation of a document
type WritableDocument struct {
	ID                   ID
	DocJSON              string
	Doc                  map[string]interface{}
	ExistKeys            []string
	ArraySize            map[string]int
	ArrayContains        []string
	QueryBoolValues      map[string]int8
	QueryDblValues       map[string]*inf.Dec
	QueryTextValues      map[string]string
	QueryTimestampValues map[string]time.Time
	QueryNullValues      []string
}

type Shredder struct {
	hasher Hasher
}

func NewShredder(hasher Hasher) *Shredder {
	return &Shredder{hasher: hasher}
}

type shredState struct {
	hasher        Hasher
	doc           *WritableDocument
	existKeys     map[string]bool
	arrayContains map[string]bool
	nullValues    map[string]bool
}

// Shred decomposes doc into its index columns and canonical JSON body. A random id is assigned
// when the document has no "_id"; doc itself is not modified.
func (s *Shredder) Shred(doc map[string]interface{}) (*WritableDocument, error) {
	if doc == nil {
		return nil, e.Errorf(e.ShredBadDocumentType, nil, "document to shred must be a JSON object")
	}

	doc = DeepCopy(doc)
	var id ID
	if rawID, ok := doc[IDField]; ok {
		var err error
		if id, err = NewID(rawID); err != nil {
			return nil, e.Errorf(e.ShredBadDocumentIDType, err, "%s", e.Message(err))
		}
		doc[IDField] = id.JSON()
	} else {
		id = NewRandomID()
		doc[IDField] = id.JSON()
	}

	docJSON, err := CanonicalJSON(doc)
	if err != nil {
		return nil, e.Errorf(e.ShredBadDocumentType, err, "unable to serialize document")
	}

	state := &shredState{
		hasher: s.hasher,
		doc: &WritableDocument{
			ID:                   id,
			DocJSON:              docJSON,
			Doc:                  doc,
			ArraySize:            map[string]int{},
			QueryBoolValues:      map[string]int8{},
			QueryDblValues:       map[string]*inf.Dec{},
			QueryTextValues:      map[string]string{},
			QueryTimestampValues: map[string]time.Time{},
		},
		existKeys:     map[string]bool{},
		arrayContains: map[string]bool{},
		nullValues:    map[string]bool{},
	}

	if err := state.shredObject("", doc); err != nil {
		return nil, err
	}

	state.doc.ExistKeys = sortedKeys(state.existKeys)
	state.doc.ArrayContains = sortedKeys(state.arrayContains)
	state.doc.QueryNullValues = sortedKeys(state.nullValues)
	return state.doc, nil
}

func (s *shredState) shredObject(prefix string, obj map[string]interface{}) error {
	for key, value := range obj {
		if key == "" || strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			return e.Errorf(e.ShredBadDocumentType, nil,
				"invalid field name '%s': must not be empty, start with '$' or contain '.'", key)
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if err := s.shredValue(path, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *shredState) shredValue(path string, value interface{}) error {
	s.existKeys[path] = true
	if err := s.addContains(path, value); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
		s.nullValues[path] = true
	case bool:
		if v {
			s.doc.QueryBoolValues[path] = 1
		} else {
			s.doc.QueryBoolValues[path] = 0
		}
	case string:
		s.doc.QueryTextValues[path] = v
	case []interface{}:
		s.doc.ArraySize[path] = len(v)
		for _, element := range v {
			if err := s.addContains(path, element); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		if t, ok := AsDate(v); ok {
			s.doc.QueryTimestampValues[path] = t
			return nil
		}
		return s.shredObject(path, v)
	default:
		d, ok := ToDecimal(value)
		if !ok {
			return e.Errorf(e.ShredBadDocumentType, nil, "unsupported value type %T at '%s'", value, path)
		}
		s.doc.QueryDblValues[path] = d
	}
	return nil
}

func (s *shredState) addContains(path string, value interface{}) error {
	entry, err := HashEntry(s.hasher, path, value)
	if err != nil {
		return e.Errorf(e.ShredBadDocumentType, err, "unsupported value at '%s'", path)
	}
	s.arrayContains[entry] = true
	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

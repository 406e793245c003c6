package operation

import (
	"strings"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
)

type outcomeKind int

const (
	// Zero value: a task that never reported back counts as failed, see incomplete
	outcomeFailed outcomeKind = iota
	outcomeApplied
	// outcomeUnchanged is an update producing the body the document already had
	outcomeUnchanged
	// outcomeVanished is a document deleted or no longer matching when it was re-read
	outcomeVanished
	// outcomeExhausted ran out of retries on version conflicts
	outcomeExhausted
)

// DocumentOutcome is the result of one document write pipeline. Each pipeline owns a single
// outcome, results are folded once every pipeline finished.
type DocumentOutcome struct {
	ID     document.ID
	kind   outcomeKind
	Err    error
	Before map[string]interface{}
	After  map[string]interface{}
}

func failed(id document.ID, err error) DocumentOutcome {
	return DocumentOutcome{ID: id, kind: outcomeFailed, Err: documentError(id, err)}
}

func incomplete(id document.ID) error {
	return e.Errorf(e.ServerError, nil, "document %s: write did not complete", id)
}

func documentError(id document.ID, err error) error {
	return e.Errorf(e.Code(err), err, "document %s: %s", id, e.Message(err))
}

type DeleteResult struct {
	DeletedCount int
	MoreData     bool
	Errors       []error
}

type UpdateResult struct {
	MatchedCount  int
	ModifiedCount int
	UpsertedID    *document.ID
	// Document is the body selected by ReturnDocument, nil when none
	Document  map[string]interface{}
	MoreData  bool
	PageState string
	Errors    []error
}

type InsertResult struct {
	InsertedIDs []document.ID
	Errors      []error
}

// concurrencyFailure aggregates the documents that exhausted their retries into one error
func concurrencyFailure(action string, ids []document.ID) error {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return e.Errorf(e.ConcurrencyFailure, nil,
		"unable to %s documents due to concurrent updates, documents ids: [%s]", action, strings.Join(names, ", "))
}

func foldErrors(outcomes []DocumentOutcome, action string) []error {
	var (
		errs      []error
		exhausted []document.ID
	)
	for _, o := range outcomes {
		switch o.kind {
		case outcomeFailed:
			if o.Err == nil {
				errs = append(errs, incomplete(o.ID))
				continue
			}
			errs = append(errs, o.Err)
		case outcomeExhausted:
			exhausted = append(exhausted, o.ID)
		}
	}
	if len(exhausted) > 0 {
		errs = append(errs, concurrencyFailure(action, exhausted))
	}
	return errs
}

func foldDeletes(outcomes []DocumentOutcome, moreData bool) DeleteResult {
	result := DeleteResult{MoreData: moreData, Errors: foldErrors(outcomes, "delete")}
	for _, o := range outcomes {
		if o.kind == outcomeApplied {
			result.DeletedCount++
		}
	}
	return result
}

func foldUpdates(outcomes []DocumentOutcome, returnDocument ReturnDocument, moreData bool, pageState string) UpdateResult {
	result := UpdateResult{MoreData: moreData, PageState: pageState, Errors: foldErrors(outcomes, "update")}
	selected := false
	for _, o := range outcomes {
		if o.kind == outcomeVanished {
			continue
		}
		// Documents that failed or ran out of retries were still matched
		result.MatchedCount++
		if o.kind == outcomeApplied {
			result.ModifiedCount++
		}
		if o.kind == outcomeFailed || o.kind == outcomeExhausted {
			continue
		}
		if !selected {
			selected = true
			switch returnDocument {
			case ReturnDocumentBefore:
				result.Document = o.Before
			case ReturnDocumentAfter:
				result.Document = o.After
			}
		}
	}
	return result
}

func foldInserts(outcomes []DocumentOutcome) InsertResult {
	result := InsertResult{InsertedIDs: make([]document.ID, 0, len(outcomes))}
	for _, o := range outcomes {
		if o.kind == outcomeApplied {
			result.InsertedIDs = append(result.InsertedIDs, o.ID)
		} else if o.Err != nil {
			result.Errors = append(result.Errors, o.Err)
		} else if o.kind == outcomeFailed {
			result.Errors = append(result.Errors, incomplete(o.ID))
		}
	}
	return result
}

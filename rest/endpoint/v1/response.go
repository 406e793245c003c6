package endpoint

import (
	"encoding/json"
	"net/http"

	e "github.com/datastax/cassandra-document-api/errors"
	m "github.com/datastax/cassandra-document-api/rest/models"
)

// RespondJSONObjectWithCode writes the object and status header to the response. Important to note that if this is being
// used for an error case then an empty return will need to immediately follow the call to this function
func RespondJSONObjectWithCode(w http.ResponseWriter, code int, obj interface{}) {
	setCommonHeaders(w)
	jsonBytes, err := json.Marshal(obj)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"message":"unable to marshal response","errorCode":"SERVER_ERROR"}]}`))
		return
	}
	w.WriteHeader(code)
	_, _ = w.Write(jsonBytes)
}

// RespondWithError reports a command that failed as a whole: request errors with 400, anything
// else with 500
func RespondWithError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if e.Code(err).IsRequestError() {
		code = http.StatusBadRequest
	}
	RespondJSONObjectWithCode(w, code, m.CommandResponse{Errors: toModelErrors(err)})
}

func toModelErrors(errs ...error) []m.ModelError {
	if len(errs) == 0 {
		return nil
	}
	result := make([]m.ModelError, len(errs))
	for i, err := range errs {
		result[i] = m.ModelError{
			Message:   e.Message(err),
			ErrorCode: e.Code(err).String(),
		}
	}
	return result
}

func setCommonHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
}

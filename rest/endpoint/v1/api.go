package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/mitchellh/mapstructure"

	"github.com/datastax/cassandra-document-api/clause"
	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/operation"
	m "github.com/datastax/cassandra-document-api/rest/models"
)

// maxBodySize bounds the size of a command body
const maxBodySize = 1 << 20

var (
	inputValidator *validator.Validate
	trans          ut.Translator
)

func init() {
	inputValidator = validator.New()

	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")

	_ = enTranslations.RegisterDefaultTranslations(inputValidator, trans)

	_ = inputValidator.RegisterTranslation("required", trans, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is a required field", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		translator, _ := ut.T("required", fe.Field())
		return translator
	})
}

// CollectionCommand runs a document command on a collection
func (s *routeList) CollectionCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyspace := s.params(r, keyspaceParam)
	collection := s.params(r, collectionParam)

	name, body, err := decodeCommand(r)
	if err != nil {
		RespondWithError(w, err)
		return
	}

	coll := operation.Collection{Keyspace: keyspace, Table: s.cfg.Naming().ToCQLTable(collection)}
	var response *m.CommandResponse
	switch name {
	case "find":
		response, err = s.find(ctx, coll, body, false)
	case "findOne":
		response, err = s.find(ctx, coll, body, true)
	case "countDocuments":
		response, err = s.countDocuments(ctx, coll, body)
	case "insertOne":
		response, err = s.insertOne(ctx, coll, body)
	case "insertMany":
		response, err = s.insertMany(ctx, coll, body)
	case "deleteOne":
		response, err = s.delete(ctx, coll, body, 1)
	case "deleteMany":
		response, err = s.delete(ctx, coll, body, s.cfg.MaxDeleteCount())
	case "findOneAndReplace":
		response, err = s.replace(ctx, coll, body, true)
	case "replaceOne":
		response, err = s.replace(ctx, coll, body, false)
	default:
		err = e.Errorf(e.UnsupportedCommand, nil, "unsupported command '%s'", name)
	}

	if err != nil {
		s.logger.Debug("command failed",
			"keyspace", keyspace,
			"collection", collection,
			"command", name,
			"error", err)
		RespondWithError(w, err)
		return
	}
	RespondJSONObjectWithCode(w, http.StatusOK, response)
}

// KeyspaceCommand runs a collection management command on a keyspace
func (s *routeList) KeyspaceCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyspace := s.params(r, keyspaceParam)

	name, body, err := decodeCommand(r)
	if err != nil {
		RespondWithError(w, err)
		return
	}

	var command m.CollectionCommand
	switch name {
	case "createCollection":
		if !s.cfg.SupportedOperations().IsSupported(config.CollectionCreate) {
			err = e.Errorf(e.UnsupportedCommand, nil, "collection creation is not enabled")
		} else if err = parseAndValidatePayload(body, &command); err == nil {
			err = s.createCollection(ctx, keyspace, command.Name)
		}
	case "deleteCollection":
		if !s.cfg.SupportedOperations().IsSupported(config.CollectionDelete) {
			err = e.Errorf(e.UnsupportedCommand, nil, "collection deletion is not enabled")
		} else if err = parseAndValidatePayload(body, &command); err == nil {
			err = s.exec.ExecuteSchema(ctx, db.DropCollectionStatement(&db.DropCollectionInfo{
				Keyspace:   keyspace,
				Collection: command.Name,
				Naming:     s.cfg.Naming(),
			}))
		}
	default:
		err = e.Errorf(e.UnsupportedCommand, nil, "unsupported command '%s'", name)
	}

	if err != nil {
		s.logger.Error("collection command failed",
			"keyspace", keyspace,
			"command", name,
			"error", err)
		RespondWithError(w, err)
		return
	}
	RespondJSONObjectWithCode(w, http.StatusOK, m.CommandResponse{Status: map[string]interface{}{"ok": 1}})
}

func (s *routeList) createCollection(ctx context.Context, keyspace string, name string) error {
	statements := db.CreateCollectionStatements(&db.CreateCollectionInfo{
		Keyspace:   keyspace,
		Collection: name,
		Naming:     s.cfg.Naming(),
	})
	for _, stmt := range statements {
		if err := s.exec.ExecuteSchema(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *routeList) newFind(coll operation.Collection, filter map[string]interface{}, sort json.RawMessage) (*operation.FindOperation, error) {
	tree, err := clause.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	sortFields, err := clause.ParseSort(sort)
	if err != nil {
		return nil, err
	}
	return &operation.FindOperation{
		Collection:       coll,
		Tree:             tree,
		Sort:             sortFields,
		PageSize:         s.cfg.PageSize(),
		MaxSortReadLimit: s.cfg.MaxSortReadLimit(),
	}, nil
}

func (s *routeList) find(ctx context.Context, coll operation.Collection, body json.RawMessage, one bool) (*m.CommandResponse, error) {
	var command m.FindCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	var options m.FindOptions
	if err := decodeOptions(command.Options, &options); err != nil {
		return nil, err
	}

	op, err := s.newFind(coll, command.Filter, command.Sort)
	if err != nil {
		return nil, err
	}
	if len(op.Sort) == 0 && options.Skip > 0 {
		return nil, e.Errorf(e.InvalidRequest, nil, "skip is only supported with a sort clause")
	}
	if len(op.Sort) > 0 && options.PageState != "" {
		return nil, e.Errorf(e.InvalidRequest, nil, "pageState is not supported with a sort clause")
	}
	op.Limit = options.Limit
	op.Skip = options.Skip
	op.PageState = options.PageState
	if one {
		op.Limit = 1
		op.PageState = ""
	}

	response, err := op.Execute(ctx, s.exec)
	if err != nil {
		return nil, err
	}

	data := &m.ResponseData{Docs: make([]map[string]interface{}, len(response.Docs))}
	for i, doc := range response.Docs {
		data.Docs[i] = doc.Body
	}
	if !one && response.MoreData {
		data.NextPageState = response.PageState
	}
	return &m.CommandResponse{Data: data}, nil
}

func (s *routeList) countDocuments(ctx context.Context, coll operation.Collection, body json.RawMessage) (*m.CommandResponse, error) {
	var command m.FindCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	find, err := s.newFind(coll, command.Filter, nil)
	if err != nil {
		return nil, err
	}
	count, err := (&operation.CountOperation{Find: find}).Execute(ctx, s.exec)
	if err != nil {
		return nil, err
	}
	return &m.CommandResponse{Status: map[string]interface{}{"count": count}}, nil
}

func (s *routeList) insertOne(ctx context.Context, coll operation.Collection, body json.RawMessage) (*m.CommandResponse, error) {
	var command m.InsertOneCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	return s.insert(ctx, coll, []map[string]interface{}{command.Document}, true)
}

func (s *routeList) insertMany(ctx context.Context, coll operation.Collection, body json.RawMessage) (*m.CommandResponse, error) {
	var command m.InsertManyCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	var options m.InsertManyOptions
	if err := decodeOptions(command.Options, &options); err != nil {
		return nil, err
	}
	if len(command.Documents) > s.cfg.MaxInsertCount() {
		return nil, e.Errorf(e.InvalidRequest, nil,
			"too many documents to insert: %d, the maximum is %d", len(command.Documents), s.cfg.MaxInsertCount())
	}
	ordered := options.Ordered == nil || *options.Ordered
	return s.insert(ctx, coll, command.Documents, ordered)
}

func (s *routeList) insert(ctx context.Context, coll operation.Collection, docs []map[string]interface{}, ordered bool) (*m.CommandResponse, error) {
	op := &operation.InsertOperation{
		Collection: coll,
		Docs:       docs,
		Shredder:   s.shredder,
		Ordered:    ordered,
		Pool:       s.pool,
	}
	result, err := op.Execute(ctx, s.exec)
	if err != nil {
		return nil, err
	}

	ids := make([]interface{}, len(result.InsertedIDs))
	for i, id := range result.InsertedIDs {
		ids[i] = id.JSON()
	}
	return &m.CommandResponse{
		Status: map[string]interface{}{"insertedIds": ids},
		Errors: toModelErrors(result.Errors...),
	}, nil
}

func (s *routeList) delete(ctx context.Context, coll operation.Collection, body json.RawMessage, limit int) (*m.CommandResponse, error) {
	var command m.DeleteCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	find, err := s.newFind(coll, command.Filter, nil)
	if err != nil {
		return nil, err
	}

	op := &operation.DeleteOperation{
		Find:        find,
		DeleteLimit: limit,
		MaxRetries:  s.cfg.LWTRetries(),
		Pool:        s.pool,
		Logger:      s.logger,
	}
	result, err := op.Execute(ctx, s.exec)
	if err != nil {
		return nil, err
	}

	status := map[string]interface{}{"deletedCount": result.DeletedCount}
	if limit > 1 && result.MoreData {
		status["moreData"] = true
	}
	return &m.CommandResponse{Status: status, Errors: toModelErrors(result.Errors...)}, nil
}

func (s *routeList) replace(ctx context.Context, coll operation.Collection, body json.RawMessage, returnDocument bool) (*m.CommandResponse, error) {
	var command m.ReplaceCommand
	if err := parseAndValidatePayload(body, &command); err != nil {
		return nil, err
	}
	var options m.ReplaceOptions
	if err := decodeOptions(command.Options, &options); err != nil {
		return nil, err
	}
	updater, err := clause.ParseReplacement(command.Replacement)
	if err != nil {
		return nil, err
	}
	find, err := s.newFind(coll, command.Filter, command.Sort)
	if err != nil {
		return nil, err
	}

	op := &operation.ReadAndUpdateOperation{
		Find:       find,
		Updater:    updater,
		Shredder:   s.shredder,
		Limit:      1,
		MaxRetries: s.cfg.LWTRetries(),
		Upsert:     options.Upsert,
		Pool:       s.pool,
		Logger:     s.logger,
	}
	if returnDocument {
		op.ReturnDocument = operation.ReturnDocumentBefore
		if options.ReturnDocument == "after" {
			op.ReturnDocument = operation.ReturnDocumentAfter
		}
	}

	result, err := op.Execute(ctx, s.exec)
	if err != nil {
		return nil, err
	}

	response := &m.CommandResponse{
		Status: map[string]interface{}{
			"matchedCount":  result.MatchedCount,
			"modifiedCount": result.ModifiedCount,
		},
		Errors: toModelErrors(result.Errors...),
	}
	if result.UpsertedID != nil {
		response.Status["upsertedId"] = result.UpsertedID.JSON()
	}
	if returnDocument {
		response.Data = &m.ResponseData{Docs: []map[string]interface{}{}}
		if result.Document != nil {
			response.Data.Docs = append(response.Data.Docs, result.Document)
		}
	}
	return response, nil
}

// decodeCommand reads a body holding exactly one command: {"<name>": {...}}
func decodeCommand(r *http.Request) (string, json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return "", nil, e.Errorf(e.InvalidRequest, err, "unable to read request body")
	}
	if len(data) > maxBodySize {
		return "", nil, e.Errorf(e.InvalidRequest, nil, "request body is too large")
	}

	var commands map[string]json.RawMessage
	if err := json.Unmarshal(data, &commands); err != nil {
		return "", nil, e.Errorf(e.InvalidRequest, err, "request body must be a JSON object")
	}
	if len(commands) != 1 {
		return "", nil, e.Errorf(e.InvalidRequest, nil, "request body must hold exactly one command, found %d", len(commands))
	}
	for name, body := range commands {
		return name, body, nil
	}
	return "", nil, nil
}

// parseAndValidatePayload decodes a command keeping numbers as json.Number, then validates it
func parseAndValidatePayload(body json.RawMessage, payload interface{}) error {
	if len(bytes.TrimSpace(body)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(payload); err != nil {
			return e.Errorf(e.InvalidRequest, err, "invalid command: %s", err.Error())
		}
	}
	if err := inputValidator.Struct(payload); err != nil {
		return e.TranslateValidatorError(err, trans)
	}
	return nil
}

func decodeOptions(options map[string]interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      result,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(options); err != nil {
		return e.Errorf(e.InvalidRequest, err, "invalid options: %s", err.Error())
	}
	if err := inputValidator.Struct(result); err != nil {
		return e.TranslateValidatorError(err, trans)
	}
	return nil
}

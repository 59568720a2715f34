package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const responseSchema = `{
	"type": "object",
	"required": ["content"],
	"properties": {
		"content": {"type": "string"},
		"query_result": {
			"type": ["object", "null"],
			"required": ["sql_query"],
			"properties": {
				"sql_query": {"type": "string", "minLength": 1},
				"result_type": {"enum": ["dataset", "metric", "record"]},
				"result_uuid": {"type": "string"},
				"object_key": {"type": "string"},
				"visual_json": {}
			}
		}
	}
}`

const maxResponseSize = 8 << 20

// HTTPEngine posts the agent context as JSON to {endpoint}/prompt.
type HTTPEngine struct {
	endpoint string
	client   *http.Client
	schema   *jsonschema.Schema
}

func NewHTTPEngine(endpoint string, timeout time.Duration) (*HTTPEngine, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", strings.NewReader(responseSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("response.json")
	if err != nil {
		return nil, err
	}
	return &HTTPEngine{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		schema:   schema,
	}, nil
}

func (e *HTTPEngine) Prompt(ctx context.Context, ac *AgentContext) (*Result, error) {
	body, err := e.requestBody(ac)
	if err != nil {
		return nil, ErrEngineRequest.Err(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/prompt", bytes.NewReader(body))
	if err != nil {
		return nil, ErrEngineRequest.Err(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("endpoint", e.endpoint).Msg("engine request failed")
		return nil, ErrEngineRequest.Err(err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ErrEngineResponse.Err(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(respBody, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		log.Ctx(ctx).Error().Int("status", resp.StatusCode).Str("error", msg).Msg("engine rejected prompt")
		return nil, ErrEngineStatus.Suffix(msg)
	}
	return e.parse(respBody)
}

func (e *HTTPEngine) requestBody(ac *AgentContext) ([]byte, error) {
	acJSON, err := json.Marshal(ac)
	if err != nil {
		return nil, err
	}
	body, err := sjson.SetRawBytes([]byte(`{}`), "context", acJSON)
	if err != nil {
		return nil, err
	}
	body, err = sjson.SetBytes(body, "request_id", uuid.NewString())
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "stream", false)
}

func (e *HTTPEngine) parse(body []byte) (*Result, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, ErrEngineResponse.Err(err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, ErrEngineResponse.Err(err)
	}

	res := &Result{Content: gjson.GetBytes(body, "content").String()}
	qr := gjson.GetBytes(body, "query_result")
	if !qr.IsObject() {
		return res, nil
	}
	res.QueryResult = &QueryResult{
		SQLQuery:   qr.Get("sql_query").String(),
		ResultType: types.ResultType(qr.Get("result_type").String()),
		ObjectKey:  qr.Get("object_key").String(),
	}
	if res.QueryResult.ResultType == "" {
		res.QueryResult.ResultType = types.ResultTypeDataset
	}
	if s := qr.Get("result_uuid").String(); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, ErrEngineResponse.Err(err)
		}
		res.QueryResult.ResultUUID = id
	}
	if v := qr.Get("visual_json"); v.Exists() && v.Type != gjson.Null {
		res.QueryResult.VisualJSON = jsoniter.RawMessage(v.Raw)
	}
	return res, nil
}

package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/copyleftdev/descent/internal/errors"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeNotFound       = -32004
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

type idParams struct {
	ID    string `json:"id"`
	Until int    `json:"until,omitempty"`
	Back  int    `json:"back,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests. Every method takes a single
// object in the params array.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "trajectory.start":
		var p SpecRequest
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.Start(p)
		}
	case "trajectory.status":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.Status(p.ID, p.Until, p.Back)
		}
	case "trajectory.cancel":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			err = s.Cancel(p.ID)
			result = map[string]string{"status": "cancellation requested"}
		}
	case "trajectory.compare":
		var p CompareRequest
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.Compare(r.Context(), p)
		}
	case "surfaces.list":
		result = Surfaces()
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		switch apperrors.StatusCode(err) {
		case http.StatusNotFound:
			s.respondWithError(w, codeNotFound, err.Error(), request.ID)
		case http.StatusBadRequest:
			s.respondWithError(w, codeInvalidParams, err.Error(), request.ID)
		default:
			s.respondWithError(w, codeServerError, "Server error", request.ID)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func decodeParams(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return apperrors.Wrap(apperrors.ErrBadRequest, "missing required parameters")
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return apperrors.Wrap(apperrors.ErrBadRequest, "invalid parameter format, expected object")
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Debug("rpc error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

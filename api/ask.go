package api

import (
	"net/http"

	"github.com/manna-labs/manna/internal/engine"
	"github.com/manna-labs/manna/internal/log"
)

// askHandler serves the question answering endpoints.
type askHandler struct {
	engine Asker
	logger log.Logger
}

func newAskHandler(e Asker, logger log.Logger) *askHandler {
	return &askHandler{engine: e, logger: logger}
}

// decodeRequest parses the JSON request body.
func decodeRequest(w http.ResponseWriter, r *http.Request) (engine.Request, bool) {
	var req engine.Request
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return engine.Request{}, false
	}
	return req, true
}

// ask answers a question in one response, or over SSE when the request
// sets stream.
func (h *askHandler) ask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Stream {
		h.streamAnswer(w, r, req)
		return
	}

	ans, err := h.engine.Ask(r.Context(), req)
	if err != nil {
		h.logger.Error("ask failed", "error", err)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// chunkEvent is the payload of each streamed text fragment.
type chunkEvent struct {
	Text string `json:"text"`
}

// askStream answers a question over SSE regardless of the request's
// stream field.
func (h *askHandler) askStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	h.streamAnswer(w, r, req)
}

// streamAnswer writes the answer as SSE. The event order is fixed:
// one sources event, zero or more chunk events, then exactly one of
// done or error.
func (h *askHandler) streamAnswer(w http.ResponseWriter, r *http.Request, req engine.Request) {
	// Validation and retrieval failures happen before any SSE bytes go
	// out, so they still get a proper HTTP status.
	sources, stream, err := h.engine.AskStream(r.Context(), req)
	if err != nil {
		h.logger.Error("ask stream failed", "error", err)
		writeEngineError(w, err)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	if err := sse.writeEvent("sources", sources); err != nil {
		h.logger.Warn("client gone before sources event", "error", err)
		return
	}

	for text, streamErr := range stream {
		if streamErr != nil {
			h.logger.Error("stream failed mid-answer", "error", streamErr)
			_ = sse.writeEvent("error", errorDetail{
				Code:    "stream_error",
				Message: "answer generation failed",
			})
			return
		}
		if err := sse.writeEvent("chunk", chunkEvent{Text: text}); err != nil {
			h.logger.Warn("client gone mid-stream", "error", err)
			return
		}
	}

	_ = sse.writeEvent("done", struct{}{})
}

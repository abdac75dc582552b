package controller_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeRejectsMissingToken(t *testing.T) {
	h := newTestHarness(t)
	rec := h.request(t, http.MethodGet, "/api/v1/runtime/fi-context", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRuntimeRejectsForgedToken(t *testing.T) {
	h := newTestHarness(t)
	rec := h.request(t, http.MethodGet, "/api/v1/runtime/fi-context", "not-a-real-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRuntimeContext(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodGet, "/api/v1/runtime/fi-context", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	fi := body["function_instance"].(map[string]interface{})
	assert.Equal(t, instance.UUID.String(), fi["uuid"])
	assert.Equal(t, string(entity.InstanceStatusRunning), fi["status"])

	inputs := body["inputs"].([]interface{})
	require.Len(t, inputs, 1)
	input := inputs[0].(map[string]interface{})
	assert.Equal(t, "in", input["id_name"])
	assert.Equal(t, utils.EncodeB64(entity.EncodeText("payload")), input["bytes"])

	outputs := body["outputs"].([]interface{})
	assert.Empty(t, outputs)
}

func TestGetRuntimeContextInstanceGone(t *testing.T) {
	h := newTestHarness(t)
	token := h.runtimeToken(t, uuid.New())

	rec := h.request(t, http.MethodGet, "/api/v1/runtime/fi-context", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRuntimeLogMessage(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-log", token, map[string]string{
		"log_message": "step one done",
		"log_level":   "debug",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "step one done", body["log_message"])
	assert.Equal(t, "debug", body["log_level"])

	messages, err := h.ctrl.Repository.LogMessageRepo.ListByInstance(instance.UUID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestCreateRuntimeLogMessageValidation(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-log", token, map[string]string{
		"log_message": strings.Repeat("x", entity.MaxLogMessageLength+1),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/runtime/fi-log", token, map[string]string{
		"log_message": "fine",
		"log_level":   "critical",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/runtime/fi-log", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRuntimeLogMessageInstanceGone(t *testing.T) {
	h := newTestHarness(t)
	token := h.runtimeToken(t, uuid.New())

	// A well-signed token for a deleted instance fails closed and leaves
	// no orphan rows behind.
	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-log", token, map[string]string{
		"log_message": "orphan line",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var count int64
	require.NoError(t, h.db.Model(&entity.FunctionInstanceLogMessage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestUpdateRuntimeStatusComplete(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPatch, "/api/v1/runtime/fi-status", token, map[string]string{
		"status_method": "complete",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, string(entity.InstanceStatusCompleted), body["status"])
	assert.NotNil(t, body["completed"])
}

func TestUpdateRuntimeStatusConflict(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPatch, "/api/v1/runtime/fi-status", token, map[string]string{
		"status_method": "block",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Blocked is terminal; a second transition must conflict and report both
	// sides of the attempt.
	rec = h.request(t, http.MethodPatch, "/api/v1/runtime/fi-status", token, map[string]string{
		"status_method": "complete",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(entity.InstanceStatusBlocked), body["current_status"])
	assert.Equal(t, string(entity.InstanceStatusCompleted), body["updated_status"])
}

func TestUpdateRuntimeStatusInvalidMethod(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPatch, "/api/v1/runtime/fi-status", token, map[string]string{
		"status_method": "pause",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func outputEnvelope(t *testing.T, idName, typ string, value []byte) map[string]string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"id_name": idName,
		"type":    typ,
		"bytes":   utils.EncodeB64(value),
	})
	require.NoError(t, err)
	return map[string]string{"output": utils.EncodeB64(payload)}
}

func TestCreateRuntimeOutput(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-output", token,
		outputEnvelope(t, "out", "text", entity.EncodeText("result one")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/runtime/fi-output", token,
		outputEnvelope(t, "out", "text", entity.EncodeText("result two")))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	outputs := body["outputs"].([]interface{})
	require.Len(t, outputs, 2)
	first := outputs[0].(map[string]interface{})
	second := outputs[1].(map[string]interface{})
	assert.EqualValues(t, 0, first["rank"])
	assert.EqualValues(t, 1, second["rank"])
	assert.Equal(t, utils.EncodeB64(entity.EncodeText("result two")), second["bytes"])
}

func TestCreateRuntimeOutputUndecodablePayload(t *testing.T) {
	h := newTestHarness(t)
	instance := h.seedRunningInstance(t)
	token := h.runtimeToken(t, instance.UUID)

	// Valid base64, but the decoded bytes are not a JSON payload. The caller
	// gets a generic failure, not a validation message.
	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-output", token, map[string]string{
		"output": utils.EncodeB64([]byte("not json at all")),
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to process output payload", body["error"])

	rec = h.request(t, http.MethodPost, "/api/v1/runtime/fi-output", token, map[string]string{
		"output": "!!not base64!!",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateRuntimeOutputInstanceVanished(t *testing.T) {
	h := newTestHarness(t)
	token := h.runtimeToken(t, uuid.New())

	rec := h.request(t, http.MethodPost, "/api/v1/runtime/fi-output", token,
		outputEnvelope(t, "out", "text", entity.EncodeText("orphan")))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

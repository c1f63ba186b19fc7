package queue

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteViewLine(t *testing.T) {
	body, err := json.Marshal(PortalViewedEvent{
		ProjectID: "p1",
		SessionID: "s1",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8",
		ViewedAt:  "2026-10-14T10:00:00Z",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteViewLine(&buf, body))
	require.Equal(t,
		"[2026-10-14T10:00:00Z] Portal viewed | project_id=p1 | client=- | session_id=s1 | ip=10.0.0.1 | ua=\"curl/8\"\n",
		buf.String())
}

func TestWriteViewLineRejectsBadPayload(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteViewLine(&buf, []byte("{")))
	require.Error(t, WriteViewLine(&buf, []byte(`{"client_email":"a@b.c"}`)))
	require.Zero(t, buf.Len())
}

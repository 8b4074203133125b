package notification

import (
	"bytes"
	"context"
	"testing"

	"paydesk/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendLogsWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService("noreply@paydesk.local", logging.NewWithOutput("info", "json", &buf))

	err := svc.Send(context.Background(), Message{To: "eva@example.sk", Subject: "Welcome", Body: "password: hunter22"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "eva@example.sk")
	assert.Contains(t, out, "Welcome")
	assert.NotContains(t, out, "hunter22")
}

package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender("mail.local", "2525", "", "", "shop@example.com")

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "Your OTP Code", "Your OTP is 123456.", "a@b.io"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"a@b.io"}, gotTo)
	assert.True(t, strings.HasSuffix(string(gotMsg), "\r\n\r\nYour OTP is 123456."))
	assert.Contains(t, string(gotMsg), "Subject: Your OTP Code\r\n")
}

func TestSMTPSenderRejectsHeaderInjection(t *testing.T) {
	s := NewSMTPSender("mail.local", "25", "", "", "shop@example.com")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("should not send")
		return nil
	}
	assert.Error(t, s.Send(context.Background(), "hi", "body", "a@b.io\r\nBcc: x@y.io"))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{Log: zap.NewNop()}.Send(context.Background(), "s", "b", "t@x.io"))
}

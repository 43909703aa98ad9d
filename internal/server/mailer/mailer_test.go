package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWithoutHost(t *testing.T) {
	m := New(Config{From: "shop@example.com"}, logging.Nop())
	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrDisabled)
}

func TestMessage_Validate(t *testing.T) {
	ok := Message{To: "alice@example.com", Subject: "Order #1", HTMLContent: "<p>thanks</p>"}
	require.NoError(t, ok.Validate())

	bad := []Message{
		{To: "not-an-address", Subject: "s", HTMLContent: "x"},
		{To: "alice@example.com", Subject: "a\r\nBcc: evil@example.com", HTMLContent: "x"},
		{To: "alice@example.com", Subject: "s", HTMLContent: "  "},
	}
	for _, m := range bad {
		assert.ErrorIs(t, m.Validate(), common.ErrValidation)
	}
}

func TestSend_PlainSMTP(t *testing.T) {
	orig := sendMail
	t.Cleanup(func() { sendMail = orig })

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	m := New(Config{Host: "mail.local", From: "shop@example.com", Security: "NONE"}, logging.Nop())
	require.True(t, m.Enabled())

	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Đơn hàng", HTMLContent: "<b>ok</b>"})
	require.NoError(t, err)

	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=utf-8\r\n")
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(gotMsg, "<b>ok</b>\r\n"))
}

func TestSend_PropagatesTransportError(t *testing.T) {
	orig := sendMail
	t.Cleanup(func() { sendMail = orig })
	sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 busy") }

	m := New(Config{Host: "mail.local", Port: "25", From: "shop@example.com", Security: "none"}, logging.Nop())
	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "s", HTMLContent: "x"})
	assert.EqualError(t, err, "421 busy")
}

func TestSend_InvalidMessageNotSent(t *testing.T) {
	orig := sendMail
	t.Cleanup(func() { sendMail = orig })
	sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not send")
		return nil
	}

	m := New(Config{Host: "mail.local", From: "shop@example.com", Security: "none"}, logging.Nop())
	assert.ErrorIs(t, m.Send(context.Background(), Message{To: "bad"}), common.ErrValidation)
}

func TestMaskForLog(t *testing.T) {
	assert.Equal(t, "(none)", maskForLog(""))
	assert.Equal(t, "***", maskForLog("ab"))
	assert.Equal(t, "a***e", maskForLog("alice"))
}
